package tracker

import (
	"strconv"
	"strings"
	"time"
)

// VitalFilter narrows the vitals history. Zero fields match everything.
// From and To are calendar days; both ends are inclusive.
type VitalFilter struct {
	Type   VitalType
	From   time.Time
	To     time.Time
	Search string
}

func (f VitalFilter) Match(v VitalSign) bool {
	if f.Type != "" && v.Type() != f.Type {
		return false
	}
	if !f.From.IsZero() {
		y, m, d := f.From.Date()
		if v.Timestamp.Before(time.Date(y, m, d, 0, 0, 0, 0, f.From.Location())) {
			return false
		}
	}
	if !f.To.IsZero() {
		y, m, d := f.To.Date()
		if !v.Timestamp.Before(time.Date(y, m, d+1, 0, 0, 0, 0, f.To.Location())) {
			return false
		}
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		haystack := strings.ToLower(strings.Join([]string{
			v.Notes,
			string(v.Type()),
			measurementText(v.Measurement),
		}, "\n"))
		if !strings.Contains(haystack, q) {
			return false
		}
	}
	return true
}

func FilterVitals(vitals []VitalSign, f VitalFilter) []VitalSign {
	out := make([]VitalSign, 0, len(vitals))
	for _, v := range vitals {
		if f.Match(v) {
			out = append(out, v)
		}
	}
	return out
}

func measurementText(m Measurement) string {
	if m == nil {
		return ""
	}
	return m.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
