package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFilterVitals(t *testing.T) {
	day := func(d, h int) time.Time { return time.Date(2025, 6, d, h, 0, 0, 0, time.UTC) }
	pressure := bp("bp", 120, 80, day(3, 23))
	pressure.Notes = "after walk"
	vitals := []VitalSign{
		pressure,
		scalar(t, "hr", VitalHeartRate, 72, day(2, 8)),
		scalar(t, "w", VitalWeight, 80.5, day(1, 0)),
	}
	from := time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		f    VitalFilter
		want []string
	}{
		{"everything", VitalFilter{}, []string{"bp", "hr", "w"}},
		{"by type", VitalFilter{Type: VitalHeartRate}, []string{"hr"}},
		{"date range is whole days", VitalFilter{From: from, To: to}, []string{"bp", "hr"}},
		{"from only", VitalFilter{From: to}, []string{"bp"}},
		{"notes", VitalFilter{Search: "WALK"}, []string{"bp"}},
		{"type name", VitalFilter{Search: "weight"}, []string{"w"}},
		{"pressure reading", VitalFilter{Search: "120/80"}, []string{"bp"}},
		{"scalar reading", VitalFilter{Search: "80.5"}, []string{"w"}},
		{"no match", VitalFilter{Search: "glucose"}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, vitalIDs(FilterVitals(vitals, tc.f)))
		})
	}
}
