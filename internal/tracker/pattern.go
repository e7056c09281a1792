package tracker

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	minKeywordLength = 4
	minMatches       = 3
	minDistinctDays  = 3
	lookbackDays     = 7
)

var (
	keywordSplit     = regexp.MustCompile(`,|\band\b|\bwith\b`)
	leadingQualifier = regexp.MustCompile(`^(persistent|mild|severe|slight|constant|intermittent)\s+`)
)

// SymptomKeyword reduces a free-text description to the word or phrase used for recurrence checks.
// "Persistent headache and nausea" becomes "headache".
func SymptomKeyword(description string) string {
	first := keywordSplit.Split(strings.ToLower(description), 2)[0]
	first = strings.TrimSpace(first)
	first = leadingQualifier.ReplaceAllString(first, "")
	return strings.TrimSpace(first)
}

func keywordMatcher(keyword string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(keyword) + `(?:$|[^\p{L}\p{N}])`)
}

// DetectPattern checks whether the keyword of description shows up on enough distinct days
// in the week before now. logs must already contain the entry being added.
func DetectPattern(logs []SymptomLog, description string, now time.Time) (PatternAlert, bool) {
	keyword := SymptomKeyword(description)
	if len([]rune(keyword)) < minKeywordLength {
		return PatternAlert{}, false
	}

	re := keywordMatcher(keyword)
	var matches []SymptomLog
	for _, l := range logs {
		if re.MatchString(l.Description) {
			matches = append(matches, l)
		}
	}
	if len(matches) < minMatches {
		return PatternAlert{}, false
	}

	loc := now.Location()
	y, m, d := now.Date()
	windowStart := time.Date(y, m, d-lookbackDays, 0, 0, 0, 0, loc)

	days := make(map[string]struct{})
	for _, l := range matches {
		ts := l.Timestamp.In(loc)
		if ts.Before(windowStart) {
			continue
		}
		days[ts.Format(time.DateOnly)] = struct{}{}
	}
	if len(days) < minDistinctDays {
		return PatternAlert{}, false
	}

	return PatternAlert{
		Keyword: keyword,
		Days:    len(days),
		Message: fmt.Sprintf("You've reported symptoms related to %q on %d different days in the last week. "+
			"If this persists or worsens, please consider consulting your healthcare provider.", keyword, len(days)),
		RaisedAt: now,
	}, true
}
