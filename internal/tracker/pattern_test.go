package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var patternNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func symptomAt(desc string, daysAgo int, hour int) SymptomLog {
	y, m, d := patternNow.Date()
	return SymptomLog{
		ID:          NewID(),
		Description: desc,
		Severity:    5,
		Timestamp:   time.Date(y, m, d-daysAgo, hour, 0, 0, 0, time.UTC),
	}
}

func TestSymptomKeyword(t *testing.T) {
	cases := map[string]string{
		"severe cough, sore throat":    "cough",
		"Persistent headache":          "headache",
		"Mild nausea and vomiting":     "nausea",
		"joint pain with swelling":     "joint pain",
		"  Intermittent   dizziness  ": "dizziness",
		"Fatigue":                      "fatigue",
		"bandage area itching":         "bandage area itching",
		"Constant Mal de tête, fièvre": "mal de tête",
	}
	for in, want := range cases {
		assert.Equal(t, want, SymptomKeyword(in), in)
	}
}

func TestDetectPattern_ThreeDistinctDays(t *testing.T) {
	logs := []SymptomLog{
		symptomAt("Persistent headache", 0, 9),
		symptomAt("Persistent headache", 1, 9),
		symptomAt("Persistent headache", 2, 9),
	}

	alert, ok := DetectPattern(logs, "Persistent headache", patternNow)
	require.True(t, ok)
	assert.Equal(t, "headache", alert.Keyword)
	assert.Equal(t, 3, alert.Days)
	assert.Contains(t, alert.Message, `"headache"`)
	assert.Contains(t, alert.Message, "3 different days")
	assert.Equal(t, patternNow, alert.RaisedAt)
}

func TestDetectPattern_TwoDistinctDays(t *testing.T) {
	logs := []SymptomLog{
		symptomAt("Persistent headache", 0, 9),
		symptomAt("headache again", 0, 18),
		symptomAt("Persistent headache", 1, 9),
	}

	_, ok := DetectPattern(logs, "Persistent headache", patternNow)
	assert.False(t, ok)
}

func TestDetectPattern_OutsideWindow(t *testing.T) {
	logs := []SymptomLog{
		symptomAt("cough", 0, 9),
		symptomAt("cough", 1, 9),
		symptomAt("cough", 8, 9),
		symptomAt("cough", 12, 9),
	}

	_, ok := DetectPattern(logs, "severe cough, sore throat", patternNow)
	assert.False(t, ok)

	// Midnight seven days back is still inside.
	logs = append(logs, symptomAt("cough", 7, 0))
	alert, ok := DetectPattern(logs, "severe cough, sore throat", patternNow)
	require.True(t, ok)
	assert.Equal(t, 3, alert.Days)
}

func TestDetectPattern_ShortKeyword(t *testing.T) {
	logs := []SymptomLog{
		symptomAt("flu", 0, 9),
		symptomAt("flu", 1, 9),
		symptomAt("flu", 2, 9),
		symptomAt("flu", 3, 9),
	}

	_, ok := DetectPattern(logs, "flu", patternNow)
	assert.False(t, ok)
}

func TestDetectPattern_WholeWordOnly(t *testing.T) {
	logs := []SymptomLog{
		symptomAt("headaches all day", 0, 9),
		symptomAt("my headaches", 1, 9),
		symptomAt("headache", 2, 9),
	}

	_, ok := DetectPattern(logs, "headache", patternNow)
	assert.False(t, ok)
}

func TestDetectPattern_CaseAndPunctuation(t *testing.T) {
	logs := []SymptomLog{
		symptomAt("NAUSEA.", 0, 9),
		symptomAt("Felt nausea, then rested", 1, 9),
		symptomAt("(nausea)", 2, 9),
	}

	alert, ok := DetectPattern(logs, "Mild nausea and vomiting", patternNow)
	require.True(t, ok)
	assert.Equal(t, "nausea", alert.Keyword)
}

func TestDetectPattern_NonASCII(t *testing.T) {
	logs := []SymptomLog{
		symptomAt("fièvre", 0, 9),
		symptomAt("forte fièvre", 1, 9),
		symptomAt("fièvre, toux", 2, 9),
	}

	alert, ok := DetectPattern(logs, "fièvre", patternNow)
	require.True(t, ok)
	assert.Equal(t, "fièvre", alert.Keyword)
}

func TestDetectPattern_RegexMetacharacters(t *testing.T) {
	logs := []SymptomLog{
		symptomAt("pain (left)", 0, 9),
		symptomAt("pain (left)", 1, 9),
		symptomAt("pain (left)", 2, 9),
	}

	alert, ok := DetectPattern(logs, "pain (left)", patternNow)
	require.True(t, ok)
	assert.Equal(t, "pain (left)", alert.Keyword)
}
