package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestVitals(t *testing.T) {
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	vitals := []VitalSign{
		scalar(t, "w", VitalWeight, 70, base),
		bp("bp-old", 118, 78, base),
		bp("bp-new", 125, 82, base.Add(time.Hour)),
		scalar(t, "hr", VitalHeartRate, 64, base.Add(30*time.Minute)),
	}

	got := LatestVitals(vitals)
	assert.Equal(t, []string{"bp-new", "hr", "w"}, vitalIDs(got))
}

func TestLatestVitals_OnlyBloodPressure(t *testing.T) {
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	got := LatestVitals([]VitalSign{
		bp("first", 120, 80, base),
		bp("second", 130, 85, base.Add(time.Minute)),
	})

	require.Len(t, got, 1)
	assert.Equal(t, "second", got[0].ID)
}

func TestUpcomingMedications(t *testing.T) {
	meds := []Medication{
		{ID: "a", Time: "07:00", TakenToday: true},
		{ID: "b", Time: "21:00"},
		{ID: "c", Time: "09:00"},
		{ID: "d", Time: "13:00"},
		{ID: "e", Time: "18:00"},
	}

	assert.Equal(t, []string{"c", "d", "e"}, medicationIDs(UpcomingMedications(meds)))
	assert.Empty(t, UpcomingMedications(nil))
}

func TestRecentSymptoms(t *testing.T) {
	logs := []SymptomLog{{ID: "4"}, {ID: "3"}, {ID: "2"}, {ID: "1"}}

	got := RecentSymptoms(logs)
	assert.Equal(t, []string{"4", "3", "2"}, symptomIDs(got))

	got[0].ID = "changed"
	assert.Equal(t, "4", logs[0].ID)

	assert.Len(t, RecentSymptoms(logs[:1]), 1)
}

func TestUpcomingAppointments(t *testing.T) {
	appts := []Appointment{
		{ID: "late", PreferredDate: "2025-07-10", PreferredTime: "09:00", Status: StatusRequested},
		{ID: "done", PreferredDate: "2025-06-01", PreferredTime: "09:00", Status: StatusCompleted},
		{ID: "soon-pm", PreferredDate: "2025-06-05", PreferredTime: "15:00", Status: StatusConfirmed},
		{ID: "soon-am", PreferredDate: "2025-06-05", PreferredTime: "08:30", Status: StatusRequested},
		{ID: "off", PreferredDate: "2025-06-02", PreferredTime: "08:30", Status: StatusCancelled},
	}

	got := UpcomingAppointments(appts)
	assert.Equal(t, []string{"soon-am", "soon-pm"}, ids(got, func(a Appointment) string { return a.ID }))
}

func TestStore_Dashboard(t *testing.T) {
	clock := newFakeClock(time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC))
	s := NewStore(WithClock(clock.Now))

	s.AddVital(bp("bp1", 120, 80, clock.Now()))
	s.AddVital(bp("bp2", 122, 81, clock.Now().Add(time.Minute)))
	s.AddMedication(Medication{ID: "m1", Time: "08:00"})
	for i := 0; i < 3; i++ {
		s.AddSymptom(SymptomLog{ID: NewID(), Description: "persistent cough", Severity: 3, Timestamp: clock.Now()})
		clock.Advance(24 * time.Hour)
	}

	d := s.Dashboard()
	assert.Equal(t, []string{"bp2"}, vitalIDs(d.LatestVitals))
	assert.Equal(t, []string{"m1"}, medicationIDs(d.UpcomingMedications))
	assert.Len(t, d.RecentSymptoms, 3)
	assert.Empty(t, d.UpcomingAppointments)
	require.NotNil(t, d.Alert)
	assert.Equal(t, "cough", d.Alert.Keyword)
}
