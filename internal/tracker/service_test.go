package tracker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type insightFunc func(ctx context.Context, language, description string, severity int, notes string) (string, error)

func (f insightFunc) SymptomInsight(ctx context.Context, language, description string, severity int, notes string) (string, error) {
	return f(ctx, language, description, severity, notes)
}

func TestService_LogVitalFillsDefaults(t *testing.T) {
	clock := newFakeClock(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))
	svc := NewService(NewStore(WithClock(clock.Now)), nil)

	v, err := svc.LogVital(context.Background(), VitalInput{Type: VitalGlucose, Value: f64(110), Notes: " fasting "})
	require.NoError(t, err)
	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "mg/dL", v.Unit)
	assert.Equal(t, clock.Now(), v.Timestamp)
	assert.Equal(t, "fasting", v.Notes)

	_, err = svc.LogVital(context.Background(), VitalInput{Type: VitalGlucose, Value: f64(900)})
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Len(t, svc.Vitals(context.Background(), VitalFilter{}), 1)
}

func TestService_UpdateVital(t *testing.T) {
	svc := NewService(NewStore(), nil)
	ctx := context.Background()

	v, err := svc.LogVital(ctx, VitalInput{Type: VitalHeartRate, Value: f64(70)})
	require.NoError(t, err)

	got, err := svc.UpdateVital(ctx, v.ID, VitalInput{Type: VitalHeartRate, Value: f64(74), Notes: "after walk"})
	require.NoError(t, err)
	assert.Equal(t, v.ID, got.ID)
	assert.Equal(t, "74", got.Measurement.String())
	assert.Equal(t, "after walk", got.Notes)

	_, err = svc.UpdateVital(ctx, v.ID, VitalInput{Type: VitalBloodPressure, Systolic: f64(121), Diastolic: f64(79)})
	assert.ErrorIs(t, err, ErrInvalid)
	stored := svc.Vitals(ctx, VitalFilter{})
	require.Len(t, stored, 1)
	assert.Equal(t, VitalHeartRate, stored[0].Type())

	_, err = svc.UpdateVital(ctx, "missing", VitalInput{Type: VitalHeartRate, Value: f64(70)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_UpdateVitalKeepsRecordedTime(t *testing.T) {
	clock := newFakeClock(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))
	store := NewStore(WithClock(clock.Now))
	svc := NewService(store, nil)
	ctx := context.Background()

	old, err := svc.LogVital(ctx, VitalInput{Type: VitalHeartRate, Value: f64(70)})
	require.NoError(t, err)
	clock.Advance(24 * time.Hour)
	newer, err := svc.LogVital(ctx, VitalInput{Type: VitalHeartRate, Value: f64(68)})
	require.NoError(t, err)
	clock.Advance(48 * time.Hour)

	got, err := svc.UpdateVital(ctx, old.ID, VitalInput{Type: VitalHeartRate, Value: f64(72)})
	require.NoError(t, err)
	assert.Equal(t, old.Timestamp, got.Timestamp)

	latest := store.Dashboard().LatestVitals
	require.Len(t, latest, 1)
	assert.Equal(t, newer.ID, latest[0].ID)
	assert.Equal(t, []string{newer.ID, old.ID}, vitalIDs(store.Vitals()))

	moved := clock.Now().Add(-time.Hour)
	got, err = svc.UpdateVital(ctx, old.ID, VitalInput{Type: VitalHeartRate, Value: f64(72), Timestamp: &moved})
	require.NoError(t, err)
	assert.Equal(t, moved, got.Timestamp)
	assert.Equal(t, old.ID, store.Dashboard().LatestVitals[0].ID)
}

func TestService_UpdateMedicationKeepsTakenState(t *testing.T) {
	svc := NewService(NewStore(), nil)
	ctx := context.Background()

	m, err := svc.AddMedication(ctx, MedicationInput{Name: "Aspirin", Dosage: "81mg", Frequency: "daily", Time: "08:00"})
	require.NoError(t, err)
	_, err = svc.ToggleMedication(ctx, m.ID)
	require.NoError(t, err)

	got, err := svc.UpdateMedication(ctx, m.ID, MedicationInput{Name: "Aspirin", Dosage: "100mg", Frequency: "daily", Time: "09:00"})
	require.NoError(t, err)
	assert.Equal(t, "100mg", got.Dosage)
	assert.True(t, got.TakenToday)
	assert.NotNil(t, got.TakenAt)
}

func TestService_LogSymptomReturnsAlert(t *testing.T) {
	clock := newFakeClock(time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC))
	svc := NewService(NewStore(WithClock(clock.Now)), nil)
	ctx := context.Background()

	var alert *PatternAlert
	for i := 0; i < 3; i++ {
		var err error
		_, alert, err = svc.LogSymptom(ctx, SymptomInput{Description: "Severe migraine", Severity: 7})
		require.NoError(t, err)
		clock.Advance(24 * time.Hour)
	}
	require.NotNil(t, alert)
	assert.Equal(t, "migraine", alert.Keyword)

	svc.DismissAlert(ctx)
	_, ok := svc.Alert(ctx)
	assert.False(t, ok)
}

func TestService_SymptomInsight(t *testing.T) {
	store := NewStore(WithLanguage("es-ES"))
	var gotLang, gotDesc string
	svc := NewService(store, insightFunc(func(_ context.Context, language, description string, severity int, notes string) (string, error) {
		gotLang, gotDesc = language, description
		return "Here's some general information", nil
	}))

	text, err := svc.SymptomInsight(context.Background(), SymptomInput{Description: " cough ", Severity: 3})
	require.NoError(t, err)
	assert.Equal(t, "Here's some general information", text)
	assert.Equal(t, "es-ES", gotLang)
	assert.Equal(t, "cough", gotDesc)

	failing := NewService(store, insightFunc(func(context.Context, string, string, int, string) (string, error) {
		return "", errors.New("quota exceeded")
	}))
	_, err = failing.SymptomInsight(context.Background(), SymptomInput{Description: "cough", Severity: 3})
	assert.ErrorIs(t, err, ErrUpstream)

	_, err = NewService(store, nil).SymptomInsight(context.Background(), SymptomInput{Description: "cough", Severity: 3})
	assert.ErrorIs(t, err, ErrInsightUnavailable)

	unconfigured := NewService(store, insightFunc(func(context.Context, string, string, int, string) (string, error) {
		return "", fmt.Errorf("%w: api key is not set", ErrInsightUnavailable)
	}))
	_, err = unconfigured.SymptomInsight(context.Background(), SymptomInput{Description: "cough", Severity: 3})
	assert.ErrorIs(t, err, ErrInsightUnavailable)
	assert.NotErrorIs(t, err, ErrUpstream)
}

func TestService_RequestAppointment(t *testing.T) {
	svc := NewService(NewStore(), nil)
	before := time.Now()

	a, err := svc.RequestAppointment(context.Background(), AppointmentInput{
		Name: "Jane Doe", Reason: "follow-up", PreferredDate: "2025-06-01", PreferredTime: "09:00",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusRequested, a.Status)
	assert.NotEmpty(t, a.ID)
	assert.False(t, a.RequestedAt.Before(before))

	_, err = svc.RequestAppointment(context.Background(), AppointmentInput{Name: "Jane Doe"})
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Len(t, svc.Appointments(context.Background()), 1)
}
