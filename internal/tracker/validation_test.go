package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func TestValidateVital_BloodPressure(t *testing.T) {
	m, err := ValidateVital(VitalInput{Type: VitalBloodPressure, Systolic: f64(120), Diastolic: f64(80)})
	require.NoError(t, err)
	assert.Equal(t, BloodPressure{Systolic: 120, Diastolic: 80}, m)

	cases := []struct {
		name     string
		sys, dia *float64
		msg      string
	}{
		{"missing", f64(120), nil, "needs systolic and diastolic"},
		{"systolic low", f64(60), f64(50), "systolic must be between 70 and 250"},
		{"diastolic high", f64(240), f64(160), "diastolic must be between 40 and 150"},
		{"inverted", f64(90), f64(100), "systolic must be greater than diastolic"},
		{"fractional", f64(120.5), f64(80), "whole numbers"},
		{"negative", f64(-120), f64(80), "cannot be negative"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateVital(VitalInput{Type: VitalBloodPressure, Systolic: tc.sys, Diastolic: tc.dia})
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestValidateVital_CollectsEveryProblem(t *testing.T) {
	_, err := ValidateVital(VitalInput{Type: VitalBloodPressure, Systolic: f64(300), Diastolic: f64(20)})
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "systolic must be between")
	assert.Contains(t, err.Error(), "diastolic must be between")
}

func TestValidateVital_Scalars(t *testing.T) {
	ok := map[VitalType]float64{
		VitalGlucose:          95,
		VitalHeartRate:        30,
		VitalTemperature:      36.6,
		VitalOxygenSaturation: 100,
		VitalWeight:           72.4,
	}
	for kind, v := range ok {
		m, err := ValidateVital(VitalInput{Type: kind, Value: f64(v)})
		require.NoError(t, err, kind)
		assert.Equal(t, kind, m.Type())
	}

	bad := map[VitalType]float64{
		VitalGlucose:          601,
		VitalHeartRate:        29,
		VitalTemperature:      46,
		VitalOxygenSaturation: 69,
		VitalWeight:           0.5,
	}
	for kind, v := range bad {
		_, err := ValidateVital(VitalInput{Type: kind, Value: f64(v)})
		assert.ErrorIs(t, err, ErrInvalid, kind)
	}

	_, err := ValidateVital(VitalInput{Type: VitalHeartRate})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = ValidateVital(VitalInput{Type: "Cholesterol", Value: f64(180)})
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorIs(t, err, ErrUnknownVitalType)
}

func TestValidateMedication(t *testing.T) {
	require.NoError(t, ValidateMedication(MedicationInput{Name: "Lisinopril", Dosage: "10mg", Frequency: "daily", Time: "08:00"}))

	err := ValidateMedication(MedicationInput{Name: " ", Time: "8am"})
	require.ErrorIs(t, err, ErrInvalid)
	for _, msg := range []string{"name is required", "dosage is required", "frequency is required", "time must be HH:MM"} {
		assert.Contains(t, err.Error(), msg)
	}

	assert.Error(t, ValidateMedication(MedicationInput{Name: "x", Dosage: "x", Frequency: "x", Time: "24:00"}))
}

func TestValidateSymptom(t *testing.T) {
	require.NoError(t, ValidateSymptom(SymptomInput{Description: "cough", Severity: 1}))
	require.NoError(t, ValidateSymptom(SymptomInput{Description: "cough", Severity: 10}))
	assert.ErrorIs(t, ValidateSymptom(SymptomInput{Description: "cough", Severity: 11}), ErrInvalid)
	assert.ErrorIs(t, ValidateSymptom(SymptomInput{Severity: 5}), ErrInvalid)
}

func TestValidateAppointment(t *testing.T) {
	require.NoError(t, ValidateAppointment(AppointmentInput{Name: "Jane Doe", Reason: "follow-up", PreferredDate: "2025-06-01", PreferredTime: "09:00"}))

	err := ValidateAppointment(AppointmentInput{Name: "Jane Doe", PreferredDate: "06/01/2025", PreferredTime: "9"})
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "reason is required")
	assert.Contains(t, err.Error(), "preferred date must be YYYY-MM-DD")
	assert.Contains(t, err.Error(), "preferred time must be HH:MM")
}
