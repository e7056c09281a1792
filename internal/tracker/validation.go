package tracker

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

var ErrInvalid = errors.New("invalid input")

type valueRange struct{ min, max float64 }

var vitalRanges = map[VitalType]valueRange{
	VitalGlucose:          {20, 600},
	VitalHeartRate:        {30, 220},
	VitalTemperature:      {30, 45},
	VitalOxygenSaturation: {70, 100},
	VitalWeight:           {1, 500},
}

var (
	systolicRange  = valueRange{70, 250}
	diastolicRange = valueRange{40, 150}
	clockPattern   = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

type VitalInput struct {
	Type      VitalType  `json:"type"`
	Value     *float64   `json:"value,omitempty"`
	Systolic  *float64   `json:"systolic,omitempty"`
	Diastolic *float64   `json:"diastolic,omitempty"`
	Unit      string     `json:"unit,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Notes     string     `json:"notes,omitempty"`
}

type MedicationInput struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Time      string `json:"time"`
	Notes     string `json:"notes,omitempty"`
}

type SymptomInput struct {
	Description string     `json:"description"`
	Severity    int        `json:"severity"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

type AppointmentInput struct {
	Name          string `json:"name"`
	Reason        string `json:"reason"`
	PreferredDate string `json:"preferredDate"`
	PreferredTime string `json:"preferredTime"`
}

func listFormat(es []error) string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func invalid(result *multierror.Error) error {
	if result == nil {
		return nil
	}
	result.ErrorFormat = listFormat
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func checkRange(result *multierror.Error, field string, v float64, r valueRange) *multierror.Error {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return multierror.Append(result, fmt.Errorf("%s must be a number", field))
	case v < 0:
		return multierror.Append(result, fmt.Errorf("%s cannot be negative", field))
	case v < r.min || v > r.max:
		return multierror.Append(result, fmt.Errorf("%s must be between %s and %s",
			field, formatNumber(r.min), formatNumber(r.max)))
	}
	return result
}

// ValidateVital checks the reading against plausible ranges and builds its measurement.
func ValidateVital(in VitalInput) (Measurement, error) {
	var result *multierror.Error

	switch {
	case in.Type == VitalBloodPressure:
		if in.Systolic == nil || in.Diastolic == nil {
			return nil, invalid(multierror.Append(result, errors.New("blood pressure needs systolic and diastolic values")))
		}
		sys, dia := *in.Systolic, *in.Diastolic
		if sys != math.Trunc(sys) || dia != math.Trunc(dia) {
			result = multierror.Append(result, errors.New("systolic and diastolic must be whole numbers"))
		}
		result = checkRange(result, "systolic", sys, systolicRange)
		result = checkRange(result, "diastolic", dia, diastolicRange)
		if sys <= dia {
			result = multierror.Append(result, errors.New("systolic must be greater than diastolic"))
		}
		if err := invalid(result); err != nil {
			return nil, err
		}
		return BloodPressure{Systolic: sys, Diastolic: dia}, nil

	case in.Type.Valid():
		if in.Value == nil {
			return nil, invalid(multierror.Append(result, fmt.Errorf("%s needs a value", in.Type)))
		}
		result = checkRange(result, strings.ToLower(string(in.Type)), *in.Value, vitalRanges[in.Type])
		if err := invalid(result); err != nil {
			return nil, err
		}
		return NewScalar(in.Type, *in.Value)

	default:
		return nil, invalid(multierror.Append(result, fmt.Errorf("%w: %q", ErrUnknownVitalType, in.Type)))
	}
}

func ValidateMedication(in MedicationInput) error {
	var result *multierror.Error
	if strings.TrimSpace(in.Name) == "" {
		result = multierror.Append(result, errors.New("name is required"))
	}
	if strings.TrimSpace(in.Dosage) == "" {
		result = multierror.Append(result, errors.New("dosage is required"))
	}
	if strings.TrimSpace(in.Frequency) == "" {
		result = multierror.Append(result, errors.New("frequency is required"))
	}
	if !clockPattern.MatchString(in.Time) {
		result = multierror.Append(result, errors.New("time must be HH:MM"))
	}
	return invalid(result)
}

func ValidateSymptom(in SymptomInput) error {
	var result *multierror.Error
	if strings.TrimSpace(in.Description) == "" {
		result = multierror.Append(result, errors.New("description is required"))
	}
	if in.Severity < 1 || in.Severity > 10 {
		result = multierror.Append(result, errors.New("severity must be between 1 and 10"))
	}
	return invalid(result)
}

func ValidateAppointment(in AppointmentInput) error {
	var result *multierror.Error
	if strings.TrimSpace(in.Name) == "" {
		result = multierror.Append(result, errors.New("name is required"))
	}
	if strings.TrimSpace(in.Reason) == "" {
		result = multierror.Append(result, errors.New("reason is required"))
	}
	if _, err := time.Parse(time.DateOnly, in.PreferredDate); err != nil {
		result = multierror.Append(result, errors.New("preferred date must be YYYY-MM-DD"))
	}
	if !clockPattern.MatchString(in.PreferredTime) {
		result = multierror.Append(result, errors.New("preferred time must be HH:MM"))
	}
	return invalid(result)
}
