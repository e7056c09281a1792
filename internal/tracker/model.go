package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type VitalType string

const (
	VitalBloodPressure    VitalType = "Blood Pressure"
	VitalGlucose          VitalType = "Glucose"
	VitalHeartRate        VitalType = "Heart Rate"
	VitalTemperature      VitalType = "Temperature"
	VitalOxygenSaturation VitalType = "Oxygen Saturation"
	VitalWeight           VitalType = "Weight"
)

// VitalTypes lists every vital type in display order.
var VitalTypes = []VitalType{
	VitalBloodPressure,
	VitalGlucose,
	VitalHeartRate,
	VitalTemperature,
	VitalOxygenSaturation,
	VitalWeight,
}

func (t VitalType) Valid() bool {
	for _, v := range VitalTypes {
		if v == t {
			return true
		}
	}
	return false
}

// DefaultUnit returns the unit a reading of this type is recorded in when the caller gives none.
func (t VitalType) DefaultUnit() string {
	switch t {
	case VitalBloodPressure:
		return "mmHg"
	case VitalGlucose:
		return "mg/dL"
	case VitalHeartRate:
		return "bpm"
	case VitalTemperature:
		return "°C"
	case VitalOxygenSaturation:
		return "%"
	case VitalWeight:
		return "kg"
	default:
		return ""
	}
}

var (
	ErrUnknownVitalType = errors.New("unknown vital type")
	ErrMeasurementShape = errors.New("measurement does not match vital type")
)

// Measurement is the value of a vital sign. The concrete type decides the vital type,
// so a blood pressure can never carry a single number and vice versa.
type Measurement interface {
	Type() VitalType
	String() string
	isMeasurement()
}

type BloodPressure struct {
	Systolic  float64 `json:"systolic"`
	Diastolic float64 `json:"diastolic"`
}

func (BloodPressure) Type() VitalType { return VitalBloodPressure }
func (BloodPressure) isMeasurement()  {}

func (b BloodPressure) String() string {
	return fmt.Sprintf("%s/%s", formatNumber(b.Systolic), formatNumber(b.Diastolic))
}

// Scalar is a single-number reading for every vital type except blood pressure.
// Build it with NewScalar; the zero value has no type.
type Scalar struct {
	kind  VitalType
	value float64
}

func NewScalar(t VitalType, value float64) (Scalar, error) {
	if t == VitalBloodPressure {
		return Scalar{}, fmt.Errorf("%w: %s needs systolic and diastolic", ErrMeasurementShape, t)
	}
	if !t.Valid() {
		return Scalar{}, fmt.Errorf("%w: %q", ErrUnknownVitalType, t)
	}
	return Scalar{kind: t, value: value}, nil
}

func (s Scalar) Type() VitalType { return s.kind }
func (s Scalar) Value() float64  { return s.value }
func (Scalar) isMeasurement()    {}
func (s Scalar) String() string  { return formatNumber(s.value) }

type VitalSign struct {
	ID          string
	Measurement Measurement
	Unit        string
	Timestamp   time.Time
	Notes       string
}

func (v VitalSign) Type() VitalType {
	if v.Measurement == nil {
		return ""
	}
	return v.Measurement.Type()
}

type vitalSignJSON struct {
	ID        string          `json:"id"`
	Type      VitalType       `json:"type"`
	Value     json.RawMessage `json:"value"`
	Unit      string          `json:"unit"`
	Timestamp time.Time       `json:"timestamp"`
	Notes     string          `json:"notes,omitempty"`
}

func (v VitalSign) MarshalJSON() ([]byte, error) {
	if v.Measurement == nil {
		return nil, fmt.Errorf("vital sign %s has no measurement", v.ID)
	}
	if !v.Type().Valid() {
		return nil, fmt.Errorf("vital sign %s: %w: %q", v.ID, ErrUnknownVitalType, v.Type())
	}
	var (
		raw []byte
		err error
	)
	switch m := v.Measurement.(type) {
	case BloodPressure:
		raw, err = json.Marshal(m)
	case Scalar:
		raw, err = json.Marshal(m.value)
	default:
		return nil, fmt.Errorf("unsupported measurement %T", m)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(vitalSignJSON{
		ID:        v.ID,
		Type:      v.Type(),
		Value:     raw,
		Unit:      v.Unit,
		Timestamp: v.Timestamp,
		Notes:     v.Notes,
	})
}

func (v *VitalSign) UnmarshalJSON(data []byte) error {
	var aux vitalSignJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m, err := decodeMeasurement(aux.Type, aux.Value)
	if err != nil {
		return err
	}
	*v = VitalSign{
		ID:          aux.ID,
		Measurement: m,
		Unit:        aux.Unit,
		Timestamp:   aux.Timestamp,
		Notes:       aux.Notes,
	}
	return nil
}

func decodeMeasurement(t VitalType, raw json.RawMessage) (Measurement, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVitalType, t)
	}
	if t == VitalBloodPressure {
		var bp struct {
			Systolic  *float64 `json:"systolic"`
			Diastolic *float64 `json:"diastolic"`
		}
		if err := json.Unmarshal(raw, &bp); err != nil || bp.Systolic == nil || bp.Diastolic == nil {
			return nil, fmt.Errorf("%w: %s expects {systolic, diastolic}", ErrMeasurementShape, t)
		}
		return BloodPressure{Systolic: *bp.Systolic, Diastolic: *bp.Diastolic}, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("%w: %s expects a number", ErrMeasurementShape, t)
	}
	return NewScalar(t, n)
}

type Medication struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Dosage     string     `json:"dosage"`
	Frequency  string     `json:"frequency"`
	Time       string     `json:"time"`
	TakenToday bool       `json:"takenToday"`
	TakenAt    *time.Time `json:"takenTimestamp,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

type SymptomLog struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Severity    int       `json:"severity"`
	Timestamp   time.Time `json:"timestamp"`
	Notes       string    `json:"notes,omitempty"`
}

type AppointmentStatus string

const (
	StatusRequested   AppointmentStatus = "Requested"
	StatusConfirmed   AppointmentStatus = "Confirmed"
	StatusCompleted   AppointmentStatus = "Completed"
	StatusCancelled   AppointmentStatus = "Cancelled"
	StatusRescheduled AppointmentStatus = "Rescheduled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusRequested, StatusConfirmed, StatusCompleted, StatusCancelled, StatusRescheduled:
		return true
	}
	return false
}

// Upcoming reports whether the appointment still belongs on the dashboard.
func (s AppointmentStatus) Upcoming() bool {
	return s == StatusRequested || s == StatusConfirmed
}

type Appointment struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Reason        string            `json:"reason"`
	PreferredDate string            `json:"preferredDate"`
	PreferredTime string            `json:"preferredTime"`
	Status        AppointmentStatus `json:"status"`
	RequestedAt   time.Time         `json:"requestedAt"`
}

// PatternAlert is the advisory raised when a symptom keeps coming back.
type PatternAlert struct {
	Keyword  string    `json:"keyword"`
	Days     int       `json:"days"`
	Message  string    `json:"message"`
	RaisedAt time.Time `json:"raisedAt"`
}
