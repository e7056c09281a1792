package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

var (
	ErrInsightUnavailable = errors.New("symptom insight is not configured")
	ErrUpstream           = errors.New("upstream service failed")
)

// InsightClient produces a short, non-diagnostic explanation of a logged symptom.
// Implementations that are not configured return an error wrapping ErrInsightUnavailable.
type InsightClient interface {
	SymptomInsight(ctx context.Context, language, description string, severity int, notes string) (string, error)
}

type Service interface {
	Dashboard(ctx context.Context) Dashboard

	LogVital(ctx context.Context, in VitalInput) (VitalSign, error)
	UpdateVital(ctx context.Context, id string, in VitalInput) (VitalSign, error)
	DeleteVital(ctx context.Context, id string) error
	Vitals(ctx context.Context, f VitalFilter) []VitalSign

	AddMedication(ctx context.Context, in MedicationInput) (Medication, error)
	UpdateMedication(ctx context.Context, id string, in MedicationInput) (Medication, error)
	DeleteMedication(ctx context.Context, id string) error
	ToggleMedication(ctx context.Context, id string) (Medication, error)
	Medications(ctx context.Context) []Medication

	LogSymptom(ctx context.Context, in SymptomInput) (SymptomLog, *PatternAlert, error)
	Symptoms(ctx context.Context) []SymptomLog
	Alert(ctx context.Context) (PatternAlert, bool)
	DismissAlert(ctx context.Context)
	SymptomInsight(ctx context.Context, in SymptomInput) (string, error)

	RequestAppointment(ctx context.Context, in AppointmentInput) (Appointment, error)
	SetAppointmentStatus(ctx context.Context, id string, status AppointmentStatus) (Appointment, error)
	Appointments(ctx context.Context) []Appointment

	Language(ctx context.Context) string
	SetLanguage(ctx context.Context, code string) error

	Subscribe(fn func(Event)) (unsubscribe func())
}

type service struct {
	store   *Store
	insight InsightClient
}

// NewService wraps the store with input validation. insight may be nil.
func NewService(store *Store, insight InsightClient) Service {
	return &service{store: store, insight: insight}
}

func logger(ctx context.Context) *log.Entry {
	entry := log.WithField("component", "tracker")
	if id := middleware.GetReqID(ctx); id != "" {
		entry = entry.WithField("request_id", id)
	}
	return entry
}

func (s *service) Dashboard(ctx context.Context) Dashboard {
	return s.store.Dashboard()
}

// buildVital fills the unit and, when the input has none, the timestamp ts.
func (s *service) buildVital(id string, in VitalInput, ts time.Time) (VitalSign, error) {
	m, err := ValidateVital(in)
	if err != nil {
		return VitalSign{}, err
	}
	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = m.Type().DefaultUnit()
	}
	if in.Timestamp != nil && !in.Timestamp.IsZero() {
		ts = *in.Timestamp
	}
	return VitalSign{
		ID:          id,
		Measurement: m,
		Unit:        unit,
		Timestamp:   ts,
		Notes:       strings.TrimSpace(in.Notes),
	}, nil
}

func (s *service) LogVital(ctx context.Context, in VitalInput) (VitalSign, error) {
	v, err := s.buildVital(NewID(), in, s.store.Now())
	if err != nil {
		return VitalSign{}, err
	}
	s.store.AddVital(v)
	logger(ctx).WithFields(log.Fields{"vital_id": v.ID, "type": v.Type()}).Info("vital logged")
	return v, nil
}

// UpdateVital edits a reading in place. The recorded time is kept unless the input sets one,
// and the vital type cannot change.
func (s *service) UpdateVital(ctx context.Context, id string, in VitalInput) (VitalSign, error) {
	cur, err := s.store.Vital(id)
	if err != nil {
		return VitalSign{}, err
	}
	if in.Type != cur.Type() {
		return VitalSign{}, fmt.Errorf("%w: vital type cannot change from %s to %s", ErrInvalid, cur.Type(), in.Type)
	}
	v, err := s.buildVital(id, in, cur.Timestamp)
	if err != nil {
		return VitalSign{}, err
	}
	if err := s.store.UpdateVital(v); err != nil {
		return VitalSign{}, err
	}
	logger(ctx).WithField("vital_id", id).Info("vital updated")
	return v, nil
}

func (s *service) DeleteVital(ctx context.Context, id string) error {
	if err := s.store.RemoveVital(id); err != nil {
		return err
	}
	logger(ctx).WithField("vital_id", id).Info("vital removed")
	return nil
}

func (s *service) Vitals(ctx context.Context, f VitalFilter) []VitalSign {
	return FilterVitals(s.store.Vitals(), f)
}

func (s *service) AddMedication(ctx context.Context, in MedicationInput) (Medication, error) {
	if err := ValidateMedication(in); err != nil {
		return Medication{}, err
	}
	m := Medication{
		ID:        NewID(),
		Name:      strings.TrimSpace(in.Name),
		Dosage:    strings.TrimSpace(in.Dosage),
		Frequency: strings.TrimSpace(in.Frequency),
		Time:      in.Time,
		Notes:     strings.TrimSpace(in.Notes),
	}
	s.store.AddMedication(m)
	logger(ctx).WithFields(log.Fields{"medication_id": m.ID, "time": m.Time}).Info("medication added")
	return m, nil
}

// UpdateMedication keeps the taken state of the existing entry.
func (s *service) UpdateMedication(ctx context.Context, id string, in MedicationInput) (Medication, error) {
	if err := ValidateMedication(in); err != nil {
		return Medication{}, err
	}
	cur, err := s.store.Medication(id)
	if err != nil {
		return Medication{}, err
	}
	cur.Name = strings.TrimSpace(in.Name)
	cur.Dosage = strings.TrimSpace(in.Dosage)
	cur.Frequency = strings.TrimSpace(in.Frequency)
	cur.Time = in.Time
	cur.Notes = strings.TrimSpace(in.Notes)
	if err := s.store.UpdateMedication(cur); err != nil {
		return Medication{}, err
	}
	logger(ctx).WithField("medication_id", id).Info("medication updated")
	return cur, nil
}

func (s *service) DeleteMedication(ctx context.Context, id string) error {
	if err := s.store.RemoveMedication(id); err != nil {
		return err
	}
	logger(ctx).WithField("medication_id", id).Info("medication removed")
	return nil
}

func (s *service) ToggleMedication(ctx context.Context, id string) (Medication, error) {
	m, err := s.store.ToggleMedicationTaken(id)
	if err != nil {
		return Medication{}, err
	}
	logger(ctx).WithFields(log.Fields{"medication_id": id, "taken": m.TakenToday}).Info("medication toggled")
	return m, nil
}

func (s *service) Medications(ctx context.Context) []Medication {
	return s.store.MedicationSchedule()
}

func (s *service) LogSymptom(ctx context.Context, in SymptomInput) (SymptomLog, *PatternAlert, error) {
	if err := ValidateSymptom(in); err != nil {
		return SymptomLog{}, nil, err
	}
	ts := s.store.Now()
	if in.Timestamp != nil && !in.Timestamp.IsZero() {
		ts = *in.Timestamp
	}
	l := SymptomLog{
		ID:          NewID(),
		Description: strings.TrimSpace(in.Description),
		Severity:    in.Severity,
		Timestamp:   ts,
		Notes:       strings.TrimSpace(in.Notes),
	}
	alert := s.store.AddSymptom(l)

	entry := logger(ctx).WithFields(log.Fields{"symptom_id": l.ID, "severity": l.Severity})
	if alert != nil {
		entry.WithFields(log.Fields{"keyword": alert.Keyword, "days": alert.Days}).Warn("recurring symptom pattern detected")
	} else {
		entry.Info("symptom logged")
	}
	return l, alert, nil
}

func (s *service) Symptoms(ctx context.Context) []SymptomLog {
	return s.store.Symptoms()
}

func (s *service) Alert(ctx context.Context) (PatternAlert, bool) {
	return s.store.Alert()
}

func (s *service) DismissAlert(ctx context.Context) {
	s.store.DismissAlert()
}

func (s *service) SymptomInsight(ctx context.Context, in SymptomInput) (string, error) {
	if err := ValidateSymptom(in); err != nil {
		return "", err
	}
	if s.insight == nil {
		return "", ErrInsightUnavailable
	}
	text, err := s.insight.SymptomInsight(ctx, s.store.Language(), strings.TrimSpace(in.Description), in.Severity, strings.TrimSpace(in.Notes))
	if errors.Is(err, ErrInsightUnavailable) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("%w: symptom insight: %w", ErrUpstream, err)
	}
	return text, nil
}

func (s *service) RequestAppointment(ctx context.Context, in AppointmentInput) (Appointment, error) {
	if err := ValidateAppointment(in); err != nil {
		return Appointment{}, err
	}
	a := s.store.RequestAppointment(
		strings.TrimSpace(in.Name),
		strings.TrimSpace(in.Reason),
		in.PreferredDate,
		in.PreferredTime,
	)
	logger(ctx).WithFields(log.Fields{"appointment_id": a.ID, "date": a.PreferredDate}).Info("appointment requested")
	return a, nil
}

func (s *service) SetAppointmentStatus(ctx context.Context, id string, status AppointmentStatus) (Appointment, error) {
	a, err := s.store.SetAppointmentStatus(id, status)
	if err != nil {
		return Appointment{}, err
	}
	logger(ctx).WithFields(log.Fields{"appointment_id": id, "status": status}).Info("appointment status changed")
	return a, nil
}

func (s *service) Appointments(ctx context.Context) []Appointment {
	return s.store.Appointments()
}

func (s *service) Language(ctx context.Context) string {
	return s.store.Language()
}

func (s *service) SetLanguage(ctx context.Context, code string) error {
	if err := s.store.SetLanguage(code); err != nil {
		return err
	}
	logger(ctx).WithField("language", code).Info("language changed")
	return nil
}

func (s *service) Subscribe(fn func(Event)) func() {
	return s.store.Subscribe(fn)
}
