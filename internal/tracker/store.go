package tracker

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"patient-monitor/internal/locale"
)

var ErrNotFound = errors.New("record not found")

// Store owns every record collection of the session and the transient pattern alert.
// All reads return copies; subscribers are notified after the lock has been released.
type Store struct {
	mu           sync.RWMutex
	now          func() time.Time
	vitals       []VitalSign
	medications  []Medication
	symptoms     []SymptomLog
	appointments []Appointment
	alert        *PatternAlert
	language     string

	events broker
}

type StoreOption func(*Store)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

func WithLanguage(code string) StoreOption {
	return func(s *Store) {
		if locale.Supported(code) {
			s.language = code
		}
	}
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		now:      time.Now,
		language: locale.Default,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn for every change and returns a function that removes it.
// fn must not call mutating Store methods.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	return s.events.subscribe(fn)
}

func (s *Store) Now() time.Time { return s.now() }

func (s *Store) event(kind EventKind, payload any) Event {
	return Event{Kind: kind, At: s.now(), Payload: payload}
}

// Vitals

func sortVitals(v []VitalSign) {
	sort.SliceStable(v, func(i, j int) bool { return v[i].Timestamp.After(v[j].Timestamp) })
}

func (s *Store) AddVital(v VitalSign) {
	s.mu.Lock()
	s.vitals = append([]VitalSign{v}, s.vitals...)
	sortVitals(s.vitals)
	s.mu.Unlock()

	s.events.publish(s.event(EventVitalsChanged, v))
}

func (s *Store) UpdateVital(v VitalSign) error {
	s.mu.Lock()
	i := slices.IndexFunc(s.vitals, func(x VitalSign) bool { return x.ID == v.ID })
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("vital %s: %w", v.ID, ErrNotFound)
	}
	s.vitals[i] = v
	sortVitals(s.vitals)
	s.mu.Unlock()

	s.events.publish(s.event(EventVitalsChanged, v))
	return nil
}

func (s *Store) RemoveVital(id string) error {
	s.mu.Lock()
	n := len(s.vitals)
	s.vitals = slices.DeleteFunc(s.vitals, func(x VitalSign) bool { return x.ID == id })
	removed := len(s.vitals) != n
	s.mu.Unlock()

	if !removed {
		return fmt.Errorf("vital %s: %w", id, ErrNotFound)
	}
	s.events.publish(s.event(EventVitalsChanged, id))
	return nil
}

func (s *Store) Vital(id string) (VitalSign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.vitals {
		if v.ID == id {
			return v, nil
		}
	}
	return VitalSign{}, fmt.Errorf("vital %s: %w", id, ErrNotFound)
}

// Vitals returns every reading, newest first.
func (s *Store) Vitals() []VitalSign {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.vitals)
}

// Medications

func sortMedicationsByTime(m []Medication) {
	sort.SliceStable(m, func(i, j int) bool { return m[i].Time < m[j].Time })
}

func (s *Store) AddMedication(m Medication) {
	s.mu.Lock()
	s.medications = append(s.medications, m)
	sortMedicationsByTime(s.medications)
	s.mu.Unlock()

	s.events.publish(s.event(EventMedicationsChanged, m))
}

func (s *Store) UpdateMedication(m Medication) error {
	s.mu.Lock()
	i := slices.IndexFunc(s.medications, func(x Medication) bool { return x.ID == m.ID })
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("medication %s: %w", m.ID, ErrNotFound)
	}
	s.medications[i] = m
	sortMedicationsByTime(s.medications)
	s.mu.Unlock()

	s.events.publish(s.event(EventMedicationsChanged, m))
	return nil
}

func (s *Store) RemoveMedication(id string) error {
	s.mu.Lock()
	n := len(s.medications)
	s.medications = slices.DeleteFunc(s.medications, func(x Medication) bool { return x.ID == id })
	removed := len(s.medications) != n
	s.mu.Unlock()

	if !removed {
		return fmt.Errorf("medication %s: %w", id, ErrNotFound)
	}
	s.events.publish(s.event(EventMedicationsChanged, id))
	return nil
}

// ToggleMedicationTaken flips the taken flag. The storage order is left as is.
func (s *Store) ToggleMedicationTaken(id string) (Medication, error) {
	s.mu.Lock()
	i := slices.IndexFunc(s.medications, func(x Medication) bool { return x.ID == id })
	if i < 0 {
		s.mu.Unlock()
		return Medication{}, fmt.Errorf("medication %s: %w", id, ErrNotFound)
	}
	m := &s.medications[i]
	m.TakenToday = !m.TakenToday
	if m.TakenToday {
		at := s.now()
		m.TakenAt = &at
	} else {
		m.TakenAt = nil
	}
	out := *m
	s.mu.Unlock()

	s.events.publish(s.event(EventMedicationsChanged, out))
	return out, nil
}

func (s *Store) Medication(id string) (Medication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.medications {
		if m.ID == id {
			return m, nil
		}
	}
	return Medication{}, fmt.Errorf("medication %s: %w", id, ErrNotFound)
}

// Medications returns the raw storage order, by scheduled time.
func (s *Store) Medications() []Medication {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.medications)
}

// MedicationSchedule returns medications still to take first, each group by scheduled time.
func (s *Store) MedicationSchedule() []Medication {
	out := s.Medications()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TakenToday != out[j].TakenToday {
			return !out[i].TakenToday
		}
		return out[i].Time < out[j].Time
	})
	return out
}

// Symptoms

// AddSymptom stores the log and re-runs recurrence detection. The previous alert is always
// dropped first; the returned alert is nil unless the new entry raised one.
func (s *Store) AddSymptom(l SymptomLog) *PatternAlert {
	s.mu.Lock()
	hadAlert := s.alert != nil
	s.alert = nil
	s.symptoms = append([]SymptomLog{l}, s.symptoms...)
	sort.SliceStable(s.symptoms, func(i, j int) bool { return s.symptoms[i].Timestamp.After(s.symptoms[j].Timestamp) })

	var raised *PatternAlert
	if a, ok := DetectPattern(s.symptoms, l.Description, s.now()); ok {
		s.alert = &a
		cp := a
		raised = &cp
	}
	s.mu.Unlock()

	events := []Event{}
	if hadAlert {
		events = append(events, s.event(EventAlertCleared, nil))
	}
	events = append(events, s.event(EventSymptomLogged, l))
	if raised != nil {
		events = append(events, s.event(EventAlertRaised, *raised))
	}
	s.events.publish(events...)
	return raised
}

// Symptoms returns the journal, newest first.
func (s *Store) Symptoms() []SymptomLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.symptoms)
}

func (s *Store) Alert() (PatternAlert, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.alert == nil {
		return PatternAlert{}, false
	}
	return *s.alert, true
}

// DismissAlert clears the advisory, e.g. when the patient leaves the symptom journal.
func (s *Store) DismissAlert() {
	s.mu.Lock()
	had := s.alert != nil
	s.alert = nil
	s.mu.Unlock()

	if had {
		s.events.publish(s.event(EventAlertCleared, nil))
	}
}

// Appointments

// RequestAppointment records a new telehealth request at the head of the list.
func (s *Store) RequestAppointment(name, reason, preferredDate, preferredTime string) Appointment {
	a := Appointment{
		ID:            NewID(),
		Name:          name,
		Reason:        reason,
		PreferredDate: preferredDate,
		PreferredTime: preferredTime,
		Status:        StatusRequested,
		RequestedAt:   s.now(),
	}

	s.mu.Lock()
	s.appointments = append([]Appointment{a}, s.appointments...)
	sort.SliceStable(s.appointments, func(i, j int) bool {
		return s.appointments[i].RequestedAt.After(s.appointments[j].RequestedAt)
	})
	s.mu.Unlock()

	s.events.publish(s.event(EventAppointmentRequested, a))
	return a
}

// SetAppointmentStatus is driven by the scheduling back-end, never by the tracker itself.
func (s *Store) SetAppointmentStatus(id string, status AppointmentStatus) (Appointment, error) {
	if !status.Valid() {
		return Appointment{}, fmt.Errorf("%w: unknown appointment status %q", ErrInvalid, status)
	}
	s.mu.Lock()
	i := slices.IndexFunc(s.appointments, func(x Appointment) bool { return x.ID == id })
	if i < 0 {
		s.mu.Unlock()
		return Appointment{}, fmt.Errorf("appointment %s: %w", id, ErrNotFound)
	}
	s.appointments[i].Status = status
	out := s.appointments[i]
	s.mu.Unlock()

	s.events.publish(s.event(EventAppointmentUpdated, out))
	return out, nil
}

// Appointments returns requests, most recent first.
func (s *Store) Appointments() []Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.appointments)
}

// Settings

func (s *Store) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}

func (s *Store) SetLanguage(code string) error {
	if !locale.Supported(code) {
		return fmt.Errorf("%w: unsupported language %q", ErrInvalid, code)
	}
	s.mu.Lock()
	s.language = code
	s.mu.Unlock()

	s.events.publish(s.event(EventLanguageChanged, code))
	return nil
}

// Dashboard projects the current collections into the overview.
func (s *Store) Dashboard() Dashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := BuildDashboard(s.vitals, s.medications, s.symptoms, s.appointments)
	if s.alert != nil {
		a := *s.alert
		d.Alert = &a
	}
	return d
}

// NewID returns a time-ordered unique identifier.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
