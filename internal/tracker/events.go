package tracker

import (
	"slices"
	"sync"
	"time"
)

type EventKind string

const (
	EventVitalsChanged        EventKind = "vitals.changed"
	EventMedicationsChanged   EventKind = "medications.changed"
	EventSymptomLogged        EventKind = "symptoms.logged"
	EventAlertRaised          EventKind = "alert.raised"
	EventAlertCleared         EventKind = "alert.cleared"
	EventAppointmentRequested EventKind = "appointments.requested"
	EventAppointmentUpdated   EventKind = "appointments.updated"
	EventLanguageChanged      EventKind = "settings.language"
)

// Event describes a state change. Payload holds the affected record, alert or language code.
type Event struct {
	Kind    EventKind `json:"kind"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload,omitempty"`
}

type broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

func (b *broker) subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[int]func(Event))
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = fn

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// publish runs subscribers synchronously and in subscription order.
func (b *broker) publish(events ...Event) {
	if len(events) == 0 {
		return
	}
	b.mu.Lock()
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	fns := make([]func(Event), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, b.subs[id])
	}
	b.mu.Unlock()

	for _, e := range events {
		for _, fn := range fns {
			fn(e)
		}
	}
}
