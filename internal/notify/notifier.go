package notify

import (
	"context"
	"fmt"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"patient-monitor/internal/tracker"
)

// Publisher fans events out to devices, e.g. over MQTT.
type Publisher interface {
	PublishJSON(suffix string, v any) error
}

// Messenger reaches the care team, e.g. through a Telegram chat.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type Source interface {
	Subscribe(fn func(tracker.Event)) (unsubscribe func())
}

type Config struct {
	CareTeamChatID int64
	Buffer         int
}

// Notifier forwards tracker events to external channels from its own goroutine,
// so a slow broker or chat API never holds up a request.
type Notifier struct {
	pub     Publisher
	msg     Messenger
	chatID  int64
	queue   chan tracker.Event
	dropped atomic.Int64
}

// New builds a Notifier. pub and msg may be nil.
func New(pub Publisher, msg Messenger, cfg Config) *Notifier {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 64
	}
	return &Notifier{
		pub:    pub,
		msg:    msg,
		chatID: cfg.CareTeamChatID,
		queue:  make(chan tracker.Event, cfg.Buffer),
	}
}

// Attach subscribes to src. Events arriving while the queue is full are dropped.
func (n *Notifier) Attach(src Source) (detach func()) {
	return src.Subscribe(n.enqueue)
}

func (n *Notifier) enqueue(e tracker.Event) {
	select {
	case n.queue <- e:
	default:
		total := n.dropped.Add(1)
		log.WithFields(log.Fields{"component": "notify", "kind": e.Kind, "dropped": total}).Warn("notification queue full, event dropped")
	}
}

// Dropped reports how many events were discarded because the queue was full.
func (n *Notifier) Dropped() int64 { return n.dropped.Load() }

// Run delivers queued events until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-n.queue:
			n.handle(ctx, e)
		}
	}
}

func (n *Notifier) handle(ctx context.Context, e tracker.Event) {
	entry := log.WithFields(log.Fields{"component": "notify", "kind": e.Kind})

	if n.pub != nil {
		if err := n.pub.PublishJSON("events/"+string(e.Kind), e); err != nil {
			entry.WithError(err).Warn("event publish failed")
		}
	}

	text, ok := careTeamMessage(e)
	if !ok || n.msg == nil || n.chatID == 0 {
		return
	}
	if err := n.msg.SendMessage(ctx, n.chatID, text); err != nil {
		entry.WithError(err).Warn("care team message failed")
		return
	}
	entry.Debug("care team notified")
}

// careTeamMessage returns the chat text for events the care team should see.
func careTeamMessage(e tracker.Event) (string, bool) {
	switch p := e.Payload.(type) {
	case tracker.PatternAlert:
		if e.Kind != tracker.EventAlertRaised {
			return "", false
		}
		return fmt.Sprintf("Symptom pattern: %q reported on %d different days in the last week.\n%s", p.Keyword, p.Days, p.Message), true
	case tracker.Appointment:
		if e.Kind != tracker.EventAppointmentRequested {
			return "", false
		}
		return fmt.Sprintf("Appointment request from %s\nPreferred: %s %s\nReason: %s", p.Name, p.PreferredDate, p.PreferredTime, p.Reason), true
	}
	return "", false
}
