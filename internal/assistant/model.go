package assistant

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is one chat session with the assistant.
type Conversation struct {
	ID       uuid.UUID `json:"id"`
	Language string    `json:"language"`

	// Shown to the patient only; never sent to the model.
	Greeting string `json:"greeting"`

	History   []Message `json:"history"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StreamEvent is one server-sent event of a streamed reply.
type StreamEvent struct {
	Type string `json:"type"` // user_text, delta, done, error
	Data string `json:"data"`
}
