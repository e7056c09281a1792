package assistant

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrConversationNotFound = errors.New("conversation not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Conversation, error)
	Save(ctx context.Context, c *Conversation) error
	// Append adds messages to the history atomically.
	Append(ctx context.Context, id uuid.UUID, msgs ...Message) error
}

// memoryRepo keeps conversations for the lifetime of the process.
type memoryRepo struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*Conversation
}

func NewRepository() Repository {
	return &memoryRepo{items: make(map[uuid.UUID]*Conversation)}
}

func clone(c *Conversation) *Conversation {
	cp := *c
	cp.History = slices.Clone(c.History)
	return &cp
}

func (r *memoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return clone(c), nil
}

func (r *memoryRepo) Save(ctx context.Context, c *Conversation) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.UpdatedAt = time.Now()

	r.mu.Lock()
	r.items[c.ID] = clone(c)
	r.mu.Unlock()
	return nil
}

func (r *memoryRepo) Append(ctx context.Context, id uuid.UUID, msgs ...Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return ErrConversationNotFound
	}
	c.History = append(c.History, msgs...)
	c.UpdatedAt = time.Now()
	return nil
}
