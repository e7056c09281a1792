package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"patient-monitor/internal/agent"
	"patient-monitor/internal/locale"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrUpstream     = errors.New("assistant backend failed")
)

// ChatClient is the model the assistant talks to.
type ChatClient interface {
	Complete(ctx context.Context, messages []agent.Message) (string, error)
	Stream(ctx context.Context, messages []agent.Message, onDelta func(string) error) error
}

type TTSClient interface {
	Synthesize(ctx context.Context, text string, voiceID string) ([]byte, error)
}

type STTClient interface {
	Transcribe(ctx context.Context, audioData []byte, language string) (string, error)
}

// LanguageSource supplies the patient's current language setting.
type LanguageSource interface {
	Language(ctx context.Context) string
}

type Service interface {
	CreateConversation(ctx context.Context, language string) (*Conversation, error)
	GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error)
	Chat(ctx context.Context, id uuid.UUID, text string) (string, error)
	ChatStream(ctx context.Context, id uuid.UUID, text string, events chan<- StreamEvent) error
	TranscribeAudio(ctx context.Context, id uuid.UUID, audio []byte) (string, error)
	SynthesizeSpeech(ctx context.Context, text string) ([]byte, error)
}

type service struct {
	repo      Repository
	chat      ChatClient
	tts       TTSClient
	stt       STTClient
	languages LanguageSource
	maxTurns  int
}

// NewService wires the assistant. maxTurns bounds how many past messages are sent to the model; 0 sends all.
func NewService(repo Repository, chat ChatClient, tts TTSClient, stt STTClient, languages LanguageSource, maxTurns int) Service {
	return &service{
		repo:      repo,
		chat:      chat,
		tts:       tts,
		stt:       stt,
		languages: languages,
		maxTurns:  maxTurns,
	}
}

func (s *service) CreateConversation(ctx context.Context, language string) (*Conversation, error) {
	if language == "" && s.languages != nil {
		language = s.languages.Language(ctx)
	}
	if !locale.Supported(language) {
		language = locale.Default
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	c := &Conversation{
		ID:       id,
		Language: language,
		Greeting: greeting(language),
		History:  []Message{},
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"conversation_id": c.ID, "language": language}).Info("conversation started")
	return c, nil
}

func (s *service) GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	return s.repo.GetByID(ctx, id)
}

// prompt builds the model input: system instruction, recent history, then the new user turn.
func (s *service) prompt(c *Conversation, text string) []agent.Message {
	history := c.History
	if s.maxTurns > 0 && len(history) > s.maxTurns {
		history = history[len(history)-s.maxTurns:]
	}

	msgs := make([]agent.Message, 0, len(history)+2)
	msgs = append(msgs, agent.Message{Role: agent.RoleSystem, Content: SystemInstruction})
	for _, m := range history {
		msgs = append(msgs, agent.Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, agent.Message{Role: agent.RoleUser, Content: withLanguage(text, c.Language)})
	return msgs
}

func (s *service) begin(ctx context.Context, id uuid.UUID, text string) (*Conversation, string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, "", ErrEmptyMessage
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return c, text, nil
}

func (s *service) finish(ctx context.Context, id uuid.UUID, text, reply string) error {
	now := time.Now()
	return s.repo.Append(ctx, id,
		Message{Role: agent.RoleUser, Content: text, Timestamp: now},
		Message{Role: agent.RoleAssistant, Content: reply, Timestamp: now},
	)
}

func (s *service) Chat(ctx context.Context, id uuid.UUID, text string) (string, error) {
	c, text, err := s.begin(ctx, id, text)
	if err != nil {
		return "", err
	}

	reply, err := s.chat.Complete(ctx, s.prompt(c, text))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if err := s.finish(ctx, id, text, reply); err != nil {
		return "", err
	}
	return reply, nil
}

// ChatStream forwards reply fragments to events as they arrive and stores the full reply at the end.
// The caller owns events and closes it after ChatStream returns.
func (s *service) ChatStream(ctx context.Context, id uuid.UUID, text string, events chan<- StreamEvent) error {
	c, text, err := s.begin(ctx, id, text)
	if err != nil {
		return err
	}

	var reply strings.Builder
	err = s.chat.Stream(ctx, s.prompt(c, text), func(delta string) error {
		reply.WriteString(delta)
		select {
		case events <- StreamEvent{Type: "delta", Data: delta}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	if err := s.finish(ctx, id, text, reply.String()); err != nil {
		return err
	}
	select {
	case events <- StreamEvent{Type: "done", Data: reply.String()}:
	case <-ctx.Done():
	}
	return nil
}

func (s *service) TranscribeAudio(ctx context.Context, id uuid.UUID, audio []byte) (string, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	text, err := s.stt.Transcribe(ctx, audio, c.Language)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return strings.TrimSpace(text), nil
}

func (s *service) SynthesizeSpeech(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	audio, err := s.tts.Synthesize(ctx, text, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return audio, nil
}
