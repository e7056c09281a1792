package agent

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"patient-monitor/internal/locale"
	"patient-monitor/internal/tracker"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var ErrNoAPIKey = errors.New("assistant API key is not configured")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatClient talks to an OpenAI-compatible chat completions API (DeepSeek by default).
type ChatClient interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	// Stream calls onDelta for every content fragment in arrival order.
	Stream(ctx context.Context, messages []Message, onDelta func(string) error) error
	SymptomInsight(ctx context.Context, language, description string, severity int, notes string) (string, error)
}

type ChatConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

type client struct {
	cfg        ChatConfig
	httpClient *http.Client
}

func NewChatClient(cfg ChatConfig) ChatClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &client{
		cfg: cfg,
		// Streams can outlive any fixed client timeout; the request context bounds them instead.
		httpClient: &http.Client{},
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	Stream      bool      `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
		Delta   Message `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *client) post(ctx context.Context, messages []Message, stream bool) (*http.Response, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		Stream:      stream,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("chat API error: %s - %s", resp.Status, string(respBody))
	}
	return resp, nil
}

func (c *client) Complete(ctx context.Context, messages []Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.post(ctx, messages, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("chat API error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("chat API returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

func (c *client) Stream(ctx context.Context, messages []Message, onDelta func(string) error) error {
	resp, err := c.post(ctx, messages, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			return nil
		}

		var chunk chatResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			log.WithError(err).Warn("skipping malformed stream chunk")
			continue
		}
		if chunk.Error != nil {
			return fmt.Errorf("chat API error: %s", chunk.Error.Message)
		}
		for _, ch := range chunk.Choices {
			if ch.Delta.Content == "" {
				continue
			}
			if err := onDelta(ch.Delta.Content); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read chat stream: %w", err)
	}
	return nil
}

var codeFence = regexp.MustCompile("(?s)^```\\w*\\s*\\n?(.*?)\\n?\\s*```$")

// StripCodeFence unwraps a reply the model wrapped in a single markdown code block.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFence.FindStringSubmatch(s); m != nil && strings.TrimSpace(m[1]) != "" {
		return strings.TrimSpace(m[1])
	}
	return s
}

func (c *client) SymptomInsight(ctx context.Context, language, description string, severity int, notes string) (string, error) {
	text, err := c.Complete(ctx, []Message{{Role: RoleUser, Content: SymptomInsightPrompt(language, description, severity, notes)}})
	if errors.Is(err, ErrNoAPIKey) {
		return "", fmt.Errorf("%w: %w", tracker.ErrInsightUnavailable, err)
	}
	if err != nil {
		return "", err
	}
	return StripCodeFence(text), nil
}

// SymptomInsightPrompt asks for general, non-diagnostic information about a logged symptom.
func SymptomInsightPrompt(language, description string, severity int, notes string) string {
	name := locale.Name(language)
	if strings.TrimSpace(notes) == "" {
		notes = "None"
	}
	return fmt.Sprintf(`A user in a remote patient monitoring app reports the following symptom(s) in %[1]s: %[2]q. Their self-reported severity is %[3]d/10. Additional notes: %[4]q.
Provide some general information related to these symptoms, possible non-medical self-care tips if appropriate (like rest, hydration), and emphasize when it's important to contact a healthcare professional.
STRICTLY DO NOT PROVIDE A DIAGNOSIS OR MEDICAL ADVICE.
Respond in %[1]s.
Keep the response empathetic, concise (around 3-4 short paragraphs), and easy to understand. Start with a phrase like "Here's some general information that might be related to what you're experiencing:" (translated to %[1]s).
If the symptoms sound potentially serious (e.g. chest pain, difficulty breathing, severe unexplained pain, sudden vision changes), strongly advise contacting a doctor immediately or seeking urgent care, also in %[1]s.
Use Markdown for formatting if it improves readability (e.g., bullet points for tips).`, name, description, severity, notes)
}
