package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultElevenLabsURL = "https://api.elevenlabs.io/v1/text-to-speech"
	DefaultVoiceID       = "21m00Tcm4TlvDq8ikWAM"
	DefaultTTSModel      = "eleven_multilingual_v2"
)

type TTSClient interface {
	Synthesize(ctx context.Context, text string, voiceID string) ([]byte, error)
}

type TTSConfig struct {
	BaseURL string
	APIKey  string
	VoiceID string
	ModelID string
	Timeout time.Duration
}

type elevenLabsClient struct {
	cfg        TTSConfig
	httpClient *http.Client
}

func NewElevenLabsClient(cfg TTSConfig) TTSClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultElevenLabsURL
	}
	if cfg.VoiceID == "" {
		cfg.VoiceID = DefaultVoiceID
	}
	if cfg.ModelID == "" {
		cfg.ModelID = DefaultTTSModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &elevenLabsClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type ttsRequest struct {
	Text          string `json:"text"`
	ModelID       string `json:"model_id"`
	VoiceSettings struct {
		Stability       float64 `json:"stability"`
		SimilarityBoost float64 `json:"similarity_boost"`
	} `json:"voice_settings"`
}

// Synthesize returns MP3 audio. An empty voiceID uses the configured voice.
func (c *elevenLabsClient) Synthesize(ctx context.Context, text string, voiceID string) ([]byte, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if voiceID == "" {
		voiceID = c.cfg.VoiceID
	}

	reqBody := ttsRequest{
		Text:    text,
		ModelID: c.cfg.ModelID,
	}
	reqBody.VoiceSettings.Stability = 0.5
	reqBody.VoiceSettings.SimilarityBoost = 0.75

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/%s", c.cfg.BaseURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("TTS request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("TTS API error: %s - %s", resp.Status, string(body))
	}
	return io.ReadAll(resp.Body)
}
