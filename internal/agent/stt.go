package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

type STTClient interface {
	Transcribe(ctx context.Context, audioData []byte, language string) (string, error)
}

type whisperClient struct {
	url        string
	httpClient *http.Client
}

// NewWhisperClient posts audio to a Whisper-compatible /transcribe endpoint.
func NewWhisperClient(url string, timeout time.Duration) STTClient {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &whisperClient{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type sttResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func (c *whisperClient) Transcribe(ctx context.Context, audioData []byte, language string) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audioData); err != nil {
		return "", err
	}
	if language != "" {
		// Whisper wants the bare ISO 639-1 code.
		if err := writer.WriteField("language", baseLanguage(language)); err != nil {
			return "", err
		}
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("STT request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("STT API error: %s - %s", resp.Status, string(respBody))
	}

	var result sttResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode STT response: %w", err)
	}
	return result.Text, nil
}

func baseLanguage(code string) string {
	for i, r := range code {
		if r == '-' || r == '_' {
			return code[:i]
		}
	}
	return code
}
