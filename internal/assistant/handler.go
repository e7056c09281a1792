package assistant

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"patient-monitor/internal/platform/httpx"
)

const maxAudioSize = 10 << 20

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type CreateConversationRequest struct {
	Language string `json:"language"`
}

type ChatRequest struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
}

type SpeechRequest struct {
	Text string `json:"text"`
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	httpx.Error(w, r, httpx.StatusFor(err,
		httpx.ErrStatus{Err: ErrConversationNotFound, Status: http.StatusNotFound},
		httpx.ErrStatus{Err: ErrEmptyMessage, Status: http.StatusBadRequest},
		httpx.ErrStatus{Err: ErrUpstream, Status: http.StatusBadGateway},
	), err)
}

func parseID(w http.ResponseWriter, r *http.Request, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, errors.New("invalid conversation_id"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var req CreateConversationRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.Error(w, r, http.StatusBadRequest, errors.New("invalid request"))
			return
		}
	}

	c, err := h.svc.CreateConversation(r.Context(), req.Language)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusCreated, map[string]string{
		"conversation_id": c.ID.String(),
		"language":        c.Language,
		"greeting":        c.Greeting,
	})
}

func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	c, err := h.svc.GetConversation(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, c)
}

func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, errors.New("invalid request"))
		return
	}
	id, ok := parseID(w, r, req.ConversationID)
	if !ok {
		return
	}

	response, err := h.svc.Chat(r.Context(), id, req.Text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, map[string]string{"response": response})
}

func (h *Handler) HandleChatStream(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, errors.New("invalid request"))
		return
	}
	id, ok := parseID(w, r, req.ConversationID)
	if !ok {
		return
	}
	h.stream(w, r, id, req.Text, false)
}

func (h *Handler) HandleSpeech(w http.ResponseWriter, r *http.Request) {
	var req SpeechRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, errors.New("invalid request"))
		return
	}

	audioData, err := h.svc.SynthesizeSpeech(r.Context(), req.Text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Write(audioData)
}

// readAudio pulls the conversation id and audio file out of a multipart upload.
func readAudio(w http.ResponseWriter, r *http.Request) (uuid.UUID, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioSize+1<<20)
	if err := r.ParseMultipartForm(maxAudioSize); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, fmt.Errorf("invalid upload: %w", err))
		return uuid.Nil, nil, false
	}

	id, ok := parseID(w, r, r.FormValue("conversation_id"))
	if !ok {
		return uuid.Nil, nil, false
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, errors.New("error retrieving audio file"))
		return uuid.Nil, nil, false
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		httpx.Error(w, r, http.StatusInternalServerError, errors.New("failed to read audio file"))
		return uuid.Nil, nil, false
	}
	return id, buf.Bytes(), true
}

// HandleAudioUpload transcribes speech, answers it like typed text and voices the reply.
func (h *Handler) HandleAudioUpload(w http.ResponseWriter, r *http.Request) {
	id, audio, ok := readAudio(w, r)
	if !ok {
		return
	}

	text, err := h.svc.TranscribeAudio(r.Context(), id, audio)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if text == "" {
		// silence or no speech detected
		httpx.JSON(w, r, http.StatusOK, map[string]string{"response": "", "text": ""})
		return
	}

	response, err := h.svc.Chat(r.Context(), id, text)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	// Speech is optional; the text reply stands on its own.
	var audioBase64 string
	if audioData, err := h.svc.SynthesizeSpeech(r.Context(), response); err == nil {
		audioBase64 = base64.StdEncoding.EncodeToString(audioData)
	} else {
		log.WithError(err).Warn("speech synthesis skipped")
	}

	httpx.JSON(w, r, http.StatusOK, map[string]string{
		"response":     response,
		"text":         text,
		"audio_base64": audioBase64,
	})
}

func (h *Handler) HandleAudioUploadStream(w http.ResponseWriter, r *http.Request) {
	id, audio, ok := readAudio(w, r)
	if !ok {
		return
	}

	text, err := h.svc.TranscribeAudio(r.Context(), id, audio)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.stream(w, r, id, text, true)
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request, id uuid.UUID, text string, echo bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	send := func(e StreamEvent) {
		data, _ := json.Marshal(e)
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	if echo {
		send(StreamEvent{Type: "user_text", Data: text})
		if text == "" {
			return
		}
	}

	eventChan := make(chan StreamEvent)
	go func() {
		defer close(eventChan)
		if err := h.svc.ChatStream(r.Context(), id, text, eventChan); err != nil {
			select {
			case eventChan <- StreamEvent{Type: "error", Data: err.Error()}:
			case <-r.Context().Done():
			}
		}
	}()

	for event := range eventChan {
		send(event)
	}
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/assistant", func(r chi.Router) {
		r.Post("/conversations", h.CreateConversation)
		r.Get("/conversations/{id}", h.GetConversation)
		r.Post("/chat", h.HandleChat)
		r.Post("/chat/stream", h.HandleChatStream)
		r.Post("/audio", h.HandleAudioUpload)
		r.Post("/audio/stream", h.HandleAudioUploadStream)
		r.Post("/speech", h.HandleSpeech)
	})
}
