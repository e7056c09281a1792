package tracker

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"patient-monitor/internal/locale"
	"patient-monitor/internal/platform/httpx"
)

const eventBuffer = 32

type Handler struct {
	svc       Service
	heartbeat time.Duration
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc, heartbeat: 30 * time.Second}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := httpx.StatusFor(err,
		httpx.ErrStatus{Err: ErrNotFound, Status: http.StatusNotFound},
		httpx.ErrStatus{Err: ErrInvalid, Status: http.StatusBadRequest},
		httpx.ErrStatus{Err: ErrUnknownVitalType, Status: http.StatusBadRequest},
		httpx.ErrStatus{Err: ErrMeasurementShape, Status: http.StatusBadRequest},
		httpx.ErrStatus{Err: ErrInsightUnavailable, Status: http.StatusServiceUnavailable},
		httpx.ErrStatus{Err: ErrUpstream, Status: http.StatusBadGateway},
	)
	httpx.Error(w, r, status, err)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := httpx.Decode(r, v); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrInvalid, err))
		return false
	}
	return true
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, r, http.StatusOK, h.svc.Dashboard(r.Context()))
}

// Vitals

func parseVitalFilter(r *http.Request) (VitalFilter, error) {
	q := r.URL.Query()
	f := VitalFilter{Search: q.Get("q")}
	if t := q.Get("type"); t != "" && t != "all" {
		f.Type = VitalType(t)
		if !f.Type.Valid() {
			return f, fmt.Errorf("%w: %q", ErrUnknownVitalType, t)
		}
	}
	var err error
	if s := q.Get("from"); s != "" {
		if f.From, err = time.ParseInLocation(time.DateOnly, s, time.Local); err != nil {
			return f, fmt.Errorf("%w: from must be YYYY-MM-DD", ErrInvalid)
		}
	}
	if s := q.Get("to"); s != "" {
		if f.To, err = time.ParseInLocation(time.DateOnly, s, time.Local); err != nil {
			return f, fmt.Errorf("%w: to must be YYYY-MM-DD", ErrInvalid)
		}
	}
	return f, nil
}

func (h *Handler) ListVitals(w http.ResponseWriter, r *http.Request) {
	f, err := parseVitalFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, h.svc.Vitals(r.Context(), f))
}

func (h *Handler) CreateVital(w http.ResponseWriter, r *http.Request) {
	var in VitalInput
	if !h.decode(w, r, &in) {
		return
	}
	v, err := h.svc.LogVital(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusCreated, v)
}

func (h *Handler) UpdateVital(w http.ResponseWriter, r *http.Request) {
	var in VitalInput
	if !h.decode(w, r, &in) {
		return
	}
	v, err := h.svc.UpdateVital(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, v)
}

func (h *Handler) DeleteVital(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteVital(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Medications

func (h *Handler) ListMedications(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, r, http.StatusOK, h.svc.Medications(r.Context()))
}

func (h *Handler) CreateMedication(w http.ResponseWriter, r *http.Request) {
	var in MedicationInput
	if !h.decode(w, r, &in) {
		return
	}
	m, err := h.svc.AddMedication(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusCreated, m)
}

func (h *Handler) UpdateMedication(w http.ResponseWriter, r *http.Request) {
	var in MedicationInput
	if !h.decode(w, r, &in) {
		return
	}
	m, err := h.svc.UpdateMedication(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, m)
}

func (h *Handler) DeleteMedication(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteMedication(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ToggleMedication(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.ToggleMedication(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, m)
}

// Symptoms

type symptomResponse struct {
	Symptom SymptomLog    `json:"symptom"`
	Alert   *PatternAlert `json:"alert,omitempty"`
}

func (h *Handler) ListSymptoms(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, r, http.StatusOK, h.svc.Symptoms(r.Context()))
}

func (h *Handler) CreateSymptom(w http.ResponseWriter, r *http.Request) {
	var in SymptomInput
	if !h.decode(w, r, &in) {
		return
	}
	l, alert, err := h.svc.LogSymptom(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusCreated, symptomResponse{Symptom: l, Alert: alert})
}

func (h *Handler) GetAlert(w http.ResponseWriter, r *http.Request) {
	a, ok := h.svc.Alert(r.Context())
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httpx.JSON(w, r, http.StatusOK, a)
}

func (h *Handler) DismissAlert(w http.ResponseWriter, r *http.Request) {
	h.svc.DismissAlert(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SymptomInsight(w http.ResponseWriter, r *http.Request) {
	var in SymptomInput
	if !h.decode(w, r, &in) {
		return
	}
	text, err := h.svc.SymptomInsight(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, map[string]string{"insight": text})
}

// Appointments

type statusRequest struct {
	Status AppointmentStatus `json:"status"`
}

func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, r, http.StatusOK, h.svc.Appointments(r.Context()))
}

func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var in AppointmentInput
	if !h.decode(w, r, &in) {
		return
	}
	a, err := h.svc.RequestAppointment(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusCreated, a)
}

func (h *Handler) SetAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !h.decode(w, r, &req) {
		return
	}
	a, err := h.svc.SetAppointmentStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, a)
}

// Settings

type languageRequest struct {
	Language string `json:"language"`
}

func (h *Handler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, r, http.StatusOK, locale.Languages)
}

func (h *Handler) GetLanguage(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, r, http.StatusOK, languageRequest{Language: h.svc.Language(r.Context())})
}

func (h *Handler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.svc.SetLanguage(r.Context(), req.Language); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, req)
}

// StreamEvents pushes every state change to the client as server-sent events until it disconnects.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events := make(chan Event, eventBuffer)
	unsubscribe := h.svc.Subscribe(func(e Event) {
		select {
		case events <- e:
		default:
			// slow client; it refetches on the next event anyway
		}
	})
	defer unsubscribe()

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case e := <-events:
			data, err := json.Marshal(e)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Kind, data)
			flusher.Flush()
		}
	}
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/dashboard", h.GetDashboard)
	r.Get("/events", h.StreamEvents)

	r.Route("/vitals", func(r chi.Router) {
		r.Get("/", h.ListVitals)
		r.Post("/", h.CreateVital)
		r.Put("/{id}", h.UpdateVital)
		r.Delete("/{id}", h.DeleteVital)
	})

	r.Route("/medications", func(r chi.Router) {
		r.Get("/", h.ListMedications)
		r.Post("/", h.CreateMedication)
		r.Put("/{id}", h.UpdateMedication)
		r.Delete("/{id}", h.DeleteMedication)
		r.Post("/{id}/toggle", h.ToggleMedication)
	})

	r.Route("/symptoms", func(r chi.Router) {
		r.Get("/", h.ListSymptoms)
		r.Post("/", h.CreateSymptom)
		r.Get("/alert", h.GetAlert)
		r.Delete("/alert", h.DismissAlert)
		r.Post("/insight", h.SymptomInsight)
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Get("/", h.ListAppointments)
		r.Post("/", h.CreateAppointment)
		r.Put("/{id}/status", h.SetAppointmentStatus)
	})

	r.Get("/languages", h.ListLanguages)
	r.Get("/settings/language", h.GetLanguage)
	r.Put("/settings/language", h.SetLanguage)
}
