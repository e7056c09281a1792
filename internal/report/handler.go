package report

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"patient-monitor/internal/platform/httpx"
	"patient-monitor/internal/tracker"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// HandleSummary returns the PDF. ?deliver=true also sends it to the care team.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	deliver, _ := strconv.ParseBool(r.URL.Query().Get("deliver"))

	sum, err := h.svc.Summary(r.Context(), deliver)
	if err != nil {
		httpx.Error(w, r, httpx.StatusFor(err,
			httpx.ErrStatus{Err: ErrNoFont, Status: http.StatusServiceUnavailable},
		), err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sum.FileName))
	w.Header().Set("X-Report-Delivered", strconv.FormatBool(sum.Delivered))
	if sum.URL != "" {
		w.Header().Set("X-Report-URL", sum.URL)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(sum.PDF)
}

func (h *Handler) HandleVitalsChart(w http.ResponseWriter, r *http.Request) {
	t := tracker.VitalType(r.URL.Query().Get("type"))
	if t == "" {
		t = tracker.VitalBloodPressure
	}

	page, err := h.svc.Chart(r.Context(), t)
	if err != nil {
		httpx.Error(w, r, httpx.StatusFor(err,
			httpx.ErrStatus{Err: tracker.ErrUnknownVitalType, Status: http.StatusBadRequest},
			httpx.ErrStatus{Err: ErrNoReadings, Status: http.StatusNotFound},
		), err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(page))
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/reports", func(r chi.Router) {
		r.Post("/summary", h.HandleSummary)
		r.Get("/vitals/chart", h.HandleVitalsChart)
	})
}
