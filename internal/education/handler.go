package education

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"patient-monitor/internal/platform/httpx"
)

type Handler struct {
	catalog *Catalog
}

func NewHandler(c *Catalog) *Handler {
	return &Handler{catalog: c}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, r, http.StatusOK, h.catalog.Search(r.URL.Query().Get("q")))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	res, err := h.catalog.Get(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, r, http.StatusNotFound, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, res)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/education", h.List)
	r.Get("/education/{id}", h.Get)
}
