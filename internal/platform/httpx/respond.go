package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithField("request_id", middleware.GetReqID(r.Context())).WithError(err).Warn("encode response")
	}
}

// Error logs err and writes it as {"status":"error","description":...}.
func Error(w http.ResponseWriter, r *http.Request, status int, err error) {
	entry := logrus.WithFields(logrus.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"path":       r.URL.Path,
		"status":     status,
	})
	if status >= http.StatusInternalServerError {
		entry.Error(err.Error())
	} else {
		entry.Debug(err.Error())
	}
	JSON(w, r, status, map[string]string{
		"status":      "error",
		"description": err.Error(),
	})
}

// StatusFor maps err to a status code using the sentinel errors it wraps.
// Pairs are checked in order; unmatched errors are 500.
func StatusFor(err error, pairs ...ErrStatus) int {
	for _, p := range pairs {
		if errors.Is(err, p.Err) {
			return p.Status
		}
	}
	return http.StatusInternalServerError
}

type ErrStatus struct {
	Err    error
	Status int
}

// Decode reads a JSON body into v, rejecting unknown fields.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
