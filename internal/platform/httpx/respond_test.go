package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMissing = errors.New("missing")

func TestStatusFor(t *testing.T) {
	pairs := []ErrStatus{{Err: errMissing, Status: http.StatusNotFound}}

	assert.Equal(t, http.StatusNotFound, StatusFor(fmt.Errorf("vital 42: %w", errMissing), pairs...))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("boom"), pairs...))
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil), http.StatusBadRequest, errors.New("bad input"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, map[string]string{"status": "error", "description": "bad input"}, body)
}

func TestDecode(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Aspirin"}`))
	require.NoError(t, Decode(req, &v))
	assert.Equal(t, "Aspirin", v.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Aspirin","dose":1}`))
	assert.Error(t, Decode(req, &v))
}
