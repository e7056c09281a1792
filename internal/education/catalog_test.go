package education

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	c := DefaultCatalog()

	assert.Len(t, c.Search(""), 6)

	got := c.Search("MENTAL health")
	require.Len(t, got, 2)
	assert.Equal(t, "3", got[0].ID)
	assert.Equal(t, "6", got[1].ID)

	got = c.Search("copd")
	require.Len(t, got, 1)
	assert.Equal(t, TypeVideo, got[0].Type)

	assert.Empty(t, c.Search("orthodontics"))
}

func TestGet(t *testing.T) {
	c := DefaultCatalog()

	r, err := c.Get("1")
	require.NoError(t, err)
	assert.Equal(t, "Understanding Your Blood Pressure", r.Title)

	_, err = c.Get("99")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHandler(t *testing.T) {
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(DefaultCatalog()))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/education?q=sleep", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []Resource
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "6", list[0].ID)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/education/42", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
