package agent

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "fr", r.FormValue("language"))

		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, []byte("RIFF"), data)

		fmt.Fprint(w, `{"text":"j'ai mal à la tête","language":"fr"}`)
	}))
	defer srv.Close()

	text, err := NewWhisperClient(srv.URL+"/transcribe", 0).Transcribe(context.Background(), []byte("RIFF"), "fr-CA")
	require.NoError(t, err)
	assert.Equal(t, "j'ai mal à la tête", text)
}

func TestTranscribe_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewWhisperClient(srv.URL, 0).Transcribe(context.Background(), []byte("x"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not loaded")
}
