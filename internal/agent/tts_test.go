package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/"+DefaultVoiceID, r.URL.Path)
		assert.Equal(t, "xi-key", r.Header.Get("xi-api-key"))
		var req ttsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Hello", req.Text)
		assert.Equal(t, DefaultTTSModel, req.ModelID)
		w.Write([]byte("ID3"))
	}))
	defer srv.Close()

	audio, err := NewElevenLabsClient(TTSConfig{BaseURL: srv.URL, APIKey: "xi-key"}).Synthesize(context.Background(), "Hello", "")
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3"), audio)
}

func TestSynthesize_NoKey(t *testing.T) {
	_, err := NewElevenLabsClient(TTSConfig{}).Synthesize(context.Background(), "Hello", "")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
