package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiClient_Generate(t *testing.T) {
	var gotPath, gotKey, gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotPrompt = req.Contents[0].Parts[0].Text

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Hello "},{"text":"there."}]}}]}`))
	}))
	defer srv.Close()

	client := NewGeminiClient(srv.URL, "secret", "gemini-test", gobreaker.Settings{}, nil)
	reply, err := client.Generate(context.Background(), "User: hi\nAI:")

	require.NoError(t, err)
	assert.Equal(t, "Hello there.", reply)
	assert.Equal(t, "/models/gemini-test:generateContent", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "User: hi\nAI:", gotPrompt)
}

func TestGeminiClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	client := NewGeminiClient(srv.URL, "secret", "gemini-test", gobreaker.Settings{}, nil)
	_, err := client.Generate(context.Background(), "hi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Contains(t, err.Error(), "429")
}

func TestGeminiClient_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer srv.Close()

	client := NewGeminiClient(srv.URL, "secret", "gemini-test", gobreaker.Settings{}, nil)
	_, err := client.Generate(context.Background(), "hi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestGeminiClient_MissingKey(t *testing.T) {
	client := NewGeminiClient("http://127.0.0.1:1", "", "gemini-test", gobreaker.Settings{}, nil)
	_, err := client.Generate(context.Background(), "hi")
	assert.Error(t, err)
}

func TestGeminiClient_BreakerOpensOnRepeatedFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	settings := gobreaker.Settings{
		ReadyToTrip: func(counts gobreaker.Counts) bool { return counts.ConsecutiveFailures >= 2 },
	}
	client := NewGeminiClient(srv.URL, "secret", "gemini-test", settings, nil)
	for i := 0; i < 4; i++ {
		_, _ = client.Generate(context.Background(), "hi")
	}

	assert.Equal(t, 2, calls)
	_, err := client.Generate(context.Background(), "hi")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}
