package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req ollamaGenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-oss:20b", req.Model)
		assert.False(t, req.Stream)
		assert.Equal(t, "extract the metrics", req.Prompt)

		json.NewEncoder(w).Encode(ollamaGenerateResponse{ //nolint:errcheck
			Model:           req.Model,
			Response:        `{"total_revenue": 100}`,
			PromptEvalCount: 42,
			EvalCount:       7,
		})
	}))
	defer srv.Close()

	c := NewOllama(srv.URL, "gpt-oss:20b")
	resp, err := c.Complete(context.Background(), CompletionRequest{Prompt: "extract the metrics"})
	require.NoError(t, err)
	assert.Equal(t, `{"total_revenue": 100}`, resp.Text)
	assert.Equal(t, int64(42), resp.Usage.InputTokens)
	assert.Equal(t, int64(7), resp.Usage.OutputTokens)
}

func TestOllamaRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "ok"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewOllama(srv.URL, "m", WithOllamaRetries(5))
	resp, err := c.Complete(context.Background(), CompletionRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOllamaClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewOllama(srv.URL, "missing", WithOllamaRetries(5))
	_, err := c.Complete(context.Background(), CompletionRequest{Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama returned 404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestOllamaExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewOllama(srv.URL, "m", WithOllamaRetries(2))
	_, err := c.Complete(context.Background(), CompletionRequest{Prompt: "p"})
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOllamaDefaultBaseURL(t *testing.T) {
	c := NewOllama("", "m")
	assert.Equal(t, defaultOllamaBaseURL, c.baseURL)
}
