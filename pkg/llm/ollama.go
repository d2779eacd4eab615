package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOllamaRetries = 3
)

// OllamaOption configures the Ollama client.
type OllamaOption func(*Ollama)

// WithOllamaHTTPClient overrides the default http.Client.
func WithOllamaHTTPClient(hc *http.Client) OllamaOption {
	return func(c *Ollama) {
		c.http = hc
	}
}

// WithOllamaRateLimit caps requests per second against the local server.
func WithOllamaRateLimit(rps float64) OllamaOption {
	return func(c *Ollama) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithOllamaRetries sets the transient-failure retry budget. This is
// transport-level only; callers never see a retried extraction.
func WithOllamaRetries(n int) OllamaOption {
	return func(c *Ollama) {
		c.maxRetries = n
	}
}

// Ollama is a Client backed by a local Ollama server's generate endpoint.
type Ollama struct {
	baseURL    string
	model      string
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

// NewOllama creates an Ollama client. If baseURL is empty, the standard
// local address is used.
func NewOllama(baseURL, model string, opts ...OllamaOption) *Ollama {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	c := &Ollama{
		baseURL: baseURL,
		model:   model,
		http: &http.Client{
			Timeout: 10 * time.Minute,
		},
		limiter:    rate.NewLimiter(rate.Inf, 1),
		maxRetries: defaultOllamaRetries,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	PromptEvalCount int64  `json:"prompt_eval_count"`
	EvalCount       int64  `json:"eval_count"`
}

// Complete issues a non-streaming generate call, retrying transient server
// and network failures with exponential backoff. Client errors (4xx) fail
// immediately.
func (c *Ollama) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "llm: ollama rate limit wait")
	}

	options := make(map[string]any)
	if req.Temperature != nil {
		options["temperature"] = *req.Temperature
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	body, err := json.Marshal(ollamaGenerateRequest{
		Model:   c.model,
		Prompt:  req.Prompt,
		System:  req.System,
		Stream:  false,
		Options: options,
	})
	if err != nil {
		return nil, eris.Wrap(err, "llm: marshal ollama request")
	}

	var result *CompletionResponse
	operation := func() error {
		r, err := c.generate(ctx, body)
		if err != nil {
			return err
		}
		result = r
		return nil
	}

	strategy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)),
		ctx,
	)
	if err := backoff.Retry(operation, strategy); err != nil {
		return nil, err
	}

	return result, nil
}

func (c *Ollama) generate(ctx context.Context, body []byte) (*CompletionResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(eris.Wrap(err, "llm: create ollama request"))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "llm: ollama request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "llm: read ollama response")
	}

	if resp.StatusCode != http.StatusOK {
		wrapped := eris.Errorf("llm: ollama returned %d: %s", resp.StatusCode, string(respBody))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, backoff.Permanent(wrapped)
		}
		return nil, wrapped
	}

	var gen ollamaGenerateResponse
	if err := json.Unmarshal(respBody, &gen); err != nil {
		return nil, backoff.Permanent(eris.Wrap(err, "llm: unmarshal ollama response"))
	}

	return &CompletionResponse{
		Text:  gen.Response,
		Model: gen.Model,
		Usage: TokenUsage{
			InputTokens:  gen.PromptEvalCount,
			OutputTokens: gen.EvalCount,
		},
	}, nil
}
