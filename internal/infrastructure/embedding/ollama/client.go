// Package ollama provides the query embedder over the Ollama HTTP API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/adb1146/itc-conference-app-sub001/internal/core/domain"
	"github.com/adb1146/itc-conference-app-sub001/internal/infrastructure/resilience"
)

type Embedder struct {
	baseURL    string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
}

type Option func(*Embedder)

// WithRateLimit caps embedding calls at rps requests per second.
func WithRateLimit(rps float64) Option {
	return func(e *Embedder) {
		if rps > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithExecutor wraps embed calls in the shared resilience executor.
func WithExecutor(executor *resilience.Executor) Option {
	return func(e *Embedder) {
		e.executor = executor
	}
}

func New(baseURL, model string, opts ...Option) *Embedder {
	e := &Embedder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EmbedQuery returns the embedding vector for one piece of query text.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var vector []float32
	call := func(callCtx context.Context) error {
		var err error
		vector, err = e.embed(callCtx, text)
		return err
	}
	if e.executor != nil {
		if err := e.executor.Execute(ctx, "ollama.embed", call, classifyEmbedError); err != nil {
			return nil, err
		}
		return vector, nil
	}
	if err := call(ctx); err != nil {
		return nil, err
	}
	return vector, nil
}

func (e *Embedder) embed(ctx context.Context, text string) ([]float32, error) {
	request := map[string]any{
		"model": e.model,
		"input": []string{text},
	}
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("marshal embed body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrBackendUnavailable, "ollama embed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, domain.WrapError(domain.ErrTemporary, "ollama embed", fmt.Errorf("status %s", resp.Status))
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ollama embed status: %s", resp.Status)
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(response.Embeddings) == 0 || len(response.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return response.Embeddings[0], nil
}

func classifyEmbedError(err error) (bool, bool) {
	if domain.IsKind(err, domain.ErrTemporary) || domain.IsKind(err, domain.ErrBackendUnavailable) {
		return true, true
	}
	return false, true
}
