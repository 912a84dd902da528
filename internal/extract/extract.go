// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract wraps one language-model call per chunk of report text.
// The model's output is untrusted: it is parsed and validated at this
// boundary and converted to a typed RawExtraction before anything else
// sees it.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pdiddy/dx-index/internal/ratelimit"
	"github.com/pdiddy/dx-index/pkg/types"
)

// DocumentContext carries document-level metadata into the prompt. It
// enriches the instruction; the model decides whether to echo it into
// individual candidates.
type DocumentContext struct {
	CompanyName string
	ReportType  string
	Year        string
}

// ModelBackend abstracts the language model endpoint so tests can supply a
// mock. Complete issues exactly one call and returns the raw response text.
type ModelBackend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// backoffBase controls the base duration for exponential backoff between
// retries. Tests override this to avoid real sleeps.
var backoffBase = time.Second

// Client extracts initiative candidates from one chunk at a time. All
// calls pass through the shared rate limiter owned by the orchestrator, so
// pacing holds across every chunk of every document.
type Client struct {
	backend    ModelBackend
	limiter    *ratelimit.Limiter
	maxRetries int
}

// NewClient builds a client. maxRetries <= 0 defaults to 3.
func NewClient(backend ModelBackend, limiter *ratelimit.Limiter, maxRetries int) *Client {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited()
	}
	return &Client{backend: backend, limiter: limiter, maxRetries: maxRetries}
}

// ExtractChunk runs the per-chunk call state machine: pending, in flight,
// then success, a bounded number of retryable failures, or terminal
// failure. On terminal failure it returns an empty RawExtraction together
// with the final error so the caller can record and skip the chunk;
// permanent failures and context cancellation short-circuit the retries.
func (c *Client) ExtractChunk(ctx context.Context, chunkIndex int, chunkText string, docCtx DocumentContext) (types.RawExtraction, error) {
	empty := types.RawExtraction{ChunkIndex: chunkIndex}

	prompt, err := renderPrompt(docCtx, chunkText)
	if err != nil {
		return empty, &PermanentError{Err: fmt.Errorf("rendering prompt: %w", err)}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return empty, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return empty, err
		}

		raw, err := c.backend.Complete(ctx, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return empty, ctx.Err()
			}
			var perm *PermanentError
			if errors.As(err, &perm) {
				return empty, err
			}
			lastErr = err
			continue
		}

		candidates, err := parseResponse(raw)
		if err != nil {
			lastErr = &SchemaError{Err: err}
			continue
		}

		return types.RawExtraction{ChunkIndex: chunkIndex, Candidates: candidates}, nil
	}

	return empty, fmt.Errorf("chunk %d: after %d retries: %w", chunkIndex, c.maxRetries, lastErr)
}

// parseResponse validates the model's raw text against the response
// contract: a JSON array of candidate objects. Markdown code fences are
// tolerated and stripped; a single bare object is accepted as a
// one-element array. Anything else is a schema failure.
func parseResponse(raw string) ([]types.RawInitiative, error) {
	text := stripFences(strings.TrimSpace(raw))
	if text == "" {
		return nil, fmt.Errorf("empty response")
	}

	var candidates []types.RawInitiative
	if err := json.Unmarshal([]byte(text), &candidates); err == nil {
		return candidates, nil
	}

	var single types.RawInitiative
	if err := json.Unmarshal([]byte(text), &single); err != nil {
		return nil, fmt.Errorf("response is neither a JSON array nor an object: %w", err)
	}
	return []types.RawInitiative{single}, nil
}

// stripFences removes a surrounding markdown code fence (``` or ```json)
// that models habitually wrap JSON in.
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
