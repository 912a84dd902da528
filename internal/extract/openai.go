// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/dx-index/internal/httputil"
)

// openAIAPIURL is the chat completions endpoint. Package-level var for test
// substitution.
var openAIAPIURL = "https://api.openai.com/v1/chat/completions"

// OpenAIBackend issues one chat completion per chunk against the OpenAI
// API. Temperature is pinned to zero so repeated runs over the same chunk
// stay as reproducible as the endpoint allows.
type OpenAIBackend struct {
	APIKey string
	Model  string
	Client *http.Client
}

// openAIRequest is the request body for the chat completions API.
type openAIRequest struct {
	Model       string          `json:"model"`
	Temperature float64         `json:"temperature"`
	Messages    []openAIMessage `json:"messages"`
}

// openAIMessage is a single message in the conversation.
type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openAIResponse is the subset of the response body we consume.
type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the prompt and returns the raw text of the first choice.
// HTTP 429 is retried inside httputil.DoWithRetry; whatever status survives
// is classified into the transient/permanent taxonomy here.
func (b *OpenAIBackend) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := openAIRequest{
		Model:       b.Model,
		Temperature: 0,
		Messages: []openAIMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", &PermanentError{Err: fmt.Errorf("marshaling request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", &PermanentError{Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.APIKey)

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &TransientError{Err: fmt.Errorf("calling model endpoint: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		statusErr := fmt.Errorf("model endpoint returned %d: %s", resp.StatusCode, string(body))

		switch {
		case resp.StatusCode == http.StatusUnauthorized,
			resp.StatusCode == http.StatusForbidden,
			resp.StatusCode == http.StatusBadRequest,
			resp.StatusCode == http.StatusNotFound:
			return "", &PermanentError{Status: resp.StatusCode, Err: statusErr}
		default:
			// 429 after exhausted in-call retries, 5xx, and anything odd.
			return "", &TransientError{Err: statusErr}
		}
	}

	var oResp openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&oResp); err != nil {
		return "", &SchemaError{Err: fmt.Errorf("decoding completion envelope: %w", err)}
	}
	if len(oResp.Choices) == 0 {
		return "", &SchemaError{Err: fmt.Errorf("completion has no choices")}
	}

	return oResp.Choices[0].Message.Content, nil
}
