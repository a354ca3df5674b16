package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SummarizationError preserves the language-model service's error detail for
// server-side diagnostics.
type SummarizationError struct {
	Status int
	Detail string
	Err    error
}

func (e *SummarizationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("summarization failed (status %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("summarization failed: %v", e.Err)
}

func (e *SummarizationError) Unwrap() error { return e.Err }

// LLMClient issues chat-completion calls against an OpenAI-compatible gateway.
type LLMClient struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewLLMClient(endpoint, apiKey, model string, timeout time.Duration) *LLMClient {
	return &LLMClient{
		endpoint:   endpoint,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Complete sends one prompt and returns the model's raw text response.
func (c *LLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.2,
	}
	data, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return "", &SummarizationError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &SummarizationError{Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 300 {
		return "", &SummarizationError{Status: resp.StatusCode, Detail: strings.TrimSpace(string(body))}
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &SummarizationError{Err: fmt.Errorf("json decode error: %v body=%s", err, string(body))}
	}
	if len(parsed.Choices) == 0 {
		return "", &SummarizationError{Err: fmt.Errorf("no choices in response: %s", string(body))}
	}
	return parsed.Choices[0].Message.Content, nil
}
