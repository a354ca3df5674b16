package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"podcast-insights-go/internal/logger"
	"podcast-insights-go/internal/types"
)

// TranscriptionError carries the upstream service's error detail. A failure
// here is terminal for the run; there is no retry.
type TranscriptionError struct {
	Status int
	Detail string
	Err    error
}

func (e *TranscriptionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("transcription failed (status %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

type transcribeResponse struct {
	Text string `json:"text"`
}

// Client uploads audio snippets to a Whisper-style transcription endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(endpoint, apiKey, model string, timeout time.Duration) *Client {
	if model == "" {
		model = "whisper-1"
	}
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Transcribe sends the snippet file as multipart form data and returns the
// plain-text transcript.
func (c *Client) Transcribe(ctx context.Context, snippet types.AudioSnippet) (string, error) {
	log := logger.Component("transcription").WithField("snippet", snippet.LocalPath)

	file, err := os.Open(snippet.LocalPath)
	if err != nil {
		return "", &TranscriptionError{Err: fmt.Errorf("open snippet: %w", err)}
	}
	defer file.Close()

	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	part, err := w.CreateFormFile("file", filepath.Base(snippet.LocalPath))
	if err != nil {
		return "", &TranscriptionError{Err: err}
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", &TranscriptionError{Err: fmt.Errorf("read snippet: %w", err)}
	}
	w.WriteField("model", c.model)
	w.WriteField("response_format", "json")
	_ = w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &b)
	if err != nil {
		return "", &TranscriptionError{Err: err}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TranscriptionError{Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 300 {
		return "", &TranscriptionError{Status: resp.StatusCode, Detail: strings.TrimSpace(string(body))}
	}

	var out transcribeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &TranscriptionError{Err: fmt.Errorf("json decode error: %v body=%s", err, string(body))}
	}

	log.WithField("chars", len(out.Text)).Info("snippet transcribed")
	return out.Text, nil
}
