package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"podcast-insights-go/internal/logger"
	"podcast-insights-go/internal/types"
)

// Candidate is one raw search hit from the podcast-search service.
type Candidate struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	ShowName      string `json:"showName"`
	AudioURL      string `json:"audioUrl"`
	ImageURL      string `json:"imageUrl"`
	FeedURL       string `json:"feedUrl"`
	HasTranscript bool   `json:"hasTranscript"`
}

type searchResponse struct {
	Results []Candidate `json:"results"`
}

type transcriptResponse struct {
	Transcript json.RawMessage `json:"transcript"`
}

// errNotFound marks a 404 from the service. Only the transcript endpoint may
// treat it as a benign absence; a 404 from /search means the service itself is
// unreachable at that path and must fail the run.
var errNotFound = errors.New("search service returned 404")

// Client talks to the external podcast-search service. One search call per run,
// optionally one transcript fetch; no retries, a transport failure fails the run.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Search returns candidates ranked by relevance. A zero-result response is not
// an error.
func (c *Client) Search(ctx context.Context, query string) ([]Candidate, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s&limit=5", c.baseURL, url.QueryEscape(query))
	var out searchResponse
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Transcript fetches the service's embedded transcript for an episode and folds
// it into the tagged payload shape. A missing transcript returns (nil, nil).
func (c *Client) Transcript(ctx context.Context, episodeID string) (*types.TranscriptPayload, error) {
	endpoint := fmt.Sprintf("%s/episodes/%s/transcript", c.baseURL, url.PathEscape(episodeID))
	var out transcriptResponse
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(out.Transcript) == 0 {
		return nil, nil
	}
	payload, err := IngestPayload(out.Transcript)
	if err != nil {
		logger.Component("search").WithError(err).Warn("unrecognized transcript payload shape")
		return nil, nil
	}
	return payload, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", errNotFound, endpoint)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("search service status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("json decode error: %v body=%s", err, string(body))
	}
	return nil
}
