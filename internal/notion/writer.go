package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"podcast-insights-go/internal/logger"
	"podcast-insights-go/internal/types"
)

const (
	defaultBaseURL = "https://api.notion.com"
	apiVersion     = "2022-06-28"
)

// Writer creates one page per captured insight under a parent database. It is
// the destination-document collaborator; the pipeline never depends on it.
type Writer struct {
	baseURL    string
	token      string
	databaseID string
	httpClient *http.Client
}

func NewWriter(token, databaseID string) *Writer {
	return &Writer{
		baseURL:    defaultBaseURL,
		token:      token,
		databaseID: databaseID,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// NewWriterWithBaseURL exists for tests against a local server.
func NewWriterWithBaseURL(baseURL, token, databaseID string) *Writer {
	w := NewWriter(token, databaseID)
	w.baseURL = strings.TrimRight(baseURL, "/")
	return w
}

// Save renders the insight as a page: title property, one bulleted list item
// per takeaway, then the transcript as a paragraph.
func (w *Writer) Save(ctx context.Context, insight types.InsightResult, notes string) error {
	children := make([]map[string]any, 0, len(insight.Summary)+1)
	for _, bullet := range insight.Summary {
		children = append(children, block("bulleted_list_item", bullet))
	}
	if insight.Transcript != "" {
		children = append(children, block("paragraph", insight.Transcript))
	}
	if notes != "" {
		children = append(children, block("paragraph", notes))
	}

	title := insight.EpisodeTitle
	if insight.ShowName != "" {
		title = fmt.Sprintf("%s — %s", insight.ShowName, insight.EpisodeTitle)
	}

	page := map[string]any{
		"parent": map[string]any{"database_id": w.databaseID},
		"properties": map[string]any{
			"Name": map[string]any{
				"title": []map[string]any{
					{"text": map[string]any{"content": title}},
				},
			},
		},
		"children": children,
	}
	data, _ := json.Marshal(page)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/v1/pages", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.token)
	req.Header.Set("Notion-Version", apiVersion)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notion request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notion status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	logger.Component("notion").WithField("title", title).Info("insight saved")
	return nil
}

func block(kind, text string) map[string]any {
	return map[string]any{
		"object": "block",
		"type":   kind,
		kind: map[string]any{
			"rich_text": []map[string]any{
				{"type": "text", "text": map[string]any{"content": text}},
			},
		},
	}
}
