package search

import (
	"encoding/json"
	"fmt"
	"strings"

	"podcast-insights-go/internal/types"
)

// rawSegment covers the field-name variants seen in external transcript data.
type rawSegment struct {
	Start     *float64 `json:"start"`
	StartTime *float64 `json:"start_time"`
	End       *float64 `json:"end"`
	EndTime   *float64 `json:"end_time"`
	Text      string   `json:"text"`
	Words     string   `json:"words"`
}

// IngestPayload decides the transcript shape once: a JSON string becomes flat
// text, an array of timed objects becomes ordered segments. Anything else is an
// error so the caller can fall back to the audio path.
func IngestPayload(raw json.RawMessage) (*types.TranscriptPayload, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, fmt.Errorf("empty transcript payload")
	}

	var flat string
	if err := json.Unmarshal(raw, &flat); err == nil {
		if strings.TrimSpace(flat) == "" {
			return nil, fmt.Errorf("blank transcript text")
		}
		return &types.TranscriptPayload{Kind: types.PayloadFlatText, Text: flat}, nil
	}

	var rawSegments []rawSegment
	if err := json.Unmarshal(raw, &rawSegments); err != nil {
		return nil, fmt.Errorf("unsupported transcript payload shape")
	}
	if len(rawSegments) == 0 {
		return nil, fmt.Errorf("transcript payload has no segments")
	}

	segments := make([]types.TimedSegment, 0, len(rawSegments))
	for _, rs := range rawSegments {
		seg := types.TimedSegment{Text: rs.Text}
		if seg.Text == "" {
			seg.Text = rs.Words
		}
		switch {
		case rs.Start != nil:
			seg.StartSeconds = *rs.Start
		case rs.StartTime != nil:
			seg.StartSeconds = *rs.StartTime
		}
		switch {
		case rs.End != nil:
			seg.EndSeconds = *rs.End
		case rs.EndTime != nil:
			seg.EndSeconds = *rs.EndTime
		}
		segments = append(segments, seg)
	}
	return &types.TranscriptPayload{Kind: types.PayloadTimedSegments, Segments: segments}, nil
}
