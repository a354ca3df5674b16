package audit

import (
	"context"
	"time"

	"podcast-insights-go/internal/logger"
)

// Entry is one per-run audit record, emitted immediately before the pipeline
// responds, regardless of outcome.
type Entry struct {
	Outcome          string    `json:"outcome"` // done, not_found, failed
	ErrorKind        string    `json:"error_kind,omitempty"`
	EpisodeTitle     string    `json:"episode_title"`
	ShowName         string    `json:"show_name,omitempty"`
	TimestampSeconds int       `json:"timestamp_seconds"`
	TranscriptOrigin string    `json:"transcript_origin,omitempty"`
	DurationMs       int64     `json:"duration_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// Sink receives audit entries fire-and-forget. Implementations must never let
// a delivery failure reach the pipeline.
type Sink interface {
	Record(ctx context.Context, e Entry)
}

// LogSink writes audit entries to the service log. Default when no external
// sink is configured.
type LogSink struct{}

func (LogSink) Record(_ context.Context, e Entry) {
	logger.Component("audit").WithFields(map[string]any{
		"outcome":           e.Outcome,
		"error_kind":        e.ErrorKind,
		"episode_title":     e.EpisodeTitle,
		"show_name":         e.ShowName,
		"timestamp_seconds": e.TimestampSeconds,
		"transcript_origin": e.TranscriptOrigin,
		"duration_ms":       e.DurationMs,
	}).Info("run audited")
}
