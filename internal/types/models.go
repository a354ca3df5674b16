package types

// EpisodeReference is the caller-supplied identification of what is playing.
// It is normalized once at the pipeline entry and never re-checked downstream.
type EpisodeReference struct {
	Title            string `json:"title"`
	ShowName         string `json:"show_name,omitempty"`
	TimestampSeconds int    `json:"timestamp_seconds"`
	SourceURL        string `json:"source_url,omitempty"`
}

// EpisodeMatch is a search-service candidate resolution of a reference.
type EpisodeMatch struct {
	ID                 string             `json:"id"`
	CanonicalTitle     string             `json:"canonical_title"`
	CanonicalShowName  string             `json:"canonical_show_name"`
	AudioURL           string             `json:"audio_url,omitempty"`
	ThumbnailURL       string             `json:"thumbnail_url,omitempty"`
	FeedURL            string             `json:"feed_url,omitempty"`
	EmbeddedTranscript *TranscriptPayload `json:"embedded_transcript,omitempty"`
}

// PayloadKind tags the shape of a transcript payload, decided once at ingestion.
type PayloadKind string

const (
	PayloadFlatText      PayloadKind = "flat_text"
	PayloadTimedSegments PayloadKind = "timed_segments"
)

// TimedSegment is one time-coded piece of an episode transcript.
type TimedSegment struct {
	StartSeconds float64 `json:"start_seconds"`
	EndSeconds   float64 `json:"end_seconds"`
	Text         string  `json:"text"`
}

// TranscriptPayload is a tagged union: either flat text or ordered timed segments.
// External key variants (start/start_time, end/end_time, text/words) are folded
// into this shape by the search client so consumers never probe field names.
type TranscriptPayload struct {
	Kind     PayloadKind    `json:"kind"`
	Text     string         `json:"text,omitempty"`
	Segments []TimedSegment `json:"segments,omitempty"`
}

const (
	OriginEmbedded    = "embedded"
	OriginTranscribed = "transcribed"
)

// TranscriptSegment is the window of text handed to the summarizer.
type TranscriptSegment struct {
	Text   string `json:"text"`
	Origin string `json:"origin"`
}

// AudioSnippet is a short excerpt cut from a full episode. It is owned by the
// pipeline run that created it and deleted before the run returns.
type AudioSnippet struct {
	LocalPath          string `json:"local_path"`
	StartOffsetSeconds int    `json:"start_offset_seconds"`
	DurationSeconds    int    `json:"duration_seconds"`
	ByteSize           int64  `json:"byte_size"`
}

// SummaryBullets holds 1-3 short takeaway lines, in order.
type SummaryBullets []string

// InsightResult is the pipeline's terminal output. ManualMode means no catalog
// match was found; transcript and summary are absent and the caller supplies
// its own notes downstream.
type InsightResult struct {
	EpisodeTitle     string         `json:"episode_title"`
	ShowName         string         `json:"show_name,omitempty"`
	ThumbnailURL     string         `json:"thumbnail_url,omitempty"`
	Transcript       string         `json:"transcript,omitempty"`
	Summary          SummaryBullets `json:"summary,omitempty"`
	TimestampSeconds int            `json:"timestamp_seconds"`
	ManualMode       bool           `json:"manual_mode"`
}
