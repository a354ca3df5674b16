package segmenter

import (
	"math"
	"strings"

	"podcast-insights-go/internal/types"
)

// DefaultWindowSeconds is the transcript window used when the caller does not
// override it.
const DefaultWindowSeconds = 30

// Flat-text payloads carry no timing, so the word offset is approximated with
// an assumed reading rate. The slice is a topical window, not exact alignment.
const (
	wordsPerMinute = 150
	wordsBefore    = 25
	wordsAfter     = 75
	graceSeconds   = 5
)

// Extract returns the transcript window around timestampSeconds, or "" when the
// payload shape is unknown, signaling the caller to fall back to the audio path.
// It is a pure function: same inputs, same output.
func Extract(payload *types.TranscriptPayload, timestampSeconds, windowSeconds int) string {
	if payload == nil {
		return ""
	}
	switch payload.Kind {
	case types.PayloadFlatText:
		return extractFlat(payload.Text, timestampSeconds)
	case types.PayloadTimedSegments:
		return extractTimed(payload.Segments, timestampSeconds, windowSeconds)
	default:
		return ""
	}
}

func extractFlat(text string, timestampSeconds int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	wordIndex := int(math.Floor(float64(timestampSeconds) / 60.0 * wordsPerMinute))
	lo := wordIndex - wordsBefore
	if lo < 0 {
		lo = 0
	}
	if lo >= len(words) {
		lo = len(words) - 1
	}
	hi := wordIndex + wordsAfter
	if hi > len(words) {
		hi = len(words)
	}
	if hi <= lo {
		hi = lo + 1
	}
	return strings.Join(words[lo:hi], " ")
}

func extractTimed(segments []types.TimedSegment, timestampSeconds, windowSeconds int) string {
	lo := float64(timestampSeconds - graceSeconds)
	hi := float64(timestampSeconds + windowSeconds + graceSeconds)
	var parts []string
	for _, seg := range segments {
		// keep segments whose [start,end) interval overlaps [lo,hi]
		if seg.EndSeconds > lo && seg.StartSeconds <= hi {
			if t := strings.TrimSpace(seg.Text); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, " ")
}
