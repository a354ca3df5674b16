package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a failed run. The HTTP layer maps kinds to status codes;
// everything else about the failure stays server-side.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindResolver        Kind = "resolver_transport"
	KindNoAudio         Kind = "no_audio_available"
	KindExtraction      Kind = "audio_extraction"
	KindTranscription   Kind = "transcription"
	KindEmptyTranscript Kind = "empty_transcript"
	KindSummarization   Kind = "summarization"
)

// Error is the single outward-facing error shape for a failed run. The first
// stage failure is terminal; no stage retries.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func fail(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the failure kind, or "" for non-pipeline errors.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
