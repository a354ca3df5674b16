package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"podcast-insights-go/internal/audit"
	"podcast-insights-go/internal/logger"
	"podcast-insights-go/internal/segmenter"
	"podcast-insights-go/internal/types"
)

// Resolver maps a free-text reference to an episode match; nil match with nil
// error is the legitimate not-found outcome.
type Resolver interface {
	Resolve(ctx context.Context, title, showName string) (*types.EpisodeMatch, error)
}

// AudioFetcher obtains and releases trimmed snippets.
type AudioFetcher interface {
	ExtractSnippet(ctx context.Context, audioURL string, timestampSeconds, windowSeconds int) (types.AudioSnippet, error)
	Discard(snippet types.AudioSnippet)
}

// Transcriber turns a local snippet into plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, snippet types.AudioSnippet) (string, error)
}

// Summarizer condenses a transcript window into bullet takeaways.
type Summarizer interface {
	Summarize(ctx context.Context, transcriptText, episodeTitle string) (types.SummaryBullets, error)
}

// SegmentFunc extracts a transcript window; "" means fall back to audio.
type SegmentFunc func(payload *types.TranscriptPayload, timestampSeconds, windowSeconds int) string

// Pipeline sequences resolve -> segment-or-transcribe -> summarize for one
// request. Stages run sequentially; each consumes the previous stage's output.
type Pipeline struct {
	resolver      Resolver
	fetcher       AudioFetcher
	transcriber   Transcriber
	summarizer    Summarizer
	segment       SegmentFunc
	sink          audit.Sink
	windowSeconds int
}

func New(resolver Resolver, fetcher AudioFetcher, transcriber Transcriber, sum Summarizer, sink audit.Sink, windowSeconds int) *Pipeline {
	if windowSeconds <= 0 {
		windowSeconds = segmenter.DefaultWindowSeconds
	}
	if sink == nil {
		sink = audit.LogSink{}
	}
	return &Pipeline{
		resolver:      resolver,
		fetcher:       fetcher,
		transcriber:   transcriber,
		summarizer:    sum,
		segment:       segmenter.Extract,
		sink:          sink,
		windowSeconds: windowSeconds,
	}
}

// NormalizeReference is the single entry-point normalization: after it,
// downstream components never re-check for absent fields.
func NormalizeReference(ref types.EpisodeReference) (types.EpisodeReference, error) {
	ref.Title = strings.TrimSpace(ref.Title)
	ref.ShowName = strings.TrimSpace(ref.ShowName)
	ref.SourceURL = strings.TrimSpace(ref.SourceURL)
	if ref.Title == "" {
		return ref, fail(KindValidation, errors.New("title is required"))
	}
	if ref.TimestampSeconds < 0 {
		ref.TimestampSeconds = 0
	}
	return ref, nil
}

// Run executes one pipeline instance to a terminal state. A validation failure
// returns before any external call, audit emission included. Every other run
// emits exactly one audit record immediately before returning.
func (p *Pipeline) Run(ctx context.Context, ref types.EpisodeReference) (types.InsightResult, error) {
	ref, err := NormalizeReference(ref)
	if err != nil {
		return types.InsightResult{}, err
	}

	start := time.Now()
	origin := ""
	result, runErr := p.run(ctx, ref, &origin)

	entry := audit.Entry{
		EpisodeTitle:     ref.Title,
		ShowName:         ref.ShowName,
		TimestampSeconds: ref.TimestampSeconds,
		TranscriptOrigin: origin,
		DurationMs:       time.Since(start).Milliseconds(),
		CreatedAt:        time.Now().UTC(),
	}
	switch {
	case runErr != nil:
		entry.Outcome = "failed"
		entry.ErrorKind = string(KindOf(runErr))
	case result.ManualMode:
		entry.Outcome = "not_found"
	default:
		entry.Outcome = "done"
	}
	p.sink.Record(ctx, entry)

	return result, runErr
}

func (p *Pipeline) run(ctx context.Context, ref types.EpisodeReference, origin *string) (types.InsightResult, error) {
	log := logger.Component("pipeline").WithField("title", ref.Title).WithField("timestamp", ref.TimestampSeconds)

	match, err := p.resolver.Resolve(ctx, ref.Title, ref.ShowName)
	if err != nil {
		return types.InsightResult{}, fail(KindResolver, err)
	}
	if match == nil {
		// a successful terminal state: the user supplies notes manually
		log.Info("no match; manual mode")
		return types.InsightResult{
			EpisodeTitle:     ref.Title,
			ShowName:         ref.ShowName,
			TimestampSeconds: ref.TimestampSeconds,
			ManualMode:       true,
		}, nil
	}

	segment, err := p.transcriptFor(ctx, ref, match, log)
	if err != nil {
		return types.InsightResult{}, err
	}
	*origin = segment.Origin

	if strings.TrimSpace(segment.Text) == "" {
		// never spend a summarizer call on a blank transcript
		return types.InsightResult{}, fail(KindEmptyTranscript, errors.New("transcript segment is blank"))
	}

	bullets, err := p.summarizer.Summarize(ctx, segment.Text, ref.Title)
	if err != nil {
		return types.InsightResult{}, fail(KindSummarization, err)
	}

	// the caller's reference is authoritative for identity; resolved values
	// only fill gaps
	showName := ref.ShowName
	if showName == "" {
		showName = match.CanonicalShowName
	}
	log.WithField("origin", segment.Origin).Info("run complete")
	return types.InsightResult{
		EpisodeTitle:     ref.Title,
		ShowName:         showName,
		ThumbnailURL:     match.ThumbnailURL,
		Transcript:       segment.Text,
		Summary:          bullets,
		TimestampSeconds: ref.TimestampSeconds,
		ManualMode:       false,
	}, nil
}

// transcriptFor prefers the embedded transcript and falls back to
// extract-and-transcribe when segmentation yields nothing.
func (p *Pipeline) transcriptFor(ctx context.Context, ref types.EpisodeReference, match *types.EpisodeMatch, log *logrus.Entry) (types.TranscriptSegment, error) {
	if match.EmbeddedTranscript != nil {
		if text := p.segment(match.EmbeddedTranscript, ref.TimestampSeconds, p.windowSeconds); strings.TrimSpace(text) != "" {
			return types.TranscriptSegment{Text: text, Origin: types.OriginEmbedded}, nil
		}
		log.Info("embedded transcript yielded no window; falling back to audio")
	}

	if match.AudioURL == "" {
		return types.TranscriptSegment{}, fail(KindNoAudio, fmt.Errorf("episode %s has no transcript and no audio url", match.ID))
	}

	snippet, err := p.fetcher.ExtractSnippet(ctx, match.AudioURL, ref.TimestampSeconds, p.windowSeconds)
	if err != nil {
		return types.TranscriptSegment{}, fail(KindExtraction, err)
	}
	// scoped release: the snippet never outlives the transcription attempt,
	// even when the transcriber panics and the server recovers
	defer p.fetcher.Discard(snippet)

	text, err := p.transcriber.Transcribe(ctx, snippet)
	if err != nil {
		return types.TranscriptSegment{}, fail(KindTranscription, err)
	}
	return types.TranscriptSegment{Text: text, Origin: types.OriginTranscribed}, nil
}
