package pipeline

import (
	"context"
	"errors"
	"testing"

	"podcast-insights-go/internal/audit"
	"podcast-insights-go/internal/types"
)

type fakeResolver struct {
	match *types.EpisodeMatch
	err   error
	calls int
}

func (f *fakeResolver) Resolve(_ context.Context, _, _ string) (*types.EpisodeMatch, error) {
	f.calls++
	return f.match, f.err
}

type fakeFetcher struct {
	snippet  types.AudioSnippet
	err      error
	calls    int
	discards []types.AudioSnippet
}

func (f *fakeFetcher) ExtractSnippet(_ context.Context, _ string, _, _ int) (types.AudioSnippet, error) {
	f.calls++
	return f.snippet, f.err
}

func (f *fakeFetcher) Discard(s types.AudioSnippet) {
	f.discards = append(f.discards, s)
}

type fakeTranscriber struct {
	text  string
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ types.AudioSnippet) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeSummarizer struct {
	bullets types.SummaryBullets
	err     error
	calls   int
	lastTx  string
}

func (f *fakeSummarizer) Summarize(_ context.Context, transcriptText, _ string) (types.SummaryBullets, error) {
	f.calls++
	f.lastTx = transcriptText
	return f.bullets, f.err
}

type recordingSink struct {
	entries []audit.Entry
}

func (r *recordingSink) Record(_ context.Context, e audit.Entry) {
	r.entries = append(r.entries, e)
}

type deps struct {
	resolver    *fakeResolver
	fetcher     *fakeFetcher
	transcriber *fakeTranscriber
	summarizer  *fakeSummarizer
	sink        *recordingSink
}

func newTestPipeline(match *types.EpisodeMatch) (*Pipeline, *deps) {
	d := &deps{
		resolver:    &fakeResolver{match: match},
		fetcher:     &fakeFetcher{snippet: types.AudioSnippet{LocalPath: "/tmp/s.mp3", ByteSize: 500}},
		transcriber: &fakeTranscriber{text: "transcribed words"},
		summarizer:  &fakeSummarizer{bullets: types.SummaryBullets{"a", "b", "c"}},
		sink:        &recordingSink{},
	}
	p := New(d.resolver, d.fetcher, d.transcriber, d.summarizer, d.sink, 30)
	return p, d
}

func ref() types.EpisodeReference {
	return types.EpisodeReference{Title: "Deep Work", ShowName: "Focus FM", TimestampSeconds: 120}
}

func flatMatch(text string) *types.EpisodeMatch {
	return &types.EpisodeMatch{
		ID:                "e1",
		CanonicalTitle:    "Deep Work (remastered)",
		CanonicalShowName: "Focus FM Official",
		AudioURL:          "https://cdn/e1.mp3",
		ThumbnailURL:      "https://cdn/e1.jpg",
		EmbeddedTranscript: &types.TranscriptPayload{
			Kind: types.PayloadFlatText,
			Text: text,
		},
	}
}

func TestRunValidationNoExternalCalls(t *testing.T) {
	p, d := newTestPipeline(nil)
	_, err := p.Run(context.Background(), types.EpisodeReference{Title: "   "})
	if KindOf(err) != KindValidation {
		t.Fatalf("expected validation failure, got %v", err)
	}
	if d.resolver.calls+d.fetcher.calls+d.transcriber.calls+d.summarizer.calls != 0 {
		t.Fatal("validation failure must not reach any external collaborator")
	}
	if len(d.sink.entries) != 0 {
		t.Fatal("validation failure must not emit an audit record")
	}
}

func TestRunEmbeddedTranscriptSkipsAudio(t *testing.T) {
	p, d := newTestPipeline(flatMatch("word " + longText(3000)))
	res, err := p.Run(context.Background(), ref())
	if err != nil {
		t.Fatal(err)
	}
	if d.fetcher.calls != 0 || d.transcriber.calls != 0 {
		t.Fatal("audio path must not run when the embedded transcript yields text")
	}
	if res.Transcript == "" || len(res.Summary) != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := d.sink.entries[0].TranscriptOrigin; got != types.OriginEmbedded {
		t.Fatalf("expected embedded origin, got %q", got)
	}
}

func TestRunNotFoundIsManualMode(t *testing.T) {
	p, d := newTestPipeline(nil)
	res, err := p.Run(context.Background(), ref())
	if err != nil {
		t.Fatal(err)
	}
	if !res.ManualMode {
		t.Fatal("expected manual mode")
	}
	if res.Transcript != "" || res.Summary != nil {
		t.Fatalf("manual mode must carry no transcript or summary: %+v", res)
	}
	if res.EpisodeTitle != "Deep Work" || res.TimestampSeconds != 120 {
		t.Fatalf("manual mode must echo the reference: %+v", res)
	}
	if len(d.sink.entries) != 1 || d.sink.entries[0].Outcome != "not_found" {
		t.Fatalf("expected not_found audit record, got %+v", d.sink.entries)
	}
}

func TestRunResolverTransportError(t *testing.T) {
	p, d := newTestPipeline(nil)
	d.resolver.err = errors.New("dns failure")
	_, err := p.Run(context.Background(), ref())
	if KindOf(err) != KindResolver {
		t.Fatalf("expected resolver kind, got %v", err)
	}
	if d.sink.entries[0].Outcome != "failed" || d.sink.entries[0].ErrorKind != string(KindResolver) {
		t.Fatalf("unexpected audit entry %+v", d.sink.entries[0])
	}
}

func TestRunNoTranscriptNoAudio(t *testing.T) {
	p, _ := newTestPipeline(&types.EpisodeMatch{ID: "e1", CanonicalShowName: "Show"})
	_, err := p.Run(context.Background(), ref())
	if KindOf(err) != KindNoAudio {
		t.Fatalf("expected no-audio kind, got %v", err)
	}
}

func TestRunAudioFallbackWhenSegmenterYieldsNothing(t *testing.T) {
	// unknown payload shape forces the audio path
	match := &types.EpisodeMatch{
		ID:                 "e1",
		AudioURL:           "https://cdn/e1.mp3",
		EmbeddedTranscript: &types.TranscriptPayload{Kind: "mystery"},
	}
	p, d := newTestPipeline(match)
	res, err := p.Run(context.Background(), ref())
	if err != nil {
		t.Fatal(err)
	}
	if d.fetcher.calls != 1 || d.transcriber.calls != 1 {
		t.Fatal("expected audio extraction and transcription")
	}
	if res.Transcript != "transcribed words" {
		t.Fatalf("unexpected transcript %q", res.Transcript)
	}
	if got := d.sink.entries[0].TranscriptOrigin; got != types.OriginTranscribed {
		t.Fatalf("expected transcribed origin, got %q", got)
	}
	if len(d.fetcher.discards) != 1 {
		t.Fatal("snippet must be discarded after transcription")
	}
}

func TestRunSnippetDiscardedOnTranscriptionFailure(t *testing.T) {
	match := &types.EpisodeMatch{ID: "e1", AudioURL: "https://cdn/e1.mp3"}
	p, d := newTestPipeline(match)
	d.transcriber.err = errors.New("service down")
	_, err := p.Run(context.Background(), ref())
	if KindOf(err) != KindTranscription {
		t.Fatalf("expected transcription kind, got %v", err)
	}
	if len(d.fetcher.discards) != 1 {
		t.Fatal("snippet must be discarded even when transcription fails")
	}
	if d.summarizer.calls != 0 {
		t.Fatal("summarizer must not run after a transcription failure")
	}
}

type panickingTranscriber struct{}

func (panickingTranscriber) Transcribe(_ context.Context, _ types.AudioSnippet) (string, error) {
	panic("transcriber blew up")
}

func TestRunSnippetDiscardedOnTranscriberPanic(t *testing.T) {
	// net/http recovers handler panics and keeps serving, so the snippet must
	// already be released by the time the panic unwinds through the pipeline
	match := &types.EpisodeMatch{ID: "e1", AudioURL: "https://cdn/e1.mp3"}
	p, d := newTestPipeline(match)
	p.transcriber = panickingTranscriber{}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected the panic to propagate")
			}
		}()
		p.Run(context.Background(), ref())
	}()

	if len(d.fetcher.discards) != 1 {
		t.Fatal("snippet must be discarded even when the transcriber panics")
	}
}

func TestRunExtractionFailure(t *testing.T) {
	match := &types.EpisodeMatch{ID: "e1", AudioURL: "https://cdn/e1.mp3"}
	p, d := newTestPipeline(match)
	d.fetcher.err = errors.New("yt-dlp exploded")
	_, err := p.Run(context.Background(), ref())
	if KindOf(err) != KindExtraction {
		t.Fatalf("expected extraction kind, got %v", err)
	}
}

func TestRunEmptyTranscriptSkipsSummarizer(t *testing.T) {
	match := &types.EpisodeMatch{ID: "e1", AudioURL: "https://cdn/e1.mp3"}
	p, d := newTestPipeline(match)
	d.transcriber.text = "   "
	_, err := p.Run(context.Background(), ref())
	if KindOf(err) != KindEmptyTranscript {
		t.Fatalf("expected empty-transcript kind, got %v", err)
	}
	if d.summarizer.calls != 0 {
		t.Fatal("summarizer must not be called with a blank transcript")
	}
}

func TestRunSummarizationFailure(t *testing.T) {
	p, d := newTestPipeline(flatMatch(longText(3000)))
	d.summarizer.err = errors.New("model overloaded")
	_, err := p.Run(context.Background(), ref())
	if KindOf(err) != KindSummarization {
		t.Fatalf("expected summarization kind, got %v", err)
	}
}

func TestRunPrefersCallerIdentity(t *testing.T) {
	p, _ := newTestPipeline(flatMatch(longText(3000)))
	res, err := p.Run(context.Background(), ref())
	if err != nil {
		t.Fatal(err)
	}
	if res.EpisodeTitle != "Deep Work" || res.ShowName != "Focus FM" {
		t.Fatalf("caller identity must win: %+v", res)
	}
	if res.ThumbnailURL != "https://cdn/e1.jpg" {
		t.Fatal("resolved thumbnail should still be attached")
	}
}

func TestRunResolvedShowFillsGap(t *testing.T) {
	p, _ := newTestPipeline(flatMatch(longText(3000)))
	r := ref()
	r.ShowName = ""
	res, err := p.Run(context.Background(), r)
	if err != nil {
		t.Fatal(err)
	}
	if res.ShowName != "Focus FM Official" {
		t.Fatalf("expected resolved show name to fill the gap, got %q", res.ShowName)
	}
}

func TestRunAuditedOncePerRun(t *testing.T) {
	p, d := newTestPipeline(flatMatch(longText(3000)))
	for i := 0; i < 3; i++ {
		if _, err := p.Run(context.Background(), ref()); err != nil {
			t.Fatal(err)
		}
	}
	if len(d.sink.entries) != 3 {
		t.Fatalf("expected one audit entry per run, got %d", len(d.sink.entries))
	}
	for _, e := range d.sink.entries {
		if e.Outcome != "done" || e.DurationMs < 0 {
			t.Fatalf("unexpected audit entry %+v", e)
		}
	}
}

func TestNormalizeReference(t *testing.T) {
	got, err := NormalizeReference(types.EpisodeReference{
		Title:            "  Ep ",
		ShowName:         " Show ",
		TimestampSeconds: -4,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Ep" || got.ShowName != "Show" || got.TimestampSeconds != 0 {
		t.Fatalf("unexpected normalization %+v", got)
	}
}

func longText(words int) string {
	out := make([]byte, 0, words*5)
	for i := 0; i < words; i++ {
		out = append(out, []byte("word ")...)
	}
	return string(out)
}
