package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"podcast-insights-go/internal/logger"
	"podcast-insights-go/internal/types"
)

// Some podcast hosts return an HTML error page with a 200 status to clients
// they do not recognize, so downloads carry a browser-like user agent and every
// produced file is gated on a minimum size.
const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

const (
	contextLeadSeconds = 5
	contextPadSeconds  = 10
)

// ExtractionError tags which stage of audio extraction failed.
type ExtractionError struct {
	Stage string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("audio extraction (%s): %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Options configures a Fetcher.
type Options struct {
	TempDir          string
	DownloaderBinary string
	TranscoderBinary string
	DownloadTimeout  time.Duration
	TrimTimeout      time.Duration
	MinBytes         int64
	// DirectRange trims straight from the remote URL instead of downloading the
	// whole episode first. Cheaper on bandwidth, but depends on the host
	// honoring seek semantics.
	DirectRange bool
}

// Fetcher obtains a local, trimmed audio snippet from a remote episode URL by
// orchestrating the downloader and transcoder subprocesses.
type Fetcher struct {
	exec CommandExecutor
	opts Options
}

func NewFetcher(exec CommandExecutor, opts Options) *Fetcher {
	if opts.DownloaderBinary == "" {
		opts.DownloaderBinary = "yt-dlp"
	}
	if opts.TranscoderBinary == "" {
		opts.TranscoderBinary = "ffmpeg"
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if opts.DownloadTimeout == 0 {
		opts.DownloadTimeout = 5 * time.Minute
	}
	if opts.TrimTimeout == 0 {
		opts.TrimTimeout = time.Minute
	}
	if opts.MinBytes == 0 {
		opts.MinBytes = 10 * 1024
	}
	return &Fetcher{exec: exec, opts: opts}
}

// ExtractSnippet cuts the window around timestampSeconds out of the remote
// episode. On any failure every file created for this run is removed before
// the error surfaces.
func (f *Fetcher) ExtractSnippet(ctx context.Context, audioURL string, timestampSeconds, windowSeconds int) (types.AudioSnippet, error) {
	start := timestampSeconds - contextLeadSeconds
	if start < 0 {
		start = 0
	}
	duration := windowSeconds + contextPadSeconds

	// per-run unique names so concurrent runs never touch each other's files
	base := filepath.Join(f.opts.TempDir, fmt.Sprintf("snippet-%d-%s", time.Now().UnixNano(), uuid.NewString()[:8]))
	snippetPath := base + ".mp3"

	log := logger.Component("audio").WithField("audio_url", audioURL).WithField("start", start).WithField("duration", duration)

	if f.opts.DirectRange {
		if err := f.trimRemote(ctx, audioURL, snippetPath, start, duration); err != nil {
			removeIfExists(snippetPath)
			return types.AudioSnippet{}, err
		}
	} else {
		fullPath := base + "-full.mp3"
		if err := f.download(ctx, audioURL, fullPath); err != nil {
			removeIfExists(fullPath)
			return types.AudioSnippet{}, err
		}
		if err := f.trimLocal(ctx, fullPath, snippetPath, start, duration); err != nil {
			removeIfExists(fullPath)
			removeIfExists(snippetPath)
			return types.AudioSnippet{}, err
		}
		// the full-length intermediate is never needed again
		removeIfExists(fullPath)
	}

	size, err := verifySize(snippetPath, f.opts.MinBytes)
	if err != nil {
		removeIfExists(snippetPath)
		return types.AudioSnippet{}, &ExtractionError{Stage: "verify", Err: err}
	}

	log.WithField("snippet", snippetPath).WithField("bytes", size).Info("snippet extracted")
	return types.AudioSnippet{
		LocalPath:          snippetPath,
		StartOffsetSeconds: start,
		DurationSeconds:    duration,
		ByteSize:           size,
	}, nil
}

// Discard releases a snippet's file. Safe to call on an already-removed path.
func (f *Fetcher) Discard(snippet types.AudioSnippet) {
	removeIfExists(snippet.LocalPath)
}

func (f *Fetcher) download(ctx context.Context, audioURL, dest string) error {
	args := []string{
		"--no-playlist",
		"--user-agent", browserUserAgent,
		"-x", "--audio-format", "mp3",
		"-o", dest,
		audioURL,
	}
	if _, err := f.exec.Run(ctx, f.opts.DownloadTimeout, f.opts.DownloaderBinary, args...); err != nil {
		return &ExtractionError{Stage: "download", Err: err}
	}
	if _, err := verifySize(dest, f.opts.MinBytes); err != nil {
		return &ExtractionError{Stage: "download", Err: err}
	}
	return nil
}

func (f *Fetcher) trimLocal(ctx context.Context, src, dest string, start, duration int) error {
	args := []string{
		"-y",
		"-ss", strconv.Itoa(start),
		"-t", strconv.Itoa(duration),
		"-i", src,
		"-acodec", "libmp3lame", "-b:a", "64k",
		dest,
	}
	if _, err := f.exec.Run(ctx, f.opts.TrimTimeout, f.opts.TranscoderBinary, args...); err != nil {
		return &ExtractionError{Stage: "trim", Err: err}
	}
	return nil
}

func (f *Fetcher) trimRemote(ctx context.Context, audioURL, dest string, start, duration int) error {
	args := []string{
		"-y",
		"-user_agent", browserUserAgent,
		"-ss", strconv.Itoa(start),
		"-t", strconv.Itoa(duration),
		"-i", audioURL,
		"-acodec", "libmp3lame", "-b:a", "64k",
		dest,
	}
	if _, err := f.exec.Run(ctx, f.opts.TrimTimeout, f.opts.TranscoderBinary, args...); err != nil {
		return &ExtractionError{Stage: "ranged-trim", Err: err}
	}
	return nil
}

// verifySize guards against hosts that return an error page as a 200: a file
// below the threshold is a failure even when the subprocess exited cleanly.
func verifySize(path string, min int64) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("output missing: %w", err)
	}
	if info.Size() < min {
		return 0, fmt.Errorf("output undersized: %d bytes (min %d)", info.Size(), min)
	}
	return info.Size(), nil
}

func removeIfExists(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Component("audio").WithError(err).WithField("path", path).Warn("temp file removal failed")
	}
}
