package search

import (
	"context"
	"fmt"
	"strings"

	"podcast-insights-go/internal/logger"
	"podcast-insights-go/internal/types"
)

// ResolverError wraps any transport or service failure during resolution. It
// blocks the whole pipeline, so it is never swallowed.
type ResolverError struct {
	Op  string
	Err error
}

func (e *ResolverError) Error() string {
	return fmt.Sprintf("resolver %s: %v", e.Op, e.Err)
}

func (e *ResolverError) Unwrap() error { return e.Err }

// SearchAPI is the slice of the search service the resolver depends on.
type SearchAPI interface {
	Search(ctx context.Context, query string) ([]Candidate, error)
	Transcript(ctx context.Context, episodeID string) (*types.TranscriptPayload, error)
}

// FeedLookup recovers an audio enclosure URL from an RSS feed when the search
// service has none for a matched episode.
type FeedLookup interface {
	EnclosureURL(ctx context.Context, feedURL, episodeTitle string) (string, error)
}

type Resolver struct {
	api   SearchAPI
	feeds FeedLookup
}

func NewResolver(api SearchAPI, feeds FeedLookup) *Resolver {
	return &Resolver{api: api, feeds: feeds}
}

// Resolve maps a free-text title/show pair to an episode match. A nil match
// with nil error is the legitimate not-found outcome.
func (r *Resolver) Resolve(ctx context.Context, title, showName string) (*types.EpisodeMatch, error) {
	log := logger.Component("resolver").WithField("title", title)

	candidates, err := r.api.Search(ctx, buildQuery(title, showName))
	if err != nil {
		return nil, &ResolverError{Op: "search", Err: err}
	}
	if len(candidates) == 0 {
		log.Info("no catalog match")
		return nil, nil
	}

	chosen := disambiguate(candidates, showName)
	match := &types.EpisodeMatch{
		ID:                chosen.ID,
		CanonicalTitle:    chosen.Title,
		CanonicalShowName: chosen.ShowName,
		AudioURL:          chosen.AudioURL,
		ThumbnailURL:      chosen.ImageURL,
		FeedURL:           chosen.FeedURL,
	}

	if chosen.HasTranscript {
		payload, err := r.api.Transcript(ctx, chosen.ID)
		if err != nil {
			// transcript loss is recoverable via the audio path
			log.WithError(err).Warn("embedded transcript fetch failed")
		} else {
			match.EmbeddedTranscript = payload
		}
	}

	if match.AudioURL == "" && match.FeedURL != "" && r.feeds != nil {
		audioURL, err := r.feeds.EnclosureURL(ctx, match.FeedURL, chosen.Title)
		if err != nil {
			log.WithError(err).Warn("feed enclosure lookup failed")
		} else {
			match.AudioURL = audioURL
		}
	}

	log.WithField("episode_id", match.ID).WithField("show", match.CanonicalShowName).Info("resolved episode")
	return match, nil
}

// buildQuery quotes the show name to bias the search toward it.
func buildQuery(title, showName string) string {
	if strings.TrimSpace(showName) == "" {
		return title
	}
	return fmt.Sprintf("%q %s", showName, title)
}

// disambiguate selects the first candidate whose show name contains, or is
// contained in, the reference show name; otherwise the most relevant result.
func disambiguate(candidates []Candidate, showName string) Candidate {
	want := strings.ToLower(strings.TrimSpace(showName))
	if want == "" {
		return candidates[0]
	}
	for _, c := range candidates {
		have := strings.ToLower(strings.TrimSpace(c.ShowName))
		if have == "" {
			continue
		}
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return c
		}
	}
	return candidates[0]
}
