package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

// FeedResolver parses a show's RSS feed to find an episode's audio enclosure.
// Used only when the search service has no audio URL for a matched episode.
type FeedResolver struct {
	parser *gofeed.Parser
}

func NewFeedResolver() *FeedResolver {
	return &FeedResolver{parser: gofeed.NewParser()}
}

// EnclosureURL returns the enclosure of the feed item whose title matches
// episodeTitle, falling back to the newest item with an enclosure.
func (f *FeedResolver) EnclosureURL(ctx context.Context, feedURL, episodeTitle string) (string, error) {
	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return "", fmt.Errorf("parse feed: %w", err)
	}
	if feed == nil || len(feed.Items) == 0 {
		return "", fmt.Errorf("feed contains no items")
	}

	want := strings.ToLower(strings.TrimSpace(episodeTitle))
	var fallback string
	for _, item := range feed.Items {
		enclosure := firstEnclosure(item)
		if enclosure == "" {
			continue
		}
		if fallback == "" {
			fallback = enclosure
		}
		have := strings.ToLower(strings.TrimSpace(item.Title))
		if have != "" && (strings.Contains(have, want) || strings.Contains(want, have)) {
			return enclosure, nil
		}
	}
	if fallback == "" {
		return "", fmt.Errorf("no audio enclosures in feed")
	}
	return fallback, nil
}

func firstEnclosure(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}
