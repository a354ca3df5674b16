package summarizer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"podcast-insights-go/internal/logger"
	"podcast-insights-go/internal/types"
)

const maxBullets = 3

// bulletMarker matches a leading hyphen/bullet/asterisk or a numbered-list
// marker followed by whitespace.
var bulletMarker = regexp.MustCompile(`^\s*(?:[-•*]|\d+[.)])\s+`)

// Completer is the language-model capability the summarizer depends on.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Summarizer struct {
	llm Completer
}

func New(llm Completer) *Summarizer {
	return &Summarizer{llm: llm}
}

// Summarize condenses a transcript window into one to three bullet takeaways.
// Formatting drift in the model output does not hard-fail: if no bullets can be
// parsed from a non-blank response, the whole trimmed response becomes a single
// bullet. Only a blank completion is an error.
func (s *Summarizer) Summarize(ctx context.Context, transcriptText, episodeTitle string) (types.SummaryBullets, error) {
	raw, err := s.llm.Complete(ctx, buildPrompt(transcriptText, episodeTitle))
	if err != nil {
		return nil, err
	}
	bullets := ParseBullets(raw)
	if len(bullets) == 0 {
		// a blank completion must not produce a result with zero takeaways
		return nil, &SummarizationError{Detail: "model returned an empty completion"}
	}
	logger.Component("summarizer").WithField("bullets", len(bullets)).Info("summary produced")
	return bullets, nil
}

func buildPrompt(transcriptText, episodeTitle string) string {
	return fmt.Sprintf(`You are a note-taking assistant for podcast listeners.

From the transcript excerpt below (episode: %q), produce EXACTLY three bullet
points. Each bullet must be a single actionable or insightful takeaway, at most
100 characters, starting with "- ". Return only the three bullets, nothing else.

Transcript excerpt:
"""%s"""
`, episodeTitle, transcriptText)
}

// ParseBullets extracts up to three marker-prefixed lines from free-text model
// output, stripping markers and dropping blanks. If nothing survives the
// filter, the entire trimmed response is returned as a one-element list.
func ParseBullets(raw string) types.SummaryBullets {
	var bullets types.SummaryBullets
	for _, line := range strings.Split(raw, "\n") {
		if !bulletMarker.MatchString(line) {
			continue
		}
		text := strings.TrimSpace(bulletMarker.ReplaceAllString(line, ""))
		if text == "" {
			continue
		}
		bullets = append(bullets, text)
		if len(bullets) == maxBullets {
			break
		}
	}
	if len(bullets) == 0 {
		if whole := strings.TrimSpace(raw); whole != "" {
			return types.SummaryBullets{whole}
		}
		return nil
	}
	return bullets
}
