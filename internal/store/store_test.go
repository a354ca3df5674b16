package store

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/xuri/excelize/v2"

	"podcast-insights-go/internal/types"
)

func TestRecentStoreEvictsOldest(t *testing.T) {
	s := NewRecentStore(3)
	for i := 0; i < 5; i++ {
		s.Add(types.InsightResult{EpisodeTitle: fmt.Sprintf("ep%d", i)})
	}
	if s.Len() != 3 {
		t.Fatalf("expected capacity 3, got %d", s.Len())
	}
	recent := s.Recent()
	if recent[0].EpisodeTitle != "ep4" || recent[2].EpisodeTitle != "ep2" {
		t.Fatalf("unexpected eviction order: %v", titles(recent))
	}
}

func TestRecentStoreNewestFirst(t *testing.T) {
	s := NewRecentStore(10)
	s.Add(types.InsightResult{EpisodeTitle: "first"})
	s.Add(types.InsightResult{EpisodeTitle: "second"})
	recent := s.Recent()
	if recent[0].EpisodeTitle != "second" || recent[1].EpisodeTitle != "first" {
		t.Fatalf("expected newest first, got %v", titles(recent))
	}
}

func TestExportXLSX(t *testing.T) {
	s := NewRecentStore(10)
	s.Add(types.InsightResult{
		EpisodeTitle:     "Deep Work",
		ShowName:         "Focus FM",
		Summary:          types.SummaryBullets{"a", "b"},
		Transcript:       "some words",
		TimestampSeconds: 125,
	})
	s.Add(types.InsightResult{EpisodeTitle: "Manual One", ManualMode: true})

	buf, err := ExportXLSX(s.Recent())
	if err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][1] != "Episode" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	// newest first
	if rows[1][1] != "Manual One" || rows[2][1] != "Deep Work" {
		t.Fatalf("unexpected row order: %v / %v", rows[1], rows[2])
	}
	if rows[2][3] != "2:05" {
		t.Fatalf("unexpected timestamp format %q", rows[2][3])
	}
}

func titles(items []SavedInsight) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.EpisodeTitle
	}
	return out
}
