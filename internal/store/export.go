package store

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var exportHeader = []string{"Captured At", "Episode", "Show", "Timestamp", "Takeaways", "Transcript", "Manual"}

// ExportXLSX renders saved insights into a single-sheet workbook, one row per
// insight, newest first.
func ExportXLSX(insights []SavedInsight) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for col, name := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for i, ins := range insights {
		row := i + 2
		values := []any{
			ins.CapturedAt.Format(time.RFC3339),
			ins.EpisodeTitle,
			ins.ShowName,
			formatTimestamp(ins.TimestampSeconds),
			strings.Join(ins.Summary, "\n"),
			ins.Transcript,
			ins.ManualMode,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, fmt.Errorf("row cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf, nil
}

func formatTimestamp(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
