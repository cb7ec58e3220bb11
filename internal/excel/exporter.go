package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/studycore/pkg/models"
)

const (
	TopicsSheet   = "Topics"
	SessionsSheet = "Sessions"
)

var (
	topicHeader   = []interface{}{"Title", "Subject", "Description", "Total explains", "Average confidence", "Last explained", "Created"}
	sessionHeader = []interface{}{"Topic", "Date", "Duration (s)", "Confidence", "Struggles", "Forgot", "Unclear"}
)

// ExportHistory writes a workbook with one sheet of topics and one sheet of
// explain sessions. Times are rendered in loc.
func ExportHistory(topics []models.Topic, sessions []models.ExplainSession, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", TopicsSheet)
	f.NewSheet(SessionsSheet)

	titles := make(map[string]string, len(topics))
	if err := writeRow(f, TopicsSheet, 1, topicHeader); err != nil {
		return nil, err
	}
	for i, t := range topics {
		titles[t.ID] = t.Title
		row := []interface{}{
			t.Title,
			deref(t.Subject),
			deref(t.Description),
			t.TotalExplains,
			t.AvgConfidence,
			formatTime(t.LastExplained, loc),
			t.CreatedAt.In(loc).Format("2006-01-02 15:04"),
		}
		if err := writeRow(f, TopicsSheet, i+2, row); err != nil {
			return nil, err
		}
	}

	if err := writeRow(f, SessionsSheet, 1, sessionHeader); err != nil {
		return nil, err
	}
	for i, s := range sessions {
		var confidence interface{} = ""
		if s.Confidence != nil {
			confidence = *s.Confidence
		}
		created := s.CreatedAt
		row := []interface{}{
			titles[s.TopicID],
			formatTime(&created, loc),
			s.DurationSeconds,
			confidence,
			deref(s.Struggles),
			deref(s.Forgot),
			deref(s.Unclear),
		}
		if err := writeRow(f, SessionsSheet, i+2, row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cellName, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("invalid row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cellName, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format("2006-01-02 15:04")
}
