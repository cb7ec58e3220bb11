package excel

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/studycore/pkg/models"
)

func TestReadTopicsCSV(t *testing.T) {
	data := "title,subject,description\n" +
		"Renal Physiology,Medicine,Nephron transport\n" +
		",,\n" +
		"Krebs cycle,Biochemistry\n" +
		",Orphan,No title\n"

	rows, err := ReadTopics("topics.csv", strings.NewReader(data), DefaultImportConfig())
	if err != nil {
		t.Fatalf("ReadTopics: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d: %+v", len(rows), rows)
	}
	if rows[0].Title != "Renal Physiology" || rows[0].Subject != "Medicine" || rows[0].Row != 2 {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].Description != "" || rows[1].Row != 4 {
		t.Errorf("row 1 = %+v", rows[1])
	}
	if rows[2].Title != "" || rows[2].Row != 5 {
		t.Errorf("row 2 = %+v", rows[2])
	}
}

func TestReadTopicsXLSX(t *testing.T) {
	f := excelize.NewFile()
	f.SetSheetRow("Sheet1", "A1", &[]interface{}{"title", "subject", "description"})
	f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Action potentials", "Physiology", "Na/K"})
	f.SetSheetRow("Sheet1", "A3", &[]interface{}{"Glycolysis"})
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	rows, err := ReadTopics("Topics.XLSX", bytes.NewReader(buf.Bytes()), DefaultImportConfig())
	if err != nil {
		t.Fatalf("ReadTopics: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Title != "Action potentials" || rows[0].Description != "Na/K" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].Title != "Glycolysis" || rows[1].Subject != "" {
		t.Errorf("row 1 = %+v", rows[1])
	}
}

func TestReadTopicsUnsupported(t *testing.T) {
	if _, err := ReadTopics("notes.txt", strings.NewReader("x"), DefaultImportConfig()); err != ErrUnsupportedFormat {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestExportHistory(t *testing.T) {
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	subject := "Medicine"
	conf := 4
	topics := []models.Topic{{ID: "t1", Title: "Renal Physiology", Subject: &subject, TotalExplains: 1, AvgConfidence: 4, LastExplained: &at, CreatedAt: at}}
	sessions := []models.ExplainSession{{ID: "s1", TopicID: "t1", DurationSeconds: 300, Confidence: &conf, CreatedAt: at}}

	data, err := ExportHistory(topics, sessions, time.UTC)
	if err != nil {
		t.Fatalf("ExportHistory: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != TopicsSheet || sheets[1] != SessionsSheet {
		t.Fatalf("sheets = %v", sheets)
	}
	topicRows, err := f.GetRows(TopicsSheet)
	if err != nil {
		t.Fatalf("topics rows: %v", err)
	}
	if len(topicRows) != 2 || topicRows[1][0] != "Renal Physiology" || topicRows[1][1] != "Medicine" {
		t.Fatalf("topic rows = %v", topicRows)
	}
	sessionRows, err := f.GetRows(SessionsSheet)
	if err != nil {
		t.Fatalf("session rows: %v", err)
	}
	if len(sessionRows) != 2 || sessionRows[1][0] != "Renal Physiology" || sessionRows[1][3] != "4" {
		t.Fatalf("session rows = %v", sessionRows)
	}
}
