package excel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	TitleColumn       string // Column with the topic title
	SubjectColumn     string // Column with the subject tag
	DescriptionColumn string // Column with the description
	SheetName         string // Sheet to read; empty means the first sheet
	StartRow          int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		TitleColumn:       "A",
		SubjectColumn:     "B",
		DescriptionColumn: "C",
		StartRow:          2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int      `json:"processed"`
	Created        int      `json:"created"`
	Skipped        int      `json:"skipped"`
	Errors         []string `json:"errors"`
}

// TopicRow is one data row read from an import file
type TopicRow struct {
	Row         int // 1-based row number in the file
	Title       string
	Subject     string
	Description string
}

// ErrUnsupportedFormat is returned for files that are neither XLSX nor CSV
var ErrUnsupportedFormat = errors.New("unsupported file format, use .xlsx or .csv")

// ReadTopics reads topic rows from an Excel or CSV file. The format is
// chosen by the file name extension.
func ReadTopics(filename string, r io.Reader, config ImportConfig) ([]TopicRow, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return readFromCSV(r, config)
	case ".xlsx", ".xlsm":
		return readFromExcel(r, config)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// readFromExcel reads rows from the configured sheet of a workbook
func readFromExcel(r io.Reader, config ImportConfig) ([]TopicRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := config.SheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	var out []TopicRow
	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 {
			continue
		}
		if isBlank(row) {
			continue
		}
		out = append(out, extractRow(row, config, i+1))
	}
	return out, nil
}

// readFromCSV reads rows from a CSV stream
func readFromCSV(r io.Reader, config ImportConfig) ([]TopicRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var out []TopicRow
	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rowNum++

		if rowNum < config.StartRow {
			continue
		}
		if isBlank(row) {
			continue
		}
		out = append(out, extractRow(row, config, rowNum))
	}
	return out, nil
}

func extractRow(row []string, config ImportConfig, rowNum int) TopicRow {
	return TopicRow{
		Row:         rowNum,
		Title:       cell(row, config.TitleColumn),
		Subject:     cell(row, config.SubjectColumn),
		Description: cell(row, config.DescriptionColumn),
	}
}

func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
