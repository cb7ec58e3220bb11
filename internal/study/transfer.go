package study

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/example/studycore/internal/apperr"
	"github.com/example/studycore/internal/excel"
)

// ImportTopics creates topics from an uploaded XLSX or CSV file. Rows
// without a title are reported and skipped.
func (s *Service) ImportTopics(ctx context.Context, userID, filename string, r io.Reader) (*excel.ImportResult, error) {
	rows, err := excel.ReadTopics(filename, r, excel.DefaultImportConfig())
	if errors.Is(err, excel.ErrUnsupportedFormat) {
		return nil, apperr.InvalidInput("%v", err)
	}
	if err != nil {
		return nil, apperr.InvalidInput("could not read file: %v", err)
	}

	result := &excel.ImportResult{Errors: []string{}}
	for _, row := range rows {
		result.TotalProcessed++
		in := TopicInput{Title: row.Title}
		if row.Subject != "" {
			subject := row.Subject
			in.Subject = &subject
		}
		if row.Description != "" {
			description := row.Description
			in.Description = &description
		}

		if _, err := s.createTopic(ctx, s.store.Repos, userID, in); err != nil {
			if apperr.KindOf(err) != apperr.KindInvalidInput {
				return nil, err
			}
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", row.Row, err))
			continue
		}
		result.Created++
	}

	s.log.Info("topics imported",
		"user_id", userID,
		"processed", result.TotalProcessed,
		"created", result.Created,
		"skipped", result.Skipped,
	)
	return result, nil
}

// ExportHistory renders the user's topics and sessions as an XLSX workbook
func (s *Service) ExportHistory(ctx context.Context, userID string) ([]byte, error) {
	topics, err := s.store.Topics.GetAllByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.store.Sessions.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return excel.ExportHistory(topics, sessions, s.loc)
}
