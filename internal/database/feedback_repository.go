package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/studycore/pkg/models"
)

// FeedbackRepository handles database operations for feedback messages
type FeedbackRepository struct {
	q sqlx.ExtContext
}

// NewFeedbackRepository creates a new repository instance
func NewFeedbackRepository(q sqlx.ExtContext) *FeedbackRepository {
	return &FeedbackRepository{q: q}
}

// Create stores a feedback message
func (r *FeedbackRepository) Create(ctx context.Context, f *models.Feedback) error {
	_, err := exec(ctx, r.q, `
		INSERT INTO feedback (id, name, email, type, message, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.Name, f.Email, f.Type, f.Message, f.UserID, f.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	return nil
}
