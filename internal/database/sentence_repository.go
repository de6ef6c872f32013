package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/wortbot/pkg/models"
)

// SentenceRepository handles database operations for sentence attempts
type SentenceRepository struct {
	db *sqlx.DB
}

// NewSentenceRepository creates a new repository instance
func NewSentenceRepository(db *sqlx.DB) *SentenceRepository {
	return &SentenceRepository{db: db}
}

// ListByUser returns the learner's attempts in chronological order
func (r *SentenceRepository) ListByUser(ctx context.Context, userID int64) ([]models.SentenceAttempt, error) {
	query := r.db.Rebind(`
		SELECT id, user_id, sentence, ideal_translation, user_translation, score, feedback, created_at
		FROM sentence_attempts WHERE user_id = ? ORDER BY created_at, id`)
	var attempts []models.SentenceAttempt
	if err := r.db.SelectContext(ctx, &attempts, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get sentence attempts: %w", err)
	}
	return attempts, nil
}

// Create records a scored attempt
func (r *SentenceRepository) Create(ctx context.Context, a *models.SentenceAttempt) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	id, err := insertID(ctx, r.db, `
		INSERT INTO sentence_attempts (user_id, sentence, ideal_translation, user_translation, score, feedback, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, a.Sentence, a.IdealTranslation, a.UserTranslation, a.Score, a.Feedback, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create sentence attempt: %w", err)
	}
	a.ID = id
	return nil
}
