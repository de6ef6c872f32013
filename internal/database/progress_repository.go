package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/wortbot/pkg/models"
)

const progressColumns = `id, user_id, word_id, correct, incorrect, correct_streak,
	last_reviewed, created_at, updated_at`

// ProgressRepository handles database operations for answer counters
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository creates a new repository instance
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// ListByUser returns every progress record of a learner
func (r *ProgressRepository) ListByUser(ctx context.Context, userID int64) ([]models.Progress, error) {
	query := r.db.Rebind(`SELECT ` + progressColumns + ` FROM progress WHERE user_id = ? ORDER BY id`)
	var progress []models.Progress
	if err := r.db.SelectContext(ctx, &progress, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get user progress: %w", err)
	}
	for i := range progress {
		progress[i].Normalize()
	}
	return progress, nil
}

// Get returns the progress of one word
func (r *ProgressRepository) Get(ctx context.Context, userID int64, wordID string) (*models.Progress, error) {
	return r.get(ctx, r.db, userID, wordID)
}

func (r *ProgressRepository) get(ctx context.Context, q sqlx.QueryerContext, userID int64, wordID string) (*models.Progress, error) {
	query := r.db.Rebind(`SELECT ` + progressColumns + ` FROM progress WHERE user_id = ? AND word_id = ?`)
	var p models.Progress
	if err := sqlx.GetContext(ctx, q, &p, query, userID, wordID); err != nil {
		return nil, fmt.Errorf("failed to get user progress: %w", notFound(err))
	}
	p.Normalize()
	return &p, nil
}

// RecordAnswer applies one answer to the word's counters, creating the
// record on first answer, and returns the updated progress
func (r *ProgressRepository) RecordAnswer(ctx context.Context, userID int64, wordID string, correct bool, at time.Time) (models.Progress, error) {
	var out models.Progress
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		p, err := r.get(ctx, tx, userID, wordID)
		switch {
		case errors.Is(err, ErrNotFound):
			p = &models.Progress{UserID: userID, WordID: wordID, CreatedAt: at}
		case err != nil:
			return err
		}

		p.RecordAnswer(correct, at)
		p.UpdatedAt = at

		if p.ID == 0 {
			id, err := insertID(ctx, tx, `
				INSERT INTO progress (user_id, word_id, correct, incorrect, correct_streak,
					last_reviewed, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				p.UserID, p.WordID, p.Correct, p.Incorrect, p.CorrectStreak,
				p.LastReviewed, p.CreatedAt, p.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to create user progress: %w", err)
			}
			p.ID = id
		} else {
			_, err := tx.ExecContext(ctx, tx.Rebind(`
				UPDATE progress SET
					correct = ?, incorrect = ?, correct_streak = ?,
					last_reviewed = ?, updated_at = ?
				WHERE id = ?`),
				p.Correct, p.Incorrect, p.CorrectStreak, p.LastReviewed, p.UpdatedAt, p.ID,
			)
			if err != nil {
				return fmt.Errorf("failed to update user progress: %w", err)
			}
		}
		out = *p
		return nil
	})
	return out, err
}
