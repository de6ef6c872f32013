package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/example/wortbot/pkg/models"
)

// SessionRepository keeps finished game sessions
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new repository instance
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save inserts a finished session
func (r *SessionRepository) Save(ctx context.Context, s *models.GameSession) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	query := r.db.Rebind(`
		INSERT INTO game_sessions (id, user_id, mode, answered, correct, incorrect, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.Mode, s.Answered, s.Correct, s.Incorrect, s.StartedAt.UTC(), s.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save game session: %w", err)
	}
	return nil
}

// ListByUser returns the learner's sessions, first finished first
func (r *SessionRepository) ListByUser(ctx context.Context, userID int64) ([]models.GameSession, error) {
	query := r.db.Rebind(`
		SELECT id, user_id, mode, answered, correct, incorrect, started_at, finished_at
		FROM game_sessions WHERE user_id = ? ORDER BY finished_at`)
	var sessions []models.GameSession
	if err := r.db.SelectContext(ctx, &sessions, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get game sessions: %w", err)
	}
	return sessions, nil
}
