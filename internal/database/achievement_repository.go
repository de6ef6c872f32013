package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/wortbot/pkg/models"
)

// AchievementRepository stores unlocked achievement ids. Rows are never deleted.
type AchievementRepository struct {
	db *sqlx.DB
}

// NewAchievementRepository creates a new repository instance
func NewAchievementRepository(db *sqlx.DB) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// ListByUser returns unlock records, oldest first
func (r *AchievementRepository) ListByUser(ctx context.Context, userID int64) ([]models.UnlockedAchievement, error) {
	query := r.db.Rebind(`SELECT user_id, achievement_id, unlocked_at FROM achievements
		WHERE user_id = ? ORDER BY unlocked_at, achievement_id`)
	var unlocked []models.UnlockedAchievement
	if err := r.db.SelectContext(ctx, &unlocked, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get achievements: %w", err)
	}
	return unlocked, nil
}

// ListUnlocked returns the unlocked ids
func (r *AchievementRepository) ListUnlocked(ctx context.Context, userID int64) ([]string, error) {
	unlocked, err := r.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(unlocked))
	for i, u := range unlocked {
		ids[i] = u.AchievementID
	}
	return ids, nil
}

// Unlock merges ids into the stored set; existing rows keep their time
func (r *AchievementRepository) Unlock(ctx context.Context, userID int64, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := tx.Rebind(`INSERT INTO achievements (user_id, achievement_id, unlocked_at)
			VALUES (?, ?, ?) ON CONFLICT (user_id, achievement_id) DO NOTHING`)
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, query, userID, id, at.UTC()); err != nil {
				return fmt.Errorf("failed to unlock achievement %s: %w", id, err)
			}
		}
		return nil
	})
}
