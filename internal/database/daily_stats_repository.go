package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/wortbot/pkg/models"
)

const dailyStatColumns = `id, user_id, day, mastered_count, played_count, updated_at`

// DailyStatsRepository stores one activity/mastery row per learner and day
type DailyStatsRepository struct {
	db *sqlx.DB
}

// NewDailyStatsRepository creates a new repository instance
func NewDailyStatsRepository(db *sqlx.DB) *DailyStatsRepository {
	return &DailyStatsRepository{db: db}
}

// ListByUser returns all rows of a learner, oldest day first
func (r *DailyStatsRepository) ListByUser(ctx context.Context, userID int64) ([]models.DailyStat, error) {
	query := r.db.Rebind(`SELECT ` + dailyStatColumns + ` FROM daily_stats WHERE user_id = ? ORDER BY day`)
	var stats []models.DailyStat
	if err := r.db.SelectContext(ctx, &stats, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get daily stats: %w", err)
	}
	return stats, nil
}

// ListSince returns the rows from the given day on, oldest first
func (r *DailyStatsRepository) ListSince(ctx context.Context, userID int64, fromDay string) ([]models.DailyStat, error) {
	query := r.db.Rebind(`SELECT ` + dailyStatColumns + ` FROM daily_stats WHERE user_id = ? AND day >= ? ORDER BY day`)
	var stats []models.DailyStat
	if err := r.db.SelectContext(ctx, &stats, query, userID, fromDay); err != nil {
		return nil, fmt.Errorf("failed to get daily stats: %w", err)
	}
	return stats, nil
}

// LatestBefore returns the most recent row dated strictly before day
func (r *DailyStatsRepository) LatestBefore(ctx context.Context, userID int64, day string) (*models.DailyStat, error) {
	query := r.db.Rebind(`SELECT ` + dailyStatColumns + ` FROM daily_stats
		WHERE user_id = ? AND day < ? ORDER BY day DESC LIMIT 1`)
	var st models.DailyStat
	if err := r.db.GetContext(ctx, &st, query, userID, day); err != nil {
		return nil, fmt.Errorf("failed to get previous snapshot: %w", notFound(err))
	}
	return &st, nil
}

// RecordActivity counts one play on day and stores the live mastered count
func (r *DailyStatsRepository) RecordActivity(ctx context.Context, userID int64, day string, mastered int) error {
	return r.upsert(ctx, `
		INSERT INTO daily_stats (user_id, day, mastered_count, played_count, updated_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT (user_id, day) DO UPDATE SET
			mastered_count = excluded.mastered_count,
			played_count = daily_stats.played_count + 1,
			updated_at = excluded.updated_at`,
		userID, day, mastered)
}

// Snapshot writes the mastered count of day without counting a play
func (r *DailyStatsRepository) Snapshot(ctx context.Context, userID int64, day string, mastered int) error {
	return r.upsert(ctx, `
		INSERT INTO daily_stats (user_id, day, mastered_count, played_count, updated_at)
		VALUES (?, ?, ?, 0, ?)
		ON CONFLICT (user_id, day) DO UPDATE SET
			mastered_count = excluded.mastered_count,
			updated_at = excluded.updated_at`,
		userID, day, mastered)
}

func (r *DailyStatsRepository) upsert(ctx context.Context, query string, userID int64, day string, mastered int) error {
	if _, err := time.Parse(models.DayLayout, day); err != nil {
		return fmt.Errorf("invalid day %q: %w", day, err)
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(query), userID, day, mastered, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save daily stats: %w", err)
	}
	return nil
}
