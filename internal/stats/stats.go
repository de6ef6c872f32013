package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/wortbot/internal/database"
	"github.com/example/wortbot/internal/logger"
	"github.com/example/wortbot/internal/mastery"
	"github.com/example/wortbot/pkg/models"
)

// DefaultDays is the length of the daily series shown by /stats
const DefaultDays = 7

type WordStore interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Word, error)
}

type ProgressStore interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Progress, error)
}

type DailyStore interface {
	ListSince(ctx context.Context, userID int64, fromDay string) ([]models.DailyStat, error)
	LatestBefore(ctx context.Context, userID int64, day string) (*models.DailyStat, error)
	Snapshot(ctx context.Context, userID int64, day string, mastered int) error
}

// DayPoint is one day of the progress chart
type DayPoint struct {
	Day      string
	Mastered int
	Played   int
}

// Summary is the statistics view of one learner
type Summary struct {
	BaseWords      int
	TotalWords     int // base words plus separable-prefix variants
	Mastered       int
	MasteredByType map[models.WordType]int
	MasteredToday  int
	Daily          []DayPoint
}

// Service computes learner statistics and daily snapshots
type Service struct {
	words    WordStore
	progress ProgressStore
	daily    DailyStore
	criteria mastery.Criteria
	log      *logger.Logger
	now      func() time.Time
}

// NewService creates the statistics service
func NewService(words WordStore, progress ProgressStore, daily DailyStore, criteria mastery.Criteria, log *logger.Logger) *Service {
	return &Service{
		words:    words,
		progress: progress,
		daily:    daily,
		criteria: criteria,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Summary builds the statistics of a learner with a series of the last days
func (s *Service) Summary(ctx context.Context, userID int64, days int) (*Summary, error) {
	if days <= 0 {
		days = DefaultDays
	}
	words, err := s.words.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load words: %w", err)
	}
	progress, err := s.progress.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	sum := &Summary{
		BaseWords:      len(words),
		TotalWords:     len(models.ExpandAll(words)),
		Mastered:       mastery.CountMastered(progress, s.criteria),
		MasteredByType: MasteredByType(words, progress, s.criteria),
	}

	today := s.now().UTC()
	todayKey := models.DayOf(today)
	baseline, err := s.previousMastered(ctx, userID, todayKey)
	if err != nil {
		return nil, err
	}
	sum.MasteredToday = MasteredSince(sum.Mastered, baseline)

	from := today.AddDate(0, 0, -(days - 1))
	rows, err := s.daily.ListSince(ctx, userID, models.DayOf(from))
	if err != nil {
		return nil, fmt.Errorf("failed to load daily stats: %w", err)
	}
	seed, err := s.previousMastered(ctx, userID, models.DayOf(from))
	if err != nil {
		return nil, err
	}
	sum.Daily = Series(rows, from, days, seed)
	if n := len(sum.Daily); n > 0 {
		sum.Daily[n-1].Mastered = sum.Mastered
	}
	return sum, nil
}

func (s *Service) previousMastered(ctx context.Context, userID int64, day string) (int, error) {
	prev, err := s.daily.LatestBefore(ctx, userID, day)
	if errors.Is(err, database.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load previous snapshot: %w", err)
	}
	return prev.MasteredCount, nil
}

// Snapshot stores today's mastered count of a learner
func (s *Service) Snapshot(ctx context.Context, userID int64) error {
	progress, err := s.progress.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}
	mastered := mastery.CountMastered(progress, s.criteria)
	if err := s.daily.Snapshot(ctx, userID, models.DayOf(s.now()), mastered); err != nil {
		return err
	}
	s.log.Debug("daily snapshot stored", "user_id", userID, "mastered", mastered)
	return nil
}

// HasUnmastered reports whether the learner still has words to practise
func (s *Service) HasUnmastered(ctx context.Context, userID int64) (bool, error) {
	words, err := s.words.ListByUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to load words: %w", err)
	}
	if len(words) == 0 {
		return false, nil
	}
	progress, err := s.progress.ListByUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to load progress: %w", err)
	}
	byWord := make(map[string]models.Progress, len(progress))
	for _, p := range progress {
		byWord[p.WordID] = p
	}
	for _, w := range words {
		if !mastery.IsMastered(byWord[w.Key()], s.criteria) {
			return true, nil
		}
	}
	return false, nil
}

// MasteredByType counts mastered base words per grammatical type
func MasteredByType(words []models.Word, progress []models.Progress, c mastery.Criteria) map[models.WordType]int {
	out := make(map[models.WordType]int, len(models.WordTypes))
	for _, t := range models.WordTypes {
		out[t] = 0
	}
	byWord := make(map[string]models.Progress, len(progress))
	for _, p := range progress {
		byWord[p.WordID] = p
	}
	for _, w := range words {
		p, ok := byWord[w.Key()]
		if ok && mastery.IsMastered(p, c) {
			out[models.ParseWordType(string(w.Type))]++
		}
	}
	return out
}

// MasteredSince is the growth over a baseline, never negative
func MasteredSince(current, baseline int) int {
	if current < baseline {
		return 0
	}
	return current - baseline
}

// Series lays rows out over consecutive days starting at from.
// Days without a row repeat the last known mastered count.
func Series(rows []models.DailyStat, from time.Time, days int, seed int) []DayPoint {
	byDay := make(map[string]models.DailyStat, len(rows))
	for _, r := range rows {
		byDay[r.Day] = r
	}
	out := make([]DayPoint, 0, days)
	last := seed
	for i := 0; i < days; i++ {
		day := models.DayOf(from.AddDate(0, 0, i))
		p := DayPoint{Day: day, Mastered: last}
		if r, ok := byDay[day]; ok {
			p.Mastered = r.MasteredCount
			p.Played = r.PlayedCount
			last = r.MasteredCount
		}
		out = append(out, p)
	}
	return out
}
