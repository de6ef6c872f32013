package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wortbot/internal/database"
	"github.com/example/wortbot/internal/logger"
	"github.com/example/wortbot/internal/mastery"
	"github.com/example/wortbot/pkg/models"
)

func TestMasteredSince(t *testing.T) {
	assert.Equal(t, 3, MasteredSince(10, 7))
	assert.Equal(t, 0, MasteredSince(5, 7))
	assert.Equal(t, 4, MasteredSince(4, 0))
}

func TestSeriesCarriesForward(t *testing.T) {
	from := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rows := []models.DailyStat{
		{Day: "2024-05-02", MasteredCount: 4, PlayedCount: 7},
		{Day: "2024-05-04", MasteredCount: 6, PlayedCount: 2},
	}
	got := Series(rows, from, 5, 3)
	assert.Equal(t, []DayPoint{
		{Day: "2024-05-01", Mastered: 3},
		{Day: "2024-05-02", Mastered: 4, Played: 7},
		{Day: "2024-05-03", Mastered: 4},
		{Day: "2024-05-04", Mastered: 6, Played: 2},
		{Day: "2024-05-05", Mastered: 6},
	}, got)
}

func TestMasteredByType(t *testing.T) {
	words := []models.Word{
		{ID: 1, Type: models.TypeNoun},
		{ID: 2, Type: models.TypeVerb},
		{ID: 3, Type: models.TypeVerb},
	}
	progress := []models.Progress{
		{WordID: "1", Correct: 4, CorrectStreak: 4},
		{WordID: "2", Correct: 5},
		{WordID: "3", Correct: 1, Incorrect: 1},
		{WordID: "99", Correct: 9, CorrectStreak: 9},
	}
	got := MasteredByType(words, progress, mastery.DefaultCriteria())
	assert.Equal(t, 1, got[models.TypeNoun])
	assert.Equal(t, 1, got[models.TypeVerb])
	assert.Equal(t, 0, got[models.TypePreposition])
	assert.Len(t, got, len(models.WordTypes))
}

func TestSummaryAgainstDatabase(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	words := database.NewWordRepository(db)
	progress := database.NewProgressRepository(db)
	daily := database.NewDailyStatsRepository(db)
	svc := NewService(words, progress, daily, mastery.DefaultCriteria(), logger.Nop())
	now := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	verb := &models.Word{UserID: 1, German: "kommen", Spanish: "venir", Type: models.TypeVerb,
		Prefixes: models.SeparablePrefixes{{Prefix: "an", Meaning: "llegar"}, {Prefix: "mit", Meaning: "acompañar"}}}
	noun := &models.Word{UserID: 1, German: "Haus", Spanish: "casa", Type: models.TypeNoun}
	require.NoError(t, words.Create(ctx, verb))
	require.NoError(t, words.Create(ctx, noun))

	has, err := svc.HasUnmastered(ctx, 1)
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, daily.Snapshot(ctx, 1, "2024-05-08", 0))
	for i := 0; i < 4; i++ {
		_, err := progress.RecordAnswer(ctx, 1, verb.Key(), true, now)
		require.NoError(t, err)
	}

	sum, err := svc.Summary(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.BaseWords)
	assert.Equal(t, 4, sum.TotalWords)
	assert.Equal(t, 1, sum.Mastered)
	assert.Equal(t, 1, sum.MasteredToday)
	assert.Equal(t, 1, sum.MasteredByType[models.TypeVerb])
	require.Len(t, sum.Daily, 3)
	assert.Equal(t, "2024-05-08", sum.Daily[0].Day)
	assert.Equal(t, 1, sum.Daily[2].Mastered)

	require.NoError(t, svc.Snapshot(ctx, 1))
	rows, err := daily.ListSince(ctx, 1, "2024-05-10")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].MasteredCount)

	// the snapshot is today's row, so the baseline is still the 8th
	sum, err = svc.Summary(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.MasteredToday)
}

func TestSnapshotDayIsUTC(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	daily := database.NewDailyStatsRepository(db)
	svc := NewService(database.NewWordRepository(db), database.NewProgressRepository(db), daily,
		mastery.DefaultCriteria(), logger.Nop())
	assert.Equal(t, time.UTC, svc.now().Location())

	// 23:55 UTC on the 10th is still the evening of the 10th in Mexico City
	svc.now = func() time.Time {
		return time.Date(2024, 5, 10, 23, 55, 0, 0, time.UTC).In(time.FixedZone("CST", -6*3600))
	}
	require.NoError(t, svc.Snapshot(ctx, 1))
	rows, err := daily.ListSince(ctx, 1, "2024-05-01")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-05-10", rows[0].Day)

	// and 01:00 on the 11th in Berlin is the 10th in UTC
	svc.now = func() time.Time {
		return time.Date(2024, 5, 11, 1, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	}
	sum, err := svc.Summary(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, sum.Daily, 2)
	assert.Equal(t, "2024-05-10", sum.Daily[1].Day)
}
