package database

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wortbot/pkg/models"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open(driverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, Migrate(db))
}

func TestWordRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewWordRepository(newTestDB(t))

	w := &models.Word{
		UserID: 1, German: "kommen", Spanish: "venir", Type: models.TypeVerb, Difficulty: 9,
		Prefixes: models.SeparablePrefixes{{Prefix: "an", Meaning: "llegar"}},
	}
	require.NoError(t, repo.Create(ctx, w))
	require.NotZero(t, w.ID)
	assert.Equal(t, 5, w.Difficulty)

	got, err := repo.GetByID(ctx, 1, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "kommen", got.German)
	assert.Equal(t, models.TypeVerb, got.Type)
	assert.Equal(t, w.Prefixes, got.Prefixes)

	_, err = repo.GetByID(ctx, 2, w.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	found, err := repo.FindByKey(ctx, 1, " Kommen ", models.TypeVerb)
	require.NoError(t, err)
	assert.Equal(t, w.ID, found.ID)

	got.Spanish = "llegar a venir"
	require.NoError(t, repo.Update(ctx, got))
	words, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, "llegar a venir", words[0].Spanish)

	n, err := repo.CountByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, repo.Delete(ctx, 1, w.ID))
	assert.ErrorIs(t, repo.Delete(ctx, 1, w.ID), ErrNotFound)
}

func TestWordDeleteRemovesProgress(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	words := NewWordRepository(db)
	progress := NewProgressRepository(db)

	w := &models.Word{UserID: 1, German: "Haus", Spanish: "casa", Type: models.TypeNoun}
	require.NoError(t, words.Create(ctx, w))
	_, err := progress.RecordAnswer(ctx, 1, w.Key(), true, time.Now())
	require.NoError(t, err)

	require.NoError(t, words.Delete(ctx, 1, w.ID))
	_, err = progress.Get(ctx, 1, w.Key())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProgressRecordAnswer(t *testing.T) {
	ctx := context.Background()
	repo := NewProgressRepository(newTestDB(t))
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	p, err := repo.RecordAnswer(ctx, 1, "7", true, at)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Correct)
	assert.Equal(t, 1, p.CorrectStreak)
	require.NotNil(t, p.LastReviewed)

	_, err = repo.RecordAnswer(ctx, 1, "7", true, at)
	require.NoError(t, err)
	p, err = repo.RecordAnswer(ctx, 1, "7", false, at)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Correct)
	assert.Equal(t, 1, p.Incorrect)
	assert.Equal(t, 0, p.CorrectStreak)

	list, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "7", list[0].WordID)

	other, err := repo.ListByUser(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	require.NoError(t, repo.Upsert(ctx, &models.User{ID: 10, Username: "anna", NotificationEnabled: true, NotificationHour: 9}))
	require.NoError(t, repo.Upsert(ctx, &models.User{ID: 11, Username: "ben", NotificationEnabled: true, NotificationHour: 9}))
	require.NoError(t, repo.Upsert(ctx, &models.User{ID: 10, Username: "anna_k", NotificationHour: 20}))

	u, err := repo.GetByID(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "anna_k", u.Username)
	assert.Equal(t, 9, u.NotificationHour)
	assert.True(t, u.NotificationEnabled)

	require.NoError(t, repo.SetDisplayName(ctx, 10, "Anna"))
	require.NoError(t, repo.SetDisplayName(ctx, 11, "Annabel"))
	assert.Error(t, repo.SetDisplayName(ctx, 11, "ANNA"))

	found, err := repo.FindByDisplayName(ctx, "aNNa")
	require.NoError(t, err)
	assert.Equal(t, int64(10), found.ID)

	res, err := repo.SearchByDisplayName(ctx, "ann", 10)
	require.NoError(t, err)
	assert.Len(t, res, 2)
	res, err = repo.SearchByDisplayName(ctx, "anna%", 10)
	require.NoError(t, err)
	assert.Empty(t, res)

	require.NoError(t, repo.UpdateNotifications(ctx, 11, false, 9))
	due, err := repo.GetUsersForNotification(ctx, 9)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, int64(10), due[0].ID)

	_, err = repo.GetByID(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCategoryRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewCategoryRepository(db)
	words := NewWordRepository(db)

	c, err := repo.GetOrCreate(ctx, 1, " Reisen ")
	require.NoError(t, err)
	again, err := repo.GetOrCreate(ctx, 1, "Reisen")
	require.NoError(t, err)
	assert.Equal(t, c.ID, again.ID)

	w := &models.Word{UserID: 1, German: "Zug", Spanish: "tren", Type: models.TypeNoun, CategoryID: c.ID}
	require.NoError(t, words.Create(ctx, w))

	require.NoError(t, repo.Delete(ctx, 1, c.ID))
	list, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)

	got, err := words.GetByID(ctx, 1, w.ID)
	require.NoError(t, err)
	assert.Zero(t, got.CategoryID)
}

func TestDailyStatsUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewDailyStatsRepository(newTestDB(t))

	require.NoError(t, repo.Snapshot(ctx, 1, "2024-05-01", 3))
	require.NoError(t, repo.RecordActivity(ctx, 1, "2024-05-02", 4))
	require.NoError(t, repo.RecordActivity(ctx, 1, "2024-05-02", 5))
	require.NoError(t, repo.Snapshot(ctx, 1, "2024-05-02", 6))
	assert.Error(t, repo.Snapshot(ctx, 1, "yesterday", 1))

	stats, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, 0, stats[0].PlayedCount)
	assert.Equal(t, 2, stats[1].PlayedCount)
	assert.Equal(t, 6, stats[1].MasteredCount)

	prev, err := repo.LatestBefore(ctx, 1, "2024-05-02")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", prev.Day)

	_, err = repo.LatestBefore(ctx, 1, "2024-05-01")
	assert.ErrorIs(t, err, ErrNotFound)

	since, err := repo.ListSince(ctx, 1, "2024-05-02")
	require.NoError(t, err)
	assert.Len(t, since, 1)
}

func TestSentenceAndSessionRepositories(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	sentences := NewSentenceRepository(db)
	sessions := NewSessionRepository(db)

	a := &models.SentenceAttempt{UserID: 1, Sentence: "Der Zug kommt.", Score: 9}
	require.NoError(t, sentences.Create(ctx, a))
	assert.NotZero(t, a.ID)
	list, err := sentences.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 9, list[0].Score)

	now := time.Now()
	gs := &models.GameSession{UserID: 1, Mode: "smart", Answered: 3, Correct: 3, StartedAt: now, FinishedAt: now}
	require.NoError(t, sessions.Save(ctx, gs))
	assert.NotEmpty(t, gs.ID)
	stored, err := sessions.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 3, stored[0].Correct)
}

func TestAchievementUnlockNeverRemoves(t *testing.T) {
	ctx := context.Background()
	repo := NewAchievementRepository(newTestDB(t))
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Unlock(ctx, 1, []string{"first_word"}, t0))
	require.NoError(t, repo.Unlock(ctx, 1, []string{"first_word", "friend_1"}, t0.Add(time.Hour)))
	require.NoError(t, repo.Unlock(ctx, 1, nil, t0))

	ids, err := repo.ListUnlocked(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"first_word", "friend_1"}, ids)

	recs, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	assert.True(t, recs[0].UnlockedAt.Equal(t0))
}

func TestFriendRepositoryAccept(t *testing.T) {
	ctx := context.Background()
	repo := NewFriendRepository(newTestDB(t))
	now := time.Now()

	req := &models.FriendRequest{ID: "r1", FromID: 1, FromDisplayName: "Anna", ToID: 2, ToDisplayName: "Ben",
		Status: models.RequestPending, CreatedAt: now}
	require.NoError(t, repo.CreateRequest(ctx, req))

	pending, err := repo.PendingFor(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	found, err := repo.FindRequest(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "r1", found.ID)

	require.NoError(t, repo.Accept(ctx, req, now))
	assert.ErrorIs(t, repo.Accept(ctx, req, now), ErrNotFound)

	for _, pair := range [][2]int64{{1, 2}, {2, 1}} {
		ok, err := repo.AreFriends(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, ok)
	}
	friends, err := repo.ListByUser(ctx, 2)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "Anna", friends[0].DisplayName)

	pending, err = repo.PendingFor(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, repo.Remove(ctx, 2, 1))
	ok, err := repo.AreFriends(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = repo.GetRequest(ctx, "r1")
	assert.ErrorIs(t, err, ErrNotFound)
}
