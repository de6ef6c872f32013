package game

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wortbot/internal/logger"
	"github.com/example/wortbot/internal/mastery"
	"github.com/example/wortbot/pkg/models"
)

type memStore struct {
	mu       sync.Mutex
	words    []models.Word
	progress map[string]models.Progress
	activity map[string]int
	sessions []models.GameSession
}

func newMemStore(words ...models.Word) *memStore {
	return &memStore{
		words:    words,
		progress: map[string]models.Progress{},
		activity: map[string]int{},
	}
}

type memWords struct{ *memStore }

func (m memWords) ListByUser(_ context.Context, _ int64) ([]models.Word, error) {
	return m.words, nil
}

type memProgress struct{ *memStore }

func (m memProgress) ListByUser(_ context.Context, _ int64) ([]models.Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Progress
	for _, p := range m.progress {
		out = append(out, p)
	}
	return out, nil
}

func (m memProgress) RecordAnswer(_ context.Context, userID int64, wordID string, correct bool, at time.Time) (models.Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.progress[wordID]
	p.UserID = userID
	p.WordID = wordID
	p.RecordAnswer(correct, at)
	m.progress[wordID] = p
	return p, nil
}

func (m *memStore) RecordActivity(_ context.Context, _ int64, day string, mastered int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activity[day] = mastered
	return nil
}

func (m *memStore) Save(_ context.Context, s *models.GameSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = append(m.sessions, *s)
	return nil
}

type countingChecker struct{ calls int }

func (c *countingChecker) CheckAndNotify(context.Context, int64) { c.calls++ }

func newTestService(store *memStore, checker AchievementChecker) *Service {
	svc := NewService(Stores{
		Words:    memWords{store},
		Progress: memProgress{store},
		Activity: store,
		Sessions: store,
	}, checker, mastery.DefaultCriteria(), DefaultSmartWeights(), logger.Nop())
	svc.now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }
	svc.newSource = func() rand.Source { return rand.NewSource(1) }
	return svc
}

func TestServiceNoSession(t *testing.T) {
	svc := newTestService(newMemStore(), nil)
	_, err := svc.Next(1)
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = svc.Answer(context.Background(), 1, true)
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = svc.Stop(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestServiceEmptyPool(t *testing.T) {
	svc := newTestService(newMemStore(models.Word{ID: 1, Type: models.TypeNoun}), nil)
	_, err := svc.Start(context.Background(), 1, ModeRandom, Filter{Type: models.TypeVerb})
	assert.ErrorIs(t, err, ErrEmptyPool)
}

func TestServiceAnswerBeforeDraw(t *testing.T) {
	svc := newTestService(newMemStore(models.Word{ID: 1}), nil)
	_, err := svc.Start(context.Background(), 1, ModeRandom, Filter{})
	require.NoError(t, err)
	_, err = svc.Answer(context.Background(), 1, true)
	assert.ErrorIs(t, err, ErrNoCard)
}

func TestServiceAnswersEachCardOnce(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(models.Word{ID: 5, German: "Tisch", Type: models.TypeNoun})
	checker := &countingChecker{}
	svc := newTestService(store, checker)

	_, err := svc.Start(ctx, 1, ModeRandom, Filter{})
	require.NoError(t, err)
	_, err = svc.Next(1)
	require.NoError(t, err)

	_, err = svc.Answer(ctx, 1, true)
	require.NoError(t, err)
	_, err = svc.Answer(ctx, 1, true)
	assert.ErrorIs(t, err, ErrNoCard)

	p := store.progress["5"]
	assert.Equal(t, 1, p.Correct)
	assert.Equal(t, 1, p.CorrectStreak)
	assert.Equal(t, 1, checker.calls)

	summary, err := svc.Stop(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Answered)
}

func TestServiceAnswerTurnRejectsStaleCard(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(models.Word{ID: 5, German: "Tisch"})
	svc := newTestService(store, nil)

	_, err := svc.Start(ctx, 1, ModeRandom, Filter{})
	require.NoError(t, err)
	first, err := svc.Next(1)
	require.NoError(t, err)
	_, err = svc.AnswerTurn(ctx, 1, first.Turn, true)
	require.NoError(t, err)

	second, err := svc.Next(1)
	require.NoError(t, err)
	assert.Equal(t, first.Turn+1, second.Turn)

	_, err = svc.AnswerTurn(ctx, 1, first.Turn, true)
	assert.ErrorIs(t, err, ErrNoCard)
	_, err = svc.AnswerTurn(ctx, 1, second.Turn, false)
	require.NoError(t, err)

	p := store.progress["5"]
	assert.Equal(t, 1, p.Correct)
	assert.Equal(t, 1, p.Incorrect)
}

func TestServiceDerivedAnswerWritesBaseProgress(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(models.Word{
		ID: 7, German: "kommen", Type: models.TypeVerb,
		Prefixes: models.SeparablePrefixes{{Prefix: "an", Meaning: "llegar"}},
	})
	checker := &countingChecker{}
	svc := newTestService(store, checker)

	_, err := svc.Start(ctx, 1, ModeReview, Filter{})
	require.NoError(t, err)

	var last AnswerResult
	for i := 0; i < 2; i++ {
		_, err := svc.Next(1)
		require.NoError(t, err)
		last, err = svc.Answer(ctx, 1, true)
		require.NoError(t, err)
	}
	_, err = svc.Next(1)
	assert.ErrorIs(t, err, ErrReviewComplete)

	require.Len(t, store.progress, 1)
	p := store.progress["7"]
	assert.Equal(t, 2, p.Correct)
	assert.Equal(t, 2, p.CorrectStreak)
	assert.Equal(t, 2, last.Stats.TotalPlays)
	assert.Equal(t, 2, checker.calls)
	assert.Contains(t, store.activity, "2024-03-10")

	summary, err := svc.Stop(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Answered)
	assert.Equal(t, 2, summary.Correct)
	require.Len(t, store.sessions, 1)
	assert.Equal(t, "review", store.sessions[0].Mode)
	assert.Equal(t, 3, checker.calls)

	_, ok := svc.Session(1)
	assert.False(t, ok)
}

func TestServiceNewlyMastered(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(models.Word{ID: 3, German: "Haus", Type: models.TypeNoun})
	svc := newTestService(store, nil)

	_, err := svc.Start(ctx, 1, ModeRandom, Filter{})
	require.NoError(t, err)

	var results []AnswerResult
	for i := 0; i < 4; i++ {
		_, err := svc.Next(1)
		require.NoError(t, err)
		r, err := svc.Answer(ctx, 1, true)
		require.NoError(t, err)
		results = append(results, r)
	}
	assert.False(t, results[2].NewlyMastered)
	assert.True(t, results[3].NewlyMastered)
	assert.True(t, results[3].Stats.IsMastered)
	assert.Equal(t, 1, store.activity["2024-03-10"])

	sess, ok := svc.Session(1)
	require.True(t, ok)
	_, onScreen := sess.Current()
	assert.False(t, onScreen)
	c, err := sess.Next()
	require.NoError(t, err)
	assert.True(t, c.Stats.IsMastered)
}

func TestServiceFriendPlayIsReadOnly(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	checker := &countingChecker{}
	svc := newTestService(store, checker)

	friendWords := []models.Word{{ID: 40, UserID: 2, German: "Baum"}, {ID: 41, UserID: 2, German: "Wald"}}
	sess, err := svc.StartFriend(1, 2, friendWords, ModeRandom, Filter{Performance: PerformanceDifficult})
	require.NoError(t, err)
	assert.True(t, sess.IsFriendPlay())
	assert.Equal(t, 2, sess.PoolSize())

	_, err = svc.Next(1)
	require.NoError(t, err)
	_, err = svc.Answer(ctx, 1, false)
	require.NoError(t, err)

	summary, err := svc.Stop(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Incorrect)
	assert.Empty(t, store.progress)
	assert.Empty(t, store.sessions)
	assert.Zero(t, checker.calls)
}

func TestServiceRestartReview(t *testing.T) {
	svc := newTestService(newMemStore(models.Word{ID: 1}, models.Word{ID: 2}), nil)
	_, err := svc.Start(context.Background(), 1, ModeReview, Filter{})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := svc.Next(1)
		require.NoError(t, err)
	}
	_, err = svc.Next(1)
	require.ErrorIs(t, err, ErrReviewComplete)

	require.NoError(t, svc.Restart(1))
	_, err = svc.Next(1)
	assert.NoError(t, err)
}

func TestServiceStopWithoutAnswersIsNotStored(t *testing.T) {
	store := newMemStore(models.Word{ID: 1})
	svc := newTestService(store, nil)
	_, err := svc.Start(context.Background(), 1, ModeSmart, Filter{})
	require.NoError(t, err)
	_, err = svc.Stop(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, store.sessions)
}

func TestServicePickDistinctBaseWords(t *testing.T) {
	store := newMemStore(
		models.Word{ID: 1, German: "kommen", Type: models.TypeVerb,
			Prefixes: models.SeparablePrefixes{{Prefix: "an", Meaning: "llegar"}}},
		models.Word{ID: 2, German: "Haus", Type: models.TypeNoun},
		models.Word{ID: 3, German: "groß", Type: models.TypeAdjective},
		models.Word{ID: 4, German: "mit", Type: models.TypePreposition},
	)
	svc := newTestService(store, nil)

	picked, err := svc.Pick(context.Background(), 1, 3)
	require.NoError(t, err)
	require.Len(t, picked, 3)
	seen := map[string]bool{}
	for _, c := range picked {
		assert.False(t, c.IsDerived)
		assert.False(t, seen[c.ID])
		seen[c.ID] = true
	}

	all, err := svc.Pick(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = newTestService(newMemStore(), nil).Pick(context.Background(), 1, 3)
	assert.ErrorIs(t, err, ErrEmptyPool)
}
