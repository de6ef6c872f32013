package game

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wortbot/internal/mastery"
	"github.com/example/wortbot/pkg/models"
)

// fixedSource always yields the same value, making draws predictable
type fixedSource struct{ v int64 }

func (s fixedSource) Int63() int64 { return s.v }
func (s fixedSource) Seed(int64)   {}

func makePool(n int) []Card {
	pool := make([]Card, n)
	for i := range pool {
		pool[i] = Card{PlayableWord: models.PlayableWord{ID: fmt.Sprintf("%d", i+1), BaseID: int64(i + 1)}}
	}
	return pool
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeSmart, ParseMode("SMART"))
	assert.Equal(t, ModeReview, ParseMode(" review"))
	assert.Equal(t, ModeRandom, ParseMode("whatever"))
}

func TestWeightMonotonic(t *testing.T) {
	w := DefaultSmartWeights()

	prev := w.Weight(mastery.Stats{TotalPlays: 0, ErrorRate: 0.3})
	for plays := 1; plays < 50; plays++ {
		cur := w.Weight(mastery.Stats{TotalPlays: plays, ErrorRate: 0.3})
		assert.Less(t, cur, prev, "weight must drop with plays=%d", plays)
		prev = cur
	}

	prev = w.Weight(mastery.Stats{TotalPlays: 10, ErrorRate: 0})
	for i := 1; i <= 10; i++ {
		cur := w.Weight(mastery.Stats{TotalPlays: 10, ErrorRate: float64(i) / 10})
		assert.Greater(t, cur, prev)
		prev = cur
	}
}

func TestWeightFloor(t *testing.T) {
	w := DefaultSmartWeights()
	assert.InDelta(t, 5.1, w.Weight(mastery.Stats{}), 1e-9)
	assert.Greater(t, w.Weight(mastery.Stats{TotalPlays: 1 << 30}), 0.0)
}

func TestRandomEmptyPool(t *testing.T) {
	s := NewSelector(rand.NewSource(1), DefaultSmartWeights())
	_, err := s.Random(nil, "")
	assert.ErrorIs(t, err, ErrEmptyPool)
	_, err = s.Smart(nil, "")
	assert.ErrorIs(t, err, ErrEmptyPool)
}

func TestRandomSingleCard(t *testing.T) {
	s := NewSelector(rand.NewSource(1), DefaultSmartWeights())
	pool := makePool(1)
	for i := 0; i < 10; i++ {
		c, err := s.Random(pool, pool[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "1", c.ID)
	}
}

func TestRandomAvoidsImmediateRepeat(t *testing.T) {
	s := NewSelector(rand.NewSource(7), DefaultSmartWeights())
	pool := makePool(3)
	seen := map[string]bool{}
	current := "1"
	for i := 0; i < 300; i++ {
		c, err := s.Random(pool, current)
		require.NoError(t, err)
		require.NotEqual(t, current, c.ID)
		seen[c.ID] = true
		current = c.ID
	}
	assert.Len(t, seen, 3)
}

func TestSmartNeverReturnsCurrent(t *testing.T) {
	pool := makePool(4)
	pool[0].Stats = mastery.Stats{TotalPlays: 0}
	pool[1].Stats = mastery.Stats{TotalPlays: 20, ErrorRate: 0.9}
	pool[2].Stats = mastery.Stats{TotalPlays: 40}
	pool[3].Stats = mastery.Stats{TotalPlays: 3, ErrorRate: 0.5}

	for seed := int64(0); seed < 50; seed++ {
		s := NewSelector(rand.NewSource(seed), DefaultSmartWeights())
		for _, current := range []string{"1", "2", "3", "4"} {
			c, err := s.Smart(pool, current)
			require.NoError(t, err)
			assert.NotEqual(t, current, c.ID)
		}
	}
}

func TestSmartFallsBackToFirstOtherCard(t *testing.T) {
	// r = 0 lands on the first card, which is the current one
	s := NewSelector(fixedSource{v: 0}, DefaultSmartWeights())
	pool := makePool(3)

	c, err := s.Smart(pool, "1")
	require.NoError(t, err)
	assert.Equal(t, "2", c.ID)

	c, err = s.Smart(pool, "3")
	require.NoError(t, err)
	assert.Equal(t, "1", c.ID)
}

func TestSmartDrawAtTheEnd(t *testing.T) {
	s := NewSelector(fixedSource{v: int64(0.999 * float64(1<<63))}, DefaultSmartWeights())
	pool := makePool(3)

	c, err := s.Smart(pool, "")
	require.NoError(t, err)
	assert.Equal(t, "3", c.ID)

	c, err = s.Smart(pool, "3")
	require.NoError(t, err)
	assert.Equal(t, "1", c.ID)
}

func TestSmartSingleCardMayRepeat(t *testing.T) {
	s := NewSelector(rand.NewSource(3), DefaultSmartWeights())
	pool := makePool(1)
	c, err := s.Smart(pool, "1")
	require.NoError(t, err)
	assert.Equal(t, "1", c.ID)
}

func TestSmartPrefersNewWords(t *testing.T) {
	pool := makePool(2)
	pool[0].Stats = mastery.Stats{TotalPlays: 100}
	pool[1].Stats = mastery.Stats{TotalPlays: 0}

	s := NewSelector(rand.NewSource(42), DefaultSmartWeights())
	hits := 0
	for i := 0; i < 1000; i++ {
		c, err := s.Smart(pool, "")
		require.NoError(t, err)
		if c.ID == "2" {
			hits++
		}
	}
	assert.Greater(t, hits, 800)
}

func TestReviewQueueVisitsEveryCardOnce(t *testing.T) {
	s := NewSelector(rand.NewSource(11), DefaultSmartWeights())
	pool := makePool(9)
	q := s.NewReviewQueue(pool)
	assert.Equal(t, 9, q.Total())

	var popped []string
	for {
		c, err := q.Next()
		if err != nil {
			assert.ErrorIs(t, err, ErrReviewComplete)
			break
		}
		popped = append(popped, c.ID)
	}
	require.Len(t, popped, 9)

	want := IDs(pool)
	sort.Strings(want)
	sort.Strings(popped)
	assert.Equal(t, want, popped)

	_, err := q.Next()
	assert.ErrorIs(t, err, ErrReviewComplete)

	s.Shuffle(q, pool)
	assert.Equal(t, 9, q.Remaining())
}

func TestReviewQueueDoesNotAliasPool(t *testing.T) {
	s := NewSelector(rand.NewSource(5), DefaultSmartWeights())
	pool := makePool(5)
	before := IDs(pool)
	q := s.NewReviewQueue(pool)
	for q.Remaining() > 0 {
		_, _ = q.Next()
	}
	assert.Equal(t, before, IDs(pool))
}

func TestEmptyReviewQueueCompletesImmediately(t *testing.T) {
	s := NewSelector(rand.NewSource(5), DefaultSmartWeights())
	q := s.NewReviewQueue(nil)
	_, err := q.Next()
	assert.ErrorIs(t, err, ErrReviewComplete)
}
