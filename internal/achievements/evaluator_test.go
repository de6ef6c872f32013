package achievements

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wortbot/internal/mastery"
	"github.com/example/wortbot/pkg/models"
)

var criteria = mastery.DefaultCriteria()

func day(s string) time.Time {
	t, err := time.Parse(models.DayLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCatalogIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	cats := map[string]bool{}
	for _, c := range Categories {
		cats[c.ID] = true
	}
	for _, d := range Catalog {
		assert.False(t, seen[d.ID], "duplicate id %s", d.ID)
		seen[d.ID] = true
		assert.True(t, cats[d.Category], "unknown category %s for %s", d.Category, d.ID)
		assert.NotNil(t, d.Unlocked, d.ID)
	}
	_, ok := Lookup("first_word")
	assert.True(t, ok)
	assert.Len(t, InCategory("friends"), 3)
}

func TestEmptyStateUnlocksNothing(t *testing.T) {
	res := Evaluate(State{Now: day("2024-01-01")}, nil, criteria)
	assert.Empty(t, res.All)
	assert.Empty(t, res.New)
}

func TestFirstWord(t *testing.T) {
	state := State{Words: []models.Word{{ID: 1, German: "Haus"}}}
	res := Evaluate(state, nil, criteria)
	assert.Equal(t, []string{"first_word"}, res.NewIDs())
	assert.Equal(t, []string{"first_word"}, res.All)

	again := Evaluate(state, res.All, criteria)
	assert.Empty(t, again.New)
	assert.Equal(t, res.All, again.All)
}

func TestImportedWordsDoNotCountAsAdded(t *testing.T) {
	state := State{Words: []models.Word{{ID: 1, ImportedFrom: "anna"}}}
	res := Evaluate(state, nil, criteria)
	assert.NotContains(t, res.All, "first_word")
}

func TestNeverRevokes(t *testing.T) {
	res := Evaluate(State{}, []string{"friend_10", "retired_badge"}, criteria)
	assert.Equal(t, []string{"friend_10", "retired_badge"}, res.All)
	assert.Empty(t, res.New)
}

func TestMonotonicUnderFurtherPlay(t *testing.T) {
	words := []models.Word{{ID: 1, Type: models.TypeNoun}, {ID: 2, Type: models.TypeVerb}}
	p1 := []models.Progress{{WordID: "1", Correct: 3, CorrectStreak: 3}}
	first := Evaluate(State{Words: words, Progress: p1}, nil, criteria)

	p2 := []models.Progress{
		{WordID: "1", Correct: 3, Incorrect: 1, CorrectStreak: 0},
		{WordID: "2", Correct: 5, CorrectStreak: 5},
	}
	second := Evaluate(State{Words: words, Progress: p2}, first.All, criteria)

	for _, id := range first.All {
		assert.Contains(t, second.All, id)
	}
	assert.Contains(t, second.NewIDs(), "first_master")
	assert.Contains(t, second.NewIDs(), "streak_5")
}

func TestMasteredByTypeMatchesBaseIDs(t *testing.T) {
	words := []models.Word{
		{ID: 1, Type: models.TypeNoun},
		{ID: 2, Type: models.TypeVerb},
	}
	progress := []models.Progress{
		{WordID: "1", Correct: 4, CorrectStreak: 4},
		{WordID: "2_an", Correct: 4, CorrectStreak: 4},
		{WordID: "abc", Correct: 4, CorrectStreak: 4},
		{WordID: "99", Correct: 4, CorrectStreak: 4},
	}
	agg := Aggregate(State{Words: words, Progress: progress}, criteria)
	assert.Equal(t, 4, agg.Mastered)
	assert.Equal(t, 1, agg.MasteredByType[models.TypeNoun])
	assert.Equal(t, 1, agg.MasteredByType[models.TypeVerb])
	assert.Equal(t, 2, len(agg.MasteredByType))
}

func TestLongestDayRun(t *testing.T) {
	tests := []struct {
		name string
		days []string
		want int
	}{
		{"empty", nil, 0},
		{"single", []string{"2024-01-01"}, 1},
		{"run", []string{"2024-01-01", "2024-01-02", "2024-01-03"}, 3},
		{"gap resets", []string{"2024-01-01", "2024-01-02", "2024-01-05", "2024-01-06", "2024-01-07", "2024-01-08"}, 4},
		{"unsorted and duplicate", []string{"2024-03-02", "2024-03-01", "2024-03-01", "2024-02-29"}, 3},
		{"month boundary", []string{"2024-01-31", "2024-02-01"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts []time.Time
			for _, d := range tt.days {
				ts = append(ts, day(d))
			}
			assert.Equal(t, tt.want, LongestDayRun(ts))
		})
	}
}

func TestDailyAndDedication(t *testing.T) {
	var days []time.Time
	start := day("2024-01-01")
	for i := 0; i < 7; i++ {
		days = append(days, start.AddDate(0, 0, i))
	}
	days = append(days, start.AddDate(0, 0, 20), start.AddDate(0, 0, 21), start.AddDate(0, 0, 40))

	res := Evaluate(State{ActivityDays: days, Now: start.AddDate(0, 0, 40)}, nil, criteria)
	assert.Contains(t, res.All, "daily_7")
	assert.NotContains(t, res.All, "daily_14")
	assert.Contains(t, res.All, "day_10")
	assert.Contains(t, res.All, "first_month")
	assert.NotContains(t, res.All, "day_30")
}

func TestFirstMonthNeedsThirtyDays(t *testing.T) {
	state := State{ActivityDays: []time.Time{day("2024-01-01")}, Now: day("2024-01-30")}
	assert.NotContains(t, Evaluate(state, nil, criteria).All, "first_month")
	state.Now = day("2024-01-31")
	assert.Contains(t, Evaluate(state, nil, criteria).All, "first_month")
}

func TestSentenceAchievements(t *testing.T) {
	base := day("2024-01-01")
	var attempts []models.SentenceAttempt
	scores := []int{3, 10, 8, 9, 10, 8, 9}
	for i, s := range scores {
		attempts = append(attempts, models.SentenceAttempt{Score: s, CreatedAt: base.Add(time.Duration(i) * time.Hour)})
	}
	agg := Aggregate(State{Sentences: attempts}, criteria)
	assert.Equal(t, 6, agg.GoodSentenceStreak)
	assert.Equal(t, 2, agg.PerfectSentences)

	res := Evaluate(State{Sentences: attempts}, nil, criteria)
	assert.Contains(t, res.All, "perfect_sentence")
	assert.Contains(t, res.All, "sentences_5")
	assert.Contains(t, res.All, "good_sentences_5")
	assert.NotContains(t, res.All, "good_sentences_10")

	// a seven is not good enough and breaks the streak
	attempts = append(attempts, models.SentenceAttempt{Score: 7, CreatedAt: base.Add(24 * time.Hour)})
	assert.Equal(t, 0, Aggregate(State{Sentences: attempts}, criteria).GoodSentenceStreak)
}

func TestPerfectionFromSessions(t *testing.T) {
	t0 := day("2024-01-01")
	sessions := []models.GameSession{
		{Answered: 12, Correct: 12, FinishedAt: t0.Add(2 * time.Hour)},
		{Answered: 4, Correct: 3, Incorrect: 1, FinishedAt: t0.Add(time.Hour)},
		{Answered: 0, FinishedAt: t0},
	}
	agg := Aggregate(State{Sessions: sessions}, criteria)
	assert.Equal(t, 2, agg.Sessions)
	assert.False(t, agg.PerfectStart)
	assert.True(t, agg.PerfectGame)

	agg = Aggregate(State{Sessions: sessions[:1]}, criteria)
	assert.True(t, agg.PerfectStart)
}

func TestVersatileAndCollector(t *testing.T) {
	var words []models.Word
	var progress []models.Progress
	id := int64(1)
	for _, wt := range []models.WordType{models.TypeNoun, models.TypeVerb, models.TypeAdjective, models.TypePreposition} {
		for i := 0; i < 30; i++ {
			words = append(words, models.Word{ID: id, Type: wt})
			progress = append(progress, models.Progress{WordID: fmt.Sprint(id), Correct: 4, CorrectStreak: 4})
			id++
		}
	}
	state := State{
		Words:      words,
		Progress:   progress,
		Friends:    []models.Friend{{FriendID: 2}},
		Sentences:  []models.SentenceAttempt{{Score: 5}},
		Categories: []models.Category{{ID: 1}, {ID: 2}, {ID: 3}},
	}
	res := Evaluate(state, nil, criteria)
	for _, id := range []string{"versatile_learner", "type_master", "adjective_master", "trilingual_ambition", "maestro_100", "accuracy_90", "correct_100"} {
		assert.Contains(t, res.All, id)
	}
	assert.NotContains(t, res.All, "noun_master")
}

func TestResultOrderFollowsCatalog(t *testing.T) {
	state := State{
		Words:   []models.Word{{ID: 1}},
		Friends: []models.Friend{{FriendID: 2}},
	}
	res := Evaluate(state, []string{"friend_1"}, criteria)
	require.Equal(t, []string{"first_word", "friend_1"}, res.All)
	assert.Equal(t, []string{"first_word"}, res.NewIDs())
}
