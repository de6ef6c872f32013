package achievements

import (
	"sort"
	"time"

	"github.com/example/wortbot/internal/mastery"
	"github.com/example/wortbot/pkg/models"
)

// State is an in-memory snapshot of everything the predicates look at.
// Nil collections are treated as empty.
type State struct {
	Words        []models.Word
	Progress     []models.Progress
	Friends      []models.Friend
	Sentences    []models.SentenceAttempt
	Sessions     []models.GameSession
	ActivityDays []time.Time
	Categories   []models.Category
	Now          time.Time
}

// Aggregates are the counts derived from a State
type Aggregates struct {
	OwnWords       int
	AllWords       int
	Mastered       int
	MasteredByType map[models.WordType]int
	Friends        int
	Categories     int
	Prefixes       int

	Sentences          int
	PerfectSentences   int
	GoodSentenceStreak int

	TotalCorrect int
	TotalPlays   int
	MaxStreak    int

	ActiveDays    int
	LongestDayRun int
	FirstActivity time.Time

	Sessions      int
	PerfectStart  bool
	PerfectGame   bool
	DaysSinceJoin int
}

// Accuracy is the share of correct answers over all plays
func (a Aggregates) Accuracy() float64 {
	if a.TotalPlays == 0 {
		return 0
	}
	return float64(a.TotalCorrect) / float64(a.TotalPlays)
}

const (
	goodSentenceScore = 7  // strictly above
	perfectScore      = 10 // out of 10
	perfectGameLength = 10
)

// Aggregate derives the counts for a state
func Aggregate(s State, c mastery.Criteria) Aggregates {
	a := Aggregates{
		AllWords:       len(s.Words),
		Friends:        len(s.Friends),
		Categories:     len(s.Categories),
		Sentences:      len(s.Sentences),
		MasteredByType: make(map[models.WordType]int),
	}

	index := make(map[string]models.Word, len(s.Words))
	for _, w := range s.Words {
		index[w.Key()] = w
		if !w.IsImported() {
			a.OwnWords++
		}
		if w.Type == models.TypeVerb {
			a.Prefixes += len(w.Prefixes)
		}
	}

	for _, p := range s.Progress {
		a.TotalCorrect += p.Correct
		a.TotalPlays += p.TotalPlays()
		if p.CorrectStreak > a.MaxStreak {
			a.MaxStreak = p.CorrectStreak
		}
		if !mastery.IsMastered(p, c) {
			continue
		}
		a.Mastered++
		if w, ok := wordFor(index, p.WordID); ok {
			a.MasteredByType[w.Type]++
		}
	}

	for _, st := range s.Sentences {
		if st.Score == perfectScore {
			a.PerfectSentences++
		}
	}
	a.GoodSentenceStreak = trailingGoodSentences(s.Sentences)

	days := distinctDays(s.ActivityDays)
	a.ActiveDays = len(days)
	a.LongestDayRun = LongestDayRun(days)
	if len(days) > 0 {
		a.FirstActivity = days[0]
		if !s.Now.IsZero() {
			a.DaysSinceJoin = daysBetween(days[0], civilDay(s.Now))
		}
	}

	sessions := finishedSessions(s.Sessions)
	a.Sessions = len(sessions)
	for i, gs := range sessions {
		perfect := gs.Incorrect == 0
		if i == 0 && perfect {
			a.PerfectStart = true
		}
		if perfect && gs.Answered >= perfectGameLength {
			a.PerfectGame = true
		}
	}
	return a
}

// wordFor finds the word of a progress record by exact id, then by its base id
func wordFor(index map[string]models.Word, wordID string) (models.Word, bool) {
	if w, ok := index[wordID]; ok {
		return w, true
	}
	base, ok := models.BaseWordID(wordID)
	if !ok {
		return models.Word{}, false
	}
	w, ok := index[models.Word{ID: base}.Key()]
	return w, ok
}

// trailingGoodSentences counts the most recent attempts scoring above 7 in a row
func trailingGoodSentences(attempts []models.SentenceAttempt) int {
	sorted := make([]models.SentenceAttempt, len(attempts))
	copy(sorted, attempts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	n := 0
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].Score <= goodSentenceScore {
			break
		}
		n++
	}
	return n
}

func finishedSessions(sessions []models.GameSession) []models.GameSession {
	out := make([]models.GameSession, 0, len(sessions))
	for _, gs := range sessions {
		if gs.Answered > 0 {
			out = append(out, gs)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FinishedAt.Before(out[j].FinishedAt)
	})
	return out
}

// LongestDayRun returns the longest run of consecutive calendar days.
// After sorting, a gap of one day extends the run and any larger gap starts a new one.
func LongestDayRun(ts []time.Time) int {
	days := distinctDays(ts)
	if len(days) == 0 {
		return 0
	}
	longest, current := 1, 1
	for i := 1; i < len(days); i++ {
		switch diff := daysBetween(days[i-1], days[i]); {
		case diff == 1:
			current++
		case diff > 1:
			current = 1
		}
		if current > longest {
			longest = current
		}
	}
	return longest
}

// distinctDays truncates timestamps to calendar days, dedupes and sorts them
func distinctDays(ts []time.Time) []time.Time {
	seen := make(map[time.Time]bool, len(ts))
	out := make([]time.Time, 0, len(ts))
	for _, t := range ts {
		d := civilDay(t)
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(a, b time.Time) int {
	return int(civilDay(b).Sub(civilDay(a)).Hours() / 24)
}
