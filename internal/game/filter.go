package game

import (
	"github.com/example/wortbot/pkg/models"
)

// Performance buckets for the filter
const (
	PerformanceNew        = "new"
	PerformanceStruggling = "struggling"
	PerformanceDifficult  = "difficult"
)

// Filter narrows the deck before selection. Zero values mean "any".
type Filter struct {
	Type        models.WordType
	CategoryID  int64
	Difficulty  int
	Gender      string // only with Type == noun
	Case        string // only with Type == preposition
	Performance string // ignored for friend decks
}

// IsZero reports whether the filter lets every card through
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Match reports whether the card passes every active criterion
func (f Filter) Match(c Card, friendDeck bool) bool {
	w := c.Word
	if f.Type != "" && w.Type != f.Type {
		return false
	}
	if f.CategoryID != 0 && w.CategoryID != f.CategoryID {
		return false
	}
	if f.Difficulty != 0 && w.Difficulty != f.Difficulty {
		return false
	}
	if f.Type == models.TypeNoun && f.Gender != "" && w.Gender != f.Gender {
		return false
	}
	if f.Type == models.TypePreposition && f.Case != "" && w.Case != f.Case {
		return false
	}

	if f.Performance != "" && !friendDeck {
		s := c.Stats
		switch f.Performance {
		case PerformanceNew:
			if s.TotalPlays >= 3 {
				return false
			}
		case PerformanceStruggling:
			if s.TotalPlays < 3 || s.ErrorRate <= 0.3 {
				return false
			}
		case PerformanceDifficult:
			if s.TotalPlays < 5 || s.ErrorRate <= 0.5 {
				return false
			}
		}
	}
	return true
}

// Apply returns the cards matching the filter, preserving order
func (f Filter) Apply(cards []Card, friendDeck bool) []Card {
	out := make([]Card, 0, len(cards))
	for _, c := range cards {
		if f.Match(c, friendDeck) {
			out = append(out, c)
		}
	}
	return out
}
