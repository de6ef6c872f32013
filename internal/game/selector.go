package game

import (
	"errors"
	"math"
	"math/rand"
	"strings"

	"github.com/example/wortbot/internal/mastery"
)

var (
	// ErrEmptyPool is returned when there is nothing to select from
	ErrEmptyPool = errors.New("no words match the current filters")
	// ErrReviewComplete signals that every card of the review queue was shown
	ErrReviewComplete = errors.New("review complete")
)

// Mode is the word selection strategy
type Mode string

const (
	ModeRandom Mode = "random"
	ModeReview Mode = "review"
	ModeSmart  Mode = "smart"
)

// ParseMode maps user input to a Mode, defaulting to random
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeReview:
		return ModeReview
	case ModeSmart:
		return ModeSmart
	default:
		return ModeRandom
	}
}

// SmartWeights are the tunable constants of the smart selection weight:
// Newness/(plays+1) + errorRate^Exponent*ErrorFactor + Floor
type SmartWeights struct {
	Newness     float64
	ErrorFactor float64
	Exponent    float64
	Floor       float64
}

// DefaultSmartWeights returns the weights the game ships with
func DefaultSmartWeights() SmartWeights {
	return SmartWeights{
		Newness:     5,
		ErrorFactor: 10,
		Exponent:    2,
		Floor:       0.1,
	}
}

// Weight scores a card: unplayed and error-prone words weigh more
func (w SmartWeights) Weight(s mastery.Stats) float64 {
	newness := w.Newness / float64(s.TotalPlays+1)
	errorScore := math.Pow(s.ErrorRate, w.Exponent) * w.ErrorFactor
	return newness + errorScore + w.Floor
}

// Selector picks the next card. It is not safe for concurrent use.
type Selector struct {
	rnd     *rand.Rand
	weights SmartWeights
}

// NewSelector creates a selector drawing from src
func NewSelector(src rand.Source, weights SmartWeights) *Selector {
	return &Selector{
		rnd:     rand.New(src),
		weights: weights,
	}
}

// Random picks a uniformly random card, avoiding an immediate repeat of currentID
func (s *Selector) Random(pool []Card, currentID string) (Card, error) {
	if len(pool) == 0 {
		return Card{}, ErrEmptyPool
	}
	if len(pool) == 1 || !hasOther(pool, currentID) {
		return pool[s.rnd.Intn(len(pool))], nil
	}
	for {
		c := pool[s.rnd.Intn(len(pool))]
		if c.ID != currentID {
			return c, nil
		}
	}
}

// Smart picks a card by weighted sampling over the cumulative weights.
// If the draw lands on currentID, the first other card of the pool is returned.
func (s *Selector) Smart(pool []Card, currentID string) (Card, error) {
	if len(pool) == 0 {
		return Card{}, ErrEmptyPool
	}

	weights := make([]float64, len(pool))
	total := 0.0
	for i, c := range pool {
		weights[i] = s.weights.Weight(c.Stats)
		total += weights[i]
	}

	r := s.rnd.Float64() * total
	chosen := len(pool) - 1 // rounding can leave r slightly above zero
	for i, w := range weights {
		r -= w
		if r <= 0 {
			chosen = i
			break
		}
	}

	if len(pool) > 1 && pool[chosen].ID == currentID {
		for _, c := range pool {
			if c.ID != currentID {
				return c, nil
			}
		}
	}
	return pool[chosen], nil
}

// NewReviewQueue shuffles the pool once into a queue
func (s *Selector) NewReviewQueue(pool []Card) *ReviewQueue {
	q := &ReviewQueue{}
	s.Shuffle(q, pool)
	return q
}

// Shuffle refills the queue with a fresh permutation of the pool
func (s *Selector) Shuffle(q *ReviewQueue, pool []Card) {
	cards := make([]Card, len(pool))
	copy(cards, pool)
	s.rnd.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	q.cards = cards
	q.total = len(cards)
}

// ReviewQueue is a finite, restartable pass over a shuffled pool
type ReviewQueue struct {
	cards []Card
	total int
}

// Next pops the front card, or returns ErrReviewComplete once the queue is empty
func (q *ReviewQueue) Next() (Card, error) {
	if len(q.cards) == 0 {
		return Card{}, ErrReviewComplete
	}
	c := q.cards[0]
	q.cards = q.cards[1:]
	return c, nil
}

// Remaining is the number of cards not shown yet
func (q *ReviewQueue) Remaining() int {
	return len(q.cards)
}

// Total is the size of the queue when it was last shuffled
func (q *ReviewQueue) Total() int {
	return q.total
}

func hasOther(pool []Card, id string) bool {
	for _, c := range pool {
		if c.ID != id {
			return true
		}
	}
	return false
}
