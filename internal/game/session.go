package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/wortbot/internal/mastery"
	"github.com/example/wortbot/pkg/models"
)

// Session is one learner's running round of the flashcard game
type Session struct {
	mu sync.Mutex

	ID        string
	UserID    int64
	FriendID  int64 // 0 when playing own words
	Mode      Mode
	Filter    Filter
	StartedAt time.Time

	pool     []Card
	current  *Card
	lastID   string
	turns    int
	queue    *ReviewQueue
	selector *Selector

	answered  int
	correct   int
	incorrect int
}

// NewSession filters the deck into the session pool.
// Returns ErrEmptyPool when nothing matches.
func NewSession(userID, friendID int64, mode Mode, filter Filter, deck []Card, src rand.Source, weights SmartWeights, now time.Time) (*Session, error) {
	pool := filter.Apply(deck, friendID != 0)
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}

	s := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		FriendID:  friendID,
		Mode:      mode,
		Filter:    filter,
		StartedAt: now,
		pool:      pool,
		selector:  NewSelector(src, weights),
	}
	if mode == ModeReview {
		s.queue = s.selector.NewReviewQueue(pool)
	}
	return s, nil
}

// IsFriendPlay reports whether the session plays another learner's words
func (s *Session) IsFriendPlay() bool {
	return s.FriendID != 0
}

// Next draws the next card according to the session mode
func (s *Session) Next() (Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	currentID := s.lastID
	if s.current != nil {
		currentID = s.current.ID
	}

	var (
		c   Card
		err error
	)
	switch s.Mode {
	case ModeReview:
		c, err = s.queue.Next()
	case ModeSmart:
		c, err = s.selector.Smart(s.pool, currentID)
	default:
		c, err = s.selector.Random(s.pool, currentID)
	}
	if err != nil {
		return Card{}, err
	}
	s.turns++
	c.Turn = s.turns
	s.current = &c
	return c, nil
}

// Current returns the card on screen, if any
func (s *Session) Current() (Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Card{}, false
	}
	return *s.current, true
}

// Record tallies an answer to the current card and returns that card.
// A card takes one answer; later calls fail until Next draws again.
// A non-zero turn must match the turn of the card on screen.
func (s *Session) Record(turn int, correct bool) (Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || (turn != 0 && s.current.Turn != turn) {
		return Card{}, false
	}
	card := *s.current
	s.current = nil
	s.lastID = card.ID
	s.answered++
	if correct {
		s.correct++
	} else {
		s.incorrect++
	}
	return card, true
}

// UpdateStats refreshes the stats of every card built from the given base word,
// so smart selection sees answers given during the session
func (s *Session) UpdateStats(baseID int64, stats mastery.Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pool {
		if s.pool[i].BaseID == baseID {
			s.pool[i].Stats = stats
		}
	}
	if s.current != nil && s.current.BaseID == baseID {
		s.current.Stats = stats
	}
}

// Restart reshuffles the review queue for another pass
func (s *Session) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Mode != ModeReview {
		return
	}
	s.selector.Shuffle(s.queue, s.pool)
	s.current = nil
	s.lastID = ""
}

// Progress returns the number of cards shown in review mode and the queue size
func (s *Session) Progress() (shown, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue == nil {
		return s.answered, len(s.pool)
	}
	return s.queue.Total() - s.queue.Remaining(), s.queue.Total()
}

// PoolSize is the number of cards left after filtering
func (s *Session) PoolSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pool)
}

// Summary builds the record stored when the session ends
func (s *Session) Summary(finishedAt time.Time) models.GameSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.GameSession{
		ID:         s.ID,
		UserID:     s.UserID,
		Mode:       string(s.Mode),
		Answered:   s.answered,
		Correct:    s.correct,
		Incorrect:  s.incorrect,
		StartedAt:  s.StartedAt,
		FinishedAt: finishedAt,
	}
}
