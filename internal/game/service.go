package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/example/wortbot/internal/logger"
	"github.com/example/wortbot/internal/mastery"
	"github.com/example/wortbot/pkg/models"
)

var (
	// ErrNoSession is returned when the learner has no running game
	ErrNoSession = errors.New("no active game session")
	// ErrNoCard is returned when no unanswered card is on screen
	ErrNoCard = errors.New("no card on screen")
)

// WordStore loads a learner's vocabulary
type WordStore interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Word, error)
}

// ProgressStore reads and updates answer counters
type ProgressStore interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Progress, error)
	RecordAnswer(ctx context.Context, userID int64, wordID string, correct bool, at time.Time) (models.Progress, error)
}

// ActivityStore upserts the daily activity row
type ActivityStore interface {
	RecordActivity(ctx context.Context, userID int64, day string, mastered int) error
}

// SessionStore keeps finished sessions
type SessionStore interface {
	Save(ctx context.Context, s *models.GameSession) error
}

// AchievementChecker re-evaluates achievements after a state change
type AchievementChecker interface {
	CheckAndNotify(ctx context.Context, userID int64)
}

// Stores groups the persistence dependencies of the service
type Stores struct {
	Words    WordStore
	Progress ProgressStore
	Activity ActivityStore
	Sessions SessionStore
}

// AnswerResult describes the effect of one answer
type AnswerResult struct {
	Card          Card
	Correct       bool
	Stats         mastery.Stats
	NewlyMastered bool
}

// Service runs game sessions for all learners
type Service struct {
	stores   Stores
	checker  AchievementChecker
	criteria mastery.Criteria
	weights  SmartWeights
	log      *logger.Logger

	now       func() time.Time
	newSource func() rand.Source

	mu     sync.Mutex
	active map[int64]*Session
}

// NewService creates the game service. checker may be nil.
func NewService(stores Stores, checker AchievementChecker, criteria mastery.Criteria, weights SmartWeights, log *logger.Logger) *Service {
	return &Service{
		stores:   stores,
		checker:  checker,
		criteria: criteria,
		weights:  weights,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		newSource: func() rand.Source {
			return rand.NewSource(time.Now().UnixNano())
		},
		active: make(map[int64]*Session),
	}
}

// Criteria returns the mastery thresholds the service evaluates with
func (s *Service) Criteria() mastery.Criteria {
	return s.criteria
}

// Start begins a session over the learner's own words, replacing any running one
func (s *Service) Start(ctx context.Context, userID int64, mode Mode, filter Filter) (*Session, error) {
	words, err := s.stores.Words.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load words: %w", err)
	}
	progress, err := s.stores.Progress.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	deck := BuildDeck(words, progress, s.criteria)
	return s.open(userID, 0, mode, filter, deck)
}

// StartFriend begins a read-only session over a friend's words.
// The caller is responsible for checking the friendship.
func (s *Service) StartFriend(userID, friendID int64, words []models.Word, mode Mode, filter Filter) (*Session, error) {
	deck := BuildDeck(words, nil, s.criteria)
	return s.open(userID, friendID, mode, filter, deck)
}

func (s *Service) open(userID, friendID int64, mode Mode, filter Filter, deck []Card) (*Session, error) {
	sess, err := NewSession(userID, friendID, mode, filter, deck, s.newSource(), s.weights, s.now())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.active[userID] = sess
	s.mu.Unlock()

	s.log.Debug("game session started",
		"user_id", userID,
		"friend_id", friendID,
		"mode", mode,
		"pool", sess.PoolSize())
	return sess, nil
}

// Pick draws up to n distinct base words by smart weight, for sentence practice.
// Derived cards are skipped so every pick is a stored word.
func (s *Service) Pick(ctx context.Context, userID int64, n int) ([]Card, error) {
	words, err := s.stores.Words.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load words: %w", err)
	}
	progress, err := s.stores.Progress.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	var pool []Card
	for _, c := range BuildDeck(words, progress, s.criteria) {
		if !c.IsDerived {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}

	sel := NewSelector(s.newSource(), s.weights)
	var picked []Card
	for len(picked) < n && len(pool) > 0 {
		c, err := sel.Smart(pool, "")
		if err != nil {
			return nil, err
		}
		picked = append(picked, c)
		pool = without(pool, c.ID)
	}
	return picked, nil
}

func without(pool []Card, id string) []Card {
	out := make([]Card, 0, len(pool))
	for _, c := range pool {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

// Session returns the running session of the learner
func (s *Service) Session(userID int64) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.active[userID]
	return sess, ok
}

// Next draws a card. In review mode ErrReviewComplete means the pass is over
// and the caller should Stop or Restart the session.
func (s *Service) Next(userID int64) (Card, error) {
	sess, ok := s.Session(userID)
	if !ok {
		return Card{}, ErrNoSession
	}
	return sess.Next()
}

// Answer records the learner's verdict on the current card.
// Progress is written for the base word; friend-play writes nothing.
func (s *Service) Answer(ctx context.Context, userID int64, correct bool) (AnswerResult, error) {
	return s.AnswerTurn(ctx, userID, 0, correct)
}

// AnswerTurn is Answer for the card drawn at the given turn.
// It returns ErrNoCard when that card was already answered or replaced.
func (s *Service) AnswerTurn(ctx context.Context, userID int64, turn int, correct bool) (AnswerResult, error) {
	sess, ok := s.Session(userID)
	if !ok {
		return AnswerResult{}, ErrNoSession
	}
	card, ok := sess.Record(turn, correct)
	if !ok {
		return AnswerResult{}, ErrNoCard
	}

	res := AnswerResult{Card: card, Correct: correct, Stats: card.Stats}
	if sess.IsFriendPlay() {
		return res, nil
	}

	now := s.now()
	p, err := s.stores.Progress.RecordAnswer(ctx, userID, card.Word.Key(), correct, now)
	if err != nil {
		return res, fmt.Errorf("failed to save progress: %w", err)
	}
	res.Stats = mastery.Evaluate(p, s.criteria)
	res.NewlyMastered = res.Stats.IsMastered && !card.Stats.IsMastered
	sess.UpdateStats(card.BaseID, res.Stats)

	s.recordActivity(ctx, userID, now)
	if s.checker != nil {
		s.checker.CheckAndNotify(ctx, userID)
	}
	return res, nil
}

// recordActivity upserts today's row; failures only cost statistics
func (s *Service) recordActivity(ctx context.Context, userID int64, now time.Time) {
	progress, err := s.stores.Progress.ListByUser(ctx, userID)
	if err != nil {
		s.log.Warn("failed to load progress for activity", "user_id", userID, "error", err)
		return
	}
	mastered := mastery.CountMastered(progress, s.criteria)
	if err := s.stores.Activity.RecordActivity(ctx, userID, models.DayOf(now), mastered); err != nil {
		s.log.Warn("failed to record daily activity", "user_id", userID, "error", err)
	}
}

// Restart reshuffles a review session for another pass
func (s *Service) Restart(userID int64) error {
	sess, ok := s.Session(userID)
	if !ok {
		return ErrNoSession
	}
	sess.Restart()
	return nil
}

// Stop ends the session and stores its summary when anything was answered.
// Friend-play sessions are not stored.
func (s *Service) Stop(ctx context.Context, userID int64) (models.GameSession, error) {
	s.mu.Lock()
	sess, ok := s.active[userID]
	delete(s.active, userID)
	s.mu.Unlock()
	if !ok {
		return models.GameSession{}, ErrNoSession
	}

	summary := sess.Summary(s.now())
	if summary.Answered == 0 || sess.IsFriendPlay() {
		return summary, nil
	}
	if err := s.stores.Sessions.Save(ctx, &summary); err != nil {
		return summary, fmt.Errorf("failed to save game session: %w", err)
	}
	if s.checker != nil {
		s.checker.CheckAndNotify(ctx, userID)
	}
	return summary, nil
}
