package achievements

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/wortbot/internal/logger"
	"github.com/example/wortbot/internal/mastery"
	"github.com/example/wortbot/pkg/models"
)

type WordSource interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Word, error)
}

type ProgressSource interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Progress, error)
}

type FriendSource interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Friend, error)
}

type SentenceSource interface {
	ListByUser(ctx context.Context, userID int64) ([]models.SentenceAttempt, error)
}

type SessionSource interface {
	ListByUser(ctx context.Context, userID int64) ([]models.GameSession, error)
}

type ActivitySource interface {
	ListByUser(ctx context.Context, userID int64) ([]models.DailyStat, error)
}

type CategorySource interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Category, error)
}

// Sources are the collections a check reads
type Sources struct {
	Words      WordSource
	Progress   ProgressSource
	Friends    FriendSource
	Sentences  SentenceSource
	Sessions   SessionSource
	Activity   ActivitySource
	Categories CategorySource
}

// UnlockStore persists the unlocked set. Unlock must only ever add ids.
type UnlockStore interface {
	ListUnlocked(ctx context.Context, userID int64) ([]string, error)
	Unlock(ctx context.Context, userID int64, ids []string, at time.Time) error
}

// Notifier delivers newly unlocked achievements to the learner
type Notifier interface {
	NotifyAchievements(ctx context.Context, userID int64, unlocked []Definition)
}

// Checker loads a learner's state, evaluates the catalog and persists the result
type Checker struct {
	src      Sources
	store    UnlockStore
	notifier Notifier
	criteria mastery.Criteria
	log      *logger.Logger
	now      func() time.Time
}

// NewChecker creates a checker; notifier may be set later with SetNotifier
func NewChecker(src Sources, store UnlockStore, criteria mastery.Criteria, log *logger.Logger) *Checker {
	return &Checker{
		src:      src,
		store:    store,
		criteria: criteria,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetNotifier wires the delivery channel for new unlocks
func (c *Checker) SetNotifier(n Notifier) {
	c.notifier = n
}

// Check runs one evaluation pass. A collection that fails to load is
// treated as empty; a failed save is logged and the result still returned.
func (c *Checker) Check(ctx context.Context, userID int64) (Result, bool, error) {
	var (
		state    = State{Now: c.now()}
		previous []string
		prevOK   = true
	)

	g, gctx := errgroup.WithContext(ctx)
	load := func(name string, fn func(context.Context) error) {
		g.Go(func() error {
			if err := fn(gctx); err != nil {
				c.log.Warn("achievement source unavailable, using empty collection",
					"user_id", userID, "source", name, "error", err)
			}
			return nil
		})
	}

	load("words", func(ctx context.Context) (err error) {
		state.Words, err = c.src.Words.ListByUser(ctx, userID)
		return
	})
	load("progress", func(ctx context.Context) (err error) {
		state.Progress, err = c.src.Progress.ListByUser(ctx, userID)
		return
	})
	load("friends", func(ctx context.Context) (err error) {
		state.Friends, err = c.src.Friends.ListByUser(ctx, userID)
		return
	})
	load("sentences", func(ctx context.Context) (err error) {
		state.Sentences, err = c.src.Sentences.ListByUser(ctx, userID)
		return
	})
	load("sessions", func(ctx context.Context) (err error) {
		state.Sessions, err = c.src.Sessions.ListByUser(ctx, userID)
		return
	})
	load("categories", func(ctx context.Context) (err error) {
		state.Categories, err = c.src.Categories.ListByUser(ctx, userID)
		return
	})
	load("activity", func(ctx context.Context) error {
		stats, err := c.src.Activity.ListByUser(ctx, userID)
		for _, st := range stats {
			if d, ok := st.Date(); ok {
				state.ActivityDays = append(state.ActivityDays, d)
			}
		}
		return err
	})
	load("unlocked", func(ctx context.Context) (err error) {
		previous, err = c.store.ListUnlocked(ctx, userID)
		if err != nil {
			prevOK = false
		}
		return
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Result{}, false, err
	}

	res := Evaluate(state, previous, c.criteria)
	if err := c.store.Unlock(ctx, userID, res.All, state.Now); err != nil {
		c.log.Error("failed to save unlocked achievements", "user_id", userID, "error", err)
	}
	return res, prevOK, nil
}

// CheckAndNotify runs Check and sends new unlocks to the notifier.
// Notifications are skipped when the previous set could not be loaded,
// since every unlocked achievement would look new.
func (c *Checker) CheckAndNotify(ctx context.Context, userID int64) {
	res, prevOK, err := c.Check(ctx, userID)
	if err != nil {
		c.log.Warn("achievement check aborted", "user_id", userID, "error", err)
		return
	}
	if len(res.New) == 0 {
		return
	}
	c.log.Info("achievements unlocked", "user_id", userID, "ids", res.NewIDs())
	if !prevOK || c.notifier == nil {
		return
	}
	c.notifier.NotifyAchievements(ctx, userID, res.New)
}
