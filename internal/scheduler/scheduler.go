package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/wortbot/internal/logger"
	"github.com/example/wortbot/pkg/models"
)

const (
	DefaultNotificationStartHour = 4
	DefaultNotificationEndHour   = 18
	DefaultSnapshotTime          = "23:55"

	jobTimeout = 5 * time.Minute
)

// Notifier delivers practice reminders
type Notifier interface {
	SendReminder(ctx context.Context, userID int64) error
}

type UserStore interface {
	GetAll(ctx context.Context) ([]models.User, error)
	GetUsersForNotification(ctx context.Context, hour int) ([]models.User, error)
}

// Progress answers per-learner questions for the jobs
type Progress interface {
	HasUnmastered(ctx context.Context, userID int64) (bool, error)
	Snapshot(ctx context.Context, userID int64) error
}

// Options configures the job windows
type Options struct {
	StartHour    int
	EndHour      int
	SnapshotTime string // HH:MM
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	users     UserStore
	progress  Progress
	notifier  Notifier
	opts      Options
	log       *logger.Logger
	now       func() time.Time
}

// New creates a new scheduler instance
func New(users UserStore, progress Progress, notifier Notifier, opts Options, log *logger.Logger) *Scheduler {
	if opts.SnapshotTime == "" {
		opts.SnapshotTime = DefaultSnapshotTime
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		users:     users,
		progress:  progress,
		notifier:  notifier,
		opts:      opts,
		log:       log,
		now:       time.Now,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(1).Hour().StartAt(s.nextHour()).Do(s.remindersJob); err != nil {
		return err
	}
	if _, err := s.scheduler.Every(1).Day().At(s.opts.SnapshotTime).Do(s.snapshotJob); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.log.Info("scheduler started",
		"notification_window", []int{s.opts.StartHour, s.opts.EndHour},
		"snapshot_time", s.opts.SnapshotTime)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) nextHour() time.Time {
	return s.now().UTC().Truncate(time.Hour).Add(time.Hour)
}

func (s *Scheduler) remindersJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	s.SendReminders(ctx, s.now().UTC().Hour())
}

func (s *Scheduler) snapshotJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if _, err := s.SnapshotAll(ctx); err != nil {
		s.log.Error("daily snapshot failed", "error", err)
	}
}

// InWindow reports whether reminders may be sent at the given hour
func (s *Scheduler) InWindow(hour int) bool {
	return hour >= s.opts.StartHour && hour <= s.opts.EndHour
}

// SendReminders notifies users due at hour who still have words to practise.
// It returns the number of reminders delivered.
func (s *Scheduler) SendReminders(ctx context.Context, hour int) int {
	if !s.InWindow(hour) {
		s.log.Debug("outside notification hours, skipping reminders",
			"hour", hour, "start", s.opts.StartHour, "end", s.opts.EndHour)
		return 0
	}

	users, err := s.users.GetUsersForNotification(ctx, hour)
	if err != nil {
		s.log.Error("failed to get users for notification", "hour", hour, "error", err)
		return 0
	}

	sent := 0
	for _, user := range users {
		ok, err := s.RunManualCheck(ctx, user.ID)
		if err != nil {
			s.log.Warn("failed to send reminder", "user_id", user.ID, "error", err)
			continue
		}
		if ok {
			sent++
		}
	}
	return sent
}

// RunManualCheck reminds one learner if anything is left to practise
func (s *Scheduler) RunManualCheck(ctx context.Context, userID int64) (bool, error) {
	pending, err := s.progress.HasUnmastered(ctx, userID)
	if err != nil || !pending {
		return false, err
	}
	if err := s.notifier.SendReminder(ctx, userID); err != nil {
		return false, err
	}
	return true, nil
}

// SnapshotAll writes today's mastered count for every user.
// Failures are logged per user; the count of stored snapshots is returned.
func (s *Scheduler) SnapshotAll(ctx context.Context) (int, error) {
	users, err := s.users.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	stored := 0
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return stored, err
		}
		if err := s.progress.Snapshot(ctx, user.ID); err != nil {
			s.log.Warn("failed to store daily snapshot", "user_id", user.ID, "error", err)
			continue
		}
		stored++
	}
	s.log.Info("daily snapshots stored", "users", stored)
	return stored, nil
}
