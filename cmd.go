package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/example/wortbot/internal/achievements"
	"github.com/example/wortbot/internal/ai"
	"github.com/example/wortbot/internal/bot"
	"github.com/example/wortbot/internal/config"
	"github.com/example/wortbot/internal/database"
	"github.com/example/wortbot/internal/excel"
	"github.com/example/wortbot/internal/game"
	"github.com/example/wortbot/internal/logger"
	"github.com/example/wortbot/internal/scheduler"
	"github.com/example/wortbot/internal/social"
	"github.com/example/wortbot/internal/stats"
)

// app holds everything built from the configuration
type app struct {
	cfg  *config.Config
	log  *logger.Logger
	db   *sqlx.DB
	deps bot.Deps

	users   *database.UserRepository
	checker *achievements.Checker
}

func newApp(envFile string) (*app, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	db, err := database.Connect(*cfg)
	if err != nil {
		return nil, err
	}

	users := database.NewUserRepository(db)
	words := database.NewWordRepository(db)
	categories := database.NewCategoryRepository(db)
	progress := database.NewProgressRepository(db)
	friends := database.NewFriendRepository(db)
	sentences := database.NewSentenceRepository(db)
	sessions := database.NewSessionRepository(db)
	daily := database.NewDailyStatsRepository(db)
	unlocks := database.NewAchievementRepository(db)

	checker := achievements.NewChecker(achievements.Sources{
		Words:      words,
		Progress:   progress,
		Friends:    friends,
		Sentences:  sentences,
		Sessions:   sessions,
		Activity:   daily,
		Categories: categories,
	}, unlocks, cfg.Mastery, log.With("component", "achievements"))

	gameSvc := game.NewService(game.Stores{
		Words:    words,
		Progress: progress,
		Activity: daily,
		Sessions: sessions,
	}, checker, cfg.Mastery, cfg.Smart, log.With("component", "game"))

	tutor := ai.New(ai.Config{
		APIKey:            cfg.OpenAIAPIKey,
		BaseURL:           cfg.OpenAIBaseURL,
		Model:             cfg.OpenAIModel,
		RequestsPerMinute: cfg.AIRequestsPerMinute,
	}, log.With("component", "ai"))

	return &app{
		cfg:     cfg,
		log:     log,
		db:      db,
		users:   users,
		checker: checker,
		deps: bot.Deps{
			Users:      users,
			Words:      words,
			Categories: categories,
			Sentences:  sentences,
			Unlocks:    unlocks,
			Game:       gameSvc,
			Social:     social.NewService(users, friends, words, log.With("component", "social")),
			Stats:      stats.NewService(words, progress, daily, cfg.Mastery, log.With("component", "stats")),
			Tutor:      tutor,
			Excel:      excel.NewImporter(words, categories, excel.DefaultImportConfig(), log.With("component", "excel")),
			Checker:    checker,
		},
	}, nil
}

func (a *app) close() {
	a.db.Close()
	a.log.Sync()
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "wortbot",
		Short:         "Telegram bot for learning German vocabulary",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env", "", "path to a .env file (default .env)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile)
		},
	}
	root.RunE = serve.RunE

	root.AddCommand(serve, newImportCmd(&envFile), newExportCmd(&envFile), &cobra.Command{
		Use:   "snapshot",
		Short: "Store today's mastered count for every user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(envFile)
			if err != nil {
				return err
			}
			defer a.close()
			sched := scheduler.New(a.users, a.deps.Stats, nil, scheduler.Options{SnapshotTime: a.cfg.SnapshotTime}, a.log)
			n, err := sched.SnapshotAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %d snapshots\n", n)
			return nil
		},
	}, &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(envFile)
			if err != nil {
				return err
			}
			defer a.close()
			a.log.Info("database schema is up to date", "db_type", a.cfg.DBType)
			return nil
		},
	})
	return root
}

func runServe(envFile string) error {
	a, err := newApp(envFile)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := bot.New(a.cfg, a.deps, a.log.With("component", "bot"))
	if err := b.Connect(); err != nil {
		return err
	}
	a.checker.SetNotifier(b)

	if a.cfg.SchedulerEnabled {
		sched := scheduler.New(a.users, a.deps.Stats, b, scheduler.Options{
			StartHour:    a.cfg.NotificationStartHour,
			EndHour:      a.cfg.NotificationEndHour,
			SnapshotTime: a.cfg.SnapshotTime,
		}, a.log.With("component", "scheduler"))
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer sched.Stop()
	}

	a.log.Info("bot started")
	return b.Run(ctx)
}

func newImportCmd(envFile *string) *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "import <file.xlsx|file.csv>",
		Short: "Import a word list for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*envFile)
			if err != nil {
				return err
			}
			defer a.close()
			if _, err := a.users.GetByID(cmd.Context(), userID); err != nil {
				return fmt.Errorf("user %d: %w", userID, err)
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := a.deps.Excel.Import(cmd.Context(), userID, filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "processed %d, created %d, updated %d, skipped %d, new categories %d\n",
				res.TotalProcessed, res.Created, res.Updated, res.Skipped, res.CategoriesCreated)
			for _, e := range res.Errors {
				fmt.Fprintln(out, " ", e)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "Telegram user ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newExportCmd(envFile *string) *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Export a user's words",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*envFile)
			if err != nil {
				return err
			}
			defer a.close()

			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			n, err := a.deps.Excel.Export(cmd.Context(), userID, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d words to %s\n", n, args[0])
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "Telegram user ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
