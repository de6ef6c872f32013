package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/example/wortbot/internal/config"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

const (
	driverSQLite   = "sqlite3"
	driverPostgres = "postgres"
)

// Connect opens the database configured by DB_TYPE and creates the schema
func Connect(cfg config.Config) (*sqlx.DB, error) {
	if cfg.DBType == "postgres" {
		return Open(driverPostgres, cfg.DatabaseURL)
	}

	// Create data directory if it doesn't exist
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	return Open(driverSQLite, cfg.DBPath)
}

// Open connects with the given driver and migrates the schema
func Open(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == driverSQLite {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates missing tables and indexes
func Migrate(db *sqlx.DB) error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.DriverName() == driverPostgres {
		idColumn = "BIGSERIAL PRIMARY KEY"
	}

	statements := []struct {
		name  string
		query string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id BIGINT PRIMARY KEY,
				username TEXT NOT NULL DEFAULT '',
				display_name TEXT NOT NULL DEFAULT '',
				display_name_lower TEXT NOT NULL DEFAULT '',
				first_name TEXT NOT NULL DEFAULT '',
				last_name TEXT NOT NULL DEFAULT '',
				is_admin BOOLEAN NOT NULL DEFAULT false,
				notification_enabled BOOLEAN NOT NULL DEFAULT true,
				notification_hour INTEGER NOT NULL DEFAULT 9,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`},
		{"users display name index", `
			CREATE UNIQUE INDEX IF NOT EXISTS idx_users_display_name
			ON users (display_name_lower) WHERE display_name_lower <> ''`},
		{"categories", `
			CREATE TABLE IF NOT EXISTS categories (
				id ` + idColumn + `,
				user_id BIGINT NOT NULL,
				name TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (user_id, name)
			)`},
		{"words", `
			CREATE TABLE IF NOT EXISTS words (
				id ` + idColumn + `,
				user_id BIGINT NOT NULL,
				german TEXT NOT NULL,
				spanish TEXT NOT NULL,
				type TEXT NOT NULL DEFAULT 'other',
				difficulty INTEGER NOT NULL DEFAULT 1,
				category_id BIGINT NOT NULL DEFAULT 0,
				gender TEXT NOT NULL DEFAULT '',
				grammatical_case TEXT NOT NULL DEFAULT '',
				is_regular BOOLEAN NOT NULL DEFAULT true,
				past_tense TEXT NOT NULL DEFAULT '',
				participle TEXT NOT NULL DEFAULT '',
				separable_prefixes TEXT NOT NULL DEFAULT '[]',
				imported_from TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`},
		{"words index", `CREATE INDEX IF NOT EXISTS idx_words_user ON words (user_id, german, type)`},
		{"progress", `
			CREATE TABLE IF NOT EXISTS progress (
				id ` + idColumn + `,
				user_id BIGINT NOT NULL,
				word_id TEXT NOT NULL,
				correct INTEGER NOT NULL DEFAULT 0,
				incorrect INTEGER NOT NULL DEFAULT 0,
				correct_streak INTEGER NOT NULL DEFAULT 0,
				last_reviewed TIMESTAMP NULL,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (user_id, word_id)
			)`},
		{"daily_stats", `
			CREATE TABLE IF NOT EXISTS daily_stats (
				id ` + idColumn + `,
				user_id BIGINT NOT NULL,
				day TEXT NOT NULL,
				mastered_count INTEGER NOT NULL DEFAULT 0,
				played_count INTEGER NOT NULL DEFAULT 0,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (user_id, day)
			)`},
		{"sentence_attempts", `
			CREATE TABLE IF NOT EXISTS sentence_attempts (
				id ` + idColumn + `,
				user_id BIGINT NOT NULL,
				sentence TEXT NOT NULL,
				ideal_translation TEXT NOT NULL DEFAULT '',
				user_translation TEXT NOT NULL DEFAULT '',
				score INTEGER NOT NULL DEFAULT 0,
				feedback TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`},
		{"game_sessions", `
			CREATE TABLE IF NOT EXISTS game_sessions (
				id TEXT PRIMARY KEY,
				user_id BIGINT NOT NULL,
				mode TEXT NOT NULL,
				answered INTEGER NOT NULL DEFAULT 0,
				correct INTEGER NOT NULL DEFAULT 0,
				incorrect INTEGER NOT NULL DEFAULT 0,
				started_at TIMESTAMP NOT NULL,
				finished_at TIMESTAMP NOT NULL
			)`},
		{"achievements", `
			CREATE TABLE IF NOT EXISTS achievements (
				user_id BIGINT NOT NULL,
				achievement_id TEXT NOT NULL,
				unlocked_at TIMESTAMP NOT NULL,
				PRIMARY KEY (user_id, achievement_id)
			)`},
		{"friend_requests", `
			CREATE TABLE IF NOT EXISTS friend_requests (
				id TEXT PRIMARY KEY,
				from_id BIGINT NOT NULL,
				from_display_name TEXT NOT NULL DEFAULT '',
				to_id BIGINT NOT NULL,
				to_display_name TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL,
				UNIQUE (from_id, to_id)
			)`},
		{"friends", `
			CREATE TABLE IF NOT EXISTS friends (
				user_id BIGINT NOT NULL,
				friend_id BIGINT NOT NULL,
				display_name TEXT NOT NULL DEFAULT '',
				since TIMESTAMP NOT NULL,
				PRIMARY KEY (user_id, friend_id)
			)`},
	}

	for _, st := range statements {
		if _, err := db.Exec(st.query); err != nil {
			return fmt.Errorf("failed to create %s: %w", st.name, err)
		}
	}
	return nil
}

// insertID runs an INSERT and returns the generated id.
// Postgres needs RETURNING, SQLite reports it through LastInsertId.
func insertID(ctx context.Context, ext sqlx.ExtContext, query string, args ...interface{}) (int64, error) {
	query = ext.Rebind(query)
	if ext.DriverName() == driverPostgres {
		var id int64
		err := ext.QueryRowxContext(ctx, query+" RETURNING id", args...).Scan(&id)
		return id, err
	}
	res, err := ext.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// withTx runs fn in a transaction, rolling back on error
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// notFound maps sql.ErrNoRows to ErrNotFound
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
