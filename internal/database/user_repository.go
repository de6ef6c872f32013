package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/wortbot/pkg/models"
)

const userColumns = `id, username, display_name, first_name, last_name, is_admin,
	notification_enabled, notification_hour, created_at, updated_at`

// UserRepository handles database operations for users
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new repository instance
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID returns a user by Telegram ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", notFound(err))
	}
	return &user, nil
}

// GetAll returns all users
func (r *UserRepository) GetAll(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return users, nil
}

// Upsert stores a user seen on Telegram, refreshing the profile fields.
// Display name and settings are left alone for existing users.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	query := r.db.Rebind(`
		INSERT INTO users (id, username, first_name, last_name, is_admin,
			notification_enabled, notification_hour, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			is_admin = excluded.is_admin,
			updated_at = excluded.updated_at`)
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.FirstName, user.LastName, user.IsAdmin,
		user.NotificationEnabled, user.NotificationHour, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// SetDisplayName changes the public name; uniqueness is case-insensitive
func (r *UserRepository) SetDisplayName(ctx context.Context, id int64, name string) error {
	query := r.db.Rebind(`UPDATE users SET display_name = ?, display_name_lower = ?, updated_at = ? WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query, name, strings.ToLower(name), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set display name: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("failed to set display name: %w", ErrNotFound)
	}
	return nil
}

// FindByDisplayName looks a user up by exact display name, ignoring case
func (r *UserRepository) FindByDisplayName(ctx context.Context, name string) (*models.User, error) {
	var user models.User
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE display_name_lower = ?`)
	if err := r.db.GetContext(ctx, &user, query, strings.ToLower(strings.TrimSpace(name))); err != nil {
		return nil, fmt.Errorf("failed to find user by display name: %w", notFound(err))
	}
	return &user, nil
}

// SearchByDisplayName returns users whose display name starts with prefix
func (r *UserRepository) SearchByDisplayName(ctx context.Context, prefix string, limit int) ([]models.User, error) {
	pattern := escapeLike(strings.ToLower(strings.TrimSpace(prefix))) + "%"
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users
		WHERE display_name_lower <> '' AND display_name_lower LIKE ? ESCAPE '\'
		ORDER BY display_name_lower LIMIT ?`)
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, pattern, limit); err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

// UpdateNotifications changes the reminder settings of a user
func (r *UserRepository) UpdateNotifications(ctx context.Context, id int64, enabled bool, hour int) error {
	query := r.db.Rebind(`UPDATE users SET notification_enabled = ?, notification_hour = ?, updated_at = ? WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query, enabled, hour, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update notifications: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("failed to update notifications: %w", ErrNotFound)
	}
	return nil
}

// GetUsersForNotification returns users who have notifications enabled for the given hour
func (r *UserRepository) GetUsersForNotification(ctx context.Context, hour int) ([]models.User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users
		WHERE notification_enabled = ? AND notification_hour = ?`)
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, true, hour); err != nil {
		return nil, fmt.Errorf("failed to get users with condition: %w", err)
	}
	return users, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
