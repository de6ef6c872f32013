package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/wortbot/pkg/models"
)

const requestColumns = `id, from_id, from_display_name, to_id, to_display_name, status, created_at`

// FriendRepository handles friendships and friend requests
type FriendRepository struct {
	db *sqlx.DB
}

// NewFriendRepository creates a new repository instance
func NewFriendRepository(db *sqlx.DB) *FriendRepository {
	return &FriendRepository{db: db}
}

// ListByUser returns the learner's friends sorted by name
func (r *FriendRepository) ListByUser(ctx context.Context, userID int64) ([]models.Friend, error) {
	query := r.db.Rebind(`SELECT user_id, friend_id, display_name, since FROM friends
		WHERE user_id = ? ORDER BY display_name, friend_id`)
	var friends []models.Friend
	if err := r.db.SelectContext(ctx, &friends, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get friends: %w", err)
	}
	return friends, nil
}

// AreFriends reports whether userID has friendID in their friend list
func (r *FriendRepository) AreFriends(ctx context.Context, userID, friendID int64) (bool, error) {
	var n int
	query := r.db.Rebind(`SELECT COUNT(*) FROM friends WHERE user_id = ? AND friend_id = ?`)
	if err := r.db.GetContext(ctx, &n, query, userID, friendID); err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return n > 0, nil
}

// CreateRequest stores a pending request
func (r *FriendRepository) CreateRequest(ctx context.Context, req *models.FriendRequest) error {
	query := r.db.Rebind(`INSERT INTO friend_requests (` + requestColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		req.ID, req.FromID, req.FromDisplayName, req.ToID, req.ToDisplayName, req.Status, req.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create friend request: %w", err)
	}
	return nil
}

// GetRequest returns a request by id
func (r *FriendRepository) GetRequest(ctx context.Context, id string) (*models.FriendRequest, error) {
	var req models.FriendRequest
	query := r.db.Rebind(`SELECT ` + requestColumns + ` FROM friend_requests WHERE id = ?`)
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, fmt.Errorf("failed to get friend request: %w", notFound(err))
	}
	return &req, nil
}

// FindRequest returns the request sent from one user to another, in any status
func (r *FriendRepository) FindRequest(ctx context.Context, fromID, toID int64) (*models.FriendRequest, error) {
	var req models.FriendRequest
	query := r.db.Rebind(`SELECT ` + requestColumns + ` FROM friend_requests WHERE from_id = ? AND to_id = ?`)
	if err := r.db.GetContext(ctx, &req, query, fromID, toID); err != nil {
		return nil, fmt.Errorf("failed to find friend request: %w", notFound(err))
	}
	return &req, nil
}

// PendingFor returns requests waiting for the user's answer, oldest first
func (r *FriendRepository) PendingFor(ctx context.Context, toID int64) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	query := r.db.Rebind(`SELECT ` + requestColumns + ` FROM friend_requests
		WHERE to_id = ? AND status = ? ORDER BY created_at`)
	if err := r.db.SelectContext(ctx, &reqs, query, toID, models.RequestPending); err != nil {
		return nil, fmt.Errorf("failed to get pending requests: %w", err)
	}
	return reqs, nil
}

// DeleteRequest removes a request
func (r *FriendRepository) DeleteRequest(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM friend_requests WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete friend request: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("failed to delete friend request: %w", ErrNotFound)
	}
	return nil
}

// Accept marks the request accepted and writes both friend rows atomically
func (r *FriendRepository) Accept(ctx context.Context, req *models.FriendRequest, at time.Time) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE friend_requests SET status = ? WHERE id = ? AND status = ?`),
			models.RequestAccepted, req.ID, models.RequestPending)
		if err != nil {
			return fmt.Errorf("failed to accept friend request: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return fmt.Errorf("failed to accept friend request: %w", ErrNotFound)
		}

		insert := tx.Rebind(`INSERT INTO friends (user_id, friend_id, display_name, since)
			VALUES (?, ?, ?, ?) ON CONFLICT (user_id, friend_id) DO NOTHING`)
		if _, err := tx.ExecContext(ctx, insert, req.ToID, req.FromID, req.FromDisplayName, at.UTC()); err != nil {
			return fmt.Errorf("failed to add friend: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insert, req.FromID, req.ToID, req.ToDisplayName, at.UTC()); err != nil {
			return fmt.Errorf("failed to add friend: %w", err)
		}
		req.Status = models.RequestAccepted
		return nil
	})
}

// Remove deletes the friendship in both directions along with old requests
func (r *FriendRepository) Remove(ctx context.Context, userID, friendID int64) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM friends
			WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)`),
			userID, friendID, friendID, userID)
		if err != nil {
			return fmt.Errorf("failed to remove friend: %w", err)
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM friend_requests
			WHERE (from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)`),
			userID, friendID, friendID, userID)
		if err != nil {
			return fmt.Errorf("failed to remove friend requests: %w", err)
		}
		return nil
	})
}
