package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/wortbot/pkg/models"
)

// CategoryRepository handles database operations for word categories
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new repository instance
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ListByUser returns the learner's categories sorted by name
func (r *CategoryRepository) ListByUser(ctx context.Context, userID int64) ([]models.Category, error) {
	query := r.db.Rebind(`SELECT id, user_id, name, created_at FROM categories WHERE user_id = ? ORDER BY name`)
	var categories []models.Category
	if err := r.db.SelectContext(ctx, &categories, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

// GetByName returns a category of the learner by exact name
func (r *CategoryRepository) GetByName(ctx context.Context, userID int64, name string) (*models.Category, error) {
	query := r.db.Rebind(`SELECT id, user_id, name, created_at FROM categories WHERE user_id = ? AND name = ?`)
	var c models.Category
	if err := r.db.GetContext(ctx, &c, query, userID, strings.TrimSpace(name)); err != nil {
		return nil, fmt.Errorf("failed to get category by name: %w", notFound(err))
	}
	return &c, nil
}

// GetOrCreate returns the named category, creating it when missing
func (r *CategoryRepository) GetOrCreate(ctx context.Context, userID int64, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("category name is empty")
	}

	c, err := r.GetByName(ctx, userID, name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	c = &models.Category{UserID: userID, Name: name, CreatedAt: time.Now().UTC()}
	id, err := insertID(ctx, r.db, `INSERT INTO categories (user_id, name, created_at) VALUES (?, ?, ?)`,
		c.UserID, c.Name, c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	c.ID = id
	return c, nil
}

// Delete removes a category and detaches its words
func (r *CategoryRepository) Delete(ctx context.Context, userID, id int64) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM categories WHERE id = ? AND user_id = ?`), id, userID)
		if err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return fmt.Errorf("failed to delete category %d: %w", id, ErrNotFound)
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(`UPDATE words SET category_id = 0 WHERE user_id = ? AND category_id = ?`), userID, id)
		if err != nil {
			return fmt.Errorf("failed to detach words from category: %w", err)
		}
		return nil
	})
}
