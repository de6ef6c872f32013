package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/wortbot/pkg/models"
)

const wordColumns = `id, user_id, german, spanish, type, difficulty, category_id, gender,
	grammatical_case, is_regular, past_tense, participle, separable_prefixes,
	imported_from, created_at, updated_at`

// WordRepository handles database operations for words
type WordRepository struct {
	db *sqlx.DB
}

// NewWordRepository creates a new repository instance
func NewWordRepository(db *sqlx.DB) *WordRepository {
	return &WordRepository{db: db}
}

// ListByUser returns all words of a learner, oldest first
func (r *WordRepository) ListByUser(ctx context.Context, userID int64) ([]models.Word, error) {
	query := r.db.Rebind(`SELECT ` + wordColumns + ` FROM words WHERE user_id = ? ORDER BY id`)
	var words []models.Word
	if err := r.db.SelectContext(ctx, &words, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get words: %w", err)
	}
	return words, nil
}

// ListLatest returns up to limit most recently added words of a learner
func (r *WordRepository) ListLatest(ctx context.Context, userID int64, limit int) ([]models.Word, error) {
	query := r.db.Rebind(`SELECT ` + wordColumns + ` FROM words WHERE user_id = ? ORDER BY id DESC LIMIT ?`)
	var words []models.Word
	if err := r.db.SelectContext(ctx, &words, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to get latest words: %w", err)
	}
	return words, nil
}

// GetByID returns a word owned by the learner
func (r *WordRepository) GetByID(ctx context.Context, userID, id int64) (*models.Word, error) {
	query := r.db.Rebind(`SELECT ` + wordColumns + ` FROM words WHERE id = ? AND user_id = ?`)
	var word models.Word
	if err := r.db.GetContext(ctx, &word, query, id, userID); err != nil {
		return nil, fmt.Errorf("failed to get word by ID: %w", notFound(err))
	}
	return &word, nil
}

// FindByKey looks a word up by its German term and type, case-insensitively
func (r *WordRepository) FindByKey(ctx context.Context, userID int64, german string, wordType models.WordType) (*models.Word, error) {
	query := r.db.Rebind(`SELECT ` + wordColumns + ` FROM words
		WHERE user_id = ? AND LOWER(german) = ? AND type = ? ORDER BY id LIMIT 1`)
	var word models.Word
	err := r.db.GetContext(ctx, &word, query, userID, strings.ToLower(strings.TrimSpace(german)), wordType)
	if err != nil {
		return nil, fmt.Errorf("failed to find word: %w", notFound(err))
	}
	return &word, nil
}

// CountByUser returns the number of stored (base) words
func (r *WordRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM words WHERE user_id = ?`), userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count words: %w", err)
	}
	return n, nil
}

// Create inserts a new word
func (r *WordRepository) Create(ctx context.Context, word *models.Word) error {
	now := time.Now().UTC()
	word.Difficulty = models.ClampDifficulty(word.Difficulty)
	word.CreatedAt, word.UpdatedAt = now, now

	id, err := insertID(ctx, r.db, `
		INSERT INTO words (user_id, german, spanish, type, difficulty, category_id, gender,
			grammatical_case, is_regular, past_tense, participle, separable_prefixes,
			imported_from, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		word.UserID, word.German, word.Spanish, word.Type, word.Difficulty, word.CategoryID,
		word.Gender, word.Case, word.IsRegular, word.PastTense, word.Participle, word.Prefixes,
		word.ImportedFrom, word.CreatedAt, word.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create word: %w", err)
	}
	word.ID = id
	return nil
}

// Update modifies an existing word of the learner
func (r *WordRepository) Update(ctx context.Context, word *models.Word) error {
	word.Difficulty = models.ClampDifficulty(word.Difficulty)
	word.UpdatedAt = time.Now().UTC()

	query := r.db.Rebind(`
		UPDATE words SET
			german = ?, spanish = ?, type = ?, difficulty = ?, category_id = ?,
			gender = ?, grammatical_case = ?, is_regular = ?, past_tense = ?,
			participle = ?, separable_prefixes = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`)
	result, err := r.db.ExecContext(ctx, query,
		word.German, word.Spanish, word.Type, word.Difficulty, word.CategoryID,
		word.Gender, word.Case, word.IsRegular, word.PastTense,
		word.Participle, word.Prefixes, word.UpdatedAt,
		word.ID, word.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update word: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("failed to update word %d: %w", word.ID, ErrNotFound)
	}
	return nil
}

// Delete removes a word together with its progress
func (r *WordRepository) Delete(ctx context.Context, userID, id int64) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM words WHERE id = ? AND user_id = ?`), id, userID)
		if err != nil {
			return fmt.Errorf("failed to delete word: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("failed to delete word %d: %w", id, ErrNotFound)
		}

		wordID := models.Word{ID: id}.Key()
		_, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM progress WHERE user_id = ? AND word_id = ?`), userID, wordID)
		if err != nil {
			return fmt.Errorf("failed to delete word progress: %w", err)
		}
		return nil
	})
}
