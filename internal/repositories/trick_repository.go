package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/devlogbr/backend/internal/models"
	"go.uber.org/zap"
)

// trickRepository implements short-post persistence
type trickRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTrickRepository creates a new trick repository
func NewTrickRepository(db *sql.DB, logger *zap.Logger) *trickRepository {
	return &trickRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a trick and links its tags in one transaction. Tags are
// created on first use. A duplicate slug surfaces as models.ErrConflict.
func (r *trickRepository) Create(ctx context.Context, trick *models.Trick) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO tricks (slug, title, content, short_description, author, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, trick.Slug, trick.Title, trick.Content, trick.ShortDescription, trick.Author, trick.CreatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("slug %q already exists: %w", trick.Slug, models.ErrConflict)
		}
		r.logger.Error("failed to create trick", zap.Error(err), zap.String("slug", trick.Slug))
		return fmt.Errorf("failed to create trick: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	trick.ID = int(id)

	for _, tag := range trick.Tags {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tags (name) VALUES (?)
			ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)
		`, tag); err != nil {
			r.logger.Error("failed to upsert tag", zap.Error(err), zap.String("tag", tag))
			return fmt.Errorf("failed to upsert tag: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO trick_tags (trick_id, tag_id) VALUES (?, LAST_INSERT_ID())
		`, trick.ID); err != nil {
			r.logger.Error("failed to link tag", zap.Error(err), zap.String("tag", tag))
			return fmt.Errorf("failed to link tag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetBySlug retrieves a trick with its tag names.
func (r *trickRepository) GetBySlug(ctx context.Context, slug string) (*models.Trick, error) {
	query := `
		SELECT id, slug, title, content, short_description, author, created_at
		FROM tricks
		WHERE slug = ?
		LIMIT 1
	`

	trick := &models.Trick{}
	err := r.db.QueryRowContext(ctx, query, slug).Scan(
		&trick.ID,
		&trick.Slug,
		&trick.Title,
		&trick.Content,
		&trick.ShortDescription,
		&trick.Author,
		&trick.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get trick by slug", zap.Error(err), zap.String("slug", slug))
		return nil, fmt.Errorf("failed to get trick by slug: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT t.name
		FROM tags t
		JOIN trick_tags tt ON tt.tag_id = t.id
		WHERE tt.trick_id = ?
		ORDER BY t.name
	`, trick.ID)
	if err != nil {
		r.logger.Error("failed to query trick tags", zap.Error(err), zap.String("slug", slug))
		return nil, fmt.Errorf("failed to query trick tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		trick.Tags = append(trick.Tags, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tag rows: %w", err)
	}

	return trick, nil
}

// GetIDBySlug resolves a trick slug to its id.
func (r *trickRepository) GetIDBySlug(ctx context.Context, slug string) (int, error) {
	query := `SELECT id FROM tricks WHERE slug = ? LIMIT 1`

	var id int
	err := r.db.QueryRowContext(ctx, query, slug).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, models.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to resolve trick slug", zap.Error(err), zap.String("slug", slug))
		return 0, fmt.Errorf("failed to resolve trick slug: %w", err)
	}

	return id, nil
}

// SlugExists reports whether a trick already uses the slug.
func (r *trickRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	query := `SELECT 1 FROM tricks WHERE slug = ? LIMIT 1`

	var one int
	err := r.db.QueryRowContext(ctx, query, slug).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		r.logger.Error("failed to check trick slug", zap.Error(err), zap.String("slug", slug))
		return false, fmt.Errorf("failed to check trick slug: %w", err)
	}

	return true, nil
}
