package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/devlogbr/backend/internal/models"
	"go.uber.org/zap"
)

// articleRepository resolves article slugs for vote targeting. Article
// authoring lives outside this service.
type articleRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *sql.DB, logger *zap.Logger) *articleRepository {
	return &articleRepository{
		db:     db,
		logger: logger,
	}
}

// GetIDBySlug resolves an article slug to its id.
func (r *articleRepository) GetIDBySlug(ctx context.Context, slug string) (int, error) {
	query := `SELECT id FROM articles WHERE slug = ? LIMIT 1`

	var id int
	err := r.db.QueryRowContext(ctx, query, slug).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, models.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to resolve article slug", zap.Error(err), zap.String("slug", slug))
		return 0, fmt.Errorf("failed to resolve article slug: %w", err)
	}

	return id, nil
}
