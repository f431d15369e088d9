package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/devlogbr/backend/internal/models"
	"go.uber.org/zap"
)

// fileRepository implements file record persistence
type fileRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewFileRepository creates a new file repository
func NewFileRepository(db *sql.DB, logger *zap.Logger) *fileRepository {
	return &fileRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new file record. A duplicate slug surfaces as
// models.ErrConflict.
func (r *fileRepository) Create(ctx context.Context, file *models.File) error {
	query := `
		INSERT INTO files (slug, title, mime, buff, disk_path, link, trick_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		file.Slug,
		file.Title,
		file.Mime,
		nullBytes(file.Buff),
		nullString(file.DiskPath),
		nullString(file.Link),
		file.TrickID,
		file.CreatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("slug %q already exists: %w", file.Slug, models.ErrConflict)
		}
		r.logger.Error("failed to create file record", zap.Error(err), zap.String("slug", file.Slug))
		return fmt.Errorf("failed to create file record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	file.ID = int(id)
	return nil
}

// GetBySlug retrieves a file record by slug, including the inline blob.
func (r *fileRepository) GetBySlug(ctx context.Context, slug string) (*models.File, error) {
	query := `
		SELECT id, slug, title, mime, buff, disk_path, link, trick_id, created_at
		FROM files
		WHERE slug = ?
		LIMIT 1
	`

	file := &models.File{}
	var diskPath, link sql.NullString
	err := r.db.QueryRowContext(ctx, query, slug).Scan(
		&file.ID,
		&file.Slug,
		&file.Title,
		&file.Mime,
		&file.Buff,
		&diskPath,
		&link,
		&file.TrickID,
		&file.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get file by slug", zap.Error(err), zap.String("slug", slug))
		return nil, fmt.Errorf("failed to get file by slug: %w", err)
	}

	file.DiskPath = diskPath.String
	file.Link = link.String
	return file, nil
}

// GetIDBySlug resolves a file slug to its id for vote targeting.
func (r *fileRepository) GetIDBySlug(ctx context.Context, slug string) (int, error) {
	query := `SELECT id FROM files WHERE slug = ? LIMIT 1`

	var id int
	err := r.db.QueryRowContext(ctx, query, slug).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, models.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to resolve file slug", zap.Error(err), zap.String("slug", slug))
		return 0, fmt.Errorf("failed to resolve file slug: %w", err)
	}

	return id, nil
}

// SlugExists reports whether a file record already uses the slug.
func (r *fileRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	query := `SELECT 1 FROM files WHERE slug = ? LIMIT 1`

	var one int
	err := r.db.QueryRowContext(ctx, query, slug).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		r.logger.Error("failed to check slug existence", zap.Error(err), zap.String("slug", slug))
		return false, fmt.Errorf("failed to check slug existence: %w", err)
	}

	return true, nil
}

// ListWallpapers returns wallpaper records with their vote counts, blob
// excluded.
func (r *fileRepository) ListWallpapers(ctx context.Context) ([]models.Wallpaper, error) {
	query := `
		SELECT f.id, f.slug, f.title, f.mime, COALESCE(f.link, ''), f.created_at,
			COALESCE(SUM(v.value = 1), 0) AS upvotes,
			COALESCE(SUM(v.value = -1), 0) AS downvotes
		FROM files f
		LEFT JOIN file_votes v ON v.file_id = f.id
		WHERE f.slug LIKE 'wallpaper-%'
		GROUP BY f.id
		ORDER BY f.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to query wallpapers", zap.Error(err))
		return nil, fmt.Errorf("failed to query wallpapers: %w", err)
	}
	defer rows.Close()

	var wallpapers []models.Wallpaper
	for rows.Next() {
		var w models.Wallpaper
		if err := rows.Scan(&w.ID, &w.Slug, &w.Title, &w.Mime, &w.Link, &w.CreatedAt, &w.Upvotes, &w.Downvotes); err != nil {
			r.logger.Error("failed to scan wallpaper", zap.Error(err))
			return nil, fmt.Errorf("failed to scan wallpaper: %w", err)
		}
		wallpapers = append(wallpapers, w)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating wallpaper rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating wallpaper rows: %w", err)
	}

	return wallpapers, nil
}

// nullString converts an empty string to SQL NULL so that the exclusive
// storage-locator columns stay NULL when unused.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullBytes converts an empty buffer to SQL NULL.
func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
