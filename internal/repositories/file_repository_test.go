package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/devlogbr/backend/internal/models"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupFileTestRepository creates a file repository with a mock database
func setupFileTestRepository(t *testing.T) (*fileRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewFileRepository(db, zap.NewNop())

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func TestFileRepository_Create(t *testing.T) {
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		file          *models.File
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
	}{
		{
			name: "inline upload",
			file: &models.File{
				Slug:      "my-notes",
				Title:     "My Notes",
				Mime:      "text/markdown",
				Buff:      []byte("# notes"),
				CreatedAt: createdAt,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO files`).
					WithArgs("my-notes", "My Notes", "text/markdown", []byte("# notes"), nil, nil, nil, createdAt).
					WillReturnResult(sqlmock.NewResult(42, 1))
			},
		},
		{
			name: "wallpaper link record keeps blob NULL",
			file: &models.File{
				Slug:      "wallpaper-sunset",
				Title:     "Wallpaper Sunset",
				Mime:      "image/png",
				Link:      "/img/wallpapers/wallpaper-sunset.png",
				CreatedAt: createdAt,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO files`).
					WithArgs("wallpaper-sunset", "Wallpaper Sunset", "image/png", nil, nil,
						"/img/wallpapers/wallpaper-sunset.png", nil, createdAt).
					WillReturnResult(sqlmock.NewResult(43, 1))
			},
		},
		{
			name: "duplicate slug maps to conflict",
			file: &models.File{
				Slug:      "my-notes",
				Title:     "My Notes",
				Mime:      "text/markdown",
				Buff:      []byte("# notes"),
				CreatedAt: createdAt,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO files`).
					WithArgs("my-notes", "My Notes", "text/markdown", []byte("# notes"), nil, nil, nil, createdAt).
					WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'my-notes'"})
			},
			expectedError: models.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupFileTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.Create(context.Background(), tt.file)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				require.NoError(t, err)
				assert.NotZero(t, tt.file.ID)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestFileRepository_GetBySlug(t *testing.T) {
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("disk-backed record", func(t *testing.T) {
		repo, mock, cleanup := setupFileTestRepository(t)
		defer cleanup()

		rows := sqlmock.NewRows([]string{"id", "slug", "title", "mime", "buff", "disk_path", "link", "trick_id", "created_at"}).
			AddRow(7, "attach-1", "Attachment", "application/zip", nil, "/srv/public/tricks_bins/t/a.zip", nil, 3, createdAt)
		mock.ExpectQuery(`SELECT id, slug, title, mime, buff, disk_path, link, trick_id, created_at\s+FROM files`).
			WithArgs("attach-1").
			WillReturnRows(rows)

		file, err := repo.GetBySlug(context.Background(), "attach-1")
		require.NoError(t, err)
		assert.Equal(t, "/srv/public/tricks_bins/t/a.zip", file.DiskPath)
		assert.Empty(t, file.Link)
		assert.Empty(t, file.Buff)
		require.NotNil(t, file.TrickID)
		assert.Equal(t, 3, *file.TrickID)
	})

	t.Run("unknown slug", func(t *testing.T) {
		repo, mock, cleanup := setupFileTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT id, slug, title, mime, buff, disk_path, link, trick_id, created_at\s+FROM files`).
			WithArgs("nope").
			WillReturnRows(sqlmock.NewRows([]string{"id", "slug", "title", "mime", "buff", "disk_path", "link", "trick_id", "created_at"}))

		_, err := repo.GetBySlug(context.Background(), "nope")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestFileRepository_SlugExists(t *testing.T) {
	repo, mock, cleanup := setupFileTestRepository(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT 1 FROM files`).
		WithArgs("taken").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(`SELECT 1 FROM files`).
		WithArgs("free").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	exists, err := repo.SlugExists(context.Background(), "taken")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.SlugExists(context.Background(), "free")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFileRepository_ListWallpapers(t *testing.T) {
	repo, mock, cleanup := setupFileTestRepository(t)
	defer cleanup()

	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "slug", "title", "mime", "link", "created_at", "upvotes", "downvotes"}).
		AddRow(1, "wallpaper-sunset", "Wallpaper Sunset", "image/png", "/img/wallpapers/wallpaper-sunset.png", createdAt, 3, 1).
		AddRow(2, "wallpaper-ocean", "Wallpaper Ocean", "image/jpeg", "/img/wallpapers/wallpaper-ocean.jpg", createdAt, 0, 0)
	mock.ExpectQuery(`FROM files f\s+LEFT JOIN file_votes v`).
		WillReturnRows(rows)

	wallpapers, err := repo.ListWallpapers(context.Background())
	require.NoError(t, err)
	require.Len(t, wallpapers, 2)
	assert.Equal(t, "wallpaper-sunset", wallpapers[0].Slug)
	assert.Equal(t, 3, wallpapers[0].Upvotes)
	assert.Equal(t, 1, wallpapers[0].Downvotes)
}
