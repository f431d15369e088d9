package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/devlogbr/backend/internal/filetype"
	"github.com/devlogbr/backend/internal/imaging"
	"github.com/devlogbr/backend/internal/models"
	"github.com/devlogbr/backend/internal/slugger"
	"github.com/kennygrant/sanitize"
	"go.uber.org/zap"
)

// wallpaperPrefix marks uploads that are published as external-link wallpapers.
const wallpaperPrefix = "wallpaper"

// attachmentBaseMaxLen caps the slugified base of attachment filenames.
const attachmentBaseMaxLen = 60

// FileRepository defines persistence for asset records
type FileRepository interface {
	Create(ctx context.Context, file *models.File) error
	GetBySlug(ctx context.Context, slug string) (*models.File, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListWallpapers(ctx context.Context) ([]models.Wallpaper, error)
}

// PublicStorage defines the confined disk area used for wallpapers and
// attachments
type PublicStorage interface {
	// WriteWallpaper publishes a wallpaper and returns its public link path.
	WriteWallpaper(filename string, data []byte) (string, error)

	// WriteAttachment stores an attachment and returns its absolute disk path.
	WriteAttachment(trickSlug, filename string, data []byte) (string, error)

	// Open opens a stored disk path, enforcing public-root containment.
	Open(diskPath string) (*os.File, error)
}

// RetrievedFile is the result of resolving a slug for download. Exactly one
// of Reader and RedirectURL is set.
type RetrievedFile struct {
	Mime         string
	Reader       io.ReadCloser
	RedirectURL  string
	DownloadName string
}

// FileService handles asset ingestion, storage backend selection and secure
// retrieval.
type FileService struct {
	files   FileRepository
	tricks  TargetResolver
	storage PublicStorage
	logger  *zap.Logger
}

// NewFileService creates a new file service
func NewFileService(files FileRepository, tricks TargetResolver, storage PublicStorage, logger *zap.Logger) *FileService {
	return &FileService{
		files:   files,
		tricks:  tricks,
		storage: storage,
		logger:  logger,
	}
}

// Upload classifies and stores a generic upload. Wallpapers (title prefix
// "wallpaper", image content) are resized and published to the public
// directory with only a link kept in the record; other images are resized to
// the default width and stored inline; everything else is stored inline
// unchanged.
func (s *FileService) Upload(ctx context.Context, title, clientName string, data []byte) (*models.File, error) {
	if title == "" || len(data) == 0 {
		return nil, models.NewValidationError("Both file and title are required.")
	}

	mime, ext := filetype.Detect(data, clientName)
	if !filetype.Allowed(mime, clientName) {
		return nil, models.NewValidationError("Unsupported file type. Only text (md/txt), images, archives and binary files are accepted.")
	}

	slug, err := slugger.Allocate(ctx, title, s.files.SlugExists)
	if err != nil {
		return nil, err
	}

	file := &models.File{
		Slug:      slug,
		Title:     title,
		Mime:      mime,
		CreatedAt: time.Now().UTC(),
	}

	isWallpaper := strings.HasPrefix(strings.ToLower(title), wallpaperPrefix) && filetype.IsImage(mime)
	switch {
	case isWallpaper:
		out, err := imaging.FitWidth(data, mime, imaging.WallpaperMaxWidth)
		if err != nil {
			return nil, fmt.Errorf("failed to resize wallpaper: %w", err)
		}

		link, err := s.storage.WriteWallpaper(slug+"."+ext, out)
		if err != nil {
			return nil, fmt.Errorf("failed to publish wallpaper: %w", err)
		}
		file.Link = link

	case filetype.IsImage(mime):
		out, err := imaging.FitWidth(data, mime, imaging.DefaultMaxWidth)
		if err != nil {
			return nil, fmt.Errorf("failed to resize image: %w", err)
		}
		file.Buff = out

	default:
		file.Buff = data
	}

	if err := s.files.Create(ctx, file); err != nil {
		return nil, err
	}

	s.logger.Info("file stored",
		zap.String("slug", file.Slug),
		zap.String("mime", file.Mime),
		zap.Bool("wallpaper", isWallpaper),
	)
	return file, nil
}

// AttachToTrick stores an upload as a disk-backed attachment of an existing
// trick. Executable/script-like extensions are rejected even when the general
// allow-list accepts them, because attachments are served to the public.
func (s *FileService) AttachToTrick(ctx context.Context, trickSlug, title, clientName string, data []byte) (*models.File, error) {
	if len(data) == 0 {
		return nil, models.NewValidationError("File is required")
	}

	trickID, err := s.tricks.GetIDBySlug(ctx, trickSlug)
	if err != nil {
		return nil, err
	}

	mime, ext := filetype.Detect(data, clientName)
	if !filetype.Allowed(mime, clientName) {
		return nil, models.NewValidationError("Unsupported file type. Only text (md/txt), images, archives and binary files are accepted.")
	}
	if filetype.ForbiddenAttachment(ext) || filetype.ForbiddenAttachment(filetype.Ext(clientName)) {
		return nil, models.NewValidationError("File type not allowed for trick attachments")
	}

	if title == "" {
		title = clientName
	}
	if title == "" {
		title = trickSlug + "-attach"
	}

	base := slugger.Slugify(truncate(title, attachmentBaseMaxLen))
	if base == "" {
		base = "file"
	}
	// Timestamp suffix keeps concurrent attachment writes from colliding on
	// the same filename.
	filename := fmt.Sprintf("%s-%d.%s", base, time.Now().UnixMilli(), ext)

	diskPath, err := s.storage.WriteAttachment(trickSlug, filename, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store attachment: %w", err)
	}

	slug, err := slugger.Allocate(ctx, title, s.files.SlugExists)
	if err != nil {
		return nil, err
	}

	file := &models.File{
		Slug:      slug,
		Title:     title,
		Mime:      mime,
		DiskPath:  diskPath,
		TrickID:   &trickID,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.files.Create(ctx, file); err != nil {
		return nil, err
	}

	s.logger.Info("attachment stored",
		zap.String("slug", file.Slug),
		zap.String("trick", trickSlug),
		zap.String("mime", file.Mime),
	)
	return file, nil
}

// Retrieve resolves a slug to its stored bytes or redirect link. Disk-backed
// records are opened through the containment-checked storage; a path that
// escapes the public root returns models.ErrForbidden.
func (s *FileService) Retrieve(ctx context.Context, slug string) (*RetrievedFile, error) {
	file, err := s.files.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	switch {
	case file.DiskPath != "":
		f, err := s.storage.Open(file.DiskPath)
		if err != nil {
			return nil, err
		}
		return &RetrievedFile{
			Mime:         file.Mime,
			Reader:       f,
			DownloadName: downloadName(file),
		}, nil

	case file.Link != "":
		return &RetrievedFile{Mime: file.Mime, RedirectURL: file.Link}, nil

	case len(file.Buff) > 0:
		return &RetrievedFile{
			Mime:         file.Mime,
			Reader:       io.NopCloser(bytes.NewReader(file.Buff)),
			DownloadName: downloadName(file),
		}, nil

	default:
		// Violates the one-locator invariant; treat as absent.
		s.logger.Warn("file record has no storage locator", zap.String("slug", slug))
		return nil, models.ErrNotFound
	}
}

// Wallpapers lists wallpaper records with vote counts.
func (s *FileService) Wallpapers(ctx context.Context) ([]models.Wallpaper, error) {
	return s.files.ListWallpapers(ctx)
}

// downloadName derives a header-safe attachment filename from the title.
func downloadName(file *models.File) string {
	name := sanitize.Name(file.Title)
	if name == "" || name == "." {
		name = file.Slug
	}
	return name
}

// truncate shortens s to at most n bytes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
