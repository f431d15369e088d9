// Package storage manages the public directory tree that disk-backed assets
// are written to and served from.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/devlogbr/backend/internal/models"
)

const (
	// wallpaperDir is where resized wallpapers are published; files under it
	// are addressed by the /img/wallpapers/... public link.
	wallpaperDir = "img/wallpapers"

	// attachmentDir holds trick attachments, one subdirectory per trick slug.
	attachmentDir = "tricks_bins"
)

// PublicStorage is a filesystem area confined to a single root. Every path
// served from it is re-resolved and checked for containment, so neither ".."
// segments nor symlinks can escape the root.
type PublicStorage struct {
	root string
}

// NewPublicStorage creates the root directory if needed and resolves it to a
// canonical absolute path.
func NewPublicStorage(root string) (*PublicStorage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve public root: %w", err)
	}

	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create public root: %w", err)
	}

	// Canonicalize once so later containment checks compare resolved paths.
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize public root: %w", err)
	}

	return &PublicStorage{root: resolved}, nil
}

// Root returns the canonical absolute public root.
func (s *PublicStorage) Root() string {
	return s.root
}

// WriteWallpaper publishes a wallpaper image and returns its public link
// path (e.g. /img/wallpapers/wallpaper-sunset.png).
func (s *PublicStorage) WriteWallpaper(filename string, data []byte) (string, error) {
	filename = filepath.Base(filename)
	if _, err := s.write(filepath.Join(s.root, wallpaperDir, filename), data, 0644); err != nil {
		return "", err
	}
	return "/" + wallpaperDir + "/" + filename, nil
}

// WriteAttachment stores a trick attachment with restrictive permissions and
// returns its absolute disk path.
func (s *PublicStorage) WriteAttachment(trickSlug, filename string, data []byte) (string, error) {
	trickSlug = filepath.Base(trickSlug)
	filename = filepath.Base(filename)
	return s.write(filepath.Join(s.root, attachmentDir, trickSlug, filename), data, 0600)
}

// write creates the parent directory and writes data to a temporary file
// first, renaming into place so a partial write is never visible under the
// final name.
func (s *PublicStorage) write(target string, data []byte, perm os.FileMode) (string, error) {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to set file permissions: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}

	return target, nil
}

// Open resolves a stored disk path and opens it for reading. Paths that
// resolve outside the public root (via ".." or symlinks) return
// models.ErrForbidden; missing files return models.ErrNotFound.
func (s *PublicStorage) Open(diskPath string) (*os.File, error) {
	resolved, err := s.resolveInside(diskPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// resolveInside canonicalizes diskPath and verifies it stays under the root.
// String prefix comparison is not enough: the path is fully resolved first so
// that symlink targets are checked too.
func (s *PublicStorage) resolveInside(diskPath string) (string, error) {
	abs, err := filepath.Abs(diskPath)
	if err != nil {
		return "", models.ErrForbidden
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", models.ErrNotFound
		}
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	rel, err := filepath.Rel(s.root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", models.ErrForbidden
	}

	return resolved, nil
}
