package services

import (
	"context"
	"fmt"
	"time"

	"github.com/devlogbr/backend/internal/models"
	"github.com/devlogbr/backend/internal/slugger"
	"go.uber.org/zap"
)

// TrickRepository defines persistence for tricks
type TrickRepository interface {
	Create(ctx context.Context, trick *models.Trick) error
	GetBySlug(ctx context.Context, slug string) (*models.Trick, error)
	GetIDBySlug(ctx context.Context, slug string) (int, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// TrickWithVotes is a trick plus its aggregate vote counts.
type TrickWithVotes struct {
	*models.Trick
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}

// TrickService handles short-post creation and lookup.
type TrickService struct {
	tricks TrickRepository
	votes  VoteRepository
	logger *zap.Logger
}

// NewTrickService creates a new trick service
func NewTrickService(tricks TrickRepository, votes VoteRepository, logger *zap.Logger) *TrickService {
	return &TrickService{
		tricks: tricks,
		votes:  votes,
		logger: logger,
	}
}

// CreateTrick creates a trick authored by the given user. Unlike file
// uploads, a taken slug is a hard conflict here: the author is asked to pick
// a different title instead of getting a suffixed slug.
func (s *TrickService) CreateTrick(ctx context.Context, author int, title, content, shortDescription string, tags []string) (*models.Trick, error) {
	if title == "" || content == "" {
		return nil, models.NewValidationError("Title and content are required.")
	}

	slug := slugger.Slugify(title)
	if slug == "" {
		return nil, models.NewValidationError("Title must contain at least one letter or digit.")
	}

	taken, err := s.tricks.SlugExists(ctx, slug)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("a trick with slug %q already exists: %w", slug, models.ErrConflict)
	}

	trick := &models.Trick{
		Slug:      slug,
		Title:     title,
		Content:   content,
		Author:    author,
		Tags:      normalizeTags(tags),
		CreatedAt: time.Now().UTC(),
	}
	if shortDescription != "" {
		trick.ShortDescription = &shortDescription
	}

	if err := s.tricks.Create(ctx, trick); err != nil {
		return nil, err
	}

	s.logger.Info("trick created", zap.String("slug", trick.Slug), zap.Int("author", author))
	return trick, nil
}

// GetTrick retrieves a trick with its tags and vote counts.
func (s *TrickService) GetTrick(ctx context.Context, slug string) (*TrickWithVotes, error) {
	trick, err := s.tricks.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	counts, err := s.votes.Counts(ctx, trick.ID)
	if err != nil {
		return nil, err
	}

	return &TrickWithVotes{
		Trick:     trick,
		Upvotes:   counts.Upvotes,
		Downvotes: counts.Downvotes,
	}, nil
}

// normalizeTags slugifies tag names, dropping empties and duplicates.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, tag := range tags {
		normalized := slugger.Slugify(tag)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		out = append(out, normalized)
	}
	return out
}
