package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/devlogbr/backend/internal/models"
	"go.uber.org/zap"
)

// VoteRepository defines the persistence operations for one vote family
type VoteRepository interface {
	// Get retrieves the live vote for a (user, target) pair, or models.ErrNotFound.
	Get(ctx context.Context, userID, targetID int) (*models.Vote, error)

	// Create inserts a new vote; a racing duplicate surfaces as models.ErrConflict.
	Create(ctx context.Context, vote *models.Vote) error

	// UpdateValue flips an existing vote in place.
	UpdateValue(ctx context.Context, id, value int) error

	// Delete removes a vote.
	Delete(ctx context.Context, id int) error

	// Counts aggregates the authoritative up/down counts for a target.
	Counts(ctx context.Context, targetID int) (models.VoteCounts, error)
}

// TargetResolver resolves a public slug to the target's id
type TargetResolver interface {
	GetIDBySlug(ctx context.Context, slug string) (int, error)
}

// ledger pairs a vote family's repository with its target resolver
type ledger struct {
	votes   VoteRepository
	targets TargetResolver
}

// VoteService implements the toggleable voting ledger shared by articles,
// tricks and files. Per (user, target) pair the state machine has three
// states: none, up, down.
type VoteService struct {
	ledgers map[models.TargetKind]ledger
	logger  *zap.Logger
}

// NewVoteService creates a new vote service
func NewVoteService(logger *zap.Logger) *VoteService {
	return &VoteService{
		ledgers: make(map[models.TargetKind]ledger),
		logger:  logger,
	}
}

// Register wires one target kind into the ledger.
func (s *VoteService) Register(kind models.TargetKind, votes VoteRepository, targets TargetResolver) {
	s.ledgers[kind] = ledger{votes: votes, targets: targets}
}

// CastVote applies one vote transition for the user on the target identified
// by slug and returns the recomputed counts. value must be +1 or -1.
//
// Transitions: no vote creates one; repeating the same direction toggles the
// vote off; the opposite direction flips the stored value in place.
//
// The caller is responsible for authentication and for barring excluded
// account classes; this service only enforces the one-vote-per-pair rule.
func (s *VoteService) CastVote(ctx context.Context, userID int, kind models.TargetKind, targetSlug string, value int) (models.VoteCounts, error) {
	if value != 1 && value != -1 {
		return models.VoteCounts{}, models.NewValidationError("value must be 1 or -1")
	}

	l, ok := s.ledgers[kind]
	if !ok {
		return models.VoteCounts{}, fmt.Errorf("no vote ledger registered for kind %q", kind)
	}

	targetID, err := l.targets.GetIDBySlug(ctx, targetSlug)
	if err != nil {
		return models.VoteCounts{}, err
	}

	if err := s.transition(ctx, l, userID, targetID, value); err != nil {
		return models.VoteCounts{}, err
	}

	return l.votes.Counts(ctx, targetID)
}

// transition performs the single read-then-write vote state change.
func (s *VoteService) transition(ctx context.Context, l ledger, userID, targetID, value int) error {
	current, err := l.votes.Get(ctx, userID, targetID)

	if errors.Is(err, models.ErrNotFound) {
		createErr := l.votes.Create(ctx, &models.Vote{UserID: userID, TargetID: targetID, Value: value})
		if !errors.Is(createErr, models.ErrConflict) {
			return createErr
		}

		// A concurrent request created the first vote for this pair between
		// our read and insert. Re-read and fall through to the regular
		// toggle/flip handling instead of duplicating the row.
		s.logger.Info("vote create raced, retrying as transition",
			zap.Int("user_id", userID),
			zap.Int("target_id", targetID),
		)
		current, err = l.votes.Get(ctx, userID, targetID)
		if errors.Is(err, models.ErrNotFound) {
			// The racing vote was toggled off again already; treat the pair
			// as settled rather than retrying indefinitely.
			return nil
		}
	}
	if err != nil {
		return err
	}

	if current.Value == value {
		return l.votes.Delete(ctx, current.ID)
	}
	return l.votes.UpdateValue(ctx, current.ID, value)
}
