package services

import (
	"context"
	"errors"
	"testing"

	"github.com/devlogbr/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memVoteRepository is an in-memory VoteRepository used to exercise the
// ledger's transition logic.
type memVoteRepository struct {
	votes      map[int]*models.Vote // by id
	nextID     int
	createErrs []error // errors to return from successive Create calls
	getMisses  int     // initial Get calls that report no vote, to stage races
}

func newMemVoteRepository() *memVoteRepository {
	return &memVoteRepository{votes: make(map[int]*models.Vote), nextID: 1}
}

func (m *memVoteRepository) Get(ctx context.Context, userID, targetID int) (*models.Vote, error) {
	if m.getMisses > 0 {
		m.getMisses--
		return nil, models.ErrNotFound
	}
	for _, v := range m.votes {
		if v.UserID == userID && v.TargetID == targetID {
			clone := *v
			return &clone, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memVoteRepository) Create(ctx context.Context, vote *models.Vote) error {
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		if err != nil {
			return err
		}
	}
	for _, v := range m.votes {
		if v.UserID == vote.UserID && v.TargetID == vote.TargetID {
			return models.ErrConflict
		}
	}
	vote.ID = m.nextID
	m.nextID++
	stored := *vote
	m.votes[stored.ID] = &stored
	return nil
}

func (m *memVoteRepository) UpdateValue(ctx context.Context, id, value int) error {
	v, ok := m.votes[id]
	if !ok {
		return models.ErrNotFound
	}
	v.Value = value
	return nil
}

func (m *memVoteRepository) Delete(ctx context.Context, id int) error {
	if _, ok := m.votes[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.votes, id)
	return nil
}

func (m *memVoteRepository) Counts(ctx context.Context, targetID int) (models.VoteCounts, error) {
	var counts models.VoteCounts
	for _, v := range m.votes {
		if v.TargetID != targetID {
			continue
		}
		if v.Value == 1 {
			counts.Upvotes++
		} else {
			counts.Downvotes++
		}
	}
	return counts, nil
}

// liveVotes counts the live rows for a pair; the uniqueness invariant demands
// this never exceeds one.
func (m *memVoteRepository) liveVotes(userID, targetID int) int {
	n := 0
	for _, v := range m.votes {
		if v.UserID == userID && v.TargetID == targetID {
			n++
		}
	}
	return n
}

// staticResolver resolves a fixed slug set
type staticResolver map[string]int

func (r staticResolver) GetIDBySlug(ctx context.Context, slug string) (int, error) {
	id, ok := r[slug]
	if !ok {
		return 0, models.ErrNotFound
	}
	return id, nil
}

func newTestVoteService(repo VoteRepository, targets TargetResolver) *VoteService {
	s := NewVoteService(zap.NewNop())
	s.Register(models.TargetArticle, repo, targets)
	return s
}

func TestCastVote_ToggleSequence(t *testing.T) {
	ctx := context.Background()
	repo := newMemVoteRepository()
	s := newTestVoteService(repo, staticResolver{"my-article": 3})

	// up: none -> up
	counts, err := s.CastVote(ctx, 7, models.TargetArticle, "my-article", 1)
	require.NoError(t, err)
	assert.Equal(t, models.VoteCounts{Upvotes: 1, Downvotes: 0}, counts)

	// up again: toggle off
	counts, err = s.CastVote(ctx, 7, models.TargetArticle, "my-article", 1)
	require.NoError(t, err)
	assert.Equal(t, models.VoteCounts{Upvotes: 0, Downvotes: 0}, counts)

	// down: none -> down
	counts, err = s.CastVote(ctx, 7, models.TargetArticle, "my-article", -1)
	require.NoError(t, err)
	assert.Equal(t, models.VoteCounts{Upvotes: 0, Downvotes: 1}, counts)

	assert.Equal(t, 1, repo.liveVotes(7, 3))
}

func TestCastVote_FlipIsSingleMutation(t *testing.T) {
	ctx := context.Background()
	repo := newMemVoteRepository()
	s := newTestVoteService(repo, staticResolver{"my-article": 3})

	_, err := s.CastVote(ctx, 7, models.TargetArticle, "my-article", 1)
	require.NoError(t, err)

	counts, err := s.CastVote(ctx, 7, models.TargetArticle, "my-article", -1)
	require.NoError(t, err)
	assert.Equal(t, models.VoteCounts{Upvotes: 0, Downvotes: 1}, counts)
	assert.Equal(t, 1, repo.liveVotes(7, 3), "flip must mutate in place, not create a second row")
}

func TestCastVote_CountsAcrossUsers(t *testing.T) {
	ctx := context.Background()
	repo := newMemVoteRepository()
	s := newTestVoteService(repo, staticResolver{"my-article": 3})

	for user := 1; user <= 4; user++ {
		_, err := s.CastVote(ctx, user, models.TargetArticle, "my-article", 1)
		require.NoError(t, err)
	}
	counts, err := s.CastVote(ctx, 5, models.TargetArticle, "my-article", -1)
	require.NoError(t, err)

	assert.Equal(t, models.VoteCounts{Upvotes: 4, Downvotes: 1}, counts)
}

func TestCastVote_InvalidValue(t *testing.T) {
	ctx := context.Background()
	repo := newMemVoteRepository()
	s := newTestVoteService(repo, staticResolver{"my-article": 3})

	for _, value := range []int{0, 2, -2, 100} {
		_, err := s.CastVote(ctx, 7, models.TargetArticle, "my-article", value)
		var validationErr *models.ValidationError
		assert.ErrorAs(t, err, &validationErr, "value %d must be rejected", value)
	}
	assert.Empty(t, repo.votes, "invalid values must not touch storage")
}

func TestCastVote_UnknownTarget(t *testing.T) {
	ctx := context.Background()
	s := newTestVoteService(newMemVoteRepository(), staticResolver{})

	_, err := s.CastVote(ctx, 7, models.TargetArticle, "ghost", 1)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCastVote_UnregisteredKind(t *testing.T) {
	ctx := context.Background()
	s := newTestVoteService(newMemVoteRepository(), staticResolver{"my-article": 3})

	_, err := s.CastVote(ctx, 7, models.TargetFile, "my-article", 1)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrNotFound)
}

func TestCastVote_CreateRaceRetriesAsTransition(t *testing.T) {
	ctx := context.Background()
	repo := newMemVoteRepository()
	s := newTestVoteService(repo, staticResolver{"my-article": 3})

	// Simulate a concurrent first vote landing between read and insert: the
	// first read sees no row, the insert hits the unique index, and the
	// re-read finds the racing vote holding the opposite direction.
	existing := &models.Vote{ID: 99, UserID: 7, TargetID: 3, Value: -1}
	repo.votes[existing.ID] = existing
	repo.getMisses = 1

	counts, err := s.CastVote(ctx, 7, models.TargetArticle, "my-article", 1)
	require.NoError(t, err)

	assert.Equal(t, models.VoteCounts{Upvotes: 1, Downvotes: 0}, counts)
	assert.Equal(t, 1, repo.liveVotes(7, 3))
}

func TestCastVote_RepositoryErrorPropagates(t *testing.T) {
	ctx := context.Background()
	repo := newMemVoteRepository()
	repo.createErrs = []error{errors.New("db down")}
	s := newTestVoteService(repo, staticResolver{"my-article": 3})

	_, err := s.CastVote(ctx, 7, models.TargetArticle, "my-article", 1)
	assert.Error(t, err)
}
