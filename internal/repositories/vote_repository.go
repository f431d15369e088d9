package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/devlogbr/backend/internal/models"
	"go.uber.org/zap"
)

// voteFamilies maps a target kind to its table and target column. The three
// families are structurally identical, so one repository serves them all.
var voteFamilies = map[models.TargetKind]struct {
	table     string
	targetCol string
}{
	models.TargetArticle: {table: "article_votes", targetCol: "article_id"},
	models.TargetTrick:   {table: "trick_votes", targetCol: "trick_id"},
	models.TargetFile:    {table: "file_votes", targetCol: "file_id"},
}

// voteRepository implements vote persistence for one target kind
type voteRepository struct {
	db        *sql.DB
	logger    *zap.Logger
	table     string
	targetCol string
}

// NewVoteRepository creates a vote repository for the given target kind
func NewVoteRepository(db *sql.DB, logger *zap.Logger, kind models.TargetKind) (*voteRepository, error) {
	family, ok := voteFamilies[kind]
	if !ok {
		return nil, fmt.Errorf("unknown vote target kind: %s", kind)
	}

	return &voteRepository{
		db:        db,
		logger:    logger,
		table:     family.table,
		targetCol: family.targetCol,
	}, nil
}

// Get retrieves the live vote for a (user, target) pair.
func (r *voteRepository) Get(ctx context.Context, userID, targetID int) (*models.Vote, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, %s, value
		FROM %s
		WHERE user_id = ? AND %s = ?
		LIMIT 1
	`, r.targetCol, r.table, r.targetCol)

	vote := &models.Vote{}
	err := r.db.QueryRowContext(ctx, query, userID, targetID).Scan(
		&vote.ID,
		&vote.UserID,
		&vote.TargetID,
		&vote.Value,
	)

	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get vote", zap.Error(err), zap.String("table", r.table))
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}

	return vote, nil
}

// Create inserts a new vote. The unique (user_id, target) index is the
// concurrency control of last resort: a racing duplicate insert surfaces as
// models.ErrConflict for the caller to retry as a transition.
func (r *voteRepository) Create(ctx context.Context, vote *models.Vote) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, %s, value)
		VALUES (?, ?, ?)
	`, r.table, r.targetCol)

	result, err := r.db.ExecContext(ctx, query, vote.UserID, vote.TargetID, vote.Value)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("vote already exists: %w", models.ErrConflict)
		}
		r.logger.Error("failed to create vote", zap.Error(err), zap.String("table", r.table))
		return fmt.Errorf("failed to create vote: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	vote.ID = int(id)
	return nil
}

// UpdateValue flips an existing vote in place.
func (r *voteRepository) UpdateValue(ctx context.Context, id, value int) error {
	query := fmt.Sprintf(`UPDATE %s SET value = ? WHERE id = ?`, r.table)

	result, err := r.db.ExecContext(ctx, query, value, id)
	if err != nil {
		r.logger.Error("failed to update vote", zap.Error(err), zap.String("table", r.table))
		return fmt.Errorf("failed to update vote: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrNotFound
	}

	return nil
}

// Delete removes a vote (the toggle-off transition).
func (r *voteRepository) Delete(ctx context.Context, id int) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.table)

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("failed to delete vote", zap.Error(err), zap.String("table", r.table))
		return fmt.Errorf("failed to delete vote: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrNotFound
	}

	return nil
}

// Counts aggregates the authoritative up/down counts for a target directly
// from the vote rows rather than a maintained counter.
func (r *voteRepository) Counts(ctx context.Context, targetID int) (models.VoteCounts, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(SUM(value = 1), 0), COALESCE(SUM(value = -1), 0)
		FROM %s
		WHERE %s = ?
	`, r.table, r.targetCol)

	var counts models.VoteCounts
	err := r.db.QueryRowContext(ctx, query, targetID).Scan(&counts.Upvotes, &counts.Downvotes)
	if err != nil {
		r.logger.Error("failed to count votes", zap.Error(err), zap.String("table", r.table))
		return models.VoteCounts{}, fmt.Errorf("failed to count votes: %w", err)
	}

	return counts, nil
}
