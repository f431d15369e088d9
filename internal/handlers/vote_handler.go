package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	authMiddleware "github.com/devlogbr/backend/internal/auth/middleware"
	"github.com/devlogbr/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// VoteService defines the interface for vote operations
type VoteService interface {
	// Method CastVote applies one vote transition and returns the recomputed counts.
	//
	// "value" parameter must be 1 or -1.
	//
	// If some error will occur during the transition, the error will be returned together with zero counts.
	CastVote(ctx context.Context, userID int, kind models.TargetKind, targetSlug string, value int) (models.VoteCounts, error)
}

// voteRequest is the JSON body for vote endpoints
type voteRequest struct {
	Value int `json:"value"`
}

// VoteHandler handles vote-related HTTP requests for all target kinds
type VoteHandler struct {
	BaseHandler
	voteService VoteService
}

// NewVoteHandler creates a new vote handler
func NewVoteHandler(voteService VoteService, logger *zap.Logger) *VoteHandler {
	return &VoteHandler{
		BaseHandler: BaseHandler{Logger: logger},
		voteService: voteService,
	}
}

// VoteArticle handles POST /api/articles/{slug}/vote
// @Summary Vote on an article
// @Description Toggleable vote: same direction removes the vote, opposite direction flips it
// @Tags votes
// @Accept json
// @Produce json
// @Param slug path string true "Article slug"
// @Param request body voteRequest true "Vote value, 1 or -1"
// @Success 200 {object} models.VoteCounts
// @Failure 400 {object} map[string]string "Invalid value"
// @Failure 401 {object} map[string]string "Authentication required or voting not available"
// @Failure 404 {object} map[string]string "Article not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/articles/{slug}/vote [post]
func (h *VoteHandler) VoteArticle(w http.ResponseWriter, r *http.Request) {
	h.castVote(w, r, models.TargetArticle)
}

// VoteTrick handles POST /api/tricks/{slug}/vote
// @Summary Vote on a trick
// @Description Toggleable vote: same direction removes the vote, opposite direction flips it
// @Tags votes
// @Accept json
// @Produce json
// @Param slug path string true "Trick slug"
// @Param request body voteRequest true "Vote value, 1 or -1"
// @Success 200 {object} models.VoteCounts
// @Failure 400 {object} map[string]string "Invalid value"
// @Failure 401 {object} map[string]string "Authentication required or voting not available"
// @Failure 404 {object} map[string]string "Trick not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/tricks/{slug}/vote [post]
func (h *VoteHandler) VoteTrick(w http.ResponseWriter, r *http.Request) {
	h.castVote(w, r, models.TargetTrick)
}

// VoteFile handles POST /api/files/{slug}/vote
// @Summary Vote on a file
// @Description Toggleable vote: same direction removes the vote, opposite direction flips it
// @Tags votes
// @Accept json
// @Produce json
// @Param slug path string true "File slug"
// @Param request body voteRequest true "Vote value, 1 or -1"
// @Success 200 {object} models.VoteCounts
// @Failure 400 {object} map[string]string "Invalid value"
// @Failure 401 {object} map[string]string "Authentication required or voting not available"
// @Failure 404 {object} map[string]string "File not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/files/{slug}/vote [post]
func (h *VoteHandler) VoteFile(w http.ResponseWriter, r *http.Request) {
	h.castVote(w, r, models.TargetFile)
}

// castVote is the shared handler body for the three vote families. Worm
// accounts author content but are excluded from voting.
func (h *VoteHandler) castVote(w http.ResponseWriter, r *http.Request, kind models.TargetKind) {
	user, ok := authMiddleware.GetUser(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if user.Worm {
		h.RespondError(w, http.StatusUnauthorized, "voting is not available for this account")
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	slug := chi.URLParam(r, "slug")
	counts, err := h.voteService.CastVote(r.Context(), user.ID, kind, slug, req.Value)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, counts)
}
