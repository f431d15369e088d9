package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	authMiddleware "github.com/devlogbr/backend/internal/auth/middleware"
	"github.com/devlogbr/backend/internal/models"
	"github.com/devlogbr/backend/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// TrickService defines the interface for trick operations
type TrickService interface {
	// Method CreateTrick creates a trick authored by the given user.
	//
	// If some error will occur during creation, the error will be returned together with "nil" value.
	CreateTrick(ctx context.Context, author int, title, content, shortDescription string, tags []string) (*models.Trick, error)
	// Method GetTrick retrieves a trick with its tags and vote counts.
	//
	// If some error will occur during retrieval, the error will be returned together with "nil" value.
	GetTrick(ctx context.Context, slug string) (*services.TrickWithVotes, error)
}

// createTrickRequest is the JSON body for trick creation
type createTrickRequest struct {
	Title            string   `json:"title"`
	Content          string   `json:"content"`
	ShortDescription string   `json:"shortDescription"`
	Tags             []string `json:"tags"`
}

// TrickHandler handles trick-related HTTP requests
type TrickHandler struct {
	BaseHandler
	trickService TrickService
}

// NewTrickHandler creates a new trick handler
func NewTrickHandler(trickService TrickService, logger *zap.Logger) *TrickHandler {
	return &TrickHandler{
		BaseHandler:  BaseHandler{Logger: logger},
		trickService: trickService,
	}
}

// Create handles POST /api/tricks
// @Summary Create a trick
// @Description Create a short post from title, content and tags. The slug is derived from the title; a taken slug is a conflict.
// @Tags tricks
// @Accept json
// @Produce json
// @Param request body createTrickRequest true "Trick fields"
// @Success 201 {object} models.Trick
// @Failure 400 {object} map[string]string "Missing title or content"
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 409 {object} map[string]string "Slug already taken"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/tricks [post]
func (h *TrickHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := authMiddleware.GetUser(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createTrickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	trick, err := h.trickService.CreateTrick(r.Context(), user.ID, req.Title, req.Content, req.ShortDescription, req.Tags)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, trick)
}

// Get handles GET /api/tricks/{slug}
// @Summary Get a trick
// @Description Retrieve a trick with its tags and vote counts
// @Tags tricks
// @Produce json
// @Param slug path string true "Trick slug"
// @Success 200 {object} services.TrickWithVotes
// @Failure 404 {object} map[string]string "Trick not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/tricks/{slug} [get]
func (h *TrickHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	trick, err := h.trickService.GetTrick(r.Context(), slug)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, trick)
}
