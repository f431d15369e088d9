package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	authMiddleware "github.com/devlogbr/backend/internal/auth/middleware"
	authService "github.com/devlogbr/backend/internal/auth/service"
	"github.com/devlogbr/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockVoteService delegates to a function field
type mockVoteService struct {
	castVote func(ctx context.Context, userID int, kind models.TargetKind, targetSlug string, value int) (models.VoteCounts, error)
}

func (m *mockVoteService) CastVote(ctx context.Context, userID int, kind models.TargetKind, targetSlug string, value int) (models.VoteCounts, error) {
	return m.castVote(ctx, userID, kind, targetSlug, value)
}

func newVoteTestRouter(svc VoteService) (*chi.Mux, *authService.TokenGenerator) {
	tg := authService.NewTokenGenerator("test-secret", time.Hour)
	handler := NewVoteHandler(svc, zap.NewNop())

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.AuthMiddleware(tg))
		r.Post("/api/articles/{slug}/vote", handler.VoteArticle)
		r.Post("/api/tricks/{slug}/vote", handler.VoteTrick)
		r.Post("/api/files/{slug}/vote", handler.VoteFile)
	})
	return r, tg
}

func TestVoteHandler_CastVote(t *testing.T) {
	svc := &mockVoteService{
		castVote: func(ctx context.Context, userID int, kind models.TargetKind, slug string, value int) (models.VoteCounts, error) {
			assert.Equal(t, 7, userID)
			assert.Equal(t, models.TargetArticle, kind)
			assert.Equal(t, "my-article", slug)
			assert.Equal(t, 1, value)
			return models.VoteCounts{Upvotes: 3, Downvotes: 1}, nil
		},
	}
	router, tg := newVoteTestRouter(svc)

	token, err := tg.GenerateAccessToken(7, false)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/articles/my-article/vote", strings.NewReader(`{"value":1}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"upvotes":3,"downvotes":1}`, rec.Body.String())
}

func TestVoteHandler_Unauthenticated(t *testing.T) {
	router, _ := newVoteTestRouter(&mockVoteService{})

	req := httptest.NewRequest(http.MethodPost, "/api/tricks/my-trick/vote", strings.NewReader(`{"value":1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVoteHandler_WormAccountCannotVote(t *testing.T) {
	called := false
	svc := &mockVoteService{
		castVote: func(ctx context.Context, userID int, kind models.TargetKind, slug string, value int) (models.VoteCounts, error) {
			called = true
			return models.VoteCounts{}, nil
		},
	}
	router, tg := newVoteTestRouter(svc)

	token, err := tg.GenerateAccessToken(1, true)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/files/some-file/vote", strings.NewReader(`{"value":1}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called, "vote service must not be reached for worm accounts")
}

func TestVoteHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid value", models.NewValidationError("value must be 1 or -1"), http.StatusBadRequest},
		{"unknown target", models.ErrNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockVoteService{
				castVote: func(ctx context.Context, userID int, kind models.TargetKind, slug string, value int) (models.VoteCounts, error) {
					return models.VoteCounts{}, tt.err
				},
			}
			router, tg := newVoteTestRouter(svc)

			token, err := tg.GenerateAccessToken(7, false)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/api/tricks/ghost/vote", strings.NewReader(`{"value":5}`))
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestVoteHandler_InvalidBody(t *testing.T) {
	router, tg := newVoteTestRouter(&mockVoteService{})

	token, err := tg.GenerateAccessToken(7, false)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/articles/my-article/vote", strings.NewReader(`not json`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
