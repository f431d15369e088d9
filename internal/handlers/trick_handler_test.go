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
	"github.com/devlogbr/backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockTrickService delegates to function fields
type mockTrickService struct {
	createTrick func(ctx context.Context, author int, title, content, shortDescription string, tags []string) (*models.Trick, error)
	getTrick    func(ctx context.Context, slug string) (*services.TrickWithVotes, error)
}

func (m *mockTrickService) CreateTrick(ctx context.Context, author int, title, content, shortDescription string, tags []string) (*models.Trick, error) {
	return m.createTrick(ctx, author, title, content, shortDescription, tags)
}

func (m *mockTrickService) GetTrick(ctx context.Context, slug string) (*services.TrickWithVotes, error) {
	return m.getTrick(ctx, slug)
}

func newTrickTestRouter(svc TrickService) (*chi.Mux, *authService.TokenGenerator) {
	tg := authService.NewTokenGenerator("test-secret", time.Hour)
	handler := NewTrickHandler(svc, zap.NewNop())

	r := chi.NewRouter()
	r.Get("/api/tricks/{slug}", handler.Get)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.AuthMiddleware(tg))
		r.Use(authMiddleware.WormMiddleware)
		r.Post("/api/tricks", handler.Create)
	})
	return r, tg
}

func TestTrickHandler_Create(t *testing.T) {
	svc := &mockTrickService{
		createTrick: func(ctx context.Context, author int, title, content, shortDescription string, tags []string) (*models.Trick, error) {
			assert.Equal(t, 7, author)
			assert.Equal(t, "My Trick", title)
			assert.Equal(t, []string{"go", "cli"}, tags)
			return &models.Trick{ID: 1, Slug: "my-trick", Title: title, Content: content, Author: author, Tags: tags}, nil
		},
	}
	router, tg := newTrickTestRouter(svc)

	token, err := tg.GenerateAccessToken(7, true)
	require.NoError(t, err)

	body := `{"title":"My Trick","content":"use :wq","tags":["go","cli"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/tricks", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"slug":"my-trick"`)
}

func TestTrickHandler_CreateSlugConflict(t *testing.T) {
	svc := &mockTrickService{
		createTrick: func(ctx context.Context, author int, title, content, shortDescription string, tags []string) (*models.Trick, error) {
			return nil, models.ErrConflict
		},
	}
	router, tg := newTrickTestRouter(svc)

	token, err := tg.GenerateAccessToken(7, true)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/tricks", strings.NewReader(`{"title":"My Trick","content":"x"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTrickHandler_CreateRequiresWorm(t *testing.T) {
	router, tg := newTrickTestRouter(&mockTrickService{})

	token, err := tg.GenerateAccessToken(7, false)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/tricks", strings.NewReader(`{"title":"My Trick","content":"x"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTrickHandler_Get(t *testing.T) {
	svc := &mockTrickService{
		getTrick: func(ctx context.Context, slug string) (*services.TrickWithVotes, error) {
			assert.Equal(t, "my-trick", slug)
			return &services.TrickWithVotes{
				Trick:   &models.Trick{ID: 1, Slug: slug, Title: "My Trick", Content: "x", Tags: []string{"go"}},
				Upvotes: 2,
			}, nil
		},
	}
	router, _ := newTrickTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/tricks/my-trick", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"upvotes":2`)
}

func TestTrickHandler_GetNotFound(t *testing.T) {
	svc := &mockTrickService{
		getTrick: func(ctx context.Context, slug string) (*services.TrickWithVotes, error) {
			return nil, models.ErrNotFound
		},
	}
	router, _ := newTrickTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/tricks/ghost", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
