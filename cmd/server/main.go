package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	authMiddleware "github.com/devlogbr/backend/internal/auth/middleware"
	authService "github.com/devlogbr/backend/internal/auth/service"
	"github.com/devlogbr/backend/internal/config"
	"github.com/devlogbr/backend/internal/handlers"
	"github.com/devlogbr/backend/internal/logger"
	"github.com/devlogbr/backend/internal/middlewares"
	"github.com/devlogbr/backend/internal/models"
	"github.com/devlogbr/backend/internal/repositories"
	"github.com/devlogbr/backend/internal/services"
	"github.com/devlogbr/backend/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title DevLog Storage API
// @version 1.0
// @description Content storage and voting backend: file uploads, wallpapers, trick attachments and toggleable votes.

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT access token, sent as "Bearer <token>"
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting DevLog storage service")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize JWT token generator (for auth middleware)
	tokenGenerator := authService.NewTokenGenerator(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	// Initialize public storage
	publicStorage, err := storage.NewPublicStorage(cfg.Storage.PublicRoot)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize public storage", zap.Error(err))
	}

	// Initialize repositories
	fileRepo := repositories.NewFileRepository(db, logger.Logger)
	trickRepo := repositories.NewTrickRepository(db, logger.Logger)
	articleRepo := repositories.NewArticleRepository(db, logger.Logger)

	articleVotes, err := repositories.NewVoteRepository(db, logger.Logger, models.TargetArticle)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize article vote repository", zap.Error(err))
	}
	trickVotes, err := repositories.NewVoteRepository(db, logger.Logger, models.TargetTrick)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize trick vote repository", zap.Error(err))
	}
	fileVotes, err := repositories.NewVoteRepository(db, logger.Logger, models.TargetFile)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize file vote repository", zap.Error(err))
	}

	// Initialize services
	fileService := services.NewFileService(fileRepo, trickRepo, publicStorage, logger.Logger)
	trickService := services.NewTrickService(trickRepo, trickVotes, logger.Logger)

	voteService := services.NewVoteService(logger.Logger)
	voteService.Register(models.TargetArticle, articleVotes, articleRepo)
	voteService.Register(models.TargetTrick, trickVotes, trickRepo)
	voteService.Register(models.TargetFile, fileVotes, fileRepo)

	// Initialize middleware
	authMw := authMiddleware.AuthMiddleware(tokenGenerator)

	// Initialize handlers
	fileHandler := handlers.NewFileHandler(fileService, logger.Logger)
	trickHandler := handlers.NewTrickHandler(trickService, logger.Logger)
	voteHandler := handlers.NewVoteHandler(voteService, logger.Logger)
	healthHandler := handlers.NewHealthHandler(db, logger.Logger)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middlewares.RequestIDMiddleware)
	r.Use(middlewares.LoggerMiddleware(logger.Logger))
	r.Use(middlewares.RecoveryMiddleware(logger.Logger))
	r.Use(middlewares.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(middlewares.RequestSizeLimitMiddleware(cfg.Storage.MaxUploadSize))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	// Health check
	r.Get("/health", healthHandler.Health)

	// Public file retrieval
	r.Get("/f/{slug}", fileHandler.Retrieve)

	r.Route("/api", func(r chi.Router) {
		// Public reads
		r.Get("/tricks/{slug}", trickHandler.Get)
		r.Get("/wallpapers", fileHandler.Wallpapers)

		// Voting requires a signed-in, non-worm user; the handler enforces
		// the worm exclusion.
		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.Post("/articles/{slug}/vote", voteHandler.VoteArticle)
			r.Post("/tricks/{slug}/vote", voteHandler.VoteTrick)
			r.Post("/files/{slug}/vote", voteHandler.VoteFile)
		})

		// Authoring is restricted to worm accounts
		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.Use(authMiddleware.WormMiddleware)
			r.Post("/files", fileHandler.Upload)
			r.Post("/tricks", trickHandler.Create)
			r.Post("/tricks/{slug}/bin", fileHandler.AttachToTrick)
		})
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second, // Longer timeout for file uploads
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directory if running from cmd
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationPath,
		"mysql",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
