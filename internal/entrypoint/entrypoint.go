// Package entrypoint wires the application together: database, repositories,
// loan service, search index, background queue, overdue scheduler and the
// HTTP router, plus graceful shutdown of all of them.
package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openlibry/openlibry/internal/auth"
	"github.com/openlibry/openlibry/internal/batchscan"
	"github.com/openlibry/openlibry/internal/config"
	"github.com/openlibry/openlibry/internal/covers"
	"github.com/openlibry/openlibry/internal/database"
	"github.com/openlibry/openlibry/internal/database/books"
	"github.com/openlibry/openlibry/internal/database/rentals"
	"github.com/openlibry/openlibry/internal/database/users"
	http_controllers "github.com/openlibry/openlibry/internal/http"
	"github.com/openlibry/openlibry/internal/metadata"
	"github.com/openlibry/openlibry/internal/rental"
	"github.com/openlibry/openlibry/internal/scheduler"
	"github.com/openlibry/openlibry/internal/search"
	"github.com/openlibry/openlibry/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT/SIGTERM, then drains it within
// the configured shutdown timeout. onShutdown runs before the server stops
// accepting so background workers can finish their in-flight tasks.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run builds the full application from configuration and serves it.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting OpenLibry v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	bookRepo := books.NewRepository(db.DB)
	userRepo := users.NewRepository(db.DB)
	rentalRepo := rentals.NewRepository(db.DB)

	rentalService := rental.NewService(bookRepo, cfg.Rental)
	bookIndex := search.NewBookIndex(bookRepo)
	aggregator := batchscan.NewAggregator()
	metadataClient := metadata.NewClient()

	// Cover cache lives next to the database file
	coverCacheDir := filepath.Join(filepath.Dir(cfg.Database.Path), "covers")
	coverCache, err := covers.NewCache(coverCacheDir)
	if err != nil {
		log.Printf("WARNING: Failed to initialize cover cache: %v", err)
		coverCache = nil
	} else {
		log.Printf("Cover cache initialized at %s", coverCacheDir)
	}

	// Background task queue for batch imports
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.DefaultConfig()
		taskCfg.Workers = cfg.Tasks.Workers
		taskCfg.ReleaseAfter = cfg.Tasks.ReleaseAfter
		taskCfg.CleanupInterval = cfg.Tasks.CleanupInterval

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		importDeps := tasks.ImportDeps{Books: bookRepo, Index: bookIndex}
		if coverCache != nil {
			importDeps.Covers = coverCache
		}
		taskClient.Register(
			tasks.NewImportEntryQueue(importDeps),
			tasks.NewFetchCoverQueue(importDeps.Covers),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Daily overdue scan stamping reminder timestamps
	scanScheduler := scheduler.NewOverdueScanScheduler(bookRepo, cfg.Reminder)
	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	defer schedulerCancel()
	if err := scanScheduler.Start(schedulerCtx); err != nil {
		log.Fatalf("Failed to start overdue scan scheduler: %v", err)
	}

	// Authentication
	var authService *auth.Service
	var authMiddleware *auth.Middleware
	var sessionManager *auth.SessionManager
	var csrfSecret []byte

	if cfg.Auth.Mode == config.AuthModeLocal {
		log.Printf("Authentication mode: local")

		authService = auth.NewService(db.DB, cfg.Auth)

		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatalf("Failed to get SQL DB for sessions: %v", err)
		}

		sessionManager, err = auth.NewSessionManager(sqlDB, cfg.Auth)
		if err != nil {
			log.Fatalf("Failed to initialize session manager: %v", err)
		}

		authMiddleware = auth.NewMiddleware(authService, sessionManager, cfg.Auth)

		if cfg.Auth.SessionSecret != "" {
			csrfSecret, err = hex.DecodeString(cfg.Auth.SessionSecret)
			if err != nil {
				// Not hex, use as raw bytes
				csrfSecret = []byte(cfg.Auth.SessionSecret)
			}
		} else {
			secret, err := auth.GenerateSessionSecret()
			if err != nil {
				log.Fatalf("Failed to generate CSRF secret: %v", err)
			}
			csrfSecret, _ = hex.DecodeString(secret)
			log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
		}

		hasAccounts, _ := authService.HasAccounts()
		if !hasAccounts {
			log.Printf("No accounts found. POST /api/auth/setup to create an administrator account.")
		}
	} else {
		log.Printf("Authentication mode: none (no authentication required)")
	}

	routerCfg := http_controllers.RouterConfig{
		Database:       db,
		Books:          bookRepo,
		Users:          userRepo,
		Rentals:        rentalRepo,
		RentalService:  rentalService,
		BookIndex:      bookIndex,
		Aggregator:     aggregator,
		Metadata:       metadataClient,
		Scanner:        scanScheduler,
		AuthService:    authService,
		AuthMiddleware: authMiddleware,
		SessionManager: sessionManager,
		AuthConfig:     cfg.Auth,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		Version:        version,
	}
	if coverCache != nil {
		routerCfg.CoverCache = coverCache
	}
	if taskClient != nil {
		routerCfg.Importer = taskClient
		if coverCache != nil {
			routerCfg.CoverWarmer = taskClient
		}
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		scanScheduler.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
