// Package http wires the JSON API: routing, middleware order and the
// controllers serving the catalog, borrowers, loans and batch import.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/openlibry/openlibry/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Security headers on all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	// Session runs after CSRF so session context isn't overwritten by
	// CSRF's request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	} else {
		// No auth - inject the default account ID
		router.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyAccountID, auth.DefaultAccountID)
			c.Next()
		})
	}

	// Auth endpoints
	if cfg.AuthService != nil && cfg.AuthService.IsAuthEnabled() {
		authController := auth.NewController(cfg.AuthService, cfg.SessionManager, cfg.AuthConfig)
		authController.RegisterRoutes(router)
	}

	// Controllers
	health := NewHealthController(cfg.Database, cfg.Version)
	booksController := NewBooksController(cfg.Books, cfg.BookIndex)
	usersController := NewUsersController(cfg.Users, cfg.Books, cfg.Rentals)
	rentalsController := NewRentalsController(cfg.RentalService, cfg.Rentals)
	reportsController := NewReportsController(cfg.Rentals, cfg.Scanner)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Book catalog endpoints
	router.GET("/api/books", booksController.GetAllBooks)
	router.GET("/api/books/search", booksController.SearchBooks)
	router.GET("/api/books/:id", booksController.GetBook)
	router.POST("/api/books", booksController.CreateBook)
	router.PATCH("/api/books/:id", booksController.UpdateBook)
	router.DELETE("/api/books/:id", booksController.DeleteBook)

	// Loan lifecycle endpoints
	router.POST("/api/books/:id/rent", rentalsController.RentBook)
	router.POST("/api/books/:id/return", rentalsController.ReturnBook)
	router.POST("/api/books/:id/extend", rentalsController.ExtendBook)
	router.GET("/api/rentals", rentalsController.GetRentals)

	// Borrower endpoints
	router.GET("/api/users", usersController.GetAllUsers)
	router.GET("/api/users/search", usersController.SearchUsers)
	router.GET("/api/users/:id", usersController.GetUser)
	router.GET("/api/users/:id/books", usersController.GetUserBooks)
	router.POST("/api/users", usersController.CreateUser)
	router.PATCH("/api/users/:id", usersController.UpdateUser)
	router.DELETE("/api/users/:id", usersController.DeleteUser)

	// Overdue report endpoints
	router.GET("/api/reports/overdue", reportsController.GetOverdue)
	router.POST("/api/reports/overdue/scan", reportsController.RunScan)

	// Batch scan endpoints
	if cfg.Aggregator != nil {
		batchScanController := NewBatchScanController(cfg.Aggregator, cfg.Metadata, cfg.Importer)
		router.GET("/api/batchscan", batchScanController.List)
		router.POST("/api/batchscan/lookup", batchScanController.Lookup)
		router.POST("/api/batchscan/quantity", batchScanController.SetQuantity)
		router.DELETE("/api/batchscan/:isbn", batchScanController.Remove)
		router.POST("/api/batchscan/import", batchScanController.Import)
	}

	// Cover endpoints
	if cfg.CoverCache != nil {
		coversController := NewCoversController(cfg.CoverCache, cfg.CoverWarmer)
		router.GET("/covers/:isbn", coversController.GetCover)
		router.DELETE("/api/covers/:isbn", coversController.InvalidateCover)
	}

	return router
}
