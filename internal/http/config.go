package http

import (
	"github.com/openlibry/openlibry/internal/auth"
	"github.com/openlibry/openlibry/internal/batchscan"
	"github.com/openlibry/openlibry/internal/config"
	"github.com/openlibry/openlibry/internal/database"
	"github.com/openlibry/openlibry/internal/rental"
)

// RouterConfig contains all dependencies and configuration needed to
// create the HTTP router. This replaces a long parameter list in
// NewRouter for better maintainability.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Books    BookStore
	Users    UserStore
	Rentals  RentalLister

	// Loan lifecycle rules
	RentalService *rental.Service

	// Catalog search index
	BookIndex BookSearcher

	// Batch ISBN scanning
	Aggregator *batchscan.Aggregator
	Metadata   MetadataLookup
	Importer   ImportEnqueuer

	// Cover caching
	CoverCache  CoverStore
	CoverWarmer CoverWarmer

	// Overdue reminder scan (manual trigger)
	Scanner OverdueScanner

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	AuthConfig     config.Auth
	CSRFSecret     []byte
	SecureCookies  bool

	// Application info
	Version string
}
