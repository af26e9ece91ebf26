package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openlibry/openlibry/internal/config"
	"github.com/openlibry/openlibry/internal/entities"
)

// Context keys for account data
const (
	ContextKeyAccountID = "auth_account_id"
	ContextKeyUsername  = "auth_username"
	ContextKeyRole      = "auth_role"
)

// DefaultAccountID is used when authentication is disabled.
const DefaultAccountID = uint(0)

// Middleware handles authentication for HTTP requests.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
	config         config.Auth
	publicPaths    map[string]bool
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, sessionManager *SessionManager, cfg config.Auth) *Middleware {
	publicPaths := map[string]bool{
		"/health":          true,
		"/ping":            true,
		"/api/auth/login":  true,
		"/api/auth/setup":  true,
		"/api/auth/status": true,
		"/favicon.ico":     true,
	}

	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
		config:         cfg,
		publicPaths:    publicPaths,
	}
}

// Handler returns a Gin middleware handler that authenticates requests.
func (m *Middleware) Handler() gin.HandlerFunc {
	if m.config.Mode == config.AuthModeNone {
		return m.noAuthHandler()
	}
	return m.authHandler()
}

// noAuthHandler injects DefaultAccountID for all requests when auth is disabled.
func (m *Middleware) noAuthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyAccountID, DefaultAccountID)
		c.Next()
	}
}

// authHandler handles authentication when auth is enabled.
func (m *Middleware) authHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.isPublicPath(c.Request.URL.Path) {
			c.Set(ContextKeyAccountID, DefaultAccountID)
			c.Next()
			return
		}

		if account := m.trySessionAuth(c); account != nil {
			m.setAccountContext(c, account)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "authentication required",
		})
	}
}

// trySessionAuth attempts to authenticate using the session cookie.
func (m *Middleware) trySessionAuth(c *gin.Context) *entities.Account {
	if m.sessionManager == nil {
		return nil
	}

	accountID := m.sessionManager.GetAccountID(c.Request)
	if accountID == 0 {
		return nil
	}

	account, err := m.service.GetAccountByID(accountID)
	if err != nil {
		return nil
	}

	return account
}

// setAccountContext stores account information in the Gin context.
func (m *Middleware) setAccountContext(c *gin.Context, account *entities.Account) {
	c.Set(ContextKeyAccountID, account.ID)
	c.Set(ContextKeyUsername, account.Username)
	c.Set(ContextKeyRole, account.Role)
}

// isPublicPath checks if a path is accessible without authentication.
func (m *Middleware) isPublicPath(path string) bool {
	if m.publicPaths[path] {
		return true
	}

	// Cover images are served to the catalog views without login
	if strings.HasPrefix(path, "/covers/") {
		return true
	}

	return false
}

// RequireRole returns a middleware that requires one of the given roles.
func (m *Middleware) RequireRole(roles ...entities.AccountRole) gin.HandlerFunc {
	roleSet := make(map[entities.AccountRole]bool)
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		// Skip role check if auth is disabled
		if m.config.Mode == config.AuthModeNone {
			c.Next()
			return
		}

		role := GetAccountRole(c)
		if !roleSet[role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "insufficient permissions",
			})
			return
		}
		c.Next()
	}
}

// Helper functions to extract auth data from the Gin context

// GetAccountID retrieves the authenticated account's ID from the context.
// Returns DefaultAccountID (0) if not authenticated or auth is disabled.
func GetAccountID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyAccountID); exists {
		if accountID, ok := id.(uint); ok {
			return accountID
		}
	}
	return DefaultAccountID
}

// GetUsername retrieves the authenticated account's username from the context.
func GetUsername(c *gin.Context) string {
	if name, exists := c.Get(ContextKeyUsername); exists {
		if username, ok := name.(string); ok {
			return username
		}
	}
	return ""
}

// GetAccountRole retrieves the authenticated account's role from the context.
func GetAccountRole(c *gin.Context) entities.AccountRole {
	if r, exists := c.Get(ContextKeyRole); exists {
		if role, ok := r.(entities.AccountRole); ok {
			return role
		}
	}
	return ""
}
