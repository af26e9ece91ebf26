package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openlibry/openlibry/internal/covers"
)

// CoversController serves cached cover images by ISBN.
type CoversController struct {
	cache  CoverStore
	warmer CoverWarmer
}

func NewCoversController(cache CoverStore, warmer CoverWarmer) *CoversController {
	return &CoversController{cache: cache, warmer: warmer}
}

// GetCover streams the cover image for an ISBN, fetching it into the
// cache on first access.
func (controller *CoversController) GetCover(c *gin.Context) {
	isbn := c.Param("isbn")

	path, err := controller.cache.GetCover(isbn)
	if errors.Is(err, covers.ErrNoCover) {
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "no cover available"})
		return
	}
	if err != nil {
		c.IndentedJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.File(path)
}

// InvalidateCover drops the cached file so the next request refetches it.
func (controller *CoversController) InvalidateCover(c *gin.Context) {
	isbn := c.Param("isbn")

	if err := controller.cache.InvalidateCover(isbn); err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Refetch in the background so the next page load finds a warm cache
	if controller.warmer != nil {
		if err := controller.warmer.EnqueueCoverFetch(isbn); err != nil {
			log.Printf("enqueue cover refetch for %s: %v", isbn, err)
		}
	}

	c.IndentedJSON(http.StatusOK, gin.H{"message": "cover invalidated"})
}
