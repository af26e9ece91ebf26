// Package covers caches book cover images on disk, keyed by ISBN.
// OpenLibrary answers every cover request with 200, so a tiny body is
// treated as the "no cover" placeholder.
package covers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/openlibry/openlibry/internal/batchscan"
)

// ErrNoCover means the covers service has no real image for the ISBN.
var ErrNoCover = errors.New("no cover available")

// placeholderThreshold is the body size below which a response is
// considered the OpenLibrary 1x1 placeholder rather than a real cover.
const placeholderThreshold = 1000

// Cache handles local caching of book cover images.
type Cache struct {
	cacheDir   string
	coversURL  string
	httpClient *http.Client
}

// NewCache creates a new cover cache at the specified directory.
func NewCache(cacheDir string) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	return &Cache{
		cacheDir:  cacheDir,
		coversURL: "https://covers.openlibrary.org",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// NewCacheWithCoversURL creates a cache against an alternate covers
// endpoint, used by tests.
func NewCacheWithCoversURL(cacheDir, coversURL string) (*Cache, error) {
	c, err := NewCache(cacheDir)
	if err != nil {
		return nil, err
	}
	c.coversURL = coversURL
	return c, nil
}

// GetCover returns the cached cover for an ISBN, fetching it from the
// covers service if not present. Returns ErrNoCover when the service
// only has a placeholder for the ISBN.
func (c *Cache) GetCover(isbn string) (string, error) {
	isbn = batchscan.NormalizeISBN(isbn)
	if isbn == "" {
		return "", ErrNoCover
	}

	cachePath := filepath.Join(c.cacheDir, isbn+".jpg")
	if _, err := os.Stat(cachePath); err == nil {
		return cachePath, nil
	}

	url := fmt.Sprintf("%s/b/isbn/%s-L.jpg", c.coversURL, isbn)
	if err := c.fetchAndCache(url, cachePath); err != nil {
		return "", err
	}

	return cachePath, nil
}

// InvalidateCover removes the cached cover for an ISBN.
func (c *Cache) InvalidateCover(isbn string) error {
	isbn = batchscan.NormalizeISBN(isbn)
	if isbn == "" {
		return nil
	}
	err := os.Remove(filepath.Join(c.cacheDir, isbn+".jpg"))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// fetchAndCache downloads a cover image and saves it to the cache.
func (c *Cache) fetchAndCache(url, cachePath string) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "OpenLibry/1.0 (https://github.com/openlibry/openlibry)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNoCover
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch cover: status %d", resp.StatusCode)
	}

	// Create temp file in same directory for atomic write
	tmpFile, err := os.CreateTemp(c.cacheDir, "cover_tmp_")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath) // Clean up if we didn't rename
	}()

	written, err := io.Copy(tmpFile, resp.Body)
	if err != nil {
		return err
	}
	if written < placeholderThreshold {
		return ErrNoCover
	}

	tmpFile.Close()

	// Atomic rename
	return os.Rename(tmpPath, cachePath)
}

// CacheDir returns the cache directory path.
func (c *Cache) CacheDir() string {
	return c.cacheDir
}
