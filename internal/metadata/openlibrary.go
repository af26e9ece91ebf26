// Package metadata looks up book information for scanned ISBNs from the
// OpenLibrary API. "Not found" is an expected answer and reported as a
// sentinel error, never as a transport failure.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ErrNotFound means OpenLibrary has no record for the ISBN.
var ErrNotFound = errors.New("isbn not found")

// BookData is the best-effort metadata returned for an ISBN.
type BookData struct {
	Title       string `json:"title"`
	Author      string `json:"author,omitempty"`
	Subtitle    string `json:"subtitle,omitempty"`
	Publisher   string `json:"publisher,omitempty"`
	PublishYear int    `json:"publish_year,omitempty"`
	ISBN        string `json:"isbn"`
	CoverURL    string `json:"cover_url,omitempty"`
}

// Client fetches book metadata from the OpenLibrary API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	coversURL   string
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

func (r *rateLimiter) wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	since := time.Since(r.lastCall)
	if since < r.interval {
		time.Sleep(r.interval - since)
	}
	r.lastCall = time.Now()
}

// NewClient creates a new OpenLibrary API client with rate limiting.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:     "https://openlibrary.org",
		coversURL:   "https://covers.openlibrary.org",
		rateLimiter: newRateLimiter(time.Second), // 1 request per second
	}
}

// NewClientWithBaseURL creates a client against an alternate endpoint,
// used by tests.
func NewClientWithBaseURL(baseURL, coversURL string) *Client {
	c := NewClient()
	c.baseURL = baseURL
	c.coversURL = coversURL
	c.rateLimiter = newRateLimiter(0)
	return c
}

// LookupISBN fetches metadata for an ISBN. Returns ErrNotFound when
// OpenLibrary has no record; other errors are transport failures.
func (c *Client) LookupISBN(ctx context.Context, isbn string) (*BookData, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return nil, fmt.Errorf("empty isbn")
	}

	c.rateLimiter.wait()

	url := fmt.Sprintf("%s/isbn/%s.json", c.baseURL, isbn)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "OpenLibry/1.0 (https://github.com/openlibry/openlibry)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch isbn data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var edition openLibraryEdition
	if err := json.NewDecoder(resp.Body).Decode(&edition); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	data := &BookData{
		Title:    edition.Title,
		Subtitle: edition.Subtitle,
		ISBN:     isbn,
		CoverURL: fmt.Sprintf("%s/b/isbn/%s-L.jpg", c.coversURL, isbn),
	}
	if len(edition.Publishers) > 0 {
		data.Publisher = edition.Publishers[0]
	}
	if edition.PublishDate != "" {
		data.PublishYear = extractYear(edition.PublishDate)
	}

	// The edition record only carries author references; resolve the
	// first one to a display name.
	if len(edition.Authors) > 0 {
		if name, err := c.fetchAuthorName(ctx, edition.Authors[0].Key); err == nil {
			data.Author = name
		}
	}

	return data, nil
}

func (c *Client) fetchAuthorName(ctx context.Context, authorKey string) (string, error) {
	if authorKey == "" {
		return "", fmt.Errorf("empty author key")
	}

	c.rateLimiter.wait()

	url := fmt.Sprintf("%s%s.json", c.baseURL, authorKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "OpenLibry/1.0 (https://github.com/openlibry/openlibry)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status: %d", resp.StatusCode)
	}

	var authorData struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&authorData); err != nil {
		return "", err
	}

	return authorData.Name, nil
}

// extractYear tries to extract a 4-digit year from a publish date string.
func extractYear(dateStr string) int {
	dateStr = strings.TrimSpace(dateStr)
	if len(dateStr) < 4 {
		return 0
	}

	formats := []string{
		"2006",
		"January 2, 2006",
		"Jan 2, 2006",
		"2006-01-02",
		"January 2006",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t.Year()
		}
	}

	// Last resort: find 4 consecutive digits
	for i := 0; i <= len(dateStr)-4; i++ {
		if dateStr[i] >= '0' && dateStr[i] <= '9' {
			yearStr := dateStr[i : i+4]
			var year int
			if _, err := fmt.Sscanf(yearStr, "%d", &year); err == nil && year > 1000 && year < 3000 {
				return year
			}
		}
	}

	return 0
}

// OpenLibrary API response types (internal)

type openLibraryEdition struct {
	Key         string      `json:"key"`
	Title       string      `json:"title"`
	Subtitle    string      `json:"subtitle"`
	Authors     []authorRef `json:"authors"`
	Publishers  []string    `json:"publishers"`
	PublishDate string      `json:"publish_date"`
}

type authorRef struct {
	Key string `json:"key"`
}
