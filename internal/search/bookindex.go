package search

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/openlibry/openlibry/internal/entities"
)

// DefaultPageLimit caps one page of book search results.
const DefaultPageLimit = 100

// BookSource supplies the catalog rows an index is built from.
type BookSource interface {
	GetAllBooks() ([]entities.Book, error)
}

// BookIndex is a lazily built in-memory search index over the catalog.
// Title, author, subtitle, topics and the stringified ID are indexed. The
// index is owned by a single RWMutex: a rebuild never races with a lookup
// against a half-built structure, and Invalidate simply marks it stale for
// the next reader.
type BookIndex struct {
	source BookSource

	mu      sync.RWMutex
	entries []bookEntry
	built   bool
}

type bookEntry struct {
	book     entities.Book
	haystack string // precomputed lower-cased searchable text
	idString string
}

// NewBookIndex creates an index over the given catalog source. Nothing is
// built until the first search.
func NewBookIndex(source BookSource) *BookIndex {
	return &BookIndex{source: source}
}

// Invalidate marks the index stale. The next search rebuilds it.
func (ix *BookIndex) Invalidate() {
	ix.mu.Lock()
	ix.built = false
	ix.mu.Unlock()
}

// ensureBuilt rebuilds the entry list under the write lock if stale.
func (ix *BookIndex) ensureBuilt() error {
	ix.mu.RLock()
	built := ix.built
	ix.mu.RUnlock()
	if built {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.built { // another writer got here first
		return nil
	}

	books, err := ix.source.GetAllBooks()
	if err != nil {
		return err
	}

	entries := make([]bookEntry, 0, len(books))
	for _, book := range books {
		haystack := strings.ToLower(strings.Join([]string{
			book.Title, book.Author, book.Subtitle, book.Topics,
		}, " "))
		entries = append(entries, bookEntry{
			book:     book,
			haystack: haystack,
			idString: strconv.FormatUint(uint64(book.ID), 10),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].book.Title) < strings.ToLower(entries[j].book.Title)
	})

	ix.entries = entries
	ix.built = true
	return nil
}

// Search runs a free-text query against the index and returns one page of
// results sorted by title. Purely numeric queries are normalized like
// barcode scans: leading zeros are stripped and an exact ID match is
// preferred over substring hits.
func (ix *BookIndex) Search(rawQuery string, page, limit int) ([]entities.Book, error) {
	if err := ix.ensureBuilt(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > DefaultPageLimit {
		limit = DefaultPageLimit
	}
	if page < 0 {
		page = 0
	}

	term := strings.ToLower(strings.TrimSpace(rawQuery))
	numeric := isAllDigits(term)
	if numeric {
		term = stripLeadingZeros(term)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var matched []entities.Book
	if numeric {
		// Exact ID hit first; fall back to substring over ID and text.
		for _, entry := range ix.entries {
			if entry.idString == term {
				matched = append(matched, entry.book)
			}
		}
		if len(matched) == 0 {
			for _, entry := range ix.entries {
				if strings.Contains(entry.idString, term) || strings.Contains(entry.haystack, term) {
					matched = append(matched, entry.book)
				}
			}
		}
	} else {
		for _, entry := range ix.entries {
			if term == "" || strings.Contains(entry.haystack, term) {
				matched = append(matched, entry.book)
			}
		}
	}

	start := page * limit
	if start >= len(matched) {
		return []entities.Book{}, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}
