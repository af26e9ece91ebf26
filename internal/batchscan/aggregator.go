// Package batchscan accumulates repeated ISBN scans into quantity-counted
// entries for bulk import. Scanning the same ISBN twice bumps a quantity
// instead of producing a duplicate row; a failed metadata lookup leaves an
// editable empty entry rather than discarding the scan.
package batchscan

import (
	"strings"
	"sync"

	"github.com/openlibry/openlibry/internal/metadata"
)

// EntryState tracks the metadata lookup lifecycle of one entry.
type EntryState string

const (
	StatePending  EntryState = "pending" // lookup in flight
	StateResolved EntryState = "resolved"
	StateFailed   EntryState = "failed" // lookup failed, entry stays editable
)

// Entry is one aggregated scan line: a normalized ISBN, the resolved
// metadata (once available) and how many copies were scanned.
type Entry struct {
	ISBN     string             `json:"isbn"`
	State    EntryState         `json:"state"`
	Metadata *metadata.BookData `json:"metadata,omitempty"`
	Quantity int                `json:"quantity"`
}

// Aggregator collects scans keyed by normalized ISBN. It is safe for
// concurrent use; the scan screen fires lookups asynchronously.
type Aggregator struct {
	mu      sync.Mutex
	entries map[string]*Entry
	order   []string // insertion order for stable listing
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{entries: make(map[string]*Entry)}
}

// NormalizeISBN strips everything but letters and digits, so "978-3-16"
// and "978 3 16" collapse to the same key.
func NormalizeISBN(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(raw)) {
		if (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Scan records one scanned ISBN. If the ISBN is already known its quantity
// is incremented and no lookup is needed; otherwise a pending entry with
// quantity 1 is created and isNew is true, telling the caller to start a
// metadata lookup. An empty normalized ISBN is ignored.
func (a *Aggregator) Scan(rawISBN string) (entry *Entry, isNew bool) {
	isbn := NormalizeISBN(rawISBN)
	if isbn == "" {
		return nil, false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if existing, ok := a.entries[isbn]; ok {
		existing.Quantity++
		copied := *existing
		return &copied, false
	}

	created := &Entry{ISBN: isbn, State: StatePending, Quantity: 1}
	a.entries[isbn] = created
	a.order = append(a.order, isbn)
	copied := *created
	return &copied, true
}

// Resolve attaches looked-up metadata to a pending entry.
func (a *Aggregator) Resolve(rawISBN string, data *metadata.BookData) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if entry, ok := a.entries[NormalizeISBN(rawISBN)]; ok {
		entry.Metadata = data
		entry.State = StateResolved
	}
}

// Fail marks a pending entry's lookup as failed. The entry survives and
// can be filled in by hand.
func (a *Aggregator) Fail(rawISBN string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if entry, ok := a.entries[NormalizeISBN(rawISBN)]; ok {
		entry.State = StateFailed
	}
}

// SetQuantity sets an entry's quantity directly, with a floor of 1. Used
// by the manual +/- controls on the scan screen.
func (a *Aggregator) SetQuantity(rawISBN string, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if entry, ok := a.entries[NormalizeISBN(rawISBN)]; ok {
		entry.Quantity = quantity
	}
}

// Remove drops an entry entirely.
func (a *Aggregator) Remove(rawISBN string) {
	isbn := NormalizeISBN(rawISBN)
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.entries[isbn]; !ok {
		return
	}
	delete(a.entries, isbn)
	for i, key := range a.order {
		if key == isbn {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
}

// Entries lists all entries in scan order.
func (a *Aggregator) Entries() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Entry, 0, len(a.order))
	for _, isbn := range a.order {
		out = append(out, *a.entries[isbn])
	}
	return out
}

// Total is the number of book records an import would create: the sum of
// all entry quantities.
func (a *Aggregator) Total() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	total := 0
	for _, entry := range a.entries {
		total += entry.Quantity
	}
	return total
}
