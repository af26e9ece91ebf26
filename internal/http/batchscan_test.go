package http

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/openlibry/openlibry/internal/batchscan"
	"github.com/openlibry/openlibry/internal/metadata"
	"github.com/openlibry/openlibry/internal/tasks"
)

type fakeMetadataLookup struct {
	data map[string]*metadata.BookData
	err  error
}

func (f *fakeMetadataLookup) LookupISBN(ctx context.Context, isbn string) (*metadata.BookData, error) {
	if f.err != nil {
		return nil, f.err
	}
	if data, ok := f.data[isbn]; ok {
		return data, nil
	}
	return nil, metadata.ErrNotFound
}

type fakeImportEnqueuer struct {
	queued []tasks.ImportEntryTask
	err    error
}

func (f *fakeImportEnqueuer) EnqueueImport(task tasks.ImportEntryTask) error {
	if f.err != nil {
		return f.err
	}
	f.queued = append(f.queued, task)
	return nil
}

func batchScanRouter(lookup MetadataLookup, importer ImportEnqueuer) (*gin.Engine, *batchscan.Aggregator) {
	gin.SetMode(gin.TestMode)
	aggregator := batchscan.NewAggregator()
	controller := NewBatchScanController(aggregator, lookup, importer)

	router := gin.New()
	router.GET("/api/batchscan", controller.List)
	router.POST("/api/batchscan/lookup", controller.Lookup)
	router.POST("/api/batchscan/quantity", controller.SetQuantity)
	router.DELETE("/api/batchscan/:isbn", controller.Remove)
	router.POST("/api/batchscan/import", controller.Import)
	return router, aggregator
}

type batchScanPayload struct {
	Entries []batchscan.Entry `json:"entries"`
	Count   int               `json:"count"`
	Total   int               `json:"total"`
}

func TestBatchScanLookupResolvesNewISBN(t *testing.T) {
	lookup := &fakeMetadataLookup{data: map[string]*metadata.BookData{
		"9783161484100": {Title: "Momo", Author: "Michael Ende"},
	}}
	router, _ := batchScanRouter(lookup, &fakeImportEnqueuer{})

	w := doJSON(t, router, http.MethodPost, "/api/batchscan/lookup", gin.H{"isbn": "978-3-16-148410-0"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp batchScanPayload
	decodeBody(t, w, &resp)
	if resp.Count != 1 || resp.Total != 1 {
		t.Fatalf("payload = %+v", resp)
	}
	entry := resp.Entries[0]
	if entry.ISBN != "9783161484100" {
		t.Errorf("isbn = %q, want normalized form", entry.ISBN)
	}
	if entry.State != batchscan.StateResolved || entry.Metadata == nil || entry.Metadata.Title != "Momo" {
		t.Errorf("entry = %+v, want resolved metadata", entry)
	}
}

func TestBatchScanRepeatedISBNBumpsQuantity(t *testing.T) {
	lookupCalls := 0
	lookup := &fakeMetadataLookup{data: map[string]*metadata.BookData{}}
	router, aggregator := batchScanRouter(lookupCounter(lookup, &lookupCalls), &fakeImportEnqueuer{})

	doJSON(t, router, http.MethodPost, "/api/batchscan/lookup", gin.H{"isbn": "9783161484100"})
	w := doJSON(t, router, http.MethodPost, "/api/batchscan/lookup", gin.H{"isbn": "978 3 16 148410 0"})

	var resp batchScanPayload
	decodeBody(t, w, &resp)
	if resp.Count != 1 || resp.Total != 2 {
		t.Errorf("count = %d, total = %d, want one entry with quantity 2", resp.Count, resp.Total)
	}
	if lookupCalls != 1 {
		t.Errorf("lookup calls = %d, want 1 (repeat scans skip the lookup)", lookupCalls)
	}
	entries := aggregator.Entries()
	if entries[0].Quantity != 2 {
		t.Errorf("quantity = %d, want 2", entries[0].Quantity)
	}
}

// lookupCounter wraps a MetadataLookup and counts calls.
func lookupCounter(inner MetadataLookup, calls *int) MetadataLookup {
	return countingLookup{inner: inner, calls: calls}
}

type countingLookup struct {
	inner MetadataLookup
	calls *int
}

func (c countingLookup) LookupISBN(ctx context.Context, isbn string) (*metadata.BookData, error) {
	*c.calls++
	return c.inner.LookupISBN(ctx, isbn)
}

func TestBatchScanFailedLookupKeepsEntry(t *testing.T) {
	lookup := &fakeMetadataLookup{err: errors.New("openlibrary unreachable")}
	router, _ := batchScanRouter(lookup, &fakeImportEnqueuer{})

	w := doJSON(t, router, http.MethodPost, "/api/batchscan/lookup", gin.H{"isbn": "9783161484100"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp batchScanPayload
	decodeBody(t, w, &resp)
	if resp.Count != 1 || resp.Entries[0].State != batchscan.StateFailed {
		t.Errorf("payload = %+v, want failed entry kept", resp)
	}
}

func TestBatchScanEmptyISBNRejected(t *testing.T) {
	router, _ := batchScanRouter(&fakeMetadataLookup{}, &fakeImportEnqueuer{})

	w := doJSON(t, router, http.MethodPost, "/api/batchscan/lookup", gin.H{"isbn": "---"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestBatchScanSetQuantityAndRemove(t *testing.T) {
	router, aggregator := batchScanRouter(&fakeMetadataLookup{}, &fakeImportEnqueuer{})
	aggregator.Scan("9783161484100")

	w := doJSON(t, router, http.MethodPost, "/api/batchscan/quantity", gin.H{"isbn": "9783161484100", "quantity": 5})
	var resp batchScanPayload
	decodeBody(t, w, &resp)
	if resp.Total != 5 {
		t.Errorf("total = %d, want 5", resp.Total)
	}

	w = doJSON(t, router, http.MethodDelete, "/api/batchscan/9783161484100", nil)
	decodeBody(t, w, &resp)
	if resp.Count != 0 {
		t.Errorf("count = %d after remove, want 0", resp.Count)
	}
}

func TestBatchScanImportEnqueuesAndClears(t *testing.T) {
	importer := &fakeImportEnqueuer{}
	router, aggregator := batchScanRouter(&fakeMetadataLookup{}, importer)

	aggregator.Scan("9783161484100")
	aggregator.Resolve("9783161484100", &metadata.BookData{Title: "Momo", Author: "Michael Ende", CoverURL: "http://covers/momo.jpg"})
	aggregator.SetQuantity("9783161484100", 3)
	aggregator.Scan("9780000000002")
	aggregator.Fail("9780000000002")

	w := doJSON(t, router, http.MethodPost, "/api/batchscan/import", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Queued int `json:"queued"`
	}
	decodeBody(t, w, &resp)
	if resp.Queued != 2 {
		t.Fatalf("queued = %d, want 2", resp.Queued)
	}
	if len(importer.queued) != 2 {
		t.Fatalf("tasks = %d, want 2", len(importer.queued))
	}

	first := importer.queued[0]
	if first.Title != "Momo" || first.Quantity != 3 || first.CoverURL != "http://covers/momo.jpg" {
		t.Errorf("first task = %+v", first)
	}
	// Unresolved entries fall back to the ISBN as a placeholder title
	second := importer.queued[1]
	if second.Title != "9780000000002" {
		t.Errorf("second task title = %q, want ISBN fallback", second.Title)
	}

	if len(aggregator.Entries()) != 0 {
		t.Error("session should be empty after import")
	}
}

func TestBatchScanImportEmptySessionIs400(t *testing.T) {
	router, _ := batchScanRouter(&fakeMetadataLookup{}, &fakeImportEnqueuer{})

	w := doJSON(t, router, http.MethodPost, "/api/batchscan/import", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestBatchScanImportQueueFailure(t *testing.T) {
	importer := &fakeImportEnqueuer{err: errors.New("queue closed")}
	router, aggregator := batchScanRouter(&fakeMetadataLookup{}, importer)
	aggregator.Scan("9783161484100")

	w := doJSON(t, router, http.MethodPost, "/api/batchscan/import", nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if len(aggregator.Entries()) != 1 {
		t.Error("failed entry should stay in the session")
	}
}
