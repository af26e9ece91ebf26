package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openlibry/openlibry/internal/batchscan"
	"github.com/openlibry/openlibry/internal/metadata"
	"github.com/openlibry/openlibry/internal/tasks"
)

// BatchScanController drives the bulk-import scan screen: repeated ISBN
// scans aggregate into quantity-counted entries, lookups fill in metadata
// and the final import hands the entries to the background queue.
type BatchScanController struct {
	aggregator *batchscan.Aggregator
	metadata   MetadataLookup
	importer   ImportEnqueuer
}

func NewBatchScanController(aggregator *batchscan.Aggregator, lookup MetadataLookup, importer ImportEnqueuer) *BatchScanController {
	return &BatchScanController{
		aggregator: aggregator,
		metadata:   lookup,
		importer:   importer,
	}
}

type scanRequest struct {
	ISBN string `json:"isbn" binding:"required"`
}

type quantityRequest struct {
	ISBN     string `json:"isbn" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
}

// Lookup records one scan. A repeated ISBN only bumps the quantity; a new
// one triggers a metadata lookup whose failure leaves an editable entry
// rather than dropping the scan.
func (controller *BatchScanController) Lookup(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "isbn is required"})
		return
	}

	entry, isNew := controller.aggregator.Scan(req.ISBN)
	if entry == nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "isbn is empty after normalization"})
		return
	}

	if isNew && controller.metadata != nil {
		data, err := controller.metadata.LookupISBN(c.Request.Context(), entry.ISBN)
		switch {
		case err == nil:
			controller.aggregator.Resolve(entry.ISBN, data)
		case errors.Is(err, metadata.ErrNotFound):
			controller.aggregator.Fail(entry.ISBN)
		default:
			// Transport failure: also a failed lookup from the
			// screen's point of view, entry stays editable
			controller.aggregator.Fail(entry.ISBN)
		}
	}

	c.IndentedJSON(http.StatusOK, controller.listPayload())
}

// List returns the current scan session.
func (controller *BatchScanController) List(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, controller.listPayload())
}

// SetQuantity overrides an entry's copy count by hand.
func (controller *BatchScanController) SetQuantity(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "isbn and quantity are required"})
		return
	}

	controller.aggregator.SetQuantity(req.ISBN, req.Quantity)
	c.IndentedJSON(http.StatusOK, controller.listPayload())
}

// Remove drops an entry from the session.
func (controller *BatchScanController) Remove(c *gin.Context) {
	isbn := c.Param("isbn")
	if batchscan.NormalizeISBN(isbn) == "" {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "invalid isbn"})
		return
	}

	controller.aggregator.Remove(isbn)
	c.IndentedJSON(http.StatusOK, controller.listPayload())
}

// Import enqueues one import task per entry and clears the session. Each
// task creates quantity-many catalog rows and fetches the cover once.
func (controller *BatchScanController) Import(c *gin.Context) {
	if controller.importer == nil {
		c.IndentedJSON(http.StatusServiceUnavailable, gin.H{"error": "import queue not configured"})
		return
	}

	entries := controller.aggregator.Entries()
	if len(entries) == 0 {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "nothing to import"})
		return
	}

	var queued int
	for _, entry := range entries {
		task := tasks.ImportEntryTask{
			ISBN:     entry.ISBN,
			Quantity: entry.Quantity,
		}
		if entry.Metadata != nil {
			task.Title = entry.Metadata.Title
			task.Author = entry.Metadata.Author
			task.Subtitle = entry.Metadata.Subtitle
			task.Publisher = entry.Metadata.Publisher
			task.PublishYear = entry.Metadata.PublishYear
			task.CoverURL = entry.Metadata.CoverURL
		}
		if task.Title == "" {
			// Unresolved entries import under their ISBN so they can
			// be fixed up in the catalog later
			task.Title = entry.ISBN
		}

		if err := controller.importer.EnqueueImport(task); err != nil {
			c.IndentedJSON(http.StatusInternalServerError, gin.H{
				"error":  err.Error(),
				"queued": queued,
			})
			return
		}
		queued++
		controller.aggregator.Remove(entry.ISBN)
	}

	c.IndentedJSON(http.StatusAccepted, gin.H{"queued": queued})
}

func (controller *BatchScanController) listPayload() gin.H {
	entries := controller.aggregator.Entries()
	return gin.H{
		"entries": entries,
		"count":   len(entries),
		"total":   controller.aggregator.Total(),
	}
}
