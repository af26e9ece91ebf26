package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openlibry/openlibry/internal/entities"
)

// ReportsController serves the overdue report backing reminder letters.
type ReportsController struct {
	rentals RentalLister
	scanner OverdueScanner
}

func NewReportsController(rentals RentalLister, scanner OverdueScanner) *ReportsController {
	return &ReportsController{
		rentals: rentals,
		scanner: scanner,
	}
}

// GetOverdue lists only the loans that are past due, the data source for
// reminder letters. Rendering is the caller's concern.
func (controller *ReportsController) GetOverdue(c *gin.Context) {
	projections, err := controller.rentals.GetRentedBooksWithUsers(time.Now())
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	overdue := make([]entities.RentalProjection, 0)
	for _, p := range projections {
		if p.DueDays > 0 {
			overdue = append(overdue, p)
		}
	}

	c.IndentedJSON(http.StatusOK, gin.H{"overdue": overdue, "count": len(overdue)})
}

// RunScan triggers the reminder scan immediately instead of waiting for
// the schedule.
func (controller *ReportsController) RunScan(c *gin.Context) {
	if controller.scanner == nil {
		c.IndentedJSON(http.StatusServiceUnavailable, gin.H{"error": "reminder scan not configured"})
		return
	}

	stamped := controller.scanner.ScanOnce(time.Now())
	c.IndentedJSON(http.StatusOK, gin.H{"stamped": stamped})
}
