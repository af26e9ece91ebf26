package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openlibry/openlibry/internal/database/books"
	"github.com/openlibry/openlibry/internal/rental"
)

// RentalsController serves the loan lifecycle endpoints and the joined
// rental list.
type RentalsController struct {
	service *rental.Service
	rentals RentalLister
}

func NewRentalsController(service *rental.Service, rentals RentalLister) *RentalsController {
	return &RentalsController{
		service: service,
		rentals: rentals,
	}
}

type rentRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// rentalResponse is the JSON shape shared by rent, return and extend.
type rentalResponse struct {
	Outcome      string `json:"outcome"`
	BookID       uint   `json:"book_id"`
	DueDate      string `json:"due_date,omitempty"`
	RenewalCount int    `json:"renewal_count"`
}

// writeResult maps a lifecycle result onto HTTP: success is 200, a
// business-rule rejection is 409 with the outcome discriminator. The
// client branches on the outcome string, not the status code.
func writeResult(c *gin.Context, result *rental.Result) {
	resp := rentalResponse{
		Outcome:      string(result.Outcome),
		DueDate:      result.DueDate,
		RenewalCount: result.RenewalCount,
	}
	if result.Book != nil {
		resp.BookID = result.Book.ID
	}

	status := http.StatusOK
	if result.Outcome != rental.OutcomeOK {
		status = http.StatusConflict
	}
	c.IndentedJSON(status, resp)
}

func (controller *RentalsController) handleStoreError(c *gin.Context, err error) {
	if errors.Is(err, books.ErrNotFound) {
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "book not found"})
		return
	}
	c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// RentBook lends a book to a user.
func (controller *RentalsController) RentBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req rentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	result, err := controller.service.Rent(bookID, req.UserID)
	if err != nil {
		controller.handleStoreError(c, err)
		return
	}
	writeResult(c, result)
}

// ReturnBook takes a book back.
func (controller *RentalsController) ReturnBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := controller.service.Return(bookID)
	if err != nil {
		controller.handleStoreError(c, err)
		return
	}
	writeResult(c, result)
}

// ExtendBook advances a loan's due date and counts the renewal.
func (controller *RentalsController) ExtendBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := controller.service.Extend(bookID)
	if err != nil {
		controller.handleStoreError(c, err)
		return
	}
	writeResult(c, result)
}

// GetRentals lists every active loan joined with its borrower, ordered by
// due date, with the signed days-overdue count.
func (controller *RentalsController) GetRentals(c *gin.Context) {
	projections, err := controller.rentals.GetRentedBooksWithUsers(time.Now())
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"rentals": projections, "count": len(projections)})
}
