package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openlibry/openlibry/internal/database/users"
	"github.com/openlibry/openlibry/internal/entities"
	"github.com/openlibry/openlibry/internal/search"
)

// UsersController serves the borrower CRUD and search endpoints.
type UsersController struct {
	store   UserStore
	books   BookStore
	rentals RentalLister
}

func NewUsersController(store UserStore, books BookStore, rentals RentalLister) *UsersController {
	return &UsersController{
		store:   store,
		books:   books,
		rentals: rentals,
	}
}

type userPayload struct {
	ID            *uint   `json:"id"`
	LastName      *string `json:"last_name"`
	FirstName     *string `json:"first_name"`
	SchoolGrade   *string `json:"school_grade"`
	SchoolTeacher *string `json:"school_teacher"`
	Active        *bool   `json:"active"`
}

func (p *userPayload) patch() map[string]any {
	patch := make(map[string]any)
	if p.LastName != nil {
		patch["last_name"] = *p.LastName
	}
	if p.FirstName != nil {
		patch["first_name"] = *p.FirstName
	}
	if p.SchoolGrade != nil {
		patch["school_grade"] = *p.SchoolGrade
	}
	if p.SchoolTeacher != nil {
		patch["school_teacher"] = *p.SchoolTeacher
	}
	if p.Active != nil {
		patch["active"] = *p.Active
	}
	return patch
}

func (controller *UsersController) GetAllUsers(c *gin.Context) {
	all, err := controller.store.GetAllUsers()
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"users": all, "count": len(all)})
}

func (controller *UsersController) GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := controller.store.GetUserByID(id)
	if errors.Is(err, users.ErrNotFound) {
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, user)
}

func (controller *UsersController) CreateUser(c *gin.Context) {
	var payload userPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "invalid user payload"})
		return
	}

	user := &entities.User{Active: true}
	if payload.ID != nil {
		user.ID = *payload.ID
	}
	if payload.LastName != nil {
		user.LastName = *payload.LastName
	}
	if payload.FirstName != nil {
		user.FirstName = *payload.FirstName
	}
	if payload.SchoolGrade != nil {
		user.SchoolGrade = *payload.SchoolGrade
	}
	if payload.SchoolTeacher != nil {
		user.SchoolTeacher = *payload.SchoolTeacher
	}
	if payload.Active != nil {
		user.Active = *payload.Active
	}

	created, err := controller.store.CreateUser(user)
	if errors.Is(err, users.ErrNameRequired) {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusCreated, created)
}

func (controller *UsersController) UpdateUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var payload userPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "invalid user payload"})
		return
	}

	patch := payload.patch()
	if len(patch) == 0 {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	updated, err := controller.store.UpdateUser(id, patch)
	if errors.Is(err, users.ErrNotFound) {
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, updated)
}

// DeleteUser removes a borrower. Their active loans are returned to the
// shelf as part of the same transaction.
func (controller *UsersController) DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := controller.store.DeleteUser(id)
	if errors.Is(err, users.ErrNotFound) {
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"message": "user deleted"})
}

// GetUserBooks lists a borrower's active loans.
func (controller *UsersController) GetUserBooks(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	loans, err := controller.books.GetBooksByBorrower(id)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"books": loans, "count": len(loans)})
}

// SearchUsers runs the lending-desk search: free text with the klasse?
// and fällig? modifiers, plus the exact-match ID used for barcode-style
// auto-selection.
func (controller *UsersController) SearchUsers(c *gin.Context) {
	all, err := controller.store.GetAllUsers()
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var rentals []entities.RentalProjection
	if controller.rentals != nil {
		rentals, err = controller.rentals.GetRentedBooksWithUsers(time.Now())
		if err != nil {
			c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	filtered, exactMatchID := search.FilterUsers(all, rentals, c.Query("q"))

	c.IndentedJSON(http.StatusOK, gin.H{
		"users":          filtered,
		"count":          len(filtered),
		"exact_match_id": exactMatchID,
	})
}
