package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openlibry/openlibry/internal/database/books"
	"github.com/openlibry/openlibry/internal/entities"
)

// BooksController serves the catalog CRUD and search endpoints.
type BooksController struct {
	store BookStore
	index BookSearcher
}

func NewBooksController(store BookStore, index BookSearcher) *BooksController {
	return &BooksController{
		store: store,
		index: index,
	}
}

// bookPayload is the writable subset of a book record. Pointer fields
// distinguish "absent" from "set to zero" on updates.
type bookPayload struct {
	Title        *string `json:"title"`
	Author       *string `json:"author"`
	Subtitle     *string `json:"subtitle"`
	Topics       *string `json:"topics"`
	ISBN         *string `json:"isbn"`
	Publisher    *string `json:"publisher"`
	PublishYear  *int    `json:"publish_year"`
	CoverURL     *string `json:"cover_url"`
	RentalStatus *string `json:"rental_status"`
}

func (p *bookPayload) patch() map[string]any {
	patch := make(map[string]any)
	if p.Title != nil {
		patch["title"] = *p.Title
	}
	if p.Author != nil {
		patch["author"] = *p.Author
	}
	if p.Subtitle != nil {
		patch["subtitle"] = *p.Subtitle
	}
	if p.Topics != nil {
		patch["topics"] = *p.Topics
	}
	if p.ISBN != nil {
		patch["isbn"] = *p.ISBN
	}
	if p.Publisher != nil {
		patch["publisher"] = *p.Publisher
	}
	if p.PublishYear != nil {
		patch["publish_year"] = *p.PublishYear
	}
	if p.CoverURL != nil {
		patch["cover_url"] = *p.CoverURL
	}
	if p.RentalStatus != nil {
		patch["rental_status"] = *p.RentalStatus
	}
	return patch
}

func (controller *BooksController) GetAllBooks(c *gin.Context) {
	all, err := controller.store.GetAllBooks()
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": all, "count": len(all)})
}

func (controller *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := controller.store.GetBookByID(id)
	if errors.Is(err, books.ErrNotFound) {
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "book not found"})
		return
	}
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, book)
}

func (controller *BooksController) CreateBook(c *gin.Context) {
	var payload bookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "invalid book payload"})
		return
	}
	if payload.Title == nil || *payload.Title == "" {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	book := &entities.Book{Title: *payload.Title}
	if payload.Author != nil {
		book.Author = *payload.Author
	}
	if payload.Subtitle != nil {
		book.Subtitle = *payload.Subtitle
	}
	if payload.Topics != nil {
		book.Topics = *payload.Topics
	}
	if payload.ISBN != nil {
		book.ISBN = *payload.ISBN
	}
	if payload.Publisher != nil {
		book.Publisher = *payload.Publisher
	}
	if payload.PublishYear != nil {
		book.PublishYear = *payload.PublishYear
	}
	if payload.CoverURL != nil {
		book.CoverURL = *payload.CoverURL
	}
	if payload.RentalStatus != nil {
		book.RentalStatus = entities.RentalStatus(*payload.RentalStatus)
	}

	created, err := controller.store.AddBook(book)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	controller.invalidateIndex()
	c.IndentedJSON(http.StatusCreated, created)
}

func (controller *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var payload bookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "invalid book payload"})
		return
	}

	patch := payload.patch()
	if len(patch) == 0 {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	updated, err := controller.store.UpdateBook(id, patch)
	if errors.Is(err, books.ErrNotFound) {
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "book not found"})
		return
	}
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	controller.invalidateIndex()
	c.IndentedJSON(http.StatusOK, updated)
}

func (controller *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := controller.store.DeleteBook(id)
	if errors.Is(err, books.ErrNotFound) {
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "book not found"})
		return
	}
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	controller.invalidateIndex()
	c.IndentedJSON(http.StatusOK, gin.H{"message": "book deleted"})
}

// SearchBooks answers catalog searches from the in-memory index.
func (controller *BooksController) SearchBooks(c *gin.Context) {
	if controller.index == nil {
		c.IndentedJSON(http.StatusServiceUnavailable, gin.H{"error": "search index not configured"})
		return
	}

	query := c.Query("q")
	page := parsePositiveQuery(c, "page", 0)
	limit := parsePositiveQuery(c, "limit", 0) // 0 lets the index apply its default

	results, err := controller.index.Search(query, page, limit)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"books": results,
		"count": len(results),
		"page":  page,
	})
}

func (controller *BooksController) invalidateIndex() {
	if controller.index != nil {
		controller.index.Invalidate()
	}
}
