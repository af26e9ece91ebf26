// Package books provides database operations for the book catalog.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetBookByID(123)
package books

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/openlibry/openlibry/internal/entities"
)

// ErrNotFound is returned when a requested book does not exist. Callers
// use it to distinguish a missing record from a storage failure.
var ErrNotFound = errors.New("book not found")

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetBookByID retrieves a book by its ID.
func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetAllBooks retrieves the whole catalog, newest first.
func (r *Repository) GetAllBooks() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Order("id DESC").Find(&books).Error
	return books, err
}

// AddBook creates a new book record.
func (r *Repository) AddBook(book *entities.Book) (*entities.Book, error) {
	if book.RentalStatus == "" {
		book.RentalStatus = entities.StatusAvailable
	}
	if err := r.db.Create(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

// UpdateBook applies a column patch to a book and returns the fresh row.
func (r *Repository) UpdateBook(id uint, patch map[string]any) (*entities.Book, error) {
	result := r.db.Model(&entities.Book{}).Where("id = ?", id).Updates(patch)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetBookByID(id)
}

// DeleteBook soft-deletes a book.
func (r *Repository) DeleteBook(id uint) error {
	result := r.db.Delete(&entities.Book{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetBooksByBorrower retrieves the active loans of one user.
func (r *Repository) GetBooksByBorrower(userID uint) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.
		Where("rental_status = ? AND borrower_id = ?", entities.StatusRented, userID).
		Order("due_date ASC").
		Find(&books).Error
	return books, err
}

// GetOverdueBooks retrieves rented books whose due date is strictly before
// the given instant.
func (r *Repository) GetOverdueBooks(now time.Time) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.
		Where("rental_status = ? AND due_date < ?", entities.StatusRented, now).
		Order("due_date ASC").
		Find(&books).Error
	return books, err
}

// StampReminder records that an overdue reminder was produced for a book.
func (r *Repository) StampReminder(id uint, at time.Time) error {
	return r.db.Model(&entities.Book{}).Where("id = ?", id).
		Update("reminder_at", at).Error
}
