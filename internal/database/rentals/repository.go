// Package rentals computes the per-loan view projections used by list
// screens and reports. A rental is not a stored row: it is derived from a
// rented book joined with its borrower, fresh on every read.
package rentals

import (
	"time"

	"gorm.io/gorm"

	"github.com/openlibry/openlibry/internal/dates"
	"github.com/openlibry/openlibry/internal/entities"
)

// Repository derives rental projections from book and user state.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new rentals repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type rentedRow struct {
	BookID       uint
	Title        string
	DueDate      *time.Time
	RenewalCount int
	UserID       uint
	LastName     string
	FirstName    string
}

// GetRentedBooksWithUsers joins every rented book with its borrower and
// computes the signed days-overdue count relative to now.
func (r *Repository) GetRentedBooksWithUsers(now time.Time) ([]entities.RentalProjection, error) {
	var rows []rentedRow
	err := r.db.Table("books").
		Select("books.id AS book_id, books.title, books.due_date, books.renewal_count, users.id AS user_id, users.last_name, users.first_name").
		Joins("JOIN users ON users.id = books.borrower_id AND users.deleted_at IS NULL").
		Where("books.rental_status = ? AND books.deleted_at IS NULL", entities.StatusRented).
		Order("books.due_date ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	projections := make([]entities.RentalProjection, 0, len(rows))
	for _, row := range rows {
		p := entities.RentalProjection{
			BookID:       row.BookID,
			Title:        row.Title,
			UserID:       row.UserID,
			LastName:     row.LastName,
			FirstName:    row.FirstName,
			RenewalCount: row.RenewalCount,
		}
		if row.DueDate != nil {
			p.DueDate = dates.DayString(*row.DueDate)
			p.DueDays = dates.DiffDays(now, *row.DueDate)
		}
		projections = append(projections, p)
	}
	return projections, nil
}
