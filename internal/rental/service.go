// Package rental implements the loan lifecycle rules: when a book may be
// rented, returned or extended, and how overdue day counts are computed.
// Business-rule violations are reported as Outcome values, never as
// errors; only storage faults surface as errors.
package rental

import (
	"time"

	"github.com/openlibry/openlibry/internal/config"
	"github.com/openlibry/openlibry/internal/dates"
	"github.com/openlibry/openlibry/internal/entities"
)

// Outcome is the discriminated result of a lifecycle operation.
type Outcome string

const (
	OutcomeOK              Outcome = "ok"
	OutcomeAlreadyExtended Outcome = "already_extended"
	OutcomeMaxExtensions   Outcome = "max_extensions_reached"
	OutcomeNotAvailable    Outcome = "not_available"
	OutcomeNotRented       Outcome = "not_rented"
	OutcomeNoDueDate       Outcome = "no_due_date"
)

// Clock abstracts "now" so the day-boundary rules are testable.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// BookStore is the data-access collaborator the rules mutate books through.
// Each UpdateBook call is atomic from this package's point of view.
type BookStore interface {
	GetBookByID(id uint) (*entities.Book, error)
	UpdateBook(id uint, patch map[string]any) (*entities.Book, error)
}

// Service applies the loan policy to single books.
type Service struct {
	store  BookStore
	policy config.Rental
	clock  Clock
}

// NewService creates a rental service with the real clock.
func NewService(store BookStore, policy config.Rental) *Service {
	return &Service{store: store, policy: policy, clock: realClock{}}
}

// NewServiceWithClock creates a rental service with an injected clock.
func NewServiceWithClock(store BookStore, policy config.Rental, clock Clock) *Service {
	return &Service{store: store, policy: policy, clock: clock}
}

// Result carries the outcome of a lifecycle operation plus the book state
// after a successful mutation.
type Result struct {
	Outcome      Outcome
	Book         *entities.Book
	DueDate      string // YYYY-MM-DD, set on successful rent/extend
	RenewalCount int
}

// OverdueDays returns the signed day count the book is past due: positive
// means overdue. A book that is not rented is never overdue, regardless of
// any stale due date left on the row.
func (s *Service) OverdueDays(book *entities.Book) int {
	if book.RentalStatus != entities.StatusRented || book.DueDate == nil {
		return 0
	}
	return dates.DiffDays(s.clock.Now(), *book.DueDate)
}

// Rent lends a book to a user. Precondition: the book is available.
func (s *Service) Rent(bookID, userID uint) (*Result, error) {
	book, err := s.store.GetBookByID(bookID)
	if err != nil {
		return nil, err
	}

	if book.RentalStatus != entities.StatusAvailable {
		return &Result{Outcome: OutcomeNotAvailable, Book: book}, nil
	}

	due := dates.AddDays(s.clock.Now(), s.policy.RentalDays)
	updated, err := s.store.UpdateBook(bookID, map[string]any{
		"rental_status": entities.StatusRented,
		"due_date":      due,
		"renewal_count": 0,
		"borrower_id":   userID,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Outcome: OutcomeOK,
		Book:    updated,
		DueDate: dates.DayString(due),
	}, nil
}

// Return takes a book back. Precondition: the book is rented.
func (s *Service) Return(bookID uint) (*Result, error) {
	book, err := s.store.GetBookByID(bookID)
	if err != nil {
		return nil, err
	}

	if book.RentalStatus != entities.StatusRented {
		return &Result{Outcome: OutcomeNotRented, Book: book}, nil
	}

	updated, err := s.store.UpdateBook(bookID, map[string]any{
		"rental_status": entities.StatusAvailable,
		"due_date":      nil,
		"renewal_count": 0,
		"borrower_id":   nil,
		"reminder_at":   nil,
	})
	if err != nil {
		return nil, err
	}

	return &Result{Outcome: OutcomeOK, Book: updated}, nil
}

// Extend advances a rental's due date to today+extensionDays and counts
// the renewal. The renewal budget is checked before any date math, and
// client-submitted dates are never trusted: the candidate is always
// computed server-side. A candidate that is not strictly later than the
// current due date means the loan was already extended today; that is a
// distinct outcome, not a rejection, and mutates nothing.
func (s *Service) Extend(bookID uint) (*Result, error) {
	book, err := s.store.GetBookByID(bookID)
	if err != nil {
		return nil, err
	}

	if book.RentalStatus != entities.StatusRented {
		return &Result{Outcome: OutcomeNotRented, Book: book}, nil
	}
	if book.DueDate == nil {
		return &Result{Outcome: OutcomeNoDueDate, Book: book}, nil
	}
	if book.RenewalCount >= s.policy.MaxExtensions {
		return &Result{Outcome: OutcomeMaxExtensions, Book: book}, nil
	}

	candidate := dates.AddDays(s.clock.Now(), s.policy.ExtensionDays)
	if dates.DiffDays(candidate, *book.DueDate) <= 0 {
		return &Result{
			Outcome:      OutcomeAlreadyExtended,
			Book:         book,
			DueDate:      dates.DayString(*book.DueDate),
			RenewalCount: book.RenewalCount,
		}, nil
	}

	updated, err := s.store.UpdateBook(bookID, map[string]any{
		"due_date":      candidate,
		"renewal_count": book.RenewalCount + 1,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Outcome:      OutcomeOK,
		Book:         updated,
		DueDate:      dates.DayString(candidate),
		RenewalCount: updated.RenewalCount,
	}, nil
}
