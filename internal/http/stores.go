package http

import (
	"context"
	"time"

	"github.com/openlibry/openlibry/internal/entities"
	"github.com/openlibry/openlibry/internal/metadata"
	"github.com/openlibry/openlibry/internal/tasks"
)

// The controllers depend on narrow store interfaces rather than the
// repository structs, so handler tests can run against fakes.

// BookStore covers the catalog operations the book endpoints need.
type BookStore interface {
	GetBookByID(id uint) (*entities.Book, error)
	GetAllBooks() ([]entities.Book, error)
	AddBook(book *entities.Book) (*entities.Book, error)
	UpdateBook(id uint, patch map[string]any) (*entities.Book, error)
	DeleteBook(id uint) error
	GetBooksByBorrower(userID uint) ([]entities.Book, error)
}

// UserStore covers the borrower operations the user endpoints need.
type UserStore interface {
	GetUserByID(id uint) (*entities.User, error)
	GetAllUsers() ([]entities.User, error)
	CreateUser(user *entities.User) (*entities.User, error)
	UpdateUser(id uint, patch map[string]any) (*entities.User, error)
	DeleteUser(id uint) error
}

// RentalLister derives the joined loan projections.
type RentalLister interface {
	GetRentedBooksWithUsers(now time.Time) ([]entities.RentalProjection, error)
}

// BookSearcher is the in-memory catalog index.
type BookSearcher interface {
	Search(rawQuery string, page, limit int) ([]entities.Book, error)
	Invalidate()
}

// MetadataLookup resolves an ISBN to book metadata.
type MetadataLookup interface {
	LookupISBN(ctx context.Context, isbn string) (*metadata.BookData, error)
}

// CoverStore serves and invalidates cached cover images.
type CoverStore interface {
	GetCover(isbn string) (string, error)
	InvalidateCover(isbn string) error
}

// ImportEnqueuer hands import tasks to the background queue.
type ImportEnqueuer interface {
	EnqueueImport(task tasks.ImportEntryTask) error
}

// CoverWarmer schedules a background cover cache warm-up.
type CoverWarmer interface {
	EnqueueCoverFetch(isbn string) error
}

// OverdueScanner triggers the reminder scan on demand.
type OverdueScanner interface {
	ScanOnce(now time.Time) int
}
