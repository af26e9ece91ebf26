package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/openlibry/openlibry/internal/covers"
	"github.com/openlibry/openlibry/internal/entities"
)

// ImportEntryTask materializes one aggregated scan entry into the catalog:
// quantity-many book rows sharing the same metadata, plus a single cover
// fetch for the ISBN. Each scanned copy becomes its own row so it can be
// rented independently.
type ImportEntryTask struct {
	ISBN        string `json:"isbn"`
	Title       string `json:"title"`
	Author      string `json:"author,omitempty"`
	Subtitle    string `json:"subtitle,omitempty"`
	Publisher   string `json:"publisher,omitempty"`
	PublishYear int    `json:"publish_year,omitempty"`
	CoverURL    string `json:"cover_url,omitempty"`
	Quantity    int    `json:"quantity"`
}

// Config returns the queue configuration for import tasks.
func (t ImportEntryTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "import_entry",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// BookCreator is the slice of the books repository the import needs.
type BookCreator interface {
	AddBook(book *entities.Book) (*entities.Book, error)
}

// CoverFetcher is the slice of the cover cache the import needs.
type CoverFetcher interface {
	GetCover(isbn string) (string, error)
}

// IndexInvalidator lets the import drop the search index after new rows
// appear in the catalog.
type IndexInvalidator interface {
	Invalidate()
}

// ImportDeps carries the collaborators of the import processor.
type ImportDeps struct {
	Books  BookCreator
	Covers CoverFetcher
	Index  IndexInvalidator
}

// ImportEntryProcessor creates a processor function for ImportEntryTask.
func ImportEntryProcessor(deps ImportDeps) backlite.QueueProcessor[ImportEntryTask] {
	return func(ctx context.Context, task ImportEntryTask) error {
		if deps.Books == nil {
			return fmt.Errorf("book repository not configured")
		}

		quantity := task.Quantity
		if quantity < 1 {
			quantity = 1
		}

		// One cover fetch per entry; every copy shares the cached file.
		// A missing cover never fails the import.
		if deps.Covers != nil && task.ISBN != "" {
			if _, err := deps.Covers.GetCover(task.ISBN); err != nil && !errors.Is(err, covers.ErrNoCover) {
				log.Printf("[TASK] cover fetch for %s failed: %v", task.ISBN, err)
			}
		}

		for i := 0; i < quantity; i++ {
			book := &entities.Book{
				Title:        task.Title,
				Author:       task.Author,
				Subtitle:     task.Subtitle,
				Publisher:    task.Publisher,
				PublishYear:  task.PublishYear,
				ISBN:         task.ISBN,
				CoverURL:     task.CoverURL,
				RentalStatus: entities.StatusAvailable,
			}
			if _, err := deps.Books.AddBook(book); err != nil {
				return fmt.Errorf("import %s copy %d/%d: %w", task.ISBN, i+1, quantity, err)
			}
		}

		if deps.Index != nil {
			deps.Index.Invalidate()
		}

		log.Printf("[TASK] Imported %d copies of %s (%s)", quantity, task.Title, task.ISBN)
		return nil
	}
}

// NewImportEntryQueue creates a backlite queue for import tasks.
func NewImportEntryQueue(deps ImportDeps) backlite.Queue {
	return backlite.NewQueue(ImportEntryProcessor(deps))
}
