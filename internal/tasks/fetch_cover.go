package tasks

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/openlibry/openlibry/internal/covers"
)

// FetchCoverTask warms the cover cache for one ISBN in the background, so
// the first catalog page load after an invalidation doesn't pay for the
// upstream fetch.
type FetchCoverTask struct {
	ISBN string `json:"isbn"`
}

// Config returns the queue configuration for cover fetch tasks.
func (t FetchCoverTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "fetch_cover",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     30 * time.Second,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// FetchCoverProcessor creates a processor function for FetchCoverTask.
func FetchCoverProcessor(fetcher CoverFetcher) backlite.QueueProcessor[FetchCoverTask] {
	return func(ctx context.Context, task FetchCoverTask) error {
		if fetcher == nil || task.ISBN == "" {
			return nil
		}
		if _, err := fetcher.GetCover(task.ISBN); err != nil {
			if errors.Is(err, covers.ErrNoCover) {
				// No cover upstream; nothing to retry
				return nil
			}
			return err
		}
		log.Printf("[TASK] Warmed cover cache for %s", task.ISBN)
		return nil
	}
}

// NewFetchCoverQueue creates a backlite queue for cover fetch tasks.
func NewFetchCoverQueue(fetcher CoverFetcher) backlite.Queue {
	return backlite.NewQueue(FetchCoverProcessor(fetcher))
}
