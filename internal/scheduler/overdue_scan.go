// Package scheduler runs the periodic overdue scan that stamps rented
// books whose due date has passed, feeding the reminder-letter report.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/openlibry/openlibry/internal/config"
	"github.com/openlibry/openlibry/internal/dates"
	"github.com/openlibry/openlibry/internal/entities"
)

// OverdueStore is the slice of the books repository the scan needs.
type OverdueStore interface {
	GetOverdueBooks(now time.Time) ([]entities.Book, error)
	StampReminder(id uint, at time.Time) error
}

// OverdueScanScheduler periodically finds overdue loans and stamps them
// with a reminder timestamp. A loan is stamped at most once per due date:
// extending a loan clears the stamp implicitly because the new due date
// postdates it.
type OverdueScanScheduler struct {
	store  OverdueStore
	config config.Reminder

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isScanning bool
	cancelFunc context.CancelFunc
}

// NewOverdueScanScheduler creates a new scheduler instance.
func NewOverdueScanScheduler(store OverdueStore, cfg config.Reminder) *OverdueScanScheduler {
	return &OverdueScanScheduler{
		store:  store,
		config: cfg,
		cron:   cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if the reminder scan is enabled.
func (s *OverdueScanScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.Enabled {
		log.Printf("Overdue scan scheduler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.runScan()
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.config.Schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Overdue scan scheduler: started with schedule '%s'", s.config.Schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler.
func (s *OverdueScanScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new jobs and wait for a running scan to complete
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Overdue scan scheduler: stopped")
}

// RunNow triggers an immediate scan.
func (s *OverdueScanScheduler) RunNow() {
	go s.runScan()
}

// IsRunning returns whether the scheduler is active.
func (s *OverdueScanScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next scan will occur.
func (s *OverdueScanScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runScan performs the actual overdue scan.
func (s *OverdueScanScheduler) runScan() {
	s.mu.Lock()
	if s.isScanning {
		s.mu.Unlock()
		log.Printf("Overdue scan: skipped (already scanning)")
		return
	}
	s.isScanning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isScanning = false
		s.mu.Unlock()
	}()

	now := time.Now()
	s.ScanOnce(now)
}

// ScanOnce runs a single scan pass for the given instant. Exposed for the
// admin "run now" endpoint and tests.
func (s *OverdueScanScheduler) ScanOnce(now time.Time) (stamped int) {
	startTime := time.Now()

	books, err := s.store.GetOverdueBooks(now)
	if err != nil {
		log.Printf("Overdue scan: failed to list overdue loans: %v", err)
		return 0
	}

	for _, book := range books {
		if book.DueDate == nil {
			continue
		}
		// Already reminded for this due date
		if book.ReminderAt != nil && book.ReminderAt.After(*book.DueDate) {
			continue
		}

		if err := s.store.StampReminder(book.ID, now); err != nil {
			log.Printf("Overdue scan: failed to stamp book %d: %v", book.ID, err)
			continue
		}
		stamped++

		overdueDays := dates.DiffDays(now, *book.DueDate)
		log.Printf("Overdue scan: book %d (%s) is %d days overdue", book.ID, book.Title, overdueDays)
	}

	log.Printf("Overdue scan: %d of %d overdue loans stamped in %v",
		stamped, len(books), time.Since(startTime).Round(time.Millisecond))
	return stamped
}
