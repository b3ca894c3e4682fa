package application

import (
	"context"
	"sync"
	"time"

	bookingDomain "github.com/bookline/service-booking/internal/domain/booking"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GracePeriod is how long past the booking start a confirmed booking may sit
// before the sweep considers it a no-show.
const GracePeriod = 2 * time.Hour

// defaultBatchWorkers bounds per-booking concurrency within one sweep pass.
const defaultBatchWorkers = 8

// noShowMarker is the slice of BookingService the detector drives.
type noShowMarker interface {
	MarkNoShow(ctx context.Context, bookingID uuid.UUID, markedBy *uuid.UUID) (*BookingDTO, error)
}

// BatchError records one booking that could not be processed.
type BatchError struct {
	BookingID uuid.UUID `json:"booking_id"`
	Err       string    `json:"error"`
}

// BatchResult summarizes one sweep pass. Individual booking failures are
// reported here, never raised: the pass itself succeeds as long as the scan
// completes.
type BatchResult struct {
	TotalFound     int          `json:"total_found"`
	TotalProcessed int          `json:"total_processed"`
	TotalFailed    int          `json:"total_failed"`
	Errors         []BatchError `json:"errors,omitempty"`
}

// NoShowService is the periodic sweep that finds overdue confirmed bookings
// and drives them through the state machine.
type NoShowService struct {
	repo    bookingDomain.BookingRepository
	marker  noShowMarker
	workers int
	logger  *zap.Logger
}

// NewNoShowService creates a NoShowService with the default worker bound.
func NewNoShowService(repo bookingDomain.BookingRepository, marker noShowMarker, logger *zap.Logger) *NoShowService {
	return &NoShowService{
		repo:    repo,
		marker:  marker,
		workers: defaultBatchWorkers,
		logger:  logger,
	}
}

// FindOverdue returns confirmed bookings whose start time plus the grace
// period has elapsed as of now.
func (s *NoShowService) FindOverdue(ctx context.Context, now time.Time) ([]*bookingDomain.Booking, error) {
	return s.repo.FindOverdueConfirmed(ctx, now.Add(-GracePeriod))
}

// ProcessBatch runs one sweep pass. Each booking is processed independently
// through a bounded worker pool; one failure never aborts or rolls back the
// others. Every transition is individually guarded by the optimistic lock, so
// a booking cancelled concurrently simply fails here with a conflict.
func (s *NoShowService) ProcessBatch(ctx context.Context, now time.Time) (*BatchResult, error) {
	overdue, err := s.FindOverdue(ctx, now)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{TotalFound: len(overdue)}
	if len(overdue) == 0 {
		return result, nil
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		jobs = make(chan uuid.UUID)
	)

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				_, err := s.marker.MarkNoShow(ctx, id, nil)
				mu.Lock()
				if err != nil {
					result.TotalFailed++
					result.Errors = append(result.Errors, BatchError{BookingID: id, Err: err.Error()})
				} else {
					result.TotalProcessed++
				}
				mu.Unlock()
			}
		}()
	}

	for _, bk := range overdue {
		jobs <- bk.ID()
	}
	close(jobs)
	wg.Wait()

	s.logger.Info("no-show sweep completed",
		zap.Int("found", result.TotalFound),
		zap.Int("processed", result.TotalProcessed),
		zap.Int("failed", result.TotalFailed),
	)
	return result, nil
}
