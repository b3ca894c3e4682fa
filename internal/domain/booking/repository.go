package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByCustomerID retrieves bookings for a specific customer with pagination.
	FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindOverdueConfirmed retrieves confirmed bookings whose start time lies
	// before the cutoff. Used by the no-show sweep.
	FindOverdueConfirmed(ctx context.Context, cutoff time.Time) ([]*Booking, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	// Two concurrent transitions on the same booking cannot both succeed; the
	// loser gets a conflict and must re-read.
	Update(ctx context.Context, booking *Booking) error
}

// ServicePolicyRepository provides the live policy configuration a snapshot
// is built from at booking creation.
type ServicePolicyRepository interface {
	// FindByServiceID retrieves the current policy for a service.
	FindByServiceID(ctx context.Context, serviceID uuid.UUID) (*ServicePolicy, error)
}
