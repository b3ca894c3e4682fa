package application

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PaymentGateway executes refunds for captured deposits. Blocking,
// out-of-process; callers impose timeouts through ctx.
type PaymentGateway interface {
	// Refund returns the gateway receipt ID for the issued refund.
	Refund(ctx context.Context, paymentRef string, amountCents int64, reason string, metadata map[string]string) (string, error)
}

// NotificationDispatcher hands notification requests to the delivery
// pipeline. Fire-and-forget: failures are logged by the caller and never
// re-thrown into the state machine's error path.
type NotificationDispatcher interface {
	Publish(ctx context.Context, eventKind string, payload any) error
}

// ReminderScheduler enqueues a booking reminder for a future instant.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, bookingID uuid.UUID, at time.Time) error
}
