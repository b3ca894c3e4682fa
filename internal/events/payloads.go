package events

import (
	"time"

	"github.com/bookline/service-booking/internal/domain/booking"
	"github.com/google/uuid"
)

// Topics used by the booking engine.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
	TopicNotifications = "notification.requests"
)

// Event types published on booking.events and notification.requests.
const (
	BookingCreated         = "booking.created"
	BookingCancelled       = "booking.cancelled"
	BookingNoShow          = "booking.no_show"
	BookingReminder        = "booking.reminder"
	BookingDisputeOpened   = "booking.dispute_opened"
	BookingDisputeResolved = "booking.dispute_resolved"
)

// Event types consumed from payment.events.
const (
	PaymentCaptured = "payment.captured"
	PaymentFailed   = "payment.failed"
)

// Source identifies this service in outbound CloudEvents.
const Source = "service-booking"

// BookingCreatedEvent is published when a booking enters pending.
type BookingCreatedEvent struct {
	BookingID          uuid.UUID `json:"booking_id"`
	CustomerID         uuid.UUID `json:"customer_id"`
	ProviderID         uuid.UUID `json:"provider_id"`
	ServiceID          uuid.UUID `json:"service_id"`
	BookingDate        time.Time `json:"booking_date"`
	DepositAmountCents int64     `json:"deposit_amount_cents"`
	FlexPassPurchased  bool      `json:"flex_pass_purchased"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// BookingCancelledEvent carries the full refund context of a cancellation.
type BookingCancelledEvent struct {
	BookingID         uuid.UUID            `json:"booking_id"`
	CustomerID        uuid.UUID            `json:"customer_id"`
	ProviderID        uuid.UUID            `json:"provider_id"`
	CancelledBy       uuid.UUID            `json:"cancelled_by"`
	Reason            string               `json:"reason"`
	RefundAmountCents int64                `json:"refund_amount_cents"`
	FeeCents          int64                `json:"fee_cents"`
	RefundReason      booking.RefundReason `json:"refund_reason"`
	OccurredAt        time.Time            `json:"occurred_at"`
}

// NoShowRecordedEvent is published when a booking is marked a no-show.
type NoShowRecordedEvent struct {
	BookingID  uuid.UUID  `json:"booking_id"`
	CustomerID uuid.UUID  `json:"customer_id"`
	ProviderID uuid.UUID  `json:"provider_id"`
	FeeCents   int64      `json:"fee_cents"`
	MarkedBy   *uuid.UUID `json:"marked_by,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// ReminderDueEvent asks the notification pipeline to remind the customer.
type ReminderDueEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	BookingDate time.Time `json:"booking_date"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// DisputeOpenedEvent notifies both parties that a dispute was opened.
type DisputeOpenedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	ProviderID uuid.UUID `json:"provider_id"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

// DisputeResolvedEvent notifies both parties of the adjudication outcome.
type DisputeResolvedEvent struct {
	BookingID         uuid.UUID                 `json:"booking_id"`
	CustomerID        uuid.UUID                 `json:"customer_id"`
	ProviderID        uuid.UUID                 `json:"provider_id"`
	Resolution        booking.DisputeResolution `json:"resolution"`
	RefundAmountCents int64                     `json:"refund_amount_cents"`
	Notes             string                    `json:"notes"`
	OccurredAt        time.Time                 `json:"occurred_at"`
}

// PaymentCapturedEvent is consumed from the payment service when a deposit
// charge succeeds.
type PaymentCapturedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	PaymentRef string    `json:"payment_ref"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PaymentFailedEvent is consumed from the payment service when a deposit
// charge fails.
type PaymentFailedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}
