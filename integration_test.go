//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	bookingEvents "github.com/bookline/service-booking/internal/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPaymentCaptured_ConfirmsBooking verifies that when a payment.captured
// event is published to payment.events, the booking service picks it up and
// transitions the pending booking to "confirmed".
func TestPaymentCaptured_ConfirmsBooking(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	bookingID := uuid.New()
	seedPendingBooking(t, infra.DB, bookingID, uuid.New(), uuid.New(), uuid.New())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	evt := bookingEvents.PaymentCapturedEvent{
		BookingID:  bookingID,
		PaymentRef: "pi_integration_test",
		OccurredAt: time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, bookingEvents.TopicPaymentEvents,
		"service-payment", bookingEvents.PaymentCaptured, evt)

	model := waitForBookingStatus(t, infra.DB, bookingID, "confirmed", 15*time.Second)
	assert.Equal(t, "paid", model.DepositStatus)
	assert.Equal(t, "pi_integration_test", model.PaymentRef)
	assert.Equal(t, int64(2), model.Version, "optimistic lock version should advance")
}

// TestPaymentFailed_CancelsBooking verifies that a payment.failed event
// cancels the pending booking and emits a cancellation notification.
func TestPaymentFailed_CancelsBooking(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	bookingID := uuid.New()
	customerID := uuid.New()
	seedPendingBooking(t, infra.DB, bookingID, customerID, uuid.New(), uuid.New())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	evt := bookingEvents.PaymentFailedEvent{
		BookingID:  bookingID,
		Reason:     "card_declined",
		OccurredAt: time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, bookingEvents.TopicPaymentEvents,
		"service-payment", bookingEvents.PaymentFailed, evt)

	model := waitForBookingStatus(t, infra.DB, bookingID, "cancelled", 15*time.Second)
	assert.Equal(t, "failed", model.DepositStatus)

	ce := consumeOneEvent(t, infra.KafkaBrokers, bookingEvents.TopicNotifications,
		bookingEvents.BookingCancelled, 15*time.Second)

	var cancelled bookingEvents.BookingCancelledEvent
	require.NoError(t, ce.ParseData(&cancelled))
	assert.Equal(t, bookingID, cancelled.BookingID)
	assert.Equal(t, customerID, cancelled.CustomerID)
}
