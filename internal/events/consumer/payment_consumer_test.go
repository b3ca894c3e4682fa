package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bookline/service-booking/internal/application"
	"github.com/bookline/service-booking/internal/events"
	"github.com/bookline/service-booking/internal/platform/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubBookingService struct {
	confirmed []struct {
		BookingID  uuid.UUID
		PaymentRef string
	}
	failed []uuid.UUID
	err    error
}

func (s *stubBookingService) ConfirmPayment(_ context.Context, bookingID uuid.UUID, paymentRef string) (*application.BookingDTO, error) {
	s.confirmed = append(s.confirmed, struct {
		BookingID  uuid.UUID
		PaymentRef string
	}{bookingID, paymentRef})
	if s.err != nil {
		return nil, s.err
	}
	return &application.BookingDTO{ID: bookingID, Status: "confirmed"}, nil
}

func (s *stubBookingService) HandleFailedPayment(_ context.Context, bookingID uuid.UUID) (*application.BookingDTO, error) {
	s.failed = append(s.failed, bookingID)
	if s.err != nil {
		return nil, s.err
	}
	return &application.BookingDTO{ID: bookingID, Status: "cancelled"}, nil
}

func newTestConsumer(svc *stubBookingService) *PaymentEventConsumer {
	return &PaymentEventConsumer{service: svc, logger: zap.NewNop()}
}

func eventMessage(t *testing.T, eventType string, data any) kafkago.Message {
	t.Helper()
	ce, err := kafka.NewCloudEvent("service-payment", eventType, data)
	require.NoError(t, err)
	value, err := json.Marshal(ce)
	require.NoError(t, err)
	return kafkago.Message{Topic: events.TopicPaymentEvents, Value: value}
}

func TestHandleMessage_PaymentCaptured(t *testing.T) {
	svc := &stubBookingService{}
	c := newTestConsumer(svc)

	bookingID := uuid.New()
	msg := eventMessage(t, events.PaymentCaptured, events.PaymentCapturedEvent{
		BookingID:  bookingID,
		PaymentRef: "pi_abc",
		OccurredAt: time.Now().UTC(),
	})

	require.NoError(t, c.handleMessage(context.Background(), msg))
	require.Len(t, svc.confirmed, 1)
	assert.Equal(t, bookingID, svc.confirmed[0].BookingID)
	assert.Equal(t, "pi_abc", svc.confirmed[0].PaymentRef)
	assert.Empty(t, svc.failed)
}

func TestHandleMessage_PaymentFailed(t *testing.T) {
	svc := &stubBookingService{}
	c := newTestConsumer(svc)

	bookingID := uuid.New()
	msg := eventMessage(t, events.PaymentFailed, events.PaymentFailedEvent{
		BookingID:  bookingID,
		Reason:     "card_declined",
		OccurredAt: time.Now().UTC(),
	})

	require.NoError(t, c.handleMessage(context.Background(), msg))
	require.Len(t, svc.failed, 1)
	assert.Equal(t, bookingID, svc.failed[0])
	assert.Empty(t, svc.confirmed)
}

func TestHandleMessage_MalformedEnvelopeIsDropped(t *testing.T) {
	svc := &stubBookingService{}
	c := newTestConsumer(svc)

	msg := kafkago.Message{Topic: events.TopicPaymentEvents, Value: []byte(`{"broken`)}
	assert.NoError(t, c.handleMessage(context.Background(), msg), "malformed messages must commit, not redeliver")
	assert.Empty(t, svc.confirmed)
	assert.Empty(t, svc.failed)
}

func TestHandleMessage_MalformedDataIsDropped(t *testing.T) {
	svc := &stubBookingService{}
	c := newTestConsumer(svc)

	ce := kafka.CloudEvent{
		ID:     uuid.NewString(),
		Source: "service-payment",
		Type:   events.PaymentCaptured,
		Time:   time.Now().UTC(),
		Data:   json.RawMessage(`"not an object"`),
	}
	value, err := json.Marshal(ce)
	require.NoError(t, err)

	msg := kafkago.Message{Topic: events.TopicPaymentEvents, Value: value}
	assert.NoError(t, c.handleMessage(context.Background(), msg))
	assert.Empty(t, svc.confirmed)
}

func TestHandleMessage_UnknownTypeIsIgnored(t *testing.T) {
	svc := &stubBookingService{}
	c := newTestConsumer(svc)

	msg := eventMessage(t, "payment.refund_settled", map[string]string{"foo": "bar"})
	assert.NoError(t, c.handleMessage(context.Background(), msg))
	assert.Empty(t, svc.confirmed)
	assert.Empty(t, svc.failed)
}

func TestHandleMessage_ServiceErrorPropagates(t *testing.T) {
	svc := &stubBookingService{err: errors.New("version conflict")}
	c := newTestConsumer(svc)

	msg := eventMessage(t, events.PaymentCaptured, events.PaymentCapturedEvent{
		BookingID:  uuid.New(),
		PaymentRef: "pi_abc",
	})

	assert.Error(t, c.handleMessage(context.Background(), msg), "real failures must leave the offset uncommitted")
}
