package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TypeBookingReminder is the asynq task type for pre-booking reminders.
const TypeBookingReminder = "booking:reminder"

// ReminderPayload is the asynq task payload for a booking reminder.
type ReminderPayload struct {
	BookingID uuid.UUID `json:"booking_id"`
	RemindAt  time.Time `json:"remind_at"`
}

// ReminderClient enqueues delayed reminder tasks. It implements the
// application's ReminderScheduler.
type ReminderClient struct {
	client *asynq.Client
}

// NewReminderClient creates a ReminderClient over the given Redis address.
func NewReminderClient(redisAddr string) *ReminderClient {
	return &ReminderClient{
		client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr}),
	}
}

// ScheduleReminder enqueues a reminder task to fire at the given instant.
// A unique option keyed by booking spans the retention window, so a booking
// re-confirmed after a consumer redelivery does not enqueue a duplicate.
func (c *ReminderClient) ScheduleReminder(ctx context.Context, bookingID uuid.UUID, at time.Time) error {
	payload, err := json.Marshal(ReminderPayload{BookingID: bookingID, RemindAt: at})
	if err != nil {
		return fmt.Errorf("failed to marshal reminder payload: %w", err)
	}

	task := asynq.NewTask(TypeBookingReminder, payload)
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.ProcessAt(at),
		asynq.TaskID(fmt.Sprintf("%s:%s", TypeBookingReminder, bookingID)),
		asynq.Retention(24*time.Hour),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue reminder task: %w", err)
	}
	return nil
}

// Close closes the underlying asynq client.
func (c *ReminderClient) Close() error {
	return c.client.Close()
}
