package tasks

import (
	"context"
	"encoding/json"

	"github.com/bookline/service-booking/internal/application"
	bookingDomain "github.com/bookline/service-booking/internal/domain/booking"
	"github.com/bookline/service-booking/internal/events"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// ReminderWorker runs the asynq server that delivers due booking reminders.
type ReminderWorker struct {
	server   *asynq.Server
	repo     bookingDomain.BookingRepository
	notifier application.NotificationDispatcher
	logger   *zap.Logger
}

// NewReminderWorker creates a ReminderWorker over the given Redis address.
func NewReminderWorker(
	redisAddr string,
	repo bookingDomain.BookingRepository,
	notifier application.NotificationDispatcher,
	logger *zap.Logger,
) *ReminderWorker {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 10,
		},
	)
	return &ReminderWorker{
		server:   server,
		repo:     repo,
		notifier: notifier,
		logger:   logger,
	}
}

// Start runs the worker. This blocks until Shutdown is called.
func (w *ReminderWorker) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeBookingReminder, w.handleReminder)
	return w.server.Run(mux)
}

// Shutdown stops the worker, waiting for in-flight tasks to finish.
func (w *ReminderWorker) Shutdown() {
	w.server.Shutdown()
}

// handleReminder fires a due reminder. The booking's status is re-checked at
// delivery time: a booking cancelled between scheduling and firing must not
// remind anyone.
func (w *ReminderWorker) handleReminder(ctx context.Context, task *asynq.Task) error {
	var payload ReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		w.logger.Error("invalid reminder payload, dropping task",
			zap.Error(err),
		)
		return nil
	}

	bk, err := w.repo.FindByID(ctx, payload.BookingID)
	if err != nil {
		w.logger.Error("failed to load booking for reminder",
			zap.String("booking_id", payload.BookingID.String()),
			zap.Error(err),
		)
		return err
	}

	if bk.Status() != bookingDomain.StatusConfirmed {
		w.logger.Debug("skipping reminder, booking no longer confirmed",
			zap.String("booking_id", bk.ID().String()),
			zap.String("status", string(bk.Status())),
		)
		return nil
	}

	evt := events.ReminderDueEvent{
		BookingID:   bk.ID(),
		CustomerID:  bk.CustomerID(),
		BookingDate: bk.BookingDate(),
		OccurredAt:  payload.RemindAt,
	}
	if err := w.notifier.Publish(ctx, events.BookingReminder, evt); err != nil {
		w.logger.Error("failed to publish reminder notification",
			zap.String("booking_id", bk.ID().String()),
			zap.Error(err),
		)
		return err
	}

	w.logger.Info("booking reminder delivered",
		zap.String("booking_id", bk.ID().String()),
	)
	return nil
}
