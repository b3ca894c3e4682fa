package application

import (
	"context"
	"time"

	"github.com/bookline/service-booking/internal/clock"
	"github.com/bookline/service-booking/internal/domain/apperr"
	bookingDomain "github.com/bookline/service-booking/internal/domain/booking"
	"github.com/bookline/service-booking/internal/events"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	ServiceID   uuid.UUID `json:"service_id" binding:"required"`
	BookingDate time.Time `json:"booking_date" binding:"required"`
	FlexPass    bool      `json:"flex_pass"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID                 uuid.UUID                     `json:"id"`
	CustomerID         uuid.UUID                     `json:"customer_id"`
	ProviderID         uuid.UUID                     `json:"provider_id"`
	ServiceID          uuid.UUID                     `json:"service_id"`
	Status             string                        `json:"status"`
	BookingDate        time.Time                     `json:"booking_date"`
	DepositStatus      string                        `json:"deposit_status"`
	DepositAmountCents int64                         `json:"deposit_amount_cents"`
	FlexPassPurchased  bool                          `json:"flex_pass_purchased"`
	FlexPassFeeCents   int64                         `json:"flex_pass_fee_cents,omitempty"`
	Policy             *bookingDomain.PolicySnapshot `json:"policy,omitempty"`
	CancellationTime   *time.Time                    `json:"cancellation_time,omitempty"`
	CancellationReason string                        `json:"cancellation_reason,omitempty"`
	RefundAmountCents  int64                         `json:"refund_amount_cents"`
	RefundReason       string                        `json:"refund_reason,omitempty"`
	FeeChargedCents    int64                         `json:"fee_charged_cents"`
	NoShowAt           *time.Time                    `json:"no_show_at,omitempty"`
	DisputeStatus      string                        `json:"dispute_status"`
	DisputeReason      string                        `json:"dispute_reason,omitempty"`
	DisputeNotes       string                        `json:"dispute_notes,omitempty"`
	DisputeCreatedAt   *time.Time                    `json:"dispute_created_at,omitempty"`
	DisputeResolvedAt  *time.Time                    `json:"dispute_resolved_at,omitempty"`
	Version            int64                         `json:"version"`
	CreatedAt          time.Time                     `json:"created_at"`
	UpdatedAt          time.Time                     `json:"updated_at"`
}

// PaginatedResult wraps a page of items with pagination metadata.
type PaginatedResult[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// BookingService orchestrates the booking lifecycle: it is the only writer of
// booking status, and the single place the refund calculator, payment gateway
// and notification dispatcher meet.
type BookingService struct {
	repo           bookingDomain.BookingRepository
	policies       bookingDomain.ServicePolicyRepository
	gateway        PaymentGateway
	notifier       NotificationDispatcher
	reminders      ReminderScheduler
	clk            clock.Clock
	loc            *time.Location
	reminderOffset time.Duration
	logger         *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	policies bookingDomain.ServicePolicyRepository,
	gateway PaymentGateway,
	notifier NotificationDispatcher,
	reminders ReminderScheduler,
	clk clock.Clock,
	loc *time.Location,
	reminderOffset time.Duration,
	logger *zap.Logger,
) *BookingService {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingService{
		repo:           repo,
		policies:       policies,
		gateway:        gateway,
		notifier:       notifier,
		reminders:      reminders,
		clk:            clk,
		loc:            loc,
		reminderOffset: reminderOffset,
		logger:         logger,
	}
}

// CreateBooking freezes the service's current policy into a snapshot and
// creates a pending booking bound to it.
func (s *BookingService) CreateBooking(ctx context.Context, customerID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	now := s.clk.Now()
	if !req.BookingDate.After(now) {
		return nil, apperr.NewValidationError("booking date must be in the future")
	}

	policy, err := s.policies.FindByServiceID(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}

	snapshot := bookingDomain.BuildPolicySnapshot(*policy, now)
	if len(policy.FlexPassRules) > 0 && snapshot.FlexPassRules == nil {
		s.logger.Warn("flex-pass rules payload could not be parsed, degraded to nil",
			zap.String("service_id", policy.ServiceID.String()),
		)
	}

	bk, err := bookingDomain.NewBooking(
		customerID,
		policy.ProviderID,
		req.ServiceID,
		req.BookingDate,
		snapshot,
		req.FlexPass,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, bk); err != nil {
		return nil, err
	}

	s.notify(ctx, events.BookingCreated, events.BookingCreatedEvent{
		BookingID:          bk.ID(),
		CustomerID:         bk.CustomerID(),
		ProviderID:         bk.ProviderID(),
		ServiceID:          bk.ServiceID(),
		BookingDate:        bk.BookingDate(),
		DepositAmountCents: bk.DepositAmountCents(),
		FlexPassPurchased:  bk.FlexPassPurchased(),
		OccurredAt:         now,
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking cancels a booking after pricing the cancellation with the
// refund calculator. A refund-gateway failure does not abort the
// cancellation; the discrepancy is logged for manual reconciliation and the
// booking still transitions.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, requestorID uuid.UUID, reason string) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if bk.Status() == bookingDomain.StatusCancelled {
		return nil, apperr.NewInvalidTransitionError(string(bk.Status()), string(bookingDomain.StatusCancelled))
	}
	if !bk.Status().CanTransitionTo(bookingDomain.StatusCancelled) {
		return nil, apperr.NewInvalidTransitionError(string(bk.Status()), string(bookingDomain.StatusCancelled))
	}

	now := s.clk.Now()
	result, err := bookingDomain.CalculateRefund(bk, now, s.loc)
	if err != nil {
		return nil, err
	}

	// Never trust the raw calculator output past this bound.
	result.RefundAmountCents = clamp(result.RefundAmountCents, 0, bk.DepositAmountCents())

	refunded := false
	if result.RefundAmountCents > 0 && bk.DepositStatus() == bookingDomain.DepositPaid {
		_, err := s.gateway.Refund(ctx, bk.PaymentRef(), result.RefundAmountCents, string(result.Reason), map[string]string{
			"booking_id": bk.ID().String(),
		})
		if err != nil {
			s.logger.Error("refund gateway call failed during cancellation, continuing for manual reconciliation",
				zap.String("booking_id", bk.ID().String()),
				zap.Int64("refund_cents", result.RefundAmountCents),
				zap.Error(err),
			)
		} else {
			refunded = true
		}
	}

	if err := bk.Cancel(reason, result, now); err != nil {
		return nil, err
	}
	if refunded {
		bk.MarkDepositRefunded()
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.notify(ctx, events.BookingCancelled, events.BookingCancelledEvent{
		BookingID:         bk.ID(),
		CustomerID:        bk.CustomerID(),
		ProviderID:        bk.ProviderID(),
		CancelledBy:       requestorID,
		Reason:            reason,
		RefundAmountCents: bk.RefundAmountCents(),
		FeeCents:          bk.FeeChargedCents(),
		RefundReason:      bk.RefundReason(),
		OccurredAt:        now,
	})

	dto := toBookingDTO(bk)
	return &dto, nil
}

// MarkNoShow transitions a confirmed, overdue booking to no_show. When
// markedBy is set (a provider-initiated mark), that identity must own the
// booking's service; system-initiated marks pass nil.
func (s *BookingService) MarkNoShow(ctx context.Context, bookingID uuid.UUID, markedBy *uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if bk.Status() != bookingDomain.StatusConfirmed {
		return nil, apperr.NewInvalidTransitionError(string(bk.Status()), string(bookingDomain.StatusNoShow))
	}
	if markedBy != nil && *markedBy != bk.ProviderID() {
		return nil, apperr.NewForbiddenError("only the provider of the booked service can mark a no-show")
	}

	now := s.clk.Now()
	fee := bookingDomain.CalculateNoShowFee(bk)

	if err := bk.MarkNoShow(fee, now); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.notify(ctx, events.BookingNoShow, events.NoShowRecordedEvent{
		BookingID:  bk.ID(),
		CustomerID: bk.CustomerID(),
		ProviderID: bk.ProviderID(),
		FeeCents:   fee,
		MarkedBy:   markedBy,
		OccurredAt: now,
	})

	dto := toBookingDTO(bk)
	return &dto, nil
}

// ConfirmPayment moves a pending booking to confirmed after the gateway
// captured the deposit, and schedules the pre-booking reminder if its slot
// has not already passed.
func (s *BookingService) ConfirmPayment(ctx context.Context, bookingID uuid.UUID, paymentRef string) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := bk.ConfirmPayment(paymentRef); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	remindAt := bk.BookingDate().Add(-s.reminderOffset)
	if remindAt.After(s.clk.Now()) {
		if err := s.reminders.ScheduleReminder(ctx, bk.ID(), remindAt); err != nil {
			s.logger.Error("failed to schedule booking reminder",
				zap.String("booking_id", bk.ID().String()),
				zap.Time("remind_at", remindAt),
				zap.Error(err),
			)
		}
	}

	dto := toBookingDTO(bk)
	return &dto, nil
}

// HandleFailedPayment cancels a pending booking whose deposit capture failed.
func (s *BookingService) HandleFailedPayment(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	if err := bk.FailPayment(now); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.notify(ctx, events.BookingCancelled, events.BookingCancelledEvent{
		BookingID:  bk.ID(),
		CustomerID: bk.CustomerID(),
		ProviderID: bk.ProviderID(),
		Reason:     "deposit payment failed",
		OccurredAt: now,
	})

	dto := toBookingDTO(bk)
	return &dto, nil
}

// CreateDispute opens a dispute on a cancelled or no-show booking.
func (s *BookingService) CreateDispute(ctx context.Context, bookingID, openedBy uuid.UUID, reason string) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if openedBy != bk.CustomerID() {
		return nil, apperr.NewForbiddenError("only the booking customer can open a dispute")
	}

	now := s.clk.Now()
	if err := bk.OpenDispute(reason, now); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.notify(ctx, events.BookingDisputeOpened, events.DisputeOpenedEvent{
		BookingID:  bk.ID(),
		CustomerID: bk.CustomerID(),
		ProviderID: bk.ProviderID(),
		Reason:     reason,
		OccurredAt: now,
	})

	dto := toBookingDTO(bk)
	return &dto, nil
}

// ResolveDispute adjudicates a pending dispute. Unlike ordinary cancellation,
// a customer-win payout is the primary effect: if the gateway refund fails,
// the whole resolution is aborted and nothing is recorded.
func (s *BookingService) ResolveDispute(ctx context.Context, bookingID, resolvedBy uuid.UUID, resolution bookingDomain.DisputeResolution, notes string) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if bk.DisputeStatus() != bookingDomain.DisputePending {
		return nil, apperr.NewConflictError("no pending dispute on this booking")
	}
	if !resolution.IsValid() {
		return nil, apperr.NewValidationError("dispute resolution must name customer or provider")
	}

	now := s.clk.Now()

	if resolution == bookingDomain.ResolutionCustomer {
		_, err := s.gateway.Refund(ctx, bk.PaymentRef(), bk.DepositAmountCents(), "dispute_resolved_customer", map[string]string{
			"booking_id":  bk.ID().String(),
			"resolved_by": resolvedBy.String(),
		})
		if err != nil {
			return nil, apperr.NewDependencyError("dispute payout", err)
		}
	}

	if err := bk.ResolveDispute(resolution, notes, now); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.notify(ctx, events.BookingDisputeResolved, events.DisputeResolvedEvent{
		BookingID:         bk.ID(),
		CustomerID:        bk.CustomerID(),
		ProviderID:        bk.ProviderID(),
		Resolution:        resolution,
		RefundAmountCents: bk.RefundAmountCents(),
		Notes:             notes,
		OccurredAt:        now,
	})

	dto := toBookingDTO(bk)
	return &dto, nil
}

// PreviewRefund runs the refund calculator against "now" without touching
// the booking.
func (s *BookingService) PreviewRefund(ctx context.Context, bookingID uuid.UUID) (*bookingDomain.RefundResult, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	result, err := bookingDomain.CalculateRefund(bk, s.clk.Now(), s.loc)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetBooking retrieves a single booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	dto := toBookingDTO(bk)
	return &dto, nil
}

// GetCustomerBookings retrieves paginated bookings for a customer.
func (s *BookingService) GetCustomerBookings(ctx context.Context, customerID uuid.UUID, page, limit int) (*PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByCustomerID(ctx, customerID, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}

	return &PaginatedResult[BookingDTO]{Items: dtos, Total: total, Page: page, Limit: limit}, nil
}

// SplitFlexPassFee exposes the revenue splitter for the booking's flex pass.
func (s *BookingService) SplitFlexPassFee(ctx context.Context, bookingID uuid.UUID) (*bookingDomain.FlexPassSplit, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !bk.FlexPassPurchased() {
		return nil, apperr.NewValidationError("booking has no flex pass to split")
	}

	sharePct := bookingDomain.DefaultPlatformSharePercent
	if policy := bk.Policy(); policy != nil {
		sharePct = policy.FlexPassPlatformSharePct
	}

	split, err := bookingDomain.SplitFlexPass(bk.FlexPassFeeCents(), sharePct)
	if err != nil {
		return nil, err
	}
	return &split, nil
}

// notify publishes a notification request; failures are logged, never
// propagated into the caller's error path.
func (s *BookingService) notify(ctx context.Context, kind string, payload any) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, kind, payload); err != nil {
		s.logger.Error("failed to publish notification request",
			zap.String("kind", kind),
			zap.Error(err),
		)
	}
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:                 bk.ID(),
		CustomerID:         bk.CustomerID(),
		ProviderID:         bk.ProviderID(),
		ServiceID:          bk.ServiceID(),
		Status:             string(bk.Status()),
		BookingDate:        bk.BookingDate(),
		DepositStatus:      string(bk.DepositStatus()),
		DepositAmountCents: bk.DepositAmountCents(),
		FlexPassPurchased:  bk.FlexPassPurchased(),
		FlexPassFeeCents:   bk.FlexPassFeeCents(),
		Policy:             bk.Policy(),
		CancellationTime:   bk.CancellationTime(),
		CancellationReason: bk.CancellationReason(),
		RefundAmountCents:  bk.RefundAmountCents(),
		RefundReason:       string(bk.RefundReason()),
		FeeChargedCents:    bk.FeeChargedCents(),
		NoShowAt:           bk.NoShowAt(),
		DisputeStatus:      string(bk.DisputeStatus()),
		DisputeReason:      bk.DisputeReason(),
		DisputeNotes:       bk.DisputeNotes(),
		DisputeCreatedAt:   bk.DisputeCreatedAt(),
		DisputeResolvedAt:  bk.DisputeResolvedAt(),
		Version:            bk.Version(),
		CreatedAt:          bk.CreatedAt(),
		UpdatedAt:          bk.UpdatedAt(),
	}
}
