package booking

import (
	"time"

	"github.com/bookline/service-booking/internal/domain/apperr"
	"github.com/google/uuid"
)

// Booking is the aggregate root for the booking domain. All status writes go
// through behavior methods guarded by the transition table; the persistence
// layer enforces the same guard again with optimistic locking.
type Booking struct {
	id         uuid.UUID
	customerID uuid.UUID
	providerID uuid.UUID
	serviceID  uuid.UUID

	status      BookingStatus
	bookingDate time.Time

	depositStatus      DepositStatus
	depositAmountCents int64
	paymentRef         string

	flexPassPurchased bool
	flexPassFeeCents  int64

	policy *PolicySnapshot

	cancellationTime   *time.Time
	cancellationReason string
	refundAmountCents  int64
	refundReason       RefundReason
	feeChargedCents    int64
	noShowAt           *time.Time

	disputeStatus     DisputeStatus
	disputeReason     string
	disputeNotes      string
	disputeCreatedAt  *time.Time
	disputeResolvedAt *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a new Booking in status=pending with the policy snapshot
// attached. The snapshot is frozen here and never re-read from the service.
func NewBooking(
	customerID, providerID, serviceID uuid.UUID,
	bookingDate time.Time,
	policy PolicySnapshot,
	purchaseFlexPass bool,
) (*Booking, error) {
	if customerID == uuid.Nil {
		return nil, apperr.NewValidationError("customer ID is required")
	}
	if providerID == uuid.Nil {
		return nil, apperr.NewValidationError("provider ID is required")
	}
	if serviceID == uuid.Nil {
		return nil, apperr.NewValidationError("service ID is required")
	}
	if bookingDate.IsZero() {
		return nil, apperr.NewValidationError("booking date is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if policy.DepositAmountCents <= 0 {
		return nil, apperr.NewValidationError("deposit amount must be positive")
	}
	if purchaseFlexPass && !policy.FlexPassEnabled {
		return nil, apperr.NewValidationError("flex pass is not offered for this service")
	}

	var flexPassFee int64
	if purchaseFlexPass {
		flexPassFee = policy.FlexPassPriceCents
	}

	now := time.Now().UTC()
	return &Booking{
		id:                 uuid.New(),
		customerID:         customerID,
		providerID:         providerID,
		serviceID:          serviceID,
		status:             StatusPending,
		bookingDate:        bookingDate.UTC(),
		depositStatus:      DepositPending,
		depositAmountCents: policy.DepositAmountCents,
		flexPassPurchased:  purchaseFlexPass,
		flexPassFeeCents:   flexPassFee,
		policy:             &policy,
		disputeStatus:      DisputeNone,
		version:            1,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id, customerID, providerID, serviceID uuid.UUID,
	status BookingStatus,
	bookingDate time.Time,
	depositStatus DepositStatus,
	depositAmountCents int64,
	paymentRef string,
	flexPassPurchased bool,
	flexPassFeeCents int64,
	policy *PolicySnapshot,
	cancellationTime *time.Time,
	cancellationReason string,
	refundAmountCents int64,
	refundReason RefundReason,
	feeChargedCents int64,
	noShowAt *time.Time,
	disputeStatus DisputeStatus,
	disputeReason string,
	disputeNotes string,
	disputeCreatedAt *time.Time,
	disputeResolvedAt *time.Time,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:                 id,
		customerID:         customerID,
		providerID:         providerID,
		serviceID:          serviceID,
		status:             status,
		bookingDate:        bookingDate,
		depositStatus:      depositStatus,
		depositAmountCents: depositAmountCents,
		paymentRef:         paymentRef,
		flexPassPurchased:  flexPassPurchased,
		flexPassFeeCents:   flexPassFeeCents,
		policy:             policy,
		cancellationTime:   cancellationTime,
		cancellationReason: cancellationReason,
		refundAmountCents:  refundAmountCents,
		refundReason:       refundReason,
		feeChargedCents:    feeChargedCents,
		noShowAt:           noShowAt,
		disputeStatus:      disputeStatus,
		disputeReason:      disputeReason,
		disputeNotes:       disputeNotes,
		disputeCreatedAt:   disputeCreatedAt,
		disputeResolvedAt:  disputeResolvedAt,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// CustomerID returns the booking customer's user ID.
func (b *Booking) CustomerID() uuid.UUID { return b.customerID }

// ProviderID returns the user ID of the provider owning the booked service.
func (b *Booking) ProviderID() uuid.UUID { return b.providerID }

// ServiceID returns the booked service's ID.
func (b *Booking) ServiceID() uuid.UUID { return b.serviceID }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// BookingDate returns the scheduled start of the booked service.
func (b *Booking) BookingDate() time.Time { return b.bookingDate }

// DepositStatus returns what happened to the deposit so far.
func (b *Booking) DepositStatus() DepositStatus { return b.depositStatus }

// DepositAmountCents returns the deposit amount in cents.
func (b *Booking) DepositAmountCents() int64 { return b.depositAmountCents }

// PaymentRef returns the payment-gateway reference for the captured deposit.
func (b *Booking) PaymentRef() string { return b.paymentRef }

// FlexPassPurchased returns true if cancellation protection was bought.
func (b *Booking) FlexPassPurchased() bool { return b.flexPassPurchased }

// FlexPassFeeCents returns the price paid for the flex pass, if any.
func (b *Booking) FlexPassFeeCents() int64 { return b.flexPassFeeCents }

// Policy returns the immutable policy snapshot, or nil if none is attached.
func (b *Booking) Policy() *PolicySnapshot { return b.policy }

// CancellationTime returns when the booking was cancelled, if it was.
func (b *Booking) CancellationTime() *time.Time { return b.cancellationTime }

// CancellationReason returns the caller-supplied cancellation explanation.
func (b *Booking) CancellationReason() string { return b.cancellationReason }

// RefundAmountCents returns the refunded amount recorded on the booking.
func (b *Booking) RefundAmountCents() int64 { return b.refundAmountCents }

// RefundReason returns the machine-readable refund reason code.
func (b *Booking) RefundReason() RefundReason { return b.refundReason }

// FeeChargedCents returns the fee kept from the deposit.
func (b *Booking) FeeChargedCents() int64 { return b.feeChargedCents }

// NoShowAt returns when the booking was marked a no-show, if it was.
func (b *Booking) NoShowAt() *time.Time { return b.noShowAt }

// DisputeStatus returns the state of the nested dispute workflow.
func (b *Booking) DisputeStatus() DisputeStatus { return b.disputeStatus }

// DisputeReason returns the customer's dispute reason.
func (b *Booking) DisputeReason() string { return b.disputeReason }

// DisputeNotes returns the admin's resolution notes.
func (b *Booking) DisputeNotes() string { return b.disputeNotes }

// DisputeCreatedAt returns when the dispute was opened.
func (b *Booking) DisputeCreatedAt() *time.Time { return b.disputeCreatedAt }

// DisputeResolvedAt returns when the dispute was adjudicated.
func (b *Booking) DisputeResolvedAt() *time.Time { return b.disputeResolvedAt }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// ConfirmPayment transitions the booking from pending to confirmed after the
// deposit was captured by the payment gateway.
func (b *Booking) ConfirmPayment(paymentRef string) error {
	if !b.status.CanTransitionTo(StatusConfirmed) {
		return apperr.NewInvalidTransitionError(string(b.status), string(StatusConfirmed))
	}
	b.status = StatusConfirmed
	b.depositStatus = DepositPaid
	b.paymentRef = paymentRef
	b.updatedAt = time.Now().UTC()
	return nil
}

// FailPayment cancels a pending booking whose deposit capture failed.
func (b *Booking) FailPayment(now time.Time) error {
	if !b.status.CanTransitionTo(StatusCancelled) {
		return apperr.NewInvalidTransitionError(string(b.status), string(StatusCancelled))
	}
	b.status = StatusCancelled
	b.depositStatus = DepositFailed
	b.cancellationTime = &now
	b.cancellationReason = "deposit payment failed"
	b.updatedAt = now
	return nil
}

// Cancel transitions the booking to cancelled and records the calculator's
// verdict. The caller clamps the refund amount before any gateway call;
// whether the money actually moved is tracked separately via
// MarkDepositRefunded.
func (b *Booking) Cancel(reason string, result RefundResult, now time.Time) error {
	if b.status == StatusCancelled {
		return apperr.NewInvalidTransitionError(string(b.status), string(StatusCancelled))
	}
	if !b.status.CanTransitionTo(StatusCancelled) {
		return apperr.NewInvalidTransitionError(string(b.status), string(StatusCancelled))
	}
	b.status = StatusCancelled
	b.cancellationTime = &now
	b.cancellationReason = reason
	b.refundAmountCents = result.RefundAmountCents
	b.refundReason = result.Reason
	b.feeChargedCents = result.FeeCents
	b.updatedAt = now
	return nil
}

// MarkNoShow transitions a confirmed booking to no_show and records the fee.
func (b *Booking) MarkNoShow(feeCents int64, now time.Time) error {
	if b.status != StatusConfirmed {
		return apperr.NewInvalidTransitionError(string(b.status), string(StatusNoShow))
	}
	b.status = StatusNoShow
	b.feeChargedCents = feeCents
	b.refundAmountCents = 0
	b.noShowAt = &now
	b.updatedAt = now
	return nil
}

// MarkDepositRefunded records that the gateway actually returned the deposit.
func (b *Booking) MarkDepositRefunded() {
	b.depositStatus = DepositRefunded
	b.updatedAt = time.Now().UTC()
}

// OpenDispute starts the dispute workflow on a cancelled or no-show booking.
// The dispute-status check runs first: a customer-win resolution can move the
// booking to refunded, and a repeat open on it must still report the conflict
// rather than the status restriction.
func (b *Booking) OpenDispute(reason string, now time.Time) error {
	switch b.disputeStatus {
	case DisputePending:
		return apperr.NewConflictError("a dispute is already pending on this booking")
	case DisputeResolvedCustomer, DisputeResolvedProvider:
		return apperr.NewConflictError("the dispute on this booking was already resolved")
	}
	if b.status != StatusCancelled && b.status != StatusNoShow {
		return apperr.NewValidationError("disputes can only be opened on cancelled or no-show bookings")
	}
	b.disputeStatus = DisputePending
	b.disputeReason = reason
	b.disputeCreatedAt = &now
	b.updatedAt = now
	return nil
}

// ResolveDispute adjudicates a pending dispute. A customer win records a full
// deposit refund; the status moves to refunded only where the transition
// table allows it (no_show does, cancelled is terminal and keeps its status
// while the deposit is still returned).
func (b *Booking) ResolveDispute(resolution DisputeResolution, notes string, now time.Time) error {
	if b.disputeStatus != DisputePending {
		return apperr.NewConflictError("no pending dispute on this booking")
	}
	if !resolution.IsValid() {
		return apperr.NewValidationError("dispute resolution must name customer or provider")
	}

	if resolution == ResolutionCustomer {
		b.disputeStatus = DisputeResolvedCustomer
		b.refundAmountCents = b.depositAmountCents
		b.feeChargedCents = 0
		b.depositStatus = DepositRefunded
		if b.status.CanTransitionTo(StatusRefunded) {
			b.status = StatusRefunded
		}
	} else {
		b.disputeStatus = DisputeResolvedProvider
	}

	b.disputeNotes = notes
	b.disputeResolvedAt = &now
	b.updatedAt = now
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
