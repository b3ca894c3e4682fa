package booking

import (
	"fmt"
	"time"

	"github.com/bookline/service-booking/internal/domain/apperr"
)

// RefundReason is the machine-readable verdict of the refund calculator.
type RefundReason string

const (
	ReasonAlreadyRefunded    RefundReason = "already_refunded"
	ReasonNoRefundPolicy     RefundReason = "no_refund_policy"
	ReasonFlexPassProtection RefundReason = "flex_pass_protection"
	ReasonNoRefundTooLate    RefundReason = "no_refund_too_late"
	ReasonWithinWindow       RefundReason = "within_window"
	ReasonLateCancellation   RefundReason = "late_cancellation"
)

// PolicySource records which policy terms a refund verdict was based on.
type PolicySource string

const (
	PolicySourceSnapshot PolicySource = "snapshot"
	PolicySourceNone     PolicySource = "none"
)

// RefundResult is the calculator's output. It is never persisted as its own
// entity; the caller copies its fields onto the booking.
type RefundResult struct {
	RefundAmountCents int64        `json:"refund_amount_cents"`
	FeeCents          int64        `json:"fee_cents"`
	Reason            RefundReason `json:"reason"`
	Explanation       string       `json:"explanation"`
	HoursUntilBooking float64      `json:"hours_until_booking"`
	PolicySource      PolicySource `json:"policy_source"`
}

// CalculateRefund computes the refund owed and fee kept for cancelling the
// booking at the given instant. Pure and deterministic: no I/O, safe for
// unlimited concurrent calls, identical inputs always produce identical
// results.
//
// The decision rules are ordered; the first match wins. The minimum-notice
// cutoff is a strict `<` (a cancellation exactly at the cutoff falls into the
// late-cancellation band) while the free-cancellation window is inclusive
// (a cancellation exactly at the window boundary gets a full refund).
func CalculateRefund(b *Booking, now time.Time, loc *time.Location) (RefundResult, error) {
	if loc == nil {
		loc = time.UTC
	}

	if b.DepositStatus() == DepositRefunded || b.Status() == StatusRefunded {
		return RefundResult{
			Reason:       ReasonAlreadyRefunded,
			Explanation:  "the deposit for this booking was already refunded",
			PolicySource: PolicySourceSnapshot,
		}, nil
	}

	deposit := b.DepositAmountCents()
	if deposit <= 0 {
		return RefundResult{}, apperr.NewValidationError("booking has no priced deposit")
	}

	// Fail-safe: with no policy terms attached, keep the deposit rather than
	// silently refund it.
	policy := b.Policy()
	if policy == nil {
		return RefundResult{
			RefundAmountCents: 0,
			FeeCents:          deposit,
			Reason:            ReasonNoRefundPolicy,
			Explanation:       "no cancellation policy is attached to this booking",
			PolicySource:      PolicySourceNone,
		}, nil
	}
	if err := policy.Validate(); err != nil {
		return RefundResult{}, err
	}

	// Flex pass overrides every timing rule below.
	if b.FlexPassPurchased() {
		return RefundResult{
			RefundAmountCents: deposit,
			FeeCents:          0,
			Reason:            ReasonFlexPassProtection,
			Explanation:       "cancellation protection guarantees a full refund regardless of timing",
			HoursUntilBooking: hoursUntil(now, b.BookingDate(), loc),
			PolicySource:      PolicySourceSnapshot,
		}, nil
	}

	hours := hoursUntil(now, b.BookingDate(), loc)

	if !policy.AllowPartialRefunds && hours < policy.CancellationWindowHours {
		return RefundResult{
			RefundAmountCents: 0,
			FeeCents:          deposit,
			Reason:            ReasonNoRefundPolicy,
			Explanation:       "this service does not offer partial refunds inside the cancellation window",
			HoursUntilBooking: hours,
			PolicySource:      PolicySourceSnapshot,
		}, nil
	}

	if hours < policy.MinimumNoticeHours {
		return RefundResult{
			RefundAmountCents: 0,
			FeeCents:          deposit,
			Reason:            ReasonNoRefundTooLate,
			Explanation: fmt.Sprintf("cancellations require at least %.4g hours notice",
				policy.MinimumNoticeHours),
			HoursUntilBooking: hours,
			PolicySource:      PolicySourceSnapshot,
		}, nil
	}

	if hours >= policy.CancellationWindowHours {
		return RefundResult{
			RefundAmountCents: deposit,
			FeeCents:          0,
			Reason:            ReasonWithinWindow,
			Explanation: fmt.Sprintf("cancelled %.4g or more hours before the booking, full refund",
				policy.CancellationWindowHours),
			HoursUntilBooking: hours,
			PolicySource:      PolicySourceSnapshot,
		}, nil
	}

	// Between minimum notice and the free-cancellation window: the late band.
	var fee int64
	if policy.LateFeeCents != nil {
		fee = *policy.LateFeeCents
	}
	refund := deposit - fee
	if refund < 0 {
		refund = 0
	}
	return RefundResult{
		RefundAmountCents: refund,
		FeeCents:          fee,
		Reason:            ReasonLateCancellation,
		Explanation:       "cancelled inside the cancellation window, late-cancellation fee applies",
		HoursUntilBooking: hours,
		PolicySource:      PolicySourceSnapshot,
	}, nil
}

// CalculateNoShowFee returns the fee to charge for a no-show: the snapshot's
// configured no-show fee when one is set, else the full deposit. Never 0 by
// default.
func CalculateNoShowFee(b *Booking) int64 {
	if policy := b.Policy(); policy != nil && policy.NoShowFeeCents != nil {
		return *policy.NoShowFeeCents
	}
	return b.DepositAmountCents()
}

// hoursUntil returns the signed fractional hours from now until the booking
// start. Both instants are normalized into the same location before
// subtracting, so DST offsets cannot skew the duration.
func hoursUntil(now, bookingDate time.Time, loc *time.Location) float64 {
	return bookingDate.In(loc).Sub(now.In(loc)).Hours()
}
