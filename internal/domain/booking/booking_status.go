package booking

import "fmt"

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
	StatusNoShow    BookingStatus = "no_show"
	StatusRefunded  BookingStatus = "refunded"
)

// validTransitions is the single source of truth for the booking state
// machine. Every status write must be checked against this table.
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
	StatusCompleted: {StatusRefunded},
	StatusNoShow:    {StatusRefunded},
	StatusCancelled: {},
	StatusRefunded:  {},
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// String returns the string representation of the status.
func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus, returning an error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

// DepositStatus tracks what happened to the customer's deposit.
type DepositStatus string

const (
	DepositPending  DepositStatus = "pending"
	DepositPaid     DepositStatus = "paid"
	DepositFailed   DepositStatus = "failed"
	DepositRefunded DepositStatus = "refunded"
)

// DisputeStatus is the nested dispute state machine inside a booking.
type DisputeStatus string

const (
	DisputeNone             DisputeStatus = "none"
	DisputePending          DisputeStatus = "pending"
	DisputeResolvedCustomer DisputeStatus = "resolved_customer"
	DisputeResolvedProvider DisputeStatus = "resolved_provider"
)

// DisputeResolution names the winning party of a dispute.
type DisputeResolution string

const (
	ResolutionCustomer DisputeResolution = "customer"
	ResolutionProvider DisputeResolution = "provider"
)

// IsValid returns true if the resolution names a known party.
func (r DisputeResolution) IsValid() bool {
	return r == ResolutionCustomer || r == ResolutionProvider
}
