package application

import (
	"context"
	"sync"
	"time"

	"github.com/bookline/service-booking/internal/domain/apperr"
	bookingDomain "github.com/bookline/service-booking/internal/domain/booking"
	"github.com/google/uuid"
)

type mockBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking
	saveErr  error
	updErr   error
	findErr  error
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
}

func (m *mockBookingRepo) put(bk *bookingDomain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[bk.ID()] = bk
}

func (m *mockBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	bk, ok := m.bookings[id]
	if !ok {
		return nil, apperr.NewNotFoundError("Booking", id.String())
	}
	return bk, nil
}

func (m *mockBookingRepo) FindByCustomerID(_ context.Context, customerID uuid.UUID, _, _ int) ([]*bookingDomain.Booking, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range m.bookings {
		if bk.CustomerID() == customerID {
			out = append(out, bk)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockBookingRepo) FindOverdueConfirmed(_ context.Context, cutoff time.Time) ([]*bookingDomain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range m.bookings {
		if bk.Status() == bookingDomain.StatusConfirmed && bk.BookingDate().Before(cutoff) {
			out = append(out, bk)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int64)
	for _, bk := range m.bookings {
		counts[string(bk.Status())]++
	}
	return counts, nil
}

func (m *mockBookingRepo) Save(_ context.Context, bk *bookingDomain.Booking) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.put(bk)
	return nil
}

func (m *mockBookingRepo) Update(_ context.Context, bk *bookingDomain.Booking) error {
	if m.updErr != nil {
		return m.updErr
	}
	m.put(bk)
	return nil
}

type mockPolicyRepo struct {
	policies map[uuid.UUID]*bookingDomain.ServicePolicy
}

func (m *mockPolicyRepo) FindByServiceID(_ context.Context, serviceID uuid.UUID) (*bookingDomain.ServicePolicy, error) {
	p, ok := m.policies[serviceID]
	if !ok {
		return nil, apperr.NewNotFoundError("ServicePolicy", serviceID.String())
	}
	return p, nil
}

type refundCall struct {
	PaymentRef  string
	AmountCents int64
	Reason      string
	Metadata    map[string]string
}

type mockGateway struct {
	mu    sync.Mutex
	calls []refundCall
	err   error
}

func (m *mockGateway) Refund(_ context.Context, paymentRef string, amountCents int64, reason string, metadata map[string]string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, refundCall{paymentRef, amountCents, reason, metadata})
	if m.err != nil {
		return "", m.err
	}
	return "re_mock", nil
}

type mockNotifier struct {
	mu    sync.Mutex
	kinds []string
	err   error
}

func (m *mockNotifier) Publish(_ context.Context, eventKind string, _ any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kinds = append(m.kinds, eventKind)
	return m.err
}

type scheduledReminder struct {
	BookingID uuid.UUID
	At        time.Time
}

type mockReminders struct {
	mu        sync.Mutex
	scheduled []scheduledReminder
	err       error
}

func (m *mockReminders) ScheduleReminder(_ context.Context, bookingID uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.scheduled = append(m.scheduled, scheduledReminder{bookingID, at})
	return nil
}
