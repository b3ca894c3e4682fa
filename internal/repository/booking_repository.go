package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bookline/service-booking/internal/domain/apperr"
	bookingDomain "github.com/bookline/service-booking/internal/domain/booking"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CustomerID         uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProviderID         uuid.UUID       `gorm:"type:uuid;index;not null"`
	ServiceID          uuid.UUID       `gorm:"type:uuid;index;not null"`
	Status             string          `gorm:"not null;size:30;index:idx_bookings_status_date"`
	BookingDate        time.Time       `gorm:"not null;index:idx_bookings_status_date"`
	DepositStatus      string          `gorm:"not null;size:20"`
	DepositAmountCents int64           `gorm:"not null"`
	PaymentRef         string          `gorm:"size:100"`
	FlexPassPurchased  bool            `gorm:"not null;default:false"`
	FlexPassFeeCents   int64           `gorm:"not null;default:0"`
	PolicySnapshot     json.RawMessage `gorm:"type:jsonb"`
	CancellationTime   *time.Time      `gorm:""`
	CancellationReason string          `gorm:"size:500"`
	RefundAmountCents  int64           `gorm:"not null;default:0"`
	RefundReason       string          `gorm:"size:50"`
	FeeChargedCents    int64           `gorm:"not null;default:0"`
	NoShowAt           *time.Time      `gorm:""`
	DisputeStatus      string          `gorm:"not null;size:30;default:'none'"`
	DisputeReason      string          `gorm:"size:1000"`
	DisputeNotes       string          `gorm:"size:1000"`
	DisputeCreatedAt   *time.Time      `gorm:""`
	DisputeResolvedAt  *time.Time      `gorm:""`
	Version            int64           `gorm:"not null;default:1"`
	CreatedAt          time.Time       `gorm:"not null"`
	UpdatedAt          time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByCustomerID retrieves bookings for a specific customer with pagination.
func (r *GormBookingRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Where("customer_id = ?", customerID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count customer bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find customer bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}

	return bookings, total, nil
}

// FindOverdueConfirmed retrieves confirmed bookings whose start time lies
// before the cutoff.
func (r *GormBookingRepository) FindOverdueConfirmed(ctx context.Context, cutoff time.Time) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND booking_date < ?", string(bookingDomain.StatusConfirmed), cutoff).
		Order("booking_date ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find overdue bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}

	return bookings, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	// Optimistic locking: only update if the version matches (current version - 1 since IncrementVersion was called)
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":              model.Status,
			"deposit_status":      model.DepositStatus,
			"payment_ref":         model.PaymentRef,
			"cancellation_time":   model.CancellationTime,
			"cancellation_reason": model.CancellationReason,
			"refund_amount_cents": model.RefundAmountCents,
			"refund_reason":       model.RefundReason,
			"fee_charged_cents":   model.FeeChargedCents,
			"no_show_at":          model.NoShowAt,
			"dispute_status":      model.DisputeStatus,
			"dispute_reason":      model.DisputeReason,
			"dispute_notes":       model.DisputeNotes,
			"dispute_created_at":  model.DisputeCreatedAt,
			"dispute_resolved_at": model.DisputeResolvedAt,
			"version":             model.Version,
			"updated_at":          model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return apperr.NewConflictError("booking was modified by another transaction")
	}

	return nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) (*BookingModel, error) {
	var snapshotJSON json.RawMessage
	if policy := bk.Policy(); policy != nil {
		data, err := json.Marshal(policy)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal policy snapshot: %w", err)
		}
		snapshotJSON = data
	}

	return &BookingModel{
		ID:                 bk.ID(),
		CustomerID:         bk.CustomerID(),
		ProviderID:         bk.ProviderID(),
		ServiceID:          bk.ServiceID(),
		Status:             string(bk.Status()),
		BookingDate:        bk.BookingDate(),
		DepositStatus:      string(bk.DepositStatus()),
		DepositAmountCents: bk.DepositAmountCents(),
		PaymentRef:         bk.PaymentRef(),
		FlexPassPurchased:  bk.FlexPassPurchased(),
		FlexPassFeeCents:   bk.FlexPassFeeCents(),
		PolicySnapshot:     snapshotJSON,
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
	}, nil
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	var snapshot *bookingDomain.PolicySnapshot
	if len(m.PolicySnapshot) > 0 {
		var snap bookingDomain.PolicySnapshot
		if err := json.Unmarshal(m.PolicySnapshot, &snap); err != nil {
			return nil, fmt.Errorf("failed to unmarshal policy snapshot: %w", err)
		}
		snapshot = &snap
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.CustomerID,
		m.ProviderID,
		m.ServiceID,
		bookingDomain.BookingStatus(m.Status),
		m.BookingDate,
		bookingDomain.DepositStatus(m.DepositStatus),
		m.DepositAmountCents,
		m.PaymentRef,
		m.FlexPassPurchased,
		m.FlexPassFeeCents,
		snapshot,
		m.CancellationTime,
		m.CancellationReason,
		m.RefundAmountCents,
		bookingDomain.RefundReason(m.RefundReason),
		m.FeeChargedCents,
		m.NoShowAt,
		bookingDomain.DisputeStatus(m.DisputeStatus),
		m.DisputeReason,
		m.DisputeNotes,
		m.DisputeCreatedAt,
		m.DisputeResolvedAt,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
