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

// ServicePolicyModel is the GORM model for the service_policies table.
type ServicePolicyModel struct {
	ServiceID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProviderID uuid.UUID `gorm:"type:uuid;index;not null"`

	DepositAmountCents int64  `gorm:"not null"`
	DepositType        string `gorm:"not null;size:20;default:'fixed'"`
	FullPriceCents     *int64 `gorm:""`

	CancellationWindowHours *float64        `gorm:""`
	MinimumNoticeHours      *float64        `gorm:""`
	LateFeeCents            *int64          `gorm:""`
	NoShowFeeCents          *int64          `gorm:""`
	AllowPartialRefunds     *bool           `gorm:""`
	AutoRefund              *bool           `gorm:""`
	FlexPassEnabled         bool            `gorm:"not null;default:false"`
	FlexPassPriceCents      int64           `gorm:"not null;default:0"`
	FlexPassPlatformShare   *int            `gorm:"column:flex_pass_platform_share_pct"`
	FlexPassRules           json.RawMessage `gorm:"type:jsonb"`
	AddOns                  json.RawMessage `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ServicePolicyModel) TableName() string {
	return "service_policies"
}

// GormServicePolicyRepository is the GORM-based implementation of
// ServicePolicyRepository.
type GormServicePolicyRepository struct {
	db *gorm.DB
}

// NewGormServicePolicyRepository creates a new GormServicePolicyRepository.
func NewGormServicePolicyRepository(db *gorm.DB) *GormServicePolicyRepository {
	return &GormServicePolicyRepository{db: db}
}

// FindByServiceID retrieves the current policy for a service.
func (r *GormServicePolicyRepository) FindByServiceID(ctx context.Context, serviceID uuid.UUID) (*bookingDomain.ServicePolicy, error) {
	var model ServicePolicyModel
	if err := r.db.WithContext(ctx).Where("service_id = ?", serviceID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFoundError("ServicePolicy", serviceID.String())
		}
		return nil, fmt.Errorf("failed to find service policy: %w", err)
	}
	return toDomainServicePolicy(&model)
}

func toDomainServicePolicy(m *ServicePolicyModel) (*bookingDomain.ServicePolicy, error) {
	var addOns []bookingDomain.ProtectionAddOnConfig
	if len(m.AddOns) > 0 {
		if err := json.Unmarshal(m.AddOns, &addOns); err != nil {
			return nil, fmt.Errorf("failed to unmarshal policy add-ons: %w", err)
		}
	}

	return &bookingDomain.ServicePolicy{
		ServiceID:  m.ServiceID,
		ProviderID: m.ProviderID,
		UpdatedAt:  m.UpdatedAt,

		DepositAmountCents: m.DepositAmountCents,
		DepositType:        m.DepositType,
		FullPriceCents:     m.FullPriceCents,

		CancellationWindowHours: m.CancellationWindowHours,
		MinimumNoticeHours:      m.MinimumNoticeHours,
		LateFeeCents:            m.LateFeeCents,
		NoShowFeeCents:          m.NoShowFeeCents,
		AllowPartialRefunds:     m.AllowPartialRefunds,
		AutoRefund:              m.AutoRefund,

		FlexPassEnabled:          m.FlexPassEnabled,
		FlexPassPriceCents:       m.FlexPassPriceCents,
		FlexPassPlatformSharePct: m.FlexPassPlatformShare,
		FlexPassRules:            m.FlexPassRules,

		AddOns: addOns,
	}, nil
}
