package booking

import (
	"encoding/json"
	"time"

	"github.com/bookline/service-booking/internal/domain/apperr"
	"github.com/google/uuid"
)

// Defaults applied when a service policy leaves a field unset.
const (
	DefaultCancellationWindowHours = 24.0
	DefaultMinimumNoticeHours      = 2.0
	DefaultPlatformSharePercent    = 60
)

// ServicePolicy is the live cancellation/refund configuration of a service,
// as maintained by the provider. It is never read during refund calculation;
// its terms are frozen into a PolicySnapshot at booking creation.
type ServicePolicy struct {
	ServiceID  uuid.UUID `json:"service_id"`
	ProviderID uuid.UUID `json:"provider_id"`
	UpdatedAt  time.Time `json:"updated_at"`

	DepositAmountCents int64  `json:"deposit_amount_cents"`
	DepositType        string `json:"deposit_type"`
	FullPriceCents     *int64 `json:"full_price_cents,omitempty"`

	CancellationWindowHours *float64 `json:"cancellation_window_hours,omitempty"`
	MinimumNoticeHours      *float64 `json:"minimum_notice_hours,omitempty"`
	LateFeeCents            *int64   `json:"late_fee_cents,omitempty"`
	NoShowFeeCents          *int64   `json:"no_show_fee_cents,omitempty"`
	AllowPartialRefunds     *bool    `json:"allow_partial_refunds,omitempty"`
	AutoRefund              *bool    `json:"auto_refund,omitempty"`

	FlexPassEnabled          bool            `json:"flex_pass_enabled"`
	FlexPassPriceCents       int64           `json:"flex_pass_price_cents"`
	FlexPassPlatformSharePct *int            `json:"flex_pass_platform_share_pct,omitempty"`
	FlexPassRules            json.RawMessage `json:"flex_pass_rules,omitempty"`

	AddOns []ProtectionAddOnConfig `json:"add_ons,omitempty"`
}

// ProtectionAddOnConfig is a protection add-on as configured on the service.
type ProtectionAddOnConfig struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	PriceCents int64           `json:"price_cents"`
	Rules      json.RawMessage `json:"rules,omitempty"`
}

// ProtectionAddOn is a protection add-on frozen into a snapshot.
type ProtectionAddOn struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	PriceCents int64          `json:"price_cents"`
	Rules      map[string]any `json:"rules,omitempty"`
}

// PolicySnapshot is the frozen copy of a service's cancellation/refund terms,
// bound permanently to one booking. Once attached it is never mutated, even
// if the underlying service's policy later changes.
type PolicySnapshot struct {
	ServiceID     uuid.UUID `json:"service_id"`
	PolicyVersion time.Time `json:"policy_version"`
	CreatedAt     time.Time `json:"created_at"`

	DepositAmountCents int64  `json:"deposit_amount_cents"`
	DepositType        string `json:"deposit_type"`
	FullPriceCents     *int64 `json:"full_price_cents,omitempty"`

	CancellationWindowHours float64 `json:"cancellation_window_hours"`
	MinimumNoticeHours      float64 `json:"minimum_notice_hours"`
	LateFeeCents            *int64  `json:"late_fee_cents,omitempty"`
	NoShowFeeCents          *int64  `json:"no_show_fee_cents,omitempty"`
	AllowPartialRefunds     bool    `json:"allow_partial_refunds"`
	AutoRefund              bool    `json:"auto_refund"`

	FlexPassEnabled          bool           `json:"flex_pass_enabled"`
	FlexPassPriceCents       int64          `json:"flex_pass_price_cents"`
	FlexPassPlatformSharePct int            `json:"flex_pass_platform_share_pct"`
	FlexPassRules            map[string]any `json:"flex_pass_rules,omitempty"`

	AddOns []ProtectionAddOn `json:"add_ons,omitempty"`
}

// BuildPolicySnapshot freezes a service policy into an immutable snapshot,
// applying defaults for unset fields. A freeform rules payload that fails to
// decode degrades to nil rather than failing the booking (the caller logs
// the degradation).
func BuildPolicySnapshot(policy ServicePolicy, now time.Time) PolicySnapshot {
	snap := PolicySnapshot{
		ServiceID:     policy.ServiceID,
		PolicyVersion: policy.UpdatedAt,
		CreatedAt:     now.UTC(),

		DepositAmountCents: policy.DepositAmountCents,
		DepositType:        policy.DepositType,
		FullPriceCents:     policy.FullPriceCents,

		CancellationWindowHours: DefaultCancellationWindowHours,
		MinimumNoticeHours:      DefaultMinimumNoticeHours,
		LateFeeCents:            policy.LateFeeCents,
		NoShowFeeCents:          policy.NoShowFeeCents,
		AllowPartialRefunds:     true,
		AutoRefund:              true,

		FlexPassEnabled:          policy.FlexPassEnabled,
		FlexPassPriceCents:       policy.FlexPassPriceCents,
		FlexPassPlatformSharePct: DefaultPlatformSharePercent,
	}

	if policy.CancellationWindowHours != nil {
		snap.CancellationWindowHours = *policy.CancellationWindowHours
	}
	if policy.MinimumNoticeHours != nil {
		snap.MinimumNoticeHours = *policy.MinimumNoticeHours
	}
	if policy.AllowPartialRefunds != nil {
		snap.AllowPartialRefunds = *policy.AllowPartialRefunds
	}
	if policy.AutoRefund != nil {
		snap.AutoRefund = *policy.AutoRefund
	}
	if policy.FlexPassPlatformSharePct != nil {
		snap.FlexPassPlatformSharePct = *policy.FlexPassPlatformSharePct
	}

	snap.FlexPassRules = decodeRules(policy.FlexPassRules)

	if len(policy.AddOns) > 0 {
		snap.AddOns = make([]ProtectionAddOn, len(policy.AddOns))
		for i, a := range policy.AddOns {
			snap.AddOns[i] = ProtectionAddOn{
				ID:         a.ID,
				Name:       a.Name,
				PriceCents: a.PriceCents,
				Rules:      decodeRules(a.Rules),
			}
		}
	}

	return snap
}

// decodeRules parses a freeform rules payload into an opaque map. Anything
// that is not a JSON object degrades to nil.
func decodeRules(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var rules map[string]any
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil
	}
	return rules
}

// Validate rejects malformed snapshots read back from storage. It guards
// against storage corruption: every monetary field must be non-negative,
// the revenue-share percent must be within [0,100], and identity/date
// fields must be present.
func (s PolicySnapshot) Validate() error {
	if s.ServiceID == uuid.Nil {
		return apperr.NewInvalidSnapshotError("policy snapshot has no service ID")
	}
	if s.CreatedAt.IsZero() {
		return apperr.NewInvalidSnapshotError("policy snapshot has no creation timestamp")
	}
	if s.DepositAmountCents < 0 {
		return apperr.NewInvalidSnapshotError("policy snapshot has a negative deposit amount")
	}
	if s.FullPriceCents != nil && *s.FullPriceCents < 0 {
		return apperr.NewInvalidSnapshotError("policy snapshot has a negative full price")
	}
	if s.LateFeeCents != nil && *s.LateFeeCents < 0 {
		return apperr.NewInvalidSnapshotError("policy snapshot has a negative late-cancellation fee")
	}
	if s.NoShowFeeCents != nil && *s.NoShowFeeCents < 0 {
		return apperr.NewInvalidSnapshotError("policy snapshot has a negative no-show fee")
	}
	if s.FlexPassPriceCents < 0 {
		return apperr.NewInvalidSnapshotError("policy snapshot has a negative flex-pass price")
	}
	if s.FlexPassPlatformSharePct < 0 || s.FlexPassPlatformSharePct > 100 {
		return apperr.NewInvalidSnapshotError("policy snapshot platform share percent is outside [0,100]")
	}
	for _, a := range s.AddOns {
		if a.PriceCents < 0 {
			return apperr.NewInvalidSnapshotError("policy snapshot has a protection add-on with a negative price")
		}
	}
	return nil
}
