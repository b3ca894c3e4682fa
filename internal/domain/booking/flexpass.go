package booking

import (
	"math"

	"github.com/bookline/service-booking/internal/domain/apperr"
)

// FlexPassSplit is the platform/provider division of a flex-pass fee.
// PlatformAmountCents + ProviderAmountCents always equals TotalCents.
type FlexPassSplit struct {
	PlatformAmountCents int64 `json:"platform_amount_cents"`
	ProviderAmountCents int64 `json:"provider_amount_cents"`
	TotalCents          int64 `json:"total_cents"`
	PlatformPercent     int   `json:"platform_percent"`
	ProviderPercent     int   `json:"provider_percent"`
}

// SplitFlexPass divides a flex-pass price between platform and provider.
// The platform share is rounded half-up; the provider share is the remainder
// of the subtraction, never computed independently, so the two always sum to
// the price exactly.
func SplitFlexPass(priceCents int64, platformSharePct int) (FlexPassSplit, error) {
	if priceCents < 0 {
		return FlexPassSplit{}, apperr.NewValidationError("flex-pass price must be non-negative")
	}
	if platformSharePct < 0 || platformSharePct > 100 {
		return FlexPassSplit{}, apperr.NewValidationError("platform share percent must be within [0,100]")
	}

	platform := int64(math.Round(float64(priceCents) * float64(platformSharePct) / 100))
	return FlexPassSplit{
		PlatformAmountCents: platform,
		ProviderAmountCents: priceCents - platform,
		TotalCents:          priceCents,
		PlatformPercent:     platformSharePct,
		ProviderPercent:     100 - platformSharePct,
	}, nil
}
