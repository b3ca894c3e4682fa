package booking

import (
	"testing"

	"github.com/bookline/service-booking/internal/domain/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFlexPass(t *testing.T) {
	tests := []struct {
		name         string
		price        int64
		platformPct  int
		wantPlatform int64
		wantProvider int64
	}{
		{"9.99 at 60/40", 999, 60, 599, 400},
		{"even split", 1000, 50, 500, 500},
		{"all platform", 1000, 100, 1000, 0},
		{"all provider", 1000, 0, 0, 1000},
		{"zero price", 0, 60, 0, 0},
		{"half-up rounding", 1001, 25, 250, 751},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			split, err := SplitFlexPass(tt.price, tt.platformPct)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPlatform, split.PlatformAmountCents)
			assert.Equal(t, tt.wantProvider, split.ProviderAmountCents)
			assert.Equal(t, tt.price, split.TotalCents)
			assert.Equal(t, 100-tt.platformPct, split.ProviderPercent)
		})
	}
}

func TestSplitFlexPass_SharesAlwaysSumToPrice(t *testing.T) {
	prices := []int64{0, 1, 99, 100, 999, 1001, 12345, 999999}
	for _, price := range prices {
		for pct := 0; pct <= 100; pct++ {
			split, err := SplitFlexPass(price, pct)
			require.NoError(t, err)
			assert.Equal(t, price, split.PlatformAmountCents+split.ProviderAmountCents,
				"price=%d pct=%d", price, pct)
			assert.Equal(t, 100, split.PlatformPercent+split.ProviderPercent)
		}
	}
}

func TestSplitFlexPass_InvalidInput(t *testing.T) {
	_, err := SplitFlexPass(-1, 60)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))

	_, err = SplitFlexPass(100, -1)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))

	_, err = SplitFlexPass(100, 101)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}
