// internal/infrastructure/api/fx_rates_integration_test.go
package api

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/damon-houk/fx-rate-sync/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests call the real providers. Set FXSYNC_LIVE_TESTS=1 to run them.
func skipUnlessLive(t *testing.T) {
	t.Helper()
	if testing.Short() || os.Getenv("FXSYNC_LIVE_TESTS") != "1" {
		t.Skip("Skipping live provider test; set FXSYNC_LIVE_TESTS=1 to enable")
	}
}

func TestFallbackProviderIntegration(t *testing.T) {
	skipUnlessLive(t)

	client := NewFxRatesClient("", "", nil, logger.NewJSONLogger(nil, logger.InfoLevel))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	for _, base := range []string{"USD", "EUR", "UAH"} {
		t.Run(base, func(t *testing.T) {
			rates, err := client.FetchFallback(ctx, base)
			require.NoError(t, err)
			assert.NotEmpty(t, rates)

			for code, rate := range rates {
				assert.Greater(t, rate, 0.0, code)
			}
			t.Logf("Got %d fallback rates for %s", len(rates), base)
		})
	}
}

func TestPrimaryProviderIntegration(t *testing.T) {
	skipUnlessLive(t)

	baseURL := os.Getenv("FX_PRIMARY_BASE_URL")
	if baseURL == "" {
		t.Skip("FX_PRIMARY_BASE_URL not set")
	}

	client := NewFxRatesClient(baseURL, os.Getenv("FX_PRIMARY_API_KEY"), nil,
		logger.NewJSONLogger(nil, logger.InfoLevel))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	rates, err := client.FetchPrimary(ctx, "USD", "EUR,GBP")
	require.NoError(t, err)
	assert.Contains(t, rates, "EUR")
	assert.Contains(t, rates, "GBP")
}
