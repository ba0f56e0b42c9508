package config

import (
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "USD", cfg.BaseCurrency)
	assert.Empty(t, cfg.TargetCurrencies)
	assert.Equal(t, "https://api.fxratesapi.com", cfg.PrimaryBaseURL)
	assert.Equal(t, 90, cfg.RetentionDays)
	assert.Equal(t, "@hourly", cfg.SyncSchedule)
	assert.Equal(t, "0 2 * * *", cfg.SweepSchedule)
	assert.True(t, cfg.SyncOnStart)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 2*time.Minute, cfg.JobTimeout)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, ":8080", cfg.Address())
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("FX_BASE_CURRENCY", "uah")
	t.Setenv("FX_TARGET_CURRENCIES", "usd, eur")
	t.Setenv("FX_RETENTION_DAYS", "30")
	t.Setenv("FX_SYNC_SCHEDULE", "*/15 * * * *")
	t.Setenv("FX_SYNC_ON_START", "false")
	t.Setenv("FX_HTTP_TIMEOUT", "3s")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "UAH", cfg.BaseCurrency)
	assert.Equal(t, []string{"USD", "EUR"}, cfg.TargetCurrencies)
	assert.Equal(t, "USD,EUR", cfg.TargetList())
	assert.Equal(t, 30, cfg.RetentionDays)
	assert.Equal(t, "*/15 * * * *", cfg.SyncSchedule)
	assert.False(t, cfg.SyncOnStart)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, ":9090", cfg.Address())
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		field string
	}{
		{"base currency", "FX_BASE_CURRENCY", "US", "BaseCurrency"},
		{"target currency", "FX_TARGET_CURRENCIES", "EUR,EURO", "TargetCurrencies[1]"},
		{"retention", "FX_RETENTION_DAYS", "0", "RetentionDays"},
		{"sync schedule", "FX_SYNC_SCHEDULE", "every hour", "SyncSchedule"},
		{"sweep schedule", "FX_SWEEP_SCHEDULE", "61 * * * *", "SweepSchedule"},
		{"log level", "LOG_LEVEL", "verbose", "LogLevel"},
		{"port", "PORT", "http", "Port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			cfg, err := LoadConfig()
			assert.Nil(t, cfg)
			require.Error(t, err)

			var validationErrs validator.ValidationErrors
			require.True(t, errors.As(err, &validationErrs))
			assert.Equal(t, tt.field, validationErrs[0].Field())
		})
	}
}
