// Package config loads service configuration from the environment and an optional .env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/damon-houk/fx-rate-sync/internal/domain/entity"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	BaseCurrency     string   `validate:"required,currency"`
	TargetCurrencies []string `validate:"dive,currency"`
	PrimaryBaseURL   string   `validate:"omitempty,url"`
	PrimaryAPIKey    string
	RetentionDays    int    `validate:"min=1"`
	SyncSchedule     string `validate:"required,cron"`
	SweepSchedule    string `validate:"required,cron"`
	SyncOnStart      bool
	HTTPTimeout      time.Duration `validate:"gt=0"`
	JobTimeout       time.Duration `validate:"gt=0"`
	DataDir          string        `validate:"required"`
	Port             string        `validate:"required,numeric"`
	LogLevel         string        `validate:"oneof=debug info warn warning error fatal"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("FX_BASE_CURRENCY", "USD")
	v.SetDefault("FX_TARGET_CURRENCIES", "")
	v.SetDefault("FX_PRIMARY_BASE_URL", "https://api.fxratesapi.com")
	v.SetDefault("FX_PRIMARY_API_KEY", "")
	v.SetDefault("FX_RETENTION_DAYS", 90)
	v.SetDefault("FX_SYNC_SCHEDULE", "@hourly")
	v.SetDefault("FX_SWEEP_SCHEDULE", "0 2 * * *")
	v.SetDefault("FX_SYNC_ON_START", true)
	v.SetDefault("FX_HTTP_TIMEOUT", "10s")
	v.SetDefault("FX_JOB_TIMEOUT", "2m")
	v.SetDefault("FX_DATA_DIR", "./data")
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
}

// LoadConfig loads configuration from environment variables and .env file if present.
// Environment variables win over .env values, which win over defaults.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		BaseCurrency:     strings.ToUpper(strings.TrimSpace(v.GetString("FX_BASE_CURRENCY"))),
		TargetCurrencies: entity.ParseCurrencyList(v.GetString("FX_TARGET_CURRENCIES")),
		PrimaryBaseURL:   strings.TrimSpace(v.GetString("FX_PRIMARY_BASE_URL")),
		PrimaryAPIKey:    v.GetString("FX_PRIMARY_API_KEY"),
		RetentionDays:    v.GetInt("FX_RETENTION_DAYS"),
		SyncSchedule:     strings.TrimSpace(v.GetString("FX_SYNC_SCHEDULE")),
		SweepSchedule:    strings.TrimSpace(v.GetString("FX_SWEEP_SCHEDULE")),
		SyncOnStart:      v.GetBool("FX_SYNC_ON_START"),
		HTTPTimeout:      v.GetDuration("FX_HTTP_TIMEOUT"),
		JobTimeout:       v.GetDuration("FX_JOB_TIMEOUT"),
		DataDir:          v.GetString("FX_DATA_DIR"),
		Port:             v.GetString("PORT"),
		LogLevel:         strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cfg against its struct rules
func Validate(cfg *Config) error {
	validate := validator.New()

	if err := validate.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return entity.IsCurrencyCode(fl.Field().String())
	}); err != nil {
		return fmt.Errorf("failed to register currency rule: %w", err)
	}

	if err := validate.RegisterValidation("cron", func(fl validator.FieldLevel) bool {
		_, err := cron.ParseStandard(fl.Field().String())
		return err == nil
	}); err != nil {
		return fmt.Errorf("failed to register cron rule: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Address returns the listen address for the admin HTTP server
func (c *Config) Address() string {
	return ":" + c.Port
}

// TargetList returns the configured targets as a comma list
func (c *Config) TargetList() string {
	return strings.Join(c.TargetCurrencies, ",")
}
