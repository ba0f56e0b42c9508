// internal/mocks/mocks.go
package mocks

import (
	"context"
	"time"

	"github.com/damon-houk/fx-rate-sync/internal/domain/entity"
	"github.com/damon-houk/fx-rate-sync/internal/domain/repository"
	"github.com/damon-houk/fx-rate-sync/internal/infrastructure/logger"
	"github.com/stretchr/testify/mock"
)

// MockRateProvider mocks the RateProvider interface
type MockRateProvider struct {
	mock.Mock
}

func (m *MockRateProvider) FetchPrimary(ctx context.Context, base, targets string) (map[string]float64, error) {
	args := m.Called(ctx, base, targets)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]float64), args.Error(1)
}

func (m *MockRateProvider) FetchFallback(ctx context.Context, base string) (map[string]float64, error) {
	args := m.Called(ctx, base)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]float64), args.Error(1)
}

// MockRateRepository mocks the RateRepository interface
type MockRateRepository struct {
	mock.Mock
}

func (m *MockRateRepository) Upsert(ctx context.Context, obs entity.RateObservation) error {
	args := m.Called(ctx, obs)
	return args.Error(0)
}

func (m *MockRateRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	args := m.Called(ctx, cutoff)
	return args.Int(0), args.Error(1)
}

func (m *MockRateRepository) QueryOlderThan(ctx context.Context, cutoff time.Time) (repository.ObservationCursor, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.ObservationCursor), args.Error(1)
}

func (m *MockRateRepository) FindByPartition(ctx context.Context, partition, target string) ([]entity.RateObservation, error) {
	args := m.Called(ctx, partition, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.RateObservation), args.Error(1)
}

// SliceCursor is an in-memory ObservationCursor
type SliceCursor struct {
	Items  []entity.RateObservation
	pos    int
	Closed bool
}

func (c *SliceCursor) Next() bool {
	if c.Closed || c.pos >= len(c.Items) {
		return false
	}
	c.pos++
	return true
}

func (c *SliceCursor) Observation() entity.RateObservation {
	if c.pos == 0 {
		return entity.RateObservation{}
	}
	return c.Items[c.pos-1]
}

func (c *SliceCursor) Err() error {
	return nil
}

func (c *SliceCursor) Close() error {
	c.Closed = true
	return nil
}

// MockLogger mocks the logger interface
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Info(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Warn(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Error(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Fatal(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

// WithField returns the same mock so derived loggers share expectations
func (m *MockLogger) WithField(key string, value interface{}) logger.Logger {
	return m
}

func (m *MockLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return m
}
