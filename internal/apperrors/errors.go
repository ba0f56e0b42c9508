// Package apperrors holds the error taxonomy of the rate synchronization pipeline.
package apperrors

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotConfigured indicates that a provider cannot be called because it lacks configuration.
var ErrNotConfigured = errors.New("provider not configured")

// ProviderError is returned when a reachable provider explicitly reports failure.
type ProviderError struct {
	Provider string
	Message  string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s provider reported failure", e.Provider)
	}
	return fmt.Sprintf("%s provider reported failure: %s", e.Provider, e.Message)
}

// SourceUnavailableError is returned when both the primary and the fallback provider failed.
type SourceUnavailableError struct {
	Primary  error
	Fallback error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("no rate source available: primary: %v; fallback: %v", e.Primary, e.Fallback)
}

// Unwrap exposes both provider errors to errors.Is and errors.As.
func (e *SourceUnavailableError) Unwrap() []error {
	return []error{e.Primary, e.Fallback}
}

// PersistenceError is returned when a single observation could not be written.
type PersistenceError struct {
	PartitionKey string
	RowKey       string
	Err          error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist %s/%s: %v", e.PartitionKey, e.RowKey, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// SweepError is returned when a retention pass failed outright.
type SweepError struct {
	Cutoff time.Time
	Err    error
}

func (e *SweepError) Error() string {
	return fmt.Sprintf("retention sweep with cutoff %s failed: %v", e.Cutoff.Format(time.RFC3339), e.Err)
}

func (e *SweepError) Unwrap() error {
	return e.Err
}
