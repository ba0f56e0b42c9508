// Package repository internal/domain/repository/rate_repository.go
package repository

import (
	"context"
	"time"

	"github.com/damon-houk/fx-rate-sync/internal/domain/entity"
)

// RateRepository defines the interface for time-partitioned rate storage
type RateRepository interface {
	// Upsert writes or overwrites the observation at its partition/row key
	Upsert(ctx context.Context, obs entity.RateObservation) error

	// DeleteOlderThan removes every observation whose partition sorts before the cutoff's partition
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)

	// QueryOlderThan opens a single-pass cursor over observations in partitions before the cutoff's partition
	QueryOlderThan(ctx context.Context, cutoff time.Time) (ObservationCursor, error)

	// FindByPartition lists the observations of one partition, optionally restricted to a target currency
	FindByPartition(ctx context.Context, partition, target string) ([]entity.RateObservation, error)
}

// ObservationCursor iterates a finite sequence of observations exactly once.
// Callers must Close the cursor when done.
type ObservationCursor interface {
	Next() bool
	Observation() entity.RateObservation
	Err() error
	Close() error
}
