// Package service internal/domain/service/rate_provider.go
package service

import (
	"context"
)

// RateProvider defines the interface for the upstream exchange rate providers
type RateProvider interface {
	// FetchPrimary retrieves rates for base from the configured primary provider.
	// targets is a comma-separated list of codes; empty means all available.
	FetchPrimary(ctx context.Context, base, targets string) (map[string]float64, error)

	// FetchFallback retrieves every rate available for base from the fallback provider
	FetchFallback(ctx context.Context, base string) (map[string]float64, error)
}
