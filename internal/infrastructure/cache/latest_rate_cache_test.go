package cache

import (
	"testing"
	"time"

	"github.com/damon-houk/fx-rate-sync/internal/domain/entity"
	"github.com/stretchr/testify/assert"
)

func TestLatestRateCache(t *testing.T) {
	cache := NewLatestRateCache(time.Hour)
	clock := time.Date(2024, 3, 7, 14, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return clock }

	assert.Equal(t, 0, cache.Size())

	at := time.Date(2024, 3, 7, 14, 0, 0, 0, time.UTC)
	eur := entity.NewRateObservation("USD", "EUR", 0.92, at, entity.SourcePrimary)
	gbp := entity.NewRateObservation("USD", "GBP", 0.79, at, entity.SourcePrimary)

	cache.Put(gbp)
	cache.Put(eur)
	assert.Equal(t, 2, cache.Size())

	got, ok := cache.Get("EUR")
	assert.True(t, ok)
	assert.Equal(t, eur, got)

	_, ok = cache.Get("JPY")
	assert.False(t, ok)

	all := cache.All()
	assert.Len(t, all, 2)
	assert.Equal(t, "EUR", all[0].TargetCurrency)
	assert.Equal(t, "GBP", all[1].TargetCurrency)

	// Older observations never replace newer ones
	stale := entity.NewRateObservation("USD", "EUR", 0.5, at.Add(-time.Hour), entity.SourceFallback)
	cache.Put(stale)
	got, _ = cache.Get("EUR")
	assert.Equal(t, 0.92, got.Rate)

	newer := entity.NewRateObservation("USD", "EUR", 0.95, at.Add(time.Hour), entity.SourceFallback)
	cache.Put(newer)
	got, _ = cache.Get("EUR")
	assert.Equal(t, 0.95, got.Rate)
}

func TestLatestRateCacheExpiration(t *testing.T) {
	cache := NewLatestRateCache(time.Hour)
	clock := time.Date(2024, 3, 7, 14, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return clock }

	cache.Put(entity.NewRateObservation("USD", "EUR", 0.92, clock, entity.SourcePrimary))

	clock = clock.Add(2 * time.Hour)
	_, ok := cache.Get("EUR")
	assert.False(t, ok)
	assert.Empty(t, cache.All())

	assert.Equal(t, 1, cache.CleanExpired())
	assert.Equal(t, 0, cache.Size())

	cache.SetExpiration(24 * time.Hour)
	cache.Put(entity.NewRateObservation("USD", "EUR", 0.92, clock, entity.SourcePrimary))
	assert.Equal(t, 1, cache.Size())
	cache.Clear()
	assert.Equal(t, 0, cache.Size())
}

func TestNewLatestRateCacheDefaultsExpiration(t *testing.T) {
	cache := NewLatestRateCache(0)
	assert.Equal(t, 24*time.Hour, cache.expiration)
}
