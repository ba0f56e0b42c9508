// Package service internal/application/service/sync_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/damon-houk/fx-rate-sync/internal/apperrors"
	"github.com/damon-houk/fx-rate-sync/internal/domain/entity"
	"github.com/damon-houk/fx-rate-sync/internal/domain/repository"
	domainservice "github.com/damon-houk/fx-rate-sync/internal/domain/service"
	"github.com/damon-houk/fx-rate-sync/internal/infrastructure/logger"
	"github.com/damon-houk/fx-rate-sync/internal/infrastructure/metrics"
	"github.com/google/uuid"
)

// Clock returns the current time
type Clock func() time.Time

// Cycle outcomes
const (
	StatusCompleted = "completed"
	StatusPartial   = "partial"
	StatusFailed    = "failed"
	StatusDryRun    = "dry_run"
)

// LatestRateStore receives every observation that was persisted
type LatestRateStore interface {
	Put(obs entity.RateObservation)
}

// FetchResult is a normalized rate set tagged with the provider that served it
type FetchResult struct {
	Rates  map[string]float64
	Source entity.Source
}

// RecordFailure describes one observation that could not be persisted
type RecordFailure struct {
	TargetCurrency string `json:"target_currency"`
	PartitionKey   string `json:"partition_key"`
	RowKey         string `json:"row_key"`
	Error          string `json:"error"`
}

// SyncReport summarizes one sync cycle
type SyncReport struct {
	CycleID    string          `json:"cycle_id"`
	Status     string          `json:"status"`
	Source     entity.Source   `json:"source,omitempty"`
	ObservedAt time.Time       `json:"observed_at"`
	Written    int             `json:"written"`
	Failed     int             `json:"failed"`
	Failures   []RecordFailure `json:"failures,omitempty"`
	Duration   time.Duration   `json:"duration_ns"`
}

// SyncOptions configures a SyncService
type SyncOptions struct {
	BaseCurrency     string
	TargetCurrencies []string
	Timeout          time.Duration
	Clock            Clock
}

// SyncService runs fetch, normalize and persist cycles
type SyncService struct {
	provider domainservice.RateProvider
	repo     repository.RateRepository
	latest   LatestRateStore
	metrics  *metrics.SyncMetrics
	logger   logger.Logger
	base     string
	targets  []string
	timeout  time.Duration
	clock    Clock
}

// NewSyncService creates a new sync service. latest and m may be nil.
func NewSyncService(provider domainservice.RateProvider, repo repository.RateRepository, latest LatestRateStore,
	m *metrics.SyncMetrics, log logger.Logger, opts SyncOptions) *SyncService {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &SyncService{
		provider: provider,
		repo:     repo,
		latest:   latest,
		metrics:  m,
		logger:   log.WithField("component", "sync_service"),
		base:     strings.ToUpper(strings.TrimSpace(opts.BaseCurrency)),
		targets:  opts.TargetCurrencies,
		timeout:  opts.Timeout,
		clock:    opts.Clock,
	}
}

// Fetch asks the primary provider for the configured targets and falls back to the
// secondary provider exactly once when the primary fails. The returned rates are
// normalized; a fallback result carries every currency the provider returned.
func (s *SyncService) Fetch(ctx context.Context) (*FetchResult, error) {
	return s.fetch(ctx, s.logger)
}

func (s *SyncService) fetch(ctx context.Context, log logger.Logger) (*FetchResult, error) {
	raw, primaryErr := s.provider.FetchPrimary(ctx, s.base, strings.Join(s.targets, ","))
	if primaryErr == nil {
		rates := domainservice.SelectTargets(domainservice.Normalize(raw), s.targets)
		return &FetchResult{Rates: rates, Source: entity.SourcePrimary}, nil
	}

	log.Warn("Primary provider failed, using fallback", map[string]interface{}{
		"provider": string(entity.SourcePrimary),
		"base":     s.base,
		"error":    primaryErr.Error(),
	})

	raw, fallbackErr := s.provider.FetchFallback(ctx, s.base)
	if fallbackErr != nil {
		log.Error("Fallback provider failed", map[string]interface{}{
			"provider": string(entity.SourceFallback),
			"base":     s.base,
			"error":    fallbackErr.Error(),
		})
		return nil, &apperrors.SourceUnavailableError{Primary: primaryErr, Fallback: fallbackErr}
	}

	// The fallback has no currency filter; every valid pair it returns is kept.
	return &FetchResult{Rates: domainservice.Normalize(raw), Source: entity.SourceFallback}, nil
}

// SyncCycle runs one cycle. Per-record persistence failures are collected in the
// report; only a fetch failure or an expired deadline fails the cycle.
func (s *SyncService) SyncCycle(ctx context.Context) (*SyncReport, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := s.clock()
	report := &SyncReport{
		CycleID:    uuid.New().String(),
		ObservedAt: started.UTC().Truncate(time.Second),
	}
	log := s.logger.WithField("cycle_id", report.CycleID)

	log.Info("Sync cycle started", map[string]interface{}{
		"base":    s.base,
		"targets": strings.Join(s.targets, ","),
	})

	result, err := s.fetch(ctx, log)
	if err != nil {
		report.Status = StatusFailed
		s.finish(report, started)
		return report, err
	}
	report.Source = result.Source

	if len(result.Rates) == 0 {
		log.Warn("No rates to persist", map[string]interface{}{
			"provider": string(result.Source),
		})
		report.Status = StatusCompleted
		s.finish(report, started)
		return report, nil
	}

	for _, target := range sortedCodes(result.Rates) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			report.Status = StatusFailed
			s.finish(report, started)
			return report, fmt.Errorf("sync cycle interrupted after %d writes: %w", report.Written, ctxErr)
		}

		obs := entity.NewRateObservation(s.base, target, result.Rates[target], report.ObservedAt, result.Source)
		if err := s.repo.Upsert(ctx, obs); err != nil {
			report.Failed++
			report.Failures = append(report.Failures, RecordFailure{
				TargetCurrency: target,
				PartitionKey:   obs.PartitionKey(),
				RowKey:         obs.RowKey(),
				Error:          err.Error(),
			})

			var persistErr *apperrors.PersistenceError
			fields := map[string]interface{}{
				"currency": target,
				"error":    err.Error(),
			}
			if errors.As(err, &persistErr) {
				fields["partition_key"] = persistErr.PartitionKey
				fields["row_key"] = persistErr.RowKey
			}
			log.Error("Failed to persist rate", fields)
			continue
		}

		report.Written++
		if s.latest != nil {
			s.latest.Put(obs)
		}

		log.Debug("Rate persisted", map[string]interface{}{
			"currency": target,
			"rate":     obs.Rate,
			"provider": string(obs.Source),
		})
	}

	report.Status = StatusCompleted
	if report.Failed > 0 {
		report.Status = StatusPartial
	}
	s.finish(report, started)

	return report, nil
}

func (s *SyncService) finish(report *SyncReport, started time.Time) {
	report.Duration = s.clock().Sub(started)

	s.metrics.ObserveCycle(report.Status, string(report.Source), report.Written, report.Failed, report.Duration)

	fields := map[string]interface{}{
		"cycle_id":    report.CycleID,
		"status":      report.Status,
		"provider":    string(report.Source),
		"written":     report.Written,
		"failed":      report.Failed,
		"duration_ms": report.Duration.Milliseconds(),
	}
	if report.Status == StatusFailed {
		s.logger.Error("Sync cycle failed", fields)
		return
	}
	s.logger.Info("Sync cycle completed", fields)
}
