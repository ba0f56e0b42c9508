package service

import (
	"context"
	"fmt"
	"time"

	"github.com/damon-houk/fx-rate-sync/internal/apperrors"
	"github.com/damon-houk/fx-rate-sync/internal/domain/entity"
	"github.com/damon-houk/fx-rate-sync/internal/domain/repository"
	"github.com/damon-houk/fx-rate-sync/internal/infrastructure/logger"
	"github.com/damon-houk/fx-rate-sync/internal/infrastructure/metrics"
)

// SweepReport summarizes one retention sweep
type SweepReport struct {
	Status          string        `json:"status"`
	Cutoff          time.Time     `json:"cutoff"`
	CutoffPartition string        `json:"cutoff_partition"`
	Deleted         int           `json:"deleted"`
	Duration        time.Duration `json:"duration_ns"`
}

// RetentionService deletes observations that fell out of the retention window
type RetentionService struct {
	repo          repository.RateRepository
	metrics       *metrics.SyncMetrics
	logger        logger.Logger
	retentionDays int
	timeout       time.Duration
	clock         Clock
}

// NewRetentionService creates a new retention service
func NewRetentionService(repo repository.RateRepository, m *metrics.SyncMetrics, log logger.Logger,
	retentionDays int, timeout time.Duration, clock Clock) *RetentionService {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	if clock == nil {
		clock = time.Now
	}

	return &RetentionService{
		repo:          repo,
		metrics:       m,
		logger:        log.WithField("component", "retention_service"),
		retentionDays: retentionDays,
		timeout:       timeout,
		clock:         clock,
	}
}

// Cutoff returns the instant before which observations are eligible for deletion
func (s *RetentionService) Cutoff() time.Time {
	return s.clock().UTC().Add(-time.Duration(s.retentionDays) * 24 * time.Hour)
}

// Sweep deletes every observation in a partition older than the cutoff's partition.
// Running it twice in a row deletes nothing the second time.
func (s *RetentionService) Sweep(ctx context.Context) (*SweepReport, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := s.clock()
	cutoff := s.Cutoff()
	report := &SweepReport{
		Cutoff:          cutoff,
		CutoffPartition: entity.PartitionKey(cutoff),
	}

	s.logger.Info("Retention sweep started", map[string]interface{}{
		"cutoff":           cutoff.Format(time.RFC3339),
		"cutoff_partition": report.CutoffPartition,
		"retention_days":   s.retentionDays,
	})

	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff)
	report.Deleted = deleted
	report.Duration = s.clock().Sub(started)

	if err != nil {
		report.Status = StatusFailed
		s.metrics.ObserveSweep(report.Status, deleted)

		sweepErr := &apperrors.SweepError{Cutoff: cutoff, Err: err}
		s.logger.Error("Retention sweep failed", map[string]interface{}{
			"cutoff":  cutoff.Format(time.RFC3339),
			"deleted": deleted,
			"error":   sweepErr.Error(),
		})
		return report, sweepErr
	}

	report.Status = StatusCompleted
	s.metrics.ObserveSweep(report.Status, deleted)

	s.logger.Info("Retention sweep completed", map[string]interface{}{
		"cutoff_partition": report.CutoffPartition,
		"deleted":          deleted,
		"duration_ms":      report.Duration.Milliseconds(),
	})

	return report, nil
}

// Preview counts the observations the next sweep would delete without deleting them
func (s *RetentionService) Preview(ctx context.Context) (*SweepReport, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := s.clock()
	cutoff := s.Cutoff()
	report := &SweepReport{
		Status:          StatusDryRun,
		Cutoff:          cutoff,
		CutoffPartition: entity.PartitionKey(cutoff),
	}

	cursor, err := s.repo.QueryOlderThan(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to open expired observations: %w", err)
	}
	defer cursor.Close()

	partitions := make(map[string]int)
	for cursor.Next() {
		report.Deleted++
		partitions[cursor.Observation().PartitionKey()]++
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan expired observations: %w", err)
	}
	report.Duration = s.clock().Sub(started)

	s.logger.Info("Retention sweep preview", map[string]interface{}{
		"cutoff_partition": report.CutoffPartition,
		"eligible":         report.Deleted,
		"partitions":       partitions,
	})

	return report, nil
}
