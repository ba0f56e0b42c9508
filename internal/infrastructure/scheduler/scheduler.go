// Package scheduler runs the pipeline jobs on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/damon-houk/fx-rate-sync/internal/infrastructure/logger"
	"github.com/robfig/cron/v3"
)

// Job names
const (
	JobSync  = "sync"
	JobSweep = "sweep"
)

// ErrJobRunning is returned when a job is triggered while a previous run is in flight
var ErrJobRunning = errors.New("job already running")

// Job is one unit of scheduled work
type Job func(ctx context.Context) error

// EntryInfo describes a registered job
type EntryInfo struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	Next     time.Time `json:"next,omitempty"`
	Prev     time.Time `json:"prev,omitempty"`
	Running  bool      `json:"running"`
}

// Scheduler wraps a cron runner and guarantees at most one run per job name,
// whether the run was started by a tick or by a manual trigger.
type Scheduler struct {
	cron   *cron.Cron
	logger logger.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	running   map[string]bool
	entries   map[cron.EntryID]string
	schedules map[string]string
}

// New creates a scheduler that logs through log
func New(log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	log = log.WithField("component", "scheduler")
	cronLog := cronLogger{log: log}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		logger:    log,
		ctx:       ctx,
		cancel:    cancel,
		running:   make(map[string]bool),
		entries:   make(map[cron.EntryID]string),
		schedules: make(map[string]string),
	}
}

// Register schedules job under name using standard cron text or a descriptor such as @hourly
func (s *Scheduler) Register(name, schedule string, job Job) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(schedule, func() {
		err := s.Exclusive(s.ctx, name, job)
		switch {
		case errors.Is(err, ErrJobRunning):
			s.logger.Warn("Skipping tick, job still running", map[string]interface{}{"job": name})
		case err != nil:
			s.logger.Error("Scheduled job failed", map[string]interface{}{
				"job":   name,
				"error": err.Error(),
			})
		}
	})
	if err != nil {
		return 0, fmt.Errorf("failed to schedule %s with %q: %w", name, schedule, err)
	}

	s.mu.Lock()
	s.entries[id] = name
	s.schedules[name] = schedule
	s.mu.Unlock()

	s.logger.Info("Job registered", map[string]interface{}{
		"job":      name,
		"schedule": schedule,
	})
	return id, nil
}

// Exclusive runs job unless another run of the same name is in flight
func (s *Scheduler) Exclusive(ctx context.Context, name string, job Job) error {
	s.mu.Lock()
	if s.running[name] {
		s.mu.Unlock()
		return ErrJobRunning
	}
	s.running[name] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.running, name)
		s.mu.Unlock()
	}()

	return job(ctx)
}

// Start begins firing scheduled jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", nil)
}

// Stop prevents new runs and waits for running jobs until ctx is done.
// Jobs still running after that see their context cancelled.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	defer s.cancel()

	select {
	case <-done.Done():
		s.logger.Info("Scheduler stopped", nil)
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out, cancelling running jobs", nil)
		return ctx.Err()
	}
}

// Entries lists registered jobs ordered by name
func (s *Scheduler) Entries() []EntryInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []EntryInfo
	for _, entry := range s.cron.Entries() {
		name := s.entries[entry.ID]
		out = append(out, EntryInfo{
			Name:     name,
			Schedule: s.schedules[name],
			Next:     entry.Next,
			Prev:     entry.Prev,
			Running:  s.running[name],
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// cronLogger adapts the structured logger to cron's logr-style interface
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, fieldsFrom(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := fieldsFrom(keysAndValues)
	if err != nil {
		fields["error"] = err.Error()
	}
	l.log.Error(msg, fields)
}

func fieldsFrom(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2+1)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
