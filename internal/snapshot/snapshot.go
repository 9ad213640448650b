// Package snapshot records system performance samples on a cron schedule.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/macromates/nutribuddy/internal/model"
)

// runTimeout bounds a single snapshot so a hung database cannot pile up runs.
const runTimeout = 30 * time.Second

// Recorder is implemented by service.PerformanceService.
type Recorder interface {
	Snapshot(ctx context.Context) (*model.PerformanceSample, error)
}

type Scheduler struct {
	cron     *cron.Cron
	recorder Recorder
	logger   *slog.Logger
	schedule string
}

// New parses a standard five-field cron expression or a descriptor such as
// "@hourly".
func New(schedule string, recorder Recorder, logger *slog.Logger) (*Scheduler, error) {
	if schedule == "" {
		return nil, errors.New("snapshot: empty schedule")
	}

	s := &Scheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		recorder: recorder,
		logger:   logger,
		schedule: schedule,
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("snapshot: invalid schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.logger.Info("snapshot scheduler started", slog.String("schedule", s.schedule))
	s.cron.Start()
}

// Stop prevents new runs and waits for a running snapshot to finish or ctx
// to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("snapshot scheduler stopped before the running job finished")
	}
}

// Next reports when the next snapshot is due.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if _, err := s.recorder.Snapshot(ctx); err != nil {
		s.logger.Error("scheduled snapshot failed", slog.Any("error", err))
	}
}
