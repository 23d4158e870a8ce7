package export

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"glossaryexport/internal/logging"
)

// jobTag names the export job inside the scheduler.
const jobTag = "glossary-export"

// Runner runs one export. *Exporter satisfies it.
type Runner interface {
	Run(ctx context.Context) (Summary, error)
}

// Scheduler runs an export every Interval until its context is cancelled.
//
// Runs never overlap: the job runs in gocron's singleton mode.
type Scheduler struct {
	Runner   Runner
	Interval time.Duration
	// OnStartup runs the first export immediately instead of after one
	// Interval.
	OnStartup bool
	// Status, when set, records every run.
	Status *Status
	Logger *slog.Logger

	mu    sync.Mutex
	sched *gocron.Scheduler
}

// Start schedules the export and blocks until ctx is cancelled. It stops the
// scheduler before returning.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.Runner == nil {
		return fmt.Errorf("scheduler: runner is required")
	}
	if s.Interval <= 0 {
		return fmt.Errorf("scheduler: interval must be positive, got %s", s.Interval)
	}
	log := logging.OrDiscard(s.Logger)

	sched := gocron.NewScheduler(time.UTC)
	sched.SingletonModeAll()

	every := sched.Every(s.Interval).Tag(jobTag)
	if !s.OnStartup {
		every = every.WaitForSchedule()
	}
	if _, err := every.Do(s.runOnce, ctx, log); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	log.Info("starting export scheduler", "interval", s.Interval, "on_startup", s.OnStartup)
	sched.StartAsync()
	s.mu.Lock()
	s.sched = sched
	s.mu.Unlock()

	<-ctx.Done()

	s.mu.Lock()
	s.sched = nil
	s.mu.Unlock()
	sched.Stop()
	log.Info("export scheduler stopped")
	return nil
}

// Trigger asks the scheduler to run the export now. It never overlaps a run
// in flight.
func (s *Scheduler) Trigger() error {
	s.mu.Lock()
	sched := s.sched
	s.mu.Unlock()
	if sched == nil {
		return fmt.Errorf("scheduler: not running")
	}
	return sched.RunByTag(jobTag)
}

func (s *Scheduler) runOnce(ctx context.Context, log *slog.Logger) {
	if ctx.Err() != nil {
		return
	}
	s.Status.begin()
	sum, err := s.Runner.Run(ctx)
	s.Status.finish(sum, err)
	if err != nil {
		log.Error("scheduled export failed", "run_id", sum.RunID, "err", err)
	}
}
