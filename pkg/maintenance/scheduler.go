package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job names registered by the ghproxy server.
const (
	JobRateLimitSweep = "ratelimit.sweep"
	JobCachePurge     = "cache.purge"
)

// JobFunc is a unit of periodic work. It returns a short count of what it
// did (keys swept, entries purged) for the log line.
type JobFunc func(ctx context.Context) (int, error)

type job struct {
	name     string
	schedule string
	fn       JobFunc
	id       cron.EntryID
}

// Scheduler runs named housekeeping jobs on cron schedules.
// A job whose previous run is still in progress is skipped.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	mu      sync.Mutex
	jobs    map[string]*job
	running bool

	// ctxMu is separate from mu because Stop holds mu while jobs finish.
	ctxMu sync.RWMutex
	ctx   context.Context
}

// NewScheduler creates an idle scheduler.
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger.With("component", "maintenance.scheduler"),
		jobs:   make(map[string]*job),
		ctx:    context.Background(),
	}
}

// Add registers fn under name. An empty schedule disables the job and is
// not an error. Schedules use cron.ParseStandard syntax, including
// descriptors such as "@every 5m".
func (s *Scheduler) Add(name, schedule string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}
	if schedule == "" {
		s.logger.Info("job schedule not configured, skipping", "job", name)
		return nil
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q for job %q: %w", schedule, name, err)
	}

	j := &job{name: name, schedule: schedule, fn: fn}
	id, err := s.cron.AddFunc(schedule, func() { s.run(j) })
	if err != nil {
		return fmt.Errorf("failed to schedule job %q: %w", name, err)
	}
	j.id = id
	s.jobs[name] = j
	return nil
}

// Start begins running jobs. Jobs receive ctx, and the scheduler stops when
// ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.ctxMu.Lock()
	s.ctx = ctx
	s.ctxMu.Unlock()
	s.cron.Start()
	s.running = true

	for _, name := range s.namesLocked() {
		j := s.jobs[name]
		s.logger.Info("maintenance job scheduled",
			"job", name,
			"schedule", j.schedule,
			"next_run", s.cron.Entry(j.id).Next,
		)
	}

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop stops the scheduler and waits for running jobs to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	done := s.cron.Stop()
	<-done.Done()
	s.running = false
	s.logger.Info("maintenance scheduler stopped")
}

// IsRunning reports whether the scheduler has been started and not stopped.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled run of the named job, or nil when the
// job is unknown, disabled, or the scheduler is not running.
func (s *Scheduler) NextRun(name string) *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[name]
	if !ok || !s.running {
		return nil
	}
	next := s.cron.Entry(j.id).Next
	if next.IsZero() {
		return nil
	}
	return &next
}

// Jobs returns the names of the enabled jobs, sorted.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.namesLocked()
}

// RunNow executes the named job synchronously, outside its schedule.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("job %q not registered", name)
	}
	s.run(j)
	return nil
}

func (s *Scheduler) namesLocked() []string {
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) run(j *job) {
	s.ctxMu.RLock()
	ctx := s.ctx
	s.ctxMu.RUnlock()

	start := time.Now()
	n, err := j.fn(ctx)
	if err != nil {
		s.logger.Error("maintenance job failed",
			"job", j.name,
			"error", err,
		)
		return
	}

	s.logger.Debug("maintenance job completed",
		"job", j.name,
		"affected", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
