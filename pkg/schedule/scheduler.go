// Package schedule runs recurring jobs from a single polling loop.
//
// Jobs are registered as triggers with a robfig/cron schedule. A trigger is
// due once the clock passes its next run time; RunPending executes every due
// trigger in registration order and re-arms it from the time it finished.
// Start launches the poll loop once, no matter how many callers ask for it,
// so several scrapers can share one Scheduler.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Zoidster/BirbBot/pkg/logger"
)

// DefaultPollInterval is how often the loop checks for due triggers
const DefaultPollInterval = 30 * time.Second

// Job is the work executed when a trigger fires
type Job func(ctx context.Context)

// Clock returns the current time
type Clock func() time.Time

// Trigger is a snapshot of a registered job
type Trigger struct {
	Name    string
	Spec    string
	Next    time.Time
	LastRun time.Time
	Runs    int
}

type entry struct {
	Trigger
	schedule cron.Schedule
	job      Job
}

// Scheduler holds triggers and drives them from one poll loop
type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	poll    time.Duration
	now     Clock
	logger  logger.Logger
	started bool
	done    chan struct{}
}

// New creates a scheduler polling every pollInterval
func New(pollInterval time.Duration, log logger.Logger) *Scheduler {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scheduler{
		poll:   pollInterval,
		now:    time.Now,
		logger: log.WithField("component", "scheduler"),
	}
}

// SetClock replaces the time source
func (s *Scheduler) SetClock(c Clock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = c
}

// Every registers job to run every d, first at one period from now
func (s *Scheduler) Every(d time.Duration, name string, job Job) error {
	if d < time.Second {
		return fmt.Errorf("schedule %q: interval must be at least 1s, got %s", name, d)
	}
	return s.add(cron.Every(d), "@every "+d.String(), name, job)
}

// Cron registers job with a standard five-field cron expression
func (s *Scheduler) Cron(spec, name string, job Job) error {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("schedule %q: failed to parse cron expression: %w", name, err)
	}
	return s.add(sched, spec, name, job)
}

func (s *Scheduler) add(sched cron.Schedule, spec, name string, job Job) error {
	if job == nil {
		return errors.New("schedule: job is nil")
	}

	s.mu.Lock()
	now := s.now()
	e := &entry{
		Trigger: Trigger{
			Name: name,
			Spec: spec,
			Next: sched.Next(now),
		},
		schedule: sched,
		job:      job,
	}
	s.entries = append(s.entries, e)
	s.mu.Unlock()

	s.logger.InfoWithFields("Job scheduled", map[string]interface{}{
		"job":      name,
		"schedule": spec,
		"next_run": e.Next.Format(time.RFC3339),
	})
	return nil
}

// RunPending executes every trigger due at now and returns how many ran.
// A panicking job is logged and re-armed like any other.
func (s *Scheduler) RunPending(ctx context.Context, now time.Time) int {
	s.mu.Lock()
	var due []*entry
	for _, e := range s.entries {
		if !e.Next.After(now) {
			due = append(due, e)
		}
	}
	s.mu.Unlock()

	ran := 0
	for _, e := range due {
		if ctx.Err() != nil {
			break
		}
		s.run(ctx, e)
		ran++

		s.mu.Lock()
		finished := s.now()
		e.LastRun = finished
		e.Runs++
		e.Next = e.schedule.Next(finished)
		next := e.Next
		s.mu.Unlock()

		s.logger.DebugWithFields("Job re-armed", map[string]interface{}{
			"job":      e.Name,
			"next_run": next.Format(time.RFC3339),
		})
	}
	return ran
}

func (s *Scheduler) run(ctx context.Context, e *entry) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorWithFields("Scheduled job panicked", map[string]interface{}{
				"job":   e.Name,
				"panic": fmt.Sprint(r),
			})
		}
	}()

	s.logger.DebugWithFields("Running scheduled job", map[string]interface{}{
		"job": e.Name,
	})
	e.job(ctx)
}

// Start launches the poll loop if it is not already running. The loop exits
// when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.done = make(chan struct{})
	s.mu.Unlock()

	logger.LogComponentStart(s.logger, "scheduler", map[string]interface{}{
		"poll_interval": s.poll.String(),
	})

	go s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.LogComponentStop(s.logger, "scheduler", ctx.Err().Error())
			return
		case <-ticker.C:
			s.mu.Lock()
			now := s.now()
			s.mu.Unlock()
			s.RunPending(ctx, now)
		}
	}
}

// Running reports whether the poll loop has been started
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Wait blocks until the poll loop exits. It returns immediately if the loop
// was never started.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Triggers returns a snapshot of the registered triggers
func (s *Scheduler) Triggers() []Trigger {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Trigger, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Trigger)
	}
	return out
}
