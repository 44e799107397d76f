// Package scheduler runs named jobs once per day at a fixed local hour.
package scheduler

import (
	"context"
	"sync"
	"time"

	"moneta/internal/logger"
)

// JobFunc performs one run of a scheduled job and reports how many items it
// processed.
type JobFunc func() (int, error)

type job struct {
	name string
	hour int
	fn   JobFunc
}

// Scheduler owns a goroutine per registered job. Each goroutine sleeps until
// the job's next daily slot, runs it, and reschedules. A single scheduler
// instance per deployment is assumed; jobs are idempotent, so a missed or
// repeated run is safe.
type Scheduler struct {
	jobs   []job
	cancel context.CancelFunc
	wg     sync.WaitGroup
	now    func() time.Time
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{now: time.Now}
}

// Register adds a job that runs daily at the given hour (0-23).
func (s *Scheduler) Register(name string, hour int, fn JobFunc) {
	s.jobs = append(s.jobs, job{name: name, hour: hour, fn: fn})
}

// Start launches one goroutine per registered job. It returns immediately.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.run(ctx, j)
	}
	logger.Named("scheduler").Infow("started", "jobs", len(s.jobs))
}

// Stop cancels all job goroutines and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	logger.Named("scheduler").Info("stopped")
}

func (s *Scheduler) run(ctx context.Context, j job) {
	defer s.wg.Done()
	log := logger.Named("scheduler")

	for {
		next := nextRunAfter(s.now(), j.hour)
		timer := time.NewTimer(next.Sub(s.now()))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		processed, err := j.fn()
		if err != nil {
			log.Errorw("scheduled job failed", "job", j.name, "error", err)
			continue
		}
		log.Infow("scheduled job completed", "job", j.name, "processed", processed)
	}
}

// nextRunAfter returns the next occurrence of the daily slot strictly after
// now: today at hour if that is still ahead, otherwise tomorrow at hour.
func nextRunAfter(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
