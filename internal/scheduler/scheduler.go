// Package scheduler runs a job on a fixed interval until it is stopped.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var ErrAlreadyRunning = errors.New("scheduler already running")

type Job func(ctx context.Context)

type Scheduler struct {
	interval time.Duration
	job      Job
	log      *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

func New(interval time.Duration, job Job, log *slog.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", interval)
	}
	return &Scheduler{interval: interval, job: job, log: log}, nil
}

// Run invokes the job once per tick and blocks until ctx is cancelled or
// Stop is called. The first run happens one interval after the start.
// Ticks that fire while the job is still running are dropped.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
		cancel()
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Debug("scheduler started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.log.Debug("scheduler stopped")
			return nil
		case <-ticker.C:
			s.job(ctx)
		}
	}
}

// Stop ends a running Run. It is a no-op when the scheduler is idle.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}
