// Package scheduler reruns a job on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps robfig/cron and runs one job, never two at once.
type Scheduler struct {
	mu      sync.Mutex
	running bool

	c       *cron.Cron
	entryID cron.EntryID
	expr    string
	ctx     context.Context
}

// Parse validates a standard five-field cron expression or a descriptor such as "@every 5m".
func Parse(expr string) (cron.Schedule, error) {
	s, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return s, nil
}

// New creates a stopped Scheduler that calls job on expr.
// Ticks that arrive while job is still running are skipped.
func New(expr string, job func(context.Context)) (*Scheduler, error) {
	if _, err := Parse(expr); err != nil {
		return nil, err
	}

	s := &Scheduler{
		c:    cron.New(),
		expr: expr,
		ctx:  context.Background(),
	}
	id, err := s.c.AddFunc(expr, func() { s.tick(job) })
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	s.entryID = id
	return s, nil
}

func (s *Scheduler) tick(job func(context.Context)) {
	if !s.tryAcquire() {
		slog.Warn("scheduler: previous run still in progress, skipping tick", "cron", s.expr)
		return
	}
	defer s.release()
	job(s.ctx)
}

// RunNow calls job immediately unless a run is in progress. It reports whether job ran.
func (s *Scheduler) RunNow(ctx context.Context, job func(context.Context)) bool {
	if !s.tryAcquire() {
		return false
	}
	defer s.release()
	job(ctx)
	return true
}

func (s *Scheduler) tryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *Scheduler) release() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// Start begins the cron loop. Scheduled runs receive ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.c.Start()
	slog.Info("scheduler: started", "cron", s.expr, "next_run", s.NextRunAt())
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.c.Stop().Done()
}

// NextRunAt returns the next scheduled time, or the zero time before Start.
func (s *Scheduler) NextRunAt() time.Time {
	return s.c.Entry(s.entryID).Next
}
