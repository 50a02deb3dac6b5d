package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// TickFunc runs one round of background work and reports how many tasks it handled.
type TickFunc func(ctx context.Context) int

// Status is a snapshot of the worker loop for the status endpoint.
type Status struct {
	Running       bool      `json:"running"`
	Interval      string    `json:"interval"`
	Ticks         int64     `json:"ticks"`
	TasksHandled  int64     `json:"tasksHandled"`
	LastTickAt    time.Time `json:"lastTickAt,omitzero"`
	LastTickTasks int       `json:"lastTickTasks"`
}

// Scheduler drives a TickFunc on a fixed interval, with one immediate tick on
// Start. A panicking tick is logged and the loop carries on.
type Scheduler struct {
	interval time.Duration
	tick     TickFunc
	log      *zap.Logger

	running atomic.Bool
	ticks   atomic.Int64
	handled atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	lastMu    sync.Mutex
	lastAt    time.Time
	lastTasks int
}

func New(interval time.Duration, tick TickFunc, log *zap.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, errors.New("interval must be > 0")
	}
	if tick == nil {
		return nil, errors.New("tick must not be nil")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		interval: interval,
		tick:     tick,
		log:      log.Named("scheduler"),
		done:     make(chan struct{}),
	}, nil
}

func (s *Scheduler) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running.Store(true)

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.log.Info("worker loop started", zap.Duration("interval", s.interval))

		s.safeTick(ctx)

		for {
			select {
			case <-ctx.Done():
				s.log.Info("worker loop stopping")
				return
			case <-ticker.C:
				s.safeTick(ctx)
			}
		}
	}()

	return true
}

// Stop cancels the running tick and waits for the loop to exit.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		return false
	}

	s.cancel()
	<-s.done
	s.running.Store(false)

	s.log.Info("worker loop stopped")
	return true
}

func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

func (s *Scheduler) Status() Status {
	s.lastMu.Lock()
	defer s.lastMu.Unlock()

	return Status{
		Running:       s.running.Load(),
		Interval:      s.interval.String(),
		Ticks:         s.ticks.Load(),
		TasksHandled:  s.handled.Load(),
		LastTickAt:    s.lastAt,
		LastTickTasks: s.lastTasks,
	}
}

func (s *Scheduler) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("worker tick panic recovered", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	start := time.Now()
	n := s.tick(ctx)

	s.ticks.Add(1)
	s.handled.Add(int64(n))
	s.lastMu.Lock()
	s.lastAt = start
	s.lastTasks = n
	s.lastMu.Unlock()

	if n == 0 {
		s.log.Debug("worker tick idle")
		return
	}
	s.log.Info("worker tick completed", zap.Int("tasks", n), zap.Int64("duration_ms", time.Since(start).Milliseconds()))
}
