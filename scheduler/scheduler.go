package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskFn is the function signature for scheduled tasks. The context is
// cancelled when the task is removed or the scheduler stops.
type TaskFn func(ctx context.Context) error

// Scheduler runs named periodic tasks.
type Scheduler struct {
	mu     sync.Mutex
	tasks  map[string]*task
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *zap.Logger
}

type task struct {
	interval time.Duration
	cancel   context.CancelFunc
	lastRun  time.Time
	lastErr  error
}

// TaskInfo is a snapshot of one registered task.
type TaskInfo struct {
	Name     string        `json:"name"`
	Interval time.Duration `json:"interval"`
	LastRun  time.Time     `json:"last_run"`
	LastErr  string        `json:"last_error,omitempty"`
}

// New creates a new Scheduler.
func New(logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		tasks:  make(map[string]*task),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Every registers fn to run on a fixed interval.
// If a task with the same name exists, it is replaced.
func (s *Scheduler) Every(name string, interval time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.tasks[name]; ok {
		old.cancel()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	t := &task{interval: interval, cancel: cancel}
	s.tasks[name] = t

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.run(ctx, name, t, fn)
			case <-ctx.Done():
				return
			}
		}
	}()
	s.logger.Info("scheduler task registered", zap.String("name", name), zap.Duration("interval", interval))
}

func (s *Scheduler) run(ctx context.Context, name string, t *task, fn TaskFn) {
	var err error
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler task panicked",
				zap.String("task", name),
				zap.Any("recover", r))
		}
		s.mu.Lock()
		t.lastRun = time.Now()
		t.lastErr = err
		s.mu.Unlock()
	}()
	err = fn(ctx)
	if err != nil {
		s.logger.Warn("scheduler task failed", zap.String("task", name), zap.Error(err))
	}
}

// Remove stops and removes a task by name.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[name]; ok {
		t.cancel()
		delete(s.tasks, name)
	}
}

// Stop stops all tasks and waits for running ones to return.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Tasks returns a snapshot of all registered tasks, sorted by name.
func (s *Scheduler) Tasks() []TaskInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TaskInfo, 0, len(s.tasks))
	for name, t := range s.tasks {
		info := TaskInfo{Name: name, Interval: t.interval, LastRun: t.lastRun}
		if t.lastErr != nil {
			info.LastErr = t.lastErr.Error()
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
