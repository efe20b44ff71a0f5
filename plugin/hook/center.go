package hook

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// ErrInterrupt signals that a hook wants to stop later hooks from running.
var ErrInterrupt = errors.New("hook interrupted")

// HookFn observes an event. Hooks run after the triggering change has been
// committed, so they cannot veto it.
type HookFn func(ctx context.Context, event string, data interface{}) error

type hookEntry struct {
	priority int
	seq      int
	fn       HookFn
	name     string
}

// HookCenter manages event hook registrations.
type HookCenter struct {
	mu     sync.RWMutex
	hooks  map[string][]*hookEntry
	seq    int
	logger *zap.Logger
}

// NewHookCenter creates a new HookCenter. A nil logger discards panic reports.
func NewHookCenter(logger *zap.Logger) *HookCenter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HookCenter{hooks: make(map[string][]*hookEntry), logger: logger}
}

// Register adds a HookFn for the given event with the given priority (lower
// runs first, ties run in registration order). name is used for Unregister.
func (hc *HookCenter) Register(event string, priority int, name string, fn HookFn) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.seq++
	entries := append(hc.hooks[event], &hookEntry{priority: priority, seq: hc.seq, fn: fn, name: name})
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority < entries[j].priority
		}
		return entries[i].seq < entries[j].seq
	})
	hc.hooks[event] = entries
}

// Unregister removes all hooks with the given name. With no events it
// removes them from every event.
func (hc *HookCenter) Unregister(name string, events ...string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	if len(events) == 0 {
		for ev := range hc.hooks {
			events = append(events, ev)
		}
	}
	for _, ev := range events {
		entries := hc.hooks[ev]
		n := 0
		for _, e := range entries {
			if e.name != name {
				entries[n] = e
				n++
			}
		}
		hc.hooks[ev] = entries[:n]
	}
}

// Trigger runs all hooks for event in priority order. Errors from individual
// hooks are collected and returned together; a hook returning ErrInterrupt
// stops the chain. A panicking hook is logged and treated as an error.
func (hc *HookCenter) Trigger(ctx context.Context, event string, data interface{}) error {
	hc.mu.RLock()
	entries := make([]*hookEntry, len(hc.hooks[event]))
	copy(entries, hc.hooks[event])
	hc.mu.RUnlock()

	var errs []error
	for _, e := range entries {
		err := hc.call(ctx, e, event, data)
		if errors.Is(err, ErrInterrupt) {
			break
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("hook %s: %w", e.name, err))
		}
	}
	return errors.Join(errs...)
}

func (hc *HookCenter) call(ctx context.Context, e *hookEntry, event string, data interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			hc.logger.Error("hook panicked",
				zap.String("event", event),
				zap.String("hook", e.name),
				zap.Any("recover", r))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.fn(ctx, event, data)
}

// ---- Hook event names ----

const (
	OnMissionAssigned  = "on_mission_assigned"
	OnMissionComplete  = "on_mission_complete"
	OnMissionAbandoned = "on_mission_abandoned"
)
