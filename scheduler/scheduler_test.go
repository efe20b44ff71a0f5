package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newNop() *zap.Logger { return zap.NewNop() }

func TestEvery_Fires(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	var count int32
	s.Every("tick", 20*time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&count, 1)
		return nil
	})

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&count) >= 3 },
		time.Second, 10*time.Millisecond)
}

func TestEvery_Replaces(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	var count1, count2 int32
	s.Every("task", 20*time.Millisecond, func(context.Context) error { atomic.AddInt32(&count1, 1); return nil })
	time.Sleep(30 * time.Millisecond)
	s.Every("task", 20*time.Millisecond, func(context.Context) error { atomic.AddInt32(&count2, 1); return nil })
	time.Sleep(60 * time.Millisecond)

	snap1 := atomic.LoadInt32(&count1)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, snap1, atomic.LoadInt32(&count1), "old task must stop after replacement")
	assert.Positive(t, atomic.LoadInt32(&count2))
	assert.Len(t, s.Tasks(), 1)
}

func TestRemove(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	var count int32
	s.Every("gone", 10*time.Millisecond, func(context.Context) error { atomic.AddInt32(&count, 1); return nil })
	s.Remove("gone")
	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&count))
	assert.Empty(t, s.Tasks())
}

func TestTasks_RecordsLastError(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	s.Every("fails", 10*time.Millisecond, func(context.Context) error { return errors.New("boom") })

	require.Eventually(t, func() bool {
		tasks := s.Tasks()
		return len(tasks) == 1 && tasks[0].LastErr == "boom"
	}, time.Second, 10*time.Millisecond)
}

func TestPanicRecovered(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	var after int32
	s.Every("panics", 10*time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&after, 1)
		panic("bad task")
	})
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&after) >= 2 },
		time.Second, 10*time.Millisecond, "ticker keeps running after a panic")
}

func TestStop_CancelsContext(t *testing.T) {
	s := New(newNop())
	started := make(chan struct{})
	var once atomic.Bool
	s.Every("long", 5*time.Millisecond, func(ctx context.Context) error {
		if once.CompareAndSwap(false, true) {
			close(started)
		}
		<-ctx.Done()
		return ctx.Err()
	})
	<-started
	s.Stop()
}
