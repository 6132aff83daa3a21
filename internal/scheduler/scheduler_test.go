package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddJob_Ticks(t *testing.T) {
	s := New()
	defer s.StopAll()

	var ticks int64
	id := s.AddJob("test", 10*time.Millisecond, func() {
		atomic.AddInt64(&ticks, 1)
	})
	assert.Greater(t, id, 0)

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&ticks) >= 3
	}, time.Second, 5*time.Millisecond)
}

func TestRemoveJob_StopsTicking(t *testing.T) {
	s := New()
	defer s.StopAll()

	var ticks int64
	id := s.AddJob("test", 5*time.Millisecond, func() {
		atomic.AddInt64(&ticks, 1)
	})

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&ticks) >= 1
	}, time.Second, time.Millisecond)

	assert.True(t, s.RemoveJob(id))
	assert.Equal(t, 0, s.Len())

	// RemoveJob waits for in-flight ticks, so the count is stable now.
	after := atomic.LoadInt64(&ticks)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt64(&ticks))
}

func TestRemoveJob_Unknown(t *testing.T) {
	s := New()
	assert.False(t, s.RemoveJob(99))
}

func TestStopAll_Idempotent(t *testing.T) {
	s := New()
	s.AddJob("a", 10*time.Millisecond, func() {})
	s.AddJob("b", 10*time.Millisecond, func() {})
	assert.Equal(t, 2, s.Len())

	s.StopAll()
	assert.Equal(t, 0, s.Len())
	s.StopAll()
}
