package netconn

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLane_SubmissionOrder(t *testing.T) {
	l := NewLane()

	var mu sync.Mutex
	var got []int
	for i := 0; i < 100; i++ {
		i := i
		require.True(t, l.Submit(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}))
	}
	l.Close()

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestLane_NoConcurrentTasks(t *testing.T) {
	l := NewLane()

	var inFlight, maxInFlight int32
	var mu sync.Mutex
	for i := 0; i < 50; i++ {
		l.Submit(func() {
			mu.Lock()
			inFlight++
			if inFlight > maxInFlight {
				maxInFlight = inFlight
			}
			mu.Unlock()

			mu.Lock()
			inFlight--
			mu.Unlock()
		})
	}
	l.Close()

	assert.Equal(t, int32(1), maxInFlight)
}

func TestLane_CloseDrainsPending(t *testing.T) {
	l := NewLane()

	var ran int
	block := make(chan struct{})
	l.Submit(func() { <-block })
	for i := 0; i < 10; i++ {
		l.Submit(func() { ran++ })
	}
	close(block)
	l.Close()

	assert.Equal(t, 10, ran)
}

func TestLane_SubmitAfterClose(t *testing.T) {
	l := NewLane()
	l.Close()

	assert.False(t, l.Submit(func() {
		t.Fatal("task must not run after close")
	}))

	// Double close is safe.
	l.Close()
}
