package netconn

import "sync"

// Lane serializes callback execution for one connection. Tasks run on a
// single goroutine in submission order, so no two callbacks for the
// same connection ever run concurrently even though the connection is
// driven by several goroutines (caller, receive loop, supervisor).
type Lane struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

func NewLane() *Lane {
	l := &Lane{done: make(chan struct{})}
	l.cond = sync.NewCond(&l.mu)
	go l.run()
	return l
}

// Submit enqueues fn. Returns false after Close; the task is dropped.
func (l *Lane) Submit(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.queue = append(l.queue, fn)
	l.cond.Signal()
	return true
}

// Close stops accepting tasks, drains those already queued, and waits
// for the runner goroutine to exit. Must not be called from inside a
// lane task.
func (l *Lane) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.closed = true
	l.cond.Signal()
	l.mu.Unlock()
	<-l.done
}

func (l *Lane) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.cond.Wait()
		}
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
	}
}
