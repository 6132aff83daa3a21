package scheduler

import (
	"context"
	"time"
)

// Job runs fn at a fixed period until stopped. Ticks never overlap:
// the next tick is not delivered while fn is still running.
type Job struct {
	ID        int
	Name      string
	Period    time.Duration
	CreatedAt int64

	fn     func()
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func newJob(id int, name string, period time.Duration, fn func()) *Job {
	ctx, cancel := context.WithCancel(context.Background())
	return &Job{
		ID:        id,
		Name:      name,
		Period:    period,
		CreatedAt: time.Now().UnixMilli(),
		fn:        fn,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

func (j *Job) run() {
	defer close(j.done)
	ticker := time.NewTicker(j.Period)
	defer ticker.Stop()

	for {
		select {
		case <-j.ctx.Done():
			return
		case <-ticker.C:
			j.fn()
		}
	}
}

// Stop cancels the job and waits for any in-flight tick to finish.
func (j *Job) Stop() {
	j.cancel()
	<-j.done
}

func (j *Job) String() string {
	return j.Name
}
