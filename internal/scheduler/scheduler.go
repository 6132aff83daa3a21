// Package scheduler runs named periodic jobs. The LPR link supervisors
// are its main customers: one job per camera, ticking at the configured
// reconnect period.
package scheduler

import (
	"sync"
	"sync/atomic"
	"time"
)

type Scheduler struct {
	jobs      map[int]*Job
	nextJobID int64
	mu        sync.RWMutex
}

func New() *Scheduler {
	return &Scheduler{
		jobs: make(map[int]*Job),
	}
}

// AddJob starts a periodic job and returns its id.
func (s *Scheduler) AddJob(name string, period time.Duration, fn func()) int {
	jobID := int(atomic.AddInt64(&s.nextJobID, 1))

	job := newJob(jobID, name, period, fn)
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	go job.run()
	return jobID
}

// RemoveJob stops the job and waits for its in-flight tick, if any.
func (s *Scheduler) RemoveJob(jobID int) bool {
	s.mu.Lock()
	job, exists := s.jobs[jobID]
	if exists {
		delete(s.jobs, jobID)
	}
	s.mu.Unlock()

	if !exists {
		return false
	}
	job.Stop()
	return true
}

// StopAll stops every job. Safe to call more than once.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	jobs := make([]*Job, 0, len(s.jobs))
	for id, job := range s.jobs {
		jobs = append(jobs, job)
		delete(s.jobs, id)
	}
	s.mu.Unlock()

	for _, job := range jobs {
		job.Stop()
	}
}

// Len returns the number of active jobs.
func (s *Scheduler) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
