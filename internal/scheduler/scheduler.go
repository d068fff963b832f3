// Package scheduler runs the periodic drivers: observer polling, due-order
// fulfillment initiation and any other recurring job. Every job tick is
// gated through the shared lock so a multi-node deployment runs each job
// on one node per cycle.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/levijcl/Wei-sub002/internal/lock"
)

// Job is one recurring unit of work. LockKey scopes the mutual exclusion;
// jobs with distinct keys run concurrently.
type Job struct {
	Name     string
	LockKey  string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

type Scheduler struct {
	gate *lock.Gate
	jobs []Job

	wg sync.WaitGroup
}

func New(gate *lock.Gate) *Scheduler {
	return &Scheduler{gate: gate}
}

func (s *Scheduler) Register(job Job) {
	s.jobs = append(s.jobs, job)
}

// Start launches one ticker goroutine per registered job and returns. Each
// job also fires once immediately so a fresh deployment does not wait a
// full interval for its first pass. Stop by canceling ctx, then Wait.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runLoop(ctx, job)
	}
	log.Printf("[Scheduler] started %d jobs", len(s.jobs))
}

// Wait blocks until all job loops have observed cancellation and exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, job Job) {
	defer s.wg.Done()

	s.tick(ctx, job)
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("[Scheduler] job %s stopped", job.Name)
			return
		case <-ticker.C:
			s.tick(ctx, job)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, job Job) {
	ran, err := s.gate.TryRunExclusive(ctx, job.LockKey, lock.DefaultAcquireTimeout, job.Run)
	switch {
	case err != nil:
		log.Printf("[Scheduler] job %s: %v", job.Name, err)
	case !ran:
		log.Printf("[Scheduler] job %s skipped, lock held elsewhere", job.Name)
	}
}
