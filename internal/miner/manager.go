package miner

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/beancore/beanminer/internal/header"
)

// JobState is the lifecycle phase of a search job.
type JobState string

const (
	JobRunning   JobState = "running"
	JobFound     JobState = "found"
	JobExhausted JobState = "exhausted"
	JobFailed    JobState = "failed"
)

// Job is one background nonce search. Result is set once the job leaves
// JobRunning.
type Job struct {
	ID         string
	Header     header.BlockHeader
	Options    Options
	State      JobState
	Result     *Result
	Err        string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Manager runs search jobs in background goroutines and tracks their state.
// Jobs live in memory only; restarting the process forgets them (searches
// are cheap to restart and deterministic).
type Manager struct {
	mu      sync.RWMutex
	jobs    map[string]*Job
	nextID  int
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	onFound func(Job) // invoked outside the lock with a snapshot
}

// NewManager creates a Manager. onFound, if non-nil, is called once for every
// job that finds a nonce (e.g. to persist the solution).
func NewManager(onFound func(Job)) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		jobs:    make(map[string]*Job),
		ctx:     ctx,
		cancel:  cancel,
		onFound: onFound,
	}
}

// Start launches a search job and returns a snapshot of its initial state.
func (m *Manager) Start(h header.BlockHeader, opts Options) Job {
	m.mu.Lock()
	m.nextID++
	job := &Job{
		ID:        fmt.Sprintf("job-%d", m.nextID),
		Header:    h,
		Options:   opts,
		State:     JobRunning,
		StartedAt: time.Now().UTC(),
	}
	m.jobs[job.ID] = job
	m.wg.Add(1)
	// Snapshot before releasing the lock; run may finish and rewrite the
	// job before the caller sees the return value.
	snapshot := *job
	m.mu.Unlock()

	go m.run(job.ID, h, opts)
	return snapshot
}

// Get returns a snapshot of the job with the given id.
func (m *Manager) Get(id string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Stop cancels all running jobs and waits for them to exit.
func (m *Manager) Stop() {
	m.cancel()
	m.wg.Wait()
}

func (m *Manager) run(id string, h header.BlockHeader, opts Options) {
	defer m.wg.Done()

	res, err := Search(m.ctx, h, opts)

	m.mu.Lock()
	job := m.jobs[id]
	job.FinishedAt = time.Now().UTC()
	switch {
	case err != nil:
		job.State = JobFailed
		job.Err = err.Error()
	case res.Status == Found:
		job.State = JobFound
		job.Result = &res
	default:
		job.State = JobExhausted
		job.Result = &res
	}
	snapshot := *job
	cb := m.onFound
	m.mu.Unlock()

	switch snapshot.State {
	case JobFound:
		log.Printf("[miner] %s found nonce %d after %d hashes in %s",
			id, res.Nonce, res.Hashes, snapshot.FinishedAt.Sub(snapshot.StartedAt))
		if cb != nil {
			cb(snapshot)
		}
	case JobExhausted:
		log.Printf("[miner] %s exhausted range [%d, %d] after %d hashes",
			id, opts.Start, opts.End, res.Hashes)
	default:
		log.Printf("[miner] %s failed: %v", id, err)
	}
}
