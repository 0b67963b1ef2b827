package miner

import (
	"math/big"
	"testing"
	"time"
)

// waitForJob polls until the job leaves JobRunning or the deadline passes.
func waitForJob(t *testing.T, m *Manager, id string) Job {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := m.Get(id)
		if !ok {
			t.Fatalf("job %s disappeared", id)
		}
		if job.State != JobRunning {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s still running after deadline", id)
	return Job{}
}

func TestManagerRunsJobToFound(t *testing.T) {
	found := make(chan Job, 1)
	m := NewManager(func(j Job) { found <- j })
	defer m.Stop()

	job := m.Start(genesisHeader(t), Options{
		Start: genesisNonce - 2,
		End:   genesisNonce + 2,
	})
	if job.State != JobRunning {
		t.Fatalf("initial state = %s, want %s", job.State, JobRunning)
	}

	done := waitForJob(t, m, job.ID)
	if done.State != JobFound {
		t.Fatalf("final state = %s, want %s", done.State, JobFound)
	}
	if done.Result == nil || done.Result.Nonce != genesisNonce {
		t.Errorf("result = %+v, want nonce %d", done.Result, genesisNonce)
	}
	if done.FinishedAt.Before(done.StartedAt) {
		t.Errorf("finished %v before started %v", done.FinishedAt, done.StartedAt)
	}

	select {
	case cb := <-found:
		if cb.ID != job.ID {
			t.Errorf("callback job id = %s, want %s", cb.ID, job.ID)
		}
	case <-time.After(5 * time.Second):
		t.Error("onFound callback never fired")
	}
}

func TestManagerRunsJobToExhausted(t *testing.T) {
	m := NewManager(nil)
	defer m.Stop()

	job := m.Start(genesisHeader(t), Options{
		Start:  0,
		End:    100,
		Target: big.NewInt(0),
	})

	done := waitForJob(t, m, job.ID)
	if done.State != JobExhausted {
		t.Fatalf("final state = %s, want %s", done.State, JobExhausted)
	}
	if done.Result == nil || done.Result.Hashes != 101 {
		t.Errorf("result = %+v, want 101 hashes", done.Result)
	}
}

func TestManagerRecordsFailure(t *testing.T) {
	m := NewManager(nil)
	defer m.Stop()

	job := m.Start(genesisHeader(t), Options{Start: 10, End: 5})
	done := waitForJob(t, m, job.ID)
	if done.State != JobFailed {
		t.Fatalf("final state = %s, want %s", done.State, JobFailed)
	}
	if done.Err == "" {
		t.Error("failed job has empty error")
	}
}

func TestManagerStartSnapshotOfFastJob(t *testing.T) {
	// A tiny range finishes almost immediately, so the background goroutine
	// can rewrite the job while Start's return value is being read. The
	// snapshot Start hands back must stay independent of that (run under
	// the race detector).
	m := NewManager(nil)
	defer m.Stop()

	for i := 0; i < 50; i++ {
		job := m.Start(genesisHeader(t), Options{
			Start:  0,
			End:    1,
			Target: big.NewInt(0),
		})
		if job.State != JobRunning {
			t.Fatalf("iteration %d: initial snapshot state = %s, want %s", i, job.State, JobRunning)
		}
		if job.Result != nil || job.Err != "" {
			t.Fatalf("iteration %d: initial snapshot carries a result: %+v", i, job)
		}
		done := waitForJob(t, m, job.ID)
		if done.State != JobExhausted {
			t.Fatalf("iteration %d: final state = %s, want %s", i, done.State, JobExhausted)
		}
	}
}

func TestManagerGetUnknownJob(t *testing.T) {
	m := NewManager(nil)
	defer m.Stop()

	if _, ok := m.Get("job-999"); ok {
		t.Error("Get returned a job that was never started")
	}
}

func TestManagerStopCancelsRunningJobs(t *testing.T) {
	m := NewManager(nil)

	// A full-range search with an unreachable target would run for a very
	// long time; Stop must interrupt it promptly.
	job := m.Start(genesisHeader(t), Options{Target: big.NewInt(0)})

	time.Sleep(20 * time.Millisecond)
	m.Stop()

	done, ok := m.Get(job.ID)
	if !ok {
		t.Fatalf("job %s disappeared", job.ID)
	}
	if done.State != JobFailed {
		t.Errorf("state after Stop = %s, want %s", done.State, JobFailed)
	}
}
