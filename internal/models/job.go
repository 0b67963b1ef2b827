package models

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/beancore/beanminer/internal/miner"
)

// JobInfo is the JSON presentation of a search job.
type JobInfo struct {
	ID         string     `json:"id"`
	State      string     `json:"state"`
	HeaderHash string     `json:"header_hash"`
	Start      uint32     `json:"start"`
	End        uint32     `json:"end"` // as submitted; 0 means the full range
	Target     string     `json:"target,omitempty"`
	Workers    int        `json:"workers"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Nonce      *uint32    `json:"nonce,omitempty"`
	Digest     string     `json:"digest,omitempty"`
	Hashes     uint64     `json:"hashes"`
	Error      string     `json:"error,omitempty"`
}

// NewJobInfo builds the presentation form of a job snapshot.
func NewJobInfo(j miner.Job) *JobInfo {
	info := &JobInfo{
		ID:         j.ID,
		State:      string(j.State),
		HeaderHash: j.Header.BlockHash().String(),
		Start:      j.Options.Start,
		End:        j.Options.End,
		Workers:    j.Options.Workers,
		StartedAt:  j.StartedAt,
		Error:      j.Err,
	}
	if j.Options.Target != nil {
		info.Target = fmt.Sprintf("%064x", j.Options.Target)
	}
	if !j.FinishedAt.IsZero() {
		t := j.FinishedAt
		info.FinishedAt = &t
	}
	if j.Result != nil {
		info.Hashes = j.Result.Hashes
		if j.State == miner.JobFound {
			nonce := j.Result.Nonce
			info.Nonce = &nonce
			digest := chainhash.Hash(j.Result.Digest)
			info.Digest = digest.String()
		}
	}
	return info
}
