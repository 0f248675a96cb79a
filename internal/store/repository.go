// Package store keeps ingested transactions in memory for the HTTP surface.
package store

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/riskflow/internal/config"
	"github.com/gyaneshwarpardhi/riskflow/internal/metrics"
	"github.com/gyaneshwarpardhi/riskflow/internal/txn"
)

// ErrDuplicateID is returned when an appended transaction id is already stored.
var ErrDuplicateID = errors.New("duplicate transaction id")

// Checkpoint marks the repository contents after a fixed number of appends.
type Checkpoint struct {
	ID      string    `json:"id"`
	Version uint64    `json:"version"`
	Size    int       `json:"size"`
	TakenAt time.Time `json:"takenAt"`
}

// Stats summarizes the repository.
type Stats struct {
	Count     int        `json:"count"`
	Snapshots int        `json:"snapshotCount"`
	Oldest    *time.Time `json:"oldestTransaction"`
	Newest    *time.Time `json:"newestTransaction"`
	Version   uint64     `json:"version"`
}

// Repository is an append-only, concurrency-safe transaction store. Stored
// transactions are never modified, so checkpoints share the backing array.
type Repository struct {
	conf config.RepositoryConf
	now  func() time.Time

	mu          sync.RWMutex
	txns        []txn.Transaction
	ids         map[string]struct{}
	checkpoints []Checkpoint
	since       int
	version     uint64
	oldest      time.Time
	newest      time.Time
}

// NewRepository returns an empty repository.
func NewRepository(conf config.RepositoryConf) *Repository {
	if conf.SnapshotEvery < 1 {
		conf.SnapshotEvery = 1000
	}
	if conf.MaxSnapshots < 1 {
		conf.MaxSnapshots = 1
	}
	return &Repository{
		conf: conf,
		now:  time.Now,
		ids:  make(map[string]struct{}),
	}
}

// Append validates and stores ts. Either every transaction is stored or none is.
func (r *Repository) Append(ts ...txn.Transaction) error {
	if len(ts) == 0 {
		return nil
	}
	for _, t := range ts {
		if err := txn.Validate(t); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(ts))
	for _, t := range ts {
		if _, ok := r.ids[t.ID]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateID, t.ID)
		}
		if _, ok := seen[t.ID]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateID, t.ID)
		}
		seen[t.ID] = struct{}{}
	}

	r.version++
	for _, t := range ts {
		r.txns = append(r.txns, t)
		r.ids[t.ID] = struct{}{}
		if r.oldest.IsZero() || t.Timestamp.Before(r.oldest) {
			r.oldest = t.Timestamp
		}
		if t.Timestamp.After(r.newest) {
			r.newest = t.Timestamp
		}
		r.since++
		if r.since == r.conf.SnapshotEvery {
			r.checkpoint()
			r.since = 0
		}
	}
	metrics.TransactionsIngested.Add(float64(len(ts)))
	return nil
}

// checkpoint must be called with mu held.
func (r *Repository) checkpoint() {
	r.checkpoints = append(r.checkpoints, Checkpoint{
		ID:      uuid.NewString(),
		Version: r.version,
		Size:    len(r.txns),
		TakenAt: r.now(),
	})
	if over := len(r.checkpoints) - r.conf.MaxSnapshots; over > 0 {
		r.checkpoints = slices.Delete(r.checkpoints, 0, over)
	}
}

// Snapshot returns a copy of every stored transaction in append order.
func (r *Repository) Snapshot() []txn.Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.txns)
}

// Len returns the number of stored transactions.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.txns)
}

// Version increases by one on every successful Append.
func (r *Repository) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Checkpoints lists the retained checkpoints, oldest first.
func (r *Repository) Checkpoints() []Checkpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.checkpoints)
}

// CheckpointData returns a copy of the transactions as they were at checkpoint id.
func (r *Repository) CheckpointData(id string) ([]txn.Transaction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := slices.IndexFunc(r.checkpoints, func(c Checkpoint) bool { return c.ID == id })
	if i < 0 {
		return nil, false
	}
	return slices.Clone(r.txns[:r.checkpoints[i].Size]), true
}

// Stats returns counts and the timestamp range of stored transactions.
func (r *Repository) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := Stats{
		Count:     len(r.txns),
		Snapshots: len(r.checkpoints),
		Version:   r.version,
	}
	if len(r.txns) > 0 {
		oldest, newest := r.oldest, r.newest
		s.Oldest, s.Newest = &oldest, &newest
	}
	return s
}
