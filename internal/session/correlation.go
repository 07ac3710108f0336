// File: internal/session/correlation.go
// Package session
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// session is a debug-only, sharded table of in-flight ring requests,
// keyed by a uuid generated when tracing is enabled. The ring transport
// itself makes no ordering guarantee once more than one worker drains
// the same request queue and replies on the same response queue, and
// this repo does not change that (internal/bench's client is documented
// as single-worker-only). What a correlation table adds is
// observability: with tracing on, an operator can see how many requests
// are still outstanding. Each entry records its key and issue time, but
// only the count is exposed (Outstanding). Sharding follows the same
// FNV-bucketed, lock-per-shard layout a client-side session store would
// use to avoid one mutex serializing every lookup, generalized here
// from string session ids to uuid request ids.
package session

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
)

const shardCount = 16

// Entry is one request's tracked metadata while it is in flight.
type Entry struct {
	Key      uint64
	IssuedAt time.Time
}

type shard struct {
	mu      sync.Mutex
	pending map[uuid.UUID]Entry
}

// Table tracks in-flight requests across shardCount FNV-bucketed
// shards so no single mutex serializes every trace event.
type Table struct {
	shards [shardCount]*shard
}

// New constructs an empty correlation table.
func New() *Table {
	t := &Table{}
	for i := range t.shards {
		t.shards[i] = &shard{pending: make(map[uuid.UUID]Entry)}
	}
	return t
}

func (t *Table) shardFor(id uuid.UUID) *shard {
	h := fnv.New32a()
	h.Write(id[:])
	return t.shards[h.Sum32()%shardCount]
}

// Begin records a newly dispatched request keyed by its Operation.Key
// and returns the uuid generated to track it.
func (t *Table) Begin(key uint64) uuid.UUID {
	id := uuid.New()
	sh := t.shardFor(id)
	sh.mu.Lock()
	sh.pending[id] = Entry{Key: key, IssuedAt: time.Now()}
	sh.mu.Unlock()
	return id
}

// End removes a completed request from tracking. Calling End twice
// with the same id is safe; the second call is a no-op.
func (t *Table) End(id uuid.UUID) {
	sh := t.shardFor(id)
	sh.mu.Lock()
	delete(sh.pending, id)
	sh.mu.Unlock()
}

// Outstanding reports the total number of in-flight requests across
// all shards.
func (t *Table) Outstanding() int {
	n := 0
	for _, sh := range t.shards {
		sh.mu.Lock()
		n += len(sh.pending)
		sh.mu.Unlock()
	}
	return n
}
