// File: internal/hashtable/table.go
// Package hashtable
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A fixed-bucket, chained, concurrent hash table: the sole consumer of
// the transport layer. Each bucket is guarded independently by a
// sync.RWMutex, sharding keys across buckets the way a sharded session
// store shards sessions — but using uint64 keys in an ordered slice
// rather than string keys in a map, because the Bag variant requires
// duplicate-tolerant, insertion-ordered semantics a map cannot express.
// The table never rehashes; bucket count is fixed at construction.
package hashtable

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"sync"

	"github.com/momentics/shmkv/api"
	"github.com/momentics/shmkv/pool"
)

// Variant selects the duplicate-key policy.
type Variant int

const (
	// Bag allows duplicate keys: insert always appends, delete removes
	// every matching pair, read returns the first match.
	Bag Variant = iota
	// Set rejects duplicate keys: insert is a no-op (logged) when the
	// key already exists, delete removes at most one pair.
	Set
)

type pair struct {
	key   uint64
	value uint64
}

type bucket struct {
	mu      sync.RWMutex
	entries []pair
}

// Table is a fixed-size concurrent hash table.
type Table struct {
	buckets []bucket
	variant Variant
	onDup   func(key uint64) // hook for the Set variant's duplicate-insert log
}

// New constructs a Table with the given bucket count and duplicate-key
// policy. size MUST be positive; it is fixed for the table's lifetime.
func New(size int, variant Variant) *Table {
	if size <= 0 {
		size = 1
	}
	t := &Table{
		buckets: make([]bucket, size),
		variant: variant,
		onDup:   func(key uint64) { fmt.Fprintf(defaultDupSink, "shmkv: duplicate key %d, not inserting\n", key) },
	}
	return t
}

// defaultDupSink is where the Set variant's duplicate-insert warning
// goes; tests may redirect it via SetDuplicateSink.
var defaultDupSink io.Writer = os.Stderr

// printBufPool reuses *bytes.Buffer across Print calls so that multiple
// workers formatting bucket contents concurrently neither allocate per
// call nor interleave partial writes to a shared io.Writer: each call
// formats into its own buffer and performs exactly one Write.
var printBufPool = pool.NewSyncPool(func() *bytes.Buffer { return new(bytes.Buffer) })

// SetDuplicateSink overrides where Set-variant duplicate-insert warnings
// are written (default: os.Stderr). Exposed for tests.
func (t *Table) SetDuplicateSink(w io.Writer) {
	t.onDup = func(key uint64) { fmt.Fprintf(w, "shmkv: duplicate key %d, not inserting\n", key) }
}

func (t *Table) bucketFor(key uint64) *bucket {
	h := fnv.New64a()
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(key >> (8 * i))
	}
	h.Write(buf[:])
	idx := h.Sum64() % uint64(len(t.buckets))
	return &t.buckets[idx]
}

// Insert adds (key, value). Bag: always appends. Set: no-op + warning if
// key already present.
func (t *Table) Insert(key, value uint64) {
	b := t.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()

	if t.variant == Set {
		for _, p := range b.entries {
			if p.key == key {
				t.onDup(key)
				return
			}
		}
	}
	b.entries = append(b.entries, pair{key: key, value: value})
}

// Delete removes matching entries: all of them for Bag, at most one for
// Set.
func (t *Table) Delete(key uint64) {
	b := t.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()

	if t.variant == Set {
		for i, p := range b.entries {
			if p.key == key {
				b.entries = append(b.entries[:i], b.entries[i+1:]...)
				return
			}
		}
		return
	}

	kept := b.entries[:0]
	for _, p := range b.entries {
		if p.key != key {
			kept = append(kept, p)
		}
	}
	b.entries = kept
}

// Read returns the value of the first matching pair, and whether any
// match was found.
func (t *Table) Read(key uint64) (uint64, bool) {
	b := t.bucketFor(key)
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, p := range b.entries {
		if p.key == key {
			return p.value, true
		}
	}
	return 0, false
}

// Print renders bucket index's contents to w in a human-readable form.
// Returns an error wrapping api.ErrBucketOutOfRange when index is out
// of range.
func (t *Table) Print(index int, w io.Writer) error {
	if index < 0 || index >= len(t.buckets) {
		return fmt.Errorf("hashtable: bucket %d of %d: %w", index, len(t.buckets), api.ErrBucketOutOfRange)
	}
	buf := printBufPool.Get()
	buf.Reset()
	defer printBufPool.Put(buf)

	b := &t.buckets[index]
	b.mu.RLock()
	fmt.Fprintf(buf, "bucket %d:", index)
	for _, p := range b.entries {
		fmt.Fprintf(buf, " (k=%d, v=%d)", p.key, p.value)
	}
	b.mu.RUnlock()
	fmt.Fprintln(buf)

	_, err := w.Write(buf.Bytes())
	return err
}

// Size returns the fixed bucket count.
func (t *Table) Size() int { return len(t.buckets) }
