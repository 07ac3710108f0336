// File: internal/transport/ring/ring.go
// Package ring implements the bounded ring-buffer transport: a
// process-shared mutex and two process-shared condition variables
// guarding a fixed-length array of wire.Operation slots, with
// tail/free indices and FIFO blocking semantics.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// One Queue value serves both the in-process (test harness, goroutines
// of one binary) and cross-process (two binaries sharing an mmap'd
// region) deployments: the only difference is where its RingHeader and
// Operation slots physically live, behind one api.Ring[T]-style
// contract with interchangeable concrete backends.
package ring

import (
	"fmt"
	"unsafe"

	"github.com/momentics/shmkv/internal/ipcsync"
	"github.com/momentics/shmkv/internal/wire"
)

// Queue is a bounded FIFO transport carrying wire.Operation values
// between a single producer/consumer pair or multiple of each. Multiple
// producers / multiple consumers are permitted; each is serialized by
// the single transport mutex.
type Queue struct {
	header   *wire.RingHeader
	slots    []wire.Operation
	mu       ipcsync.Mutex
	notEmpty ipcsync.Cond
	notFull  ipcsync.Cond
}

func newQueue(header *wire.RingHeader, slots []wire.Operation) *Queue {
	return &Queue{
		header:   header,
		slots:    slots,
		mu:       ipcsync.AtMutex(&header.MutexState),
		notEmpty: ipcsync.AtCond(&header.NotEmptySeq),
		notFull:  ipcsync.AtCond(&header.NotFullSeq),
	}
}

// NewInProcess allocates a ring queue of the given capacity on the Go
// heap, for use within a single process (the client/server test harness
// running as goroutines, or unit tests exercising arbitrary QUEUE_LEN
// values).
func NewInProcess(capacity int) *Queue {
	if capacity <= 0 {
		capacity = wire.DefaultQueueLen
	}
	header := &wire.RingHeader{}
	slots := make([]wire.Operation, capacity)
	return newQueue(header, slots)
}

// NewShared binds a ring queue to a pre-mapped shared-memory region.
// region must be at least wire.RingRegionSize(capacity) bytes; the
// server's first open MUST have already zeroed it.
func NewShared(region []byte, capacity int) (*Queue, error) {
	need := wire.RingRegionSize(capacity)
	if len(region) < need {
		return nil, fmt.Errorf("ring: region too small: need %d bytes, have %d", need, len(region))
	}
	header := (*wire.RingHeader)(unsafe.Pointer(&region[0]))
	slotsPtr := (*wire.Operation)(unsafe.Pointer(&region[wire.RingHeaderSize]))
	slots := unsafe.Slice(slotsPtr, capacity)
	return newQueue(header, slots), nil
}

// Enqueue blocks while the queue is full, then writes op into the next
// free slot and signals any blocked Dequeue. Callers MUST NOT pass the
// Empty sentinel: Empty is the free-slot marker, never a payload.
func (q *Queue) Enqueue(op wire.Operation) {
	q.mu.Lock()
	for q.header.Len == uint32(len(q.slots)) {
		q.notFull.Wait(q.mu)
	}
	free := q.header.Free
	q.slots[free] = op
	q.header.Free = (free + 1) % uint32(len(q.slots))
	q.header.Len++
	q.mu.Unlock()
	q.notEmpty.Signal()
}

// Dequeue blocks while the queue is empty, then removes and returns the
// oldest operation, wiping its slot back to Empty.
func (q *Queue) Dequeue() wire.Operation {
	q.mu.Lock()
	for q.header.Len == 0 {
		q.notEmpty.Wait(q.mu)
	}
	tail := q.header.Tail
	op := q.slots[tail]
	q.slots[tail] = wire.Empty
	q.header.Tail = (tail + 1) % uint32(len(q.slots))
	q.header.Len--
	q.mu.Unlock()
	q.notFull.Signal()
	return op
}

// Len reports the current occupancy (0..Cap).
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int(q.header.Len)
}

// Cap reports the fixed slot count.
func (q *Queue) Cap() int { return len(q.slots) }
