// File: internal/worker/slot_pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// SlotPool is the slot-transport dispatcher: one goroutine per slot id,
// each polling its own slot forever via slot.Field.Dispatch. There is
// no resize — slot count is fixed at construction, set by the
// THREAD_NUM compile-time constant — and no cross-worker contention,
// since each worker only ever touches its own slot.

package worker

import (
	"log"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/momentics/shmkv/affinity"
	"github.com/momentics/shmkv/internal/hashtable"
	"github.com/momentics/shmkv/internal/transport/slot"
	"github.com/momentics/shmkv/internal/wire"
)

// SlotPool drives a slot.Field against one hash table. Its seq counter
// is the dispatch gate: it advances on every table access, and a slot's
// pending work is claimed only when the counter equals the sequence
// number the producer recorded in the slot, giving a total order over
// table-touching operations that matches the producer's issuing order.
type SlotPool struct {
	table *hashtable.Table
	field *slot.Field
	seq   atomic.Uint64

	pin  bool
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewSlotPool spawns one worker goroutine per slot in field. When pin is
// true (off by default), each worker attempts best-effort CPU pinning
// to core id%runtime.NumCPU() via affinity.SetAffinity; a pinning
// failure is logged and ignored, since it is a non-functional
// enhancement, never a correctness requirement.
func NewSlotPool(table *hashtable.Table, field *slot.Field, pin bool) *SlotPool {
	p := &SlotPool{table: table, field: field, pin: pin, stop: make(chan struct{})}
	for id := 0; id < field.NumSlots(); id++ {
		p.wg.Add(1)
		go p.run(id)
	}
	return p
}

func (p *SlotPool) run(id int) {
	defer p.wg.Done()
	if p.pin {
		if err := affinity.SetAffinity(id % runtime.NumCPU()); err != nil {
			log.Printf("worker: slot %d affinity pin skipped: %v", id, err)
		}
	}
	for {
		select {
		case <-p.stop:
			return
		default:
		}
		p.field.Dispatch(id, &p.seq, func(op wire.Operation) (wire.Operation, bool) {
			return p.apply(op)
		})
		runtime.Gosched()
	}
}

// apply performs op against the table under the slot's lock (see
// slot.Field.Dispatch's doc for why that nesting is still deadlock-free).
func (p *SlotPool) apply(op wire.Operation) (result wire.Operation, hasResult bool) {
	switch op.Tag {
	case wire.TagEmpty:
		return wire.Operation{}, false
	case wire.TagInsert:
		p.table.Insert(op.Key, op.Value)
	case wire.TagDelete:
		p.table.Delete(op.Key)
	case wire.TagPrint:
		_ = p.table.Print(int(op.N), os.Stdout)
	case wire.TagRead:
		if v, ok := p.table.Read(op.Key); ok {
			return wire.Value(v), true
		}
		return wire.Fail(), true
	case wire.TagQuit:
		p.Shutdown()
		os.Exit(wire.ExitOK)
	}
	return wire.Operation{}, false
}

// Seq reports how many table accesses the pool has completed, which is
// also the next sequence number eligible for dispatch.
func (p *SlotPool) Seq() uint64 { return p.seq.Load() }

// Shutdown stops all slot workers without exiting the process (used by
// tests; the Quit Operation itself exits the real server binary via a
// direct os.Exit call in apply, not through Shutdown).
func (p *SlotPool) Shutdown() {
	select {
	case <-p.stop:
	default:
		close(p.stop)
	}
}
