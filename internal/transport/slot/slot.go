// File: internal/transport/slot/slot.go
// Package slot implements the fixed per-thread slot-array transport:
// each slot holds a process-shared mutex, an Operation payload, a
// sequence number, and has_work/has_result flags. All coordination is
// try-lock-and-spin; there is no blocking wait.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package slot

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/momentics/shmkv/internal/ipcsync"
	"github.com/momentics/shmkv/internal/wire"
)

// Sequencer issues the monotonic sequence numbers a producing process
// attaches to its work. One Sequencer is shared by every client thread
// of a process, so the numbers give a single total order over all work
// that process submits, regardless of which slot carries it.
type Sequencer struct {
	n atomic.Uint64
}

// Next returns the next sequence number, starting from 0.
func (s *Sequencer) Next() uint64 {
	return s.n.Add(1) - 1
}

// Field is a fixed array of slots, one per client-thread/worker pair.
// Like internal/transport/ring.Queue, one Field value serves both the
// in-process test harness and a cross-process, mmap'd deployment.
type Field struct {
	slots []wire.Slot
	mus   []ipcsync.Mutex
}

func newField(slots []wire.Slot) *Field {
	mus := make([]ipcsync.Mutex, len(slots))
	for i := range slots {
		mus[i] = ipcsync.AtMutex(&slots[i].MutexState)
	}
	return &Field{slots: slots, mus: mus}
}

// NewInProcess allocates a Field of threadNum slots on the Go heap.
func NewInProcess(threadNum int) *Field {
	if threadNum <= 0 {
		threadNum = wire.DefaultThreadNum
	}
	return newField(make([]wire.Slot, threadNum))
}

// NewShared binds a Field to a pre-mapped shared-memory region. region
// must be at least wire.SlotFieldRegionSize(threadNum) bytes.
func NewShared(region []byte, threadNum int) (*Field, error) {
	need := wire.SlotFieldRegionSize(threadNum)
	if len(region) < need {
		return nil, fmt.Errorf("slot: region too small: need %d bytes, have %d", need, len(region))
	}
	slotsPtr := (*wire.Slot)(unsafe.Pointer(&region[0]))
	slots := unsafe.Slice(slotsPtr, threadNum)
	return newField(slots), nil
}

// NumSlots reports the fixed slot count.
func (f *Field) NumSlots() int { return len(f.slots) }

// PutWork writes op and its sequence number into slot id if and only if
// that slot is currently idle (has_work==false && has_result==false);
// otherwise it spins and retries. Callers MUST be the sole producer
// bound to id.
func (f *Field) PutWork(id int, op wire.Operation, seq uint64) {
	for {
		if f.mus[id].TryLock() {
			s := &f.slots[id]
			if s.HasWork == 0 && s.HasResult == 0 {
				s.Op = op
				s.Seq = seq
				s.HasWork = 1
				f.mus[id].Unlock()
				return
			}
			f.mus[id].Unlock()
		}
		runtime.Gosched()
	}
}

// PickUpResult blocks (by spinning) until slot id carries a result,
// then clears the slot back to idle and returns the payload.
func (f *Field) PickUpResult(id int) wire.Operation {
	for {
		if f.mus[id].TryLock() {
			s := &f.slots[id]
			if s.HasResult != 0 {
				op := s.Op
				s.Op = wire.Empty
				s.HasResult = 0
				f.mus[id].Unlock()
				return op
			}
			f.mus[id].Unlock()
		}
		runtime.Gosched()
	}
}

// Dispatch attempts to claim pending work on slot id. A slot is
// eligible when it carries unpicked-up work (HasWork==1, HasResult==0)
// and, when gate is non-nil, when gate's current value equals the
// slot's recorded sequence number; a nil gate makes every pending slot
// eligible. When work is claimed, fn is invoked while the slot's mutex
// is still held, and gate (if any) is advanced by one afterwards, so
// the gate counts completed table accesses and the next sequence number
// in the producer's order becomes eligible. A worker holds at most the
// slot mutex and, transitively inside fn, one bucket lock, so no new
// lock nesting is introduced.
//
// fn returns (result, hasResult): hasResult=false means fire-and-forget
// (Insert/Delete/Print/ThreadStart/ThreadStop); hasResult=true means the
// slot is left carrying result for the client to pick up (Read).
//
// Dispatch reports whether it found and ran eligible work.
func (f *Field) Dispatch(id int, gate *atomic.Uint64, fn func(op wire.Operation) (result wire.Operation, hasResult bool)) (dispatched bool) {
	if !f.mus[id].TryLock() {
		return false
	}
	defer f.mus[id].Unlock()

	s := &f.slots[id]
	if s.HasWork == 0 || s.HasResult != 0 {
		return false
	}
	if gate != nil && gate.Load() != s.Seq {
		return false
	}

	op := s.Op
	result, hasResult := fn(op)
	if gate != nil {
		gate.Add(1)
	}
	if hasResult {
		s.Op = result
		s.HasResult = 1
		s.HasWork = 0
	} else {
		s.Op = wire.Empty
		s.HasWork = 0
	}
	return true
}
