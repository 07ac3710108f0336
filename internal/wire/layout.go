// File: internal/wire/layout.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fixed byte layouts placed directly inside a memory-mapped region. Both
// processes MUST compile against these identical definitions; no
// endianness conversion is performed because both sides run on the
// same host architecture.

package wire

import "unsafe"

// DefaultQueueLen is the ring transport's compile-time slot count for
// binaries built from this repo. Other values such as 100 or 4096 are
// equally valid; this is simply the chosen default.
const DefaultQueueLen = 1024

// DefaultThreadNum is the slot transport's compile-time slot count.
const DefaultThreadNum = 8

// DefaultRingWorkers is the ring dispatcher's initial pool size. It is
// 1 because the ring transport pairs read responses by dequeue order:
// with more than one worker, a Read can overtake the Insert that
// precedes it in the request queue and answer Fail. Growing the pool is
// an explicit opt-in via a ThreadStart request.
const DefaultRingWorkers = 1

// RingHeader carries the scalar coordination state for the ring-buffer
// transport: a process-shared mutex and two process-shared condition
// variables, plus tail/free/len indices. The Operation array itself
// follows immediately after the header in the backing byte slice (see
// internal/transport/ring).
type RingHeader struct {
	MutexState  uint32
	NotEmptySeq uint32
	NotFullSeq  uint32
	Tail        uint32
	Free        uint32
	Len         uint32
}

// RingHeaderSize is sizeof(RingHeader).
const RingHeaderSize = int(unsafe.Sizeof(RingHeader{}))

// OperationSize is sizeof(Operation).
const OperationSize = int(unsafe.Sizeof(Operation{}))

// RingRegionSize returns the number of bytes a ring transport of the
// given capacity needs: the header plus capacity Operations.
func RingRegionSize(capacity int) int {
	return RingHeaderSize + capacity*OperationSize
}

// Slot is one (operation, seq, flags, mutex) tuple in the slot-array
// transport, owned by exactly one client/worker pair. HasWork==1 &&
// HasResult==0 means work is pending and not yet picked up; Seq is the
// producer-issued sequence number the dispatcher's gate compares its
// own counter against before claiming the work.
type Slot struct {
	MutexState uint32
	HasWork    uint32
	HasResult  uint32
	_          uint32 // padding to align Seq on an 8-byte boundary
	Seq        uint64
	Op         Operation
}

// SlotSize is sizeof(Slot).
const SlotSize = int(unsafe.Sizeof(Slot{}))

// SlotFieldRegionSize returns the number of bytes a slot transport of
// the given thread count needs.
func SlotFieldRegionSize(threadNum int) int {
	return threadNum * SlotSize
}
