// File: internal/ipcsync/cond.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ipcsync

import "sync/atomic"

// Cond is a futex-backed condition variable whose state is a single
// uint32 generation counter living in shared memory, bound to a Mutex
// the caller already holds. Every Wait call happens inside the caller's
// own predicate loop — correctness does not depend on which waiter
// wakes — so a missed wakeup between checking the predicate and calling
// Wait only costs a spurious spin, never correctness.
type Cond struct {
	seq *uint32
}

// AtCond binds a Cond view to a shared uint32 generation counter.
func AtCond(seq *uint32) Cond { return Cond{seq: seq} }

// Wait releases mu, blocks until Signal/Broadcast observes a change in
// the generation counter, then reacquires mu before returning.
func (c Cond) Wait(mu Mutex) {
	old := atomic.LoadUint32(c.seq)
	mu.Unlock()
	futexWait(c.seq, old)
	mu.Lock()
}

// Signal wakes at most one waiter.
func (c Cond) Signal() {
	atomic.AddUint32(c.seq, 1)
	futexWake(c.seq, 1)
}

// Broadcast wakes all current waiters.
func (c Cond) Broadcast() {
	atomic.AddUint32(c.seq, 1)
	futexWake(c.seq, maxWake)
}

const maxWake = 1 << 30
