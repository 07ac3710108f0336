// File: internal/worker/ring_pool.go
// Package worker implements the server-side dispatcher: it consumes
// requests from a transport, invokes the hash table, and publishes
// responses. Pool is the ring-transport dispatcher, an executor with
// dynamic resize and graceful worker retirement specialized to the
// fixed Insert/Read/Delete/Print/admin dispatch table this repo needs.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package worker

import (
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
	"github.com/google/uuid"

	"github.com/momentics/shmkv/internal/hashtable"
	"github.com/momentics/shmkv/internal/session"
	"github.com/momentics/shmkv/internal/transport/ring"
	"github.com/momentics/shmkv/internal/wire"
)

// MaxRingWorkers is the clamp applied to ThreadStart(n) requests.
const MaxRingWorkers = 16

// Pool drives a ring.Queue request side and a ring.Queue response side
// with a resizable pool of goroutine workers, all sharing one table.
type Pool struct {
	table     *hashtable.Table
	requests  *ring.Queue
	responses *ring.Queue
	out       io.Writer

	count atomic.Int64
	wg    sync.WaitGroup

	resizeMu      sync.Mutex
	resizePending *queue.Queue // FIFO of pending ThreadStart sizes, applied in order

	quit     chan struct{}
	quitOnce sync.Once

	trace *session.Table // nil unless EnableTracing was called
}

// NewPool constructs a ring dispatcher with n initial workers (clamped
// to [1, MaxRingWorkers]) against table, consuming requests and
// publishing responses on the given queues. out receives Print output
// (os.Stdout if nil).
func NewPool(table *hashtable.Table, requests, responses *ring.Queue, n int, out io.Writer) *Pool {
	if out == nil {
		out = os.Stdout
	}
	p := &Pool{
		table:         table,
		requests:      requests,
		responses:     responses,
		out:           out,
		resizePending: queue.New(),
		quit:          make(chan struct{}),
	}
	p.spawn(clamp(n))
	go p.manageResizes()
	return p
}

func clamp(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxRingWorkers {
		return MaxRingWorkers
	}
	return n
}

func (p *Pool) spawn(n int) {
	for i := 0; i < n; i++ {
		p.count.Add(1)
		p.wg.Add(1)
		go p.runWorker()
	}
}

// Resize enqueues a request to reshape the pool to n workers (clamped),
// applied asynchronously in FIFO order relative to other resize
// requests: existing workers finish their current dispatch, and then
// the supervisor either spawns workers up to n or sends ThreadStop to
// retire surplus workers. Backed by an eapache/queue FIFO rather than a
// channel, so a burst of ThreadStart admin requests can be queued
// without blocking the caller that observed them.
func (p *Pool) Resize(n int) {
	p.resizeMu.Lock()
	p.resizePending.Add(clamp(n))
	p.resizeMu.Unlock()
}

func (p *Pool) manageResizes() {
	for {
		select {
		case <-p.quit:
			return
		default:
		}
		p.resizeMu.Lock()
		if p.resizePending.Length() == 0 {
			p.resizeMu.Unlock()
			time.Sleep(time.Millisecond)
			continue
		}
		n := p.resizePending.Remove().(int)
		p.resizeMu.Unlock()

		current := int(p.count.Load())
		switch {
		case n > current:
			p.spawn(n - current)
		case n < current:
			for i := 0; i < current-n; i++ {
				p.requests.Enqueue(wire.ThreadStop())
			}
		}
	}
}

// NumWorkers reports the live worker goroutine count.
func (p *Pool) NumWorkers() int { return int(p.count.Load()) }

// EnableTracing turns on the in-flight request correlation table. It
// does not change dispatch ordering or correctness — response ordering
// under multiple ring workers is unspecified, and this pool does not
// attempt to fix that — it only gives an operator visibility into how
// many Read requests are outstanding, for control.DebugProbes to
// surface. Other operations are not tracked, and wait times are not
// reported.
func (p *Pool) EnableTracing() { p.trace = session.New() }

// Outstanding reports the number of in-flight traced requests, or 0 if
// tracing was never enabled.
func (p *Pool) Outstanding() int {
	if p.trace == nil {
		return 0
	}
	return p.trace.Outstanding()
}

// Shutdown stops the resize manager goroutine. It does not itself stop
// workers — a Quit operation flowing through the request queue does
// that by exiting the process.
func (p *Pool) Shutdown() {
	p.quitOnce.Do(func() { close(p.quit) })
}

func (p *Pool) runWorker() {
	defer p.wg.Done()
	for {
		op := p.requests.Dequeue()
		if p.dispatch(op) {
			p.count.Add(-1)
			return
		}
	}
}

// dispatch executes one Operation's effect and reports whether the
// calling worker must exit its loop (ThreadStop). A panic here is
// deliberately left unrecovered: it may have occurred with a bucket
// lock held, and there is no safe partial-mutation recovery, so letting
// Go's default unhandled-panic behavior kill the process is the correct
// policy, not an oversight.
func (p *Pool) dispatch(op wire.Operation) (exitWorker bool) {
	switch op.Tag {
	case wire.TagEmpty:
		return false
	case wire.TagInsert:
		p.table.Insert(op.Key, op.Value)
	case wire.TagDelete:
		p.table.Delete(op.Key)
	case wire.TagPrint:
		_ = p.table.Print(int(op.N), p.out)
	case wire.TagRead:
		var id uuid.UUID
		if p.trace != nil {
			id = p.trace.Begin(op.Key)
		}
		if v, ok := p.table.Read(op.Key); ok {
			p.responses.Enqueue(wire.Value(v))
		} else {
			p.responses.Enqueue(wire.Fail())
		}
		if p.trace != nil {
			p.trace.End(id)
		}
	case wire.TagThreadStart:
		p.Resize(int(op.N))
	case wire.TagThreadStop:
		return true
	case wire.TagQuit:
		os.Exit(wire.ExitOK)
	default:
		// unknown/unreachable tag: protocol error, ignored
	}
	return false
}
