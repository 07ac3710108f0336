// File: internal/worker/ring_pool_test.go
package worker

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/momentics/shmkv/internal/hashtable"
	"github.com/momentics/shmkv/internal/transport/ring"
	"github.com/momentics/shmkv/internal/wire"
)

func newTestPool(t *testing.T, n int) (*Pool, *ring.Queue, *ring.Queue, *hashtable.Table) {
	t.Helper()
	table := hashtable.New(97, hashtable.Bag)
	requests := ring.NewInProcess(wire.DefaultQueueLen)
	responses := ring.NewInProcess(wire.DefaultQueueLen)
	p := NewPool(table, requests, responses, n, nil)
	t.Cleanup(p.Shutdown)
	return p, requests, responses, table
}

func TestPoolInsertThenRead(t *testing.T) {
	p, requests, responses, table := newTestPool(t, 2)
	_ = p

	requests.Enqueue(wire.Insert(5, 500))
	require.Eventually(t, func() bool {
		v, ok := table.Read(5)
		return ok && v == 500
	}, time.Second, time.Millisecond)

	requests.Enqueue(wire.Read(5))
	op := responses.Dequeue()
	require.Equal(t, wire.TagValue, op.Tag)
	require.Equal(t, uint64(500), op.Value)
}

func TestPoolDeleteThenReadFails(t *testing.T) {
	p, requests, responses, table := newTestPool(t, 1)
	_ = p
	table.Insert(9, 9)

	requests.Enqueue(wire.Delete(9))
	require.Eventually(t, func() bool {
		_, ok := table.Read(9)
		return !ok
	}, time.Second, time.Millisecond)

	requests.Enqueue(wire.Read(9))
	op := responses.Dequeue()
	require.Equal(t, wire.TagFail, op.Tag)
}

func TestPoolPrintWritesBucketContents(t *testing.T) {
	var buf bytes.Buffer
	table := hashtable.New(1, hashtable.Bag)
	requests := ring.NewInProcess(wire.DefaultQueueLen)
	responses := ring.NewInProcess(wire.DefaultQueueLen)
	p := NewPool(table, requests, responses, 1, &buf)
	defer p.Shutdown()

	table.Insert(0, 111) // with a single bucket, key 0 lands in bucket 0

	requests.Enqueue(wire.Print(0))
	requests.Enqueue(wire.ThreadStop())
	require.Eventually(t, func() bool { return p.NumWorkers() == 0 }, time.Second, time.Millisecond)
	require.Contains(t, buf.String(), "k=0, v=111")
}

func TestPoolThreadStartGrowsWorkers(t *testing.T) {
	p, requests, _, _ := newTestPool(t, 1)
	requests.Enqueue(wire.ThreadStart(4))
	require.Eventually(t, func() bool { return p.NumWorkers() == 4 }, time.Second, time.Millisecond)
}

func TestPoolThreadStartClampsToMax(t *testing.T) {
	p, requests, _, _ := newTestPool(t, 1)
	requests.Enqueue(wire.ThreadStart(999))
	require.Eventually(t, func() bool { return p.NumWorkers() == MaxRingWorkers }, time.Second, time.Millisecond)
}

func TestPoolThreadStopShrinksWorkers(t *testing.T) {
	p, _, _, _ := newTestPool(t, 4)
	require.Eventually(t, func() bool { return p.NumWorkers() == 4 }, time.Second, time.Millisecond)

	p.Resize(1)
	require.Eventually(t, func() bool { return p.NumWorkers() == 1 }, time.Second, time.Millisecond)
}

func TestPoolTracingTracksOutstandingReads(t *testing.T) {
	p, requests, responses, _ := newTestPool(t, 1)
	require.Equal(t, 0, p.Outstanding()) // tracing off by default costs nothing to query

	p.EnableTracing()
	requests.Enqueue(wire.Read(42))
	responses.Dequeue() // drain the reply so the table entry's End has definitely run

	require.Eventually(t, func() bool { return p.Outstanding() == 0 }, time.Second, time.Millisecond)
}

// TestPoolSingleWorkerResponsesAreFIFO: with exactly one worker, read
// responses come back in the order the reads were submitted, so a
// pipelining client may pair replies by count alone.
func TestPoolSingleWorkerResponsesAreFIFO(t *testing.T) {
	p, requests, responses, table := newTestPool(t, 1)
	_ = p

	const n = 200
	for i := uint64(0); i < n; i++ {
		table.Insert(i, i*i)
	}
	for i := uint64(0); i < n; i++ {
		requests.Enqueue(wire.Read(i))
	}
	for i := uint64(0); i < n; i++ {
		op := responses.Dequeue()
		require.Equal(t, wire.TagValue, op.Tag)
		require.Equal(t, i*i, op.Value)
	}
}

func TestPoolSurvivesBurstBeforeAnyWorkerStarted(t *testing.T) {
	table := hashtable.New(997, hashtable.Bag)
	requests := ring.NewInProcess(wire.DefaultQueueLen)
	responses := ring.NewInProcess(wire.DefaultQueueLen)

	const total = 2000
	done := make(chan struct{})
	go func() {
		for i := 0; i < total; i++ {
			requests.Enqueue(wire.Insert(uint64(i), uint64(i)))
		}
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)

	p := NewPool(table, requests, responses, 8, nil)
	defer p.Shutdown()
	<-done

	require.Eventually(t, func() bool {
		v, ok := table.Read(uint64(total - 1))
		return ok && v == uint64(total-1)
	}, 2*time.Second, time.Millisecond)
}
