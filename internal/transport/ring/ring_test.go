// File: internal/transport/ring/ring_test.go
package ring

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/momentics/shmkv/internal/wire"
)

func TestFIFOSingleProducerSingleConsumer(t *testing.T) {
	for _, n := range []int{1, 16, 256, 4096} {
		q := NewInProcess(n + 4)
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < n; i++ {
				q.Enqueue(wire.Insert(uint64(i), uint64(i)))
			}
		}()
		for i := 0; i < n; i++ {
			op := q.Dequeue()
			require.Equal(t, uint64(i), op.Key)
		}
		wg.Wait()
	}
}

func TestCapacityBlocksAndUnblocks(t *testing.T) {
	const qlen = 8
	q := NewInProcess(qlen)

	for i := 0; i < qlen; i++ {
		q.Enqueue(wire.Insert(uint64(i), 0))
	}

	blocked := make(chan struct{})
	go func() {
		q.Enqueue(wire.Insert(999, 0))
		close(blocked)
	}()

	select {
	case <-blocked:
		t.Fatalf("enqueue on a full queue should have blocked")
	case <-time.After(50 * time.Millisecond):
	}

	q.Dequeue()

	select {
	case <-blocked:
	case <-time.After(time.Second):
		t.Fatalf("enqueue did not unblock after a dequeue freed a slot")
	}
}

func TestSharedRingRoundTrip(t *testing.T) {
	const capacity = 32
	region := make([]byte, wire.RingRegionSize(capacity))
	q, err := NewShared(region, capacity)
	require.NoError(t, err)

	for i := 0; i < capacity; i++ {
		q.Enqueue(wire.Insert(uint64(i), uint64(i*2)))
	}
	for i := 0; i < capacity; i++ {
		op := q.Dequeue()
		require.Equal(t, uint64(i), op.Key)
		require.Equal(t, uint64(i*2), op.Value)
	}
}

func TestSharedRingRejectsUndersizedRegion(t *testing.T) {
	region := make([]byte, 4)
	_, err := NewShared(region, 32)
	require.Error(t, err)
}

func TestTwoThousandInsertsBeforeServerStarts(t *testing.T) {
	q := NewInProcess(wire.DefaultQueueLen)
	const total = 2000

	done := make(chan struct{})
	go func() {
		for i := 0; i < total; i++ {
			q.Enqueue(wire.Insert(uint64(i), uint64(i)))
		}
		close(done)
	}()

	time.Sleep(20 * time.Millisecond) // let the producer fill and block

	received := 0
	for received < total {
		q.Dequeue()
		received++
	}
	<-done
	require.Equal(t, total, received)
}
