// File: internal/bench/suite_test.go
package bench

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/momentics/shmkv/internal/hashtable"
	"github.com/momentics/shmkv/internal/transport/ring"
	"github.com/momentics/shmkv/internal/wire"
	"github.com/momentics/shmkv/internal/worker"
)

// TestBenchSuiteAgainstInProcessServer drives the full benchmark suite
// against an in-process ring.Queue pair and worker.Pool, exercising the
// same client/server protocol cmd/shmkv-client and cmd/shmkv-server
// speak, without any shared-memory region, end to end.
func TestBenchSuiteAgainstInProcessServer(t *testing.T) {
	table := hashtable.New(997, hashtable.Bag)
	requests := ring.NewInProcess(wire.DefaultQueueLen)
	responses := ring.NewInProcess(wire.DefaultQueueLen)
	// Exactly one worker: the suite pairs responses by dequeue order
	// and expects each Insert processed before the Read that follows
	// it, which only holds in single-worker mode.
	pool := worker.NewPool(table, requests, responses, 1, nil)
	defer pool.Shutdown()

	var errOut bytes.Buffer
	c := New(requests, responses, &errOut)
	c.Items = 500 // keep the in-process test fast; the item count does not change what is verified

	// Run the four tests directly rather than through RunAll: RunAll's
	// trailing Quit makes a real worker os.Exit the process, which is
	// correct for two separate binaries but would kill this test binary
	// too since client and server share one process here.
	require.True(t, c.SequentialInsert(), errOut.String())
	require.True(t, c.SequentialRead(), errOut.String())
	require.True(t, c.SequentialDelete(), errOut.String())
	require.True(t, c.RandomInsertReadDelete(), errOut.String())
}

// TestBenchSequentialInsertCatchesWrongValue verifies the suite's
// failure path actually fires when the server returns a bad value.
func TestBenchSequentialInsertCatchesWrongValue(t *testing.T) {
	table := hashtable.New(997, hashtable.Set) // Set silently drops the second insert, returning the old value
	requests := ring.NewInProcess(wire.DefaultQueueLen)
	responses := ring.NewInProcess(wire.DefaultQueueLen)
	table.SetDuplicateSink(&bytes.Buffer{})
	pool := worker.NewPool(table, requests, responses, 1, nil)
	defer pool.Shutdown()

	table.Insert(0, 999) // pre-seed key 0 with the wrong value so SequentialInsert's check on i=0 fails

	var errOut bytes.Buffer
	c := New(requests, responses, &errOut)
	c.Items = 10

	require.False(t, c.SequentialInsert())
}
