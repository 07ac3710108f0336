// File: internal/bench/suite.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// bench is the client-side benchmark suite, factored out of
// cmd/shmkv-client so it can be driven against an in-process server in
// tests as well as a real cross-process one from main. Its four tests
// exercise sequential insert, sequential read, sequential delete, and
// randomized insert/read/delete against the ring.Queue pair.
package bench

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/momentics/shmkv/internal/transport/ring"
	"github.com/momentics/shmkv/internal/wire"
)

// ItemCount keeps a full suite run in the low seconds under
// futex-backed IPC; raising it stresses throughput without changing
// what the tests verify.
const ItemCount = 20000

// Client drives a request/response ring pair with the benchmark suite.
type Client struct {
	Requests  *ring.Queue
	Responses *ring.Queue
	Items     int // overrides ItemCount when nonzero; tests use a smaller count

	errOut io.Writer
}

// New constructs a Client against the given transport, writing its
// per-test error lines to errOut (os.Stderr in the real binary).
func New(requests, responses *ring.Queue, errOut io.Writer) *Client {
	return &Client{Requests: requests, Responses: responses, errOut: errOut}
}

func (c *Client) n() int {
	if c.Items > 0 {
		return c.Items
	}
	return ItemCount
}

func (c *Client) fail(msg string) bool {
	fmt.Fprintln(c.errOut, msg)
	return false
}

func (c *Client) read(key uint64) (uint64, bool) {
	c.Requests.Enqueue(wire.Read(key))
	op := c.Responses.Dequeue()
	if op.Tag != wire.TagValue {
		return 0, false
	}
	return op.Value, true
}

// Result is one test's pass/fail outcome and wall time.
type Result struct {
	Name    string
	Passed  bool
	Elapsed time.Duration
}

// RunAll runs all four benchmark tests in order and sends a trailing
// Quit, mirroring cmd/shmkv-client's main.
func (c *Client) RunAll() []Result {
	tests := []struct {
		name string
		fn   func() bool
	}{
		{"Sequential Insert", c.SequentialInsert},
		{"Sequential Read", c.SequentialRead},
		{"Sequential Delete", c.SequentialDelete},
		{"Random insert check delete", c.RandomInsertReadDelete},
	}
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		start := time.Now()
		ok := tc.fn()
		results = append(results, Result{Name: tc.name, Passed: ok, Elapsed: time.Since(start)})
	}
	c.Requests.Enqueue(wire.Quit())
	return results
}

// SequentialInsert inserts keys 0..n and verifies each is immediately
// readable with the expected value (i*i).
func (c *Client) SequentialInsert() bool {
	for i := uint64(0); i < uint64(c.n()); i++ {
		c.Requests.Enqueue(wire.Insert(i, i*i))
		v, ok := c.read(i)
		if !ok {
			return c.fail("value not present! fail")
		}
		if v != i*i {
			return c.fail("wrong value! fail")
		}
	}
	return true
}

// SequentialRead re-reads keys 0..n, expecting the values SequentialInsert left behind.
func (c *Client) SequentialRead() bool {
	for i := uint64(0); i < uint64(c.n()); i++ {
		v, ok := c.read(i)
		if !ok {
			return c.fail("value not present! fail")
		}
		if v != i*i {
			return c.fail("wrong value! fail")
		}
	}
	return true
}

// SequentialDelete deletes keys 0..n. Delete has no response, so there
// is nothing to verify synchronously and the test always passes;
// deletion visibility is exercised by RandomInsertReadDelete's own
// delete/read pairs.
func (c *Client) SequentialDelete() bool {
	for i := uint64(0); i < uint64(c.n()); i++ {
		c.Requests.Enqueue(wire.Delete(i))
	}
	return true
}

// RandomInsertReadDelete inserts n random keys, spot-checks 10 random
// lookups, then deletes 10 random keys and confirms they are gone.
func (c *Client) RandomInsertReadDelete() bool {
	rng := rand.New(rand.NewSource(1))
	keys := make([]uint64, c.n())
	for i := range keys {
		key := rng.Uint64()
		keys[i] = key
		c.Requests.Enqueue(wire.Insert(key, key/2))
	}

	lookup := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		key := keys[lookup.Uint64()%uint64(len(keys))]
		v, ok := c.read(key)
		if !ok {
			return c.fail("value not present! fail")
		}
		if v != key/2 {
			return c.fail("wrong value! fail")
		}
	}

	del := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		key := keys[del.Uint64()%uint64(len(keys))]
		c.Requests.Enqueue(wire.Delete(key))
		_, ok := c.read(key)
		if ok {
			return c.fail("value still present! fail")
		}
	}
	return true
}
