// File: internal/session/correlation_test.go
package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableBeginEndRoundTrip(t *testing.T) {
	tb := New()
	id := tb.Begin(7)
	require.Equal(t, 1, tb.Outstanding())

	tb.End(id)
	require.Equal(t, 0, tb.Outstanding())
}

func TestTableConcurrentAccessAcrossShards(t *testing.T) {
	tb := New()
	const n = 500

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(key uint64) {
			defer wg.Done()
			id := tb.Begin(key)
			tb.End(id)
		}(uint64(i))
	}
	wg.Wait()

	require.Equal(t, 0, tb.Outstanding())
}

func TestTableEndIsIdempotent(t *testing.T) {
	tb := New()
	id := tb.Begin(1)
	tb.End(id)
	require.NotPanics(t, func() { tb.End(id) })
	require.Equal(t, 0, tb.Outstanding())
}
