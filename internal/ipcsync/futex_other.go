//go:build !linux

// File: internal/ipcsync/futex_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Non-Linux fallback: busy-spin on the shared word. This preserves
// correctness for the in-process test harness (client and server as
// goroutines of the same binary) but does NOT provide genuine
// cross-process blocking on platforms without a futex-equivalent
// syscall wired up. Cross-process deployments on such platforms need an
// OS-specific primitive (e.g. a named semaphore) that this repo does
// not implement; non-POSIX platforms are expected to supply an
// equivalent primitive themselves.
package ipcsync

import (
	"runtime"
	"sync/atomic"
)

func futexWait(addr *uint32, expected uint32) {
	for atomic.LoadUint32(addr) == expected {
		runtime.Gosched()
	}
}

func futexWake(addr *uint32, n int) {
	// no-op: spinning waiters observe the new value on their own.
}
