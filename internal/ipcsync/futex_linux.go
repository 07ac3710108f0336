//go:build linux

// File: internal/ipcsync/futex_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux futex(2) wait/wake, the mechanism that makes Mutex and Cond
// genuinely process-shared: two processes that mmap(MAP_SHARED) the same
// page and futex on the same address are woken by the kernel regardless
// of which one called FUTEX_WAIT or FUTEX_WAKE.

package ipcsync

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Linux futex(2) operation codes. golang.org/x/sys/unix does not export
// these (it only exports the newer SYS_FUTEX_WAIT/SYS_FUTEX_WAKE syscall
// numbers), so the classic opcodes for the generic SYS_FUTEX syscall are
// defined here directly from the kernel UAPI (linux/futex.h).
const (
	_FUTEX_WAIT = 0
	_FUTEX_WAKE = 1
)

func futexWait(addr *uint32, expected uint32) {
	// EAGAIN (the word changed before we slept) and EINTR (signal) both
	// just return: every caller re-checks its predicate in a loop.
	unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(_FUTEX_WAIT),
		uintptr(expected),
		0, 0, 0,
	)
}

func futexWake(addr *uint32, n int) {
	unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(_FUTEX_WAKE),
		uintptr(n),
		0, 0, 0,
	)
}
