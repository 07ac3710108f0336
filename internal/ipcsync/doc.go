// File: internal/ipcsync/doc.go
// Package ipcsync
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ipcsync provides process-shared synchronization primitives that can be
// embedded by value inside a memory-mapped region and operated on from
// two unrelated address spaces. Unlike sync.Mutex / sync.Cond, a value
// here carries no Go-runtime-private state: it is a plain fixed-size
// integer field, and every operation is expressed as a function over a
// pointer into shared memory. On Linux this is backed by the futex(2)
// syscall (SYS_FUTEX, FUTEX_WAIT/FUTEX_WAKE), mirroring how a pthread
// mutex initialized with PTHREAD_PROCESS_SHARED behaves across fork/exec
// or mmap(MAP_SHARED) boundaries. On platforms without a futex syscall,
// the fallback spins on the same state word and only provides correct
// semantics within a single process (documented in futex_other.go).
package ipcsync
