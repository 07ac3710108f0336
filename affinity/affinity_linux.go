//go:build linux
// +build linux

// File: affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux-specific implementation for setting thread CPU affinity, via
// golang.org/x/sys/unix.SchedSetaffinity rather than cgo/pthread, so a
// pure-Go build of this repo still gets real pinning.

package affinity

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// setAffinityPlatform sets the calling goroutine's OS thread's affinity
// to cpuID. It locks the goroutine to its OS thread first: affinity only
// means anything for a specific thread, and Go may otherwise migrate the
// goroutine off it on the next scheduling point.
func setAffinityPlatform(cpuID int) error {
	runtime.LockOSThread()
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: SchedSetaffinity failed: %w", err)
	}
	return nil
}
