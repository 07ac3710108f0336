// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Platform-neutral API for pinning the calling OS thread to a CPU core.
// Used optionally by internal/worker to keep a slot-transport worker's
// goroutine on a stable core; it is never required for correctness,
// only for reducing cross-core cache churn on a hot slot.
// Platform-specific implementations are located in separate files
// (affinity_linux.go, affinity_windows.go) guarded by build tags.
package affinity

// SetAffinity pins the calling OS thread to a given logical CPU core on
// supported platforms. On unsupported platforms it returns an error;
// callers that treat pinning as a non-functional enhancement should log
// and continue rather than fail.
func SetAffinity(cpuID int) error {
	return setAffinityPlatform(cpuID)
}
