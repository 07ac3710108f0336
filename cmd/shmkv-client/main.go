// File: cmd/shmkv-client/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// shmkv-client is flag-free: it attaches to the regions a shmkv-server
// has already created, runs internal/bench's suite, prints per-test
// pass/fail and wall time, then sends Quit. It only speaks the ring
// transport: the slot transport remains available as a compile-time
// alternative, exercised directly by internal/transport/slot and
// internal/worker's own tests instead of by this client.
package main

import (
	"fmt"
	"os"

	"github.com/momentics/shmkv/internal/bench"
	"github.com/momentics/shmkv/internal/shm"
	"github.com/momentics/shmkv/internal/transport/ring"
	"github.com/momentics/shmkv/internal/wire"
)

const shmName = "shmkv"

func main() {
	toServer, err := shm.Open(shmName+"_to_server", wire.RingRegionSize(wire.DefaultQueueLen), shm.RoleClient)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shmkv-client: %v\n", err)
		os.Exit(wire.ExitShmOpenFailed)
	}
	defer toServer.Close()

	toClient, err := shm.Open(shmName+"_to_client", wire.RingRegionSize(wire.DefaultQueueLen), shm.RoleClient)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shmkv-client: %v\n", err)
		os.Exit(wire.ExitShmOpenFailed)
	}
	defer toClient.Close()

	requests, err := ring.NewShared(toServer.Bytes(), wire.DefaultQueueLen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shmkv-client: %v\n", err)
		os.Exit(wire.ExitShmMapFailed)
	}
	responses, err := ring.NewShared(toClient.Bytes(), wire.DefaultQueueLen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shmkv-client: %v\n", err)
		os.Exit(wire.ExitShmMapFailed)
	}

	c := bench.New(requests, responses, os.Stderr)
	for _, r := range c.RunAll() {
		status := "passed"
		if !r.Passed {
			status = "failed"
		}
		fmt.Printf("%s: %s in %s\n", r.Name, status, r.Elapsed)
	}
	fmt.Println()
}
