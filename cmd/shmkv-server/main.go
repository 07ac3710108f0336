// File: cmd/shmkv-server/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// shmkv-server owns the shared-memory regions: it is the only role that
// zeroes and initializes them. It reads the bucket count from stdin,
// builds the hash table and the selected transport, and blocks serving
// requests until a Quit operation arrives.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/momentics/shmkv/control"
	"github.com/momentics/shmkv/internal/hashtable"
	"github.com/momentics/shmkv/internal/shm"
	"github.com/momentics/shmkv/internal/transport/ring"
	"github.com/momentics/shmkv/internal/transport/slot"
	"github.com/momentics/shmkv/internal/wire"
	"github.com/momentics/shmkv/internal/worker"
)

// defaultBucketCount is used when stdin does not carry a parseable
// positive integer.
const defaultBucketCount = 1000

func readBucketCount(r *bufio.Reader) int {
	line, _ := r.ReadString('\n')
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n <= 0 {
		log.Printf("shmkv-server: could not parse bucket count from stdin (%q), using default %d", line, defaultBucketCount)
		return defaultBucketCount
	}
	return n
}

func main() {
	transportFlag := flag.String("transport", "ring", "transport mode: ring|slot")
	shmName := flag.String("shm-name", "shmkv", "base name for the /dev/shm/ regions this server owns")
	pinFlag := flag.Bool("pin", false, "pin slot-transport workers to CPU cores (non-functional enhancement)")
	traceFlag := flag.Bool("trace", false, "track in-flight ring requests for the outstanding-requests debug probe")
	flag.Parse()

	buckets := readBucketCount(bufio.NewReader(os.Stdin))
	table := hashtable.New(buckets, hashtable.Bag)

	cfg := control.NewConfigStore()
	cfg.SetConfig(map[string]any{
		"queue_len":    wire.DefaultQueueLen,
		"thread_num":   wire.DefaultThreadNum,
		"ring_workers": wire.DefaultRingWorkers,
	})
	cfg.OnReload(func() { log.Printf("shmkv-server: config reloaded: %+v", cfg.GetSnapshot()) })

	metrics := control.NewMetricsRegistry()
	probes := control.NewDebugProbes()
	go watchReloadSignal(cfg, metrics, probes)
	control.RegisterPlatformProbes(probes)
	probes.RegisterProbe("table.buckets", func() any { return table.Size() })
	probes.RegisterProbe("config.snapshot", func() any { return cfg.GetSnapshot() })

	switch *transportFlag {
	case "ring":
		runRing(*shmName, table, cfg, metrics, probes, *traceFlag)
	case "slot":
		runSlot(*shmName, table, cfg, metrics, *pinFlag)
	default:
		log.Printf("shmkv-server: unknown -transport %q, must be ring or slot", *transportFlag)
		os.Exit(wire.ExitBadConfig)
	}
}

func runRing(shmName string, table *hashtable.Table, cfg *control.ConfigStore, metrics *control.MetricsRegistry, probes *control.DebugProbes, trace bool) {
	queueLen := intFromConfig(cfg, "queue_len", wire.DefaultQueueLen)
	// Single worker by default: response pairing on the ring transport
	// is by dequeue order, which only one worker preserves. ThreadStart
	// requests grow the pool for clients that can tolerate reordering.
	ringWorkers := intFromConfig(cfg, "ring_workers", wire.DefaultRingWorkers)

	toServer, err := shm.Open(shmName+"_to_server", wire.RingRegionSize(queueLen), shm.RoleServer)
	if err != nil {
		log.Printf("shmkv-server: %v", err)
		os.Exit(wire.ExitShmOpenFailed)
	}
	defer toServer.Close()

	toClient, err := shm.Open(shmName+"_to_client", wire.RingRegionSize(queueLen), shm.RoleServer)
	if err != nil {
		log.Printf("shmkv-server: %v", err)
		os.Exit(wire.ExitShmOpenFailed)
	}
	defer toClient.Close()

	requests, err := ring.NewShared(toServer.Bytes(), queueLen)
	if err != nil {
		log.Printf("shmkv-server: %v", err)
		os.Exit(wire.ExitShmMapFailed)
	}
	responses, err := ring.NewShared(toClient.Bytes(), queueLen)
	if err != nil {
		log.Printf("shmkv-server: %v", err)
		os.Exit(wire.ExitShmMapFailed)
	}

	pool := worker.NewPool(table, requests, responses, ringWorkers, os.Stdout)
	defer pool.Shutdown()

	if trace {
		pool.EnableTracing()
		probes.RegisterProbe("pool.outstanding_requests", func() any { return pool.Outstanding() })
	}

	go reportMetrics(metrics, func() map[string]any {
		return map[string]any{
			"requests.len":  requests.Len(),
			"responses.len": responses.Len(),
			"workers":       pool.NumWorkers(),
		}
	})

	fmt.Println("shmkv-server: ring transport ready, waiting for requests")
	select {} // the process exits via os.Exit(wire.ExitOK) from within a worker's Quit dispatch
}

func runSlot(shmName string, table *hashtable.Table, cfg *control.ConfigStore, metrics *control.MetricsRegistry, pin bool) {
	threadNum := intFromConfig(cfg, "thread_num", wire.DefaultThreadNum)

	region, err := shm.Open(shmName+"_msgfield", wire.SlotFieldRegionSize(threadNum), shm.RoleServer)
	if err != nil {
		log.Printf("shmkv-server: %v", err)
		os.Exit(wire.ExitShmOpenFailed)
	}
	defer region.Close()

	field, err := slot.NewShared(region.Bytes(), threadNum)
	if err != nil {
		log.Printf("shmkv-server: %v", err)
		os.Exit(wire.ExitShmMapFailed)
	}

	pool := worker.NewSlotPool(table, field, pin)
	defer pool.Shutdown()

	go reportMetrics(metrics, func() map[string]any {
		return map[string]any{
			"slots":    field.NumSlots(),
			"pool.seq": pool.Seq(),
		}
	})

	fmt.Println("shmkv-server: slot transport ready, waiting for requests")
	select {} // the process exits via os.Exit(wire.ExitOK) from within a worker's Quit dispatch
}

// intFromConfig reads an int override from cfg, falling back to def if
// the key is absent or holds an unexpected type.
func intFromConfig(cfg *control.ConfigStore, key string, def int) int {
	v, ok := cfg.GetSnapshot()[key]
	if !ok {
		return def
	}
	n, ok := v.(int)
	if !ok {
		return def
	}
	return n
}

// watchReloadSignal re-applies the current config snapshot, fires both
// the ConfigStore's own listeners and the package-level reload hooks,
// and dumps every debug probe and the latest metrics snapshot to the
// log on SIGHUP, so an operator can inspect a running server without
// restarting it.
func watchReloadSignal(cfg *control.ConfigStore, metrics *control.MetricsRegistry, probes *control.DebugProbes) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP)
	for range sig {
		cfg.SetConfig(cfg.GetSnapshot())
		control.TriggerHotReload()
		log.Printf("shmkv-server: probes: %+v", probes.DumpState())
		log.Printf("shmkv-server: metrics: %+v", metrics.GetSnapshot())
	}
}

func reportMetrics(reg *control.MetricsRegistry, sample func() map[string]any) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		for k, v := range sample() {
			reg.Set(k, v)
		}
	}
}
