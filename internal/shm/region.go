// File: internal/shm/region.go
// Package shm
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// shm opens a named, page-aligned, process-shared byte region that
// carries one transport structure at a fixed offset. On Linux the
// region is backed by a regular file under /dev/shm, mmap'd
// MAP_SHARED, following the same mmap'd seqlock ring idiom NUMA-aware
// buffer pools use elsewhere in this codebase. Only the server role
// zeroes and initializes the region; the client only maps.
package shm

import (
	"fmt"
	"os"
	"sync"

	"github.com/momentics/shmkv/api"
	"golang.org/x/sys/unix"
)

// Role distinguishes the single initializer (server) from mappers
// (client) that must never reinitialize shared state.
type Role int

const (
	RoleServer Role = iota
	RoleClient
)

const shmDir = "/dev/shm/"

// Region is a typed handle onto a memory-mapped, process-shared byte
// range of exactly size bytes.
type Region struct {
	name string
	data []byte
	file *os.File
	once sync.Once
}

// Open creates (if absent) or attaches to the named shared region sized
// to size bytes, mapping it read/write. Role RoleServer additionally
// zeroes freshly-created memory; Role RoleClient never reinitializes.
//
// Any OS failure to open, size, or map the region is an infrastructure
// error and is returned wrapped in *api.Error with api.ErrCodeInternal;
// callers are expected to treat it as fatal.
func Open(name string, size int, role Role) (*Region, error) {
	path := shmDir + name
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, api.NewError(api.ErrCodeInternal, "shm: open failed").WithContext("name", name).WithContext("cause", err.Error())
	}

	created, err := ensureSize(f, int64(size))
	if err != nil {
		f.Close()
		return nil, api.NewError(api.ErrCodeInternal, "shm: ftruncate failed").WithContext("name", name).WithContext("cause", err.Error())
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, api.NewError(api.ErrCodeInternal, "shm: mmap failed").WithContext("name", name).WithContext("cause", err.Error())
	}

	if role == RoleServer && created {
		for i := range data {
			data[i] = 0
		}
	}

	return &Region{name: name, data: data, file: f}, nil
}

// ensureSize truncates f to size, reporting whether the file was empty
// (and therefore freshly created) beforehand.
func ensureSize(f *os.File, size int64) (created bool, err error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	created = info.Size() == 0
	if info.Size() != size {
		if err := f.Truncate(size); err != nil {
			return created, err
		}
	}
	return created, nil
}

// Bytes returns the mapped region's backing slice. Callers reinterpret
// it as a *wire.RingTransport / *wire.SlotField via unsafe.Pointer at a
// fixed offset.
func (r *Region) Bytes() []byte { return r.data }

// Close unmaps the region without unlinking its name.
func (r *Region) Close() error {
	var err error
	r.once.Do(func() {
		err = unix.Munmap(r.data)
		if cerr := r.file.Close(); err == nil {
			err = cerr
		}
	})
	return err
}

// Destroy unlinks the named region so the kernel reclaims it once every
// process has unmapped it.
func Destroy(name string) error {
	if err := os.Remove(shmDir + name); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("shm: destroy %q: %w", name, err)
	}
	return nil
}
