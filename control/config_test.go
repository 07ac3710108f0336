// File: control/config_test.go
package control

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigStoreSetAndSnapshot(t *testing.T) {
	cs := NewConfigStore()
	cs.SetConfig(map[string]any{"queue_len": 1024})

	snap := cs.GetSnapshot()
	require.Equal(t, 1024, snap["queue_len"])
}

func TestConfigStoreOnReloadFiresOnSetConfig(t *testing.T) {
	cs := NewConfigStore()
	fired := make(chan struct{}, 1)
	cs.OnReload(func() { fired <- struct{}{} })

	cs.SetConfig(map[string]any{"thread_num": 8})

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("OnReload listener did not fire")
	}
}

func TestTriggerHotReloadRunsRegisteredHooks(t *testing.T) {
	fired := make(chan struct{}, 1)
	RegisterReloadHook(func() { fired <- struct{}{} })

	TriggerHotReload()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("reload hook did not fire")
	}
}
