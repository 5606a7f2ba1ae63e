package mcp

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func withParentProbe(t *testing.T, probe func() int) {
	t.Helper()
	prevProbe, prevInterval := getppid, ParentPollInterval
	getppid, ParentPollInterval = probe, 5*time.Millisecond
	t.Cleanup(func() { getppid, ParentPollInterval = prevProbe, prevInterval })
}

func TestWatchParent_CancelsWhenParentChanges(t *testing.T) {
	var pid atomic.Int64
	pid.Store(100)
	withParentProbe(t, func() int { return int(pid.Load()) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	WatchParent(ctx, cancel)

	pid.Store(1)
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled after parent pid changed")
	}
}

func TestWatchParent_QuietWhileParentAlive(t *testing.T) {
	withParentProbe(t, func() int { return 100 })

	ctx, cancel := context.WithCancel(context.Background())
	var fired atomic.Bool
	WatchParent(ctx, func() { fired.Store(true) })

	time.Sleep(50 * time.Millisecond)
	cancel()
	if fired.Load() {
		t.Fatal("cancel fired while parent unchanged")
	}
}
