package mcp

import (
	"context"
	"os"
	"time"

	"lightcheck/internal/logging"
)

// ParentPollInterval is how often WatchParent checks the parent pid.
var ParentPollInterval = 2 * time.Second

// getppid is swapped in tests.
var getppid = os.Getppid

// WatchParent calls cancelFn once the process that launched the stdio
// server goes away (the parent pid changes). It never reads stdin; the
// stdio transport owns it. The goroutine exits when ctx is done.
func WatchParent(ctx context.Context, cancelFn context.CancelFunc) {
	probe, every := getppid, ParentPollInterval
	ppid := probe()
	log := logging.New("mcp")
	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if now := probe(); now != ppid {
					log.Warn("parent process gone, shutting down", "was_pid", ppid, "now_pid", now)
					cancelFn()
					return
				}
			}
		}
	}()
}
