package transport

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// waitForDevice blocks until path exists, ctx is cancelled, or limit elapses.
// USB serial adapters disappear and reappear when the board resets, so the
// parent directory is watched for the node being created.
func waitForDevice(ctx context.Context, path string, limit time.Duration) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("device watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	// The node may have appeared between the first Stat and Add.
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	slog.Info("transport: waiting for device", "path", path, "limit", limit)

	timer := time.NewTimer(limit)
	defer timer.Stop()

	want := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-timer.C:
			return fmt.Errorf("%s did not appear within %s: %w", path, limit, ErrDeviceUnresponsive)

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("device watcher closed: %w", ErrDeviceUnresponsive)
			}
			if filepath.Clean(event.Name) != want || !event.Has(fsnotify.Create) {
				continue
			}
			slog.Info("transport: device appeared", "path", path)
			return nil

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("device watcher closed: %w", ErrDeviceUnresponsive)
			}
			slog.Error("transport: device watcher error", "err", err)
		}
	}
}
