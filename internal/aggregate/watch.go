package aggregate

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 200 * time.Millisecond

// Watch re-runs MergeAndWrite whenever a manifest under the agents root
// changes, debouncing bursts of events (editors typically fire several per
// save). New agent directories are picked up as they appear. Blocks until
// ctx is cancelled. onRun, if non-nil, receives the outcome of every pass.
func Watch(ctx context.Context, opts Options, onRun func(error)) error {
	opts = opts.withDefaults()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	absRoot, err := filepath.Abs(opts.AgentsDir)
	if err != nil {
		return err
	}

	// Manifests live one level below the root, so watch the root (for new
	// agent directories) plus each existing agent directory.
	if err := watcher.Add(absRoot); err != nil {
		return err
	}
	if entries, err := os.ReadDir(absRoot); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				_ = watcher.Add(filepath.Join(absRoot, e.Name())) // ignore errors for vanished dirs
			}
		}
	}

	var (
		mu            sync.Mutex
		pending       bool
		debounceTimer *time.Timer
	)

	runMerge := func() {
		mu.Lock()
		pending = false
		mu.Unlock()
		err := MergeAndWrite(ctx, opts)
		if onRun != nil {
			onRun(err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			// A new directory under the root may become an agent; start
			// watching it so its manifest triggers future passes.
			if event.Op&fsnotify.Create != 0 && filepath.Dir(event.Name) == absRoot {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}

			if filepath.Base(event.Name) != opts.ManifestName {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			mu.Lock()
			if !pending {
				pending = true
				debounceTimer = time.AfterFunc(watchDebounce, runMerge)
			} else {
				debounceTimer.Reset(watchDebounce)
			}
			mu.Unlock()

		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// Watcher errors are not fatal for a dev convenience loop.
		}
	}
}
