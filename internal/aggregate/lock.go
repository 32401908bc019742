package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	"github.com/treadlabs/treads/internal/manifest"
)

const (
	lockTimeout       = 5 * time.Second
	lockRetryInterval = 50 * time.Millisecond
)

// MergeAndWrite runs one aggregation pass and writes the result to
// opts.OutputPath. A file lock next to the output serializes concurrent
// passes against the same path; without it two passes could interleave their
// renames and the last writer would win silently.
func MergeAndWrite(ctx context.Context, opts Options) error {
	opts = opts.withDefaults()

	fl := flock.New(opts.OutputPath + ".lock")
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(lockCtx, lockRetryInterval)
	if err != nil {
		return fmt.Errorf("locking %s: %w", opts.OutputPath, err)
	}
	if !locked {
		return fmt.Errorf("another merge is already running for %s", opts.OutputPath)
	}
	defer fl.Unlock()

	merged, err := Merge(opts)
	if err != nil {
		return err
	}
	return manifest.Write(opts.OutputPath, merged)
}
