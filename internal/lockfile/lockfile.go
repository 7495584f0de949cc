// Package lockfile implements bounded acquisition of advisory file locks.
// Each guarded file gets a sibling ".lock" file; acquisition retries with
// exponential backoff and jitter and fails with ErrTimeout once the retry
// budget is exhausted. The kernel releases an advisory lock when its holder
// dies, so a lock abandoned by a crashed process never wedges the file.
package lockfile

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/gofrs/flock"
)

// ErrTimeout is returned when a lock cannot be acquired within the retry
// budget. Callers must treat it as fatal for the guarded operation:
// proceeding without the lock risks corrupting the file.
var ErrTimeout = errors.New("lock acquisition timed out")

// Config bounds lock acquisition. Retries back off exponentially from
// MinDelay up to MaxDelay with random jitter.
type Config struct {
	Retries  int
	MinDelay time.Duration
	MaxDelay time.Duration
	Factor   float64
}

// DefaultConfig mirrors the retry envelope used for state files: 8 retries
// from 50ms doubling up to a 5s cap.
func DefaultConfig() Config {
	return Config{
		Retries:  8,
		MinDelay: 50 * time.Millisecond,
		MaxDelay: 5 * time.Second,
		Factor:   2,
	}
}

// Locker serializes access to one file via an advisory lock on a sibling
// ".lock" file.
type Locker struct {
	lockPath string
	config   Config
}

// New creates a locker guarding filePath.
func New(filePath string, config Config) *Locker {
	return &Locker{lockPath: filePath + ".lock", config: config}
}

// Acquire blocks until the exclusive lock is held, the retry budget is
// exhausted or ctx is cancelled. The returned release function is safe to
// call exactly once.
func (l *Locker) Acquire(ctx context.Context) (release func(), err error) {
	lock := flock.New(l.lockPath)
	delay := l.config.MinDelay
	for attempt := 0; ; attempt++ {
		locked, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", l.lockPath, err)
		}
		if locked {
			return func() { _ = lock.Unlock() }, nil
		}
		if attempt >= l.config.Retries {
			return nil, fmt.Errorf("%w: %s after %d attempts", ErrTimeout, l.lockPath, attempt+1)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(jitter(delay)):
		}
		delay = time.Duration(float64(delay) * l.config.Factor)
		if delay > l.config.MaxDelay {
			delay = l.config.MaxDelay
		}
	}
}

// jitter randomizes a delay within [delay/2, delay) so concurrent waiters
// do not retry in lockstep.
func jitter(delay time.Duration) time.Duration {
	if delay <= 1 {
		return delay
	}
	half := delay / 2
	return half + time.Duration(rand.Int63n(int64(half)))
}
