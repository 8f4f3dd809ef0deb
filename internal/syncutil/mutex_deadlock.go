//go:build deadlock

// Package syncutil provides the mutex types used by the scan loop and the
// file-backed access stores. This variant reports potential deadlocks.
package syncutil

import (
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

func init() {
	// A scan iteration may block on the grant pulse and an external lookup;
	// anything holding a lock longer than this is a bug.
	deadlock.Opts.DeadlockTimeout = 10 * time.Second
}

// Mutex wraps deadlock.Mutex for deadlock detection.
type Mutex struct {
	deadlock.Mutex
}

// RWMutex wraps deadlock.RWMutex for deadlock detection.
type RWMutex struct {
	deadlock.RWMutex
}
