//go:build !deadlock

// Package syncutil provides the mutex types used by the scan loop and the
// file-backed access stores. Plain sync types are used by default; building
// with -tags=deadlock swaps in github.com/sasha-s/go-deadlock so lock-order
// mistakes between the scanner and its observers show up in tests.
package syncutil

import "sync"

// Mutex is sync.Mutex unless built with -tags=deadlock.
//
//nolint:gocritic // embedding exposes Lock/Unlock directly
type Mutex struct {
	sync.Mutex
}

// RWMutex is sync.RWMutex unless built with -tags=deadlock.
//
//nolint:gocritic // embedding exposes Lock/Unlock/RLock/RUnlock directly
type RWMutex struct {
	sync.RWMutex
}
