//go:build !deadlock

// Package syncutil provides the mutex used by the device and the virtual
// chip. Build with -tags=deadlock to swap in github.com/sasha-s/go-deadlock.
package syncutil

import "sync"

// Mutex wraps sync.Mutex.
//
//nolint:gocritic // embedding exposes Lock and Unlock directly
type Mutex struct {
	sync.Mutex
}
