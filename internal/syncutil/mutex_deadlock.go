//go:build deadlock

// Package syncutil provides the mutex used by the device and the virtual
// chip. This file is compiled with -tags=deadlock.
package syncutil

import deadlock "github.com/sasha-s/go-deadlock"

// Mutex wraps deadlock.Mutex, reporting lock-order inversions and locks
// held longer than deadlock.Opts.DeadlockTimeout.
type Mutex struct {
	deadlock.Mutex
}
