// Package sync implements the local-first synchronization engine.
package sync

import "time"

// Clock abstracts wall-clock time so rate gates and sync timestamps can
// be driven by a manual clock in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the real wall clock.
func SystemClock() Clock {
	return systemClock{}
}
