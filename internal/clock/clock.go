// Package clock provides an injectable time source so that refund timing can
// be tested deterministically.
package clock

import "time"

// Clock supplies "now". Production code uses System; tests inject a fixed one.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

// Now returns the current UTC time.
func (System) Now() time.Time { return time.Now().UTC() }

// Fixed is a clock frozen at a single instant.
type Fixed struct {
	Instant time.Time
}

// Now returns the frozen instant.
func (f Fixed) Now() time.Time { return f.Instant }
