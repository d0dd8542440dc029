// Package clock abstracts wall-clock reads so the pipeline's elapsed-time
// accounting can be driven deterministically in tests.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

// Now returns the system time.
func (RealClock) Now() time.Time {
	return time.Now()
}

var _ Clock = RealClock{}
