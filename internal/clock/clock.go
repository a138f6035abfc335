// Package clock injects the scheduler's monotonic time source so deadline
// ordering is testable by advancing a fake clock rather than sleeping in
// real time.
package clock

import "github.com/benbjohnson/clock"

// Clock is the subset of benbjohnson/clock.Clock the scheduler needs.
type Clock = clock.Clock

// New returns the real wall/monotonic clock, for production use.
func New() Clock { return clock.New() }

// NewMock returns a fake clock an agent can advance deterministically,
// for scheduler and driver-timer tests.
func NewMock() *clock.Mock { return clock.NewMock() }
