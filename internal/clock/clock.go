// Package clock lets scheduling code read the current time through an
// injected dependency, so due-date decisions are deterministic in tests.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// New returns the system clock.
func New() Clock { return realClock{} }

// Fixed always reports the same instant.
type Fixed struct {
	T time.Time
}

func (c *Fixed) Now() time.Time { return c.T }

// Set moves a fixed clock.
func (c *Fixed) Set(t time.Time) { c.T = t }

func NewFixed(t time.Time) *Fixed { return &Fixed{T: t} }
