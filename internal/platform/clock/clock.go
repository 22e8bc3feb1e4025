package clock

import "time"

// Clock supplies the current time. Date defaults are computed from it so tests
// can pin "now".
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// New returns a Clock backed by time.Now.
func New() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Fixed is a Clock frozen at a single instant. Intended for tests and for the
// CLI's --now flag.
type Fixed struct {
	at time.Time
}

// NewFixed returns a Clock that always reports at.
func NewFixed(at time.Time) *Fixed {
	return &Fixed{at: at}
}

// Now returns the frozen instant.
func (f *Fixed) Now() time.Time {
	return f.at
}

// Advance moves the frozen instant forward by d and returns the new time.
func (f *Fixed) Advance(d time.Duration) time.Time {
	f.at = f.at.Add(d)
	return f.at
}
