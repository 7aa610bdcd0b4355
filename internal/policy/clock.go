package policy

import "time"

// Clock yields the authoritative wall-clock time and an effective time
// shifted by a debug offset for demos. Only Effective is shifted.
type Clock struct {
	now    func() time.Time
	offset time.Duration
}

// NewClock returns a Clock over time.Now with the given debug offset.
func NewClock(offset time.Duration) *Clock {
	return NewClockFunc(time.Now, offset)
}

// NewClockFunc returns a Clock over an arbitrary time source.
func NewClockFunc(now func() time.Time, offset time.Duration) *Clock {
	return &Clock{now: now, offset: offset}
}

// Real returns the unshifted current time.
func (c *Clock) Real() time.Time { return c.now() }

// Effective returns the current time plus the debug offset.
func (c *Clock) Effective() time.Time { return c.now().Add(c.offset) }

// Offset returns the configured debug offset.
func (c *Clock) Offset() time.Duration { return c.offset }
