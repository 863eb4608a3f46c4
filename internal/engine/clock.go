package engine

// Clock is a monotonic logical clock for dispatch ordering.
//
// Every rule dispatch in a session is stamped with a strictly increasing seq.
// Observers and logs use the seq, never wall-clock time, so two runs of the
// same session produce identical traces.
//
// A Clock belongs to one session and is not safe for concurrent use.
type Clock struct {
	seq int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next advances the clock and returns the new seq. The first call returns 1.
func (c *Clock) Next() int64 {
	c.seq++
	return c.seq
}

// Current returns the last issued seq without advancing.
func (c *Clock) Current() int64 {
	return c.seq
}
