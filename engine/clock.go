package engine

// FrameClock numbers frames and measures the time between them. It is never
// reset while the loop runs.
type FrameClock struct {
	index   uint64
	last    float64
	started bool
}

// Advance returns the index of the frame starting at now and the time since
// the previous frame. The first frame has index 0 and delta 0.
func (c *FrameClock) Advance(now float64) (index uint64, delta float64) {
	if c.started {
		delta = now - c.last
		if delta < 0 {
			delta = 0
		}
	}
	c.started = true
	c.last = now
	index = c.index
	c.index++
	return index, delta
}

// Frames returns how many frames have been started.
func (c *FrameClock) Frames() uint64 { return c.index }
