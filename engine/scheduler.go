package engine

import (
	"render-scaffold/core"
	"render-scaffold/gpu"
	"render-scaffold/renderer"
	"render-scaffold/resource"
)

// Host calls tick once per display refresh with a timestamp in milliseconds
// until tick returns an error or the host shuts down. Calls are never
// concurrent and timestamps never decrease.
type Host interface {
	Run(tick func(now float64) error) error
}

// ResizeFunc is called after surface-sized resources were rebuilt.
type ResizeFunc func(width, height int)

// Scheduler runs one frame per tick.
type Scheduler struct {
	ctx       gpu.Context
	surface   *core.Surface
	resources *resource.Registry
	table     *renderer.Table
	selector  renderer.SelectorSource
	params    core.Params
	onResize  ResizeFunc

	clock    FrameClock
	rebuilds int
}

// Tick advances the clock, swaps in finished texture loads, rebuilds
// surface-sized resources if the surface is dirty, sets the viewport and
// hands the frame to the selected renderer. Any error is fatal to the loop.
func (s *Scheduler) Tick(now float64) error {
	index, delta := s.clock.Advance(now)
	s.resources.Poll()

	w, h, dirty := s.surface.Snapshot()
	if dirty {
		s.resources.RebuildSurfaceSized()
		if s.onResize != nil {
			s.onResize(w, h)
		}
		s.surface.MarkClean(w, h)
		s.rebuilds++
		logger.Debugf("frame %d: surface rebuilt at %dx%d", index, w, h)
	}

	s.ctx.Viewport(0, 0, w, h)
	return s.table.Invoke(s.selector.Selector(), renderer.Frame{
		Index:  index,
		Time:   now,
		Delta:  delta,
		Width:  w,
		Height: h,
		Params: s.params,
	})
}

func (s *Scheduler) Frames() uint64 { return s.clock.Frames() }

// Rebuilds returns how many ticks found the surface dirty.
func (s *Scheduler) Rebuilds() int { return s.rebuilds }
