package core

import "sync"

// Surface tracks the drawable's pixel size and whether surface-sized GPU
// resources are out of date. Hosts call Resize from whatever goroutine
// delivers their notifications; only the frame scheduler calls MarkClean.
//
// A new Surface is dirty, so the first tick always rebuilds.
type Surface struct {
	mu     sync.Mutex
	width  int
	height int
	dirty  bool
}

func NewSurface(width, height int) *Surface {
	return &Surface{width: width, height: height, dirty: true}
}

// Resize records the latest drawable size and marks the surface dirty.
// Repeated calls before the next tick collapse into one rebuild.
func (s *Surface) Resize(width, height int) {
	s.mu.Lock()
	s.width = width
	s.height = height
	s.dirty = true
	s.mu.Unlock()
}

func (s *Surface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *Surface) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Snapshot returns size and dirty flag under one lock.
func (s *Surface) Snapshot() (width, height int, dirty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height, s.dirty
}

// MarkClean clears the dirty flag if the size still matches the one the
// caller rebuilt for. A resize that lands during the rebuild keeps the
// surface dirty for the next tick.
func (s *Surface) MarkClean(width, height int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width != width || s.height != height {
		return false
	}
	s.dirty = false
	return true
}
