package renderer

import (
	"strconv"
	"sync"
)

// Selector picks a table entry by name or by registration index.
type Selector struct {
	name   string
	index  int
	byName bool
}

func ByName(name string) Selector { return Selector{name: name, byName: true} }
func ByIndex(index int) Selector  { return Selector{index: index} }

// ParseSelector treats an integer as an index and anything else as a name.
func ParseSelector(s string) Selector {
	if i, err := strconv.Atoi(s); err == nil {
		return ByIndex(i)
	}
	return ByName(s)
}

func (s Selector) String() string {
	if s.byName {
		return strconv.Quote(s.name)
	}
	return "#" + strconv.Itoa(s.index)
}

// Selector makes a fixed Selector usable as a SelectorSource.
func (s Selector) Selector() Selector { return s }

// SelectorSource is read once per frame by the scheduler.
type SelectorSource interface {
	Selector() Selector
}

// SelectorVar holds the active selector. The application writes it from any
// goroutine; the scheduler only reads it.
type SelectorVar struct {
	mu  sync.RWMutex
	sel Selector
}

func NewSelectorVar(initial Selector) *SelectorVar {
	return &SelectorVar{sel: initial}
}

func (v *SelectorVar) Set(sel Selector) {
	v.mu.Lock()
	v.sel = sel
	v.mu.Unlock()
}

func (v *SelectorVar) Selector() Selector {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.sel
}
