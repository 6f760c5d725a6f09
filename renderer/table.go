// Package renderer dispatches each frame to exactly one named draw procedure.
package renderer

import (
	"fmt"

	"render-scaffold/core"
)

// Frame is what a draw procedure receives every tick. Time and Delta are in
// milliseconds.
type Frame struct {
	Index  uint64
	Time   float64
	Delta  float64
	Width  int
	Height int
	Params core.Params
}

// DrawFunc draws one frame. It must bind everything it uses; no binding
// state is carried over from the previous frame.
type DrawFunc func(f Frame) error

type Entry struct {
	Name string
	Draw DrawFunc
}

// Table is built once and never modified.
type Table struct {
	entries []Entry
	byName  map[string]int
}

// NewTable registers entries in order; an entry's index is its position.
func NewTable(entries ...Entry) (*Table, error) {
	t := &Table{byName: make(map[string]int, len(entries))}
	for i, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("renderer: entry %d has no name", i)
		}
		if e.Draw == nil {
			return nil, fmt.Errorf("renderer: entry %q has no draw function", e.Name)
		}
		if _, dup := t.byName[e.Name]; dup {
			return nil, fmt.Errorf("renderer: duplicate entry %q", e.Name)
		}
		t.byName[e.Name] = i
		t.entries = append(t.entries, e)
	}
	return t, nil
}

func (t *Table) Len() int { return len(t.entries) }

func (t *Table) Names() []string {
	names := make([]string, len(t.entries))
	for i, e := range t.entries {
		names[i] = e.Name
	}
	return names
}

func (t *Table) Resolve(sel Selector) (Entry, error) {
	if sel.byName {
		if i, ok := t.byName[sel.name]; ok {
			return t.entries[i], nil
		}
	} else if sel.index >= 0 && sel.index < len(t.entries) {
		return t.entries[sel.index], nil
	}
	return Entry{}, &UnknownRendererError{Selector: sel}
}

// Invoke runs the entry sel resolves to. An unresolvable selector is an
// error whatever the frame.
func (t *Table) Invoke(sel Selector, f Frame) error {
	e, err := t.Resolve(sel)
	if err != nil {
		return err
	}
	if err := e.Draw(f); err != nil {
		return fmt.Errorf("renderer %q: %w", e.Name, err)
	}
	return nil
}
