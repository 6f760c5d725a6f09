// Package caps negotiates optional GPU API extensions.
//
// Every entry an extension exposes is stored under its undecorated name
// ("createVertexArrayOES" becomes "createVertexArray"), and the well-known
// extensions are resolved into typed bundles once, at bootstrap. Code after
// bootstrap calls through the bundles and never looks at extension objects.
package caps

import (
	"regexp"
	"sort"

	"render-scaffold/gpu"
	"render-scaffold/log"
)

var logger = log.New("caps")

// Extension names understood by the typed accessors.
const (
	VertexArrayObject   = "OES_vertex_array_object"
	InstancedArrays     = "ANGLE_instanced_arrays"
	StandardDerivatives = "OES_standard_derivatives"
)

// DefaultRequired is the capability list every variant negotiates unless it
// supplies its own.
var DefaultRequired = []string{
	VertexArrayObject,
	InstancedArrays,
	StandardDerivatives,
}

var decoration = regexp.MustCompile(`_?(ANGLE|OES|OVR|EXT|WEBGL)$`)

// Normalize strips the vendor suffix from an extension entry name.
func Normalize(name string) string {
	return decoration.ReplaceAllString(name, "")
}

// Table maps negotiated capability names to their normalized entries.
type Table struct {
	entries map[string]map[string]gpu.ExtensionEntry
	order   []string

	vertexArrays *VertexArrays
	instancing   *Instancing
	derivatives  *Derivatives
}

func NewTable() *Table {
	return &Table{entries: make(map[string]map[string]gpu.ExtensionEntry)}
}

// Negotiate acquires every required capability from ctx. The first missing
// capability aborts negotiation with a *CapabilityMissingError; a partially
// filled table is never returned.
func Negotiate(ctx gpu.Context, required []string) (*Table, error) {
	t := NewTable()
	for _, name := range required {
		if err := t.Install(ctx, name); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Install acquires one capability and folds its entries into the table.
// Installing a capability that is already present does nothing.
func (t *Table) Install(ctx gpu.Context, name string) error {
	if t.Has(name) {
		logger.Debugf("GPU extension %s already installed", name)
		return nil
	}

	raw, ok := ctx.Extension(name)
	if !ok {
		logger.Errorf("Missing required GPU extension: %s", name)
		return &CapabilityMissingError{Name: name}
	}
	logger.Infof("Using GPU extension: %s", name)

	normalized := make(map[string]gpu.ExtensionEntry, len(raw))
	for _, e := range raw {
		e.Name = Normalize(e.Name)
		normalized[e.Name] = e
		logger.Debugf("  %s.%s", name, e.Name)
	}
	t.entries[name] = normalized
	t.order = append(t.order, name)
	t.resolve()
	return nil
}

// Has reports whether name has been negotiated.
func (t *Table) Has(name string) bool {
	_, ok := t.entries[name]
	return ok
}

// Names returns the negotiated capabilities in negotiation order.
func (t *Table) Names() []string {
	return append([]string(nil), t.order...)
}

// Entries returns the normalized entry names of a capability, sorted.
func (t *Table) Entries(name string) []string {
	var out []string
	for entry := range t.entries[name] {
		out = append(out, entry)
	}
	sort.Strings(out)
	return out
}

// Lookup returns a normalized entry of a negotiated capability.
func (t *Table) Lookup(capability, entry string) (gpu.ExtensionEntry, bool) {
	e, ok := t.entries[capability][entry]
	return e, ok
}

func (t *Table) fn(capability, entry string) (func(args ...any) any, bool) {
	e, ok := t.Lookup(capability, entry)
	if !ok || !e.IsFunc() {
		return nil, false
	}
	return e.Func, true
}

func (t *Table) constant(capability, entry string) (int, bool) {
	e, ok := t.Lookup(capability, entry)
	if !ok || e.IsFunc() {
		return 0, false
	}
	return e.Value, true
}
