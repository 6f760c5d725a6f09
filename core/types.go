package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type Color struct {
	R, G, B, A float32
}

var (
	ColorBlack   = Color{0, 0, 0, 1}
	ColorWhite   = Color{1, 1, 1, 1}
	ColorMagenta = Color{0.75, 0.0, 0.6, 1.0}
)

// Params is the flat set of named numeric values handed unchanged to renderer
// procedures and uniform uploads.
type Params map[string]float64

// Get returns the named value, or def when it is not set.
func (p Params) Get(name string, def float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}
	return def
}

// Set parses a "name=value" pair into p.
func (p Params) Set(pair string) error {
	name, value, ok := strings.Cut(pair, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return fmt.Errorf("invalid parameter %q: expected name=value", pair)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fmt.Errorf("invalid parameter %q: %w", pair, err)
	}
	p[name] = v
	return nil
}

// Names returns the parameter names in sorted order.
func (p Params) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge returns a copy of p overlaid with other.
func (p Params) Merge(other Params) Params {
	out := make(Params, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// ParseParams builds Params from a list of "name=value" pairs.
func ParseParams(pairs []string) (Params, error) {
	p := make(Params, len(pairs))
	for _, pair := range pairs {
		if err := p.Set(pair); err != nil {
			return nil, err
		}
	}
	return p, nil
}
