// Package demos holds the demo variants: each one is a set of required
// capabilities, embedded shader sources and a setup that builds the
// variant's programs, resources and renderers on a runtime.
package demos

import (
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"render-scaffold/core"
	"render-scaffold/engine"
	"render-scaffold/log"
	"render-scaffold/renderer"
	"render-scaffold/resource"
	"render-scaffold/shader"
)

var logger = log.New("demos")

//go:embed shaders
var shaderFS embed.FS

// ErrUnknownVariant is returned by Lookup for names no variant uses.
var ErrUnknownVariant = errors.New("demos: unknown variant")

// Options carries the inputs a variant takes from outside the runtime.
type Options struct {
	// Image is the picture the textured variant loads. Nil uses a generated
	// checkerboard.
	Image resource.ImageSource
	// Mesh is a .gltf or .glb file for the mesh variant. Empty uses a
	// built-in tetrahedron.
	Mesh string
	// Params override the variant's default parameters.
	Params core.Params
}

type setupFunc func(rt *engine.Runtime, opts Options) ([]renderer.Entry, error)

type Variant struct {
	Name        string
	Description string
	// Required lists the capabilities to negotiate. Nil means
	// caps.DefaultRequired.
	Required   []string
	ClearColor core.Color
	Params     core.Params
	// Renderers names the table entries setup returns, in order.
	Renderers []string

	setup setupFunc
}

// Config returns a runtime configuration that runs this variant.
func (v *Variant) Config(opts Options) engine.Config {
	cfg := engine.DefaultConfig()
	if v.Required != nil {
		cfg.Required = append([]string(nil), v.Required...)
	}
	cfg.ClearColor = v.ClearColor
	cfg.Params = v.Params.Merge(opts.Params)
	cfg.Setup = func(rt *engine.Runtime) ([]renderer.Entry, error) {
		logger.Infof("setting up variant %s", v.Name)
		return v.setup(rt, opts)
	}
	return cfg
}

var variants = []*Variant{
	clearVariant,
	gradientVariant,
	texturedVariant,
	feedbackVariant,
	meshVariant,
}

// All returns every variant in registration order.
func All() []*Variant {
	return append([]*Variant(nil), variants...)
}

func Names() []string {
	names := make([]string, len(variants))
	for i, v := range variants {
		names[i] = v.Name
	}
	return names
}

func Lookup(name string) (*Variant, error) {
	for _, v := range variants {
		if v.Name == name {
			return v, nil
		}
	}
	known := Names()
	sort.Strings(known)
	return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownVariant, name, strings.Join(known, ", "))
}

// source reads an embedded shader. Files ending in .b64 hold base64 payloads.
func source(name string) (string, error) {
	raw, err := shaderFS.ReadFile("shaders/" + name)
	if err != nil {
		return "", fmt.Errorf("demos: shader %s: %w", name, err)
	}
	if strings.HasSuffix(name, ".b64") {
		return shader.DecodeSource(string(raw))
	}
	return string(raw), nil
}

// build compiles and links a pair of embedded shaders and resolves the named
// uniforms up front.
func build(rt *engine.Runtime, vertex, fragment string, uniforms ...string) (*shader.Program, error) {
	vs, err := source(vertex)
	if err != nil {
		return nil, err
	}
	fs, err := source(fragment)
	if err != nil {
		return nil, err
	}
	prog, err := rt.Shaders.Build(vs, fs)
	if err != nil {
		return nil, fmt.Errorf("%s + %s: %w", vertex, fragment, err)
	}
	prog.Resolve(uniforms...)
	return prog, nil
}

// fullscreenQuad covers clip space as a four vertex triangle strip.
var fullscreenQuad = []float32{
	-1, -1,
	1, -1,
	-1, 1,
	1, 1,
}
