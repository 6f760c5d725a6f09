package shader

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"render-scaffold/core"
	"render-scaffold/gpu"
)

// Program is a successfully linked program. Unlinked programs are never
// handed out. Uniform locations are cached per program; Resolve fills the
// cache right after linking, and names it did not cover are looked up on
// first use.
type Program struct {
	Handle gpu.Program
	Stages []*Stage

	ctx      gpu.Context
	uniforms map[string]gpu.UniformLocation
}

func (p *Program) Use() {
	p.ctx.UseProgram(p.Handle)
}

// Uniform returns the location of name. Lookups are cached, misses included,
// so an unused uniform costs one query for the program's lifetime.
func (p *Program) Uniform(name string) (gpu.UniformLocation, bool) {
	loc, ok := p.uniforms[name]
	if !ok {
		loc = p.ctx.UniformLocation(p.Handle, name)
		p.uniforms[name] = loc
	}
	return loc, loc >= 0
}

// Resolve looks up and caches the locations of names.
func (p *Program) Resolve(names ...string) {
	for _, name := range names {
		p.Uniform(name)
	}
}

// BindSamplers points sampler i at texture unit i. Samplers the program does
// not use are skipped.
func (p *Program) BindSamplers(names ...string) {
	p.Use()
	for unit, name := range names {
		if loc, ok := p.Uniform(name); ok {
			p.ctx.Uniform1i(loc, int32(unit))
		}
	}
}

// ActiveAttributes queries the program's active vertex inputs. The result is
// not cached; locations are only valid for this program.
func (p *Program) ActiveAttributes() []gpu.Attribute {
	return p.ctx.ActiveAttributes(p.Handle)
}

// Upload sets uniforms by Go type. Names the program does not use are
// skipped. The program must be in use.
func (p *Program) Upload(values map[string]any) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		loc, ok := p.Uniform(name)
		if !ok {
			continue
		}
		if err := p.set(loc, values[name]); err != nil {
			return fmt.Errorf("uniform %s: %w", name, err)
		}
	}
	return nil
}

// UploadParams sets every parameter as a float uniform of the same name.
func (p *Program) UploadParams(params core.Params) {
	for _, name := range params.Names() {
		if loc, ok := p.Uniform(name); ok {
			p.ctx.Uniform1f(loc, float32(params[name]))
		}
	}
}

func (p *Program) set(loc gpu.UniformLocation, value any) error {
	switch v := value.(type) {
	case float32:
		p.ctx.Uniform1f(loc, v)
	case float64:
		p.ctx.Uniform1f(loc, float32(v))
	case int:
		p.ctx.Uniform1i(loc, int32(v))
	case int32:
		p.ctx.Uniform1i(loc, v)
	case bool:
		var i int32
		if v {
			i = 1
		}
		p.ctx.Uniform1i(loc, i)
	case [2]float32:
		p.ctx.Uniform2f(loc, v[0], v[1])
	case [3]float32:
		p.ctx.Uniform3f(loc, v[0], v[1], v[2])
	case [4]float32:
		p.ctx.Uniform4f(loc, v[0], v[1], v[2], v[3])
	case mgl32.Vec2:
		p.ctx.Uniform2f(loc, v[0], v[1])
	case mgl32.Vec3:
		p.ctx.Uniform3f(loc, v[0], v[1], v[2])
	case mgl32.Vec4:
		p.ctx.Uniform4f(loc, v[0], v[1], v[2], v[3])
	case mgl32.Mat3:
		p.ctx.UniformMatrix3f(loc, v)
	case mgl32.Mat4:
		p.ctx.UniformMatrix4f(loc, v)
	case core.Color:
		p.ctx.Uniform4f(loc, v.R, v.G, v.B, v.A)
	default:
		return fmt.Errorf("unsupported type %T", value)
	}
	return nil
}
