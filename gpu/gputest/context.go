// Package gputest provides a recording gpu.Context for tests.
//
// The fake behaves like a strict GL implementation for the subset the
// runtime uses: sources containing "#error" fail to compile, programs fail to
// link unless they carry one compiled vertex and one compiled fragment stage,
// and uniforms and attributes are discovered from the declarations in the
// submitted sources.
package gputest

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"render-scaffold/gpu"
)

type ShaderObject struct {
	Kind     gpu.StageKind
	Source   string
	Compiled bool
	Log      string
	Deleted  bool
}

type ProgramObject struct {
	Attached   []gpu.Shader
	Linked     bool
	Log        string
	Deleted    bool
	Uniforms   map[string]gpu.UniformLocation
	Attributes []gpu.Attribute
	attribLocs map[string]gpu.AttribLocation
}

type BufferObject struct {
	Data    []float32
	Usage   gpu.Usage
	Deleted bool
}

type TextureObject struct {
	Width   int
	Height  int
	Format  gpu.Format
	Pixels  []byte
	Filter  gpu.Filter
	Deleted bool
}

type FramebufferObject struct {
	Attachments map[int]gpu.Texture
	DrawBuffers int
	Deleted     bool
}

// Draw is one recorded draw call together with the state it observed.
type Draw struct {
	Program     gpu.Program
	Framebuffer gpu.Framebuffer
	Buffer      gpu.Buffer
	Units       map[int]gpu.Texture
	Mode        gpu.Primitive
	First       int
	Count       int
	Instances   int
	DepthTest   bool
}

// Context is a fake gpu.Context. The zero value is not usable; call New.
type Context struct {
	// Extensions lists the extensions the context exposes.
	Extensions map[string][]gpu.ExtensionEntry
	// Preamble is returned by ShaderPreamble.
	Preamble map[gpu.StageKind]string
	// LinkWarning is reported as the info log of every successful link.
	LinkWarning string
	// FailLink makes every link fail with this log when non-empty.
	FailLink string
	// IncompleteFramebuffers forces FramebufferComplete to report false.
	IncompleteFramebuffers bool

	Calls        []string
	Draws        []Draw
	Uniforms     map[gpu.UniformLocation]any
	ViewportRect [4]int
	ClearRGBA    [4]float32
	Cleared      int
	DepthCleared int

	next         uint32
	shaders      map[gpu.Shader]*ShaderObject
	programs     map[gpu.Program]*ProgramObject
	buffers      map[gpu.Buffer]*BufferObject
	textures     map[gpu.Texture]*TextureObject
	framebuffers map[gpu.Framebuffer]*FramebufferObject
	vertexArrays map[gpu.VertexArray]bool

	program     gpu.Program
	buffer      gpu.Buffer
	framebuffer gpu.Framebuffer
	vertexArray gpu.VertexArray
	units       map[int]gpu.Texture
	enabled     map[gpu.AttribLocation]bool
	divisors    map[gpu.AttribLocation]int
	states      map[gpu.Capability]bool
}

// New returns a fake context exposing the given extensions with their
// decorated entry names, as a WebGL implementation would.
func New(extensions ...string) *Context {
	c := &Context{
		Extensions:   make(map[string][]gpu.ExtensionEntry),
		Preamble:     make(map[gpu.StageKind]string),
		Uniforms:     make(map[gpu.UniformLocation]any),
		shaders:      make(map[gpu.Shader]*ShaderObject),
		programs:     make(map[gpu.Program]*ProgramObject),
		buffers:      make(map[gpu.Buffer]*BufferObject),
		textures:     make(map[gpu.Texture]*TextureObject),
		framebuffers: make(map[gpu.Framebuffer]*FramebufferObject),
		vertexArrays: make(map[gpu.VertexArray]bool),
		units:        make(map[int]gpu.Texture),
		enabled:      make(map[gpu.AttribLocation]bool),
		divisors:     make(map[gpu.AttribLocation]int),
		states:       make(map[gpu.Capability]bool),
	}
	for _, name := range extensions {
		c.Extensions[name] = c.standardExtension(name)
	}
	return c
}

// standardExtension builds the decorated entry list of a well-known WebGL
// extension, bound to this context.
func (c *Context) standardExtension(name string) []gpu.ExtensionEntry {
	switch name {
	case "OES_vertex_array_object":
		return []gpu.ExtensionEntry{
			{Name: "VERTEX_ARRAY_BINDING_OES", Value: 0x85B5},
			{Name: "createVertexArrayOES", Func: func(...any) any {
				c.next++
				va := gpu.VertexArray(c.next)
				c.vertexArrays[va] = true
				c.record("CreateVertexArray -> %d", va)
				return uint32(va)
			}},
			{Name: "bindVertexArrayOES", Func: func(args ...any) any {
				c.vertexArray = gpu.VertexArray(gpu.Uint32(args[0]))
				c.record("BindVertexArray %d", c.vertexArray)
				return nil
			}},
			{Name: "deleteVertexArrayOES", Func: func(args ...any) any {
				va := gpu.VertexArray(gpu.Uint32(args[0]))
				delete(c.vertexArrays, va)
				c.record("DeleteVertexArray %d", va)
				return nil
			}},
			{Name: "isVertexArrayOES", Func: func(args ...any) any {
				return c.vertexArrays[gpu.VertexArray(gpu.Uint32(args[0]))]
			}},
		}
	case "ANGLE_instanced_arrays":
		return []gpu.ExtensionEntry{
			{Name: "VERTEX_ATTRIB_ARRAY_DIVISOR_ANGLE", Value: 0x88FE},
			{Name: "drawArraysInstancedANGLE", Func: func(args ...any) any {
				mode := args[0].(gpu.Primitive)
				first, count, instances := args[1].(int), args[2].(int), args[3].(int)
				c.draw(mode, first, count, instances)
				return nil
			}},
			{Name: "vertexAttribDivisorANGLE", Func: func(args ...any) any {
				loc := args[0].(gpu.AttribLocation)
				c.divisors[loc] = args[1].(int)
				c.record("VertexAttribDivisor %d %d", loc, args[1].(int))
				return nil
			}},
		}
	case "OES_standard_derivatives":
		return []gpu.ExtensionEntry{
			{Name: "FRAGMENT_SHADER_DERIVATIVE_HINT_OES", Value: 0x8B8B},
		}
	}
	return nil
}

func (c *Context) record(format string, args ...any) {
	c.Calls = append(c.Calls, fmt.Sprintf(format, args...))
}

// Count returns the number of recorded calls starting with prefix.
func (c *Context) Count(prefix string) int {
	n := 0
	for _, call := range c.Calls {
		if strings.HasPrefix(call, prefix) {
			n++
		}
	}
	return n
}

func (c *Context) Shader(s gpu.Shader) *ShaderObject                { return c.shaders[s] }
func (c *Context) Program(p gpu.Program) *ProgramObject             { return c.programs[p] }
func (c *Context) Buffer(b gpu.Buffer) *BufferObject                { return c.buffers[b] }
func (c *Context) Texture(t gpu.Texture) *TextureObject             { return c.textures[t] }
func (c *Context) Framebuffer(f gpu.Framebuffer) *FramebufferObject { return c.framebuffers[f] }
func (c *Context) BoundFramebuffer() gpu.Framebuffer                { return c.framebuffer }
func (c *Context) BoundVertexArray() gpu.VertexArray                { return c.vertexArray }
func (c *Context) AttribEnabled(l gpu.AttribLocation) bool          { return c.enabled[l] }
func (c *Context) Divisor(l gpu.AttribLocation) int                 { return c.divisors[l] }
func (c *Context) StateEnabled(s gpu.Capability) bool               { return c.states[s] }

// LiveTextures returns the handles of textures that have not been deleted.
func (c *Context) LiveTextures() []gpu.Texture {
	var out []gpu.Texture
	for h, t := range c.textures {
		if !t.Deleted {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ── gpu.Context ───────────────────────────────────────────────────────────────

var _ gpu.Context = (*Context)(nil)

func (c *Context) Extension(name string) ([]gpu.ExtensionEntry, bool) {
	entries, ok := c.Extensions[name]
	c.record("Extension %s -> %t", name, ok)
	return entries, ok
}

func (c *Context) ShaderPreamble(kind gpu.StageKind) string { return c.Preamble[kind] }

func (c *Context) CreateShader(kind gpu.StageKind) gpu.Shader {
	c.next++
	s := gpu.Shader(c.next)
	c.shaders[s] = &ShaderObject{Kind: kind}
	c.record("CreateShader %s -> %d", kind, s)
	return s
}

func (c *Context) ShaderSource(s gpu.Shader, source string) {
	c.shaders[s].Source = source
}

var errorDirective = regexp.MustCompile(`(?m)^\s*#error(.*)$`)

func (c *Context) CompileShader(s gpu.Shader) {
	obj := c.shaders[s]
	c.record("CompileShader %d", s)
	if m := errorDirective.FindStringSubmatchIndex(obj.Source); m != nil {
		line := strings.Count(obj.Source[:m[0]], "\n") + 1
		msg := strings.TrimSpace(obj.Source[m[2]:m[3]])
		obj.Log = fmt.Sprintf("ERROR: 0:%d: '#error' : %s", line, msg)
		return
	}
	obj.Compiled = true
}

func (c *Context) ShaderCompiled(s gpu.Shader) bool  { return c.shaders[s].Compiled }
func (c *Context) ShaderInfoLog(s gpu.Shader) string { return c.shaders[s].Log }

func (c *Context) DeleteShader(s gpu.Shader) {
	if obj, ok := c.shaders[s]; ok {
		obj.Deleted = true
	}
	c.record("DeleteShader %d", s)
}

func (c *Context) CreateProgram() gpu.Program {
	c.next++
	p := gpu.Program(c.next)
	c.programs[p] = &ProgramObject{}
	c.record("CreateProgram -> %d", p)
	return p
}

func (c *Context) AttachShader(p gpu.Program, s gpu.Shader) {
	obj := c.programs[p]
	obj.Attached = append(obj.Attached, s)
	c.record("AttachShader %d %d", p, s)
}

var (
	uniformDecl   = regexp.MustCompile(`(?m)^\s*uniform\s+(?:(?:lowp|mediump|highp)\s+)?(\w+)\s+(\w+)\s*;`)
	attributeDecl = regexp.MustCompile(`(?m)^\s*(?:attribute|in)\s+(?:(?:lowp|mediump|highp)\s+)?(\w+)\s+(\w+)\s*;`)
)

func components(glslType string) int32 {
	switch glslType {
	case "vec2":
		return 2
	case "vec3":
		return 3
	case "vec4":
		return 4
	case "mat4":
		return 16
	}
	return 1
}

func (c *Context) LinkProgram(p gpu.Program) {
	obj := c.programs[p]
	c.record("LinkProgram %d", p)
	obj.Linked = false
	if c.FailLink != "" {
		obj.Log = c.FailLink
		return
	}

	var vertex, fragment *ShaderObject
	for _, s := range obj.Attached {
		so := c.shaders[s]
		if !so.Compiled {
			obj.Log = fmt.Sprintf("error: shader %d is not compiled", s)
			return
		}
		switch so.Kind {
		case gpu.VertexStage:
			vertex = so
		case gpu.FragmentStage:
			fragment = so
		}
	}
	if vertex == nil || fragment == nil {
		obj.Log = "error: program needs a vertex and a fragment stage"
		return
	}

	obj.Uniforms = make(map[string]gpu.UniformLocation)
	obj.attribLocs = make(map[string]gpu.AttribLocation)
	obj.Attributes = nil
	for _, so := range []*ShaderObject{vertex, fragment} {
		for _, m := range uniformDecl.FindAllStringSubmatch(so.Source, -1) {
			if _, ok := obj.Uniforms[m[2]]; !ok {
				c.next++
				obj.Uniforms[m[2]] = gpu.UniformLocation(c.next)
			}
		}
	}
	for i, m := range attributeDecl.FindAllStringSubmatch(vertex.Source, -1) {
		obj.Attributes = append(obj.Attributes, gpu.Attribute{Name: m[2], Components: components(m[1])})
		obj.attribLocs[m[2]] = gpu.AttribLocation(i)
	}
	obj.Linked = true
	obj.Log = c.LinkWarning
}

func (c *Context) ProgramLinked(p gpu.Program) bool   { return c.programs[p].Linked }
func (c *Context) ProgramInfoLog(p gpu.Program) string { return c.programs[p].Log }

func (c *Context) UseProgram(p gpu.Program) {
	c.program = p
	c.record("UseProgram %d", p)
}

func (c *Context) DeleteProgram(p gpu.Program) {
	if obj, ok := c.programs[p]; ok {
		obj.Deleted = true
	}
	c.record("DeleteProgram %d", p)
}

func (c *Context) UniformLocation(p gpu.Program, name string) gpu.UniformLocation {
	c.record("UniformLocation %d %s", p, name)
	if loc, ok := c.programs[p].Uniforms[name]; ok {
		return loc
	}
	return -1
}

func (c *Context) AttribLocation(p gpu.Program, name string) gpu.AttribLocation {
	if loc, ok := c.programs[p].attribLocs[name]; ok {
		return loc
	}
	return -1
}

func (c *Context) ActiveAttributes(p gpu.Program) []gpu.Attribute {
	c.record("ActiveAttributes %d", p)
	return append([]gpu.Attribute(nil), c.programs[p].Attributes...)
}

func (c *Context) setUniform(l gpu.UniformLocation, v any) {
	if l < 0 {
		return
	}
	c.Uniforms[l] = v
	c.record("Uniform %d %v", l, v)
}

func (c *Context) Uniform1i(l gpu.UniformLocation, v int32)            { c.setUniform(l, v) }
func (c *Context) Uniform1f(l gpu.UniformLocation, v float32)          { c.setUniform(l, v) }
func (c *Context) Uniform2f(l gpu.UniformLocation, x, y float32)       { c.setUniform(l, [2]float32{x, y}) }
func (c *Context) Uniform3f(l gpu.UniformLocation, x, y, z float32)    { c.setUniform(l, [3]float32{x, y, z}) }
func (c *Context) Uniform4f(l gpu.UniformLocation, x, y, z, w float32) { c.setUniform(l, [4]float32{x, y, z, w}) }
func (c *Context) UniformMatrix3f(l gpu.UniformLocation, m [9]float32) { c.setUniform(l, m) }
func (c *Context) UniformMatrix4f(l gpu.UniformLocation, m [16]float32) {
	c.setUniform(l, m)
}

func (c *Context) CreateBuffer() gpu.Buffer {
	c.next++
	b := gpu.Buffer(c.next)
	c.buffers[b] = &BufferObject{}
	c.record("CreateBuffer -> %d", b)
	return b
}

func (c *Context) BindBuffer(b gpu.Buffer) {
	c.buffer = b
	c.record("BindBuffer %d", b)
}

func (c *Context) BufferData(b gpu.Buffer, data []float32, usage gpu.Usage) {
	obj := c.buffers[b]
	obj.Data = append([]float32(nil), data...)
	obj.Usage = usage
	c.record("BufferData %d %d", b, len(data))
}

func (c *Context) DeleteBuffer(b gpu.Buffer) {
	if obj, ok := c.buffers[b]; ok {
		obj.Deleted = true
	}
	c.record("DeleteBuffer %d", b)
}

func (c *Context) EnableVertexAttribArray(l gpu.AttribLocation) {
	c.enabled[l] = true
	c.record("EnableVertexAttribArray %d", l)
}

func (c *Context) VertexAttribPointer(l gpu.AttribLocation, components, stride, offset int32) {
	c.record("VertexAttribPointer %d %d %d %d", l, components, stride, offset)
}

func (c *Context) CreateTexture() gpu.Texture {
	c.next++
	t := gpu.Texture(c.next)
	c.textures[t] = &TextureObject{}
	c.record("CreateTexture -> %d", t)
	return t
}

func (c *Context) TexImage2D(t gpu.Texture, width, height int, format gpu.Format, pixels []byte) {
	obj := c.textures[t]
	obj.Width, obj.Height, obj.Format = width, height, format
	obj.Pixels = append([]byte(nil), pixels...)
	c.record("TexImage2D %d %dx%d %s", t, width, height, format)
}

func (c *Context) TexFilter(t gpu.Texture, filter gpu.Filter) {
	c.textures[t].Filter = filter
}

func (c *Context) BindTexture(unit int, t gpu.Texture) {
	c.units[unit] = t
	c.record("BindTexture %d %d", unit, t)
}

func (c *Context) DeleteTexture(t gpu.Texture) {
	if obj, ok := c.textures[t]; ok {
		obj.Deleted = true
	}
	c.record("DeleteTexture %d", t)
}

func (c *Context) CreateFramebuffer() gpu.Framebuffer {
	c.next++
	f := gpu.Framebuffer(c.next)
	c.framebuffers[f] = &FramebufferObject{Attachments: make(map[int]gpu.Texture)}
	c.record("CreateFramebuffer -> %d", f)
	return f
}

func (c *Context) BindFramebuffer(f gpu.Framebuffer) {
	c.framebuffer = f
	c.record("BindFramebuffer %d", f)
}

func (c *Context) FramebufferTexture(f gpu.Framebuffer, attachment int, t gpu.Texture) {
	c.framebuffers[f].Attachments[attachment] = t
	c.record("FramebufferTexture %d %d %d", f, attachment, t)
}

func (c *Context) DrawBuffers(count int) {
	if obj, ok := c.framebuffers[c.framebuffer]; ok {
		obj.DrawBuffers = count
	}
	c.record("DrawBuffers %d", count)
}

func (c *Context) FramebufferComplete(f gpu.Framebuffer) bool {
	if c.IncompleteFramebuffers {
		return false
	}
	obj := c.framebuffers[f]
	if obj == nil || len(obj.Attachments) == 0 {
		return false
	}
	for _, t := range obj.Attachments {
		tex := c.textures[t]
		if tex == nil || tex.Deleted || tex.Width == 0 || tex.Height == 0 {
			return false
		}
	}
	return true
}

func (c *Context) DeleteFramebuffer(f gpu.Framebuffer) {
	if obj, ok := c.framebuffers[f]; ok {
		obj.Deleted = true
	}
	c.record("DeleteFramebuffer %d", f)
}

func (c *Context) Viewport(x, y, width, height int) {
	c.ViewportRect = [4]int{x, y, width, height}
	c.record("Viewport %d %d %d %d", x, y, width, height)
}

func (c *Context) ClearColor(r, g, b, a float32) {
	c.ClearRGBA = [4]float32{r, g, b, a}
}

func (c *Context) Clear() {
	c.Cleared++
	c.record("Clear")
}

func (c *Context) ClearDepth(depth float32) {
	c.DepthCleared++
	c.record("ClearDepth %g", depth)
}

func (c *Context) Enable(s gpu.Capability) {
	c.states[s] = true
	c.record("Enable %s", s)
}

func (c *Context) Disable(s gpu.Capability) {
	c.states[s] = false
	c.record("Disable %s", s)
}

func (c *Context) DrawArrays(mode gpu.Primitive, first, count int) {
	c.draw(mode, first, count, 0)
}

func (c *Context) draw(mode gpu.Primitive, first, count, instances int) {
	units := make(map[int]gpu.Texture, len(c.units))
	for k, v := range c.units {
		units[k] = v
	}
	c.Draws = append(c.Draws, Draw{
		Program:     c.program,
		Framebuffer: c.framebuffer,
		Buffer:      c.buffer,
		Units:       units,
		Mode:        mode,
		First:       first,
		Count:       count,
		Instances:   instances,
		DepthTest:   c.states[gpu.DepthTest],
	})
	c.record("Draw %s %d %d %d", mode, first, count, instances)
}
