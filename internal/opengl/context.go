// Package opengl implements gpu.Context on desktop OpenGL 4.1 core and
// hosts it in a GLFW window.
package opengl

import (
	"fmt"
	"strings"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"render-scaffold/gpu"
	"render-scaffold/log"
)

var logger = log.New("opengl")

const vertexPreamble = `#version 410 core
#define attribute in
#define varying out
`

const fragmentPreamble = `#version 410 core
#define varying in
#define texture2D texture
out vec4 fragColor;
#define gl_FragColor fragColor
`

// Context is a gpu.Context over the OpenGL context current on the calling
// thread.
type Context struct {
	defaultVAO uint32
	extensions map[string]bool
}

var _ gpu.Context = (*Context)(nil)

// NewContext loads the GL entry points. Must be called after the window's
// context is made current.
func NewContext() (*Context, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	logger.Infof("OpenGL version: %s", gl.GoStr(gl.GetString(gl.VERSION)))
	logger.Infof("OpenGL renderer: %s", gl.GoStr(gl.GetString(gl.RENDERER)))

	c := &Context{extensions: make(map[string]bool)}

	var n int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &n)
	for i := int32(0); i < n; i++ {
		c.extensions[gl.GoStr(gl.GetStringi(gl.EXTENSIONS, uint32(i)))] = true
	}

	// The core profile rejects attribute setup without a bound vertex array.
	gl.GenVertexArrays(1, &c.defaultVAO)
	gl.BindVertexArray(c.defaultVAO)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	return c, nil
}

// Destroy releases the default vertex array.
func (c *Context) Destroy() {
	if c.defaultVAO != 0 {
		gl.DeleteVertexArrays(1, &c.defaultVAO)
		c.defaultVAO = 0
	}
}

// ── Extensions ────────────────────────────────────────────────────────────────

// Extension serves the WebGL 1 extensions the runtime negotiates from GL 4.1
// core functionality. Other names are looked up in GL_EXTENSIONS, with and
// without the GL_ prefix, and expose no entries.
func (c *Context) Extension(name string) ([]gpu.ExtensionEntry, bool) {
	switch name {
	case "OES_vertex_array_object":
		return c.vertexArrayEntries(), true
	case "ANGLE_instanced_arrays":
		return instancingEntries(), true
	case "OES_standard_derivatives":
		return []gpu.ExtensionEntry{
			{Name: "FRAGMENT_SHADER_DERIVATIVE_HINT", Value: gl.FRAGMENT_SHADER_DERIVATIVE_HINT},
		}, true
	case "OES_texture_float", "OES_texture_half_float", "EXT_color_buffer_float", "WEBGL_draw_buffers":
		return nil, true
	}
	if c.extensions[name] || c.extensions["GL_"+name] {
		return nil, true
	}
	return nil, false
}

func (c *Context) vertexArrayEntries() []gpu.ExtensionEntry {
	return []gpu.ExtensionEntry{
		{Name: "VERTEX_ARRAY_BINDING", Value: gl.VERTEX_ARRAY_BINDING},
		{Name: "createVertexArray", Func: func(...any) any {
			var va uint32
			gl.GenVertexArrays(1, &va)
			return va
		}},
		{Name: "bindVertexArray", Func: func(args ...any) any {
			va := gpu.Uint32(args[0])
			if va == 0 {
				va = c.defaultVAO
			}
			gl.BindVertexArray(va)
			return nil
		}},
		{Name: "deleteVertexArray", Func: func(args ...any) any {
			va := gpu.Uint32(args[0])
			gl.DeleteVertexArrays(1, &va)
			return nil
		}},
		{Name: "isVertexArray", Func: func(args ...any) any {
			return gl.IsVertexArray(gpu.Uint32(args[0]))
		}},
	}
}

func instancingEntries() []gpu.ExtensionEntry {
	return []gpu.ExtensionEntry{
		{Name: "VERTEX_ATTRIB_ARRAY_DIVISOR", Value: gl.VERTEX_ATTRIB_ARRAY_DIVISOR},
		{Name: "drawArraysInstanced", Func: func(args ...any) any {
			mode := args[0].(gpu.Primitive)
			gl.DrawArraysInstanced(primitive(mode), int32(args[1].(int)), int32(args[2].(int)), int32(args[3].(int)))
			return nil
		}},
		{Name: "vertexAttribDivisor", Func: func(args ...any) any {
			gl.VertexAttribDivisor(uint32(args[0].(gpu.AttribLocation)), uint32(args[1].(int)))
			return nil
		}},
	}
}

// ── Shaders ───────────────────────────────────────────────────────────────────

func (c *Context) ShaderPreamble(kind gpu.StageKind) string {
	if kind == gpu.VertexStage {
		return vertexPreamble
	}
	return fragmentPreamble
}

func (c *Context) CreateShader(kind gpu.StageKind) gpu.Shader {
	if kind == gpu.VertexStage {
		return gpu.Shader(gl.CreateShader(gl.VERTEX_SHADER))
	}
	return gpu.Shader(gl.CreateShader(gl.FRAGMENT_SHADER))
}

func (c *Context) ShaderSource(s gpu.Shader, source string) {
	csrc, free := gl.Strs(source + "\x00")
	gl.ShaderSource(uint32(s), 1, csrc, nil)
	free()
}

func (c *Context) CompileShader(s gpu.Shader) { gl.CompileShader(uint32(s)) }

func (c *Context) ShaderCompiled(s gpu.Shader) bool {
	var status int32
	gl.GetShaderiv(uint32(s), gl.COMPILE_STATUS, &status)
	return status == gl.TRUE
}

func (c *Context) ShaderInfoLog(s gpu.Shader) string {
	var logLen int32
	gl.GetShaderiv(uint32(s), gl.INFO_LOG_LENGTH, &logLen)
	if logLen == 0 {
		return ""
	}
	buf := strings.Repeat("\x00", int(logLen+1))
	gl.GetShaderInfoLog(uint32(s), logLen, nil, gl.Str(buf))
	return strings.TrimRight(buf, "\x00")
}

func (c *Context) DeleteShader(s gpu.Shader) { gl.DeleteShader(uint32(s)) }

func (c *Context) CreateProgram() gpu.Program { return gpu.Program(gl.CreateProgram()) }

func (c *Context) AttachShader(p gpu.Program, s gpu.Shader) {
	gl.AttachShader(uint32(p), uint32(s))
}

func (c *Context) LinkProgram(p gpu.Program) { gl.LinkProgram(uint32(p)) }

func (c *Context) ProgramLinked(p gpu.Program) bool {
	var status int32
	gl.GetProgramiv(uint32(p), gl.LINK_STATUS, &status)
	return status == gl.TRUE
}

func (c *Context) ProgramInfoLog(p gpu.Program) string {
	var logLen int32
	gl.GetProgramiv(uint32(p), gl.INFO_LOG_LENGTH, &logLen)
	if logLen == 0 {
		return ""
	}
	buf := strings.Repeat("\x00", int(logLen+1))
	gl.GetProgramInfoLog(uint32(p), logLen, nil, gl.Str(buf))
	return strings.TrimRight(buf, "\x00")
}

func (c *Context) UseProgram(p gpu.Program)    { gl.UseProgram(uint32(p)) }
func (c *Context) DeleteProgram(p gpu.Program) { gl.DeleteProgram(uint32(p)) }

func (c *Context) UniformLocation(p gpu.Program, name string) gpu.UniformLocation {
	return gpu.UniformLocation(gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00")))
}

func (c *Context) AttribLocation(p gpu.Program, name string) gpu.AttribLocation {
	return gpu.AttribLocation(gl.GetAttribLocation(uint32(p), gl.Str(name+"\x00")))
}

func (c *Context) ActiveAttributes(p gpu.Program) []gpu.Attribute {
	var count, maxLen int32
	gl.GetProgramiv(uint32(p), gl.ACTIVE_ATTRIBUTES, &count)
	gl.GetProgramiv(uint32(p), gl.ACTIVE_ATTRIBUTE_MAX_LENGTH, &maxLen)

	attrs := make([]gpu.Attribute, 0, count)
	for i := int32(0); i < count; i++ {
		var length, size int32
		var xtype uint32
		buf := strings.Repeat("\x00", int(maxLen+1))
		gl.GetActiveAttrib(uint32(p), uint32(i), maxLen+1, &length, &size, &xtype, gl.Str(buf))
		name := buf[:length]
		if strings.HasPrefix(name, "gl_") {
			continue
		}
		attrs = append(attrs, gpu.Attribute{Name: name, Components: components(xtype)})
	}
	return attrs
}

func components(xtype uint32) int32 {
	switch xtype {
	case gl.FLOAT_VEC2:
		return 2
	case gl.FLOAT_VEC3:
		return 3
	case gl.FLOAT_VEC4:
		return 4
	case gl.FLOAT_MAT4:
		return 16
	}
	return 1
}

// ── Uniforms ──────────────────────────────────────────────────────────────────

func (c *Context) Uniform1i(l gpu.UniformLocation, v int32)      { gl.Uniform1i(int32(l), v) }
func (c *Context) Uniform1f(l gpu.UniformLocation, v float32)    { gl.Uniform1f(int32(l), v) }
func (c *Context) Uniform2f(l gpu.UniformLocation, x, y float32) { gl.Uniform2f(int32(l), x, y) }

func (c *Context) Uniform3f(l gpu.UniformLocation, x, y, z float32) {
	gl.Uniform3f(int32(l), x, y, z)
}

func (c *Context) Uniform4f(l gpu.UniformLocation, x, y, z, w float32) {
	gl.Uniform4f(int32(l), x, y, z, w)
}

func (c *Context) UniformMatrix3f(l gpu.UniformLocation, m [9]float32) {
	gl.UniformMatrix3fv(int32(l), 1, false, &m[0])
}

func (c *Context) UniformMatrix4f(l gpu.UniformLocation, m [16]float32) {
	gl.UniformMatrix4fv(int32(l), 1, false, &m[0])
}

// ── Buffers ───────────────────────────────────────────────────────────────────

func (c *Context) CreateBuffer() gpu.Buffer {
	var b uint32
	gl.GenBuffers(1, &b)
	return gpu.Buffer(b)
}

func (c *Context) BindBuffer(b gpu.Buffer) { gl.BindBuffer(gl.ARRAY_BUFFER, uint32(b)) }

func (c *Context) BufferData(b gpu.Buffer, data []float32, usage gpu.Usage) {
	hint := uint32(gl.STATIC_DRAW)
	if usage == gpu.DynamicDraw {
		hint = gl.DYNAMIC_DRAW
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(b))
	if len(data) == 0 {
		gl.BufferData(gl.ARRAY_BUFFER, 0, nil, hint)
		return
	}
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), hint)
}

func (c *Context) DeleteBuffer(b gpu.Buffer) {
	id := uint32(b)
	gl.DeleteBuffers(1, &id)
}

func (c *Context) EnableVertexAttribArray(l gpu.AttribLocation) {
	gl.EnableVertexAttribArray(uint32(l))
}

func (c *Context) VertexAttribPointer(l gpu.AttribLocation, components, stride, offset int32) {
	gl.VertexAttribPointerWithOffset(uint32(l), components, gl.FLOAT, false, stride, uintptr(offset))
}

// ── Textures ──────────────────────────────────────────────────────────────────

func (c *Context) CreateTexture() gpu.Texture {
	var t uint32
	gl.GenTextures(1, &t)
	return gpu.Texture(t)
}

func (c *Context) TexImage2D(t gpu.Texture, width, height int, format gpu.Format, pixels []byte) {
	internal, xtype := int32(gl.RGBA8), uint32(gl.UNSIGNED_BYTE)
	if format == gpu.RGBA16F {
		internal = gl.RGBA16F
		if pixels == nil {
			xtype = gl.HALF_FLOAT
		}
	}
	var ptr unsafe.Pointer
	if len(pixels) > 0 {
		ptr = gl.Ptr(pixels)
	}

	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(width), int32(height), 0, gl.RGBA, xtype, ptr)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

func (c *Context) TexFilter(t gpu.Texture, filter gpu.Filter) {
	f := int32(gl.NEAREST)
	if filter == gpu.Linear {
		f = gl.LINEAR
	}
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, f)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, f)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

func (c *Context) BindTexture(unit int, t gpu.Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
}

func (c *Context) DeleteTexture(t gpu.Texture) {
	id := uint32(t)
	gl.DeleteTextures(1, &id)
}

// ── Framebuffers ──────────────────────────────────────────────────────────────

func (c *Context) CreateFramebuffer() gpu.Framebuffer {
	var f uint32
	gl.GenFramebuffers(1, &f)
	return gpu.Framebuffer(f)
}

func (c *Context) BindFramebuffer(f gpu.Framebuffer) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(f))
}

func (c *Context) FramebufferTexture(f gpu.Framebuffer, attachment int, t gpu.Texture) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(f))
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0+uint32(attachment),
		gl.TEXTURE_2D, uint32(t), 0)
}

func (c *Context) DrawBuffers(count int) {
	bufs := make([]uint32, count)
	for i := range bufs {
		bufs[i] = gl.COLOR_ATTACHMENT0 + uint32(i)
	}
	gl.DrawBuffers(int32(count), &bufs[0])
}

func (c *Context) FramebufferComplete(f gpu.Framebuffer) bool {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(f))
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	if status != gl.FRAMEBUFFER_COMPLETE {
		logger.Debugf("framebuffer %d status 0x%X", f, status)
		return false
	}
	return true
}

func (c *Context) DeleteFramebuffer(f gpu.Framebuffer) {
	id := uint32(f)
	gl.DeleteFramebuffers(1, &id)
}

// ── Drawing ───────────────────────────────────────────────────────────────────

func (c *Context) Viewport(x, y, width, height int) {
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

func (c *Context) ClearColor(r, g, b, a float32) { gl.ClearColor(r, g, b, a) }
func (c *Context) Clear()                        { gl.Clear(gl.COLOR_BUFFER_BIT) }

func (c *Context) ClearDepth(depth float32) {
	gl.ClearDepth(float64(depth))
	gl.Clear(gl.DEPTH_BUFFER_BIT)
}

func (c *Context) Enable(state gpu.Capability)  { gl.Enable(capability(state)) }
func (c *Context) Disable(state gpu.Capability) { gl.Disable(capability(state)) }

func capability(state gpu.Capability) uint32 {
	if state == gpu.Blend {
		return gl.BLEND
	}
	return gl.DEPTH_TEST
}

func (c *Context) DrawArrays(mode gpu.Primitive, first, count int) {
	gl.DrawArrays(primitive(mode), int32(first), int32(count))
}

func primitive(mode gpu.Primitive) uint32 {
	switch mode {
	case gpu.TriangleStrip:
		return gl.TRIANGLE_STRIP
	case gpu.Points:
		return gl.POINTS
	}
	return gl.TRIANGLES
}
