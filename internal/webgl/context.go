//go:build js && wasm

// Package webgl implements gpu.Context on a browser WebGL 1 context and hosts
// it on a canvas driven by requestAnimationFrame.
package webgl

import (
	"encoding/binary"
	"math"
	"strings"
	"syscall/js"

	"render-scaffold/gpu"
	"render-scaffold/log"
)

var logger = log.New("webgl")

// WebGL 1 enums.
const (
	glPoints           = 0x0000
	glTriangles        = 0x0004
	glTriangleStrip    = 0x0005
	glColorBufferBit   = 0x4000
	glDepthBufferBit   = 0x0100
	glDepthTest        = 0x0B71
	glBlend            = 0x0BE2
	glArrayBuffer      = 0x8892
	glStaticDraw       = 0x88E4
	glDynamicDraw      = 0x88E8
	glFloat            = 0x1406
	glUnsignedByte     = 0x1401
	glHalfFloatOES     = 0x8D61
	glRGBA             = 0x1908
	glTexture2D        = 0x0DE1
	glTexture0         = 0x84C0
	glTextureMagFilter = 0x2800
	glTextureMinFilter = 0x2801
	glTextureWrapS     = 0x2802
	glTextureWrapT     = 0x2803
	glNearest          = 0x2600
	glLinear           = 0x2601
	glClampToEdge      = 0x812F
	glFramebuffer      = 0x8D40
	glColorAttachment0 = 0x8CE0
	glFramebufferOK    = 0x8CD5
	glFragmentShader   = 0x8B30
	glVertexShader     = 0x8B31
	glCompileStatus    = 0x8B81
	glLinkStatus       = 0x8B82
	glActiveAttributes = 0x8B89
	glFloatVec2        = 0x8B50
	glFloatVec3        = 0x8B51
	glFloatVec4        = 0x8B52
	glFloatMat4        = 0x8B5C
	glUnpackAlignment  = 0x0CF5
)

const fragmentPreamble = `#extension GL_OES_standard_derivatives : enable
precision mediump float;
`

// forInKeys lists every enumerable key of an object, inherited ones included.
// Extension objects keep their entries on the prototype.
var forInKeys = js.Global().Get("Function").New("o", "var k = []; for (var key in o) k.push(key); return k;")

// Context is a gpu.Context over a WebGLRenderingContext. WebGL objects are
// kept in a handle table and handed out as integers.
type Context struct {
	gl js.Value

	objects   map[uint32]js.Value
	next      uint32
	locations []js.Value

	halfFloat   bool
	drawBuffers js.Value

	uint8Array   js.Value
	float32Array js.Value
}

var _ gpu.Context = (*Context)(nil)

func NewContext(gl js.Value) *Context {
	c := &Context{
		gl:           gl,
		objects:      make(map[uint32]js.Value),
		drawBuffers:  js.Null(),
		uint8Array:   js.Global().Get("Uint8Array"),
		float32Array: js.Global().Get("Float32Array"),
	}
	gl.Call("pixelStorei", glUnpackAlignment, 1)
	return c
}

func (c *Context) register(v js.Value) uint32 {
	if v.IsNull() || v.IsUndefined() {
		return 0
	}
	c.next++
	c.objects[c.next] = v
	return c.next
}

func (c *Context) object(h uint32) js.Value {
	if v, ok := c.objects[h]; ok {
		return v
	}
	return js.Null()
}

func (c *Context) release(h uint32) js.Value {
	v := c.object(h)
	delete(c.objects, h)
	return v
}

// ── Extensions ────────────────────────────────────────────────────────────────

// Extension enables name and exposes every function and constant of the
// extension object under its decorated name. Functions are bound to the
// extension object; handle arguments and object results go through the
// handle table.
func (c *Context) Extension(name string) ([]gpu.ExtensionEntry, bool) {
	ext := c.gl.Call("getExtension", name)
	if ext.IsNull() || ext.IsUndefined() {
		return nil, false
	}
	switch name {
	case "OES_texture_half_float":
		c.halfFloat = true
	case "WEBGL_draw_buffers":
		c.drawBuffers = ext
	}

	var entries []gpu.ExtensionEntry
	keys := forInKeys.Invoke(ext)
	for i := 0; i < keys.Length(); i++ {
		key := keys.Index(i).String()
		v := ext.Get(key)
		switch v.Type() {
		case js.TypeFunction:
			entries = append(entries, gpu.ExtensionEntry{Name: key, Func: c.bind(ext, key)})
		case js.TypeNumber:
			entries = append(entries, gpu.ExtensionEntry{Name: key, Value: v.Int()})
		}
	}
	return entries, true
}

func (c *Context) bind(ext js.Value, key string) func(args ...any) any {
	fn := ext.Get(key).Call("bind", ext)
	deletes := strings.HasPrefix(key, "delete")
	return func(args ...any) any {
		jsArgs := make([]any, len(args))
		for i, a := range args {
			jsArgs[i] = c.toJS(a)
		}
		result := fn.Invoke(jsArgs...)
		if deletes && len(args) > 0 {
			if h, ok := args[0].(uint32); ok {
				c.release(h)
			}
		}
		return c.fromJS(result)
	}
}

func (c *Context) toJS(a any) any {
	switch v := a.(type) {
	case uint32:
		return c.object(v)
	case gpu.Primitive:
		return primitive(v)
	case gpu.AttribLocation:
		return int(v)
	case gpu.UniformLocation:
		return c.location(v)
	}
	return a
}

func (c *Context) fromJS(v js.Value) any {
	switch v.Type() {
	case js.TypeObject:
		return c.register(v)
	case js.TypeBoolean:
		return v.Bool()
	case js.TypeNumber:
		return v.Int()
	}
	return nil
}

// ── Shaders ───────────────────────────────────────────────────────────────────

func (c *Context) ShaderPreamble(kind gpu.StageKind) string {
	if kind == gpu.FragmentStage {
		return fragmentPreamble
	}
	return ""
}

func (c *Context) CreateShader(kind gpu.StageKind) gpu.Shader {
	ty := glFragmentShader
	if kind == gpu.VertexStage {
		ty = glVertexShader
	}
	return gpu.Shader(c.register(c.gl.Call("createShader", ty)))
}

func (c *Context) ShaderSource(s gpu.Shader, source string) {
	c.gl.Call("shaderSource", c.object(uint32(s)), source)
}

func (c *Context) CompileShader(s gpu.Shader) {
	c.gl.Call("compileShader", c.object(uint32(s)))
}

func (c *Context) ShaderCompiled(s gpu.Shader) bool {
	return c.gl.Call("getShaderParameter", c.object(uint32(s)), glCompileStatus).Truthy()
}

func (c *Context) ShaderInfoLog(s gpu.Shader) string {
	return jsString(c.gl.Call("getShaderInfoLog", c.object(uint32(s))))
}

func (c *Context) DeleteShader(s gpu.Shader) {
	c.gl.Call("deleteShader", c.release(uint32(s)))
}

func (c *Context) CreateProgram() gpu.Program {
	return gpu.Program(c.register(c.gl.Call("createProgram")))
}

func (c *Context) AttachShader(p gpu.Program, s gpu.Shader) {
	c.gl.Call("attachShader", c.object(uint32(p)), c.object(uint32(s)))
}

func (c *Context) LinkProgram(p gpu.Program) {
	c.gl.Call("linkProgram", c.object(uint32(p)))
}

func (c *Context) ProgramLinked(p gpu.Program) bool {
	return c.gl.Call("getProgramParameter", c.object(uint32(p)), glLinkStatus).Truthy()
}

func (c *Context) ProgramInfoLog(p gpu.Program) string {
	return jsString(c.gl.Call("getProgramInfoLog", c.object(uint32(p))))
}

func (c *Context) UseProgram(p gpu.Program) {
	c.gl.Call("useProgram", c.object(uint32(p)))
}

func (c *Context) DeleteProgram(p gpu.Program) {
	c.gl.Call("deleteProgram", c.release(uint32(p)))
}

// UniformLocation returns an index into the location table. WebGL hands out
// a new location object per query, so callers are expected to cache.
func (c *Context) UniformLocation(p gpu.Program, name string) gpu.UniformLocation {
	loc := c.gl.Call("getUniformLocation", c.object(uint32(p)), name)
	if loc.IsNull() || loc.IsUndefined() {
		return -1
	}
	c.locations = append(c.locations, loc)
	return gpu.UniformLocation(len(c.locations) - 1)
}

func (c *Context) location(l gpu.UniformLocation) js.Value {
	if l < 0 || int(l) >= len(c.locations) {
		return js.Null()
	}
	return c.locations[l]
}

func (c *Context) AttribLocation(p gpu.Program, name string) gpu.AttribLocation {
	return gpu.AttribLocation(c.gl.Call("getAttribLocation", c.object(uint32(p)), name).Int())
}

func (c *Context) ActiveAttributes(p gpu.Program) []gpu.Attribute {
	prog := c.object(uint32(p))
	n := c.gl.Call("getProgramParameter", prog, glActiveAttributes).Int()
	attrs := make([]gpu.Attribute, 0, n)
	for i := 0; i < n; i++ {
		info := c.gl.Call("getActiveAttrib", prog, i)
		if info.IsNull() {
			continue
		}
		attrs = append(attrs, gpu.Attribute{
			Name:       info.Get("name").String(),
			Components: components(info.Get("type").Int()),
		})
	}
	return attrs
}

func components(ty int) int32 {
	switch ty {
	case glFloatVec2:
		return 2
	case glFloatVec3:
		return 3
	case glFloatVec4:
		return 4
	case glFloatMat4:
		return 16
	}
	return 1
}

// ── Uniforms ──────────────────────────────────────────────────────────────────

func (c *Context) Uniform1i(l gpu.UniformLocation, v int32) {
	c.gl.Call("uniform1i", c.location(l), v)
}

func (c *Context) Uniform1f(l gpu.UniformLocation, v float32) {
	c.gl.Call("uniform1f", c.location(l), v)
}

func (c *Context) Uniform2f(l gpu.UniformLocation, x, y float32) {
	c.gl.Call("uniform2f", c.location(l), x, y)
}

func (c *Context) Uniform3f(l gpu.UniformLocation, x, y, z float32) {
	c.gl.Call("uniform3f", c.location(l), x, y, z)
}

func (c *Context) Uniform4f(l gpu.UniformLocation, x, y, z, w float32) {
	c.gl.Call("uniform4f", c.location(l), x, y, z, w)
}

func (c *Context) UniformMatrix3f(l gpu.UniformLocation, m [9]float32) {
	c.gl.Call("uniformMatrix3fv", c.location(l), false, c.floats(m[:]))
}

func (c *Context) UniformMatrix4f(l gpu.UniformLocation, m [16]float32) {
	c.gl.Call("uniformMatrix4fv", c.location(l), false, c.floats(m[:]))
}

// ── Buffers ───────────────────────────────────────────────────────────────────

func (c *Context) floats(data []float32) js.Value {
	raw := make([]byte, len(data)*4)
	for i, f := range data {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(f))
	}
	return c.float32Array.New(c.bytes(raw).Get("buffer"))
}

func (c *Context) bytes(data []byte) js.Value {
	arr := c.uint8Array.New(len(data))
	js.CopyBytesToJS(arr, data)
	return arr
}

func (c *Context) CreateBuffer() gpu.Buffer {
	return gpu.Buffer(c.register(c.gl.Call("createBuffer")))
}

func (c *Context) BindBuffer(b gpu.Buffer) {
	c.gl.Call("bindBuffer", glArrayBuffer, c.object(uint32(b)))
}

func (c *Context) BufferData(b gpu.Buffer, data []float32, usage gpu.Usage) {
	hint := glStaticDraw
	if usage == gpu.DynamicDraw {
		hint = glDynamicDraw
	}
	c.gl.Call("bindBuffer", glArrayBuffer, c.object(uint32(b)))
	c.gl.Call("bufferData", glArrayBuffer, c.floats(data), hint)
}

func (c *Context) DeleteBuffer(b gpu.Buffer) {
	c.gl.Call("deleteBuffer", c.release(uint32(b)))
}

func (c *Context) EnableVertexAttribArray(l gpu.AttribLocation) {
	c.gl.Call("enableVertexAttribArray", int(l))
}

func (c *Context) VertexAttribPointer(l gpu.AttribLocation, components, stride, offset int32) {
	c.gl.Call("vertexAttribPointer", int(l), components, glFloat, false, stride, offset)
}

// ── Textures ──────────────────────────────────────────────────────────────────

func (c *Context) CreateTexture() gpu.Texture {
	return gpu.Texture(c.register(c.gl.Call("createTexture")))
}

func (c *Context) TexImage2D(t gpu.Texture, width, height int, format gpu.Format, pixels []byte) {
	ty := glUnsignedByte
	if format == gpu.RGBA16F && pixels == nil && c.halfFloat {
		ty = glHalfFloatOES
	}
	data := js.Null()
	if len(pixels) > 0 {
		data = c.bytes(pixels)
	}

	c.gl.Call("bindTexture", glTexture2D, c.object(uint32(t)))
	c.gl.Call("texImage2D", glTexture2D, 0, glRGBA, width, height, 0, glRGBA, ty, data)
	c.gl.Call("texParameteri", glTexture2D, glTextureWrapS, glClampToEdge)
	c.gl.Call("texParameteri", glTexture2D, glTextureWrapT, glClampToEdge)
	c.gl.Call("bindTexture", glTexture2D, js.Null())
}

func (c *Context) TexFilter(t gpu.Texture, filter gpu.Filter) {
	f := glNearest
	if filter == gpu.Linear {
		f = glLinear
	}
	c.gl.Call("bindTexture", glTexture2D, c.object(uint32(t)))
	c.gl.Call("texParameteri", glTexture2D, glTextureMinFilter, f)
	c.gl.Call("texParameteri", glTexture2D, glTextureMagFilter, f)
	c.gl.Call("bindTexture", glTexture2D, js.Null())
}

func (c *Context) BindTexture(unit int, t gpu.Texture) {
	c.gl.Call("activeTexture", glTexture0+unit)
	c.gl.Call("bindTexture", glTexture2D, c.object(uint32(t)))
}

func (c *Context) DeleteTexture(t gpu.Texture) {
	c.gl.Call("deleteTexture", c.release(uint32(t)))
}

// ── Framebuffers ──────────────────────────────────────────────────────────────

func (c *Context) CreateFramebuffer() gpu.Framebuffer {
	return gpu.Framebuffer(c.register(c.gl.Call("createFramebuffer")))
}

func (c *Context) BindFramebuffer(f gpu.Framebuffer) {
	c.gl.Call("bindFramebuffer", glFramebuffer, c.object(uint32(f)))
}

func (c *Context) FramebufferTexture(f gpu.Framebuffer, attachment int, t gpu.Texture) {
	c.gl.Call("bindFramebuffer", glFramebuffer, c.object(uint32(f)))
	c.gl.Call("framebufferTexture2D", glFramebuffer, glColorAttachment0+attachment,
		glTexture2D, c.object(uint32(t)), 0)
}

// DrawBuffers needs WEBGL_draw_buffers; without it only attachment 0 is
// written.
func (c *Context) DrawBuffers(count int) {
	if c.drawBuffers.IsNull() {
		logger.Warningf("WEBGL_draw_buffers not negotiated, writing attachment 0 only")
		return
	}
	bufs := make([]any, count)
	for i := range bufs {
		bufs[i] = glColorAttachment0 + i
	}
	c.drawBuffers.Call("drawBuffersWEBGL", js.ValueOf(bufs))
}

func (c *Context) FramebufferComplete(f gpu.Framebuffer) bool {
	c.gl.Call("bindFramebuffer", glFramebuffer, c.object(uint32(f)))
	return c.gl.Call("checkFramebufferStatus", glFramebuffer).Int() == glFramebufferOK
}

func (c *Context) DeleteFramebuffer(f gpu.Framebuffer) {
	c.gl.Call("deleteFramebuffer", c.release(uint32(f)))
}

// ── Drawing ───────────────────────────────────────────────────────────────────

func (c *Context) Viewport(x, y, width, height int) {
	c.gl.Call("viewport", x, y, width, height)
}

func (c *Context) ClearColor(r, g, b, a float32) { c.gl.Call("clearColor", r, g, b, a) }
func (c *Context) Clear()                        { c.gl.Call("clear", glColorBufferBit) }

func (c *Context) ClearDepth(depth float32) {
	c.gl.Call("clearDepth", depth)
	c.gl.Call("clear", glDepthBufferBit)
}

func (c *Context) Enable(state gpu.Capability)  { c.gl.Call("enable", capability(state)) }
func (c *Context) Disable(state gpu.Capability) { c.gl.Call("disable", capability(state)) }

func capability(state gpu.Capability) int {
	if state == gpu.Blend {
		return glBlend
	}
	return glDepthTest
}

func (c *Context) DrawArrays(mode gpu.Primitive, first, count int) {
	c.gl.Call("drawArrays", primitive(mode), first, count)
}

func primitive(mode gpu.Primitive) int {
	switch mode {
	case gpu.TriangleStrip:
		return glTriangleStrip
	case gpu.Points:
		return glPoints
	}
	return glTriangles
}

func jsString(v js.Value) string {
	if v.IsNull() || v.IsUndefined() {
		return ""
	}
	return v.String()
}
