// Package gpu defines the boundary between the runtime and a GPU API.
//
// Handles are plain integers so that a backend can map them to whatever the
// underlying API uses (GL object names on the desktop, JS objects in the
// browser). The zero handle is never a live object; binding it selects the
// default (for framebuffers: the back buffer).
package gpu

// StageKind identifies a shader stage.
type StageKind uint32

const (
	VertexStage StageKind = iota + 1
	FragmentStage
)

func (k StageKind) String() string {
	switch k {
	case VertexStage:
		return "vertex"
	case FragmentStage:
		return "fragment"
	}
	return "unknown"
}

type (
	Shader      uint32
	Program     uint32
	Buffer      uint32
	Texture     uint32
	Framebuffer uint32
	VertexArray uint32
)

// UniformLocation and AttribLocation are -1 when the name is not active in
// the program.
type (
	UniformLocation int32
	AttribLocation  int32
)

// Format is a texture storage format.
type Format int

const (
	RGBA8 Format = iota
	RGBA16F
)

func (f Format) String() string {
	if f == RGBA16F {
		return "RGBA16F"
	}
	return "RGBA8"
}

// Usage is the data store hint passed with buffer uploads.
type Usage int

const (
	StaticDraw Usage = iota
	DynamicDraw
)

// Filter is a texture sampling filter, applied to both min and mag.
type Filter int

const (
	Nearest Filter = iota
	Linear
)

// Primitive is the topology used by draw calls.
type Primitive int

const (
	Triangles Primitive = iota
	TriangleStrip
	Points
)

// Capability is a fixed-function state toggled with Enable and Disable.
type Capability int

const (
	DepthTest Capability = iota
	Blend
)

func (c Capability) String() string {
	if c == Blend {
		return "Blend"
	}
	return "DepthTest"
}

// Attribute describes one active vertex attribute of a linked program.
type Attribute struct {
	Name string
	// Components is the number of float components (1..4, 16 for mat4).
	Components int32
}

// ExtensionEntry is one function or constant exposed by an extension object.
// Func is already bound to the extension object it was read from, so it can
// be stored and called by bare name. Constants carry a nil Func.
type ExtensionEntry struct {
	Name  string
	Func  func(args ...any) any
	Value int
}

// IsFunc reports whether the entry is callable.
func (e ExtensionEntry) IsFunc() bool { return e.Func != nil }

// Context is the GPU API surface the runtime is written against.
// All methods must be called from the goroutine that owns the context.
type Context interface {
	// Extension acquires an optional API extension. ok is false when the
	// extension is not available on this context.
	Extension(name string) (entries []ExtensionEntry, ok bool)
	// ShaderPreamble returns dialect-specific text prepended to every source
	// of the given stage before compilation.
	ShaderPreamble(kind StageKind) string

	CreateShader(kind StageKind) Shader
	ShaderSource(s Shader, source string)
	CompileShader(s Shader)
	ShaderCompiled(s Shader) bool
	ShaderInfoLog(s Shader) string
	DeleteShader(s Shader)

	CreateProgram() Program
	AttachShader(p Program, s Shader)
	LinkProgram(p Program)
	ProgramLinked(p Program) bool
	ProgramInfoLog(p Program) string
	UseProgram(p Program)
	DeleteProgram(p Program)
	UniformLocation(p Program, name string) UniformLocation
	AttribLocation(p Program, name string) AttribLocation
	ActiveAttributes(p Program) []Attribute

	Uniform1i(l UniformLocation, v int32)
	Uniform1f(l UniformLocation, v float32)
	Uniform2f(l UniformLocation, x, y float32)
	Uniform3f(l UniformLocation, x, y, z float32)
	Uniform4f(l UniformLocation, x, y, z, w float32)
	UniformMatrix3f(l UniformLocation, m [9]float32)
	UniformMatrix4f(l UniformLocation, m [16]float32)

	CreateBuffer() Buffer
	BindBuffer(b Buffer)
	BufferData(b Buffer, data []float32, usage Usage)
	DeleteBuffer(b Buffer)
	EnableVertexAttribArray(l AttribLocation)
	VertexAttribPointer(l AttribLocation, components, stride, offset int32)

	CreateTexture() Texture
	// TexImage2D (re)defines level 0 of t. pixels is RGBA8, row-major from
	// the bottom row, or nil to leave the contents undefined.
	TexImage2D(t Texture, width, height int, format Format, pixels []byte)
	TexFilter(t Texture, filter Filter)
	BindTexture(unit int, t Texture)
	DeleteTexture(t Texture)

	CreateFramebuffer() Framebuffer
	BindFramebuffer(f Framebuffer)
	FramebufferTexture(f Framebuffer, attachment int, t Texture)
	DrawBuffers(count int)
	FramebufferComplete(f Framebuffer) bool
	DeleteFramebuffer(f Framebuffer)

	Viewport(x, y, width, height int)
	ClearColor(r, g, b, a float32)
	// Clear clears the colour buffer of the bound framebuffer.
	Clear()
	// ClearDepth clears the depth buffer of the bound framebuffer to depth.
	ClearDepth(depth float32)
	Enable(c Capability)
	Disable(c Capability)
	DrawArrays(mode Primitive, first, count int)
}
