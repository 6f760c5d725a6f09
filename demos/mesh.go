package demos

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"render-scaffold/caps"
	"render-scaffold/core"
	"render-scaffold/engine"
	"render-scaffold/gpu"
	"render-scaffold/renderer"
	"render-scaffold/shader"
)

const maxInstances = 16

var meshVariant = &Variant{
	Name:        "mesh",
	Description: "instanced glTF mesh grid",
	Required: []string{
		caps.VertexArrayObject,
		caps.InstancedArrays,
		caps.StandardDerivatives,
	},
	ClearColor: core.Color{R: 0.08, G: 0.08, B: 0.1, A: 1},
	Params:     core.Params{"Instances": 9, "Spin": 0.6},
	Renderers:  []string{"mesh"},
	setup:      setupMesh,
}

// tetrahedron is drawn when no mesh file is given.
var tetrahedron = []float32{
	0, 0.6, 0, -0.5, -0.3, 0.3, 0.5, -0.3, 0.3,
	0, 0.6, 0, 0.5, -0.3, 0.3, 0, -0.3, -0.55,
	0, 0.6, 0, 0, -0.3, -0.55, -0.5, -0.3, 0.3,
	-0.5, -0.3, 0.3, 0, -0.3, -0.55, 0.5, -0.3, 0.3,
}

type mesh struct {
	rt       *engine.Runtime
	prog     *shader.Program
	inst     caps.Instancing
	vao      caps.VertexArrays
	hasVAO   bool
	va       gpu.VertexArray
	vertices int
}

func setupMesh(rt *engine.Runtime, opts Options) ([]renderer.Entry, error) {
	inst, ok := rt.Caps.Instancing()
	if !ok {
		return nil, errors.New("mesh: instanced drawing unavailable")
	}
	prog, err := build(rt, "mesh.vert", "mesh.frag", "uMVP", "uTime")
	if err != nil {
		return nil, err
	}

	m := &mesh{rt: rt, prog: prog, inst: inst}
	if opts.Mesh != "" {
		_, m.vertices, err = rt.Resources.MeshBuffer("mesh", opts.Mesh)
	} else {
		_, err = rt.Resources.StaticBuffer("mesh", tetrahedron)
		m.vertices = len(tetrahedron) / 3
	}
	if err != nil {
		return nil, err
	}
	if _, err := rt.Resources.StaticBuffer("offsets", gridOffsets(maxInstances, 1.4)); err != nil {
		return nil, err
	}

	if m.vao, m.hasVAO = rt.Caps.VertexArrays(); m.hasVAO {
		m.va = m.vao.Create()
	}
	return []renderer.Entry{{Name: "mesh", Draw: m.draw}}, nil
}

// gridOffsets lays n instances out on a square grid centred on the origin,
// row by row.
func gridOffsets(n int, spacing float32) []float32 {
	side := 1
	for side*side < n {
		side++
	}
	half := float32(side-1) / 2
	out := make([]float32, 0, n*2)
	for i := 0; i < n; i++ {
		x, y := float32(i%side), float32(i/side)
		out = append(out, (x-half)*spacing, (y-half)*spacing)
	}
	return out
}

func (m *mesh) draw(f renderer.Frame) error {
	ctx := m.rt.Context
	if m.hasVAO {
		m.vao.Bind(m.va)
		defer m.vao.Bind(0)
	}

	m.prog.Use()
	for _, attr := range m.prog.ActiveAttributes() {
		loc := ctx.AttribLocation(m.prog.Handle, attr.Name)
		if loc < 0 {
			continue
		}
		buf, divisor := m.rt.Resources.Buffer("mesh"), 0
		if attr.Name == "aOffset" {
			buf, divisor = m.rt.Resources.Buffer("offsets"), 1
		}
		ctx.BindBuffer(buf)
		ctx.EnableVertexAttribArray(loc)
		ctx.VertexAttribPointer(loc, attr.Components, 0, 0)
		m.inst.VertexAttribDivisor(loc, divisor)
	}

	height := f.Height
	if height < 1 {
		height = 1
	}
	seconds := float32(f.Time / 1000)
	projection := mgl32.Perspective(mgl32.DegToRad(45), float32(f.Width)/float32(height), 0.1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{0, 1.5, 7}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	model := mgl32.HomogRotate3DY(seconds * float32(f.Params.Get("Spin", 0.6)))
	if err := m.prog.Upload(map[string]any{
		"uMVP":  projection.Mul4(view).Mul4(model),
		"uTime": seconds,
	}); err != nil {
		return err
	}

	instances := int(f.Params.Get("Instances", 9))
	if instances < 1 {
		instances = 1
	}
	if instances > maxInstances {
		instances = maxInstances
	}

	ctx.BindFramebuffer(0)
	ctx.Enable(gpu.DepthTest)
	defer ctx.Disable(gpu.DepthTest)
	ctx.Clear()
	ctx.ClearDepth(1)
	m.inst.DrawArraysInstanced(gpu.Triangles, 0, m.vertices, instances)
	return nil
}
