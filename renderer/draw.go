package renderer

import (
	"render-scaffold/gpu"
	"render-scaffold/shader"
)

// UseProgram makes prog current and points every active attribute at buf,
// tightly packed with the given number of float components. A components of
// 0 uses each attribute's declared size. Attributes are queried again on
// every call because locations differ between programs.
func UseProgram(ctx gpu.Context, prog *shader.Program, buf gpu.Buffer, components int32) {
	prog.Use()
	ctx.BindBuffer(buf)
	for _, attr := range prog.ActiveAttributes() {
		loc := ctx.AttribLocation(prog.Handle, attr.Name)
		if loc < 0 {
			continue
		}
		n := components
		if n <= 0 {
			n = attr.Components
		}
		ctx.EnableVertexAttribArray(loc)
		ctx.VertexAttribPointer(loc, n, 0, 0)
	}
}
