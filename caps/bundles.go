package caps

import "render-scaffold/gpu"

// VertexArrays is the typed surface of OES_vertex_array_object.
type VertexArrays struct {
	Create  func() gpu.VertexArray
	Bind    func(gpu.VertexArray)
	Delete  func(gpu.VertexArray)
	Is      func(gpu.VertexArray) bool
	Binding int
}

// Instancing is the typed surface of ANGLE_instanced_arrays.
type Instancing struct {
	DrawArraysInstanced func(mode gpu.Primitive, first, count, instances int)
	VertexAttribDivisor func(l gpu.AttribLocation, divisor int)
}

// Derivatives is the typed surface of OES_standard_derivatives.
type Derivatives struct {
	Hint int
}

// VertexArrays returns the vertex array bundle if the capability was
// negotiated and exposes every entry the bundle needs.
func (t *Table) VertexArrays() (VertexArrays, bool) {
	if t.vertexArrays == nil {
		return VertexArrays{}, false
	}
	return *t.vertexArrays, true
}

func (t *Table) Instancing() (Instancing, bool) {
	if t.instancing == nil {
		return Instancing{}, false
	}
	return *t.instancing, true
}

func (t *Table) Derivatives() (Derivatives, bool) {
	if t.derivatives == nil {
		return Derivatives{}, false
	}
	return *t.derivatives, true
}

// resolve rebuilds the typed bundles from the normalized entries. Handles
// cross the entry boundary as uint32.
func (t *Table) resolve() {
	t.vertexArrays = nil
	if t.Has(VertexArrayObject) {
		create, ok1 := t.fn(VertexArrayObject, "createVertexArray")
		bind, ok2 := t.fn(VertexArrayObject, "bindVertexArray")
		del, ok3 := t.fn(VertexArrayObject, "deleteVertexArray")
		is, ok4 := t.fn(VertexArrayObject, "isVertexArray")
		binding, _ := t.constant(VertexArrayObject, "VERTEX_ARRAY_BINDING")
		if ok1 && ok2 && ok3 && ok4 {
			t.vertexArrays = &VertexArrays{
				Create:  func() gpu.VertexArray { return gpu.VertexArray(gpu.Uint32(create())) },
				Bind:    func(va gpu.VertexArray) { bind(uint32(va)) },
				Delete:  func(va gpu.VertexArray) { del(uint32(va)) },
				Is:      func(va gpu.VertexArray) bool { return gpu.Bool(is(uint32(va))) },
				Binding: binding,
			}
		} else {
			logger.Warningf("%s is missing entries, typed access disabled", VertexArrayObject)
		}
	}

	t.instancing = nil
	if t.Has(InstancedArrays) {
		draw, ok1 := t.fn(InstancedArrays, "drawArraysInstanced")
		divisor, ok2 := t.fn(InstancedArrays, "vertexAttribDivisor")
		if ok1 && ok2 {
			t.instancing = &Instancing{
				DrawArraysInstanced: func(mode gpu.Primitive, first, count, instances int) {
					draw(mode, first, count, instances)
				},
				VertexAttribDivisor: func(l gpu.AttribLocation, d int) { divisor(l, d) },
			}
		} else {
			logger.Warningf("%s is missing entries, typed access disabled", InstancedArrays)
		}
	}

	t.derivatives = nil
	if t.Has(StandardDerivatives) {
		hint, _ := t.constant(StandardDerivatives, "FRAGMENT_SHADER_DERIVATIVE_HINT")
		t.derivatives = &Derivatives{Hint: hint}
	}
}
