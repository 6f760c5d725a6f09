package gpu

import "fmt"

// Uint32 converts a value returned by an extension function into a handle.
// Backends return handles as integer types; anything else yields 0.
func Uint32(v any) uint32 {
	switch n := v.(type) {
	case uint32:
		return n
	case int:
		return uint32(n)
	case int32:
		return uint32(n)
	case int64:
		return uint32(n)
	case uint:
		return uint32(n)
	case uint64:
		return uint32(n)
	case float64:
		return uint32(n)
	}
	return 0
}

// Bool converts an extension function result into a boolean.
func Bool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case int:
		return b != 0
	case uint32:
		return b != 0
	}
	return false
}

func (p Primitive) String() string {
	switch p {
	case Triangles:
		return "triangles"
	case TriangleStrip:
		return "triangle-strip"
	case Points:
		return "points"
	}
	return fmt.Sprintf("primitive(%d)", int(p))
}
