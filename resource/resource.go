// Package resource owns the GPU buffers, textures and framebuffers of a
// running demo.
//
// Resources are registered by name. Draw code looks handles up by name every
// frame instead of holding on to them, so a texture swapped in by an
// asynchronous load or rebuilt after a resize is picked up on the next frame.
package resource

import (
	"fmt"

	"render-scaffold/gpu"
)

type Kind int

const (
	BufferKind Kind = iota
	TextureKind
	FramebufferKind
)

func (k Kind) String() string {
	switch k {
	case BufferKind:
		return "buffer"
	case TextureKind:
		return "texture"
	case FramebufferKind:
		return "framebuffer"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Size is the size class of a resource.
type Size int

const (
	// Static resources are created once.
	Static Size = iota
	// SurfaceSized resources are recreated whenever the surface changes size.
	SurfaceSized
)

func (s Size) String() string {
	if s == SurfaceSized {
		return "surface-sized"
	}
	return "static"
}

// Resource describes one registered GPU object.
type Resource struct {
	Name   string
	Kind   Kind
	Size   Size
	Handle uint32

	// Textures.
	Width  int
	Height int
	Format gpu.Format
	Filter gpu.Filter

	// Framebuffers: texture name per colour attachment index.
	Attachments []string

	// Buffers: number of floats uploaded.
	Count int
}

// SurfaceSource reports the current drawable size.
type SurfaceSource interface {
	Size() (int, int)
}
