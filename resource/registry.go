package resource

import (
	"fmt"
	"sort"
	"sync"

	"render-scaffold/gpu"
	"render-scaffold/log"
)

var logger = log.New("resource")

// Registry creates, rebuilds and releases GPU resources. Every method except
// the background image decoding must be called on the render thread.
type Registry struct {
	ctx     gpu.Context
	surface SurfaceSource

	buffers      map[string]*Resource
	textures     map[string]*Resource
	framebuffers map[string]*Resource

	mu      sync.Mutex
	done    []decoded
	pending int
}

func NewRegistry(ctx gpu.Context, surface SurfaceSource) *Registry {
	return &Registry{
		ctx:          ctx,
		surface:      surface,
		buffers:      make(map[string]*Resource),
		textures:     make(map[string]*Resource),
		framebuffers: make(map[string]*Resource),
	}
}

func (r *Registry) checkFree(name string) error {
	if name == "" {
		return fmt.Errorf("resource: empty name")
	}
	for _, m := range []map[string]*Resource{r.buffers, r.textures, r.framebuffers} {
		if res, ok := m[name]; ok {
			return fmt.Errorf("resource: %s %q already registered", res.Kind, name)
		}
	}
	return nil
}

// ── Buffers ───────────────────────────────────────────────────────────────────

// StaticBuffer uploads vertex data once with a static usage hint.
func (r *Registry) StaticBuffer(name string, data []float32) (gpu.Buffer, error) {
	if err := r.checkFree(name); err != nil {
		return 0, err
	}
	buf := r.ctx.CreateBuffer()
	r.ctx.BindBuffer(buf)
	r.ctx.BufferData(buf, data, gpu.StaticDraw)
	r.ctx.BindBuffer(0)

	r.buffers[name] = &Resource{
		Name:   name,
		Kind:   BufferKind,
		Size:   Static,
		Handle: uint32(buf),
		Count:  len(data),
	}
	logger.Debugf("buffer %q: %d floats", name, len(data))
	return buf, nil
}

// MeshBuffer loads the positions of a mesh file (see LoadMesh) into a static buffer and
// returns the buffer and its vertex count.
func (r *Registry) MeshBuffer(name, path string) (gpu.Buffer, int, error) {
	data, count, err := LoadMesh(path)
	if err != nil {
		return 0, 0, err
	}
	buf, err := r.StaticBuffer(name, data)
	if err != nil {
		return 0, 0, err
	}
	return buf, count, nil
}

// ── Textures ──────────────────────────────────────────────────────────────────

var placeholderPixel = []byte{0, 0, 0, 255}

// PlaceholderTexture registers a 1x1 opaque black texture.
func (r *Registry) PlaceholderTexture(name string) (gpu.Texture, error) {
	if err := r.checkFree(name); err != nil {
		return 0, err
	}
	tex := r.upload(1, 1, gpu.RGBA8, gpu.Nearest, placeholderPixel)
	r.textures[name] = &Resource{
		Name:   name,
		Kind:   TextureKind,
		Size:   Static,
		Handle: uint32(tex),
		Width:  1,
		Height: 1,
		Format: gpu.RGBA8,
		Filter: gpu.Nearest,
	}
	return tex, nil
}

// SurfaceTexture registers a texture that always matches the surface size.
func (r *Registry) SurfaceTexture(name string, format gpu.Format) (gpu.Texture, error) {
	if err := r.checkFree(name); err != nil {
		return 0, err
	}
	w, h := r.surfaceSize()
	tex := r.upload(w, h, format, gpu.Linear, nil)
	r.textures[name] = &Resource{
		Name:   name,
		Kind:   TextureKind,
		Size:   SurfaceSized,
		Handle: uint32(tex),
		Width:  w,
		Height: h,
		Format: format,
		Filter: gpu.Linear,
	}
	logger.Debugf("surface texture %q: %dx%d %s", name, w, h, format)
	return tex, nil
}

func (r *Registry) upload(w, h int, format gpu.Format, filter gpu.Filter, pixels []byte) gpu.Texture {
	tex := r.ctx.CreateTexture()
	r.ctx.TexImage2D(tex, w, h, format, pixels)
	r.ctx.TexFilter(tex, filter)
	return tex
}

func (r *Registry) surfaceSize() (int, int) {
	w, h := r.surface.Size()
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// ── Framebuffers ──────────────────────────────────────────────────────────────

// ColorFramebuffer registers a colour-only framebuffer. Texture i is bound to
// colour attachment i.
func (r *Registry) ColorFramebuffer(name string, colorTextures ...string) (gpu.Framebuffer, error) {
	if err := r.checkFree(name); err != nil {
		return 0, err
	}
	if len(colorTextures) == 0 {
		return 0, fmt.Errorf("resource: framebuffer %q has no attachments", name)
	}
	size := Static
	for _, texName := range colorTextures {
		tex, ok := r.textures[texName]
		if !ok {
			return 0, fmt.Errorf("resource: framebuffer %q: unknown texture %q", name, texName)
		}
		if tex.Size == SurfaceSized {
			size = SurfaceSized
		}
	}

	res := &Resource{
		Name:        name,
		Kind:        FramebufferKind,
		Size:        size,
		Attachments: append([]string(nil), colorTextures...),
	}
	r.attach(res)
	r.framebuffers[name] = res
	return gpu.Framebuffer(res.Handle), nil
}

func (r *Registry) attach(res *Resource) {
	fb := r.ctx.CreateFramebuffer()
	r.ctx.BindFramebuffer(fb)
	for i, texName := range res.Attachments {
		r.ctx.FramebufferTexture(fb, i, gpu.Texture(r.textures[texName].Handle))
	}
	if len(res.Attachments) > 1 {
		r.ctx.DrawBuffers(len(res.Attachments))
	}
	if !r.ctx.FramebufferComplete(fb) {
		logger.Warningf("framebuffer %q incomplete", res.Name)
	}
	r.ctx.BindFramebuffer(0)
	res.Handle = uint32(fb)
}

// ── Resize ────────────────────────────────────────────────────────────────────

// RebuildSurfaceSized recreates every surface-sized texture at the current
// surface size, then recreates every framebuffer attached to one of them.
// It returns the number of resources rebuilt.
func (r *Registry) RebuildSurfaceSized() int {
	w, h := r.surfaceSize()
	rebuilt := make(map[string]bool)

	for _, name := range sortedNames(r.textures) {
		res := r.textures[name]
		if res.Size != SurfaceSized {
			continue
		}
		r.ctx.DeleteTexture(gpu.Texture(res.Handle))
		res.Handle = uint32(r.upload(w, h, res.Format, res.Filter, nil))
		res.Width, res.Height = w, h
		rebuilt[name] = true
	}

	count := len(rebuilt)
	for _, name := range sortedNames(r.framebuffers) {
		res := r.framebuffers[name]
		if !dependsOn(res, rebuilt) {
			continue
		}
		r.ctx.DeleteFramebuffer(gpu.Framebuffer(res.Handle))
		r.attach(res)
		count++
	}
	logger.Infof("rebuilt %d surface-sized resources at %dx%d", count, w, h)
	return count
}

func dependsOn(fb *Resource, textures map[string]bool) bool {
	for _, name := range fb.Attachments {
		if textures[name] {
			return true
		}
	}
	return false
}

func sortedNames(m map[string]*Resource) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ── Lookup ────────────────────────────────────────────────────────────────────

func (r *Registry) Buffer(name string) gpu.Buffer {
	if res, ok := r.buffers[name]; ok {
		return gpu.Buffer(res.Handle)
	}
	return 0
}

func (r *Registry) Texture(name string) gpu.Texture {
	if res, ok := r.textures[name]; ok {
		return gpu.Texture(res.Handle)
	}
	return 0
}

func (r *Registry) Framebuffer(name string) gpu.Framebuffer {
	if res, ok := r.framebuffers[name]; ok {
		return gpu.Framebuffer(res.Handle)
	}
	return 0
}

// Get returns a copy of the named resource's description.
func (r *Registry) Get(name string) (Resource, bool) {
	for _, m := range []map[string]*Resource{r.buffers, r.textures, r.framebuffers} {
		if res, ok := m[name]; ok {
			out := *res
			out.Attachments = append([]string(nil), res.Attachments...)
			return out, true
		}
	}
	return Resource{}, false
}

// List returns every registered resource, sorted by kind then name.
func (r *Registry) List() []Resource {
	var out []Resource
	for _, m := range []map[string]*Resource{r.buffers, r.textures, r.framebuffers} {
		for _, name := range sortedNames(m) {
			res, _ := r.Get(name)
			out = append(out, res)
		}
	}
	return out
}

// Destroy releases framebuffers, then textures, then buffers. Loads still in
// flight are discarded when they complete.
func (r *Registry) Destroy() {
	for _, name := range sortedNames(r.framebuffers) {
		r.ctx.DeleteFramebuffer(gpu.Framebuffer(r.framebuffers[name].Handle))
	}
	for _, name := range sortedNames(r.textures) {
		r.ctx.DeleteTexture(gpu.Texture(r.textures[name].Handle))
	}
	for _, name := range sortedNames(r.buffers) {
		r.ctx.DeleteBuffer(gpu.Buffer(r.buffers[name].Handle))
	}
	r.framebuffers = make(map[string]*Resource)
	r.textures = make(map[string]*Resource)
	r.buffers = make(map[string]*Resource)
}
