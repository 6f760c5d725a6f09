package engine

import (
	"errors"
	"strings"
	"testing"

	"render-scaffold/caps"
	"render-scaffold/core"
	"render-scaffold/gpu"
	"render-scaffold/gpu/gputest"
	"render-scaffold/renderer"
	"render-scaffold/shader"
)

const vertexSrc = `attribute vec2 aPosition;
void main() { gl_Position = vec4(aPosition, 0.0, 1.0); }
`

const fragmentSrc = `uniform sampler2D uPrevious;
void main() { gl_FragColor = texture2D(uPrevious, vec2(0.5)); }
`

// stepHost calls tick once per timestamp and stops at the first error.
type stepHost struct {
	times []float64
}

func (h stepHost) Run(tick func(now float64) error) error {
	for _, now := range h.times {
		if err := tick(now); err != nil {
			return err
		}
	}
	return nil
}

type endToEnd struct {
	ctx    *gputest.Context
	frames []renderer.Frame
	target gpu.Framebuffer
}

func (e *endToEnd) setup(rt *Runtime) ([]renderer.Entry, error) {
	prog, err := rt.Shaders.Build(vertexSrc, fragmentSrc)
	if err != nil {
		return nil, err
	}
	prog.BindSamplers("uPrevious")
	if _, err := rt.Resources.StaticBuffer("quad", []float32{-1, -1, 3, -1, -1, 3}); err != nil {
		return nil, err
	}
	if _, err := rt.Resources.SurfaceTexture("color", gpu.RGBA8); err != nil {
		return nil, err
	}
	if _, err := rt.Resources.ColorFramebuffer("target", "color"); err != nil {
		return nil, err
	}

	draw := func(f renderer.Frame) error {
		e.frames = append(e.frames, f)
		e.target = rt.Resources.Framebuffer("target")
		renderer.UseProgram(rt.Context, prog, rt.Resources.Buffer("quad"), 2)
		rt.Context.BindFramebuffer(e.target)
		rt.Context.DrawArrays(gpu.Triangles, 0, 3)
		return nil
	}
	return []renderer.Entry{{Name: "main", Draw: draw}}, nil
}

func TestEndToEndThreeTicks(t *testing.T) {
	ctx := gputest.New(caps.DefaultRequired...)
	surface := core.NewSurface(640, 360)
	e := &endToEnd{ctx: ctx}

	cfg := DefaultConfig()
	cfg.Setup = e.setup
	rt := New(ctx, surface, cfg)
	if err := rt.Bootstrap(); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	bootTarget := rt.Resources.Framebuffer("target")

	if err := rt.Run(stepHost{times: []float64{1000, 1016.5, 1033}}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if n := ctx.Count("CompileShader"); n != 2 {
		t.Errorf("CompileShader: expected 2, got %d", n)
	}
	if n := ctx.Count("LinkProgram"); n != 1 {
		t.Errorf("LinkProgram: expected 1, got %d", n)
	}
	if n := rt.Scheduler.Rebuilds(); n != 1 {
		t.Errorf("Rebuilds: expected 1, got %d", n)
	}
	if n := ctx.Count("DeleteFramebuffer"); n != 1 {
		t.Errorf("DeleteFramebuffer: expected 1, got %d", n)
	}
	if !ctx.Framebuffer(bootTarget).Deleted {
		t.Error("tick 1: bootstrap framebuffer not rebuilt")
	}

	if len(e.frames) != 3 {
		t.Fatalf("renderer: expected 3 invocations, got %d", len(e.frames))
	}
	for i, f := range e.frames {
		if f.Index != uint64(i) {
			t.Errorf("frame %d: index %d", i, f.Index)
		}
		if i > 0 && f.Time < e.frames[i-1].Time {
			t.Errorf("frame %d: time went backwards", i)
		}
	}
	if e.frames[0].Delta != 0 || e.frames[1].Delta != 16.5 {
		t.Errorf("delta: expected 0 then 16.5, got %v, %v", e.frames[0].Delta, e.frames[1].Delta)
	}
	for _, d := range ctx.Draws {
		if d.Framebuffer != e.target {
			t.Errorf("draw: expected framebuffer %d, got %d", e.target, d.Framebuffer)
		}
	}
	if ctx.ViewportRect != [4]int{0, 0, 640, 360} {
		t.Errorf("Viewport: unexpected %v", ctx.ViewportRect)
	}
	if ctx.ClearRGBA != [4]float32{0.75, 0, 0.6, 1} {
		t.Errorf("ClearColor: unexpected %v", ctx.ClearRGBA)
	}
}

func TestResizeBurstRebuildsOnce(t *testing.T) {
	ctx := gputest.New(caps.DefaultRequired...)
	surface := core.NewSurface(100, 100)
	e := &endToEnd{ctx: ctx}

	var resized [][2]int
	cfg := DefaultConfig()
	cfg.Setup = e.setup
	cfg.OnResize = func(w, h int) { resized = append(resized, [2]int{w, h}) }
	rt := New(ctx, surface, cfg)
	if err := rt.Bootstrap(); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	tick := rt.Scheduler.Tick
	if err := tick(0); err != nil {
		t.Fatal(err)
	}
	if err := tick(16); err != nil {
		t.Fatal(err)
	}
	surface.Resize(200, 120)
	surface.Resize(300, 180)
	surface.Resize(400, 240)
	if err := tick(32); err != nil {
		t.Fatal(err)
	}
	if err := tick(48); err != nil {
		t.Fatal(err)
	}

	if n := rt.Scheduler.Rebuilds(); n != 2 {
		t.Errorf("Rebuilds: expected 2, got %d", n)
	}
	expected := [][2]int{{100, 100}, {400, 240}}
	if len(resized) != 2 || resized[0] != expected[0] || resized[1] != expected[1] {
		t.Errorf("OnResize: expected %v, got %v", expected, resized)
	}
	tex := ctx.Texture(rt.Resources.Texture("color"))
	if tex.Width != 400 || tex.Height != 240 {
		t.Errorf("color: expected 400x240, got %dx%d", tex.Width, tex.Height)
	}
	if ctx.ViewportRect != [4]int{0, 0, 400, 240} {
		t.Errorf("Viewport: unexpected %v", ctx.ViewportRect)
	}
	if surface.Dirty() {
		t.Error("Surface: expected clean after rebuild")
	}
}

func TestMissingCapabilityFailsClosed(t *testing.T) {
	ctx := gputest.New(caps.VertexArrayObject)
	var notices []string
	cfg := DefaultConfig()
	cfg.Notifier = NotifierFunc(func(msg string) { notices = append(notices, msg) })
	setupRan := false
	cfg.Setup = func(*Runtime) ([]renderer.Entry, error) {
		setupRan = true
		return nil, nil
	}

	rt := New(ctx, core.NewSurface(10, 10), cfg)
	err := rt.Bootstrap()
	if !errors.Is(err, caps.ErrCapabilityMissing) {
		t.Fatalf("Bootstrap: expected ErrCapabilityMissing, got %v", err)
	}
	if rt.Context != nil {
		t.Error("Bootstrap: context not dropped")
	}
	if setupRan {
		t.Error("Bootstrap: setup ran without capabilities")
	}
	if len(notices) != 1 || !strings.Contains(notices[0], caps.InstancedArrays) {
		t.Errorf("Notifier: unexpected notices %v", notices)
	}
	if err := rt.Run(stepHost{times: []float64{0}}); !errors.Is(err, ErrNoContext) {
		t.Errorf("Run: expected ErrNoContext, got %v", err)
	}
	if err := rt.Bootstrap(); !errors.Is(err, ErrNoContext) {
		t.Errorf("Bootstrap: expected ErrNoContext on retry, got %v", err)
	}
}

func TestUnknownRendererStopsLoop(t *testing.T) {
	ctx := gputest.New(caps.DefaultRequired...)
	e := &endToEnd{ctx: ctx}
	cfg := DefaultConfig()
	cfg.Setup = e.setup
	cfg.Selector = renderer.ByName("missing")

	rt := New(ctx, core.NewSurface(10, 10), cfg)
	if err := rt.Bootstrap(); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	err := rt.Run(stepHost{times: []float64{0, 16, 32}})
	if !errors.Is(err, renderer.ErrUnknownRenderer) {
		t.Fatalf("Run: expected ErrUnknownRenderer, got %v", err)
	}
	if rt.Scheduler.Frames() != 1 {
		t.Errorf("Run: expected loop to stop after 1 frame, got %d", rt.Scheduler.Frames())
	}
}

func TestSelectorReadEveryFrame(t *testing.T) {
	ctx := gputest.New(caps.DefaultRequired...)
	var seen []string
	entry := func(name string) renderer.Entry {
		return renderer.Entry{Name: name, Draw: func(renderer.Frame) error {
			seen = append(seen, name)
			return nil
		}}
	}
	sel := renderer.NewSelectorVar(renderer.ByName("a"))
	cfg := DefaultConfig()
	cfg.Selector = sel
	cfg.Setup = func(*Runtime) ([]renderer.Entry, error) {
		return []renderer.Entry{entry("a"), entry("b")}, nil
	}

	rt := New(ctx, core.NewSurface(10, 10), cfg)
	if err := rt.Bootstrap(); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	rt.Scheduler.Tick(0)
	sel.Set(renderer.ByIndex(1))
	rt.Scheduler.Tick(16)
	if strings.Join(seen, ",") != "a,b" {
		t.Errorf("selector: expected a,b, got %v", seen)
	}
}

func TestFrameClock(t *testing.T) {
	var c FrameClock
	for i, tc := range []struct {
		now, delta float64
	}{
		{100, 0},
		{116, 16},
		{116, 0},
		{150, 34},
	} {
		index, delta := c.Advance(tc.now)
		if index != uint64(i) || delta != tc.delta {
			t.Errorf("Advance(%v): expected (%d, %v), got (%d, %v)", tc.now, i, tc.delta, index, delta)
		}
	}
}

func TestDestroyAfterFailedSetup(t *testing.T) {
	ctx := gputest.New(caps.DefaultRequired...)
	var first *shader.Program
	var quad gpu.Buffer
	cfg := DefaultConfig()
	cfg.Setup = func(rt *Runtime) ([]renderer.Entry, error) {
		var err error
		if first, err = rt.Shaders.Build(vertexSrc, fragmentSrc); err != nil {
			return nil, err
		}
		if quad, err = rt.Resources.StaticBuffer("quad", []float32{-1, -1, 3, -1, -1, 3}); err != nil {
			return nil, err
		}
		_, err = rt.Shaders.Build(vertexSrc, "#error unsupported\n")
		return nil, err
	}

	rt := New(ctx, core.NewSurface(10, 10), cfg)
	if err := rt.Bootstrap(); !errors.Is(err, shader.ErrCompile) {
		t.Fatalf("Bootstrap: expected ErrCompile, got %v", err)
	}
	handle, stage := first.Handle, first.Stages[0].Handle
	rt.Destroy()

	if !ctx.Program(handle).Deleted || !ctx.Shader(stage).Deleted {
		t.Error("Destroy: program from partial setup not released")
	}
	if !ctx.Buffer(quad).Deleted {
		t.Error("Destroy: buffer from partial setup not released")
	}
}
