package demos

import (
	"github.com/go-gl/mathgl/mgl32"

	"render-scaffold/core"
	"render-scaffold/engine"
	"render-scaffold/gpu"
	"render-scaffold/renderer"
	"render-scaffold/shader"
)

var feedbackVariant = &Variant{
	Name:        "feedback",
	Description: "ping-pong feedback through surface-sized framebuffers",
	ClearColor:  core.ColorBlack,
	Params:      core.Params{"Decay": 0.98},
	Renderers:   []string{"feedback", "direct"},
	setup:       setupFeedback,
}

// pingPong names the two texture/framebuffer pairs the feedback renderer
// alternates between.
var pingPong = [2]struct{ texture, target string }{
	{"ping", "pingTarget"},
	{"pong", "pongTarget"},
}

type feedback struct {
	rt      *engine.Runtime
	step    *shader.Program
	present *shader.Program
}

func setupFeedback(rt *engine.Runtime, _ Options) ([]renderer.Entry, error) {
	step, err := build(rt, "quad.vert", "feedback.frag.b64", "uTime", "uResolution", "Decay")
	if err != nil {
		return nil, err
	}
	step.BindSamplers("uPrevious")
	present, err := build(rt, "quad.vert", "present.frag")
	if err != nil {
		return nil, err
	}
	present.BindSamplers("uImage")

	if _, err := rt.Resources.StaticBuffer("quad", fullscreenQuad); err != nil {
		return nil, err
	}
	for _, p := range pingPong {
		if _, err := rt.Resources.SurfaceTexture(p.texture, gpu.RGBA8); err != nil {
			return nil, err
		}
		if _, err := rt.Resources.ColorFramebuffer(p.target, p.texture); err != nil {
			return nil, err
		}
	}

	fb := &feedback{rt: rt, step: step, present: present}
	return []renderer.Entry{
		{Name: "feedback", Draw: fb.drawFeedback},
		{Name: "direct", Draw: fb.drawDirect},
	}, nil
}

// drawStep runs the feedback shader into target, sampling the previous
// frame's texture.
func (fb *feedback) drawStep(f renderer.Frame, target gpu.Framebuffer, previous string) error {
	ctx := fb.rt.Context
	ctx.BindFramebuffer(target)
	renderer.UseProgram(ctx, fb.step, fb.rt.Resources.Buffer("quad"), 2)
	ctx.BindTexture(0, fb.rt.Resources.Texture(previous))
	if err := fb.step.Upload(map[string]any{
		"uTime":       float32(f.Time / 1000),
		"uResolution": mgl32.Vec2{float32(f.Width), float32(f.Height)},
	}); err != nil {
		return err
	}
	fb.step.UploadParams(f.Params)
	ctx.DrawArrays(gpu.TriangleStrip, 0, 4)
	return nil
}

func (fb *feedback) drawFeedback(f renderer.Frame) error {
	read, write := pingPong[f.Index%2], pingPong[(f.Index+1)%2]
	if err := fb.drawStep(f, fb.rt.Resources.Framebuffer(write.target), read.texture); err != nil {
		return err
	}

	ctx := fb.rt.Context
	ctx.BindFramebuffer(0)
	renderer.UseProgram(ctx, fb.present, fb.rt.Resources.Buffer("quad"), 2)
	ctx.BindTexture(0, fb.rt.Resources.Texture(write.texture))
	ctx.DrawArrays(gpu.TriangleStrip, 0, 4)
	return nil
}

// drawDirect runs one feedback step straight to the back buffer without
// storing it.
func (fb *feedback) drawDirect(f renderer.Frame) error {
	return fb.drawStep(f, 0, pingPong[f.Index%2].texture)
}
