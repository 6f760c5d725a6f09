package demos

import (
	"bytes"
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/bmp"

	"render-scaffold/core"
	"render-scaffold/engine"
	"render-scaffold/gpu"
	"render-scaffold/renderer"
	"render-scaffold/resource"
)

var clearVariant = &Variant{
	Name:        "clear",
	Description: "clears the back buffer every frame",
	ClearColor:  core.ColorMagenta,
	Params:      core.Params{},
	Renderers:   []string{"clear"},
	setup: func(rt *engine.Runtime, _ Options) ([]renderer.Entry, error) {
		draw := func(renderer.Frame) error {
			rt.Context.BindFramebuffer(0)
			rt.Context.Clear()
			return nil
		}
		return []renderer.Entry{{Name: "clear", Draw: draw}}, nil
	},
}

var gradientVariant = &Variant{
	Name:        "gradient",
	Description: "time-animated full-screen gradient",
	ClearColor:  core.ColorBlack,
	Params:      core.Params{"Speed": 1},
	Renderers:   []string{"gradient"},
	setup:       setupGradient,
}

func setupGradient(rt *engine.Runtime, _ Options) ([]renderer.Entry, error) {
	prog, err := build(rt, "quad.vert", "gradient.frag", "uTime", "uResolution", "Speed")
	if err != nil {
		return nil, err
	}
	if _, err := rt.Resources.StaticBuffer("quad", fullscreenQuad); err != nil {
		return nil, err
	}

	draw := func(f renderer.Frame) error {
		rt.Context.BindFramebuffer(0)
		renderer.UseProgram(rt.Context, prog, rt.Resources.Buffer("quad"), 2)
		if err := prog.Upload(map[string]any{
			"uTime":       float32(f.Time / 1000),
			"uResolution": mgl32.Vec2{float32(f.Width), float32(f.Height)},
		}); err != nil {
			return err
		}
		prog.UploadParams(f.Params)
		rt.Context.DrawArrays(gpu.TriangleStrip, 0, 4)
		return nil
	}
	return []renderer.Entry{{Name: "gradient", Draw: draw}}, nil
}

var texturedVariant = &Variant{
	Name:        "textured",
	Description: "asynchronously loaded image on a full-screen quad",
	ClearColor:  core.ColorBlack,
	Params:      core.Params{},
	Renderers:   []string{"textured"},
	setup:       setupTextured,
}

func setupTextured(rt *engine.Runtime, opts Options) ([]renderer.Entry, error) {
	prog, err := build(rt, "quad.vert", "textured.frag", "uTime")
	if err != nil {
		return nil, err
	}
	prog.BindSamplers("uImage")
	if _, err := rt.Resources.StaticBuffer("quad", fullscreenQuad); err != nil {
		return nil, err
	}

	src := opts.Image
	if src == nil {
		src, err = Checkerboard(256, 32)
		if err != nil {
			return nil, err
		}
	}
	if _, err := rt.Resources.LoadTexture("image", src); err != nil {
		return nil, err
	}

	draw := func(f renderer.Frame) error {
		rt.Context.BindFramebuffer(0)
		renderer.UseProgram(rt.Context, prog, rt.Resources.Buffer("quad"), 2)
		rt.Context.BindTexture(0, rt.Resources.Texture("image"))
		if err := prog.Upload(map[string]any{"uTime": float32(f.Time / 1000)}); err != nil {
			return err
		}
		rt.Context.DrawArrays(gpu.TriangleStrip, 0, 4)
		return nil
	}
	return []renderer.Entry{{Name: "textured", Draw: draw}}, nil
}

// Checkerboard encodes a size x size BMP of alternating cells.
func Checkerboard(size, cell int) (resource.BytesSource, error) {
	light := color.RGBA{0xe0, 0xe0, 0xe0, 0xff}
	dark := color.RGBA{0x30, 0x30, 0x40, 0xff}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := dark
			if (x/cell+y/cell)%2 == 0 {
				c = light
			}
			img.SetRGBA(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		return resource.BytesSource{}, err
	}
	return resource.BytesSource{Name: "checkerboard.bmp", Data: buf.Bytes()}, nil
}
