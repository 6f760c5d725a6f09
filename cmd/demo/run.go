package main

import (
	"fmt"
	"strings"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/urfave/cli"

	"render-scaffold/core"
	"render-scaffold/demos"
	"render-scaffold/engine"
	"render-scaffold/internal/opengl"
	"render-scaffold/renderer"
	"render-scaffold/resource"
)

func runVariant(ctx *cli.Context) error {
	setupLogging(ctx)

	variant, err := demos.Lookup(ctx.String("variant"))
	if err != nil {
		return err
	}
	params, err := core.ParseParams(ctx.StringSlice("param"))
	if err != nil {
		return err
	}
	opts := demos.Options{Mesh: ctx.String("mesh"), Params: params}
	if img := ctx.String("image"); img != "" {
		opts.Image = imageSource(img)
	}

	windowConfig := opengl.DefaultWindowConfig()
	windowConfig.Title = "Render Scaffold - " + variant.Name
	windowConfig.Width = ctx.Int("width")
	windowConfig.Height = ctx.Int("height")
	windowConfig.VSync = ctx.BoolT("vsync")
	windowConfig.Fullscreen = ctx.Bool("fullscreen")
	windowConfig.MaxFrames = ctx.Int("frames")

	window, err := opengl.NewWindow(windowConfig)
	if err != nil {
		return err
	}
	defer window.Destroy()

	gl, err := opengl.NewContext()
	if err != nil {
		return err
	}
	defer gl.Destroy()

	selector := renderer.NewSelectorVar(renderer.ParseSelector(ctx.String("renderer")))
	window.OnKey = func(key glfw.Key) {
		if key >= glfw.Key1 && key <= glfw.Key9 {
			selector.Set(renderer.ByIndex(int(key - glfw.Key1)))
		}
	}

	cfg := variant.Config(opts)
	cfg.Selector = selector
	rt := engine.New(gl, window.Surface, cfg)
	defer rt.Destroy()
	if err := rt.Bootstrap(); err != nil {
		return err
	}

	return rt.Run(&titleHost{Window: window, base: windowConfig.Title, selector: selector})
}

func imageSource(arg string) resource.ImageSource {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return resource.URLSource(arg)
	}
	return resource.FileSource(arg)
}

// titleHost runs the window loop and shows the active renderer and frame
// rate in the title bar, refreshed once a second.
type titleHost struct {
	*opengl.Window
	base     string
	selector renderer.SelectorSource

	frames int
	since  float64
}

func (h *titleHost) Run(tick func(now float64) error) error {
	return h.Window.Run(func(now float64) error {
		if err := tick(now); err != nil {
			return err
		}
		h.frames++
		if elapsed := now - h.since; elapsed >= 1000 {
			fps := float64(h.frames) * 1000 / elapsed
			h.SetTitle(fmt.Sprintf("%s | renderer %s | %.0f FPS", h.base, h.selector.Selector(), fps))
			h.frames, h.since = 0, now
		}
		return nil
	})
}
