// Package engine wires the runtime together: it negotiates capabilities,
// lets a demo build its programs, resources and renderers, and then drives
// the frame loop.
package engine

import (
	"errors"
	"fmt"
	"os"

	"render-scaffold/caps"
	"render-scaffold/core"
	"render-scaffold/gpu"
	"render-scaffold/log"
	"render-scaffold/renderer"
	"render-scaffold/resource"
	"render-scaffold/shader"
)

var logger = log.New("engine")

// ErrNoContext is returned once the GPU context has been given up.
var ErrNoContext = errors.New("engine: no usable GPU context")

// SetupFunc compiles a demo's programs, allocates its resources and returns
// its renderers. It runs once, after capabilities are negotiated.
type SetupFunc func(rt *Runtime) ([]renderer.Entry, error)

// Notifier shows a message to the user outside the log.
type Notifier interface {
	Notify(msg string)
}

type NotifierFunc func(msg string)

func (f NotifierFunc) Notify(msg string) { f(msg) }

// StderrNotifier prints notices to standard error.
var StderrNotifier = NotifierFunc(func(msg string) {
	fmt.Fprintln(os.Stderr, msg)
})

type Config struct {
	Required   []string
	ClearColor core.Color
	Params     core.Params
	Selector   renderer.SelectorSource
	Setup      SetupFunc
	OnResize   ResizeFunc
	Notifier   Notifier
}

func DefaultConfig() Config {
	return Config{
		Required:   append([]string(nil), caps.DefaultRequired...),
		ClearColor: core.ColorMagenta,
		Params:     core.Params{},
		Selector:   renderer.ByIndex(0),
		Notifier:   StderrNotifier,
	}
}

// Runtime owns one of each component. Fields are filled in by Bootstrap.
type Runtime struct {
	Config Config

	Context   gpu.Context
	Surface   *core.Surface
	Caps      *caps.Table
	Shaders   *shader.Pipeline
	Resources *resource.Registry
	Renderers *renderer.Table
	Scheduler *Scheduler
}

func New(ctx gpu.Context, surface *core.Surface, cfg Config) *Runtime {
	if cfg.Selector == nil {
		cfg.Selector = renderer.ByIndex(0)
	}
	if cfg.Params == nil {
		cfg.Params = core.Params{}
	}
	if cfg.Notifier == nil {
		cfg.Notifier = StderrNotifier
	}
	return &Runtime{Config: cfg, Context: ctx, Surface: surface}
}

// Bootstrap negotiates capabilities, runs the demo setup and builds the
// scheduler. A missing capability drops the GPU context for good and
// notifies the user.
func (rt *Runtime) Bootstrap() error {
	if rt.Context == nil {
		return ErrNoContext
	}

	table, err := caps.Negotiate(rt.Context, rt.Config.Required)
	if err != nil {
		rt.Context = nil
		rt.Config.Notifier.Notify(fmt.Sprintf("Unable to start: %v", err))
		return fmt.Errorf("negotiate capabilities: %w", err)
	}
	rt.Caps = table
	rt.Shaders = shader.NewPipeline(rt.Context)
	rt.Resources = resource.NewRegistry(rt.Context, rt.Surface)

	var entries []renderer.Entry
	if rt.Config.Setup != nil {
		entries, err = rt.Config.Setup(rt)
		if err != nil {
			return fmt.Errorf("setup: %w", err)
		}
	}
	rt.Renderers, err = renderer.NewTable(entries...)
	if err != nil {
		return fmt.Errorf("renderer table: %w", err)
	}

	c := rt.Config.ClearColor
	rt.Context.ClearColor(c.R, c.G, c.B, c.A)

	rt.Scheduler = &Scheduler{
		ctx:       rt.Context,
		surface:   rt.Surface,
		resources: rt.Resources,
		table:     rt.Renderers,
		selector:  rt.Config.Selector,
		params:    rt.Config.Params,
		onResize:  rt.Config.OnResize,
	}

	w, h := rt.Surface.Size()
	logger.Noticef("runtime ready: %dx%d, %d programs, %d renderers (%v)",
		w, h, len(rt.Shaders.Programs()), rt.Renderers.Len(), rt.Renderers.Names())
	return nil
}

// Run hands the scheduler to host and blocks until the loop ends.
func (rt *Runtime) Run(host Host) error {
	if rt.Context == nil || rt.Scheduler == nil {
		return ErrNoContext
	}
	err := host.Run(rt.Scheduler.Tick)
	logger.Infof("loop ended after %d frames", rt.Scheduler.Frames())
	return err
}

// Destroy releases every GPU object the runtime created, including those a
// failed Bootstrap left behind.
func (rt *Runtime) Destroy() {
	if rt.Resources != nil {
		rt.Resources.Destroy()
	}
	if rt.Shaders != nil {
		rt.Shaders.Destroy()
	}
}
