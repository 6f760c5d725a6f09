package opengl

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"render-scaffold/core"
)

func init() {
	runtime.LockOSThread()
}

type WindowConfig struct {
	Width      int
	Height     int
	Title      string
	Resizable  bool
	VSync      bool
	Fullscreen bool
	Visible    bool
	// MaxFrames stops the loop after that many frames. Zero runs until the
	// window is closed.
	MaxFrames int
}

func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Width:      1280,
		Height:     720,
		Title:      "Render Scaffold",
		Resizable:  true,
		VSync:      true,
		Fullscreen: false,
		Visible:    true,
	}
}

// Window is a GLFW window with a current OpenGL 4.1 core context. It feeds
// framebuffer size changes into its Surface and drives the frame loop.
type Window struct {
	Handle  *glfw.Window
	Surface *core.Surface
	Title   string
	// OnKey is called for every key press other than Escape, which closes
	// the window.
	OnKey func(key glfw.Key)

	maxFrames int
}

func NewWindow(config WindowConfig) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.DepthBits, 24)
	glfw.WindowHint(glfw.Resizable, boolToInt(config.Resizable))
	glfw.WindowHint(glfw.Visible, boolToInt(config.Visible))

	monitor := (*glfw.Monitor)(nil)
	if config.Fullscreen {
		monitor = glfw.GetPrimaryMonitor()
	}

	handle, err := glfw.CreateWindow(config.Width, config.Height, config.Title, monitor, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	handle.MakeContextCurrent()
	if config.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	// Framebuffer size, not window size: they differ on high-DPI displays.
	fbw, fbh := handle.GetFramebufferSize()
	window := &Window{
		Handle:    handle,
		Surface:   core.NewSurface(fbw, fbh),
		Title:     config.Title,
		maxFrames: config.MaxFrames,
	}

	handle.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		window.Surface.Resize(width, height)
	})
	handle.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		if key == glfw.KeyEscape {
			w.SetShouldClose(true)
			return
		}
		if window.OnKey != nil {
			window.OnKey(key)
		}
	})

	logger.Infof("window %q: %dx%d (framebuffer %dx%d)", config.Title, config.Width, config.Height, fbw, fbh)
	return window, nil
}

// Run calls tick once per refresh with glfw's clock in milliseconds, until
// the window closes, MaxFrames is reached or tick fails.
func (w *Window) Run(tick func(now float64) error) error {
	frames := 0
	for !w.Handle.ShouldClose() {
		if err := tick(glfw.GetTime() * 1000); err != nil {
			return err
		}
		w.Handle.SwapBuffers()
		glfw.PollEvents()

		frames++
		if w.maxFrames > 0 && frames >= w.maxFrames {
			break
		}
	}
	return nil
}

func (w *Window) SetTitle(title string) {
	w.Handle.SetTitle(title)
	w.Title = title
}

func (w *Window) Destroy() {
	w.Handle.Destroy()
	glfw.Terminate()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
