//go:build js && wasm

package webgl

import (
	"errors"
	"syscall/js"

	"render-scaffold/core"
)

// Canvas is a browser canvas with a WebGL context. It keeps the drawing
// buffer sized to the element's layout size and drives the frame loop with
// requestAnimationFrame.
type Canvas struct {
	Element js.Value
	GL      js.Value
	Surface *core.Surface

	funcs []js.Func
}

// NewCanvas attaches to the canvas with the given id, or creates a canvas
// that fills the page when id is empty or not found.
func NewCanvas(id string) (*Canvas, error) {
	doc := js.Global().Get("document")
	el := js.Null()
	if id != "" {
		el = doc.Call("getElementById", id)
	}
	if el.IsNull() || el.IsUndefined() {
		el = doc.Call("createElement", "canvas")
		style := el.Get("style")
		style.Set("position", "fixed")
		style.Set("left", "0")
		style.Set("top", "0")
		style.Set("width", "100%")
		style.Set("height", "100%")
		style.Set("display", "block")
		doc.Get("body").Call("appendChild", el)
	}

	gl := el.Call("getContext", "webgl", map[string]any{"antialias": false})
	if gl.IsNull() {
		gl = el.Call("getContext", "experimental-webgl")
	}
	if gl.IsNull() || gl.IsUndefined() {
		return nil, errors.New("webgl: canvas has no WebGL context")
	}

	c := &Canvas{Element: el, GL: gl, Surface: core.NewSurface(1, 1)}
	c.rescale()
	c.addEventListener(js.Global(), "resize", func(js.Value, []js.Value) any {
		c.rescale()
		return nil
	})
	w, h := c.Surface.Size()
	logger.Infof("canvas %dx%d", w, h)
	return c, nil
}

func (c *Canvas) rescale() {
	w := c.Element.Get("clientWidth").Int()
	h := c.Element.Get("clientHeight").Int()
	c.Element.Set("width", w)
	c.Element.Set("height", h)
	c.Surface.Resize(w, h)
}

func (c *Canvas) addEventListener(target js.Value, event string, fn func(js.Value, []js.Value) any) {
	f := js.FuncOf(fn)
	c.funcs = append(c.funcs, f)
	target.Call("addEventListener", event, f)
}

// Run calls tick from requestAnimationFrame with the browser's timestamp in
// milliseconds. It blocks until tick fails; the page owns the loop otherwise.
func (c *Canvas) Run(tick func(now float64) error) error {
	done := make(chan error, 1)
	var frame js.Func
	frame = js.FuncOf(func(this js.Value, args []js.Value) any {
		if err := tick(args[0].Float()); err != nil {
			done <- err
			return nil
		}
		js.Global().Call("requestAnimationFrame", frame)
		return nil
	})
	c.funcs = append(c.funcs, frame)
	js.Global().Call("requestAnimationFrame", frame)
	return <-done
}

func (c *Canvas) Release() {
	for _, f := range c.funcs {
		f.Release()
	}
	c.funcs = nil
}

// Alert shows msg in a browser alert box.
func Alert(msg string) {
	js.Global().Call("alert", msg)
}
