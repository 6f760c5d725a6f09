//go:build js && wasm

// Command webdemo runs a demo variant on a browser canvas. The page's query
// string picks the variant:
//
//	index.html?variant=feedback&renderer=direct&param=Decay=0.9&debug
package main

import (
	"net/url"
	"syscall/js"

	"render-scaffold/core"
	"render-scaffold/demos"
	"render-scaffold/engine"
	"render-scaffold/internal/webgl"
	"render-scaffold/log"
	"render-scaffold/renderer"
	"render-scaffold/resource"
)

var logger = log.New("webdemo")

func main() {
	query := url.Values{}
	if u, err := url.Parse(js.Global().Get("location").Get("href").String()); err == nil {
		query = u.Query()
	}
	if query.Has("debug") {
		log.SetLevel(log.Debug)
	}

	variant, err := demos.Lookup(valueOr(query, "variant", "gradient"))
	if err != nil {
		webgl.Alert(err.Error())
		return
	}
	params, err := core.ParseParams(query["param"])
	if err != nil {
		webgl.Alert(err.Error())
		return
	}
	opts := demos.Options{Params: params}
	if img := query.Get("image"); img != "" {
		opts.Image = resource.URLSource(img)
	}

	canvas, err := webgl.NewCanvas(valueOr(query, "canvas", "canvas"))
	if err != nil {
		webgl.Alert(err.Error())
		return
	}
	defer canvas.Release()

	// selectRenderer(indexOrName) lets the page switch renderers.
	selector := renderer.NewSelectorVar(renderer.ParseSelector(valueOr(query, "renderer", "0")))
	selectRenderer := js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) > 0 {
			selector.Set(renderer.ParseSelector(args[0].String()))
		}
		return nil
	})
	defer selectRenderer.Release()
	js.Global().Set("selectRenderer", selectRenderer)

	cfg := variant.Config(opts)
	cfg.Selector = selector
	cfg.Notifier = engine.NotifierFunc(webgl.Alert)
	rt := engine.New(webgl.NewContext(canvas.GL), canvas.Surface, cfg)
	defer rt.Destroy()
	if err := rt.Bootstrap(); err != nil {
		logger.Error(err)
		return
	}

	if err := rt.Run(canvas); err != nil {
		logger.Error(err)
	}
}

func valueOr(query url.Values, key, def string) string {
	if v := query.Get(key); v != "" {
		return v
	}
	return def
}
