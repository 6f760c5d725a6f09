package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"render-scaffold/caps"
	"render-scaffold/demos"
	"render-scaffold/internal/opengl"
)

func listVariants(ctx *cli.Context) error {
	setupLogging(ctx)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Variant", "Renderers", "Parameters", "Description"})
	for _, v := range demos.All() {
		var params []string
		for _, name := range v.Params.Names() {
			params = append(params, fmt.Sprintf("%s=%g", name, v.Params[name]))
		}
		table.Append([]string{
			v.Name,
			strings.Join(v.Renderers, ", "),
			strings.Join(params, " "),
			v.Description,
		})
	}
	table.Render()
	fmt.Print(buf.String())
	return nil
}

// checkCaps installs each capability the variant needs on a hidden window's
// context and reports every one, where run would stop at the first missing.
func checkCaps(ctx *cli.Context) error {
	setupLogging(ctx)

	variant, err := demos.Lookup(ctx.String("variant"))
	if err != nil {
		return err
	}
	required := variant.Required
	if required == nil {
		required = caps.DefaultRequired
	}

	windowConfig := opengl.DefaultWindowConfig()
	windowConfig.Visible = false
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

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Capability", "Status", "Entries"})

	missing := 0
	t := caps.NewTable()
	for _, name := range required {
		if err := t.Install(gl, name); err != nil {
			missing++
			table.Append([]string{name, "missing", ""})
			continue
		}
		table.Append([]string{name, "ok", strings.Join(t.Entries(name), "\n")})
	}
	table.SetFooter([]string{"", fmt.Sprintf("%d missing", missing), ""})
	table.Render()
	fmt.Print(buf.String())

	if missing > 0 {
		return fmt.Errorf("variant %s: %d of %d capabilities missing", variant.Name, missing, len(required))
	}
	return nil
}
