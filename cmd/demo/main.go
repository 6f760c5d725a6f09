package main

import (
	"os"

	"github.com/urfave/cli"

	"render-scaffold/demos"
)

func main() {
	app := cli.NewApp()
	app.Name = "demo"
	app.Usage = "run GPU demo variants in a desktop window"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "run",
			Usage: "run a demo variant",
			Description: `
Open a window, negotiate the variant's GPU capabilities, build its programs
and resources and run its renderers until the window is closed.

Keys 1-9 switch to the renderer with that position in the variant's table.`,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "variant",
					Value: "gradient",
					Usage: "variant to run",
				},
				cli.StringFlag{
					Name:  "renderer, r",
					Value: "0",
					Usage: "initial renderer, by index or name",
				},
				cli.IntFlag{
					Name:  "width",
					Value: 1280,
					Usage: "window width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 720,
					Usage: "window height",
				},
				cli.BoolTFlag{
					Name:  "vsync",
					Usage: "synchronize to the display refresh",
				},
				cli.BoolFlag{
					Name:  "fullscreen",
					Usage: "open a fullscreen window on the primary monitor",
				},
				cli.IntFlag{
					Name:  "frames",
					Value: 0,
					Usage: "stop after this many frames (0 runs until closed)",
				},
				cli.StringSliceFlag{
					Name:  "param, p",
					Value: &cli.StringSlice{},
					Usage: "set a parameter as name=value",
				},
				cli.StringFlag{
					Name:  "image",
					Usage: "image file or http(s) URL for the textured variant",
				},
				cli.StringFlag{
					Name:  "mesh",
					Usage: "glTF file for the mesh variant",
				},
			},
			Action: runVariant,
		},
		{
			Name:   "list",
			Usage:  "list variants and their renderers",
			Action: listVariants,
		},
		{
			Name:  "caps",
			Usage: "check the GPU capabilities a variant needs",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "variant",
					Value: demos.Names()[0],
					Usage: "variant whose capabilities are checked",
				},
			},
			Action: checkCaps,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
