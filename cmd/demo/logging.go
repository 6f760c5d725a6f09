package main

import (
	"github.com/urfave/cli"

	"render-scaffold/log"
)

var logger = log.New("demo")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
