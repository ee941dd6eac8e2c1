package main

import (
	"os"

	"github.com/yndnr/statictls/internal/cli/command"
)

func main() {
	app := command.App(os.Stdout, os.Stderr)

	if err := app.Run(os.Args); err != nil {
		command.PrintError("%v", err)
		os.Exit(1)
	}
}
