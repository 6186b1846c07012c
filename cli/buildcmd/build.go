// Package buildcmd implements the 'spy ninja' command generating the
// build.ninja for emitted C sources.
package buildcmd

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/spylang/spy/pkg/build"
)

// NewCommands returns the build command set.
func NewCommands() []cli.Command {
	return []cli.Command{{
		Name:      "ninja",
		Usage:     "generate a build.ninja for the given C files",
		ArgsUsage: "<basename> <file.c>...",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "config, c", Usage: "YAML build configuration"},
			cli.StringFlag{Name: "build-dir, d", Value: ".", Usage: "output directory"},
		},
		Action: genNinja,
	}}
}

func genNinja(ctx *cli.Context) error {
	if ctx.NArg() < 2 {
		return cli.NewExitError("expected a basename and at least one C file", 1)
	}
	cfg := build.DefaultConfig()
	if path := ctx.String("config"); path != "" {
		var err error
		cfg, err = build.LoadConfig(path)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
	}
	w := build.NewNinjaWriter(cfg, ctx.String("build-dir"))
	out, err := w.Write(ctx.Args().Get(0), ctx.Args()[1:])
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	fmt.Fprintf(ctx.App.Writer, "wrote %s/build.ninja (output: %s)\n", ctx.String("build-dir"), out)
	return nil
}
