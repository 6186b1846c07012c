// Package fqncmd implements the 'spy fqn' inspection commands.
package fqncmd

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/spylang/spy/pkg/fqn"
)

// NewCommands returns the fqn command set.
func NewCommands() []cli.Command {
	return []cli.Command{{
		Name:      "fqn",
		Usage:     "parse a fully-qualified name and print its canonical and C forms",
		ArgsUsage: "<fqn>",
		Action:    parseFQN,
	}}
}

func parseFQN(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("expected exactly one FQN argument", 1)
	}
	f, err := fqn.Parse(ctx.Args().Get(0))
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("invalid FQN: %v", err), 1)
	}
	in := fqn.NewInterner()
	fmt.Fprintf(ctx.App.Writer, "fqn:    %s\n", f)
	fmt.Fprintf(ctx.App.Writer, "c_name: %s\n", f.CName(in))
	return nil
}
