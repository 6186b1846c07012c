// Package app assembles the spy CLI.
package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/urfave/cli"

	"github.com/spylang/spy/cli/buildcmd"
	"github.com/spylang/spy/cli/fqncmd"
)

// Version is the version of the compiler, set at build time.
var Version = "dev"

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "spy\nVersion: %s\nGoVersion: %s\n",
		Version, runtime.Version())
}

// New creates a spy instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "spy"
	ctl.Version = Version
	ctl.Usage = "SPy ahead-of-time compiler toolchain"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, fqncmd.NewCommands()...)
	ctl.Commands = append(ctl.Commands, buildcmd.NewCommands()...)
	return ctl
}
