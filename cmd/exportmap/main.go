package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/exportmap/cmd/exportmap/commands"
	ferrors "git.home.luguber.info/inful/exportmap/internal/foundation/errors"
	"git.home.luguber.info/inful/exportmap/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("exportmap"),
		kong.Description("Resolve and statically export the routes of a page-based site."),
		kong.Vars{"version": version.String()},
		kong.UsageOnError(),
	)

	global := &commands.Global{Logger: slog.Default(), Out: os.Stdout}
	err := parser.Run(global, cli)
	ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
