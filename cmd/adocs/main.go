package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/adocs/cmd/adocs/commands"
	foundation "git.home.luguber.info/inful/adocs/internal/foundation/errors"
	"git.home.luguber.info/inful/adocs/internal/version"
)

func main() {
	var cli commands.CLI
	global := &commands.Global{Logger: slog.Default()}
	parser, err := kong.New(&cli,
		kong.Name("adocs"),
		kong.Description("Synthesize a linked Markdown documentation set for a repository."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)
	if err != nil {
		panic(err)
	}
	kctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		if _, ok := foundation.AsClassified(err); !ok {
			parser.FatalIfErrorf(err)
		}
		os.Exit(foundation.NewCLIErrorAdapter(cli.Verbose, slog.Default()).Report(os.Stderr, err))
	}
	err = kctx.Run(&cli)
	os.Exit(foundation.NewCLIErrorAdapter(cli.Verbose, slog.Default()).Report(os.Stderr, err))
}
