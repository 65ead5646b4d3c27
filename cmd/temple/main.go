package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/temple/cmd/temple/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		New     commands.NewCmd    `cmd:"" help:"Create a new TypeScript project"`
		Build   commands.BuildCmd  `cmd:"" help:"Bundle the project with the native pipeline"`
		Serve   commands.ServeCmd  `cmd:"" help:"Serve the project and rebuild on change"`
		Config  commands.ConfigCmd `cmd:"" help:"Inspect the build configuration"`
		Debug   bool               `help:"Enable debug mode." env:"TEMPLE_DEBUG"`
		Version kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("temple"),
		kong.Description("Scaffold, bundle and serve TypeScript web projects."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
