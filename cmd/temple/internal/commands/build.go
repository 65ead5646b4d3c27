package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/wolfeidau/temple/internal/buildconfig"
	"github.com/wolfeidau/temple/internal/bundler"
	"github.com/wolfeidau/temple/internal/logger"
)

// BuildCmd bundles the project once.
type BuildCmd struct {
	ConfigFlags `embed:""`
	OutputFlags `embed:""`
	Minify      bool   `help:"Minify the output" env:"TEMPLE_MINIFY"`
	SourceMap   bool   `help:"Write linked source maps" env:"TEMPLE_SOURCEMAP"`
	Metafile    string `help:"Write esbuild's metafile to this path" type:"path" env:"TEMPLE_METAFILE"`
}

func (c *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	logger.Setup(globals.Debug)

	shutdown := setupTelemetry(ctx, globals)
	defer shutdown()

	return c.run(ctx, os.Stdout)
}

func (c *BuildCmd) run(ctx context.Context, out io.Writer) error {
	cfg, err := loadValidated(c.ConfigFlags, buildconfig.Overrides{
		Entry:          c.Entry,
		OutputPath:     c.OutputPath,
		OutputFilename: c.OutputFilename,
	})
	if err != nil {
		return err
	}

	pipeline := bundler.New(cfg,
		bundler.WithMinify(c.Minify),
		bundler.WithSourceMap(c.SourceMap),
		bundler.WithMetafile(c.Metafile),
	)

	res, err := pipeline.Build(ctx)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	for _, file := range res.Files {
		fmt.Fprintln(out, file)
	}
	for _, page := range res.Pages {
		fmt.Fprintln(out, page)
	}
	fmt.Fprintf(out, "Built %d files in %s (%d warnings)\n", len(res.Files)+len(res.Pages), res.Duration.Round(time.Millisecond), res.Warnings)

	return nil
}
