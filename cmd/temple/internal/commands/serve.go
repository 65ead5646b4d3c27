package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wolfeidau/temple/internal/buildconfig"
	"github.com/wolfeidau/temple/internal/bundler"
	"github.com/wolfeidau/temple/internal/devserver"
	"github.com/wolfeidau/temple/internal/logger"
)

// ServeCmd builds the project, serves it and rebuilds on change.
type ServeCmd struct {
	ConfigFlags `embed:""`
	OutputFlags `embed:""`
	Host        string        `help:"Host to listen on" env:"TEMPLE_HOST"`
	Port        int           `help:"Port to listen on, overrides the config" env:"TEMPLE_PORT"`
	Static      string        `help:"Directory to serve, overrides the config" type:"path" env:"TEMPLE_STATIC"`
	NoCompress  bool          `help:"Disable gzip compression" env:"TEMPLE_NO_COMPRESS"`
	NoReload    bool          `help:"Do not inject the live-reload client" env:"TEMPLE_NO_RELOAD"`
	CORSOrigins []string      `name:"cors-origin" help:"Allow cross-origin requests from these origins" env:"TEMPLE_CORS_ORIGINS"`
	Debounce    time.Duration `help:"Wait for changes to settle before rebuilding" default:"200ms" env:"TEMPLE_DEBOUNCE"`
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown := setupTelemetry(ctx, globals)
	defer shutdown()

	cfg, err := loadValidated(c.ConfigFlags, c.overrides())
	if err != nil {
		return err
	}

	var opts []bundler.Option
	if !c.NoReload {
		opts = append(opts, bundler.WithInlineScript(devserver.ReloadScript))
	}
	pipeline := bundler.New(cfg, opts...)

	res, err := pipeline.Build(ctx)
	if err != nil {
		return fmt.Errorf("initial build failed: %w", err)
	}

	server := devserver.New(cfg, rebuilder(pipeline, res.Fingerprint),
		devserver.WithLogger(log),
		devserver.WithDebounce(c.Debounce),
		devserver.WithCORS(c.CORSOrigins...),
	)

	return server.Run(ctx)
}

func (c *ServeCmd) overrides() buildconfig.Overrides {
	return buildconfig.Overrides{
		Entry:          c.Entry,
		OutputPath:     c.OutputPath,
		OutputFilename: c.OutputFilename,
		StaticDir:      c.Static,
		Host:           c.Host,
		Port:           c.Port,
		NoCompress:     c.NoCompress,
	}
}

// rebuilder rebuilds with pipeline and reports devserver.ErrUnchanged when the
// output matches the previous build. The dev server calls it from a single
// goroutine.
func rebuilder(pipeline *bundler.Pipeline, fingerprint string) devserver.RebuildFunc {
	return func(ctx context.Context) error {
		res, err := pipeline.Build(ctx)
		if err != nil {
			return err
		}
		if res.Fingerprint == fingerprint {
			return devserver.ErrUnchanged
		}
		fingerprint = res.Fingerprint
		return nil
	}
}
