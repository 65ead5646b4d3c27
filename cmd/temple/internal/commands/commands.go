package commands

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/temple/internal/buildconfig"
	"github.com/wolfeidau/temple/internal/telemetry"
)

type Globals struct {
	Debug   bool
	Version string
}

// setupTelemetry starts OTLP export when an endpoint is configured and returns
// a function flushing it.
func setupTelemetry(ctx context.Context, globals *Globals) func() {
	if !telemetry.Enabled() {
		return func() {}
	}

	shutdown, err := telemetry.Init(ctx, "temple", globals.Version)
	if err != nil {
		log.Warn().Err(err).Msg("Telemetry disabled")
		return func() {}
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to flush telemetry")
		}
	}
}

// ConfigFlags locates the build configuration file.
type ConfigFlags struct {
	Config string `help:"Build configuration file (YAML or JSON)" default:"temple.yaml" type:"path" env:"TEMPLE_CONFIG"`
}

// load reads the configuration file. A missing file falls back to the
// defaults for the file's directory, matching a freshly scaffolded project.
func (f ConfigFlags) load() (buildconfig.Config, error) {
	cfg, err := buildconfig.Load(f.Config)
	if errors.Is(err, fs.ErrNotExist) {
		dir, absErr := filepath.Abs(filepath.Dir(f.Config))
		if absErr != nil {
			return buildconfig.Config{}, absErr
		}
		log.Warn().Str("path", f.Config).Msg("Config file not found, using defaults")
		return buildconfig.Default(dir).Resolved(), nil
	}
	return cfg, err
}

// OutputFlags override where the bundle is written.
type OutputFlags struct {
	Entry          string `help:"Entry point, overrides the config" type:"path" env:"TEMPLE_ENTRY"`
	OutputPath     string `help:"Output directory, overrides the config" type:"path" env:"TEMPLE_OUTPUT_PATH"`
	OutputFilename string `help:"Bundle file name, overrides the config" env:"TEMPLE_OUTPUT_FILENAME"`
}

// loadValidated loads the config, applies overrides and validates the result.
func loadValidated(flags ConfigFlags, overrides buildconfig.Overrides) (buildconfig.Config, error) {
	cfg, err := flags.load()
	if err != nil {
		return buildconfig.Config{}, err
	}

	cfg, err = cfg.WithOverrides(overrides)
	if err != nil {
		return buildconfig.Config{}, err
	}
	cfg = cfg.Resolved()

	if err := cfg.Validate(); err != nil {
		return buildconfig.Config{}, err
	}
	return cfg, nil
}
