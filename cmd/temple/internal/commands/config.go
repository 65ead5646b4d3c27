package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/wolfeidau/temple/internal/buildconfig"
	"github.com/wolfeidau/temple/internal/fsutil"
	"github.com/wolfeidau/temple/internal/logger"
)

// ConfigCmd groups the configuration subcommands.
type ConfigCmd struct {
	Show     ConfigShowCmd     `cmd:"" help:"Print the effective build configuration"`
	Validate ConfigValidateCmd `cmd:"" help:"Validate the build configuration"`
	Webpack  ConfigWebpackCmd  `cmd:"" help:"Render webpack.config.js from the build configuration"`
}

// ConfigShowCmd prints the configuration with defaults applied.
type ConfigShowCmd struct {
	ConfigFlags `embed:""`
	Format      string `help:"Output format" enum:"yaml,json" default:"yaml"`
	Portable    bool   `help:"Print paths relative to the project" default:"true" negatable:""`
}

func (c *ConfigShowCmd) Run(ctx context.Context, globals *Globals) error {
	logger.Setup(globals.Debug)
	return c.run(os.Stdout)
}

func (c *ConfigShowCmd) run(out io.Writer) error {
	cfg, err := c.load()
	if err != nil {
		return err
	}
	if c.Portable {
		cfg = cfg.Portable()
	}
	return buildconfig.Encode(out, buildconfig.Format(c.Format), cfg)
}

// ConfigValidateCmd checks the configuration and reports every problem.
type ConfigValidateCmd struct {
	ConfigFlags `embed:""`
	CheckPort   bool `help:"Also check the dev server port is free"`
}

func (c *ConfigValidateCmd) Run(ctx context.Context, globals *Globals) error {
	logger.Setup(globals.Debug)
	return c.run(ctx, os.Stdout)
}

func (c *ConfigValidateCmd) run(ctx context.Context, out io.Writer) error {
	cfg, err := c.load()
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration %s:\n%w", c.Config, err)
	}

	if c.CheckPort {
		host := cfg.DevServer.Host
		if host == "" {
			host = buildconfig.DefaultHost
		}
		if err := buildconfig.CheckPortAvailable(ctx, host, cfg.DevServer.Port); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "%s is valid\n", c.Config)
	return nil
}

// ConfigWebpackCmd writes the webpack.config.js equivalent of the configuration.
type ConfigWebpackCmd struct {
	ConfigFlags `embed:""`
	Output      string `help:"Write to this file instead of stdout" short:"o" type:"path"`
}

func (c *ConfigWebpackCmd) Run(ctx context.Context, globals *Globals) error {
	logger.Setup(globals.Debug)
	return c.run(os.Stdout)
}

func (c *ConfigWebpackCmd) run(out io.Writer) error {
	cfg, err := c.load()
	if err != nil {
		return err
	}

	if c.Output == "" {
		return buildconfig.RenderWebpack(out, cfg)
	}

	var buf bytes.Buffer
	if err := buildconfig.RenderWebpack(&buf, cfg); err != nil {
		return err
	}
	if err := fsutil.WriteFile(c.Output, buf.Bytes(), 0644); err != nil {
		return err
	}

	fmt.Fprintf(out, "Wrote %s\n", c.Output)
	return nil
}
