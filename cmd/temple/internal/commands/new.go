package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/wolfeidau/temple/internal/logger"
	"github.com/wolfeidau/temple/internal/process"
	"github.com/wolfeidau/temple/internal/scaffold"
)

// NewCmd scaffolds a project.
type NewCmd struct {
	Name           string `arg:"" help:"Name of the project"`
	Target         string `arg:"" optional:"" help:"Directory to create the project under" default:"." type:"path"`
	Tsconfig       string `help:"Path to a custom tsconfig.json to link into the project" type:"path" env:"TEMPLE_TSCONFIG"`
	SkipInstall    bool   `help:"Skip npm init and dependency installation" env:"TEMPLE_SKIP_INSTALL"`
	SkipGit        bool   `help:"Skip git init" env:"TEMPLE_SKIP_GIT"`
	InstallRetries uint   `help:"Attempts for npm install" default:"3" env:"TEMPLE_INSTALL_RETRIES"`
}

func (c *NewCmd) Run(ctx context.Context, globals *Globals) error {
	logger.Setup(globals.Debug)

	gen := scaffold.NewGenerator(process.NewConsoleRunner(nil), scaffold.WithInstallRetry(c.InstallRetries, 2*time.Second))
	return c.run(ctx, gen, os.Stdout)
}

func (c *NewCmd) run(ctx context.Context, gen *scaffold.Generator, out io.Writer) error {
	project, err := gen.Create(ctx, scaffold.Options{
		Name:        c.Name,
		Target:      c.Target,
		Tsconfig:    c.Tsconfig,
		SkipInstall: c.SkipInstall,
		SkipGit:     c.SkipGit,
	})
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	rel, err := filepath.Rel(c.Target, project.Dir)
	if err != nil {
		rel = project.Dir
	}

	fmt.Fprintf(out, "Created %s in %s\n", c.Name, project.Dir)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintf(out, "  cd %s\n", rel)
	if c.SkipInstall {
		fmt.Fprintln(out, "  npm install")
	}
	fmt.Fprintln(out, "  temple serve      # native bundler and dev server")
	fmt.Fprintln(out, "  npm start         # webpack dev server")

	return nil
}
