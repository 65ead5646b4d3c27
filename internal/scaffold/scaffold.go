// Package scaffold creates new temple projects: the directory layout, npm
// package with its dev dependencies, boilerplate sources, build configuration
// and git repository.
package scaffold

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/temple/internal/buildconfig"
	"github.com/wolfeidau/temple/internal/fsutil"
	"github.com/wolfeidau/temple/internal/process"
)

// DevDependencies are installed into every new project.
var DevDependencies = []string{
	"typescript",
	"webpack",
	"webpack-cli",
	"webpack-dev-server",
	"ts-loader",
	"style-loader",
	"css-loader",
	"html-webpack-plugin",
}

// Scripts are merged into package.json; existing scripts with other names are kept.
var Scripts = map[string]string{
	"start":        "webpack serve --open",
	"build":        "webpack --mode production",
	"tsc":          "tsc --noEmit --watch",
	"temple:build": "temple build",
	"temple:serve": "temple serve",
}

// Options describes the project to create.
type Options struct {
	Name string
	// Target is the directory the project directory is created in.
	Target string
	// Tsconfig optionally points at a shared tsconfig.json to symlink.
	Tsconfig    string
	SkipInstall bool
	SkipGit     bool
}

// Project is a created project.
type Project struct {
	Dir    string
	Config buildconfig.Config
	Files  []string
}

// Generator creates projects, running npm and git through Runner.
type Generator struct {
	runner        process.Runner
	installTries  uint
	retryInterval time.Duration
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithInstallRetry sets how often dependency installation is attempted and
// the initial backoff between attempts.
func WithInstallRetry(tries uint, interval time.Duration) GeneratorOption {
	return func(g *Generator) {
		g.installTries = tries
		g.retryInterval = interval
	}
}

// NewGenerator creates a generator that runs external commands with runner.
func NewGenerator(runner process.Runner, opts ...GeneratorOption) *Generator {
	g := &Generator{
		runner:        runner,
		installTries:  3,
		retryInterval: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Create lays out a new project. Existing project directories are reused and
// the generated files in them overwritten.
func (g *Generator) Create(ctx context.Context, opts Options) (*Project, error) {
	startTime := time.Now()

	// 1. Validate the name and create the project directory
	if err := ValidateName(opts.Name); err != nil {
		return nil, err
	}

	target, err := filepath.Abs(opts.Target)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve target path: %w", err)
	}

	dir := filepath.Join(target, opts.Name)
	if err := createProjectDir(dir); err != nil {
		return nil, err
	}

	project := &Project{Dir: dir, Config: buildconfig.Default(dir)}

	// 2. Initialise the npm package
	if opts.SkipInstall {
		if err := project.write("package.json", "package.json", opts.Name); err != nil {
			return nil, err
		}
	} else {
		if err := g.runner.Run(ctx, "npm", "init", "-y", "--prefix", dir); err != nil {
			return nil, fmt.Errorf("failed to initialise npm: %w", err)
		}

		// 3. Install dev dependencies
		installer := process.NewRetryRunner(g.runner, g.installTries, g.retryInterval)
		args := append([]string{"install", "--save-dev", "--prefix", dir}, DevDependencies...)
		if err := installer.Run(ctx, "npm", args...); err != nil {
			return nil, fmt.Errorf("failed to install dev dependencies: %w", err)
		}
		log.Info().Strs("packages", DevDependencies).Msg("Installed dev dependencies")
	}

	// 4. Boilerplate sources and build configuration
	if err := project.writeBoilerplate(opts.Name); err != nil {
		return nil, err
	}

	// 5. tsconfig.json
	if err := project.writeTsconfig(opts.Tsconfig); err != nil {
		return nil, err
	}

	// 6. Git repository
	if !opts.SkipGit {
		if err := g.runner.Run(ctx, "git", "-C", dir, "init"); err != nil {
			return nil, fmt.Errorf("failed to initialise git: %w", err)
		}
		if err := project.write(".gitignore", "gitignore", opts.Name); err != nil {
			return nil, err
		}
	}

	// 7. package.json scripts
	if err := UpdateScripts(filepath.Join(dir, "package.json"), Scripts); err != nil {
		return nil, err
	}
	log.Info().Msg("Updated package.json scripts")

	log.Info().
		Str("dir", dir).
		Dur("duration", time.Since(startTime)).
		Msg("Project created")

	return project, nil
}

func createProjectDir(dir string) error {
	err := os.Mkdir(dir, 0755)
	switch {
	case err == nil:
		log.Info().Str("dir", dir).Msg("Created project directory")
		return nil
	case errors.Is(err, fs.ErrExist):
		info, statErr := os.Stat(dir)
		if statErr != nil {
			return fmt.Errorf("failed to stat project directory: %w", statErr)
		}
		if !info.IsDir() {
			return fmt.Errorf("%w: %s", ErrNotDirectory, dir)
		}
		log.Info().Str("dir", dir).Msg("Directory already exists")
		return nil
	default:
		return fmt.Errorf("failed to create project directory: %w", err)
	}
}

func (p *Project) writeBoilerplate(name string) error {
	files := []struct{ path, template string }{
		{"index.html", "index.html"},
		{"src/main.ts", "main.ts"},
		{"src/global.d.ts", "global.d.ts"},
		{"style.css", "style.css"},
	}
	for _, f := range files {
		if err := p.write(f.path, f.template, name); err != nil {
			return err
		}
	}

	portable := p.Config.Portable()

	configPath := filepath.Join(p.Dir, buildconfig.DefaultFileName)
	if err := buildconfig.Save(configPath, portable); err != nil {
		return fmt.Errorf("failed to write build config: %w", err)
	}
	p.created(configPath)

	var buf bytes.Buffer
	if err := buildconfig.RenderWebpack(&buf, portable); err != nil {
		return err
	}
	webpackPath := filepath.Join(p.Dir, buildconfig.WebpackFileName)
	if err := fsutil.WriteFile(webpackPath, buf.Bytes(), 0644); err != nil {
		return err
	}
	p.created(webpackPath)

	return nil
}

// writeTsconfig links the shared tsconfig when it exists and writes the
// default otherwise.
func (p *Project) writeTsconfig(shared string) error {
	path := filepath.Join(p.Dir, "tsconfig.json")

	if shared != "" {
		abs, err := filepath.Abs(shared)
		if err != nil {
			return fmt.Errorf("failed to resolve tsconfig path: %w", err)
		}

		ok, err := fsutil.Exists(abs)
		if err != nil {
			return err
		}
		if ok {
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to replace tsconfig.json: %w", err)
			}
			if err := os.Symlink(abs, path); err != nil {
				return fmt.Errorf("failed to link tsconfig.json: %w", err)
			}
			log.Info().Str("target", abs).Msg("Linked tsconfig.json")
			p.Files = append(p.Files, path)
			return nil
		}

		log.Warn().Str("path", abs).Msg("tsconfig.json not found, creating default")
	}

	return p.write("tsconfig.json", "tsconfig.json", "")
}

func (p *Project) write(path, template, name string) error {
	data, err := render(template, name)
	if err != nil {
		return err
	}

	full := filepath.Join(p.Dir, filepath.FromSlash(path))
	if err := fsutil.WriteFile(full, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	p.created(full)
	return nil
}

func (p *Project) created(path string) {
	log.Info().Str("file", path).Msg("Created file")
	p.Files = append(p.Files, path)
}

// UpdateScripts sets scripts in the package.json at path, keeping every other
// field and any scripts not named in scripts.
func UpdateScripts(path string, scripts map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPackageJSON, err)
	}

	var pkg map[string]json.RawMessage
	if err := json.Unmarshal(data, &pkg); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPackageJSON, path, err)
	}
	if pkg == nil {
		return fmt.Errorf("%w: %s: not an object", ErrPackageJSON, path)
	}

	existing := map[string]string{}
	if raw, ok := pkg["scripts"]; ok {
		if err := json.Unmarshal(raw, &existing); err != nil {
			return fmt.Errorf("%w: %s: scripts: %v", ErrPackageJSON, path, err)
		}
		if existing == nil {
			existing = map[string]string{}
		}
	}
	for name, cmd := range scripts {
		existing[name] = cmd
	}

	raw, err := json.Marshal(existing)
	if err != nil {
		return err
	}
	pkg["scripts"] = raw

	out, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.WriteFile(path, append(out, '\n'), 0644)
}
