// Package buildconfig defines the build configuration record for a temple
// project: entry point, output, module resolution, transformation rules,
// plugins and dev server settings. The record mirrors the webpack
// configuration schema so it can be rendered as webpack.config.js as well as
// consumed by the native bundler.
package buildconfig

import (
	"path/filepath"
	"strings"
)

// DefaultFileName is the configuration file looked up in a project root.
const DefaultFileName = "temple.yaml"

type Config struct {
	// Context is the directory relative paths resolve against. When loaded from
	// a file it defaults to the file's directory.
	Context   string    `yaml:"context,omitempty" json:"context,omitempty"`
	Entry     string    `yaml:"entry" json:"entry"`
	Output    Output    `yaml:"output" json:"output"`
	Resolve   Resolve   `yaml:"resolve" json:"resolve"`
	Module    Module    `yaml:"module" json:"module"`
	Plugins   []Plugin  `yaml:"plugins" json:"plugins"`
	DevServer DevServer `yaml:"devServer" json:"devServer"`
}

type Output struct {
	Filename string `yaml:"filename" json:"filename"`
	Path     string `yaml:"path" json:"path"`
}

type Resolve struct {
	Extensions []string `yaml:"extensions" json:"extensions"`
}

type Module struct {
	Rules []Rule `yaml:"rules" json:"rules"`
}

// Rule maps files whose path matches Test (and not Exclude) to a handler chain.
type Rule struct {
	Test    Pattern  `yaml:"test" json:"test"`
	Use     Handlers `yaml:"use" json:"use"`
	Exclude Pattern  `yaml:"exclude,omitempty" json:"exclude,omitempty"`
}

// Plugin is a named extension with its own option bag.
type Plugin struct {
	Name    string         `yaml:"name" json:"name"`
	Options map[string]any `yaml:"options,omitempty" json:"options,omitempty"`
}

type DevServer struct {
	Static   Static `yaml:"static" json:"static"`
	Host     string `yaml:"host,omitempty" json:"host,omitempty"`
	Compress bool   `yaml:"compress" json:"compress"`
	Port     int    `yaml:"port" json:"port"`
}

type Static struct {
	Directory string `yaml:"directory" json:"directory"`
}

// Default returns the standard project configuration rooted at root: a
// TypeScript entry at src/main.ts bundled into dist/bundle.js, CSS injected by
// style tags, index.html generated from the project template and served on 9000.
func Default(root string) Config {
	return Config{
		Context: root,
		Entry:   "./src/main.ts",
		Output: Output{
			Filename: "bundle.js",
			Path:     filepath.Join(root, "dist"),
		},
		Resolve: Resolve{
			Extensions: []string{".ts", ".js"},
		},
		Module: Module{
			Rules: []Rule{
				{
					Test:    `\.ts$`,
					Use:     Handlers{HandlerTS},
					Exclude: `node_modules`,
				},
				{
					Test:    `\.css$`,
					Use:     Handlers{HandlerStyle, HandlerCSS},
					Exclude: `node_modules`,
				},
			},
		},
		Plugins: []Plugin{
			{
				Name: PluginHTML,
				Options: map[string]any{
					"template": "index.html",
					"inject":   "body",
				},
			},
		},
		DevServer: DevServer{
			Static: Static{
				Directory: filepath.Join(root, "dist"),
			},
			Compress: true,
			Port:     9000,
		},
	}
}

// Resolved returns a copy with Entry, Output.Path and the static directory made
// absolute against Context.
func (c Config) Resolved() Config {
	c.Entry = c.Abs(c.Entry)
	c.Output.Path = c.Abs(c.Output.Path)
	c.DevServer.Static.Directory = c.Abs(c.DevServer.Static.Directory)
	return c
}

// Portable returns a copy with paths under Context rewritten relative to it and
// Context cleared, suitable for committing alongside the project.
func (c Config) Portable() Config {
	c.Entry = dotRelative(c.Context, c.Entry)
	c.Output.Path = c.rel(c.Output.Path)
	c.DevServer.Static.Directory = c.rel(c.DevServer.Static.Directory)
	c.Context = ""
	return c
}

// Abs resolves p against Context. Empty and absolute paths are returned as is.
func (c Config) Abs(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Context == "" {
		return p
	}
	return filepath.Join(c.Context, p)
}

// OutputFile is the absolute path of the main bundle.
func (c Config) OutputFile() string {
	return filepath.Join(c.Abs(c.Output.Path), c.Output.Filename)
}

// Plugin returns the first plugin with the given name.
func (c Config) Plugin(name string) (Plugin, bool) {
	for _, p := range c.Plugins {
		if p.Name == name {
			return p, true
		}
	}
	return Plugin{}, false
}

func (c Config) rel(p string) string {
	if c.Context == "" || !filepath.IsAbs(p) {
		return p
	}
	r, err := filepath.Rel(c.Context, p)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return p
	}
	return filepath.ToSlash(r)
}

// dotRelative renders module-style paths ("./src/main.ts") the way entry points
// are conventionally written.
func dotRelative(base, p string) string {
	if base == "" || !filepath.IsAbs(p) {
		return p
	}
	r := Config{Context: base}.rel(p)
	if filepath.IsAbs(r) {
		return r
	}
	return "./" + r
}
