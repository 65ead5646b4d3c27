package buildconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newProject lays out the files the default config references.
func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "main.ts"), []byte("console.log('hi');\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<html><body></body></html>"), 0644))
	return root
}

func TestValidate_default(t *testing.T) {
	root := newProject(t)

	require.NoError(t, Default(root).Validate())

	// the output directory is created by the writability probe and left empty
	entries, err := os.ReadDir(filepath.Join(root, "dist"))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestValidate_problems(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *Config)
		want   error
	}{
		{
			name:   "missing entry",
			mutate: func(cfg *Config) { cfg.Entry = "./src/missing.ts" },
			want:   ErrEntryNotFound,
		},
		{
			name:   "empty entry",
			mutate: func(cfg *Config) { cfg.Entry = "" },
			want:   ErrEntryNotFound,
		},
		{
			name:   "entry is a directory",
			mutate: func(cfg *Config) { cfg.Entry = "./src" },
			want:   ErrEntryNotFound,
		},
		{
			name:   "relative output path",
			mutate: func(cfg *Config) { cfg.Output.Path = "dist" },
			want:   ErrOutputPath,
		},
		{
			name:   "output filename with directory",
			mutate: func(cfg *Config) { cfg.Output.Filename = "js/bundle.js" },
			want:   ErrOutputPath,
		},
		{
			name: "output path is a file",
			mutate: func(cfg *Config) {
				cfg.Output.Path = filepath.Join(cfg.Context, "src", "main.ts")
			},
			want: ErrOutputPath,
		},
		{
			name:   "invalid test pattern",
			mutate: func(cfg *Config) { cfg.Module.Rules[0].Test = `(\.ts$` },
			want:   ErrInvalidPattern,
		},
		{
			name:   "missing test pattern",
			mutate: func(cfg *Config) { cfg.Module.Rules[0].Test = "" },
			want:   ErrInvalidPattern,
		},
		{
			name:   "invalid exclude pattern",
			mutate: func(cfg *Config) { cfg.Module.Rules[1].Exclude = `[node_modules` },
			want:   ErrInvalidPattern,
		},
		{
			name:   "unknown handler",
			mutate: func(cfg *Config) { cfg.Module.Rules[0].Use = Handlers{"babel-loader"} },
			want:   ErrUnknownHandler,
		},
		{
			name:   "empty handler chain",
			mutate: func(cfg *Config) { cfg.Module.Rules[0].Use = nil },
			want:   ErrUnknownHandler,
		},
		{
			name:   "unknown plugin",
			mutate: func(cfg *Config) { cfg.Plugins = append(cfg.Plugins, Plugin{Name: "copy-webpack-plugin"}) },
			want:   ErrUnknownPlugin,
		},
		{
			name:   "port zero",
			mutate: func(cfg *Config) { cfg.DevServer.Port = 0 },
			want:   ErrInvalidPort,
		},
		{
			name:   "port too large",
			mutate: func(cfg *Config) { cfg.DevServer.Port = 70000 },
			want:   ErrInvalidPort,
		},
		{
			name:   "extension without dot",
			mutate: func(cfg *Config) { cfg.Resolve.Extensions = []string{"ts"} },
			want:   ErrInvalidConfig,
		},
		{
			name: "missing html template",
			mutate: func(cfg *Config) {
				cfg.Plugins[0].Options = map[string]any{"template": "missing.html"}
			},
			want: os.ErrNotExist,
		},
		{
			name: "html filename with directory",
			mutate: func(cfg *Config) {
				cfg.Plugins[0].Options = map[string]any{"filename": "../index.html"}
			},
			want: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(newProject(t))
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.ErrorIs(t, err, tt.want)
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidate_reportsAllProblems(t *testing.T) {
	cfg := Default(newProject(t))
	cfg.Entry = "./nope.ts"
	cfg.DevServer.Port = -1
	cfg.Module.Rules[0].Use = Handlers{"babel-loader"}

	err := cfg.Validate()
	require.Error(t, err)

	var joined interface{ Unwrap() []error }
	require.True(t, errors.As(err, &joined))
	assert.Len(t, joined.Unwrap(), 3)
	assert.ErrorIs(t, err, ErrEntryNotFound)
	assert.ErrorIs(t, err, ErrInvalidPort)
	assert.ErrorIs(t, err, ErrUnknownHandler)
}
