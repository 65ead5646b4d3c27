package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/temple/internal/buildconfig"
	"github.com/wolfeidau/temple/internal/bundler"
	"github.com/wolfeidau/temple/internal/devserver"
	"github.com/wolfeidau/temple/internal/scaffold"
)

// newProject scaffolds an offline project and returns its config path.
func newProject(t *testing.T) string {
	t.Helper()
	target := t.TempDir()

	cmd := &NewCmd{Name: "demo", Target: target, SkipInstall: true, SkipGit: true}
	var out bytes.Buffer
	require.NoError(t, cmd.run(context.Background(), scaffold.NewGenerator(nil), &out))
	require.Contains(t, out.String(), "Next steps:")
	require.Contains(t, out.String(), "npm install")

	return filepath.Join(target, "demo", buildconfig.DefaultFileName)
}

func TestBuildCmd(t *testing.T) {
	config := newProject(t)
	dir := filepath.Dir(config)

	cmd := &BuildCmd{ConfigFlags: ConfigFlags{Config: config}, SourceMap: true}
	var out bytes.Buffer
	require.NoError(t, cmd.run(context.Background(), &out))

	assert.Contains(t, out.String(), filepath.Join(dir, "dist", "bundle.js"))
	assert.Contains(t, out.String(), filepath.Join(dir, "dist", "index.html"))
	assert.FileExists(t, filepath.Join(dir, "dist", "bundle.js.map"))

	page, err := os.ReadFile(filepath.Join(dir, "dist", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), `<script src="bundle.js"></script>`)
	assert.NotContains(t, string(page), "EventSource")
}

func TestBuildCmd_Overrides(t *testing.T) {
	config := newProject(t)
	outDir := filepath.Join(t.TempDir(), "public")

	cmd := &BuildCmd{
		ConfigFlags: ConfigFlags{Config: config},
		OutputFlags: OutputFlags{OutputPath: outDir, OutputFilename: "app.js"},
	}
	require.NoError(t, cmd.run(context.Background(), &bytes.Buffer{}))
	assert.FileExists(t, filepath.Join(outDir, "app.js"))
	assert.FileExists(t, filepath.Join(outDir, "index.html"))
}

func TestBuildCmd_InvalidConfig(t *testing.T) {
	config := newProject(t)
	require.NoError(t, os.Remove(filepath.Join(filepath.Dir(config), "src", "main.ts")))

	cmd := &BuildCmd{ConfigFlags: ConfigFlags{Config: config}}
	err := cmd.run(context.Background(), &bytes.Buffer{})
	require.ErrorIs(t, err, buildconfig.ErrEntryNotFound)
}

func TestConfigShowCmd(t *testing.T) {
	config := newProject(t)

	tests := []struct {
		name     string
		cmd      ConfigShowCmd
		contains []string
	}{
		{
			name:     "yaml",
			cmd:      ConfigShowCmd{Format: "yaml", Portable: true},
			contains: []string{"entry: ./src/main.ts", "port: 9000"},
		},
		{
			name:     "json",
			cmd:      ConfigShowCmd{Format: "json", Portable: true},
			contains: []string{`"entry": "./src/main.ts"`, `"devServer": {`},
		},
		{
			name:     "absolute",
			cmd:      ConfigShowCmd{Format: "yaml"},
			contains: []string{"context: " + filepath.Dir(config)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cmd.Config = config
			var out bytes.Buffer
			require.NoError(t, tt.cmd.run(&out))
			for _, s := range tt.contains {
				assert.Contains(t, out.String(), s)
			}
		})
	}
}

func TestConfigValidateCmd(t *testing.T) {
	config := newProject(t)

	cmd := &ConfigValidateCmd{ConfigFlags: ConfigFlags{Config: config}}
	var out bytes.Buffer
	require.NoError(t, cmd.run(context.Background(), &out))
	assert.Contains(t, out.String(), "is valid")

	require.NoError(t, os.WriteFile(config, []byte("devServer:\n  port: 70000\n"), 0644))
	err := cmd.run(context.Background(), &bytes.Buffer{})
	require.ErrorIs(t, err, buildconfig.ErrInvalidPort)
}

func TestConfigWebpackCmd(t *testing.T) {
	config := newProject(t)
	want, err := os.ReadFile(filepath.Join(filepath.Dir(config), buildconfig.WebpackFileName))
	require.NoError(t, err)

	cmd := &ConfigWebpackCmd{ConfigFlags: ConfigFlags{Config: config}}
	var out bytes.Buffer
	require.NoError(t, cmd.run(&out))
	assert.Equal(t, string(want), out.String())

	cmd.Output = filepath.Join(t.TempDir(), "webpack.config.js")
	require.NoError(t, cmd.run(&bytes.Buffer{}))
	got, err := os.ReadFile(cmd.Output)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestConfigFlags_missingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := ConfigFlags{Config: filepath.Join(dir, buildconfig.DefaultFileName)}.load()
	require.NoError(t, err)
	require.Equal(t, buildconfig.Default(dir).Resolved(), cfg)
}

func TestCLIParse(t *testing.T) {
	var cli struct {
		New    NewCmd    `cmd:""`
		Build  BuildCmd  `cmd:""`
		Serve  ServeCmd  `cmd:""`
		Config ConfigCmd `cmd:""`
	}

	parser, err := kong.New(&cli, kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)

	ctx, err := parser.Parse([]string{"serve", "--port", "8080", "--no-compress", "--cors-origin", "http://a.test,http://b.test"})
	require.NoError(t, err)
	require.Equal(t, "serve", ctx.Command())
	require.Equal(t, 8080, cli.Serve.Port)
	require.True(t, cli.Serve.NoCompress)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cli.Serve.CORSOrigins)
	require.Equal(t, "temple.yaml", filepath.Base(cli.Serve.Config))

	ctx, err = parser.Parse([]string{"config", "show", "--format", "json", "--no-portable"})
	require.NoError(t, err)
	require.Equal(t, "config show", ctx.Command())
	require.False(t, cli.Config.Show.Portable)

	_, err = parser.Parse([]string{"config", "show", "--format", "toml"})
	require.Error(t, err)

	ctx, err = parser.Parse([]string{"new", "demo"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ctx.Command(), "new <name>"))
	require.Equal(t, uint(3), cli.New.InstallRetries)
}

func TestRebuilder(t *testing.T) {
	config := newProject(t)
	cfg, err := buildconfig.Load(config)
	require.NoError(t, err)

	pipeline := bundler.New(cfg)
	res, err := pipeline.Build(context.Background())
	require.NoError(t, err)

	rebuild := rebuilder(pipeline, res.Fingerprint)
	require.ErrorIs(t, rebuild(context.Background()), devserver.ErrUnchanged)

	require.NoError(t, os.WriteFile(filepath.Join(cfg.Context, "style.css"), []byte("h1 { color: teal; }\n"), 0644))
	require.NoError(t, rebuild(context.Background()))
	require.ErrorIs(t, rebuild(context.Background()), devserver.ErrUnchanged)
}
