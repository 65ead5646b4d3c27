package buildconfig

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "work", "demo")
	cfg := Default(root)

	require.Equal(t, root, cfg.Context)
	require.Equal(t, "./src/main.ts", cfg.Entry)
	require.Equal(t, "bundle.js", cfg.Output.Filename)
	require.Equal(t, filepath.Join(root, "dist"), cfg.Output.Path)
	require.Equal(t, []string{".ts", ".js"}, cfg.Resolve.Extensions)
	require.Len(t, cfg.Module.Rules, 2)
	require.Equal(t, Handlers{"style-loader", "css-loader"}, cfg.Module.Rules[1].Use)
	require.True(t, cfg.DevServer.Compress)
	require.Equal(t, 9000, cfg.DevServer.Port)

	html, ok := cfg.Plugin(PluginHTML)
	require.True(t, ok)
	require.Equal(t, "index.html", html.Options["template"])
}

func TestConfig_Resolved(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "work", "demo")
	cfg := Default(root)
	cfg.Output.Path = "build"
	cfg.DevServer.Static.Directory = "build"

	resolved := cfg.Resolved()

	require.Equal(t, filepath.Join(root, "src", "main.ts"), resolved.Entry)
	require.Equal(t, filepath.Join(root, "build"), resolved.Output.Path)
	require.Equal(t, filepath.Join(root, "build"), resolved.DevServer.Static.Directory)
	require.Equal(t, filepath.Join(root, "build", "bundle.js"), resolved.OutputFile())

	// the receiver is not modified
	require.Equal(t, "build", cfg.Output.Path)
}

func TestConfig_Portable(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "work", "demo")
	outside := filepath.Join(string(filepath.Separator), "srv", "www")

	cfg := Default(root).Resolved()
	cfg.DevServer.Static.Directory = outside

	portable := cfg.Portable()

	require.Empty(t, portable.Context)
	require.Equal(t, "./src/main.ts", portable.Entry)
	require.Equal(t, "dist", portable.Output.Path)
	require.Equal(t, outside, portable.DevServer.Static.Directory)
}

func TestConfig_PluginMissing(t *testing.T) {
	_, ok := Config{}.Plugin(PluginHTML)
	require.False(t, ok)
}
