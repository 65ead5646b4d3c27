package buildconfig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithOverrides(t *testing.T) {
	base := Default("/p").Resolved()

	t.Run("zero overrides keep config", func(t *testing.T) {
		out, err := base.WithOverrides(Overrides{})
		require.NoError(t, err)
		require.Equal(t, base, out)
	})

	t.Run("non-zero fields override", func(t *testing.T) {
		out, err := base.WithOverrides(Overrides{
			Port:       8080,
			StaticDir:  "/srv/www",
			NoCompress: true,
		})
		require.NoError(t, err)

		require.Equal(t, 8080, out.DevServer.Port)
		require.Equal(t, "/srv/www", out.DevServer.Static.Directory)
		require.False(t, out.DevServer.Compress)
		require.Equal(t, base.Entry, out.Entry)
		require.Equal(t, base.Output, out.Output)
		require.Equal(t, base.Module, out.Module)

		// base untouched
		require.Equal(t, 9000, base.DevServer.Port)
		require.True(t, base.DevServer.Compress)
	})

	t.Run("output overrides", func(t *testing.T) {
		out, err := base.WithOverrides(Overrides{OutputFilename: "app.js", OutputPath: "/tmp/out", Entry: "/p/src/app.ts"})
		require.NoError(t, err)

		require.Equal(t, Output{Filename: "app.js", Path: "/tmp/out"}, out.Output)
		require.Equal(t, "/p/src/app.ts", out.Entry)
	})
}
