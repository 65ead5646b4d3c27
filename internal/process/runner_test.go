package process

import (
	"context"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExitError(t *testing.T) {
	err := &ExitError{Command: "npm", ExitCode: 1}
	require.Equal(t, "npm exited with code 1", err.Error())

	err.Output = "ERR! network"
	require.Equal(t, "npm exited with code 1: ERR! network", err.Error())
}

func TestTailBuffer(t *testing.T) {
	tail := newTailBuffer(8)
	tail.Write([]byte("0123"))
	tail.Write([]byte("456789ab"))

	require.Equal(t, "456789ab", tail.String())
}

func TestConsoleRunner(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	runner := NewConsoleRunner(nil)

	t.Run("success", func(t *testing.T) {
		require.NoError(t, runner.Run(context.Background(), "sh", "-c", "echo hello"))
	})

	t.Run("non-zero exit", func(t *testing.T) {
		err := runner.Run(context.Background(), "sh", "-c", "echo broken >&2; exit 3")

		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		require.Equal(t, 3, exitErr.ExitCode)
		require.Equal(t, "sh", exitErr.Command)
		require.True(t, strings.Contains(exitErr.Output, "broken"))
	})
}
