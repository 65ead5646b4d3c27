// Package process runs the external tools the scaffolder depends on (npm, git).
// Output is streamed to the logger while the command runs and the tail is kept
// for error reporting.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	consolestream "github.com/wolfeidau/console-stream"
)

// tailSize bounds how much trailing output is attached to an ExitError.
const tailSize = 4 * 1024

// ErrNoExitStatus is returned when a process stream ends without reporting an exit code.
var ErrNoExitStatus = errors.New("process ended without exit status")

// Runner executes a command to completion.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Command  string
	ExitCode int
	Output   string
}

func (e *ExitError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Command, e.ExitCode, e.Output)
}

// ConsoleRunner runs commands through console-stream in pipe mode.
type ConsoleRunner struct {
	env map[string]string
}

var _ Runner = (*ConsoleRunner)(nil)

// NewConsoleRunner creates a runner that adds env to every command's environment.
func NewConsoleRunner(env map[string]string) *ConsoleRunner {
	return &ConsoleRunner{env: env}
}

func (c *ConsoleRunner) Run(ctx context.Context, name string, args ...string) error {
	logger := log.With().Str("command", name).Strs("args", args).Logger()
	logger.Info().Msg("Running command")

	opts := []consolestream.ProcessOption{
		consolestream.WithPipeMode(),
		consolestream.WithFlushInterval(100 * time.Millisecond),
	}
	if len(c.env) > 0 {
		opts = append(opts, consolestream.WithEnvMap(c.env))
	}

	process := consolestream.NewProcess(name, args, opts...)
	tail := newTailBuffer(tailSize)

	for event, err := range process.ExecuteAndStream(ctx) {
		if err != nil {
			return fmt.Errorf("failed to run %s: %w", name, err)
		}

		switch e := event.Event.(type) {
		case *consolestream.OutputData:
			tail.Write(e.Data)
			for line := range bytes.Lines(e.Data) {
				if line = bytes.TrimRight(line, "\r\n"); len(line) > 0 {
					logger.Debug().Msg(string(line))
				}
			}
		case *consolestream.ProcessEnd:
			if e.ExitCode != 0 {
				return &ExitError{Command: name, ExitCode: e.ExitCode, Output: tail.String()}
			}
			logger.Info().Dur("duration", e.Duration).Msg("Command finished")
			return nil
		}
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s interrupted: %w", name, err)
	}

	return fmt.Errorf("%s: %w", name, ErrNoExitStatus)
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	buf []byte
	max int
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
}

func (t *tailBuffer) String() string {
	return string(bytes.TrimSpace(t.buf))
}
