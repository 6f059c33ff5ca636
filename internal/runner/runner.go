// Package runner spawns external commands and reports their captured
// output. Results are delivered asynchronously so the caller's event
// handling stays free while a command runs.
package runner

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os/exec"
	"strings"
)

// ExecResult holds everything captured from a finished command.
type ExecResult struct {
	// Stdout is the command's complete standard output
	Stdout string

	// Stderr is the command's complete standard error
	Stderr string

	// ExitCode is 0 on success, the command's exit code otherwise,
	// or -1 when the command could not be started at all
	ExitCode int
}

// Callback receives the result of a finished command exactly once.
type Callback func(ExecResult)

// Runner starts an external command and delivers its result to a callback
// once the process terminates. Implementations must invoke the callback
// for failed starts too; a missing executable is reported through the
// result, not a separate error path.
type Runner interface {
	Run(ctx context.Context, command string, args []string, cb Callback)
}

// ShellRunner executes commands through the system shell. The command and
// its arguments are joined with single spaces into one command line, so
// any quoting the caller embeds in an argument is interpreted by the
// shell rather than escaped away.
type ShellRunner struct {
	logger *log.Logger
}

// NewShellRunner creates a runner that logs command lifecycle to logger.
func NewShellRunner(logger *log.Logger) *ShellRunner {
	return &ShellRunner{logger: logger}
}

// Run spawns the command in a new goroutine and invokes cb when it exits.
// There is no timeout and no cancellation beyond the supplied context;
// concurrent calls each spawn their own process.
func (r *ShellRunner) Run(ctx context.Context, command string, args []string, cb Callback) {
	line := command
	if len(args) > 0 {
		line += " " + strings.Join(args, " ")
	}

	go func() {
		if r.logger != nil {
			r.logger.Printf("Running: %s", line)
		}

		cmd := exec.CommandContext(ctx, "/bin/sh", "-c", line)

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		err := cmd.Run()

		result := ExecResult{
			Stdout: stdout.String(),
			Stderr: stderr.String(),
		}
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				result.ExitCode = exitErr.ExitCode()
			} else {
				// The shell itself could not be started. Surface the
				// OS error as if it were command output.
				result.ExitCode = -1
				if result.Stderr == "" {
					result.Stderr = err.Error()
				}
			}
		}

		cb(result)
	}()
}
