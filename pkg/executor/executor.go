package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/minder/pkg/log"
)

// DefaultTimeout bounds a command when the caller passes no timeout.
const DefaultTimeout = 10 * time.Second

// Classified invocation failures. Callers match with errors.Is.
var (
	// ErrNotFound reports that the command binary does not exist.
	ErrNotFound = errors.New("command not found")

	// ErrTimedOut reports that the command was killed by its deadline.
	ErrTimedOut = errors.New("command timed out")

	// ErrNonZeroExit reports that the command ran and exited non-zero.
	// Result.ExitCode and Result.Stderr carry the details.
	ErrNonZeroExit = errors.New("command exited with non-zero status")
)

// Result captures one external command invocation. It is populated on
// every return, including failures.
type Result struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	TimedOut bool
}

// Runner is the interface sessions use to invoke external commands.
// Run returns a non-nil Result on every path, error included; callers
// read diagnostics from it without a nil check.
type Runner interface {
	Run(ctx context.Context, timeout time.Duration, command ...string) (*Result, error)
}

// Executor implements Runner with os/exec, a per-invocation timeout, and
// captured output.
type Executor struct {
	logger zerolog.Logger
}

// New creates an executor.
func New() *Executor {
	return &Executor{logger: log.WithComponent("executor")}
}

// Run executes command (argv form), killing it after timeout (or
// DefaultTimeout when timeout is non-positive). The returned error
// classifies the failure: ErrNotFound, ErrTimedOut, ErrNonZeroExit, or a
// wrapped spawn error. A nil error means the command exited zero.
func (e *Executor) Run(ctx context.Context, timeout time.Duration, command ...string) (*Result, error) {
	start := time.Now()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	res := &Result{Command: strings.Join(command, " "), ExitCode: -1}
	if len(command) == 0 {
		return res, fmt.Errorf("no command specified")
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, command[0], command[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	res.Duration = time.Since(start)

	if err == nil {
		res.ExitCode = 0
		e.logger.Debug().Str("command", res.Command).Dur("duration", res.Duration).Msg("Command completed")
		return res, nil
	}

	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
		e.logger.Warn().Str("command", res.Command).Dur("timeout", timeout).Msg("Command timed out")
		return res, fmt.Errorf("%w after %s: %s", ErrTimedOut, timeout, res.Command)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		e.logger.Warn().Str("command", res.Command).Int("exit_code", res.ExitCode).Msg("Command failed")
		return res, fmt.Errorf("%w: %s (exit %d)", ErrNonZeroExit, res.Command, res.ExitCode)
	}

	// Bare names missing from PATH surface as exec.ErrNotFound, absolute
	// paths as a PathError with ENOENT.
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		e.logger.Warn().Str("command", res.Command).Msg("Command not found")
		return res, fmt.Errorf("%w: %s", ErrNotFound, command[0])
	}

	e.logger.Error().Err(err).Str("command", res.Command).Msg("Command failed to start")
	return res, fmt.Errorf("run %s: %w", command[0], err)
}
