/*
Package executor runs the external commands behind the reboot and update
actions.

Commands are opaque to the daemon: it spawns them, bounds their runtime,
captures their streams, and classifies how they ended. Policy (what to run,
which timeout, how to answer the client) lives with the caller.

# Failure Classification

Run returns a nil error only for a zero exit. Everything else is one of:

	ErrNotFound      the binary does not exist on this host
	ErrTimedOut      the deadline killed the process (Result.TimedOut set)
	ErrNonZeroExit   the command ran and exited non-zero
	                 (Result.ExitCode, Result.Stderr carry details)
	anything else    the process could not be spawned

Result is valid on every return, so callers can surface captured output
alongside the classified error.

# Usage

	runner := executor.New()

	// update: long timeout, pessimistic reporting
	res, err := runner.Run(ctx, time.Hour, "/usr/local/sbin/system-update")
	switch {
	case err == nil:
		// success, res.Stdout holds the updater output
	case errors.Is(err, executor.ErrNotFound):
		// distinct "not installed" response
	case errors.Is(err, executor.ErrTimedOut):
		// distinct timeout response
	case errors.Is(err, executor.ErrNonZeroExit):
		// res.ExitCode, res.Stderr
	}

	// reboot: short timeout, invoked after the optimistic ack
	_, err = runner.Run(ctx, time.Minute, "/sbin/reboot")

# Behavior Notes

  - The deadline is enforced with exec.CommandContext; expiry kills the
    process group leader with SIGKILL
  - Stdout and stderr are buffered in memory; the reboot and update
    commands produce bounded output
  - The Runner interface exists so session tests can substitute a fake

# Integration Points

  - pkg/server: Dispatches reboot and update through a Runner
  - pkg/config: Supplies command paths and the update timeout

# See Also

  - os/exec: https://pkg.go.dev/os/exec
*/
package executor
