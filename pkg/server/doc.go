/*
Package server implements Minder's TCP daemon: the listener, the
per-connection session state machine, and command dispatch.

The server accepts raw TCP connections, authenticates each one with the
shared secret, services exactly one JSON command, and closes. Every
connection is handled by its own goroutine; sessions share nothing mutable,
so many clients are served independently and a stalled session never blocks
another.

# Architecture

	┌───────────────────── TCP DAEMON ──────────────────────┐
	│                                                        │
	│  ┌──────────────────────────────────────────┐          │
	│  │              Server                      │          │
	│  │  - Binds the listen address              │          │
	│  │  - Accept loop with transient-error      │          │
	│  │    retry (1s pause)                      │          │
	│  │  - net.ErrClosed means shutdown          │          │
	│  └──────────────────┬───────────────────────┘          │
	│                     │ one goroutine per connection     │
	│  ┌──────────────────▼───────────────────────┐          │
	│  │              session                     │          │
	│  │                                          │          │
	│  │  Connected ──▶ Authenticating            │          │
	│  │                  │ one attempt           │          │
	│  │                  ▼                       │          │
	│  │            Authenticated ──▶ Dispatching │          │
	│  │                                │         │          │
	│  │                                ▼         │          │
	│  │                            Responded     │          │
	│  │                                │         │          │
	│  │   any I/O error, timeout,     ▼          │          │
	│  │   or malformed input ──▶   Closed        │          │
	│  └──────────────────┬───────────────────────┘          │
	│                     │                                  │
	│  ┌──────────────────▼───────────────────────┐          │
	│  │            Dispatch                      │          │
	│  │  get_system_info → InfoProvider snapshot │          │
	│  │  reboot          → ack, grace, invoke    │          │
	│  │  update          → invoke, then respond  │          │
	│  └──────────────────────────────────────────┘          │
	└────────────────────────────────────────────────────────┘

# Session Rules

Authentication:
  - The server sends the "Password: " prompt and performs one bounded read
  - Trailing whitespace is trimmed before verification
  - Exactly one attempt per connection; failure ends the session
  - A connection closed without sending a password aborts silently

Dispatch:
  - One bounded read for the JSON command
  - Undecodable bytes produce the "Invalid JSON command." error response
  - Unknown actions produce "Unknown action: <value>"
  - Exactly one response per parsed command, then the connection closes

Failure handling:
  - Every read and write runs under a fresh per-session deadline
  - A panic anywhere in the session is recovered at the session boundary;
    one best-effort "An unexpected server error occurred." response is
    attempted before closing
  - The connection is released on every exit path

Reboot asymmetry:
  - reboot acknowledges success BEFORE invoking the command, then waits a
    one second grace period so the acknowledgement flushes; the host may
    die mid-session, so follow-up error responses are best-effort
  - update is pessimistic: the updater runs to completion (bounded by its
    own long timeout, not the session deadline) before the one response

# Usage

	verifier, err := auth.NewVerifier(secret)
	if err != nil {
		return err
	}

	srv := server.NewServer(&server.Config{
		ListenAddr:     "0.0.0.0:65432",
		SessionTimeout: 60 * time.Second,
		RebootCommand:  []string{"/sbin/reboot"},
		UpdateCommand:  []string{"/usr/local/sbin/system-update"},
		UpdateTimeout:  time.Hour,
	}, verifier, provider, executor.New(), broker)

	if err := srv.Start(); err != nil {
		return err // bind failures are fatal
	}
	defer srv.Stop()

Stop closes the listener and does not drain in-flight sessions; each one
finishes or hits its own deadline.

# Integration Points

This package integrates with:

  - pkg/auth: password verification against the secret digest
  - pkg/protocol: wire literals, request parsing, response encoding
  - pkg/sysinfo: system snapshot for get_system_info
  - pkg/executor: external reboot and update processes
  - pkg/events: session lifecycle events for the audit trail
  - pkg/metrics: session, auth, and command instrumentation
*/
package server
