/*
Package client implements the Go client for the Minder daemon protocol.

The client dials the daemon over TCP, completes the password exchange, sends
one JSON command, and reads the single response. Each operation uses its own
connection because the protocol services exactly one command per session.

# Architecture

	┌──────────────────── CLIENT FLOW ────────────────────┐
	│                                                     │
	│  Client.GetSystemInfo / Reboot / Update             │
	│                     │                               │
	│  ┌──────────────────▼───────────────────┐           │
	│  │              open()                  │           │
	│  │  - Dial (timeout bounded)            │           │
	│  │  - Read "Password: " prompt          │           │
	│  │  - Send secret                       │           │
	│  │  - Read verdict line                 │           │
	│  │    failed  → ErrAuthFailed           │           │
	│  │    success → session ready           │           │
	│  └──────────────────┬───────────────────┘           │
	│                     │                               │
	│  ┌──────────────────▼───────────────────┐           │
	│  │          send + decode               │           │
	│  │  {"action": "..."} → one Response    │           │
	│  │  connection closes after response    │           │
	│  └──────────────────────────────────────┘           │
	└─────────────────────────────────────────────────────┘

# Operation Semantics

GetSystemInfo:
  - Response Data field carries the snapshot object
  - Bounded by the configured timeout

Update:
  - Blocks until the remote updater finishes
  - Waits up to UpdateWait (default 65 minutes) for the response
  - Success responses carry updater stdout in Output

Reboot:
  - The daemon acknowledges BEFORE invoking the reboot command
  - A success response means the command was issued, not completed
  - The client lingers a few seconds for a follow-up error response
    (command not found, non-zero exit) and returns that when it arrives

# Usage

	c := client.NewClient(&client.Config{
		Addr:   "10.0.0.5:65432",
		Secret: os.Getenv("MINDER_SECRET"),
	})

	resp, err := c.GetSystemInfo(context.Background())
	if errors.Is(err, client.ErrAuthFailed) {
		// wrong secret
	}
	if err != nil {
		return err
	}

	fmt.Println(resp.Status, resp.Data)

# Error Handling

Transport and authentication problems are returned as Go errors;
ErrAuthFailed identifies a rejected password. Daemon-side failures arrive
as *protocol.Response values with Status "error" and a nil Go error: the
session worked, the command did not.

# Integration Points

This package integrates with:

  - pkg/protocol: wire literals, request encoding, response decoding
  - cmd/minder: the info, reboot, and update subcommands
*/
package client
