/*
Package protocol defines the wire format spoken on the Minder control socket.

The protocol is deliberately small: a fixed password prompt, two fixed
authentication verdict lines, one JSON command from the client, and one JSON
response from the server. Every exchange happens on a fresh TCP connection
and the server closes the connection after the response.

# Wire Exchange

	┌─ client ──────────────────┐     ┌─ server ─────────────────────────────┐
	│                           │     │                                      │
	│                  connect ─┼────▶│                                      │
	│                           │◀────┼─ "Password: "                        │
	│  password line ───────────┼────▶│  (single read, max 1024 bytes)       │
	│                           │◀────┼─ "Authentication failed.\n"          │
	│                           │     │   └─ connection closed               │
	│                           │◀────┼─ "Authentication successful.         │
	│                           │     │    Send JSON command.\n"             │
	│  {"action":"..."} ────────┼────▶│  (single read, max 4096 bytes)       │
	│                           │◀────┼─ {"status":"success","data":{...}}   │
	│                           │     │   └─ connection closed               │
	└───────────────────────────┘     └──────────────────────────────────────┘

# Actions

	get_system_info   collect and return a system snapshot
	reboot            acknowledge, then issue the reboot command
	update            run the update command and report its outcome

# Response Shape

Every response carries "status" ("success" or "error"). The remaining
fields appear only when they have content:

	{"status":"success","data":{...}}                          get_system_info
	{"status":"success","message":"Reboot command issued..."}  reboot
	{"status":"success","output":"..."}                        update (ok)
	{"status":"error","error":"...","return_code":1}           update (failed)
	{"status":"error","message":"Invalid JSON command."}       bad command
	{"status":"error","message":"Unknown action: x"}           bad action

# Usage

Parsing a command:

	req, err := protocol.ParseRequest(buf)
	if err != nil {
		resp := protocol.Errorf(protocol.MsgInvalidJSON)
		...
	}

Building responses:

	protocol.SuccessData(snapshot)
	protocol.Success(protocol.MsgRebootIssued)
	protocol.UnknownAction(req.Action)

# Integration Points

  - pkg/server: Reads requests and writes responses over TCP
  - pkg/client: Speaks the same exchange from the client side
  - pkg/sysinfo: Snapshot becomes the data payload of get_system_info
  - pkg/executor: Result populates output/error/return_code for update

# Compatibility

The prompt and verdict strings, the read limits, and the response field
names are frozen. Deployed clients parse them literally, so additions must
be backward compatible (new optional response fields only).
*/
package protocol
