package protocol

import (
	"encoding/json"
	"fmt"
)

// Wire literals exchanged during the authentication phase. These are fixed:
// existing clients match on them byte for byte.
const (
	PasswordPrompt = "Password: "
	AuthFailed     = "Authentication failed.\n"
	AuthOK         = "Authentication successful. Send JSON command.\n"
)

// Read limits for the two messages a client sends. Each message is read
// with a single bounded read; bytes beyond the limit are never consumed.
const (
	MaxPasswordBytes = 1024
	MaxCommandBytes  = 4096
)

// Actions a client may request after authenticating.
const (
	ActionGetSystemInfo = "get_system_info"
	ActionReboot        = "reboot"
	ActionUpdate        = "update"
)

// Status values carried in every response.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Canned response messages.
const (
	MsgInvalidJSON  = "Invalid JSON command."
	MsgServerError  = "An unexpected server error occurred."
	MsgRebootIssued = "Reboot command issued. The system is going down now."
)

// Request is the single JSON command a client sends after authenticating.
type Request struct {
	Action string `json:"action"`
}

// Response is the single JSON document the server writes before closing
// the connection. Optional fields are omitted when empty; ReturnCode is a
// pointer so a zero exit code can still be carried when one exists.
type Response struct {
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	Data       any    `json:"data,omitempty"`
	Output     string `json:"output,omitempty"`
	Error      string `json:"error,omitempty"`
	ReturnCode *int   `json:"return_code,omitempty"`
}

// ParseRequest decodes the JSON command sent by a client. Any decode
// failure, including valid JSON of the wrong shape, is reported as an
// error so the caller can answer with MsgInvalidJSON.
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}
	return &req, nil
}

// Marshal encodes the response as a compact JSON document.
func (r *Response) Marshal() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return data, nil
}

// Success returns a success response carrying a message.
func Success(message string) *Response {
	return &Response{Status: StatusSuccess, Message: message}
}

// SuccessData returns a success response carrying a data payload.
func SuccessData(data any) *Response {
	return &Response{Status: StatusSuccess, Data: data}
}

// Errorf returns an error response with a formatted message.
func Errorf(format string, args ...any) *Response {
	return &Response{Status: StatusError, Message: fmt.Sprintf(format, args...)}
}

// UnknownAction returns the error response for an unrecognized or missing
// action value.
func UnknownAction(action string) *Response {
	return Errorf("Unknown action: %s", action)
}
