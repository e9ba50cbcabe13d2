package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/cuemby/minder/pkg/protocol"
)

const (
	// DefaultTimeout bounds dialing, authentication, and ordinary
	// response reads
	DefaultTimeout = 10 * time.Second

	// DefaultUpdateWait is how long an update response may take. The
	// daemon side allows the updater an hour; the extra slack covers
	// transfer time.
	DefaultUpdateWait = 65 * time.Minute

	// rebootFollowUpWait is how long to linger for a follow-up error
	// after a reboot acknowledgement
	rebootFollowUpWait = 5 * time.Second
)

// ErrAuthFailed reports that the daemon rejected the password.
var ErrAuthFailed = errors.New("authentication failed")

// Config holds client configuration
type Config struct {
	Addr       string        // Daemon address, host:port
	Secret     string        // Shared secret
	Timeout    time.Duration // Dial/auth/response timeout (default: 10s)
	UpdateWait time.Duration // Update response wait (default: 65m)
}

// Client speaks the Minder wire protocol. Each operation opens its own
// connection, authenticates, sends one command, and reads one response.
type Client struct {
	addr       string
	secret     string
	timeout    time.Duration
	updateWait time.Duration
}

// NewClient creates a client for the daemon at cfg.Addr
func NewClient(cfg *Config) *Client {
	if cfg == nil {
		cfg = &Config{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	updateWait := cfg.UpdateWait
	if updateWait <= 0 {
		updateWait = DefaultUpdateWait
	}

	return &Client{
		addr:       cfg.Addr,
		secret:     cfg.Secret,
		timeout:    timeout,
		updateWait: updateWait,
	}
}

// GetSystemInfo requests the system snapshot. The snapshot object is in
// the response's Data field.
func (c *Client) GetSystemInfo(ctx context.Context) (*protocol.Response, error) {
	return c.do(ctx, protocol.ActionGetSystemInfo, c.timeout)
}

// Update runs the remote updater and blocks until it finishes or times
// out on the daemon side.
func (c *Client) Update(ctx context.Context) (*protocol.Response, error) {
	return c.do(ctx, protocol.ActionUpdate, c.updateWait)
}

// Reboot issues the reboot action. The daemon acknowledges before
// invoking the reboot command, so a success response means the command
// was issued, not that the host is down. If the daemon reports a failure
// in the follow-up window, that error response is returned instead.
func (c *Client) Reboot(ctx context.Context) (*protocol.Response, error) {
	conn, r, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := send(conn, protocol.ActionReboot); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(r)

	var ack protocol.Response
	if err := dec.Decode(&ack); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if ack.Status != protocol.StatusSuccess {
		return &ack, nil
	}

	// A failed reboot sends a follow-up error; a successful one takes
	// the host down and the read ends with the connection.
	_ = conn.SetReadDeadline(time.Now().Add(rebootFollowUpWait))

	var follow protocol.Response
	if err := dec.Decode(&follow); err == nil {
		return &follow, nil
	}
	return &ack, nil
}

// do opens a session, sends action, and reads the single response within
// wait (or the context deadline, whichever is sooner).
func (c *Client) do(ctx context.Context, action string, wait time.Duration) (*protocol.Response, error) {
	conn, r, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := send(conn, action); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(wait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	var resp protocol.Response
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &resp, nil
}

// open dials the daemon and completes the password exchange
func (c *Client) open(ctx context.Context) (net.Conn, *bufio.Reader, error) {
	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", c.addr, err)
	}

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		conn.Close()
		return nil, nil, err
	}

	r := bufio.NewReader(conn)

	prompt := make([]byte, len(protocol.PasswordPrompt))
	if _, err := io.ReadFull(r, prompt); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("read password prompt: %w", err)
	}
	if string(prompt) != protocol.PasswordPrompt {
		conn.Close()
		return nil, nil, fmt.Errorf("unexpected prompt %q", prompt)
	}

	if _, err := conn.Write([]byte(c.secret + "\n")); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("send password: %w", err)
	}

	verdict, err := r.ReadString('\n')
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("read auth verdict: %w", err)
	}

	switch verdict {
	case protocol.AuthOK:
		return conn, r, nil
	case protocol.AuthFailed:
		conn.Close()
		return nil, nil, ErrAuthFailed
	default:
		conn.Close()
		return nil, nil, fmt.Errorf("unexpected auth verdict %q", verdict)
	}
}

func send(conn net.Conn, action string) error {
	data, err := json.Marshal(protocol.Request{Action: action})
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("send command: %w", err)
	}
	return nil
}
