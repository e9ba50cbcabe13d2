package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/minder/pkg/auth"
	"github.com/cuemby/minder/pkg/events"
	"github.com/cuemby/minder/pkg/executor"
	"github.com/cuemby/minder/pkg/metrics"
	"github.com/cuemby/minder/pkg/protocol"
	"github.com/cuemby/minder/pkg/sysinfo"
)

const testSecret = "sup3rs3cret"

type stubProvider struct {
	snap     *sysinfo.Snapshot
	err      error
	panicMsg string
	delay    time.Duration
}

func (p *stubProvider) Snapshot(ctx context.Context) (*sysinfo.Snapshot, error) {
	if p.panicMsg != "" {
		panic(p.panicMsg)
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	return p.snap, p.err
}

type stubRunner struct {
	mu      sync.Mutex
	res     *executor.Result
	err     error
	command []string
	timeout time.Duration
	calls   int
}

func (r *stubRunner) Run(ctx context.Context, timeout time.Duration, command ...string) (*executor.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls++
	r.command = command
	r.timeout = timeout

	res := r.res
	if res == nil {
		res = &executor.Result{Command: strings.Join(command, " "), ExitCode: 0}
	}
	return res, r.err
}

func testSnapshot() *sysinfo.Snapshot {
	return &sysinfo.Snapshot{
		Hostname:                  "web-01",
		UptimeString:              "42h 7m",
		UptimePercentageLast7Days: "99.87%",
		RAMUsage: sysinfo.RAMUsage{
			TotalGB:     "15.61",
			AvailableGB: "9.22",
			PercentUsed: "40.93%",
		},
		CPUUsagePercent: "12.50%",
		CPUCount:        8,
		DiskUsageRoot: sysinfo.DiskUsage{
			TotalGB:     "457.38",
			UsedGB:      "102.11",
			FreeGB:      "355.27",
			PercentUsed: "22.33%",
		},
		KernelVersion: "6.8.0-45-generic",
		DistroName:    "Ubuntu 24.04 LTS",
	}
}

func newTestServer(t *testing.T, info InfoProvider, runner executor.Runner, broker *events.Broker) *Server {
	t.Helper()

	verifier, err := auth.NewVerifier(testSecret)
	require.NoError(t, err)

	if info == nil {
		info = &stubProvider{snap: testSnapshot()}
	}
	if runner == nil {
		runner = &stubRunner{}
	}

	srv := NewServer(&Config{
		ListenAddr:     "127.0.0.1:0",
		SessionTimeout: 2 * time.Second,
		RebootCommand:  []string{"/sbin/reboot"},
		UpdateCommand:  []string{"/usr/local/sbin/system-update"},
		UpdateTimeout:  5 * time.Second,
	}, verifier, info, runner, broker)

	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Stop() })

	return srv
}

type testClient struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func dialServer(t *testing.T, srv *Server) *testClient {
	t.Helper()

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.SetDeadline(time.Now().Add(10*time.Second)))

	return &testClient{t: t, conn: conn, r: bufio.NewReader(conn)}
}

func (c *testClient) readPrompt() {
	c.t.Helper()

	buf := make([]byte, len(protocol.PasswordPrompt))
	_, err := io.ReadFull(c.r, buf)
	require.NoError(c.t, err)
	require.Equal(c.t, protocol.PasswordPrompt, string(buf))
}

// auth sends the password and returns the server's verdict line
func (c *testClient) auth(password string) string {
	c.t.Helper()

	c.readPrompt()
	_, err := c.conn.Write([]byte(password + "\n"))
	require.NoError(c.t, err)

	verdict, err := c.r.ReadString('\n')
	require.NoError(c.t, err)
	return verdict
}

// command sends raw command bytes and decodes the single response, which
// the server terminates by closing the connection
func (c *testClient) command(raw string) *protocol.Response {
	c.t.Helper()

	_, err := c.conn.Write([]byte(raw))
	require.NoError(c.t, err)

	data, err := io.ReadAll(c.r)
	require.NoError(c.t, err)

	var resp protocol.Response
	require.NoError(c.t, json.Unmarshal(data, &resp), "response bytes: %q", data)
	return &resp
}

func TestAuthenticationSuccess(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)
	c := dialServer(t, srv)

	verdict := c.auth(testSecret)
	assert.Equal(t, protocol.AuthOK, verdict)
}

func TestAuthenticationFailure(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)
	c := dialServer(t, srv)

	verdict := c.auth("wrong-password")
	assert.Equal(t, protocol.AuthFailed, verdict)

	// One attempt per connection: the session is gone
	_, _ = c.conn.Write([]byte(testSecret + "\n"))
	_, err := c.r.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}

func TestAuthenticationTrimsWhitespace(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)
	c := dialServer(t, srv)

	c.readPrompt()
	_, err := c.conn.Write([]byte(testSecret + "\r\n"))
	require.NoError(t, err)

	verdict, err := c.r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, protocol.AuthOK, verdict)
}

func TestGetSystemInfo(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)
	c := dialServer(t, srv)

	c.auth(testSecret)
	resp := c.command(`{"action": "get_system_info"}`)

	require.Equal(t, protocol.StatusSuccess, resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data should be an object, got %T", resp.Data)
	assert.Equal(t, "web-01", data["hostname"])
	assert.Equal(t, "42h 7m", data["uptime_string"])
	assert.Equal(t, "99.87%", data["uptime_percentage_last_7_days"])
	assert.Equal(t, float64(8), data["cpu_count"])

	ram, ok := data["ram_usage"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "15.61", ram["total_gb"])
}

func TestGetSystemInfoProviderFailure(t *testing.T) {
	srv := newTestServer(t, &stubProvider{err: fmt.Errorf("collect memory: permission denied")}, nil, nil)
	c := dialServer(t, srv)

	c.auth(testSecret)
	resp := c.command(`{"action": "get_system_info"}`)

	assert.Equal(t, protocol.StatusError, resp.Status)
	assert.Contains(t, resp.Message, "Failed to collect system information")
}

func TestInvalidJSONCommand(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)
	c := dialServer(t, srv)

	c.auth(testSecret)
	resp := c.command("this is not json")

	assert.Equal(t, protocol.StatusError, resp.Status)
	assert.Equal(t, protocol.MsgInvalidJSON, resp.Message)
}

func TestUnknownAction(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)
	c := dialServer(t, srv)

	c.auth(testSecret)
	resp := c.command(`{"action": "destroy_everything"}`)

	assert.Equal(t, protocol.StatusError, resp.Status)
	assert.Equal(t, "Unknown action: destroy_everything", resp.Message)
}

func TestMissingAction(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)
	c := dialServer(t, srv)

	c.auth(testSecret)
	resp := c.command(`{"command": "reboot"}`)

	assert.Equal(t, protocol.StatusError, resp.Status)
	assert.Equal(t, "Unknown action: ", resp.Message)
}

func TestUpdateSuccess(t *testing.T) {
	runner := &stubRunner{res: &executor.Result{
		Command:  "/usr/local/sbin/system-update",
		ExitCode: 0,
		Stdout:   "47 packages upgraded\n",
	}}
	srv := newTestServer(t, nil, runner, nil)
	c := dialServer(t, srv)

	c.auth(testSecret)
	resp := c.command(`{"action": "update"}`)

	assert.Equal(t, protocol.StatusSuccess, resp.Status)
	assert.Equal(t, "Update completed successfully.", resp.Message)
	assert.Equal(t, "47 packages upgraded\n", resp.Output)
	assert.Nil(t, resp.ReturnCode)

	assert.Equal(t, []string{"/usr/local/sbin/system-update"}, runner.command)
	assert.Equal(t, 5*time.Second, runner.timeout)
}

func TestUpdateNonZeroExit(t *testing.T) {
	runner := &stubRunner{
		res: &executor.Result{
			Command:  "/usr/local/sbin/system-update",
			ExitCode: 2,
			Stderr:   "E: unable to lock the administration directory\n",
		},
		err: fmt.Errorf("%w: /usr/local/sbin/system-update (exit 2)", executor.ErrNonZeroExit),
	}
	srv := newTestServer(t, nil, runner, nil)
	c := dialServer(t, srv)

	c.auth(testSecret)
	resp := c.command(`{"action": "update"}`)

	assert.Equal(t, protocol.StatusError, resp.Status)
	assert.Equal(t, "Update command failed.", resp.Message)
	assert.Equal(t, "E: unable to lock the administration directory", resp.Error)
	require.NotNil(t, resp.ReturnCode)
	assert.Equal(t, 2, *resp.ReturnCode)
}

func TestUpdateNotFound(t *testing.T) {
	runner := &stubRunner{
		res: &executor.Result{Command: "/usr/local/sbin/system-update", ExitCode: -1},
		err: fmt.Errorf("%w: /usr/local/sbin/system-update", executor.ErrNotFound),
	}
	srv := newTestServer(t, nil, runner, nil)
	c := dialServer(t, srv)

	c.auth(testSecret)
	resp := c.command(`{"action": "update"}`)

	assert.Equal(t, protocol.StatusError, resp.Status)
	assert.Contains(t, resp.Message, "Update command not found")
	assert.Nil(t, resp.ReturnCode)
}

func TestUpdateTimeout(t *testing.T) {
	runner := &stubRunner{
		res: &executor.Result{Command: "/usr/local/sbin/system-update", ExitCode: -1, TimedOut: true},
		err: fmt.Errorf("%w after 5s: /usr/local/sbin/system-update", executor.ErrTimedOut),
	}
	srv := newTestServer(t, nil, runner, nil)
	c := dialServer(t, srv)

	c.auth(testSecret)
	resp := c.command(`{"action": "update"}`)

	assert.Equal(t, protocol.StatusError, resp.Status)
	assert.Contains(t, resp.Message, "Update command timed out")
	assert.Nil(t, resp.ReturnCode)
}

func TestRebootAcknowledgesBeforeRunning(t *testing.T) {
	runner := &stubRunner{}
	srv := newTestServer(t, nil, runner, nil)
	c := dialServer(t, srv)

	c.auth(testSecret)
	_, err := c.conn.Write([]byte(`{"action": "reboot"}`))
	require.NoError(t, err)

	// The acknowledgement arrives before the grace period ends
	dec := json.NewDecoder(c.r)
	var ack protocol.Response
	start := time.Now()
	require.NoError(t, dec.Decode(&ack))
	assert.Less(t, time.Since(start), rebootGrace)

	assert.Equal(t, protocol.StatusSuccess, ack.Status)
	assert.Equal(t, protocol.MsgRebootIssued, ack.Message)

	// Successful reboot sends nothing further
	var follow protocol.Response
	assert.ErrorIs(t, dec.Decode(&follow), io.EOF)

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Equal(t, []string{"/sbin/reboot"}, runner.command)
	assert.Equal(t, 1, runner.calls)
}

func TestRebootNotFoundSendsFollowUp(t *testing.T) {
	runner := &stubRunner{
		res: &executor.Result{Command: "/sbin/reboot", ExitCode: -1},
		err: fmt.Errorf("%w: /sbin/reboot", executor.ErrNotFound),
	}
	srv := newTestServer(t, nil, runner, nil)
	c := dialServer(t, srv)

	c.auth(testSecret)
	_, err := c.conn.Write([]byte(`{"action": "reboot"}`))
	require.NoError(t, err)

	dec := json.NewDecoder(c.r)

	var ack protocol.Response
	require.NoError(t, dec.Decode(&ack))
	assert.Equal(t, protocol.StatusSuccess, ack.Status)

	var follow protocol.Response
	require.NoError(t, dec.Decode(&follow))
	assert.Equal(t, protocol.StatusError, follow.Status)
	assert.Contains(t, follow.Message, "Reboot command not found")
}

func TestRebootFailureSendsDiagnostics(t *testing.T) {
	runner := &stubRunner{
		res: &executor.Result{Command: "/sbin/reboot", ExitCode: 1, Stderr: "Failed to talk to init daemon\n"},
		err: fmt.Errorf("%w: /sbin/reboot (exit 1)", executor.ErrNonZeroExit),
	}
	srv := newTestServer(t, nil, runner, nil)
	c := dialServer(t, srv)

	c.auth(testSecret)
	_, err := c.conn.Write([]byte(`{"action": "reboot"}`))
	require.NoError(t, err)

	dec := json.NewDecoder(c.r)

	var ack protocol.Response
	require.NoError(t, dec.Decode(&ack))

	var follow protocol.Response
	require.NoError(t, dec.Decode(&follow))
	assert.Equal(t, protocol.StatusError, follow.Status)
	assert.Equal(t, "Failed to talk to init daemon", follow.Error)
	require.NotNil(t, follow.ReturnCode)
	assert.Equal(t, 1, *follow.ReturnCode)
}

func TestSessionPanicSendsServerError(t *testing.T) {
	srv := newTestServer(t, &stubProvider{panicMsg: "snapshot exploded"}, nil, nil)
	c := dialServer(t, srv)

	c.auth(testSecret)
	resp := c.command(`{"action": "get_system_info"}`)

	assert.Equal(t, protocol.StatusError, resp.Status)
	assert.Equal(t, protocol.MsgServerError, resp.Message)
}

func TestSessionTimeoutAborts(t *testing.T) {
	verifier, err := auth.NewVerifier(testSecret)
	require.NoError(t, err)

	srv := NewServer(&Config{
		ListenAddr:     "127.0.0.1:0",
		SessionTimeout: 100 * time.Millisecond,
	}, verifier, &stubProvider{snap: testSnapshot()}, &stubRunner{}, nil)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Stop() })

	c := dialServer(t, srv)
	c.readPrompt()

	// Send nothing; the server gives up and closes
	start := time.Now()
	_, err = c.r.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestClientDisconnectBeforePassword(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)

	c := dialServer(t, srv)
	c.readPrompt()
	require.NoError(t, c.conn.Close())

	// The server survives and keeps accepting
	c2 := dialServer(t, srv)
	verdict := c2.auth(testSecret)
	assert.Equal(t, protocol.AuthOK, verdict)
}

func TestConcurrentSessions(t *testing.T) {
	srv := newTestServer(t, &stubProvider{snap: testSnapshot(), delay: 100 * time.Millisecond}, nil, nil)

	const sessions = 5
	errCh := make(chan error, sessions)

	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			conn, err := net.Dial("tcp", srv.Addr().String())
			if err != nil {
				errCh <- err
				return
			}
			defer conn.Close()
			_ = conn.SetDeadline(time.Now().Add(10 * time.Second))

			r := bufio.NewReader(conn)
			prompt := make([]byte, len(protocol.PasswordPrompt))
			if _, err := io.ReadFull(r, prompt); err != nil {
				errCh <- err
				return
			}
			if _, err := conn.Write([]byte(testSecret + "\n")); err != nil {
				errCh <- err
				return
			}
			if _, err := r.ReadString('\n'); err != nil {
				errCh <- err
				return
			}
			if _, err := conn.Write([]byte(`{"action": "get_system_info"}`)); err != nil {
				errCh <- err
				return
			}

			data, err := io.ReadAll(r)
			if err != nil {
				errCh <- err
				return
			}

			var resp protocol.Response
			if err := json.Unmarshal(data, &resp); err != nil {
				errCh <- err
				return
			}
			if resp.Status != protocol.StatusSuccess {
				errCh <- fmt.Errorf("unexpected status %q", resp.Status)
				return
			}
			errCh <- nil
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		assert.NoError(t, err)
	}
}

func TestCommandCounterLabels(t *testing.T) {
	// Counters are process-global, so assert deltas rather than absolutes
	count := func(action, status string) float64 {
		return testutil.ToFloat64(metrics.CommandsTotal.WithLabelValues(action, status))
	}
	updateOK := count(protocol.ActionUpdate, "success")
	updateFailed := count(protocol.ActionUpdate, "error")
	unknown := count("unknown", "error")

	srv := newTestServer(t, nil, nil, nil)
	c := dialServer(t, srv)
	c.auth(testSecret)
	c.command(`{"action": "update"}`)

	failing := newTestServer(t, nil, &stubRunner{
		res: &executor.Result{Command: "/usr/local/sbin/system-update", ExitCode: 1, Stderr: "no space left on device\n"},
		err: fmt.Errorf("%w: /usr/local/sbin/system-update (exit 1)", executor.ErrNonZeroExit),
	}, nil)
	c = dialServer(t, failing)
	c.auth(testSecret)
	c.command(`{"action": "update"}`)

	c = dialServer(t, srv)
	c.auth(testSecret)
	c.command(`{"action": "defrag"}`)

	assert.Equal(t, updateOK+1, count(protocol.ActionUpdate, "success"))
	assert.Equal(t, updateFailed+1, count(protocol.ActionUpdate, "error"))
	// Raw action strings stay out of metric labels
	assert.Equal(t, unknown+1, count("unknown", "error"))
}

func TestSessionEventSequence(t *testing.T) {
	broker := events.NewBroker()
	broker.Start()
	t.Cleanup(broker.Stop)

	sub := broker.Subscribe()
	t.Cleanup(func() { broker.Unsubscribe(sub) })

	srv := newTestServer(t, nil, nil, broker)
	c := dialServer(t, srv)

	c.auth(testSecret)
	resp := c.command(`{"action": "get_system_info"}`)
	require.Equal(t, protocol.StatusSuccess, resp.Status)

	var types []events.EventType
	deadline := time.After(2 * time.Second)
	for len(types) < 4 {
		select {
		case ev := <-sub:
			if ev.SessionID == "" {
				continue // server lifecycle events
			}
			types = append(types, ev.Type)
		case <-deadline:
			t.Fatalf("timed out waiting for session events, got %v", types)
		}
	}

	assert.Equal(t, []events.EventType{
		events.EventSessionConnected,
		events.EventSessionAuthenticated,
		events.EventCommandDispatched,
		events.EventSessionClosed,
	}, types)
}
