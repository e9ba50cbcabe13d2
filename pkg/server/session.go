package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cuemby/minder/pkg/events"
	"github.com/cuemby/minder/pkg/executor"
	"github.com/cuemby/minder/pkg/log"
	"github.com/cuemby/minder/pkg/metrics"
	"github.com/cuemby/minder/pkg/protocol"
)

const (
	// rebootGrace lets the acknowledgement flush before the host goes down
	rebootGrace = time.Second

	// rebootRunTimeout bounds the reboot command invocation
	rebootRunTimeout = time.Minute
)

// session handles one client connection from accept to close
type session struct {
	id     string
	srv    *Server
	conn   net.Conn
	peer   string
	logger zerolog.Logger
}

func newSession(srv *Server, conn net.Conn) *session {
	id := uuid.NewString()
	peer := conn.RemoteAddr().String()
	logger := log.WithComponent("session").With().
		Str("session_id", id).
		Str("peer", peer).
		Logger()

	return &session{
		id:     id,
		srv:    srv,
		conn:   conn,
		peer:   peer,
		logger: logger,
	}
}

// run drives the session: authenticate, dispatch one command, respond,
// close. Every exit path, panics included, releases the connection.
func (s *session) run() {
	timer := metrics.NewTimer()
	metrics.ActiveSessions.Inc()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("Session panicked")
			_ = s.writeResponse(protocol.Errorf(protocol.MsgServerError))
		}
		_ = s.conn.Close()
		metrics.ActiveSessions.Dec()
		timer.ObserveDuration(metrics.SessionDuration)
		s.publish(events.EventSessionClosed, "", "")
		s.logger.Info().Msg("Connection closed")
	}()

	s.logger.Info().Msg("Connected")
	s.publish(events.EventSessionConnected, "", "")

	if !s.authenticate() {
		return
	}

	s.dispatch()
}

// authenticate prompts for the password and verifies it. Exactly one
// attempt per connection; a wrong password ends the session.
func (s *session) authenticate() bool {
	if err := s.write([]byte(protocol.PasswordPrompt)); err != nil {
		s.logWireError(err, "password prompt")
		return false
	}

	data, err := s.read(protocol.MaxPasswordBytes)
	if err != nil {
		s.logWireError(err, "password")
		return false
	}

	password := bytes.TrimSpace(data)
	if !s.srv.verifier.Verify(password) {
		metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
		s.logger.Warn().Msg("Authentication failed")
		s.publish(events.EventSessionAuthFailed, "", "")
		_ = s.write([]byte(protocol.AuthFailed))
		return false
	}

	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()
	if err := s.write([]byte(protocol.AuthOK)); err != nil {
		s.logWireError(err, "auth confirmation")
		return false
	}

	s.logger.Info().Msg("Authentication successful")
	s.publish(events.EventSessionAuthenticated, "", "")
	return true
}

// dispatch reads the single command and routes it to its handler
func (s *session) dispatch() {
	data, err := s.read(protocol.MaxCommandBytes)
	if err != nil {
		s.logWireError(err, "command")
		return
	}

	req, err := protocol.ParseRequest(data)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Invalid command")
		_ = s.writeResponse(protocol.Errorf(protocol.MsgInvalidJSON))
		return
	}

	s.logger.Info().Str("action", req.Action).Msg("Dispatching command")
	s.publish(events.EventCommandDispatched, req.Action, "")

	switch req.Action {
	case protocol.ActionGetSystemInfo:
		s.handleGetSystemInfo()
	case protocol.ActionReboot:
		s.handleReboot()
	case protocol.ActionUpdate:
		s.handleUpdate()
	default:
		// Raw action strings stay out of metric labels
		metrics.CommandsTotal.WithLabelValues("unknown", "error").Inc()
		s.logger.Warn().Str("action", req.Action).Msg("Unknown action")
		_ = s.writeResponse(protocol.UnknownAction(req.Action))
	}
}

// handleGetSystemInfo collects a snapshot and sends it as the data payload
func (s *session) handleGetSystemInfo() {
	timer := metrics.NewTimer()

	ctx, cancel := context.WithTimeout(context.Background(), s.srv.cfg.SessionTimeout)
	defer cancel()

	snap, err := s.srv.info.Snapshot(ctx)
	timer.ObserveDurationVec(metrics.CommandDuration, protocol.ActionGetSystemInfo)

	if err != nil {
		metrics.CommandsTotal.WithLabelValues(protocol.ActionGetSystemInfo, "error").Inc()
		s.logger.Error().Err(err).Msg("Snapshot failed")
		_ = s.writeResponse(protocol.Errorf("Failed to collect system information: %v", err))
		return
	}

	metrics.CommandsTotal.WithLabelValues(protocol.ActionGetSystemInfo, "success").Inc()
	if err := s.writeResponse(protocol.SuccessData(snap)); err != nil {
		s.logWireError(err, "snapshot response")
	}
}

// handleReboot acknowledges first, then invokes the reboot command. The
// host may go down before the invocation returns, so the follow-up error
// response is best-effort and send failures are swallowed.
func (s *session) handleReboot() {
	if err := s.writeResponse(protocol.Success(protocol.MsgRebootIssued)); err != nil {
		s.logWireError(err, "reboot acknowledgement")
		return
	}

	// Let the acknowledgement flush before the host goes down
	time.Sleep(rebootGrace)

	res, err := s.srv.runner.Run(context.Background(), rebootRunTimeout, s.srv.cfg.RebootCommand...)
	if err == nil {
		metrics.CommandsTotal.WithLabelValues(protocol.ActionReboot, "success").Inc()
		s.logger.Info().Msg("Reboot command issued")
		return
	}

	metrics.CommandsTotal.WithLabelValues(protocol.ActionReboot, "error").Inc()
	s.logger.Error().Err(err).Msg("Reboot command failed")

	var resp *protocol.Response
	if errors.Is(err, executor.ErrNotFound) {
		resp = protocol.Errorf("Reboot command not found: %s", res.Command)
	} else {
		resp = &protocol.Response{
			Status:  protocol.StatusError,
			Message: "Reboot command failed.",
			Error:   commandError(res, err),
		}
		if errors.Is(err, executor.ErrNonZeroExit) {
			code := res.ExitCode
			resp.ReturnCode = &code
		}
	}
	_ = s.writeResponse(resp)
}

// handleUpdate runs the updater to completion before responding. The
// updater's own timeout bounds the run, not the session deadline.
func (s *session) handleUpdate() {
	timer := metrics.NewTimer()
	res, err := s.srv.runner.Run(context.Background(), s.srv.cfg.UpdateTimeout, s.srv.cfg.UpdateCommand...)
	timer.ObserveDurationVec(metrics.CommandDuration, protocol.ActionUpdate)

	status := "success"
	var resp *protocol.Response

	switch {
	case err == nil:
		s.logger.Info().Dur("duration", res.Duration).Msg("Update completed")
		resp = &protocol.Response{
			Status:  protocol.StatusSuccess,
			Message: "Update completed successfully.",
			Output:  res.Stdout,
		}
	case errors.Is(err, executor.ErrNotFound):
		status = "error"
		resp = protocol.Errorf("Update command not found: %s", res.Command)
	case errors.Is(err, executor.ErrTimedOut):
		status = "error"
		resp = protocol.Errorf("Update command timed out after %s", s.srv.cfg.UpdateTimeout)
	case errors.Is(err, executor.ErrNonZeroExit):
		status = "error"
		code := res.ExitCode
		resp = &protocol.Response{
			Status:     protocol.StatusError,
			Message:    "Update command failed.",
			Error:      commandError(res, err),
			ReturnCode: &code,
		}
	default:
		status = "error"
		resp = protocol.Errorf("Update command failed: %v", err)
	}

	if err != nil {
		s.logger.Error().Err(err).Str("stderr", res.Stderr).Msg("Update failed")
	}
	metrics.CommandsTotal.WithLabelValues(protocol.ActionUpdate, status).Inc()

	if err := s.writeResponse(resp); err != nil {
		s.logWireError(err, "update result")
	}
}

// read performs one bounded read under a fresh session deadline: a single
// Read call returning at most limit bytes. A connection closed without
// data reads as io.EOF.
func (s *session) read(limit int) ([]byte, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.srv.cfg.SessionTimeout)); err != nil {
		return nil, err
	}

	buf := make([]byte, limit)
	n, err := s.conn.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err == nil {
		err = io.EOF
	}
	return nil, err
}

// write sends data under a fresh session deadline
func (s *session) write(data []byte) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.srv.cfg.SessionTimeout)); err != nil {
		return err
	}
	_, err := s.conn.Write(data)
	return err
}

func (s *session) writeResponse(resp *protocol.Response) error {
	data, err := resp.Marshal()
	if err != nil {
		return err
	}
	return s.write(data)
}

func (s *session) publish(eventType events.EventType, action, message string) {
	s.srv.publish(&events.Event{
		Type:      eventType,
		SessionID: s.id,
		Peer:      s.peer,
		Action:    action,
		Message:   message,
	})
}

// logWireError classifies a failed read or write on the session socket
func (s *session) logWireError(err error, during string) {
	switch {
	case errors.Is(err, os.ErrDeadlineExceeded):
		s.logger.Warn().Str("during", during).Msg("Connection timed out")
	case errors.Is(err, io.EOF):
		s.logger.Debug().Str("during", during).Msg("Client disconnected")
	default:
		s.logger.Error().Err(err).Str("during", during).Msg("Connection error")
	}
}

// commandError prefers captured stderr for diagnostics, falling back to
// the invocation error text.
func commandError(res *executor.Result, err error) string {
	if res != nil {
		if stderr := strings.TrimSpace(res.Stderr); stderr != "" {
			return stderr
		}
	}
	return err.Error()
}
