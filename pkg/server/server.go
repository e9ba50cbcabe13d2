package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cuemby/minder/pkg/auth"
	"github.com/cuemby/minder/pkg/events"
	"github.com/cuemby/minder/pkg/executor"
	"github.com/cuemby/minder/pkg/log"
	"github.com/cuemby/minder/pkg/metrics"
	"github.com/cuemby/minder/pkg/sysinfo"
)

const (
	// DefaultListenAddr is the address the daemon binds when none is given
	DefaultListenAddr = "0.0.0.0:65432"

	// DefaultSessionTimeout bounds each read and write on a session
	DefaultSessionTimeout = 60 * time.Second

	// DefaultUpdateTimeout bounds the external updater invocation
	DefaultUpdateTimeout = time.Hour

	// acceptRetryDelay is the pause after a transient accept failure
	acceptRetryDelay = time.Second
)

// InfoProvider supplies the system snapshot for get_system_info requests
type InfoProvider interface {
	Snapshot(ctx context.Context) (*sysinfo.Snapshot, error)
}

// Config holds TCP server configuration
type Config struct {
	ListenAddr     string        // Address to listen on (default: 0.0.0.0:65432)
	SessionTimeout time.Duration // Per-operation read/write deadline (default: 60s)
	RebootCommand  []string      // Command invoked for the reboot action
	UpdateCommand  []string      // Command invoked for the update action
	UpdateTimeout  time.Duration // How long the updater may run (default: 1h)
}

// Server accepts client connections and runs one session per connection
type Server struct {
	cfg      *Config
	verifier *auth.Verifier
	info     InfoProvider
	runner   executor.Runner
	broker   *events.Broker

	listener net.Listener
	mu       sync.RWMutex
	running  bool
}

// NewServer creates a TCP server. The broker may be nil when no event
// audit trail is wanted.
func NewServer(cfg *Config, verifier *auth.Verifier, info InfoProvider, runner executor.Runner, broker *events.Broker) *Server {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = DefaultSessionTimeout
	}
	if cfg.UpdateTimeout <= 0 {
		cfg.UpdateTimeout = DefaultUpdateTimeout
	}

	return &Server{
		cfg:      cfg,
		verifier: verifier,
		info:     info,
		runner:   runner,
		broker:   broker,
	}
}

// Start binds the listen address and begins accepting connections. A bind
// failure is returned to the caller; accepting runs in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}

	listener, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("bind %s: %w", s.cfg.ListenAddr, err)
	}
	s.listener = listener
	s.running = true
	s.mu.Unlock()

	logger := log.WithComponent("server")
	logger.Info().
		Str("address", listener.Addr().String()).
		Msg("Daemon listening")

	s.publish(&events.Event{Type: events.EventServerStarted, Message: listener.Addr().String()})

	go s.acceptLoop(listener)

	return nil
}

// acceptLoop accepts connections until the listener closes. Transient
// accept failures are logged and retried after a short pause.
func (s *Server) acceptLoop(listener net.Listener) {
	logger := log.WithComponent("server")

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Error().Err(err).Msg("Accept failed")
			time.Sleep(acceptRetryDelay)
			continue
		}

		metrics.SessionsTotal.Inc()
		go newSession(s, conn).run()
	}
}

// Addr reports the bound listen address, nil before Start
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Running reports whether the server is accepting connections
func (s *Server) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Stop closes the listener. In-flight sessions are not drained; they
// finish or hit their own deadlines.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	logger := log.WithComponent("server")
	logger.Info().Msg("Stopping daemon")

	if err := s.listener.Close(); err != nil {
		logger.Error().Err(err).Msg("Error closing listener")
		return err
	}

	s.running = false
	s.publish(&events.Event{Type: events.EventServerStopped})

	logger.Info().Msg("Daemon stopped")

	return nil
}

func (s *Server) publish(event *events.Event) {
	if s.broker != nil {
		s.broker.Publish(event)
	}
}
