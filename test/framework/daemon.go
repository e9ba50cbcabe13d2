package framework

import (
	"context"
	"testing"
	"time"

	"github.com/cuemby/minder/pkg/auth"
	"github.com/cuemby/minder/pkg/client"
	"github.com/cuemby/minder/pkg/events"
	"github.com/cuemby/minder/pkg/executor"
	"github.com/cuemby/minder/pkg/server"
	"github.com/cuemby/minder/pkg/storage"
	"github.com/cuemby/minder/pkg/sysinfo"
)

// Daemon is an in-process Minder daemon wired like production: real
// listener, real boot history store, live system metrics, and real
// subprocess execution.
type Daemon struct {
	Server *server.Server
	Store  storage.Store
	Broker *events.Broker
	Secret string
}

// Options configures a test daemon. Zero values get test-friendly
// defaults; the default reboot and update commands are harmless.
type Options struct {
	Secret         string
	SessionTimeout time.Duration
	RebootCommand  []string
	UpdateCommand  []string
	UpdateTimeout  time.Duration
}

// StartDaemon starts a daemon on an ephemeral port with a temporary boot
// history database. Everything shuts down via t.Cleanup.
func StartDaemon(t *testing.T, opts *Options) *Daemon {
	t.Helper()

	if opts == nil {
		opts = &Options{}
	}
	if opts.Secret == "" {
		opts.Secret = "integration-secret"
	}
	if opts.SessionTimeout <= 0 {
		opts.SessionTimeout = 5 * time.Second
	}
	if len(opts.RebootCommand) == 0 {
		opts.RebootCommand = []string{"true"}
	}
	if len(opts.UpdateCommand) == 0 {
		opts.UpdateCommand = []string{"sh", "-c", "echo updated"}
	}
	if opts.UpdateTimeout <= 0 {
		opts.UpdateTimeout = 30 * time.Second
	}

	verifier, err := auth.NewVerifier(opts.Secret)
	if err != nil {
		t.Fatalf("create verifier: %v", err)
	}

	store, err := storage.NewBoltStore(t.TempDir())
	if err != nil {
		t.Fatalf("open boot history store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	// Seed the history with the real boot, as the daemon does at startup
	if bootTime, err := sysinfo.BootTime(context.Background()); err == nil {
		_ = store.RecordBoot(bootTime)
	}

	broker := events.NewBroker()
	broker.Start()
	t.Cleanup(broker.Stop)

	srv := server.NewServer(&server.Config{
		ListenAddr:     "127.0.0.1:0",
		SessionTimeout: opts.SessionTimeout,
		RebootCommand:  opts.RebootCommand,
		UpdateCommand:  opts.UpdateCommand,
		UpdateTimeout:  opts.UpdateTimeout,
	}, verifier, sysinfo.NewProvider(store, 100*time.Millisecond), executor.New(), broker)

	if err := srv.Start(); err != nil {
		t.Fatalf("start daemon: %v", err)
	}
	t.Cleanup(func() { _ = srv.Stop() })

	return &Daemon{
		Server: srv,
		Store:  store,
		Broker: broker,
		Secret: opts.Secret,
	}
}

// Addr returns the daemon's listen address
func (d *Daemon) Addr() string {
	return d.Server.Addr().String()
}

// Client returns a protocol client aimed at this daemon
func (d *Daemon) Client() *client.Client {
	return client.NewClient(&client.Config{
		Addr:    d.Addr(),
		Secret:  d.Secret,
		Timeout: 10 * time.Second,
	})
}
