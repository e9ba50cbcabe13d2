package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/minder/pkg/auth"
	"github.com/cuemby/minder/pkg/client"
	"github.com/cuemby/minder/pkg/config"
	"github.com/cuemby/minder/pkg/events"
	"github.com/cuemby/minder/pkg/executor"
	"github.com/cuemby/minder/pkg/log"
	"github.com/cuemby/minder/pkg/metrics"
	"github.com/cuemby/minder/pkg/protocol"
	"github.com/cuemby/minder/pkg/server"
	"github.com/cuemby/minder/pkg/storage"
	"github.com/cuemby/minder/pkg/sysinfo"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "minder",
	Short: "Minder - remote system monitoring and control daemon",
	Long: `Minder is a small TCP daemon for fleet hosts: it authenticates a
client with a shared secret and services a single command per
connection - report system health, reboot the host, or run the
system updater.

The same binary is the client: point info/reboot/update at a
running daemon.`,
	Version: Version,
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Minder version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(rebootCmd)
	rootCmd.AddCommand(updateCmd)
}

// Daemon command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Minder daemon",
	Long: `Run the Minder daemon in the foreground.

Settings come from the configuration file and MINDER_* environment
variables; the flag only selects which file to read. The shared
secret (MINDER_SECRET) is required.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("config", config.DefaultPath, "Path to the configuration file")
}

func runServe(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	if !cmd.Flags().Changed("config") {
		if v := os.Getenv("MINDER_CONFIG"); v != "" {
			path = v
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logCfg := log.Config{
		Level:      log.Level(cfg.LogLevel),
		JSONOutput: cfg.LogFormat == "json",
	}
	if cfg.LogPath != "" {
		w, err := log.FileWriter(cfg.LogPath)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logCfg.Output = w
	}
	log.Init(logCfg)

	logger := log.WithComponent("main")
	logger.Info().
		Str("version", Version).
		Str("commit", Commit).
		Msg("Starting Minder daemon")

	verifier, err := auth.NewVerifier(cfg.Secret)
	if err != nil {
		return fmt.Errorf("invalid secret: %w", err)
	}

	store, err := storage.NewBoltStore(cfg.DataDir)
	if err != nil {
		logger.Error().Err(err).Str("data_dir", cfg.DataDir).Msg("Failed to open boot history store")
		return err
	}
	defer store.Close()

	// Record this boot; the store deduplicates daemon restarts
	if bootTime, err := sysinfo.BootTime(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("Could not determine boot time")
	} else if err := store.RecordBoot(bootTime); err != nil {
		logger.Warn().Err(err).Msg("Could not record boot")
	}
	metrics.RegisterComponent("storage", true, "")

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	auditSub := broker.Subscribe()
	go events.Audit(auditSub)
	defer broker.Unsubscribe(auditSub)

	collector := metrics.NewCollector(store)
	collector.Start()
	defer collector.Stop()

	metrics.SetVersion(Version)

	var metricsSrv *metrics.Server
	if cfg.MetricsAddr != "" {
		metricsSrv = metrics.NewServer()
		go func() {
			if err := metricsSrv.Start(cfg.MetricsAddr); err != nil {
				mlogger := log.WithComponent("metrics")
				mlogger.Error().Err(err).Msg("Metrics server error")
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Stop(ctx)
		}()
	}

	srv := server.NewServer(&server.Config{
		ListenAddr:     cfg.ListenAddr(),
		SessionTimeout: cfg.SessionTimeout,
		RebootCommand:  cfg.RebootCommand,
		UpdateCommand:  cfg.UpdateCommand,
		UpdateTimeout:  cfg.UpdateTimeout,
	}, verifier, sysinfo.NewProvider(store, 0), executor.New(), broker)

	if err := srv.Start(); err != nil {
		logger.Error().Err(err).Msg("Failed to start daemon")
		return err
	}
	metrics.RegisterComponent("server", true, "listening on "+cfg.ListenAddr())

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info().Str("signal", sig.String()).Msg("Shutting down")

	if err := srv.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping daemon")
	}

	logger.Info().Msg("Shutdown complete")
	return nil
}

// Client commands

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Fetch the system report from a daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := clientFromFlags(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		resp, err := c.GetSystemInfo(ctx)
		if err != nil {
			return err
		}
		if resp.Status != protocol.StatusSuccess {
			return fmt.Errorf("daemon error: %s", responseError(resp))
		}

		pretty, err := json.MarshalIndent(resp.Data, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(pretty))
		return nil
	},
}

var rebootCmd = &cobra.Command{
	Use:   "reboot",
	Short: "Reboot the host a daemon runs on",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := clientFromFlags(cmd)
		if err != nil {
			return err
		}

		resp, err := c.Reboot(context.Background())
		if err != nil {
			return err
		}
		if resp.Status != protocol.StatusSuccess {
			return fmt.Errorf("reboot failed: %s", responseError(resp))
		}

		fmt.Printf("✓ %s\n", resp.Message)
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Run the system updater on a daemon's host",
	Long: `Run the system updater on a daemon's host.

The daemon waits for the updater to finish before answering, which
can take a long time; this command blocks until then.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := clientFromFlags(cmd)
		if err != nil {
			return err
		}

		fmt.Println("Running system update (this may take a while)...")

		resp, err := c.Update(context.Background())
		if err != nil {
			return err
		}
		if resp.Status != protocol.StatusSuccess {
			return fmt.Errorf("update failed: %s", responseError(resp))
		}

		fmt.Println("✓ Update completed")
		if resp.Output != "" {
			fmt.Println()
			fmt.Println(resp.Output)
		}
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{infoCmd, rebootCmd, updateCmd} {
		cmd.Flags().String("addr", "127.0.0.1:65432", "Daemon address (host:port)")
		cmd.Flags().String("secret", "", "Shared secret (defaults to MINDER_SECRET)")
	}
}

func clientFromFlags(cmd *cobra.Command) (*client.Client, error) {
	addr, _ := cmd.Flags().GetString("addr")
	secret, _ := cmd.Flags().GetString("secret")
	if secret == "" {
		secret = os.Getenv("MINDER_SECRET")
	}
	if secret == "" {
		return nil, fmt.Errorf("no secret given: use --secret or set MINDER_SECRET")
	}

	return client.NewClient(&client.Config{Addr: addr, Secret: secret}), nil
}

// responseError flattens a daemon error response into one line
func responseError(resp *protocol.Response) string {
	msg := resp.Message
	if resp.Error != "" {
		if msg != "" {
			msg += ": "
		}
		msg += resp.Error
	}
	if resp.ReturnCode != nil {
		msg = fmt.Sprintf("%s (exit %d)", msg, *resp.ReturnCode)
	}
	if msg == "" {
		msg = "unknown error"
	}
	return msg
}
