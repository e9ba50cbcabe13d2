package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the daemon looks for its YAML configuration when no
// explicit path is given.
const DefaultPath = "/etc/minder/config.yaml"

// Defaults applied when neither the environment nor the config file provide
// a value.
const (
	DefaultListenHost     = "0.0.0.0"
	DefaultListenPort     = 65432
	DefaultSessionTimeout = 60 * time.Second
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultDataDir        = "/var/lib/minder"
	DefaultRebootCommand  = "/sbin/reboot"
	DefaultUpdateCommand  = "/usr/local/sbin/system-update"
	DefaultUpdateTimeout  = time.Hour
)

// Config holds the daemon configuration assembled from environment
// variables, an optional .env file, and an optional YAML file.
type Config struct {
	ListenHost     string        // interface to bind, default 0.0.0.0
	ListenPort     int           // TCP port, default 65432
	Secret         string        // shared secret clients authenticate with
	SessionTimeout time.Duration // per-read deadline for client sessions
	LogPath        string        // log file path, empty means stdout
	LogLevel       string        // debug, info, warn, error
	LogFormat      string        // json or console
	DataDir        string        // directory for the boot history database
	MetricsAddr    string        // host:port for /metrics, empty disables
	RebootCommand  []string      // command words issued for the reboot action
	UpdateCommand  []string      // command words issued for the update action
	UpdateTimeout  time.Duration // how long an update may run
}

// fileConfig mirrors Config with YAML tags. Durations are strings so the
// file can say "90s" or plain seconds.
type fileConfig struct {
	ListenHost     string      `yaml:"listen_host"`
	ListenPort     int         `yaml:"listen_port"`
	Secret         string      `yaml:"secret"`
	SessionTimeout string      `yaml:"session_timeout"`
	LogPath        string      `yaml:"log_path"`
	LogLevel       string      `yaml:"log_level"`
	LogFormat      string      `yaml:"log_format"`
	DataDir        string      `yaml:"data_dir"`
	MetricsAddr    string      `yaml:"metrics_addr"`
	RebootCommand  commandLine `yaml:"reboot_command"`
	UpdateCommand  commandLine `yaml:"update_command"`
	UpdateTimeout  string      `yaml:"update_timeout"`
}

// commandLine is a command and its arguments. The file may give it as a
// word list (["apt-get", "upgrade", "-y"]), which keeps arguments with
// embedded spaces intact, or as a single string split on whitespace.
type commandLine []string

func (c *commandLine) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var words []string
		if err := value.Decode(&words); err != nil {
			return err
		}
		*c = words
		return nil
	case yaml.ScalarNode:
		*c = strings.Fields(value.Value)
		return nil
	default:
		return fmt.Errorf("want a string or a list of words, got %s", value.Tag)
	}
}

// Load assembles the configuration. Precedence, highest first: real
// environment variables, a .env file in the working directory, the YAML
// file at path (DefaultPath when path is empty), built-in defaults.
// A missing YAML file is not an error.
func Load(path string) (*Config, error) {
	// .env fills the process environment but never overrides variables
	// that are already set.
	_ = godotenv.Load()

	if path == "" {
		path = DefaultPath
	}

	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

// loadFile reads the YAML config file. If the file does not exist, an
// empty Config is returned (not an error).
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		ListenHost:    fc.ListenHost,
		ListenPort:    fc.ListenPort,
		Secret:        fc.Secret,
		LogPath:       fc.LogPath,
		LogLevel:      fc.LogLevel,
		LogFormat:     fc.LogFormat,
		DataDir:       fc.DataDir,
		MetricsAddr:   fc.MetricsAddr,
		RebootCommand: fc.RebootCommand,
		UpdateCommand: fc.UpdateCommand,
	}
	if fc.SessionTimeout != "" {
		d, err := parseDuration("session_timeout", fc.SessionTimeout)
		if err != nil {
			return nil, err
		}
		cfg.SessionTimeout = d
	}
	if fc.UpdateTimeout != "" {
		d, err := parseDuration("update_timeout", fc.UpdateTimeout)
		if err != nil {
			return nil, err
		}
		cfg.UpdateTimeout = d
	}
	return cfg, nil
}

// applyEnv overlays MINDER_* environment variables onto cfg.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("MINDER_LISTEN_HOST"); v != "" {
		cfg.ListenHost = v
	}
	if v := os.Getenv("MINDER_LISTEN_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse MINDER_LISTEN_PORT: %w", err)
		}
		cfg.ListenPort = port
	}
	if v := os.Getenv("MINDER_SECRET"); v != "" {
		cfg.Secret = v
	}
	if v := os.Getenv("MINDER_SESSION_TIMEOUT"); v != "" {
		d, err := parseDuration("MINDER_SESSION_TIMEOUT", v)
		if err != nil {
			return err
		}
		cfg.SessionTimeout = d
	}
	if v := os.Getenv("MINDER_LOG_PATH"); v != "" {
		cfg.LogPath = v
	}
	if v := os.Getenv("MINDER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MINDER_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("MINDER_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("MINDER_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("MINDER_REBOOT_COMMAND"); v != "" {
		cfg.RebootCommand = strings.Fields(v)
	}
	if v := os.Getenv("MINDER_UPDATE_COMMAND"); v != "" {
		cfg.UpdateCommand = strings.Fields(v)
	}
	if v := os.Getenv("MINDER_UPDATE_TIMEOUT"); v != "" {
		d, err := parseDuration("MINDER_UPDATE_TIMEOUT", v)
		if err != nil {
			return err
		}
		cfg.UpdateTimeout = d
	}
	return nil
}

// applyDefaults fills any field still at its zero value.
func applyDefaults(cfg *Config) {
	if cfg.ListenHost == "" {
		cfg.ListenHost = DefaultListenHost
	}
	if cfg.ListenPort == 0 {
		cfg.ListenPort = DefaultListenPort
	}
	if cfg.SessionTimeout == 0 {
		cfg.SessionTimeout = DefaultSessionTimeout
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = DefaultLogFormat
	}
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}
	if len(cfg.RebootCommand) == 0 {
		cfg.RebootCommand = strings.Fields(DefaultRebootCommand)
	}
	if len(cfg.UpdateCommand) == 0 {
		cfg.UpdateCommand = strings.Fields(DefaultUpdateCommand)
	}
	if cfg.UpdateTimeout == 0 {
		cfg.UpdateTimeout = DefaultUpdateTimeout
	}
}

// parseDuration accepts Go duration strings ("90s", "1h") and bare
// integers, which are treated as seconds.
func parseDuration(key, v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

// Validate checks that the configuration can run a server.
func (c *Config) Validate() error {
	if c.Secret == "" {
		return errors.New("shared secret is required (set MINDER_SECRET)")
	}
	if c.ListenPort < 1 || c.ListenPort > 65535 {
		return fmt.Errorf("listen port %d out of range", c.ListenPort)
	}
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("session timeout must be positive, got %s", c.SessionTimeout)
	}
	if c.UpdateTimeout <= 0 {
		return fmt.Errorf("update timeout must be positive, got %s", c.UpdateTimeout)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// ListenAddr returns the host:port the server binds to.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.ListenHost, strconv.Itoa(c.ListenPort))
}
