/*
Package config loads and validates the Minder daemon configuration.

Configuration is assembled from three layers so the daemon works out of the
box, reads a config file when one is installed, and can be overridden per
process through the environment. A .env file in the working directory is
honored for development setups.

# Architecture

	┌────────────────── CONFIGURATION LAYERS ───────────────────┐
	│                                                             │
	│  Highest precedence                                         │
	│  ┌────────────────────────────────────────────┐            │
	│  │      Environment variables (MINDER_*)       │            │
	│  └──────────────────┬─────────────────────────┘            │
	│                     │                                       │
	│  ┌──────────────────▼─────────────────────────┐            │
	│  │      .env file (working directory)          │            │
	│  │      never overrides real environment       │            │
	│  └──────────────────┬─────────────────────────┘            │
	│                     │                                       │
	│  ┌──────────────────▼─────────────────────────┐            │
	│  │      YAML file (/etc/minder/config.yaml)    │            │
	│  │      missing file is not an error           │            │
	│  └──────────────────┬─────────────────────────┘            │
	│                     │                                       │
	│  ┌──────────────────▼─────────────────────────┐            │
	│  │      Built-in defaults                      │            │
	│  └────────────────────────────────────────────┘            │
	│  Lowest precedence                                          │
	└─────────────────────────────────────────────────────────┘

# Settings

	Key                     YAML              Default
	MINDER_LISTEN_HOST      listen_host       0.0.0.0
	MINDER_LISTEN_PORT      listen_port       65432
	MINDER_SECRET           secret            (required)
	MINDER_SESSION_TIMEOUT  session_timeout   60s
	MINDER_LOG_PATH         log_path          (stdout)
	MINDER_LOG_LEVEL        log_level         info
	MINDER_LOG_FORMAT       log_format        json
	MINDER_DATA_DIR         data_dir          /var/lib/minder
	MINDER_METRICS_ADDR     metrics_addr      (disabled)
	MINDER_REBOOT_COMMAND   reboot_command    /sbin/reboot
	MINDER_UPDATE_COMMAND   update_command    /usr/local/sbin/system-update
	MINDER_UPDATE_TIMEOUT   update_timeout    1h

Durations accept Go syntax ("90s", "2m", "1h") or a bare integer, which is
treated as seconds. Commands are word lists in YAML
(["apt-get", "upgrade", "-y"]), which keeps arguments with embedded spaces
intact, or single strings; string and environment forms are split on
whitespace.

# Usage

Loading at daemon startup:

	cfg, err := config.Load("") // uses /etc/minder/config.yaml
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.ListenAddr())

Loading an explicit file:

	cfg, err := config.Load("/opt/minder/config.yaml")

Example YAML file:

	listen_host: 0.0.0.0
	listen_port: 65432
	secret: change-me
	session_timeout: 60s
	log_level: info
	log_format: json
	data_dir: /var/lib/minder
	metrics_addr: 127.0.0.1:9102
	update_command: ["apt-get", "upgrade", "-y"]

# Integration Points

This package integrates with:

  - cmd/minder: Loads configuration before anything else starts
  - pkg/server: ListenAddr and SessionTimeout drive the accept loop
  - pkg/auth: Secret seeds the credential verifier
  - pkg/storage: DataDir locates the boot history database
  - pkg/executor: RebootCommand, UpdateCommand, UpdateTimeout
  - pkg/log: LogPath, LogLevel, LogFormat select the log sink

# Design Patterns

Layered Override Pattern:
  - File supplies the installed baseline
  - Environment supplies per-process overrides
  - Defaults guarantee a runnable zero config (except the secret)

Fail-Fast Validation:
  - Validate is called once at startup
  - Bad ports, timeouts, or log settings stop the daemon before it binds
  - The secret is the only setting with no default

# Troubleshooting

Daemon refuses to start with "shared secret is required":
  - Set MINDER_SECRET or put secret: in the YAML file

Environment value ignored:
  - Empty string values are treated as unset
  - Check for typos in the MINDER_ prefix

.env file ignored:
  - godotenv only reads .env from the daemon's working directory
  - Variables already present in the environment are never overridden

# See Also

  - godotenv: https://github.com/joho/godotenv
  - yaml.v3: https://gopkg.in/yaml.v3
  - 12-Factor App Config: https://12factor.net/config
*/
package config
