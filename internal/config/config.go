// Package config loads taskboard configuration from file, environment, and
// defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved taskboard configuration.
type Config struct {
	// StorePath is the path to the remote store database file.
	StorePath string `mapstructure:"store_path"`

	// DashboardPort is the WebSocket dashboard listen port.
	DashboardPort int `mapstructure:"dashboard_port"`

	// GraceWindow protects optimistic changes from reconciliation and
	// spaces out consecutive write operations.
	GraceWindow time.Duration `mapstructure:"grace_window"`

	// ReconcileDelay is how long after a confirmed write the follow-up
	// refresh runs.
	ReconcileDelay time.Duration `mapstructure:"reconcile_delay"`

	// DebounceInterval coalesces bursts of change notifications.
	DebounceInterval time.Duration `mapstructure:"debounce_interval"`

	// ReconcileInterval is the periodic background refresh cadence for
	// the serve daemon. Zero disables the ticker.
	ReconcileInterval time.Duration `mapstructure:"reconcile_interval"`

	// LogFile routes daemon logs to a rotated file instead of stderr.
	LogFile string `mapstructure:"log_file"`
}

// Load reads configuration from the given file (optional), the TASKBOARD_*
// environment, and built-in defaults, in increasing priority of
// defaults < file < environment.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("store_path", ".taskboard/store.db")
	v.SetDefault("dashboard_port", 8080)
	v.SetDefault("grace_window", 2*time.Second)
	v.SetDefault("reconcile_delay", 500*time.Millisecond)
	v.SetDefault("debounce_interval", 250*time.Millisecond)
	v.SetDefault("reconcile_interval", 30*time.Second)

	v.SetEnvPrefix("TASKBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("taskboard")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/taskboard")
		if err := v.ReadInConfig(); err != nil {
			// A missing config file is fine; defaults and env apply.
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.StorePath == "" {
		return fmt.Errorf("store_path cannot be empty")
	}
	if c.DashboardPort <= 0 || c.DashboardPort > 65535 {
		return fmt.Errorf("dashboard_port %d out of range", c.DashboardPort)
	}
	if c.GraceWindow < 0 || c.ReconcileDelay < 0 || c.DebounceInterval < 0 {
		return fmt.Errorf("durations cannot be negative")
	}
	return nil
}
