package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// Run from an empty directory so a developer's local config file cannot
	// leak into the test.
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.StorePath != ".taskboard/store.db" {
		t.Errorf("store path = %q", cfg.StorePath)
	}
	if cfg.DashboardPort != 8080 {
		t.Errorf("dashboard port = %d", cfg.DashboardPort)
	}
	if cfg.GraceWindow != 2*time.Second {
		t.Errorf("grace window = %v", cfg.GraceWindow)
	}
	if cfg.ReconcileDelay != 500*time.Millisecond {
		t.Errorf("reconcile delay = %v", cfg.ReconcileDelay)
	}
	if cfg.DebounceInterval != 250*time.Millisecond {
		t.Errorf("debounce interval = %v", cfg.DebounceInterval)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taskboard.yaml")
	content := `store_path: /tmp/custom.db
dashboard_port: 9090
grace_window: 5s
log_file: /var/log/taskboard.log
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.StorePath != "/tmp/custom.db" {
		t.Errorf("store path = %q", cfg.StorePath)
	}
	if cfg.DashboardPort != 9090 {
		t.Errorf("dashboard port = %d", cfg.DashboardPort)
	}
	if cfg.GraceWindow != 5*time.Second {
		t.Errorf("grace window = %v", cfg.GraceWindow)
	}
	if cfg.LogFile != "/var/log/taskboard.log" {
		t.Errorf("log file = %q", cfg.LogFile)
	}
	// Unset keys keep their defaults.
	if cfg.ReconcileDelay != 500*time.Millisecond {
		t.Errorf("reconcile delay = %v", cfg.ReconcileDelay)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("explicitly named missing config should fail")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TASKBOARD_DASHBOARD_PORT", "7171")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DashboardPort != 7171 {
		t.Errorf("dashboard port = %d, want env override 7171", cfg.DashboardPort)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(*Config) {}, false},
		{"empty store path", func(c *Config) { c.StorePath = "" }, true},
		{"port out of range", func(c *Config) { c.DashboardPort = 70000 }, true},
		{"negative grace window", func(c *Config) { c.GraceWindow = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				StorePath:        "store.db",
				DashboardPort:    8080,
				GraceWindow:      2 * time.Second,
				ReconcileDelay:   500 * time.Millisecond,
				DebounceInterval: 250 * time.Millisecond,
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
