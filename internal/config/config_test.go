package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"log/slog"

	"github.com/hckim/mobirpl/internal/config"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "mobirpld.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	if cfg.Status.Addr != ":8080" {
		t.Errorf("Status.Addr = %q, want :8080", cfg.Status.Addr)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("Metrics.Addr = %q, want :9100", cfg.Metrics.Addr)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want /metrics", cfg.Metrics.Path)
	}
	if cfg.RPL.ObjectiveFunction != "rhof" {
		t.Errorf("RPL.ObjectiveFunction = %q, want rhof", cfg.RPL.ObjectiveFunction)
	}
	if !cfg.RPL.Features.DetectMobility {
		t.Error("Features.DetectMobility = false, want true")
	}
	if cfg.RPL.Features.LeafOnly {
		t.Error("Features.LeafOnly = true, want false")
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := writeTemp(t, `
status:
  addr: ":9999"
rpl:
  is_root: true
  objective_function: stability
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Status.Addr != ":9999" {
		t.Errorf("Status.Addr = %q, want :9999", cfg.Status.Addr)
	}
	if !cfg.RPL.IsRoot {
		t.Error("RPL.IsRoot = false, want true")
	}
	if cfg.RPL.ObjectiveFunction != "stability" {
		t.Errorf("RPL.ObjectiveFunction = %q, want stability", cfg.RPL.ObjectiveFunction)
	}
}

func TestLoadMergesDefaults(t *testing.T) {
	path := writeTemp(t, `
rpl:
  is_root: true
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("Metrics.Addr = %q, want inherited default :9100", cfg.Metrics.Addr)
	}
	if cfg.RPL.DIORedundancy != 10 {
		t.Errorf("RPL.DIORedundancy = %d, want inherited default 10", cfg.RPL.DIORedundancy)
	}
}

func TestLoadTunablesOverride(t *testing.T) {
	path := writeTemp(t, `
rpl:
  tunables:
    rssi_low_threshold: -90
    link_loss_threshold: 3
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tun := cfg.RPL.Tunables.ToTunables(cfg.RPL.MinHopRankIncrease)
	if tun.RSSILowThreshold != -90 {
		t.Errorf("RSSILowThreshold = %d, want -90", tun.RSSILowThreshold)
	}
	if tun.LinkLossThreshold != 3 {
		t.Errorf("LinkLossThreshold = %d, want 3", tun.LinkLossThreshold)
	}
	// Untouched fields inherit rpl.DefaultTunables().
	if tun.EWMAScale != 100 {
		t.Errorf("EWMAScale = %d, want inherited default 100", tun.EWMAScale)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr error
	}{
		{
			name: "empty status addr",
			mutate: func(c *config.Config) {
				c.Status.Addr = ""
			},
			wantErr: config.ErrEmptyStatusAddr,
		},
		{
			name: "invalid objective function",
			mutate: func(c *config.Config) {
				c.RPL.ObjectiveFunction = "bogus"
			},
			wantErr: config.ErrInvalidObjectiveFunction,
		},
		{
			name: "overflowing dio interval doublings",
			mutate: func(c *config.Config) {
				c.RPL.DIOIntervalMin = 200
				c.RPL.DIOIntervalDoublings = 200
			},
			wantErr: config.ErrInvalidDIOIntervalDoublings,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			err := config.Validate(cfg)
			if err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDefaultConfigOK(t *testing.T) {
	if err := config.Validate(config.DefaultConfig()); err != nil {
		t.Errorf("Validate(DefaultConfig()) = %v, want nil", err)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := config.ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoadNonexistentFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load(missing file) = nil error, want error")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeTemp(t, "status:\n  addr: \":8080\"\n")

	t.Setenv("MOBIRPL_STATUS_ADDR", ":7777")
	t.Setenv("MOBIRPL_RPL_IS_ROOT", "true")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Status.Addr != ":7777" {
		t.Errorf("Status.Addr = %q, want :7777 (env override)", cfg.Status.Addr)
	}
	if !cfg.RPL.IsRoot {
		t.Error("RPL.IsRoot = false, want true (env override)")
	}
}

func TestLoadEnvOverridesMetrics(t *testing.T) {
	path := writeTemp(t, "status:\n  addr: \":8080\"\n")

	t.Setenv("MOBIRPL_METRICS_ADDR", ":9998")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Metrics.Addr != ":9998" {
		t.Errorf("Metrics.Addr = %q, want :9998 (env override)", cfg.Metrics.Addr)
	}
}
