// Package config loads mobirpld's daemon configuration using koanf/v2.
//
// Supports YAML files, environment variables, and the package defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/hckim/mobirpl/internal/rpl"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete mobirpld configuration.
type Config struct {
	Status  StatusConfig  `koanf:"status"`
	Metrics MetricsConfig `koanf:"metrics"`
	Log     LogConfig     `koanf:"log"`
	RPL     RPLConfig     `koanf:"rpl"`
}

// StatusConfig holds the plain HTTP status-surface configuration.
type StatusConfig struct {
	// Addr is the HTTP listen address (e.g., ":8080").
	Addr string `koanf:"addr"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	// Addr is the HTTP listen address for the metrics endpoint (e.g., ":9100").
	Addr string `koanf:"addr"`
	// Path is the URL path for the metrics endpoint (e.g., "/metrics").
	Path string `koanf:"path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
	// TracePath, when non-empty, appends the stable "r:<tag>|..." trace
	// log to the named file in addition to structured slog output.
	TracePath string `koanf:"trace_path"`
}

// RPLConfig holds the routing-core instance parameters and tunables,
// mapped onto rpl.Tunables and rpl.FeatureGates at daemon startup.
type RPLConfig struct {
	// IsRoot marks this node as the DODAG root.
	IsRoot bool `koanf:"is_root"`

	// ObjectiveFunction selects "rhof" (mobility-aware, default) or
	// "stability" (zone-based, non-mobility-aware).
	ObjectiveFunction string `koanf:"objective_function"`

	// MinHopRankIncrease is RFC 6550's MinHopRankIncrease.
	MinHopRankIncrease uint16 `koanf:"min_hop_rank_increase"`

	// DIOIntervalMin is dio_intmin: log2 of the minimum Trickle interval
	// in milliseconds.
	DIOIntervalMin uint8 `koanf:"dio_interval_min"`
	// DIOIntervalDoublings is dio_intdoubl: the number of interval
	// doublings above DIOIntervalMin.
	DIOIntervalDoublings uint8 `koanf:"dio_interval_doublings"`
	// DIORedundancy is the Trickle redundancy constant k.
	DIORedundancy uint16 `koanf:"dio_redundancy"`

	// DefaultLifetime and LifetimeUnit set the DAO route-lifetime
	// advertised to the preferred parent.
	DefaultLifetime uint8  `koanf:"default_lifetime"`
	LifetimeUnit    uint16 `koanf:"lifetime_unit"`

	Features  FeaturesConfig  `koanf:"features"`
	Tunables  TunablesConfig  `koanf:"tunables"`
}

// FeaturesConfig mirrors rpl.FeatureGates as a configuration surface.
type FeaturesConfig struct {
	DetectMobility     bool `koanf:"detect_mobility"`
	ManageConnectivity bool `koanf:"manage_connectivity"`
	UnicastProbe       bool `koanf:"unicast_probe"`
	ProactiveDiscover  bool `koanf:"proactive_discover"`
	LeafOnly           bool `koanf:"leaf_only"`
	CollectStats       bool `koanf:"collect_stats"`
}

// ToGates converts FeaturesConfig to rpl.FeatureGates.
func (f FeaturesConfig) ToGates() rpl.FeatureGates {
	return rpl.FeatureGates{
		DetectMobility:     f.DetectMobility,
		ManageConnectivity: f.ManageConnectivity,
		UnicastProbe:       f.UnicastProbe,
		ProactiveDiscover:  f.ProactiveDiscover,
		LeafOnly:           f.LeafOnly,
		CollectStats:       f.CollectStats,
	}
}

// TunablesConfig mirrors rpl.Tunables as a configuration surface. Zero
// values are replaced by rpl.DefaultTunables()'s corresponding field in
// ToTunables, so a config file only needs to name the fields it wants to
// override.
type TunablesConfig struct {
	RSSILowThreshold         int16  `koanf:"rssi_low_threshold"`
	RSSIDifferenceHysteresis int16  `koanf:"rssi_difference_hysteresis"`
	LinkLossThreshold        uint8  `koanf:"link_loss_threshold"`
	EWMAScale                uint32 `koanf:"ewma_scale"`
	EWMAAlpha                uint32 `koanf:"ewma_alpha"`
	StabilityThreshold       uint32 `koanf:"stability_threshold"`
	ProbingDenominator       uint16 `koanf:"probing_denominator"`
	DISInterval              uint16 `koanf:"dis_interval"`
}

// ToTunables overlays the configured fields onto rpl.DefaultTunables(),
// preserving MinHopRankIncrease from RPLConfig.
func (t TunablesConfig) ToTunables(minHopRankIncrease uint16) rpl.Tunables {
	d := rpl.DefaultTunables()
	if t.RSSILowThreshold != 0 {
		d.RSSILowThreshold = t.RSSILowThreshold
	}
	if t.RSSIDifferenceHysteresis != 0 {
		d.RSSIDifferenceHysteresis = t.RSSIDifferenceHysteresis
	}
	if t.LinkLossThreshold != 0 {
		d.LinkLossThreshold = t.LinkLossThreshold
	}
	if t.EWMAScale != 0 {
		d.EWMAScale = t.EWMAScale
	}
	if t.EWMAAlpha != 0 {
		d.EWMAAlpha = t.EWMAAlpha
	}
	if t.StabilityThreshold != 0 {
		d.StabilityThreshold = t.StabilityThreshold
	}
	if t.ProbingDenominator != 0 {
		d.ProbingDenominator = t.ProbingDenominator
	}
	if t.DISInterval != 0 {
		d.DISInterval = t.DISInterval
	}
	d.MinHopRankIncrease = minHopRankIncrease
	return d
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with the reference
// implementation's MobiRPL example defaults.
func DefaultConfig() *Config {
	return &Config{
		Status: StatusConfig{
			Addr: ":8080",
		},
		Metrics: MetricsConfig{
			Addr: ":9100",
			Path: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		RPL: RPLConfig{
			ObjectiveFunction:    "rhof",
			MinHopRankIncrease:   rpl.DefaultRankIncrement,
			DIOIntervalMin:       12,
			DIOIntervalDoublings: 8,
			DIORedundancy:        10,
			DefaultLifetime:      0xff,
			LifetimeUnit:         0xffff,
			Features: FeaturesConfig{
				DetectMobility:     true,
				ManageConnectivity: true,
				UnicastProbe:       true,
				ProactiveDiscover:  true,
			},
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for mobirpld configuration.
// Variables are named MOBIRPL_<section>_<key>, e.g., MOBIRPL_STATUS_ADDR.
const envPrefix = "MOBIRPL_"

// Load reads configuration from a YAML file at path, overlays environment
// variable overrides (MOBIRPL_ prefix), and merges on top of
// DefaultConfig(). Missing fields inherit defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

// envKeyMapper transforms MOBIRPL_STATUS_ADDR -> status.addr and
// MOBIRPL_RPL_IS_ROOT -> rpl.is_root. Only the first underscore separates
// section from key, so nested keys (rpl.features.*, rpl.tunables.*) have
// no environment form.
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.Replace(s, "_", ".", 1)
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"status.addr":                defaults.Status.Addr,
		"metrics.addr":               defaults.Metrics.Addr,
		"metrics.path":               defaults.Metrics.Path,
		"log.level":                  defaults.Log.Level,
		"log.format":                 defaults.Log.Format,
		"rpl.objective_function":     defaults.RPL.ObjectiveFunction,
		"rpl.min_hop_rank_increase":  defaults.RPL.MinHopRankIncrease,
		"rpl.dio_interval_min":       defaults.RPL.DIOIntervalMin,
		"rpl.dio_interval_doublings": defaults.RPL.DIOIntervalDoublings,
		"rpl.dio_redundancy":         defaults.RPL.DIORedundancy,
		"rpl.default_lifetime":       defaults.RPL.DefaultLifetime,
		"rpl.lifetime_unit":          defaults.RPL.LifetimeUnit,
		"rpl.features.detect_mobility":     defaults.RPL.Features.DetectMobility,
		"rpl.features.manage_connectivity": defaults.RPL.Features.ManageConnectivity,
		"rpl.features.unicast_probe":       defaults.RPL.Features.UnicastProbe,
		"rpl.features.proactive_discover":  defaults.RPL.Features.ProactiveDiscover,
		"rpl.features.leaf_only":           defaults.RPL.Features.LeafOnly,
		"rpl.features.collect_stats":       defaults.RPL.Features.CollectStats,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	// ErrEmptyStatusAddr indicates the status listen address is empty.
	ErrEmptyStatusAddr = errors.New("status.addr must not be empty")

	// ErrInvalidObjectiveFunction indicates an unrecognized objective
	// function name.
	ErrInvalidObjectiveFunction = errors.New("rpl.objective_function must be rhof or stability")

	// ErrInvalidDIOIntervalDoublings indicates the Trickle doubling count
	// would push dio_intcurrent past a uint8.
	ErrInvalidDIOIntervalDoublings = errors.New("rpl.dio_interval_min + rpl.dio_interval_doublings must not overflow a byte")
)

// ValidObjectiveFunctions lists the recognized objective-function names.
var ValidObjectiveFunctions = map[string]bool{
	"rhof":      true,
	"stability": true,
}

// Validate checks the configuration for logical errors.
// Returns the first validation error encountered.
func Validate(cfg *Config) error {
	if cfg.Status.Addr == "" {
		return ErrEmptyStatusAddr
	}

	if cfg.RPL.ObjectiveFunction != "" && !ValidObjectiveFunctions[cfg.RPL.ObjectiveFunction] {
		return ErrInvalidObjectiveFunction
	}

	if int(cfg.RPL.DIOIntervalMin)+int(cfg.RPL.DIOIntervalDoublings) > 255 {
		return ErrInvalidDIOIntervalDoublings
	}

	return nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
