// Package config provides layered configuration for chemcpu.
// Order: defaults -> YAML file -> .env file -> CHEMCPU_* environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"chemcpu/labware"
	"chemcpu/ph"
	"chemcpu/transfer"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CHEMCPU_"

// Config contains all chemcpu settings.
type Config struct {
	Physics  PhysicsConfig  `json:"physics" yaml:"physics"`
	Transfer TransferConfig `json:"transfer" yaml:"transfer"`
	Grid     GridConfig     `json:"grid" yaml:"grid"`
	Network  NetworkConfig  `json:"network" yaml:"network"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
}

// PhysicsConfig holds the constants of the pH model.
type PhysicsConfig struct {
	// Kw is the ion product of water.
	Kw float64 `json:"kw" yaml:"kw"`
	// NeutralTolerance is the relative acid/base mole difference treated as
	// exact neutrality.
	NeutralTolerance float64 `json:"neutral_tolerance" yaml:"neutral_tolerance"`
}

// TransferConfig configures the liquid handler.
type TransferConfig struct {
	VolumeIncrementNL float64 `json:"volume_increment_nl" yaml:"volume_increment_nl"`
	EnforceLimits     bool    `json:"enforce_limits" yaml:"enforce_limits"`
	RateNLPerS        float64 `json:"rate_nl_per_s" yaml:"rate_nl_per_s"`
}

// GridConfig configures well naming.
type GridConfig struct {
	// RowLabels replaces the A..Z, AA..AZ row table when set.
	RowLabels []string `json:"row_labels,omitempty" yaml:"row_labels,omitempty"`
	// Style is the default label style for output: none, letter or maldi.
	Style string `json:"style" yaml:"style"`
}

// NetworkConfig configures the acid/base network encoding.
type NetworkConfig struct {
	AcidPH            float64 `json:"acid_ph" yaml:"acid_ph"`
	BasePH            float64 `json:"base_ph" yaml:"base_ph"`
	AcidConcentration float64 `json:"acid_concentration" yaml:"acid_concentration"`
	BaseConcentration float64 `json:"base_concentration" yaml:"base_concentration"`
	ReagentVolumeNL   float64 `json:"reagent_volume_nl" yaml:"reagent_volume_nl"`
	UnitVolumeNL      float64 `json:"unit_volume_nl" yaml:"unit_volume_nl"`
	PoolVolumeNL      float64 `json:"pool_volume_nl" yaml:"pool_volume_nl"`
	IndicatorVolumeNL float64 `json:"indicator_volume_nl" yaml:"indicator_volume_nl"`
	GradedLevels      float64 `json:"graded_levels" yaml:"graded_levels"`
	MaxDrawsPerSource int     `json:"max_draws_per_source" yaml:"max_draws_per_source"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level" yaml:"level"`
	// Format is json or console.
	Format string `json:"format" yaml:"format"`
}

// Default returns a Config with the settings of an Echo-class dispenser.
func Default() *Config {
	return &Config{
		Physics: PhysicsConfig{
			Kw: ph.Kw25,
		},
		Transfer: TransferConfig{
			VolumeIncrementNL: 2.5,
			EnforceLimits:     true,
			RateNLPerS:        transfer.DefaultRate,
		},
		Grid: GridConfig{
			Style: "letter",
		},
		Network: NetworkConfig{
			AcidPH:            1,
			BasePH:            13,
			AcidConcentration: 0.1,
			BaseConcentration: 0.1,
			ReagentVolumeNL:   45000,
			UnitVolumeNL:      2000,
			PoolVolumeNL:      200,
			IndicatorVolumeNL: 100,
			GradedLevels:      4,
			MaxDrawsPerSource: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration. Empty paths skip their layer; a missing
// .env file is not an error.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}

	dotenv := map[string]string{}
	if envFile != "" {
		vals, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			dotenv = vals
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("reading env file: %w", err)
		}
	}
	lookup := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return dotenv[key]
	}
	if err := applyEnvOverrides(cfg, lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config, lookup func(string) string) error {
	floats := map[string]*float64{
		"KW":                  &cfg.Physics.Kw,
		"NEUTRAL_TOLERANCE":   &cfg.Physics.NeutralTolerance,
		"VOLUME_INCREMENT_NL": &cfg.Transfer.VolumeIncrementNL,
		"RATE_NL_PER_S":       &cfg.Transfer.RateNLPerS,
		"ACID_PH":             &cfg.Network.AcidPH,
		"BASE_PH":             &cfg.Network.BasePH,
		"ACID_CONCENTRATION":  &cfg.Network.AcidConcentration,
		"BASE_CONCENTRATION":  &cfg.Network.BaseConcentration,
		"REAGENT_VOLUME_NL":   &cfg.Network.ReagentVolumeNL,
		"UNIT_VOLUME_NL":      &cfg.Network.UnitVolumeNL,
		"POOL_VOLUME_NL":      &cfg.Network.PoolVolumeNL,
		"INDICATOR_VOLUME_NL": &cfg.Network.IndicatorVolumeNL,
		"GRADED_LEVELS":       &cfg.Network.GradedLevels,
	}
	for key, dst := range floats {
		if v := lookup(EnvPrefix + key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = f
		}
	}
	if v := lookup(EnvPrefix + "ENFORCE_LIMITS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sENFORCE_LIMITS: %w", EnvPrefix, err)
		}
		cfg.Transfer.EnforceLimits = b
	}
	if v := lookup(EnvPrefix + "MAX_DRAWS_PER_SOURCE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_DRAWS_PER_SOURCE: %w", EnvPrefix, err)
		}
		cfg.Network.MaxDrawsPerSource = n
	}
	if v := lookup(EnvPrefix + "ROW_LABELS"); v != "" {
		cfg.Grid.RowLabels = strings.Split(v, ",")
	}
	if v := lookup(EnvPrefix + "GRID_STYLE"); v != "" {
		cfg.Grid.Style = v
	}
	if v := lookup(EnvPrefix + "LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := lookup(EnvPrefix + "LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if !(c.Physics.Kw > 0) {
		return fmt.Errorf("kw must be positive, got %g", c.Physics.Kw)
	}
	if c.Physics.NeutralTolerance < 0 {
		return fmt.Errorf("neutral_tolerance must be non-negative, got %g", c.Physics.NeutralTolerance)
	}
	if !(c.Transfer.VolumeIncrementNL > 0) {
		return fmt.Errorf("volume_increment_nl must be positive, got %g", c.Transfer.VolumeIncrementNL)
	}
	if !(c.Transfer.RateNLPerS > 0) {
		return fmt.Errorf("rate_nl_per_s must be positive, got %g", c.Transfer.RateNLPerS)
	}
	if _, err := labware.ParseGridStyle(c.Grid.Style); err != nil {
		return err
	}
	seen := map[string]bool{}
	for _, l := range c.Grid.RowLabels {
		if l == "" || seen[l] {
			return fmt.Errorf("row_labels must be unique and non-empty, got %q", l)
		}
		seen[l] = true
	}
	n := c.Network
	if !(n.AcidPH < n.BasePH) {
		return fmt.Errorf("acid_ph %g must be below base_ph %g", n.AcidPH, n.BasePH)
	}
	if !(n.UnitVolumeNL > 0) || !(n.PoolVolumeNL > 0) {
		return fmt.Errorf("unit_volume_nl and pool_volume_nl must be positive")
	}
	if n.GradedLevels < 0 || n.MaxDrawsPerSource < 0 {
		return fmt.Errorf("graded_levels and max_draws_per_source must be non-negative")
	}
	if !(n.AcidConcentration > 0) || !(n.BaseConcentration > 0) {
		return fmt.Errorf("reagent concentrations must be positive")
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("invalid log format: %s (valid: json, console)", c.Logging.Format)
	}
	return nil
}

// Calculator returns the pH calculator for the configured physics.
func (c *Config) Calculator() ph.Calculator {
	return ph.Calculator{Kw: c.Physics.Kw, NeutralTolerance: c.Physics.NeutralTolerance}
}

// Letters returns the configured row label table.
func (c *Config) Letters() labware.LetterTable {
	if len(c.Grid.RowLabels) == 0 {
		return labware.DefaultLetters()
	}
	return labware.LetterTable(append([]string(nil), c.Grid.RowLabels...))
}

// TransferOptions returns run options for the configured handler.
func (c *Config) TransferOptions(log *zap.Logger) transfer.Options {
	return transfer.Options{
		EnforceLimits:   c.Transfer.EnforceLimits,
		VolumeIncrement: c.Transfer.VolumeIncrementNL,
		Logger:          log,
	}
}
