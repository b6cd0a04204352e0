// Package config loads umbra settings from an optional YAML file and
// UMBRA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/chazu/umbra/pkg/logging"
)

const envPrefix = "UMBRA"

// Kernel backends understood by the tessellator.
const (
	KernelPoly = "poly"
	KernelSDF  = "sdfx"
)

// Config is the complete runtime configuration.
type Config struct {
	// Offset lifts every sensor origin along its unit normal so that rays
	// do not start on the surface that carries the sensor.
	Offset float64 `mapstructure:"offset"`

	// Workers is the number of sensors analyzed in parallel. 1 runs
	// sequentially; 0 means runtime.NumCPU().
	Workers int `mapstructure:"workers"`

	Kernel    string `mapstructure:"kernel"`
	MeshCells int    `mapstructure:"mesh_cells"` // sdfx marching-cubes resolution

	Limits Limits         `mapstructure:"limits"`
	Log    logging.Config `mapstructure:"log"`
}

// Limits is the default ray distance window.
type Limits struct {
	Near float64 `mapstructure:"near"`
	Far  float64 `mapstructure:"far"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Offset:    0.01,
		Workers:   1,
		Kernel:    KernelPoly,
		MeshCells: 200,
		Limits:    Limits{Near: 0, Far: 1e4},
		Log:       logging.Config{Level: "info", Format: "json"},
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	d := Defaults()
	v.SetDefault("offset", d.Offset)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("kernel", d.Kernel)
	v.SetDefault("mesh_cells", d.MeshCells)
	v.SetDefault("limits.near", d.Limits.Near)
	v.SetDefault("limits.far", d.Limits.Far)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", "")
	return v
}

// Load reads path (if non-empty), merges environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Offset < 0 {
		errs = append(errs, fmt.Errorf("offset must be non-negative, got %g", c.Offset))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be non-negative, got %d", c.Workers))
	}
	switch c.Kernel {
	case KernelPoly, KernelSDF:
	default:
		errs = append(errs, fmt.Errorf("unknown kernel %q (want %s or %s)", c.Kernel, KernelPoly, KernelSDF))
	}
	if c.MeshCells <= 0 {
		errs = append(errs, fmt.Errorf("mesh_cells must be positive, got %d", c.MeshCells))
	}
	if c.Limits.Far <= c.Limits.Near {
		errs = append(errs, fmt.Errorf("limits.far (%g) must exceed limits.near (%g)", c.Limits.Far, c.Limits.Near))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
