// Package config loads the daemon's on-disk configuration and exposes
// it as a collab.Config, the narrow read-only view the property engine
// consults for clamps, defaults, and scheduling-class parameters.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config is the daemon's full on-disk configuration. Property-engine
// tunables live under Container; daemon plumbing (socket path, database
// path, log level) sits alongside them the way a single daemon.yaml is
// expected to cover both.
type Config struct {
	Socket    string          `yaml:"socket"`
	Database  string          `yaml:"database"`
	LogLevel  string          `yaml:"log_level"`
	LogJSON   bool            `yaml:"log_json"`
	Container ContainerConfig `yaml:"container"`
}

// ContainerConfig groups the knobs property handlers read through
// collab.Config.
type ContainerConfig struct {
	RtNice                 int     `yaml:"rt_nice"`
	RtPriority             int     `yaml:"rt_priority"`
	HighNice               int     `yaml:"high_nice"`
	EnableSmart            bool    `yaml:"enable_smart"`
	MemoryGuaranteeReserve uint64  `yaml:"memory_guarantee_reserve"`
	MinMemoryLimit         uint64  `yaml:"min_memory_limit"`
	PrivateMax             int     `yaml:"private_max"`
	StdoutLimitMax         uint64  `yaml:"stdout_limit_max"`
	TotalSystemMemory      uint64  `yaml:"total_system_memory"` // 0: probe at runtime
	NumCores               float64 `yaml:"num_cores"`           // 0: probe at runtime
}

// Default returns the configuration a freshly installed daemon starts
// with, before any file is read. Matches original_source's compiled-in
// defaults for the same knobs.
func Default() *Config {
	return &Config{
		Socket:   "/run/portod.sock",
		Database: "/var/lib/portod/portod.db",
		LogLevel: "info",
		Container: ContainerConfig{
			RtNice:                 -5,
			RtPriority:             10,
			HighNice:               -3,
			EnableSmart:            false,
			MemoryGuaranteeReserve: 128 << 20,
			MinMemoryLimit:         0,
			PrivateMax:             4096,
			StdoutLimitMax:         8 << 20,
		},
	}
}

// Load reads path, merging it over Default(); a missing file is not an
// error, since a freshly installed daemon has none yet.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.resolveRuntimeDefaults()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.resolveRuntimeDefaults()
	return cfg, nil
}

func (c *Config) resolveRuntimeDefaults() {
	if c.Container.NumCores == 0 {
		c.Container.NumCores = float64(runtime.NumCPU())
	}
	if c.Container.TotalSystemMemory == 0 {
		c.Container.TotalSystemMemory = totalSystemMemory()
	}
}

func (c *Config) RtNice() int                   { return c.Container.RtNice }
func (c *Config) RtPriority() int                { return c.Container.RtPriority }
func (c *Config) HighNice() int                  { return c.Container.HighNice }
func (c *Config) EnableSmart() bool              { return c.Container.EnableSmart }
func (c *Config) MemoryGuaranteeReserve() uint64 { return c.Container.MemoryGuaranteeReserve }
func (c *Config) MinMemoryLimit() uint64         { return c.Container.MinMemoryLimit }
func (c *Config) PrivateMax() int                { return c.Container.PrivateMax }
func (c *Config) StdoutLimitMax() uint64         { return c.Container.StdoutLimitMax }
func (c *Config) TotalSystemMemory() uint64      { return c.Container.TotalSystemMemory }
func (c *Config) NumCores() float64              { return c.Container.NumCores }
