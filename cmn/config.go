// Package cmn provides common constants, types, and utilities for procio clients and daemons
/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DfltShmPath       = "/dev/shm/procio"
	DfltSlots         = 1024
	DfltLogDir        = "/tmp/procio"
	DfltStatsInterval = time.Minute
	DfltSampleWorkers = 8
	DfltListen        = ":9129"
)

//
// CONFIGURATION
//

type (
	Config struct {
		Shm     ShmConf     `yaml:"shm"`
		Log     LogConf     `yaml:"log"`
		Stats   StatsConf   `yaml:"stats"`
		Net     NetConf     `yaml:"net"`
		Storage StorageConf `yaml:"storage"`
	}
	ShmConf struct {
		Path  string `yaml:"path"`  // shared-memory file
		Slots int    `yaml:"slots"` // max number of backend processes
	}
	LogConf struct {
		Dir          string `yaml:"dir"`
		ToStderr     bool   `yaml:"to_stderr"`      // instead of files
		AlsoToStderr bool   `yaml:"also_to_stderr"` // as well as files
	}
	StatsConf struct {
		Interval      time.Duration `yaml:"interval"`       // periodic totals log
		SampleWorkers int           `yaml:"sample_workers"` // concurrent per-pid samplers
	}
	NetConf struct {
		Listen string `yaml:"listen"`
	}
	StorageConf struct {
		SharedPrefixes []string `yaml:"shared_prefixes"` // paths on shared storage (location "pfs")
	}
)

// DefaultConfig returns a config with all defaults applied.
func DefaultConfig() *Config {
	c := &Config{}
	c.setDefaults()
	return c
}

// LoadConfig reads YAML config from `path`, applies defaults for missing
// fields, and validates the result.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %q: %w", path, err)
	}
	return ParseConfig(b)
}

func ParseConfig(b []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	c.setDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) setDefaults() {
	if c.Shm.Path == "" {
		c.Shm.Path = DfltShmPath
	}
	if c.Shm.Slots == 0 {
		c.Shm.Slots = DfltSlots
	}
	if c.Log.Dir == "" {
		c.Log.Dir = DfltLogDir
	}
	if c.Stats.Interval == 0 {
		c.Stats.Interval = DfltStatsInterval
	}
	if c.Stats.SampleWorkers == 0 {
		c.Stats.SampleWorkers = DfltSampleWorkers
	}
	if c.Net.Listen == "" {
		c.Net.Listen = DfltListen
	}
}

func (c *Config) Validate() error {
	return errors.Join(c.Shm.Validate(), c.Stats.Validate())
}

func (c *ShmConf) Validate() error {
	if c.Slots <= 0 {
		return fmt.Errorf("invalid shm.slots %d (expecting positive integer)", c.Slots)
	}
	return nil
}

func (c *StatsConf) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("invalid stats.interval %v (expecting positive duration)", c.Interval)
	}
	if c.SampleWorkers <= 0 {
		return fmt.Errorf("invalid stats.sample_workers %d (expecting positive integer)", c.SampleWorkers)
	}
	return nil
}

func (c *Config) String() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err.Error()
	}
	return string(b)
}
