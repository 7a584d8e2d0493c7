// SPDX-License-Identifier: MIT

package treelik

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// Config is the YAML form of the engine options. Zero fields keep defaults.
//
//	rescale_every: 5
//	workers: 4
//	bounds_inset: 1.0e-6
type Config struct {
	RescaleEvery int      `yaml:"rescale_every"`
	Workers      int      `yaml:"workers"`
	BoundsInset  *float64 `yaml:"bounds_inset,omitempty"`
}

// ParseConfig decodes a YAML document into a Config and validates it.
func ParseConfig(data []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("treelik: parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects values the option constructors would panic on.
func (c Config) Validate() error {
	if c.RescaleEvery < 0 {
		return fmt.Errorf("treelik: config: rescale_every=%d must be >= 0", c.RescaleEvery)
	}
	if c.Workers < 0 {
		return fmt.Errorf("treelik: config: workers=%d must be >= 0", c.Workers)
	}
	if c.BoundsInset != nil {
		if v := *c.BoundsInset; math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("treelik: config: bounds_inset=%v must be finite and >= 0", v)
		}
	}
	return nil
}

// Options converts the config to engine options. Call Validate first.
func (c Config) Options() []Option {
	var opts []Option
	if c.RescaleEvery > 0 {
		opts = append(opts, WithRescaleEvery(c.RescaleEvery))
	}
	if c.Workers > 0 {
		opts = append(opts, WithWorkers(c.Workers))
	}
	if c.BoundsInset != nil {
		opts = append(opts, WithBoundsInset(*c.BoundsInset))
	}
	return opts
}
