// SPDX-License-Identifier: MIT

package maxlik

import (
	"fmt"
	"log/slog"
	"math"

	"gopkg.in/yaml.v3"
)

// Default optimizer settings.
const (
	DefaultGradientThreshold = 1e-5
	DefaultMaxIterations     = 1000
	DefaultFunctionTolerance = 1e-9
	DefaultLBFGSStore        = 15

	// functionWindow is how many major iterations without a significant
	// decrease count as function convergence.
	functionWindow = 20
)

// Config controls a Maximize run. Zero numeric fields mean "no limit" for
// the two budgets and "default" for the rest; use DefaultConfig as a base.
//
//	gradient_threshold: 1.0e-5
//	max_iterations: 1000
//	func_evaluations: 0
//	function_tolerance: 1.0e-9
//	lbfgs_store: 15
type Config struct {
	GradientThreshold float64 `yaml:"gradient_threshold"`
	MaxIterations     int     `yaml:"max_iterations"`
	FuncEvaluations   int     `yaml:"func_evaluations"`
	FunctionTolerance float64 `yaml:"function_tolerance"`
	LBFGSStore        int     `yaml:"lbfgs_store"`

	// Logger receives start and finish records. Nil discards.
	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		GradientThreshold: DefaultGradientThreshold,
		MaxIterations:     DefaultMaxIterations,
		FunctionTolerance: DefaultFunctionTolerance,
		LBFGSStore:        DefaultLBFGSStore,
	}
}

// ParseConfig decodes YAML over DefaultConfig, so omitted keys keep their
// defaults, and validates the result.
func ParseConfig(data []byte) (Config, error) {
	c := DefaultConfig()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("maxlik: parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects negative or non-finite settings.
func (c Config) Validate() error {
	if bad(c.GradientThreshold) {
		return fmt.Errorf("maxlik: config: gradient_threshold=%v must be finite and >= 0", c.GradientThreshold)
	}
	if bad(c.FunctionTolerance) {
		return fmt.Errorf("maxlik: config: function_tolerance=%v must be finite and >= 0", c.FunctionTolerance)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("maxlik: config: max_iterations=%d must be >= 0", c.MaxIterations)
	}
	if c.FuncEvaluations < 0 {
		return fmt.Errorf("maxlik: config: func_evaluations=%d must be >= 0", c.FuncEvaluations)
	}
	if c.LBFGSStore < 0 {
		return fmt.Errorf("maxlik: config: lbfgs_store=%d must be >= 0", c.LBFGSStore)
	}
	return nil
}

func bad(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) || v < 0 }
