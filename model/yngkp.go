// SPDX-License-Identifier: MIT

package model

import (
	"fmt"
	"slices"
)

// YNGKPM0 is the Goldman–Yang / Nielsen–Yang M0 codon model: one omega for
// every site and branch.
//
// Free parameters, in order: kappa, omega, mu, and eta when built with
// WithFreeEta.
type YNGKPM0 struct {
	cs    codonState
	omega float64
	k     *kernel
}

var (
	_ Model        = (*YNGKPM0)(nil)
	_ BranchScaler = (*YNGKPM0)(nil)
)

// NewYNGKPM0 builds an M0 model for nsites codon sites.
func NewYNGKPM0(nsites int, opts ...Option) (*YNGKPM0, error) {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	cs, err := newCodonState(nsites, s)
	if err != nil {
		return nil, fmt.Errorf("NewYNGKPM0: %w", err)
	}
	if err = checkValue(paramOmega, Scalar(s.omega), 0); err != nil {
		return nil, fmt.Errorf("NewYNGKPM0: %w", err)
	}

	m := &YNGKPM0{cs: cs, omega: s.omega}
	if m.k, err = newKernel(cs.pi, cs.dpi, cs.kappa, m.omega); err != nil {
		return nil, fmt.Errorf("NewYNGKPM0: %w", err)
	}

	return m, nil
}

// NSites implements Parameterized.
func (m *YNGKPM0) NSites() int { return m.cs.nsites }

// FreeParams implements Parameterized.
func (m *YNGKPM0) FreeParams() []string { return m.cs.sharedParams(paramOmega) }

// ParamValue implements Parameterized.
func (m *YNGKPM0) ParamValue(name string) (Value, error) {
	if name == paramOmega {
		return Scalar(m.omega), nil
	}
	if v, ok := m.cs.value(name); ok {
		return v, nil
	}
	return Value{}, fmt.Errorf("ParamValue(%q): %w", name, ErrUnknownParam)
}

// ParamLimits implements Parameterized.
func (m *YNGKPM0) ParamLimits(name string) (float64, float64, error) {
	if !slices.Contains(m.FreeParams(), name) {
		return 0, 0, fmt.Errorf("ParamLimits(%q): %w", name, ErrUnknownParam)
	}
	return paramLimits(name)
}

// UpdateParams implements Parameterized. The rate matrix is rebuilt once
// after all values are validated.
func (m *YNGKPM0) UpdateParams(values map[string]Value) error {
	var (
		cs    = m.cs.clone()
		omega = m.omega
	)
	for name, v := range values {
		if name == paramOmega {
			if err := checkValue(name, v, 0); err != nil {
				return fmt.Errorf("UpdateParams: %w", err)
			}
			omega = v.X[0]
			continue
		}
		owned, err := cs.apply(name, v)
		if err != nil {
			return fmt.Errorf("UpdateParams: %w", err)
		}
		if !owned {
			return fmt.Errorf("UpdateParams(%q): %w", name, ErrUnknownParam)
		}
	}
	cs.refreshFreqs()

	k, err := newKernel(cs.pi, cs.dpi, cs.kappa, omega)
	if err != nil {
		return fmt.Errorf("UpdateParams: %w", err)
	}
	m.cs, m.omega, m.k = cs, omega, k

	return nil
}

// M implements Model.
func (m *YNGKPM0) M(t float64) (Transition, error) {
	return m.k.transition(m.cs.mu, t, m.cs.rates), nil
}

// DM implements Model.
func (m *YNGKPM0) DM(t float64, param string, mt Transition) ([]Transition, error) {
	if !slices.Contains(m.FreeParams(), param) {
		return nil, fmt.Errorf("DM(%q): %w", param, ErrUnknownParam)
	}
	return m.k.dtransition(param, m.cs.mu, t, m.cs.rates, mt)
}

// Stationary implements Model.
func (m *YNGKPM0) Stationary() []float64 { return m.cs.stationary() }

// DStationary implements Model.
func (m *YNGKPM0) DStationary(param string) [][]float64 { return m.cs.dstationary(param) }

// BranchScale is mu times the equilibrium substitution rate of Q, so branch
// lengths in substitutions per site convert to model time.
func (m *YNGKPM0) BranchScale() float64 {
	return m.cs.mu * m.k.meanRate(m.cs.pi)
}
