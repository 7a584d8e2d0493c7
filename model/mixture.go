// SPDX-License-Identifier: MIT

package model

import (
	"fmt"
	"slices"
)

// YNGKPM5 is the M5 codon model: omega follows Gamma(alpha_omega, beta_omega)
// discretised into equally weighted categories, each with its own rate
// matrix. kappa, mu and eta are shared by every category.
//
// Free parameters, in order: kappa, alpha_omega, beta_omega, mu, and eta
// when built with WithFreeEta.
type YNGKPM5 struct {
	cs          codonState
	ncats       int
	alpha, beta float64

	omegas  []float64
	dalpha  []float64
	dbeta   []float64
	kernels []*kernel
}

var (
	_ MixtureModel = (*YNGKPM5)(nil)
	_ BranchScaler = (*YNGKPM5)(nil)
)

// NewYNGKPM5 builds an M5 model for nsites sites and ncats omega categories.
func NewYNGKPM5(nsites, ncats int, opts ...Option) (*YNGKPM5, error) {
	if ncats < 1 {
		return nil, fmt.Errorf("NewYNGKPM5: ncats=%d: %w", ncats, ErrBadCategories)
	}
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	cs, err := newCodonState(nsites, s)
	if err != nil {
		return nil, fmt.Errorf("NewYNGKPM5: %w", err)
	}
	if err = checkValue(paramAlphaOmega, Scalar(s.alpha), 0); err != nil {
		return nil, fmt.Errorf("NewYNGKPM5: %w", err)
	}
	if err = checkValue(paramBetaOmega, Scalar(s.beta), 0); err != nil {
		return nil, fmt.Errorf("NewYNGKPM5: %w", err)
	}

	m := &YNGKPM5{ncats: ncats}
	if err = m.rebuild(cs, s.alpha, s.beta); err != nil {
		return nil, fmt.Errorf("NewYNGKPM5: %w", err)
	}

	return m, nil
}

// rebuild derives category omegas and kernels, then commits the new state.
// Nothing is committed on error.
func (m *YNGKPM5) rebuild(cs codonState, alpha, beta float64) error {
	omegas, err := DiscreteGamma(alpha, beta, m.ncats)
	if err != nil {
		return err
	}
	dalpha, dbeta, err := dDiscreteGamma(alpha, beta, omegas)
	if err != nil {
		return err
	}
	kernels := make([]*kernel, m.ncats)
	for k, w := range omegas {
		if kernels[k], err = newKernel(cs.pi, cs.dpi, cs.kappa, w); err != nil {
			return err
		}
	}

	m.cs, m.alpha, m.beta = cs, alpha, beta
	m.omegas, m.dalpha, m.dbeta, m.kernels = omegas, dalpha, dbeta, kernels

	return nil
}

// NSites implements Parameterized.
func (m *YNGKPM5) NSites() int { return m.cs.nsites }

// FreeParams implements Parameterized.
func (m *YNGKPM5) FreeParams() []string {
	return m.cs.sharedParams(paramAlphaOmega, paramBetaOmega)
}

// ParamValue implements Parameterized.
func (m *YNGKPM5) ParamValue(name string) (Value, error) {
	switch name {
	case paramAlphaOmega:
		return Scalar(m.alpha), nil
	case paramBetaOmega:
		return Scalar(m.beta), nil
	}
	if v, ok := m.cs.value(name); ok {
		return v, nil
	}
	return Value{}, fmt.Errorf("ParamValue(%q): %w", name, ErrUnknownParam)
}

// ParamLimits implements Parameterized.
func (m *YNGKPM5) ParamLimits(name string) (float64, float64, error) {
	if !slices.Contains(m.FreeParams(), name) {
		return 0, 0, fmt.Errorf("ParamLimits(%q): %w", name, ErrUnknownParam)
	}
	return paramLimits(name)
}

// UpdateParams implements Parameterized.
func (m *YNGKPM5) UpdateParams(values map[string]Value) error {
	var (
		cs          = m.cs.clone()
		alpha, beta = m.alpha, m.beta
	)
	for name, v := range values {
		switch name {
		case paramAlphaOmega, paramBetaOmega:
			if err := checkValue(name, v, 0); err != nil {
				return fmt.Errorf("UpdateParams: %w", err)
			}
			if name == paramAlphaOmega {
				alpha = v.X[0]
			} else {
				beta = v.X[0]
			}
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

	if err := m.rebuild(cs, alpha, beta); err != nil {
		return fmt.Errorf("UpdateParams: %w", err)
	}
	return nil
}

// NCats implements MixtureModel.
func (m *YNGKPM5) NCats() int { return m.ncats }

// CatWeights implements MixtureModel; categories are equiprobable.
func (m *YNGKPM5) CatWeights() []float64 {
	w := make([]float64, m.ncats)
	for k := range w {
		w[k] = 1 / float64(m.ncats)
	}
	return w
}

// Omegas returns a copy of the current per-category omega values.
func (m *YNGKPM5) Omegas() []float64 {
	return append([]float64(nil), m.omegas...)
}

// DistributedParam implements MixtureModel.
func (m *YNGKPM5) DistributedParam() string { return paramOmega }

// DistributionParams implements MixtureModel.
func (m *YNGKPM5) DistributionParams() []string {
	return []string{paramAlphaOmega, paramBetaOmega}
}

// DDistribution implements MixtureModel.
func (m *YNGKPM5) DDistribution(param string) ([]float64, error) {
	switch param {
	case paramAlphaOmega:
		return append([]float64(nil), m.dalpha...), nil
	case paramBetaOmega:
		return append([]float64(nil), m.dbeta...), nil
	}
	return nil, fmt.Errorf("DDistribution(%q): %w", param, ErrUnknownParam)
}

// MCat implements MixtureModel.
func (m *YNGKPM5) MCat(k int, t float64) (Transition, error) {
	if k < 0 || k >= m.ncats {
		return Transition{}, fmt.Errorf("MCat: category %d of %d: %w", k, m.ncats, ErrBadCategories)
	}
	return m.kernels[k].transition(m.cs.mu, t, m.cs.rates), nil
}

// DMCat implements MixtureModel.
func (m *YNGKPM5) DMCat(k int, t float64, param string, mt Transition) ([]Transition, error) {
	if k < 0 || k >= m.ncats {
		return nil, fmt.Errorf("DMCat: category %d of %d: %w", k, m.ncats, ErrBadCategories)
	}
	if param != paramOmega && (!slices.Contains(m.FreeParams(), param) || slices.Contains(m.DistributionParams(), param)) {
		return nil, fmt.Errorf("DMCat(%q): %w", param, ErrUnknownParam)
	}
	return m.kernels[k].dtransition(param, m.cs.mu, t, m.cs.rates, mt)
}

// StationaryCat implements MixtureModel; omega does not move π, so every
// category shares one stationary state.
func (m *YNGKPM5) StationaryCat(int) []float64 { return m.cs.stationary() }

// DStationaryCat implements MixtureModel.
func (m *YNGKPM5) DStationaryCat(_ int, param string) [][]float64 {
	return m.cs.dstationary(param)
}

// BranchScale is mu times the category-averaged equilibrium rate.
func (m *YNGKPM5) BranchScale() float64 {
	var r float64
	for _, k := range m.kernels {
		r += k.meanRate(m.cs.pi)
	}
	return m.cs.mu * r / float64(m.ncats)
}
