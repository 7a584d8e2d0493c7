// SPDX-License-Identifier: MIT

package treelik

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/codonlik/model"
)

// strategy hides whether the engine carries a category axis. Every method
// must be safe for concurrent use between parameter updates.
type strategy interface {
	params() model.Parameterized
	ncats() int
	weights() []float64
	transition(k int, t float64) (model.Transition, error)
	// dtransition returns dM/dparam of category k, one entry per component.
	dtransition(k int, t float64, param string, m model.Transition) ([]model.Transition, error)
	stationary(k int) []float64
	// dstationary is nil when the stationary state does not depend on param.
	dstationary(k int, param string) ([][]float64, error)
}

// noMixture is a single category of weight 1.
type noMixture struct {
	m model.Model
}

func (s noMixture) params() model.Parameterized { return s.m }
func (s noMixture) ncats() int                  { return 1 }
func (s noMixture) weights() []float64          { return []float64{1} }

func (s noMixture) transition(_ int, t float64) (model.Transition, error) {
	return s.m.M(t)
}

func (s noMixture) dtransition(_ int, t float64, param string, m model.Transition) ([]model.Transition, error) {
	return s.m.DM(t, param, m)
}

func (s noMixture) stationary(int) []float64 { return s.m.Stationary() }

func (s noMixture) dstationary(_ int, param string) ([][]float64, error) {
	return s.m.DStationary(param), nil
}

// discreteMixture carries NCats categories with fixed weights. Derivatives
// for distribution parameters go through the distributed parameter:
//
//	dM_k/dp = dM_k/dθ · dθ_k/dp
type discreteMixture struct {
	m       model.MixtureModel
	w       []float64
	theta   string
	isDistr map[string]bool
}

func newDiscreteMixture(m model.MixtureModel) (discreteMixture, error) {
	s := discreteMixture{
		m:       m,
		w:       m.CatWeights(),
		theta:   m.DistributedParam(),
		isDistr: make(map[string]bool),
	}
	if len(s.w) != m.NCats() {
		return discreteMixture{}, fmt.Errorf("NewMixture: %d weights for %d categories: %w", len(s.w), m.NCats(), model.ErrBadCategories)
	}
	for _, p := range m.DistributionParams() {
		s.isDistr[p] = true
	}
	if slices.Contains(m.FreeParams(), s.theta) {
		return discreteMixture{}, fmt.Errorf("NewMixture: %q: %w", s.theta, ErrParamConflict)
	}
	return s, nil
}

func (s discreteMixture) params() model.Parameterized { return s.m }
func (s discreteMixture) ncats() int                  { return len(s.w) }
func (s discreteMixture) weights() []float64          { return s.w }

func (s discreteMixture) transition(k int, t float64) (model.Transition, error) {
	return s.m.MCat(k, t)
}

func (s discreteMixture) dtransition(k int, t float64, param string, m model.Transition) ([]model.Transition, error) {
	if !s.isDistr[param] {
		return s.m.DMCat(k, t, param, m)
	}
	dtheta, err := s.m.DDistribution(param)
	if err != nil {
		return nil, err
	}
	d, err := s.m.DMCat(k, t, s.theta, m)
	if err != nil {
		return nil, err
	}
	out := make([]model.Transition, len(d))
	for j := range d {
		out[j] = scaleTransition(dtheta[k], d[j])
	}
	return out, nil
}

func (s discreteMixture) stationary(k int) []float64 { return s.m.StationaryCat(k) }

func (s discreteMixture) dstationary(k int, param string) ([][]float64, error) {
	if !s.isDistr[param] {
		return s.m.DStationaryCat(k, param), nil
	}
	dtheta, err := s.m.DDistribution(param)
	if err != nil {
		return nil, err
	}
	d := s.m.DStationaryCat(k, s.theta)
	for _, row := range d {
		for x := range row {
			row[x] *= dtheta[k]
		}
	}
	return d, nil
}

// scaleTransition returns c·tr without touching tr. Per-site matrices that
// share storage stay shared.
func scaleTransition(c float64, tr model.Transition) model.Transition {
	scale := func(a *mat.Dense) *mat.Dense {
		var out mat.Dense
		out.Scale(c, a)
		return &out
	}
	if tr.Shared != nil {
		return model.Transition{Shared: scale(tr.Shared)}
	}
	var (
		per  = make([]*mat.Dense, len(tr.PerSite))
		seen = make(map[*mat.Dense]*mat.Dense)
	)
	for r, a := range tr.PerSite {
		if _, ok := seen[a]; !ok {
			seen[a] = scale(a)
		}
		per[r] = seen[a]
	}
	return model.Transition{PerSite: per}
}
