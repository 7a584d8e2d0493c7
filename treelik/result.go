// SPDX-License-Identifier: MIT

package treelik

import "slices"

// Result is one evaluation of the engine. Values returned by Engine.Result
// are owned by the caller.
type Result struct {
	// LogLik is Σ_r SiteLogLik[r].
	LogLik float64
	// SiteLogLik[r] = log(Σ_k w_k Σ_x π_k[x]·L_k[root][r][x]) + logScale[r].
	SiteLogLik []float64
	// Gradient is d LogLik / d slot, in parameter vector order.
	Gradient []float64
	// DLogLik[param][comp] is d LogLik / d param component.
	DLogLik map[string][]float64
	// DSiteLogLik[param][comp][r] is d SiteLogLik[r] / d param component.
	DSiteLogLik map[string][][]float64
}

func (r Result) clone() Result {
	out := Result{
		LogLik:      r.LogLik,
		SiteLogLik:  slices.Clone(r.SiteLogLik),
		Gradient:    slices.Clone(r.Gradient),
		DLogLik:     make(map[string][]float64, len(r.DLogLik)),
		DSiteLogLik: make(map[string][][]float64, len(r.DSiteLogLik)),
	}
	for name, d := range r.DLogLik {
		out.DLogLik[name] = slices.Clone(d)
	}
	for name, src := range r.DSiteLogLik {
		comps := make([][]float64, len(src))
		for j, site := range src {
			comps[j] = slices.Clone(site)
		}
		out.DSiteLogLik[name] = comps
	}
	return out
}
