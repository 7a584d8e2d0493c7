// SPDX-License-Identifier: MIT
// File: derivative.go
// Role: the derivative pass. One task per free parameter carries dL up the
// tree by the product rule against the stored pass, then folds the root with
// the stationary distribution (and its derivative) into per-site gradients.
// Determinism:
//   - Each task writes only its own slot of the result, so the Pool and
//     Sequential schedulers produce bit-identical gradients.
// Concurrency:
//   - Tasks read the pass and call the model's M/DM accessors concurrently;
//     nothing in the pass is written after the likelihood stage.
// Complexity:
//   - O(components · nodes · cats · sites · N²) time; child dL buffers are
//     released once their parent is done.

package treelik

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/codonlik/model"
)

// derivativePass runs one task per free parameter through the scheduler and
// assembles the Result. Tasks read p and e, and write only out[i].
func (e *Engine) derivativePass(p *pass) (Result, error) {
	var (
		names = e.pm.names
		out   = make([][][]float64, len(names)) // [param][comp][site]
	)
	err := e.o.scheduler.Run(len(names), func(i int) error {
		d, err := e.derivative(p, names[i], e.pm.width[i])
		if err != nil {
			return err
		}
		out[i] = d
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	res := Result{
		SiteLogLik:  make([]float64, e.it.NSites()),
		Gradient:    make([]float64, 0, len(e.pm.slots)),
		DLogLik:     make(map[string][]float64, len(names)),
		DSiteLogLik: make(map[string][][]float64, len(names)),
	}
	for r, lik := range p.siteLik {
		res.SiteLogLik[r] = math.Log(lik) + p.logScale[r]
	}
	res.LogLik = floats.Sum(res.SiteLogLik)
	for i, name := range names {
		d := make([]float64, len(out[i]))
		for j, site := range out[i] {
			d[j] = floats.Sum(site)
		}
		res.DLogLik[name] = d
		res.DSiteLogLik[name] = out[i]
		res.Gradient = append(res.Gradient, d...)
	}

	return res, nil
}

// derivative propagates dL for every component of param through the tree in
// lock-step with the stored pass, and returns d siteLogLik / d param per
// component and site.
//
// For internal node n with children c ∈ {r, l}:
//
//	dML_c = dM_c·L_c + M_c·dL_c   (second term only for internal c)
//	dL_n  = dML_r ⊙ ML_l + ML_r ⊙ dML_l, divided by the node's scale
func (e *Engine) derivative(p *pass, param string, width int) ([][]float64, error) {
	var (
		it        = e.it
		ncats     = e.s.ncats()
		ntips     = it.NTips()
		ninternal = it.NInternal()
		nsites    = it.NSites()
		dl        = make([][][]*mat.Dense, width) // [comp][cat][internal offset]
	)
	for j := range dl {
		dl[j] = make([][]*mat.Dense, ncats)
		for k := range dl[j] {
			dl[j][k] = make([]*mat.Dense, ninternal)
		}
	}

	// dML for child c of category k, component j.
	dml := func(k, c, j int, dm []model.Transition) *mat.Dense {
		out := applyTransition(dm[j], e.partial(p, k, c))
		if c >= ntips {
			out.Add(out, applyTransition(p.m[k][c], dl[j][k][c-ntips]))
		}
		return out
	}
	dtrans := func(k, c int) ([]model.Transition, error) {
		d, err := e.s.dtransition(k, it.Length(c), param, p.m[k][c])
		if err != nil {
			return nil, fmt.Errorf("derivative pass: dM/d%s(node %d, cat %d): %w", param, c, k, err)
		}
		if len(d) != width {
			return nil, fmt.Errorf("derivative pass: dM/d%s has %d components, want %d: %w", param, len(d), width, ErrParamLength)
		}
		return d, nil
	}

	for n := ntips; n < it.NNodes(); n++ {
		o := n - ntips
		r, l := it.Children(n)
		for k := 0; k < ncats; k++ {
			dmr, err := dtrans(k, r)
			if err != nil {
				return nil, err
			}
			dmlft, err := dtrans(k, l)
			if err != nil {
				return nil, err
			}
			for j := 0; j < width; j++ {
				var (
					d    = mat.NewDense(nsites, model.N, nil)
					term mat.Dense
				)
				d.MulElem(dml(k, r, j, dmr), p.mll[k][o])
				term.MulElem(p.mlr[k][o], dml(k, l, j, dmlft))
				d.Add(d, &term)
				if s := p.scale[o]; s != nil {
					for site := 0; site < nsites; site++ {
						divideRow(d.RawRowView(site), s[site])
					}
				}
				if site, bad := firstNonFinite(d); bad {
					return nil, &NumericError{Pass: "derivative", Param: param, Node: n, Site: site, Err: ErrNonFinite}
				}
				dl[j][k][o] = d
			}
		}
		// each child feeds exactly one parent
		for j := 0; j < width; j++ {
			for k := 0; k < ncats; k++ {
				if r >= ntips {
					dl[j][k][r-ntips] = nil
				}
				if l >= ntips {
					dl[j][k][l-ntips] = nil
				}
			}
		}
	}

	// Root: d log(Σ_k w_k π_k·L_k) = Σ_k w_k (dπ_k·L_k + π_k·dL_k) / siteLik.
	var (
		root = it.Root()
		w    = e.s.weights()
		out  = make([][]float64, width)
	)
	dpi := make([][][]float64, ncats)
	for k := range dpi {
		d, err := e.s.dstationary(k, param)
		if err != nil {
			return nil, fmt.Errorf("derivative pass: dπ/d%s(cat %d): %w", param, k, err)
		}
		if d != nil && len(d) != width {
			return nil, fmt.Errorf("derivative pass: dπ/d%s has %d components, want %d: %w", param, len(d), width, ErrParamLength)
		}
		dpi[k] = d
	}
	for j := 0; j < width; j++ {
		out[j] = make([]float64, nsites)
		for r := 0; r < nsites; r++ {
			var num float64
			for k := 0; k < ncats; k++ {
				lroot := e.partial(p, k, root).RawRowView(r)
				var v float64
				if dpi[k] != nil {
					v += floats.Dot(dpi[k][j], lroot)
				}
				if root >= ntips {
					v += floats.Dot(p.pi[k], dl[j][k][root-ntips].RawRowView(r))
				}
				num += w[k] * v
			}
			g := num / p.siteLik[r]
			if math.IsNaN(g) || math.IsInf(g, 0) {
				return nil, &NumericError{Pass: "derivative", Param: param, Node: root, Site: r, Err: ErrNonFinite}
			}
			out[j][r] = g
		}
	}

	return out, nil
}

// firstNonFinite returns the first site (row) holding NaN or Inf.
func firstNonFinite(d *mat.Dense) (int, bool) {
	rows, _ := d.Dims()
	for r := 0; r < rows; r++ {
		for _, v := range d.RawRowView(r) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return r, true
			}
		}
	}
	return 0, false
}
