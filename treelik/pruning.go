// SPDX-License-Identifier: MIT
// File: pruning.go
// Role: the likelihood pass. Fills L for every internal node and category,
// keeps the child products ML_r, ML_l and the transition matrices for the
// derivative pass, and combines the root with the stationary distribution.
// Determinism:
//   - Nodes are visited in index order, so children always precede parents and
//     the rescale schedule depends only on traversal position.
// Concurrency:
//   - Single goroutine. The returned pass is read-only afterwards and is shared
//     by every derivative task.
// Complexity:
//   - O(nodes · cats · sites · N²) time with shared transitions, the same with
//     per-site matrices; O(nodes · cats · sites · N) memory.

package treelik

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/codonlik/model"
)

// minNormal is the smallest positive normal float64.
const minNormal = 0x1p-1022

// pass is the state of one likelihood pass. It is read-only once the pass
// returns, so derivative tasks may share it.
type pass struct {
	m        [][]model.Transition // [cat][node], every node but the root
	l        [][]*mat.Dense       // [cat][internal offset]
	mlr, mll [][]*mat.Dense       // [cat][internal offset]
	pi       [][]float64          // [cat]
	scale    [][]float64          // [internal offset]; nil when not rescaled
	logScale []float64            // [site]
	siteLik  []float64            // rescaled Σ_k w_k Σ_x π_k[x]·L_k[root][r][x]

	nrescaled int
}

// partial returns the likelihood matrix of node n in category k.
func (e *Engine) partial(p *pass, k, n int) *mat.Dense {
	if n < e.it.NTips() {
		return e.tipL[n]
	}
	return p.l[k][n-e.it.NTips()]
}

// likelihoodPass runs Felsenstein pruning over every internal node in index
// order, rescaling as configured, and combines the root with the stationary
// distribution.
func (e *Engine) likelihoodPass() (*pass, error) {
	var (
		it        = e.it
		ncats     = e.s.ncats()
		ntips     = it.NTips()
		ninternal = it.NInternal()
		nsites    = it.NSites()
		p         = &pass{
			m:        make([][]model.Transition, ncats),
			l:        make([][]*mat.Dense, ncats),
			mlr:      make([][]*mat.Dense, ncats),
			mll:      make([][]*mat.Dense, ncats),
			pi:       make([][]float64, ncats),
			scale:    make([][]float64, ninternal),
			logScale: make([]float64, nsites),
		}
		err error
	)

	// Stage 1: transition matrices for every branch.
	for k := 0; k < ncats; k++ {
		p.m[k] = make([]model.Transition, it.NNodes()-1)
		for n := range p.m[k] {
			if p.m[k][n], err = e.s.transition(k, it.Length(n)); err != nil {
				return nil, fmt.Errorf("likelihood pass: M(node %d, cat %d): %w", n, k, err)
			}
		}
		p.l[k] = make([]*mat.Dense, ninternal)
		p.mlr[k] = make([]*mat.Dense, ninternal)
		p.mll[k] = make([]*mat.Dense, ninternal)
		p.pi[k] = e.s.stationary(k)
	}

	// Stage 2: pruning in postorder.
	for n := ntips; n < it.NNodes(); n++ {
		o := n - ntips
		r, l := it.Children(n)
		for k := 0; k < ncats; k++ {
			p.mlr[k][o] = applyTransition(p.m[k][r], e.partial(p, k, r))
			p.mll[k][o] = applyTransition(p.m[k][l], e.partial(p, k, l))
			lk := mat.NewDense(nsites, model.N, nil)
			lk.MulElem(p.mlr[k][o], p.mll[k][o])
			p.l[k][o] = lk
		}
		// Stage 3: numeric check and rescaling by traversal position.
		if err = e.rescale(p, n, (o+1)%e.o.rescaleEvery == 0); err != nil {
			return nil, err
		}
	}

	// Stage 4: root.
	root := it.Root()
	p.siteLik = make([]float64, nsites)
	w := e.s.weights()
	for r := 0; r < nsites; r++ {
		var lik float64
		for k := 0; k < ncats; k++ {
			lik += w[k] * floats.Dot(p.pi[k], e.partial(p, k, root).RawRowView(r))
		}
		switch {
		case math.IsNaN(lik) || math.IsInf(lik, 0):
			return nil, &NumericError{Pass: "likelihood", Node: root, Site: r, Err: ErrNonFinite}
		case lik < minNormal:
			return nil, &NumericError{Pass: "likelihood", Node: root, Site: r, Err: ErrUnderflow}
		}
		p.siteLik[r] = lik
	}

	return p, nil
}

// applyTransition returns ML with ML[r][x] = Σ_y M_r[x][y]·src[r][y]. A
// shared matrix is applied to every site with one product.
func applyTransition(tr model.Transition, src *mat.Dense) *mat.Dense {
	nsites, _ := src.Dims()
	dst := mat.NewDense(nsites, model.N, nil)
	if tr.Shared != nil {
		dst.Mul(src, tr.Shared.T())
		return dst
	}
	for r := 0; r < nsites; r++ {
		out := mat.NewVecDense(model.N, dst.RawRowView(r))
		out.MulVec(tr.PerSite[r], mat.NewVecDense(model.N, src.RawRowView(r)))
	}
	return dst
}
