// SPDX-License-Identifier: MIT

package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/codonlik/codon"
)

// eigenTie is the eigenvalue gap below which two eigenvalues are treated as
// equal in the derivative kernel F.
const eigenTie = 1e-12

// rateMatrix is a reversible codon rate matrix Q with its eigendecomposition
// Q = A diag(lambda) Ainv, where A = Π^{-1/2} U and Ainv = Uᵀ Π^{1/2} for the
// orthogonal eigenvectors U of the symmetrised matrix Π^{1/2} Q Π^{-1/2}.
type rateMatrix struct {
	q      *mat.Dense
	lambda []float64
	a      *mat.Dense
	ainv   *mat.Dense
}

// gy94Q fills the Goldman–Yang rate matrix for codon frequencies pi.
func gy94Q(pi []float64, kappa, omega float64) *mat.Dense {
	var (
		q         = mat.NewDense(N, N, nil)
		x, y, n   int
		pos       int
		v, rowsum float64
	)
	for x = 0; x < N; x++ {
		rowsum = 0
		for y = 0; y < N; y++ {
			if x == y {
				continue
			}
			if n, pos = codon.Differences(x, y); n != 1 {
				continue
			}
			v = pi[y]
			if codon.IsTransition(codon.Nucleotide(x, pos), codon.Nucleotide(y, pos)) {
				v *= kappa
			}
			if !codon.Synonymous(x, y) {
				v *= omega
			}
			q.Set(x, y, v)
			rowsum += v
		}
		q.Set(x, x, -rowsum)
	}

	return q
}

// newRateMatrix diagonalises q, which must satisfy detailed balance with pi.
func newRateMatrix(q *mat.Dense, pi []float64) (*rateMatrix, error) {
	var (
		sqrtPi = make([]float64, N)
		s      = mat.NewSymDense(N, nil)
		x, y   int
	)
	for x = 0; x < N; x++ {
		sqrtPi[x] = math.Sqrt(pi[x])
	}
	// S = Π^{1/2} Q Π^{-1/2}; average both triangles to remove rounding asymmetry
	for x = 0; x < N; x++ {
		for y = x; y < N; y++ {
			sxy := sqrtPi[x] * q.At(x, y) / sqrtPi[y]
			syx := sqrtPi[y] * q.At(y, x) / sqrtPi[x]
			s.SetSym(x, y, 0.5*(sxy+syx))
		}
	}

	var es mat.EigenSym
	if ok := es.Factorize(s, true); !ok {
		return nil, fmt.Errorf("newRateMatrix: %w", ErrEigen)
	}
	var u mat.Dense
	es.VectorsTo(&u)

	rm := &rateMatrix{
		q:      q,
		lambda: es.Values(nil),
		a:      mat.NewDense(N, N, nil),
		ainv:   mat.NewDense(N, N, nil),
	}
	var j int
	for x = 0; x < N; x++ {
		for j = 0; j < N; j++ {
			rm.a.Set(x, j, u.At(x, j)/sqrtPi[x])
			rm.ainv.Set(j, x, u.At(x, j)*sqrtPi[x])
		}
	}

	return rm, nil
}

// expm returns exp(c·Q). c == 0 yields the exact identity.
func (rm *rateMatrix) expm(c float64) *mat.Dense {
	out := mat.NewDense(N, N, nil)
	if c == 0 {
		for x := 0; x < N; x++ {
			out.Set(x, x, 1)
		}
		return out
	}

	var scaled mat.Dense
	scaled.CloneFrom(rm.a)
	for j := 0; j < N; j++ {
		e := math.Exp(c * rm.lambda[j])
		for x := 0; x < N; x++ {
			scaled.Set(x, j, scaled.At(x, j)*e)
		}
	}
	out.Mul(&scaled, rm.ainv)

	return out
}

// project returns Ainv·dq·A, the derivative of Q expressed in the eigenbasis.
func (rm *rateMatrix) project(dq *mat.Dense) *mat.Dense {
	var tmp mat.Dense
	tmp.Mul(rm.ainv, dq)
	out := mat.NewDense(N, N, nil)
	out.Mul(&tmp, rm.a)

	return out
}

// dexpm returns d exp(c·Q)/dθ given proj = Ainv·(dQ/dθ)·A.
func (rm *rateMatrix) dexpm(c float64, proj *mat.Dense) *mat.Dense {
	var (
		inner = mat.NewDense(N, N, nil)
		ex    = make([]float64, N)
		x, y   int
		hi, lo float64
		d, f   float64
	)
	for x = 0; x < N; x++ {
		ex[x] = math.Exp(c * rm.lambda[x])
	}
	for x = 0; x < N; x++ {
		for y = 0; y < N; y++ {
			hi, lo = rm.lambda[x], rm.lambda[y]
			if hi < lo {
				hi, lo = lo, hi
			}
			if d = hi - lo; d < eigenTie {
				f = c * ex[x]
			} else {
				// (e^{cλx} − e^{cλy})/(λx − λy), anchored at the larger exponent
				f = math.Exp(c*hi) * -math.Expm1(-c*d) / d
			}
			inner.Set(x, y, proj.At(x, y)*f)
		}
	}

	var tmp mat.Dense
	tmp.Mul(rm.a, inner)
	out := mat.NewDense(N, N, nil)
	out.Mul(&tmp, rm.ainv)

	return out
}

// derivQ builds dQ/dθ from the off-diagonal factor g(x, y) = dQ_xy/Q_xy,
// restoring zero row sums on the diagonal.
func derivQ(q *mat.Dense, g func(x, y int) float64) *mat.Dense {
	var (
		dq        = mat.NewDense(N, N, nil)
		x, y      int
		v, rowsum float64
	)
	for x = 0; x < N; x++ {
		rowsum = 0
		for y = 0; y < N; y++ {
			if x == y {
				continue
			}
			if v = q.At(x, y); v == 0 {
				continue
			}
			v *= g(x, y)
			dq.Set(x, y, v)
			rowsum += v
		}
		dq.Set(x, x, -rowsum)
	}

	return dq
}

// kernel is one rate matrix plus the eigenbasis projections of its
// parameter derivatives, keyed by parameter name (one entry per component).
type kernel struct {
	rm   *rateMatrix
	proj map[string][]*mat.Dense
}

// newKernel builds the GY94 kernel for the given frequencies and ratios.
// dpi holds dπ/dη per component and may be nil for fixed frequencies.
func newKernel(pi []float64, dpi [][]float64, kappa, omega float64) (*kernel, error) {
	q := gy94Q(pi, kappa, omega)
	rm, err := newRateMatrix(q, pi)
	if err != nil {
		return nil, err
	}

	k := &kernel{rm: rm, proj: make(map[string][]*mat.Dense, 3)}
	k.proj[paramKappa] = []*mat.Dense{rm.project(derivQ(q, func(x, y int) float64 {
		_, pos := codon.Differences(x, y)
		if codon.IsTransition(codon.Nucleotide(x, pos), codon.Nucleotide(y, pos)) {
			return 1 / kappa
		}
		return 0
	}))}
	k.proj[paramOmega] = []*mat.Dense{rm.project(derivQ(q, func(x, y int) float64 {
		if codon.Synonymous(x, y) {
			return 0
		}
		return 1 / omega
	}))}
	if dpi != nil {
		etas := make([]*mat.Dense, len(dpi))
		for i := range dpi {
			comp := dpi[i]
			etas[i] = rm.project(derivQ(q, func(_, y int) float64 {
				return comp[y] / pi[y]
			}))
		}
		k.proj[paramEta] = etas
	}

	return k, nil
}

// meanRate is Σ_x π_x·(−Q_xx), the expected substitution rate at equilibrium.
func (k *kernel) meanRate(pi []float64) float64 {
	var r float64
	for x := 0; x < N; x++ {
		r -= pi[x] * k.rm.q.At(x, x)
	}
	return r
}

// transition returns exp(mu·rate_r·t·Q) for every site. A nil rates slice
// yields one shared matrix.
func (k *kernel) transition(mu, t float64, rates []float64) Transition {
	if rates == nil {
		return Transition{Shared: k.rm.expm(mu * t)}
	}

	var (
		per   = make([]*mat.Dense, len(rates))
		cache = make(map[float64]*mat.Dense)
	)
	for r, rate := range rates {
		m, ok := cache[rate]
		if !ok {
			m = k.rm.expm(mu * rate * t)
			cache[rate] = m
		}
		per[r] = m
	}

	return Transition{PerSite: per}
}

// dtransition returns dM/dparam per component. param "mu" is handled in
// closed form; every other name must have a projection.
func (k *kernel) dtransition(param string, mu, t float64, rates []float64, m Transition) ([]Transition, error) {
	if param == paramMu {
		return []Transition{k.dmu(t, rates, m)}, nil
	}

	projs, ok := k.proj[param]
	if !ok {
		return nil, fmt.Errorf("dM(%q): %w", param, ErrUnknownParam)
	}
	out := make([]Transition, len(projs))
	for i, proj := range projs {
		if rates == nil {
			out[i] = Transition{Shared: k.rm.dexpm(mu*t, proj)}
			continue
		}
		var (
			per   = make([]*mat.Dense, len(rates))
			cache = make(map[float64]*mat.Dense)
		)
		for r, rate := range rates {
			d, hit := cache[rate]
			if !hit {
				d = k.rm.dexpm(mu*rate*t, proj)
				cache[rate] = d
			}
			per[r] = d
		}
		out[i] = Transition{PerSite: per}
	}

	return out, nil
}

// dmu is d exp(mu·ρ·t·Q)/dmu = ρ·t·Q·M.
func (k *kernel) dmu(t float64, rates []float64, m Transition) Transition {
	mulQ := func(scale float64, mm *mat.Dense) *mat.Dense {
		out := mat.NewDense(N, N, nil)
		out.Mul(k.rm.q, mm)
		out.Scale(scale, out)
		return out
	}
	if rates == nil {
		return Transition{Shared: mulQ(t, m.Shared)}
	}

	var (
		per   = make([]*mat.Dense, len(rates))
		cache = make(map[*mat.Dense]*mat.Dense)
	)
	for r, rate := range rates {
		src := m.PerSite[r]
		d, hit := cache[src]
		if !hit {
			d = mulQ(rate*t, src)
			cache[src] = d
		}
		per[r] = d
	}

	return Transition{PerSite: per}
}
