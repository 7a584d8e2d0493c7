// SPDX-License-Identifier: MIT

package model

import (
	"fmt"
	"math"
)

// Parameter names used by the reference models.
const (
	paramKappa      = "kappa"
	paramOmega      = "omega"
	paramMu         = "mu"
	paramEta        = "eta"
	paramAlphaOmega = "alpha_omega"
	paramBetaOmega  = "beta_omega"
)

// nEta is the number of stick-breaking frequency coordinates.
const nEta = 3

// limits holds the nominal bounds of every reference-model parameter.
var limits = map[string][2]float64{
	paramKappa:      {0.01, 100},
	paramOmega:      {1e-5, 100},
	paramMu:         {1e-3, 1e3},
	paramEta:        {0.01, 0.99},
	paramAlphaOmega: {0.3, 10},
	paramBetaOmega:  {0.3, 10},
}

// Default starting values.
const (
	DefaultKappa = 2.0
	DefaultOmega = 0.5
	DefaultMu    = 1.0
	DefaultAlpha = 1.0
	DefaultBeta  = 2.0
)

func paramLimits(name string) (float64, float64, error) {
	l, ok := limits[name]
	if !ok {
		return 0, 0, fmt.Errorf("limits(%q): %w", name, ErrUnknownParam)
	}
	return l[0], l[1], nil
}

// checkValue validates shape and limits of v for parameter name.
// width is 0 for scalars, the component count for vectors.
func checkValue(name string, v Value, width int) error {
	if width == 0 {
		if v.Vector || len(v.X) != 1 {
			return fmt.Errorf("%s: want scalar, got %d components: %w", name, len(v.X), ErrParamShape)
		}
	} else if len(v.X) != width {
		return fmt.Errorf("%s: want %d components, got %d: %w", name, width, len(v.X), ErrParamShape)
	}

	lo, hi, err := paramLimits(name)
	if err != nil {
		return err
	}
	for i, x := range v.X {
		if math.IsNaN(x) || x < lo || x > hi {
			return fmt.Errorf("%s[%d]=%v not in [%v, %v]: %w", name, i, x, lo, hi, ErrParamLimits)
		}
	}

	return nil
}

// Option configures a reference model at construction.
type Option func(*settings)

// settings is the resolved construction-time configuration.
type settings struct {
	kappa, omega, mu float64
	alpha, beta      float64
	epa              [3][4]float64
	phi              [4]float64
	freeEta          bool
	rates            []float64
}

func defaultSettings() settings {
	return settings{
		kappa: DefaultKappa,
		omega: DefaultOmega,
		mu:    DefaultMu,
		alpha: DefaultAlpha,
		beta:  DefaultBeta,
		epa:   UniformF3X4,
	}
}

// WithKappa sets the initial transition/transversion ratio.
func WithKappa(kappa float64) Option {
	return func(s *settings) { s.kappa = kappa }
}

// WithOmega sets the initial dN/dS ratio (YNGKPM0 only).
func WithOmega(omega float64) Option {
	return func(s *settings) { s.omega = omega }
}

// WithMu sets the initial rate scaler.
func WithMu(mu float64) Option {
	return func(s *settings) { s.mu = mu }
}

// WithGamma sets the initial shape and rate of the omega distribution
// (YNGKPM5 only).
func WithGamma(alpha, beta float64) Option {
	return func(s *settings) {
		s.alpha = alpha
		s.beta = beta
	}
}

// WithF3X4 fixes codon frequencies to the product of position-specific
// nucleotide frequencies epa[position][nucleotide].
func WithF3X4(epa [3][4]float64) Option {
	return func(s *settings) {
		s.epa = epa
		s.freeEta = false
	}
}

// WithFreeEta makes position-independent nucleotide frequencies a free
// vector parameter "eta", starting from phi.
func WithFreeEta(phi [4]float64) Option {
	return func(s *settings) {
		s.phi = phi
		s.freeEta = true
	}
}

// WithSiteRates fixes a relative rate multiplier per site. The model then
// returns one transition matrix per site.
func WithSiteRates(rates []float64) Option {
	return func(s *settings) { s.rates = append([]float64(nil), rates...) }
}

// codonState holds the parameters shared by the reference models and the
// codon frequencies derived from them.
type codonState struct {
	nsites int
	kappa  float64
	mu     float64
	eta    []float64 // nil when frequencies are fixed
	epa    [3][4]float64
	rates  []float64

	pi  []float64
	dpi [][]float64
}

func newCodonState(nsites int, s settings) (codonState, error) {
	if nsites < 1 {
		return codonState{}, fmt.Errorf("nsites=%d: %w", nsites, ErrBadSites)
	}
	if s.rates != nil {
		if len(s.rates) != nsites {
			return codonState{}, fmt.Errorf("%d rates for %d sites: %w", len(s.rates), nsites, ErrBadSites)
		}
		for _, r := range s.rates {
			if !(r > 0) || math.IsInf(r, 0) {
				return codonState{}, fmt.Errorf("site rate %v: %w", r, ErrBadSites)
			}
		}
	}

	cs := codonState{nsites: nsites, kappa: s.kappa, mu: s.mu, epa: s.epa, rates: s.rates}
	if s.freeEta {
		if err := checkNucleotideFreqs(s.phi); err != nil {
			return codonState{}, err
		}
		cs.eta = phiToEta(s.phi)
		if err := checkValue(paramEta, Vector(cs.eta...), nEta); err != nil {
			return codonState{}, err
		}
	} else {
		for p := 0; p < 3; p++ {
			if err := checkNucleotideFreqs(s.epa[p]); err != nil {
				return codonState{}, err
			}
		}
	}
	if err := checkValue(paramKappa, Scalar(cs.kappa), 0); err != nil {
		return codonState{}, err
	}
	if err := checkValue(paramMu, Scalar(cs.mu), 0); err != nil {
		return codonState{}, err
	}
	cs.refreshFreqs()

	return cs, nil
}

func (cs *codonState) refreshFreqs() {
	if cs.eta == nil {
		cs.pi, cs.dpi = codonFreqsF3X4(cs.epa), nil
		return
	}
	cs.pi, cs.dpi = codonFreqsF1X4(cs.eta)
}

// clone returns a copy whose slices can be modified independently.
func (cs codonState) clone() codonState {
	if cs.eta != nil {
		cs.eta = append([]float64(nil), cs.eta...)
	}
	return cs
}

// sharedParams lists kappa, extra..., mu and eta (when free) in order.
func (cs *codonState) sharedParams(extra ...string) []string {
	names := append([]string{paramKappa}, extra...)
	names = append(names, paramMu)
	if cs.eta != nil {
		names = append(names, paramEta)
	}
	return names
}

// value returns the value of a shared parameter; ok is false for names the
// state does not own.
func (cs *codonState) value(name string) (Value, bool) {
	switch name {
	case paramKappa:
		return Scalar(cs.kappa), true
	case paramMu:
		return Scalar(cs.mu), true
	case paramEta:
		if cs.eta != nil {
			return Vector(cs.eta...), true
		}
	}
	return Value{}, false
}

// apply validates and stores a shared parameter; ok is false for names the
// state does not own.
func (cs *codonState) apply(name string, v Value) (bool, error) {
	switch name {
	case paramKappa:
		if err := checkValue(name, v, 0); err != nil {
			return true, err
		}
		cs.kappa = v.X[0]
	case paramMu:
		if err := checkValue(name, v, 0); err != nil {
			return true, err
		}
		cs.mu = v.X[0]
	case paramEta:
		if cs.eta == nil {
			return false, nil
		}
		if err := checkValue(name, v, nEta); err != nil {
			return true, err
		}
		copy(cs.eta, v.X)
	default:
		return false, nil
	}

	return true, nil
}

// dstationary returns dπ for the shared parameters (only eta moves π).
func (cs *codonState) dstationary(name string) [][]float64 {
	if name != paramEta || cs.dpi == nil {
		return nil
	}
	out := make([][]float64, len(cs.dpi))
	for i := range cs.dpi {
		out[i] = append([]float64(nil), cs.dpi[i]...)
	}
	return out
}

func (cs *codonState) stationary() []float64 {
	return append([]float64(nil), cs.pi...)
}
