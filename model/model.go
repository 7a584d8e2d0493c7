// SPDX-License-Identifier: MIT

package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/codonlik/codon"
)

// N is the number of model states.
const N = codon.N

// Value is the current setting of one parameter. Scalar parameters carry
// exactly one element in X and have Vector == false.
type Value struct {
	X      []float64
	Vector bool
}

// Scalar returns a scalar Value.
func Scalar(x float64) Value {
	return Value{X: []float64{x}}
}

// Vector returns a vector Value holding a copy of xs.
func Vector(xs ...float64) Value {
	return Value{X: append([]float64(nil), xs...), Vector: true}
}

// Len returns the number of components (1 for scalars).
func (v Value) Len() int {
	return len(v.X)
}

// Transition holds N×N substitution probability matrices for every site:
// either one matrix shared by all sites or one matrix per site.
// Exactly one of Shared and PerSite is set.
type Transition struct {
	Shared  *mat.Dense
	PerSite []*mat.Dense
}

// Site returns the matrix applying to site r.
func (tr Transition) Site(r int) *mat.Dense {
	if tr.Shared != nil {
		return tr.Shared
	}
	return tr.PerSite[r]
}

// Parameterized is the parameter surface shared by Model and MixtureModel.
type Parameterized interface {
	// NSites is the number of codon sites the model covers.
	NSites() int

	// FreeParams lists the free parameter names in a fixed order.
	FreeParams() []string

	// ParamValue returns a copy of the current value of a free parameter.
	ParamValue(name string) (Value, error)

	// ParamLimits returns the nominal limits of a free parameter; vector
	// parameters share one pair for every component.
	ParamLimits(name string) (lo, hi float64, err error)

	// UpdateParams applies new values. Either every value is applied or, on
	// error, none is.
	UpdateParams(values map[string]Value) error
}

// Model is a substitution model without rate categories.
type Model interface {
	Parameterized

	// M returns the transition matrices for branch length t.
	M(t float64) (Transition, error)

	// DM returns dM/dparam for branch length t, one Transition per parameter
	// component. m is the result of M(t).
	DM(t float64, param string, m Transition) ([]Transition, error)

	// Stationary returns the equilibrium codon distribution.
	Stationary() []float64

	// DStationary returns the derivative of Stationary per component of
	// param, or nil when the stationary state does not depend on it.
	DStationary(param string) [][]float64
}

// MixtureModel is a model whose distributed parameter takes a different value
// in each of NCats discrete categories with fixed weights.
type MixtureModel interface {
	Parameterized

	// NCats is the number of categories.
	NCats() int

	// CatWeights returns the fixed category weights (summing to one).
	CatWeights() []float64

	// DistributedParam names the parameter whose value differs per category.
	// It is not itself a free parameter.
	DistributedParam() string

	// DistributionParams names the free parameters that shape the
	// distribution of DistributedParam.
	DistributionParams() []string

	// DDistribution returns, for a distribution parameter, the derivative of
	// every category's value of DistributedParam.
	DDistribution(param string) ([]float64, error)

	// MCat returns the transition matrices of category k.
	MCat(k int, t float64) (Transition, error)

	// DMCat returns dM/dparam for category k. param is either a free
	// parameter that is not a distribution parameter, or DistributedParam.
	DMCat(k int, t float64, param string, m Transition) ([]Transition, error)

	// StationaryCat returns the equilibrium distribution of category k.
	StationaryCat(k int) []float64

	// DStationaryCat is DStationary for category k.
	DStationaryCat(k int, param string) [][]float64
}

// BranchScaler is implemented by models whose time unit differs from the
// expected number of substitutions per site. Branch lengths are divided by
// BranchScale when a tree is indexed.
type BranchScaler interface {
	BranchScale() float64
}
