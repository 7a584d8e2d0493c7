// SPDX-License-Identifier: MIT

package treelik_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/codonlik/model"
	"github.com/katalvlaran/codonlik/tree"
	"github.com/katalvlaran/codonlik/treelik"
)

func TestMixture_GradientMatchesFiniteDifference(t *testing.T) {
	root := fourTaxon()
	aln := related(root, 5, func(i, r int) bool { return i == 2 && r == 1 })
	e, err := treelik.NewMixture(root, aln, newM5(t, 5, 4, model.WithGamma(1.5, 2.5), model.WithFreeEta(testPhi)))
	require.NoError(t, err)

	assert.Equal(t, []string{"kappa", "alpha_omega", "beta_omega", "mu", "eta[0]", "eta[1]", "eta[2]"}, e.SlotNames())
	assert.Equal(t, 4, e.NCats())
	checkGradient(t, e)
}

func TestMixture_SingleCategoryEqualsPlainModel(t *testing.T) {
	const alpha, beta = 2.0, 4.0
	root := fourTaxon()
	aln := related(root, 4, nil)

	plain, err := treelik.New(root, aln, newM0(t, 4, model.WithOmega(alpha/beta)))
	require.NoError(t, err)
	mix, err := treelik.NewMixture(root, aln, newM5(t, 4, 1, model.WithGamma(alpha, beta)))
	require.NoError(t, err)

	want, err := plain.Result()
	require.NoError(t, err)
	got, err := mix.Result()
	require.NoError(t, err)
	assert.InDelta(t, want.LogLik, got.LogLik, 1e-10)
	for _, p := range []string{"kappa", "mu"} {
		assert.InDelta(t, want.DLogLik[p][0], got.DLogLik[p][0], 1e-9, p)
	}

	// one category: d/dbeta = d/domega · d omega/d beta = d/domega · (−alpha/beta²)
	assert.InDelta(t, want.DLogLik["omega"][0]*(-alpha/(beta*beta)), got.DLogLik["beta_omega"][0], 1e-8)
}

func TestMixture_CategoriesAreCombinedByWeight(t *testing.T) {
	root := threeTaxon()
	aln := []treelik.Sequence{{Name: "A", Seq: "AAAGGG"}, {Name: "B", Seq: "AAGGGA"}, {Name: "C", Seq: "AGAGGC"}}
	m := newM5(t, 2, 3)
	e, err := treelik.NewMixture(root, aln, m)
	require.NoError(t, err)
	res, err := e.Result()
	require.NoError(t, err)

	// per-category engines at each omega, mixed by hand; the category tree
	// is stretched so every engine sees the mixture's model time
	omegas := m.Omegas()
	siteLik := make([]float64, 2)
	for _, w := range omegas {
		m0 := newM0(t, 2, model.WithOmega(w))
		catTree := root.Clone()
		catTree.ScaleLengths(m.BranchScale() / m0.BranchScale())
		cat, err := treelik.New(catTree, aln, m0)
		require.NoError(t, err)
		r, err := cat.Result()
		require.NoError(t, err)
		for s := range siteLik {
			siteLik[s] += math.Exp(r.SiteLogLik[s]) / 3
		}
	}
	for s := range siteLik {
		assert.InDelta(t, math.Log(siteLik[s]), res.SiteLogLik[s], 1e-9, "site %d", s)
	}
	assert.InDelta(t, floats.Sum(res.SiteLogLik), res.LogLik, 1e-12)
}

func TestMixture_RescalingSharedAcrossCategories(t *testing.T) {
	root, err := tree.Caterpillar(40, 0.5)
	require.NoError(t, err)
	aln := cycling(root, 2)

	ref, err := treelik.NewMixture(root, aln, newM5(t, 2, 4), treelik.WithRescaleEvery(1000))
	require.NoError(t, err)
	got, err := treelik.NewMixture(root, aln, newM5(t, 2, 4), treelik.WithRescaleEvery(2))
	require.NoError(t, err)

	want, err := ref.Result()
	require.NoError(t, err)
	res, err := got.Result()
	require.NoError(t, err)
	assert.InDelta(t, want.LogLik, res.LogLik, 1e-9*math.Abs(want.LogLik))
	for i := range want.Gradient {
		assert.InDelta(t, want.Gradient[i], res.Gradient[i], 1e-7*math.Max(1, math.Abs(want.Gradient[i])))
	}
}
