// SPDX-License-Identifier: MIT

package treelik_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/codonlik/codon"
	"github.com/katalvlaran/codonlik/model"
	"github.com/katalvlaran/codonlik/tree"
	"github.com/katalvlaran/codonlik/treelik"
)

func TestEngine_ThreeTaxonMatchesDirectComputation(t *testing.T) {
	for _, tc := range []struct {
		name    string
		a, b, c string
	}{
		{"identical", "AAA", "AAA", "AAA"},
		{"one change", "AAA", "AAG", "AAA"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m := newM0(t, 1, model.WithKappa(3), model.WithOmega(0.3))
			aln := []treelik.Sequence{{Name: "A", Seq: tc.a}, {Name: "B", Seq: tc.b}, {Name: "C", Seq: tc.c}}
			e, err := treelik.New(threeTaxon(), aln, m)
			require.NoError(t, err)
			res, err := e.Result()
			require.NoError(t, err)

			// Σ_x π_x M_AB[x][y] M_A[y][a] M_B[y][b] M_C[x][c], lengths in model time
			obs := func(s string) int { i, ok := codon.Index(s); require.True(t, ok); return i }
			a, b, c := obs(tc.a), obs(tc.b), obs(tc.c)
			scale := m.BranchScale()
			expm := func(length float64) *mat.Dense {
				tr, err := m.M(length / scale)
				require.NoError(t, err)
				return tr.Shared
			}
			mA, mB, mAB, mC := expm(0.1), expm(0.1), expm(0.05), expm(0.2)
			pi := m.Stationary()
			var want float64
			for x := 0; x < model.N; x++ {
				var inner float64
				for y := 0; y < model.N; y++ {
					inner += mAB.At(x, y) * mA.At(y, a) * mB.At(y, b)
				}
				want += pi[x] * inner * mC.At(x, c)
			}

			assert.InDelta(t, math.Log(want), res.LogLik, 1e-10)
			assert.Equal(t, res.LogLik, res.SiteLogLik[0])
		})
	}
}

func TestEngine_SingleTip(t *testing.T) {
	root := &tree.Node{Name: "A"}
	m := newM0(t, 2)
	e, err := treelik.New(root, []treelik.Sequence{{Name: "A", Seq: "---AAA"}}, m)
	require.NoError(t, err)
	res, err := e.Result()
	require.NoError(t, err)

	// gap: log Σ_x π_x = 0; observed codon: log π_AAA
	aaa, _ := codon.Index("AAA")
	assert.InDelta(t, 0, res.SiteLogLik[0], 1e-12)
	assert.InDelta(t, math.Log(m.Stationary()[aaa]), res.SiteLogLik[1], 1e-12)
	assert.InDelta(t, -math.Log(codon.N), res.LogLik, 1e-12)
	for _, g := range res.Gradient {
		assert.Equal(t, 0.0, g)
	}
}

func TestEngine_SingleTipGradientThroughStationary(t *testing.T) {
	root := &tree.Node{Name: "A"}
	e, err := treelik.New(root, []treelik.Sequence{{Name: "A", Seq: "ACGTTT---"}}, newM0(t, 3, model.WithFreeEta(testPhi)))
	require.NoError(t, err)
	checkGradient(t, e)
}

func TestEngine_GradientMatchesFiniteDifference(t *testing.T) {
	gaps := func(i, r int) bool { return (i+r)%5 == 0 }
	cases := []struct {
		name string
		opts []model.Option
	}{
		{"fixed frequencies", []model.Option{model.WithKappa(2.5), model.WithOmega(0.4)}},
		{"free eta", []model.Option{model.WithFreeEta(testPhi), model.WithMu(1.3)}},
		{"site rates", []model.Option{model.WithSiteRates([]float64{1, 0.5, 2, 1, 3, 0.5})}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			root := fourTaxon()
			e, err := treelik.New(root, related(root, 6, gaps), newM0(t, 6, tc.opts...))
			require.NoError(t, err)
			checkGradient(t, e)
		})
	}
}

func TestEngine_RescaleFrequencyInvariance(t *testing.T) {
	root, err := tree.Balanced(3, 0.2)
	require.NoError(t, err)
	aln := related(root, 4, nil)

	ref, err := treelik.New(root, aln, newM0(t, 4, model.WithFreeEta(testPhi)), treelik.WithRescaleEvery(1000))
	require.NoError(t, err)
	want, err := ref.Result()
	require.NoError(t, err)
	scale, err := ref.LogScale()
	require.NoError(t, err)
	assert.Equal(t, make([]float64, 4), scale)

	for _, every := range []int{1, 2, 3, 5} {
		e, err := treelik.New(root, aln, newM0(t, 4, model.WithFreeEta(testPhi)), treelik.WithRescaleEvery(every))
		require.NoError(t, err)
		got, err := e.Result()
		require.NoError(t, err)

		assert.InDelta(t, want.LogLik, got.LogLik, 1e-9*math.Abs(want.LogLik), "every=%d", every)
		for r := range want.SiteLogLik {
			assert.InDelta(t, want.SiteLogLik[r], got.SiteLogLik[r], 1e-9, "every=%d site %d", every, r)
		}
		for i := range want.Gradient {
			assert.InDelta(t, want.Gradient[i], got.Gradient[i], 1e-8*math.Max(1, math.Abs(want.Gradient[i])), "every=%d slot %d", every, i)
		}

		scale, err := e.LogScale()
		require.NoError(t, err)
		assert.Less(t, floats.Min(scale), 0.0, "every=%d", every)

		// loglik = Σ_r log(Σ_x π_x L_root[r][x]) + logScale[r]
		lroot, err := e.RootPartial(0)
		require.NoError(t, err)
		pi := newM0(t, 4, model.WithFreeEta(testPhi)).Stationary()
		var sum float64
		for r := 0; r < 4; r++ {
			sum += math.Log(floats.Dot(pi, lroot.RawRowView(r))) + scale[r]
		}
		assert.InDelta(t, got.LogLik, sum, 1e-9*math.Abs(sum))
	}
}

func TestEngine_DeepCaterpillarNeedsRescaling(t *testing.T) {
	root, err := tree.Caterpillar(200, 50)
	require.NoError(t, err)
	aln := cycling(root, 3)

	e, err := treelik.New(root, aln, newM0(t, 3))
	require.NoError(t, err)
	res, err := e.Result()
	require.NoError(t, err)
	assert.False(t, math.IsInf(res.LogLik, 0) || math.IsNaN(res.LogLik))
	assert.Less(t, res.LogLik, 0.0)

	_, err = treelik.New(root, aln, newM0(t, 3), treelik.WithRescaleEvery(10000))
	require.ErrorIs(t, err, treelik.ErrNumeric)
	require.ErrorIs(t, err, treelik.ErrUnderflow)
	var ne *treelik.NumericError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, "likelihood", ne.Pass)
}

func TestEngine_ZeroBranchesBetweenDifferentCodonsFail(t *testing.T) {
	root := tree.Root(tree.Tip("A", 0), tree.Tip("B", 0))
	_, err := treelik.New(root, []treelik.Sequence{{Name: "A", Seq: "AAA"}, {Name: "B", Seq: "CCC"}}, newM0(t, 1))
	require.ErrorIs(t, err, treelik.ErrNumeric)
	require.ErrorIs(t, err, treelik.ErrUnderflow)
}

func TestEngine_ParallelMatchesSequential(t *testing.T) {
	root, err := tree.Balanced(3, 0.15)
	require.NoError(t, err)
	aln := related(root, 5, func(i, r int) bool { return i == r })

	par, err := treelik.NewMixture(root, aln, newM5(t, 5, 3, model.WithFreeEta(testPhi)), treelik.WithWorkers(4))
	require.NoError(t, err)
	seqMix, err := treelik.NewMixture(root, aln, newM5(t, 5, 3, model.WithFreeEta(testPhi)), treelik.WithScheduler(treelik.Sequential{}))
	require.NoError(t, err)

	want, err := seqMix.Result()
	require.NoError(t, err)
	got, err := par.Result()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
