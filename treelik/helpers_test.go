// SPDX-License-Identifier: MIT

package treelik_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/codonlik/codon"
	"github.com/katalvlaran/codonlik/model"
	"github.com/katalvlaran/codonlik/tree"
	"github.com/katalvlaran/codonlik/treelik"
)

// threeTaxon builds ((A:0.1,B:0.1):0.05,C:0.2).
func threeTaxon() *tree.Node {
	return tree.Root(
		tree.Inner(0.05, tree.Tip("A", 0.1), tree.Tip("B", 0.1)),
		tree.Tip("C", 0.2),
	)
}

// fourTaxon builds ((t0:0.1,t1:0.2):0.05,(t2:0.15,t3:0.3):0.1).
func fourTaxon() *tree.Node {
	return tree.Root(
		tree.Inner(0.05, tree.Tip("t0", 0.1), tree.Tip("t1", 0.2)),
		tree.Inner(0.1, tree.Tip("t2", 0.15), tree.Tip("t3", 0.3)),
	)
}

// related builds an alignment for root where tip i at site r carries a codon
// close to a per-site ancestor, with a gap wherever gapAt(i, r) holds.
func related(root *tree.Node, nsites int, gapAt func(i, r int) bool) []treelik.Sequence {
	var aln []treelik.Sequence
	for i, tip := range root.Tips() {
		seq := make([]byte, 0, 3*nsites)
		for r := 0; r < nsites; r++ {
			if gapAt != nil && gapAt(i, r) {
				seq = append(seq, codon.GapToken...)
				continue
			}
			// neighbouring indices mostly differ at the third position
			seq = append(seq, codon.String((11*r+i%3)%codon.N)...)
		}
		aln = append(aln, treelik.Sequence{Name: tip.Name, Seq: string(seq)})
	}
	return aln
}

// cycling gives tip i the codon i mod 61 at every site.
func cycling(root *tree.Node, nsites int) []treelik.Sequence {
	var aln []treelik.Sequence
	for i, tip := range root.Tips() {
		var seq []byte
		for r := 0; r < nsites; r++ {
			seq = append(seq, codon.String((i+r)%codon.N)...)
		}
		aln = append(aln, treelik.Sequence{Name: tip.Name, Seq: string(seq)})
	}
	return aln
}

var testPhi = [4]float64{0.2, 0.3, 0.3, 0.2}

func newM0(t testing.TB, nsites int, opts ...model.Option) *model.YNGKPM0 {
	t.Helper()
	m, err := model.NewYNGKPM0(nsites, opts...)
	require.NoError(t, err)
	return m
}

func newM5(t testing.TB, nsites, ncats int, opts ...model.Option) *model.YNGKPM5 {
	t.Helper()
	m, err := model.NewYNGKPM5(nsites, ncats, opts...)
	require.NoError(t, err)
	return m
}

// checkGradient compares every gradient slot with a central difference of
// the log-likelihood, to 1e-3 relative.
func checkGradient(t *testing.T, e *treelik.Engine) {
	t.Helper()
	const h = 1e-5
	x := e.Params()
	_, grad, err := e.Evaluate(x)
	require.NoError(t, err)
	names := e.SlotNames()

	for i := range x {
		hi := append([]float64(nil), x...)
		lo := append([]float64(nil), x...)
		hi[i] += h
		lo[i] -= h
		fhi, _, err := e.Evaluate(hi)
		require.NoError(t, err)
		flo, _, err := e.Evaluate(lo)
		require.NoError(t, err)

		fd := (fhi - flo) / (2 * h)
		require.InDelta(t, fd, grad[i], 1e-3*math.Max(1, math.Abs(fd)), "slot %s", names[i])
	}
	_, _, err = e.Evaluate(x)
	require.NoError(t, err)
}
