// SPDX-License-Identifier: MIT
// File: indexer.go
// Role: validate a caller's tree and alignment and flatten them into the
// integer-indexed form the passes work on.
// Determinism:
//   - Tips are numbered in postorder encounter order, internal nodes after them
//     in postorder; the root is always the last index.
// Errors:
//   - Every failure wraps ErrStructure together with a specific sentinel.
// Complexity:
//   - O(nodes + tips · sites) time and memory; the walk is iterative, so deep
//     caterpillars do not grow the goroutine stack.

package treelik

import (
	"errors"
	"math"

	"github.com/katalvlaran/codonlik/codon"
	"github.com/katalvlaran/codonlik/tree"
)

const methodIndex = "Index"

// Sequence is one aligned codon sequence.
type Sequence struct {
	Name string
	Seq  string
}

// IndexedTree is the flat, immutable form of a rooted bifurcating tree and
// its alignment.
//
// Numbering:
//   - tips occupy [0, NTips()) in postorder encounter order;
//   - internal nodes occupy [NTips(), NNodes()) in postorder;
//   - both children of an internal node have smaller indices, so increasing
//     index order is a valid postorder and the root is NNodes()-1.
type IndexedTree struct {
	ntips    int
	nnodes   int
	nsites   int
	names    []string  // tip names by tip index
	rdescend []int     // by internal offset n-ntips
	ldescend []int     // by internal offset n-ntips
	t        []float64 // incoming branch length in model time, by node
	tips     [][]int   // codon index or codon.Gap, by tip then site
	gaps     [][]int   // gap sites, by tip
	work     *tree.Node
}

// Index flattens root and aln. Branch lengths are divided by branchScale
// (use 1 when the tree is already in model time). The caller's tree is not
// modified.
func Index(root *tree.Node, aln []Sequence, branchScale float64) (*IndexedTree, error) {
	if !(branchScale > 0) || math.IsInf(branchScale, 0) {
		return nil, structural(methodIndex, ErrBranchScale, "branch scale %v", branchScale)
	}

	// Stage 1: validate structure on the caller's tree (also rejects cycles,
	// which Clone could not survive).
	var (
		tipNames = make(map[string]struct{})
		err      error
	)
	err = tree.Postorder(root, func(n *tree.Node) error {
		if n != root && (!n.HasLength || math.IsNaN(n.Length) || math.IsInf(n.Length, 0) || n.Length < 0) {
			return structural(methodIndex, ErrMissingBranchLength, "node %q length %v", n.Name, n.Length)
		}
		if n.IsTip() {
			if _, dup := tipNames[n.Name]; dup {
				return structural(methodIndex, ErrNameMismatch, "duplicate tip %q", n.Name)
			}
			tipNames[n.Name] = struct{}{}
			return nil
		}
		if len(n.Children) != 2 || n.Children[0] == nil || n.Children[1] == nil {
			return structural(methodIndex, ErrNotBifurcating, "node %q has %d children", n.Name, len(n.Children))
		}
		return nil
	})
	switch {
	case errors.Is(err, tree.ErrNilTree):
		return nil, structural(methodIndex, ErrNotBifurcating, "nil root")
	case errors.Is(err, tree.ErrNotTree):
		return nil, structural(methodIndex, ErrNotBifurcating, "%v", err)
	case err != nil:
		return nil, err
	}

	// Stage 2: alignment.
	seqs, nsites, err := encodeAlignment(aln, tipNames)
	if err != nil {
		return nil, err
	}

	// Stage 3: number a working copy in model time.
	work := root.Clone()
	work.ScaleLengths(branchScale)
	var (
		tips     []*tree.Node
		internal []*tree.Node
	)
	_ = tree.Postorder(work, func(n *tree.Node) error {
		if n.IsTip() {
			tips = append(tips, n)
		} else {
			internal = append(internal, n)
		}
		return nil
	})

	it := &IndexedTree{
		ntips:    len(tips),
		nnodes:   len(tips) + len(internal),
		nsites:   nsites,
		names:    make([]string, len(tips)),
		rdescend: make([]int, len(internal)),
		ldescend: make([]int, len(internal)),
		t:        make([]float64, len(tips)+len(internal)),
		tips:     make([][]int, len(tips)),
		gaps:     make([][]int, len(tips)),
		work:     work,
	}
	index := make(map[*tree.Node]int, it.nnodes)
	for i, n := range tips {
		index[n] = i
		it.names[i] = n.Name
		it.t[i] = n.Length
		it.tips[i] = seqs[n.Name]
		for r, c := range it.tips[i] {
			if c == codon.Gap {
				it.gaps[i] = append(it.gaps[i], r)
			}
		}
	}
	for j, n := range internal {
		g := it.ntips + j
		index[n] = g
		if n != work {
			it.t[g] = n.Length
		}
		// children were visited earlier, so they are already numbered
		it.ldescend[j] = index[n.Children[0]]
		it.rdescend[j] = index[n.Children[1]]
	}
	if len(internal) == 0 {
		// single-tip tree: the root is the tip and has no branch
		it.t[0] = 0
	}

	return it, nil
}

// encodeAlignment maps every sequence to codon indices and checks that the
// headers match names exactly.
func encodeAlignment(aln []Sequence, names map[string]struct{}) (map[string][]int, int, error) {
	if len(aln) == 0 {
		return nil, 0, structural(methodIndex, ErrEmptyAlignment, "no sequences")
	}
	var (
		out    = make(map[string][]int, len(aln))
		seqLen = len(aln[0].Seq)
	)
	if seqLen == 0 {
		return nil, 0, structural(methodIndex, ErrEmptyAlignment, "no sites")
	}
	for _, s := range aln {
		if len(s.Seq) != seqLen || len(s.Seq)%3 != 0 {
			return nil, 0, structural(methodIndex, ErrSequenceLength, "%q has length %d, want %d (multiple of 3)", s.Name, len(s.Seq), seqLen)
		}
		if _, dup := out[s.Name]; dup {
			return nil, 0, structural(methodIndex, ErrNameMismatch, "duplicate sequence %q", s.Name)
		}
		if _, ok := names[s.Name]; !ok {
			return nil, 0, structural(methodIndex, ErrNameMismatch, "sequence %q is not a tip", s.Name)
		}
		enc := make([]int, seqLen/3)
		for r := range enc {
			tok := s.Seq[3*r : 3*r+3]
			if codon.IsGap(tok) {
				enc[r] = codon.Gap
				continue
			}
			c, ok := codon.Index(tok)
			if !ok {
				return nil, 0, structural(methodIndex, ErrBadCodon, "%q site %d token %q", s.Name, r, tok)
			}
			enc[r] = c
		}
		out[s.Name] = enc
	}
	if len(out) != len(names) {
		return nil, 0, structural(methodIndex, ErrNameMismatch, "%d tips, %d sequences", len(names), len(out))
	}

	return out, seqLen / 3, nil
}

// NTips returns the number of tips.
func (it *IndexedTree) NTips() int { return it.ntips }

// NNodes returns the number of tips plus internal nodes.
func (it *IndexedTree) NNodes() int { return it.nnodes }

// NInternal returns the number of internal nodes.
func (it *IndexedTree) NInternal() int { return it.nnodes - it.ntips }

// NSites returns the number of codon sites.
func (it *IndexedTree) NSites() int { return it.nsites }

// Root returns the index of the root.
func (it *IndexedTree) Root() int { return it.nnodes - 1 }

// Children returns the right and left child of internal node n.
func (it *IndexedTree) Children(n int) (right, left int) {
	return it.rdescend[n-it.ntips], it.ldescend[n-it.ntips]
}

// Length returns the model-time length of the branch leading to node n.
// The root has length 0.
func (it *IndexedTree) Length(n int) float64 { return it.t[n] }

// TipName returns the name of tip n.
func (it *IndexedTree) TipName(n int) string { return it.names[n] }

// Codon returns the codon index at tip n and site r, or codon.Gap.
func (it *IndexedTree) Codon(n, r int) int { return it.tips[n][r] }

// Gaps returns a copy of the gap sites of tip n.
func (it *IndexedTree) Gaps(n int) []int { return append([]int(nil), it.gaps[n]...) }

// Tree returns a copy of the working tree with branch lengths in model time.
func (it *IndexedTree) Tree() *tree.Node { return it.work.Clone() }
