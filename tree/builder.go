// SPDX-License-Identifier: MIT
// File: builder.go
// Role: deterministic fixture topologies.
//
// Contract:
//   - Tips are named "t0", "t1", ... in left-to-right order.
//   - Every non-root node receives the same branch length.
//   - Invalid parameters return sentinel errors; builders never panic.

package tree

import (
	"fmt"
	"math"
	"strconv"
)

const (
	methodCaterpillar = "Caterpillar"
	methodBalanced    = "Balanced"
	minCaterpillar    = 2
	minBalancedDepth  = 1
)

// TipName returns the fixture name of the i-th tip.
func TipName(i int) string {
	return "t" + strconv.Itoa(i)
}

// Caterpillar builds the maximally unbalanced tree (((t0,t1),t2),...,tn-1).
// Its depth grows linearly with ntips, which makes it the worst case for
// numerical underflow in pruning.
func Caterpillar(ntips int, length float64) (*Node, error) {
	if ntips < minCaterpillar {
		return nil, fmt.Errorf("%s: ntips=%d < min=%d: %w", methodCaterpillar, ntips, minCaterpillar, ErrTooFewTips)
	}
	if err := checkLength(length); err != nil {
		return nil, fmt.Errorf("%s: %w", methodCaterpillar, err)
	}

	var clade = Inner(length, Tip(TipName(0), length), Tip(TipName(1), length))
	for i := 2; i < ntips; i++ {
		if i == ntips-1 {
			return Root(clade, Tip(TipName(i), length)), nil
		}
		clade = Inner(length, clade, Tip(TipName(i), length))
	}

	// ntips == 2: the first cherry is the root
	clade.HasLength = false
	clade.Length = 0

	return clade, nil
}

// Balanced builds a perfectly balanced tree with 2^depth tips.
func Balanced(depth int, length float64) (*Node, error) {
	if depth < minBalancedDepth {
		return nil, fmt.Errorf("%s: depth=%d < min=%d: %w", methodBalanced, depth, minBalancedDepth, ErrTooFewTips)
	}
	if err := checkLength(length); err != nil {
		return nil, fmt.Errorf("%s: %w", methodBalanced, err)
	}

	// build level by level from the tips upward
	var (
		level = make([]*Node, 1<<depth)
		i     int
	)
	for i = range level {
		level[i] = Tip(TipName(i), length)
	}
	for len(level) > 2 {
		next := make([]*Node, len(level)/2)
		for i = range next {
			next[i] = Inner(length, level[2*i], level[2*i+1])
		}
		level = next
	}

	return Root(level[0], level[1]), nil
}

func checkLength(length float64) error {
	if length < 0 || math.IsNaN(length) || math.IsInf(length, 0) {
		return fmt.Errorf("length=%v: %w", length, ErrBadLength)
	}

	return nil
}
