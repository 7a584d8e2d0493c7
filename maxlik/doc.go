// SPDX-License-Identifier: MIT

// Package maxlik maximises a bounded log-likelihood with L-BFGS.
//
// The optimizer works on an unconstrained copy of the parameters:
//
//	lo < x < hi   x = lo + (hi-lo)/(1+e^-u)
//	lo < x        x = lo + e^u
//	x < hi        x = hi - e^u
//	unbounded     x = u
//
// and minimises -loglik(x(u)) with gonum's optimize.LBFGS, turning the target
// gradient into du space by the chain rule. Any Target works; a
// *treelik.Engine is the usual one.
package maxlik
