// SPDX-License-Identifier: MIT

// Package treelik evaluates the log-likelihood of aligned codon sequences on
// a fixed rooted bifurcating tree, together with its analytic gradient with
// respect to every free model parameter.
//
// Construction flattens the tree and alignment once (Index). Every call to
// Engine.Update then runs:
//
//  1. the likelihood pass: Felsenstein pruning over internal nodes in index
//     order, L[n] = (M_r·L_r) ⊙ (M_l·L_l), with periodic underflow rescaling;
//  2. the derivative pass: one independent task per free parameter that
//     carries dL alongside the stored pass by the product rule, scheduled
//     sequentially or on a worker pool;
//  3. the root combination with the stationary distribution and, for
//     mixtures, the category weights.
//
// Numeric failures are never masked: a NaN, an Inf or a vanished site
// likelihood aborts the recomputation with a *NumericError matching
// ErrNumeric.
//
// Models come from package model. A plain model.Model is wrapped by New; a
// model.MixtureModel by NewMixture, which carries a category axis through L
// and dL and applies the chain rule for distribution parameters.
package treelik
