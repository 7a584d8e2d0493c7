// SPDX-License-Identifier: MIT

// Package codonlik computes phylogenetic log-likelihoods of codon alignments
// and their analytic gradients, for maximum-likelihood fitting of codon
// substitution models.
//
// The module is split by concern:
//
//	codon    the 61 sense codons, their nucleotides and amino acids
//	tree     rooted trees: construction, traversal, Newick, cloning
//	model    YNGKP M0 and the gamma-distributed omega mixture M5, with
//	         transition matrices and their parameter derivatives
//	treelik  the pruning engine: tree indexing, rescaled likelihood pass,
//	         derivative pass, parameter vector, metrics and scheduling
//	maxlik   bounded L-BFGS maximisation over any engine-like target
//
// A typical fit:
//
//	m, _ := model.NewYNGKPM0(nsites)
//	e, _ := treelik.New(root, aln, m, treelik.WithWorkers(4))
//	res, err := maxlik.Maximize(e, maxlik.DefaultConfig())
package codonlik
