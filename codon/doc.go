// SPDX-License-Identifier: MIT

// Package codon defines the 61-state sense-codon alphabet used by the
// likelihood engine, together with the nucleotide and genetic-code helpers
// that substitution models need.
//
// Indexing:
//
//	Nucleotides: A=0, C=1, G=2, T=3.
//	Codons:      the 64 triplets in lexicographic ACGT order with the stop
//	             codons TAA, TAG and TGA removed, giving indices 0..60.
//
// Alignment tokens are upper-case triplets. The token "---" is a gap and is
// encoded as Gap; every other token that is not a sense codon is invalid.
package codon
