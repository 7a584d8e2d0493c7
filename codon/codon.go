// SPDX-License-Identifier: MIT

package codon

const (
	// N is the number of sense codons (64 triplets minus 3 stops).
	N = 61

	// NNucleotide is the number of nucleotide states.
	NNucleotide = 4

	// Gap encodes a fully gapped alignment column at a tip.
	Gap = -1

	// GapToken is the only accepted gap spelling.
	GapToken = "---"
)

// Nucleotides lists the nucleotide letters in index order.
const Nucleotides = "ACGT"

// standardCode is the standard genetic code over TCAG-ordered triplets.
const standardCode = "FFLLSSSSYY**CC*WLLLLPPPPHHQQRRRRIIIMTTTTNNKKSSRRVVVVAAAADDEEGGGG"

var (
	codons  [N]string
	nts     [N][3]int
	aas     [N]byte
	byToken = make(map[string]int, N)
)

func init() {
	var (
		tcag    = "TCAG"
		aaOf    = make(map[string]byte, 64)
		i, j, k int
	)
	for i = 0; i < 4; i++ {
		for j = 0; j < 4; j++ {
			for k = 0; k < 4; k++ {
				aaOf[string([]byte{tcag[i], tcag[j], tcag[k]})] = standardCode[16*i+4*j+k]
			}
		}
	}

	idx := 0
	for i = 0; i < NNucleotide; i++ {
		for j = 0; j < NNucleotide; j++ {
			for k = 0; k < NNucleotide; k++ {
				tok := string([]byte{Nucleotides[i], Nucleotides[j], Nucleotides[k]})
				if aaOf[tok] == '*' {
					continue
				}
				codons[idx] = tok
				nts[idx] = [3]int{i, j, k}
				aas[idx] = aaOf[tok]
				byToken[tok] = idx
				idx++
			}
		}
	}
	if idx != N {
		panic("codon: genetic code table does not yield 61 sense codons")
	}
}

// Index returns the codon index of an upper-case triplet token.
// Stop codons, gaps and malformed tokens report ok=false.
func Index(token string) (int, bool) {
	i, ok := byToken[token]
	return i, ok
}

// IsGap reports whether token is the gap triplet.
func IsGap(token string) bool {
	return token == GapToken
}

// String returns the triplet for codon index i.
func String(i int) string {
	return codons[i]
}

// Nucleotide returns the nucleotide index at position pos (0..2) of codon i.
func Nucleotide(i, pos int) int {
	return nts[i][pos]
}

// AminoAcid returns the one-letter amino acid encoded by codon i.
func AminoAcid(i int) byte {
	return aas[i]
}

// Synonymous reports whether codons x and y encode the same amino acid.
func Synonymous(x, y int) bool {
	return aas[x] == aas[y]
}

// IsTransition reports whether the nucleotide change a->b is a transition
// (purine<->purine or pyrimidine<->pyrimidine).
func IsTransition(a, b int) bool {
	if a == b {
		return false
	}
	// A=0,G=2 are purines; C=1,T=3 are pyrimidines.
	return a%2 == b%2
}

// Differences returns the number of positions at which codons x and y
// differ, and the position of the last difference (-1 when identical).
func Differences(x, y int) (n, pos int) {
	pos = -1
	for p := 0; p < 3; p++ {
		if nts[x][p] != nts[y][p] {
			n++
			pos = p
		}
	}

	return n, pos
}
