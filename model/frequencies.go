// SPDX-License-Identifier: MIT

package model

import (
	"fmt"
	"math"

	"github.com/katalvlaran/codonlik/codon"
)

// freqTol is the tolerance for nucleotide frequencies summing to one.
const freqTol = 1e-8

// UniformF3X4 is the F3X4 table with every nucleotide at 0.25.
var UniformF3X4 = [3][4]float64{
	{0.25, 0.25, 0.25, 0.25},
	{0.25, 0.25, 0.25, 0.25},
	{0.25, 0.25, 0.25, 0.25},
}

func checkNucleotideFreqs(f [4]float64) error {
	var sum float64
	for _, v := range f {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("frequency %v: %w", v, ErrBadFrequencies)
		}
		sum += v
	}
	if math.Abs(sum-1) > freqTol {
		return fmt.Errorf("frequencies sum to %v: %w", sum, ErrBadFrequencies)
	}

	return nil
}

// codonFreqsF3X4 returns π_x ∝ Π_p epa[p][nt_p(x)] over sense codons.
func codonFreqsF3X4(epa [3][4]float64) []float64 {
	var (
		pi  = make([]float64, N)
		sum float64
	)
	for x := 0; x < N; x++ {
		pi[x] = epa[0][codon.Nucleotide(x, 0)] * epa[1][codon.Nucleotide(x, 1)] * epa[2][codon.Nucleotide(x, 2)]
		sum += pi[x]
	}
	for x := range pi {
		pi[x] /= sum
	}

	return pi
}

// etaToPhi maps the stick-breaking coordinates eta (3 values in (0,1)) to
// nucleotide frequencies phi:
//
//	phi_0 = 1 − eta_0
//	phi_1 = eta_0 (1 − eta_1)
//	phi_2 = eta_0 eta_1 (1 − eta_2)
//	phi_3 = eta_0 eta_1 eta_2
func etaToPhi(eta []float64) [4]float64 {
	var (
		phi  [4]float64
		prod = 1.0
	)
	for i := 0; i < 3; i++ {
		phi[i] = prod * (1 - eta[i])
		prod *= eta[i]
	}
	phi[3] = prod

	return phi
}

// phiToEta inverts etaToPhi.
func phiToEta(phi [4]float64) []float64 {
	var (
		eta  = make([]float64, 3)
		prod = 1.0
	)
	for i := 0; i < 3; i++ {
		eta[i] = 1 - phi[i]/prod
		prod *= eta[i]
	}

	return eta
}

// dPhiDEta returns d phi_j / d eta_k as a 4×3 table.
func dPhiDEta(eta []float64) [4][3]float64 {
	var (
		d   [4][3]float64
		phi = etaToPhi(eta)
	)
	for j := 0; j < 4; j++ {
		for k := 0; k < 3; k++ {
			switch {
			case k < j:
				// phi_j carries the factor eta_k
				d[j][k] = phi[j] / eta[k]
			case k == j:
				// phi_j = (Π_{i<j} eta_i)(1 − eta_j)
				prefix := 1.0
				for i := 0; i < j; i++ {
					prefix *= eta[i]
				}
				d[j][k] = -prefix
			}
		}
	}

	return d
}

// codonFreqsF1X4 returns π over sense codons from position-independent
// nucleotide frequencies parameterised by eta, together with dπ/dη
// (one row per eta component).
func codonFreqsF1X4(eta []float64) (pi []float64, dpi [][]float64) {
	var (
		phi   = etaToPhi(eta)
		dphi  = dPhiDEta(eta)
		count [N][4]float64
		mean  [4]float64
		sum   float64
		x, j  int
	)
	pi = make([]float64, N)
	for x = 0; x < N; x++ {
		pi[x] = 1
		for p := 0; p < 3; p++ {
			nt := codon.Nucleotide(x, p)
			pi[x] *= phi[nt]
			count[x][nt]++
		}
		sum += pi[x]
	}
	for x = 0; x < N; x++ {
		pi[x] /= sum
		for j = 0; j < 4; j++ {
			mean[j] += pi[x] * count[x][j]
		}
	}

	// dπ_x/dφ_j = π_x (c_j(x) − E_π[c_j]) / φ_j
	dpi = make([][]float64, 3)
	for k := 0; k < 3; k++ {
		dpi[k] = make([]float64, N)
		for x = 0; x < N; x++ {
			var v float64
			for j = 0; j < 4; j++ {
				if dphi[j][k] == 0 {
					continue
				}
				v += pi[x] * (count[x][j] - mean[j]) / phi[j] * dphi[j][k]
			}
			dpi[k][x] = v
		}
	}

	return pi, dpi
}
