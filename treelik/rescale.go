// SPDX-License-Identifier: MIT

package treelik

import (
	"math"
)

// rescale checks the partial likelihoods of internal node n in every
// category and, when due, divides them by the per-site maximum over states
// and categories. The same factor is later applied to every derivative of
// the node, and log(factor) is added to the site's log-scale.
//
// A site is rejected with ErrNonFinite for any NaN or Inf entry and with
// ErrUnderflow when its maximum is below the smallest normal float64.
func (e *Engine) rescale(p *pass, n int, due bool) error {
	var (
		o      = n - e.it.NTips()
		nsites = e.it.NSites()
		scale  []float64
	)
	if due {
		scale = make([]float64, nsites)
	}
	for r := 0; r < nsites; r++ {
		var peak float64
		for k := range p.l {
			for _, v := range p.l[k][o].RawRowView(r) {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return &NumericError{Pass: "likelihood", Node: n, Site: r, Err: ErrNonFinite}
				}
				if v > peak {
					peak = v
				}
			}
		}
		if peak < minNormal {
			return &NumericError{Pass: "likelihood", Node: n, Site: r, Err: ErrUnderflow}
		}
		if !due {
			continue
		}
		scale[r] = peak
		for k := range p.l {
			divideRow(p.l[k][o].RawRowView(r), peak)
		}
		p.logScale[r] += math.Log(peak)
	}
	if due {
		p.scale[o] = scale
		p.nrescaled++
	}
	return nil
}

func divideRow(row []float64, s float64) {
	for x := range row {
		row[x] /= s
	}
}
