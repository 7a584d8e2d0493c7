// SPDX-License-Identifier: MIT

package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"
)

// alphaStep is the relative step of the central difference used for the
// derivative of category means with respect to the gamma shape.
const alphaStep = 1e-5

// DiscreteGamma splits Gamma(alpha, beta) (shape, rate) into ncats
// equiprobable categories and returns the mean of each category:
//
//	mean_k = (α/β)·n·[P(α+1, β·b_{k+1}) − P(α+1, β·b_k)]
//
// where b_k is the k/n quantile and P the regularised lower incomplete gamma.
// The category means always average to α/β.
func DiscreteGamma(alpha, beta float64, ncats int) ([]float64, error) {
	if ncats < 1 {
		return nil, fmt.Errorf("DiscreteGamma: ncats=%d: %w", ncats, ErrBadCategories)
	}
	if !(alpha > 0) || !(beta > 0) || math.IsInf(alpha, 0) || math.IsInf(beta, 0) {
		return nil, fmt.Errorf("DiscreteGamma: alpha=%v beta=%v: %w", alpha, beta, ErrParamLimits)
	}
	if ncats == 1 {
		return []float64{alpha / beta}, nil
	}

	var (
		g     = distuv.Gamma{Alpha: alpha, Beta: beta}
		means = make([]float64, ncats)
		n     = float64(ncats)
		lower = 0.0 // P(α+1, β·b_k)
		upper float64
	)
	for k := 0; k < ncats; k++ {
		if k == ncats-1 {
			upper = 1
		} else {
			upper = mathext.GammaIncReg(alpha+1, beta*g.Quantile(float64(k+1)/n))
		}
		means[k] = alpha / beta * n * (upper - lower)
		lower = upper
	}

	return means, nil
}

// dDiscreteGamma returns the derivatives of the category means with respect
// to alpha and beta. Means scale exactly as 1/β; the alpha derivative is a
// central difference.
func dDiscreteGamma(alpha, beta float64, means []float64) (dalpha, dbeta []float64, err error) {
	ncats := len(means)
	dbeta = make([]float64, ncats)
	for k, m := range means {
		dbeta[k] = -m / beta
	}

	h := alphaStep * math.Max(1, alpha)
	hi, err := DiscreteGamma(alpha+h, beta, ncats)
	if err != nil {
		return nil, nil, err
	}
	lo, err := DiscreteGamma(alpha-h, beta, ncats)
	if err != nil {
		return nil, nil, err
	}
	dalpha = make([]float64, ncats)
	for k := range dalpha {
		dalpha[k] = (hi[k] - lo[k]) / (2 * h)
	}

	return dalpha, dbeta, nil
}
