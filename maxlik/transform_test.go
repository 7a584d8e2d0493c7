// SPDX-License-Identifier: MIT

package maxlik

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransform_SaturatedStaysInside(t *testing.T) {
	cases := []struct {
		name   string
		bounds [2]float64
	}{
		{"two-sided", [2]float64{0, 10}},
		{"lower", [2]float64{1, math.Inf(1)}},
		{"upper", [2]float64{math.Inf(-1), -2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := newTransform(tc.bounds)
			for _, u := range []float64{-1e4, -800, -40, 0, 40, 800, 1e4} {
				x := tr.x(u)
				assert.False(t, math.IsInf(x, 0) || math.IsNaN(x), "u=%v", u)
				assert.Greater(t, x, tc.bounds[0], "u=%v", u)
				assert.Less(t, x, tc.bounds[1], "u=%v", u)
			}
		})
	}
}

func TestTransform_RoundTripAndDerivative(t *testing.T) {
	const h = 1e-6
	for _, b := range [][2]float64{{0, 10}, {1, math.Inf(1)}, {math.Inf(-1), -2}, {math.Inf(-1), math.Inf(1)}} {
		tr := newTransform(b)
		for _, x := range []float64{-5, -3, 1.5, 2, 7} {
			if x <= b[0] || x >= b[1] {
				continue
			}
			u := tr.u(x)
			assert.InDelta(t, x, tr.x(u), 1e-9, "bounds %v x=%v", b, x)
			fd := (tr.x(u+h) - tr.x(u-h)) / (2 * h)
			assert.InDelta(t, fd, tr.dx(u), 1e-6*math.Max(1, math.Abs(fd)), "bounds %v x=%v", b, x)
		}
	}
}

func TestTransform_StartOnBoundIsPulledInside(t *testing.T) {
	tr := newTransform([2]float64{0, 10})
	assert.Less(t, tr.x(tr.u(10)), 10.0)
	assert.Greater(t, tr.x(tr.u(0)), 0.0)
}
