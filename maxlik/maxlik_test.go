// SPDX-License-Identifier: MIT

package maxlik_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/codonlik/maxlik"
)

// quadratic has its maximum at center, inside bounds.
type quadratic struct {
	x      []float64
	bounds [][2]float64
	center []float64
	calls  int
	failAt int
}

var errBroken = errors.New("broken target")

func (q *quadratic) Params() []float64     { return append([]float64(nil), q.x...) }
func (q *quadratic) Bounds() [][2]float64 { return q.bounds }

func (q *quadratic) Evaluate(x []float64) (float64, []float64, error) {
	q.calls++
	if q.failAt > 0 && q.calls >= q.failAt {
		return 0, nil, errBroken
	}
	q.x = append(q.x[:0], x...)
	var ll float64
	grad := make([]float64, len(x))
	for i := range x {
		d := x[i] - q.center[i]
		ll -= d * d
		grad[i] = -2 * d
	}
	return ll, grad, nil
}

func newQuadratic() *quadratic {
	return &quadratic{
		x:      []float64{5, 5, -4},
		bounds: [][2]float64{{0, 10}, {1, math.Inf(1)}, {math.Inf(-1), math.Inf(1)}},
		center: []float64{2, 3, 1},
	}
}

func TestMaximize_ConvergesInsideBounds(t *testing.T) {
	q := newQuadratic()
	res, err := maxlik.Maximize(q, maxlik.DefaultConfig())
	require.NoError(t, err)

	assert.InDeltaSlice(t, q.center, res.Params, 1e-4)
	assert.InDelta(t, 0, res.LogLik, 1e-8)
	assert.Positive(t, res.Iterations)
	assert.GreaterOrEqual(t, res.Evaluations, res.Iterations)
	assert.NotEmpty(t, res.Status)

	// the target is left at the optimum
	assert.Equal(t, res.Params, q.Params())
}

func TestMaximize_OptimumBeyondUpperBound(t *testing.T) {
	q := newQuadratic()
	q.center = []float64{12, 3, 1}
	cfg := maxlik.DefaultConfig()
	cfg.GradientThreshold = 1e-8

	res, err := maxlik.Maximize(q, cfg)
	require.NoError(t, err)
	// pushed against the bound but never onto it
	assert.Less(t, res.Params[0], 10.0)
	assert.Greater(t, res.Params[0], 9.9)
	assert.InDelta(t, 3, res.Params[1], 1e-4)
}

func TestMaximize_IterationBudget(t *testing.T) {
	q := newQuadratic()
	cfg := maxlik.DefaultConfig()
	cfg.GradientThreshold = 1e-14
	cfg.MaxIterations = 1

	_, err := maxlik.Maximize(q, cfg)
	require.ErrorIs(t, err, maxlik.ErrNotConverged)
	var f *maxlik.Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, "IterationLimit", f.Status)
	require.Len(t, f.Params, 3)
	for i, b := range q.bounds {
		assert.GreaterOrEqual(t, f.Params[i], b[0])
		assert.LessOrEqual(t, f.Params[i], b[1])
	}
}

func TestMaximize_TargetErrorAborts(t *testing.T) {
	q := newQuadratic()
	q.failAt = 3

	_, err := maxlik.Maximize(q, maxlik.DefaultConfig())
	require.ErrorIs(t, err, errBroken)
	assert.NotErrorIs(t, err, maxlik.ErrNotConverged)
}

func TestMaximize_InputErrors(t *testing.T) {
	q := newQuadratic()
	q.bounds = q.bounds[:2]
	_, err := maxlik.Maximize(q, maxlik.DefaultConfig())
	require.ErrorIs(t, err, maxlik.ErrDimension)

	q = newQuadratic()
	q.bounds[1] = [2]float64{2, 2}
	_, err = maxlik.Maximize(q, maxlik.DefaultConfig())
	require.ErrorIs(t, err, maxlik.ErrBounds)

	cfg := maxlik.DefaultConfig()
	cfg.MaxIterations = -1
	_, err = maxlik.Maximize(newQuadratic(), cfg)
	require.Error(t, err)
}

func TestConfig_Parse(t *testing.T) {
	c, err := maxlik.ParseConfig([]byte("max_iterations: 50\nlbfgs_store: 5\n"))
	require.NoError(t, err)
	assert.Equal(t, 50, c.MaxIterations)
	assert.Equal(t, 5, c.LBFGSStore)
	assert.Equal(t, maxlik.DefaultGradientThreshold, c.GradientThreshold)
	assert.Equal(t, maxlik.DefaultFunctionTolerance, c.FunctionTolerance)

	for _, doc := range []string{
		"gradient_threshold: -1",
		"function_tolerance: .nan",
		"func_evaluations: -3",
		"max_iterations: [1]",
	} {
		_, err := maxlik.ParseConfig([]byte(doc))
		assert.Error(t, err, doc)
	}
}
