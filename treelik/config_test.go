// SPDX-License-Identifier: MIT

package treelik_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/codonlik/model"
	"github.com/katalvlaran/codonlik/treelik"
)

func TestConfig_ParseAndApply(t *testing.T) {
	c, err := treelik.ParseConfig([]byte("rescale_every: 1\nworkers: 3\nbounds_inset: 0.01\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, c.RescaleEvery)
	assert.Equal(t, 3, c.Workers)
	require.NotNil(t, c.BoundsInset)
	assert.Equal(t, 0.01, *c.BoundsInset)

	root := fourTaxon()
	e, err := treelik.New(root, related(root, 2, nil), newM0(t, 2), c.Options()...)
	require.NoError(t, err)
	assert.InDelta(t, 0.02, e.Bounds()[0][0], 1e-15)
	scale, err := e.LogScale()
	require.NoError(t, err)
	assert.Less(t, scale[0], 0.0)
}

func TestConfig_EmptyKeepsDefaults(t *testing.T) {
	c, err := treelik.ParseConfig([]byte("{}"))
	require.NoError(t, err)
	assert.Empty(t, c.Options())

	root := fourTaxon()
	e, err := treelik.New(root, related(root, 2, nil), newM0(t, 2, model.WithKappa(4)), c.Options()...)
	require.NoError(t, err)
	assert.InDelta(t, 0.01+treelik.DefaultBoundsInset, e.Bounds()[0][0], 1e-15)
}

func TestConfig_Invalid(t *testing.T) {
	for _, doc := range []string{
		"rescale_every: -1",
		"workers: -2",
		"bounds_inset: -0.5",
		"workers: [1, 2]",
	} {
		_, err := treelik.ParseConfig([]byte(doc))
		assert.Error(t, err, doc)
	}
}

func TestOptions_PanicOnNonsense(t *testing.T) {
	assert.Panics(t, func() { treelik.WithRescaleEvery(0) })
	assert.Panics(t, func() { treelik.WithWorkers(0) })
	assert.Panics(t, func() { treelik.WithBoundsInset(-1) })
	assert.Panics(t, func() { treelik.WithScheduler(nil) })
}
