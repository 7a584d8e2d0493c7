package tree_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/codonlik/tree"
)

// threeTaxon builds ((A:0.1,B:0.1):0.05,C:0.2).
func threeTaxon() *tree.Node {
	return tree.Root(
		tree.Inner(0.05, tree.Tip("A", 0.1), tree.Tip("B", 0.1)),
		tree.Tip("C", 0.2),
	)
}

func names(nodes []*tree.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

func TestPostorder_ChildrenBeforeParents(t *testing.T) {
	root := threeTaxon()
	root.Name = "root"
	root.Children[0].Name = "AB"

	var order []string
	err := tree.Postorder(root, func(n *tree.Node) error {
		order = append(order, n.Name)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "AB", "C", "root"}, order)
}

func TestPostorder_NilAndShared(t *testing.T) {
	assert.ErrorIs(t, tree.Postorder(nil, func(*tree.Node) error { return nil }), tree.ErrNilTree)

	shared := tree.Tip("X", 1)
	root := tree.Root(shared, shared)
	assert.ErrorIs(t, tree.Postorder(root, func(*tree.Node) error { return nil }), tree.ErrNotTree)
}

func TestPostorder_HookErrorAborts(t *testing.T) {
	stop := errors.New("stop")
	visits := 0
	err := tree.Postorder(threeTaxon(), func(n *tree.Node) error {
		visits++
		if n.Name == "B" {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, visits)
}

func TestClone_IsIndependent(t *testing.T) {
	orig := threeTaxon()
	cp := orig.Clone()
	cp.ScaleLengths(2)

	assert.Equal(t, 0.1, orig.Children[0].Children[0].Length)
	assert.Equal(t, 0.05, cp.Children[0].Children[0].Length)
	assert.Equal(t, 0.025, cp.Children[0].Length)
	assert.False(t, cp.HasLength)
	assert.Equal(t, names(orig.Tips()), names(cp.Tips()))
	assert.NotSame(t, orig.Children[1], cp.Children[1])
	assert.Nil(t, (*tree.Node)(nil).Clone())
}

func TestCount(t *testing.T) {
	ntips, ninternal := threeTaxon().Count()
	assert.Equal(t, 3, ntips)
	assert.Equal(t, 2, ninternal)
}

func TestCaterpillar(t *testing.T) {
	root, err := tree.Caterpillar(5, 0.3)
	require.NoError(t, err)
	assert.Equal(t, []string{"t0", "t1", "t2", "t3", "t4"}, names(root.Tips()))
	ntips, ninternal := root.Count()
	assert.Equal(t, 5, ntips)
	assert.Equal(t, 4, ninternal)
	assert.False(t, root.HasLength)

	pair, err := tree.Caterpillar(2, 0.3)
	require.NoError(t, err)
	assert.False(t, pair.HasLength)
	assert.Len(t, pair.Children, 2)

	_, err = tree.Caterpillar(1, 0.3)
	assert.ErrorIs(t, err, tree.ErrTooFewTips)
	_, err = tree.Caterpillar(4, math.NaN())
	assert.ErrorIs(t, err, tree.ErrBadLength)
}

func TestBalanced(t *testing.T) {
	root, err := tree.Balanced(3, 0.1)
	require.NoError(t, err)
	ntips, ninternal := root.Count()
	assert.Equal(t, 8, ntips)
	assert.Equal(t, 7, ninternal)
	assert.Equal(t, "t7", root.Tips()[7].Name)

	_, err = tree.Balanced(0, 0.1)
	assert.ErrorIs(t, err, tree.ErrTooFewTips)
	_, err = tree.Balanced(2, -1)
	assert.ErrorIs(t, err, tree.ErrBadLength)
}
