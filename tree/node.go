// SPDX-License-Identifier: MIT

package tree

import "errors"

var (
	// ErrNilTree is returned when a nil root is passed to a traversal.
	ErrNilTree = errors.New("tree: root is nil")

	// ErrNotTree indicates that a node was reached twice, so the structure is
	// not a tree (shared subtree or cycle).
	ErrNotTree = errors.New("tree: node reachable along more than one path")

	// ErrTooFewTips is returned by fixture builders asked for fewer tips than
	// the topology needs.
	ErrTooFewTips = errors.New("tree: too few tips")

	// ErrBadLength is returned by fixture builders for a negative or
	// non-finite branch length.
	ErrBadLength = errors.New("tree: invalid branch length")
)

// Node is one vertex of a rooted tree. Terminal nodes have no children and
// carry the sequence name; internal node names are informational only.
type Node struct {
	// Name identifies a tip; it must match an alignment header.
	Name string

	// Length is the length of the branch leading to this node. It is only
	// meaningful when HasLength is true.
	Length float64

	// HasLength is false for the root and for nodes whose branch length was
	// never assigned.
	HasLength bool

	// Children lists descendants in left-to-right order.
	Children []*Node
}

// Tip returns a terminal node with the given name and branch length.
func Tip(name string, length float64) *Node {
	return &Node{Name: name, Length: length, HasLength: true}
}

// Inner returns an internal node with the given branch length and children.
func Inner(length float64, children ...*Node) *Node {
	return &Node{Length: length, HasLength: true, Children: children}
}

// Root returns a root node (no incoming branch) with the given children.
func Root(children ...*Node) *Node {
	return &Node{Children: children}
}

// IsTip reports whether n has no children.
func (n *Node) IsTip() bool {
	return len(n.Children) == 0
}

// Tips returns the terminal nodes below n in left-to-right order.
func (n *Node) Tips() []*Node {
	var tips []*Node
	_ = Postorder(n, func(v *Node) error {
		if v.IsTip() {
			tips = append(tips, v)
		}
		return nil
	})

	return tips
}

// Count returns the number of tips and internal nodes below and including n.
func (n *Node) Count() (ntips, ninternal int) {
	_ = Postorder(n, func(v *Node) error {
		if v.IsTip() {
			ntips++
		} else {
			ninternal++
		}
		return nil
	})

	return ntips, ninternal
}
