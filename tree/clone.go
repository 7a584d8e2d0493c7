// SPDX-License-Identifier: MIT
// File: clone.go
// Role: deep copies of trees.
// Identity:
//   - Clone never shares *Node pointers or Children slices with the source, so
//     branch lengths on the copy can be rescaled without touching the caller.

package tree

// Clone returns a deep copy of the subtree rooted at n. A nil receiver
// returns nil.
//
// Complexity: O(V) time and memory; iterative, so deep trees are safe.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}

	type frame struct {
		src, dst *Node
	}
	var (
		root  = &Node{Name: n.Name, Length: n.Length, HasLength: n.HasLength}
		stack = []frame{{src: n, dst: root}}
		f     frame
		child *Node
	)
	for len(stack) > 0 {
		f = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(f.src.Children) == 0 {
			continue
		}
		f.dst.Children = make([]*Node, len(f.src.Children))
		for i, c := range f.src.Children {
			child = &Node{Name: c.Name, Length: c.Length, HasLength: c.HasLength}
			f.dst.Children[i] = child
			stack = append(stack, frame{src: c, dst: child})
		}
	}

	return root
}

// ScaleLengths divides every assigned branch length below n by factor.
// It mutates n in place; call it on a Clone.
func (n *Node) ScaleLengths(factor float64) {
	_ = Postorder(n, func(v *Node) error {
		if v.HasLength {
			v.Length /= factor
		}
		return nil
	})
}
