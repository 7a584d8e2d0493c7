// SPDX-License-Identifier: MIT

package tree

// VisitFunc is called once per node. Returning an error aborts the walk and
// the error is returned unchanged by the walker.
type VisitFunc func(n *Node) error

// Postorder walks the tree rooted at root, calling visit on every node after
// all of its children, children taken left to right.
//
// The walk is iterative (explicit stack) so caterpillar trees with thousands
// of tips do not grow the goroutine stack. Every node is tracked, which lets
// the walker reject structures where a node is reachable twice.
//
// Errors:
//   - ErrNilTree if root is nil.
//   - ErrNotTree if a node is encountered a second time.
//   - any error returned by visit.
//
// Complexity: O(V) time, O(V) memory.
func Postorder(root *Node, visit VisitFunc) error {
	if root == nil {
		return ErrNilTree
	}

	type frame struct {
		node *Node
		next int // index of the next child to descend into
	}
	var (
		seen  = map[*Node]struct{}{root: {}}
		stack = []frame{{node: root}}
		top   *frame
		child *Node
		err   error
	)
	for len(stack) > 0 {
		top = &stack[len(stack)-1]
		if top.next < len(top.node.Children) {
			child = top.node.Children[top.next]
			top.next++
			if child == nil {
				continue
			}
			if _, dup := seen[child]; dup {
				return ErrNotTree
			}
			seen[child] = struct{}{}
			stack = append(stack, frame{node: child})
			continue
		}

		// all children done: post-order exit
		if err = visit(top.node); err != nil {
			return err
		}
		stack = stack[:len(stack)-1]
	}

	return nil
}
