// SPDX-License-Identifier: MIT

// Package tree defines the rooted phylogenetic tree value that callers hand to
// the likelihood engine, plus the small set of operations the engine needs:
// deep cloning, iterative postorder traversal, and deterministic fixture
// builders for tests and benchmarks.
//
// A Node is a plain value: the package performs no locking and never mutates
// a tree it did not create. Consumers that reparameterise branch lengths must
// work on a Clone.
//
// Errors:
//
//   - ErrNilTree   if the root is nil.
//   - ErrNotTree   if a node is reachable along two paths (shared subtree or cycle).
//   - ErrTooFewTips / ErrBadLength from the fixture builders.
package tree
