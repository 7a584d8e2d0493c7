// SPDX-License-Identifier: MIT

package treelik

import (
	"errors"
	"fmt"
)

// Category sentinels. Every specific error below matches exactly one of
// them through errors.Is.
var (
	// ErrStructure marks malformed tree or alignment input. It is only ever
	// returned at construction.
	ErrStructure = errors.New("treelik: malformed tree or alignment")

	// ErrNumeric marks a recomputation aborted by a non-finite or vanishing
	// intermediate value.
	ErrNumeric = errors.New("treelik: numeric failure")
)

// Structural errors (wrapped together with ErrStructure).
var (
	// ErrNotBifurcating is returned when an internal node does not have
	// exactly two children, or a node is reachable along two paths.
	ErrNotBifurcating = errors.New("treelik: tree is not strictly bifurcating")

	// ErrMissingBranchLength is returned for a non-root node without a
	// finite, non-negative branch length.
	ErrMissingBranchLength = errors.New("treelik: missing or invalid branch length")

	// ErrNameMismatch is returned when tip names and alignment headers are not
	// in one-to-one correspondence (including duplicates on either side).
	ErrNameMismatch = errors.New("treelik: tip names do not match alignment")

	// ErrSequenceLength is returned when sequences differ in length or a
	// length is not a multiple of three.
	ErrSequenceLength = errors.New("treelik: invalid sequence length")

	// ErrBadCodon is returned for a token that is neither a sense codon nor
	// the gap triplet.
	ErrBadCodon = errors.New("treelik: invalid codon token")

	// ErrEmptyAlignment is returned for an alignment without sequences or
	// without sites.
	ErrEmptyAlignment = errors.New("treelik: empty alignment")

	// ErrBranchScale is returned when the model time unit is not a positive
	// finite number.
	ErrBranchScale = errors.New("treelik: invalid branch scale")
)

// Numeric errors (carried by *NumericError together with ErrNumeric).
var (
	// ErrNonFinite is returned when a likelihood or derivative becomes NaN or
	// infinite.
	ErrNonFinite = errors.New("treelik: non-finite value")

	// ErrUnderflow is returned when every entry of a site's likelihood
	// vector drops below the smallest normal float64.
	ErrUnderflow = errors.New("treelik: likelihood underflow")
)

// Parameter errors.
var (
	// ErrVectorLength is returned when a flat parameter vector does not have
	// one entry per slot.
	ErrVectorLength = errors.New("treelik: wrong parameter vector length")

	// ErrUnsupportedParam is returned for an update naming something that is
	// not a free parameter. Nothing is applied.
	ErrUnsupportedParam = errors.New("treelik: unsupported parameter")

	// ErrParamLength is returned when a named update has the wrong number of
	// components. Nothing is applied.
	ErrParamLength = errors.New("treelik: wrong parameter length")

	// ErrNonFiniteParam is returned when a parameter vector holds NaN or Inf.
	ErrNonFiniteParam = errors.New("treelik: non-finite parameter value")

	// ErrParamConflict is returned by NewMixture when a free parameter is
	// also the distributed parameter.
	ErrParamConflict = errors.New("treelik: distributed parameter is also free")
)

// structural wraps a specific structural error with ErrStructure.
func structural(op string, err error, format string, args ...any) error {
	return fmt.Errorf("%s: %s: %w: %w", op, fmt.Sprintf(format, args...), ErrStructure, err)
}

// NumericError locates a numeric failure.
type NumericError struct {
	// Pass is "likelihood" or "derivative".
	Pass string
	// Param is the parameter of a derivative pass, empty otherwise.
	Param string
	// Node is the global node index; Site the alignment site.
	Node, Site int
	// Err is ErrNonFinite or ErrUnderflow.
	Err error
}

func (e *NumericError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("treelik: %s pass (%s): node %d site %d: %v", e.Pass, e.Param, e.Node, e.Site, e.Err)
	}
	return fmt.Sprintf("treelik: %s pass: node %d site %d: %v", e.Pass, e.Node, e.Site, e.Err)
}

// Unwrap lets errors.Is match both the specific cause and ErrNumeric.
func (e *NumericError) Unwrap() []error {
	return []error{e.Err, ErrNumeric}
}
