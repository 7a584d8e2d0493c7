// SPDX-License-Identifier: MIT

package maxlik

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConverged is matched by every *Failure.
	ErrNotConverged = errors.New("maxlik: optimizer did not converge")

	// ErrDimension is returned when a target's parameters and bounds differ
	// in length, or it has no parameters at all.
	ErrDimension = errors.New("maxlik: invalid parameter dimension")

	// ErrBounds is returned for a bound pair with lo >= hi or a NaN limit.
	ErrBounds = errors.New("maxlik: invalid bounds")
)

// Failure reports a run that stopped without meeting a convergence test.
// Params holds the best point reached, in target coordinates.
type Failure struct {
	Status  string
	Message string
	Params  []float64
}

func (f *Failure) Error() string {
	if f.Message == "" {
		return fmt.Sprintf("maxlik: stopped with status %s", f.Status)
	}
	return fmt.Sprintf("maxlik: stopped with status %s: %s", f.Status, f.Message)
}

// Is makes errors.Is(err, ErrNotConverged) hold for every *Failure.
func (f *Failure) Is(target error) bool { return target == ErrNotConverged }
