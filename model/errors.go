// SPDX-License-Identifier: MIT

package model

import "errors"

var (
	// ErrUnknownParam is returned when a parameter name is not one of the
	// model's free parameters.
	ErrUnknownParam = errors.New("model: unknown parameter")

	// ErrParamShape is returned when a scalar parameter receives a vector or
	// a vector parameter receives the wrong number of components.
	ErrParamShape = errors.New("model: parameter has wrong shape")

	// ErrParamLimits is returned when a value is non-finite or outside the
	// parameter's limits.
	ErrParamLimits = errors.New("model: parameter outside limits")

	// ErrEigen is returned when the rate matrix cannot be diagonalised.
	ErrEigen = errors.New("model: eigendecomposition failed")

	// ErrBadFrequencies is returned for nucleotide frequencies that are not
	// positive or do not sum to one.
	ErrBadFrequencies = errors.New("model: invalid nucleotide frequencies")

	// ErrBadSites is returned for a non-positive site count or a per-site rate
	// vector of the wrong length or with non-positive entries.
	ErrBadSites = errors.New("model: invalid site configuration")

	// ErrBadCategories is returned for a mixture with fewer than one category.
	ErrBadCategories = errors.New("model: invalid category count")
)
