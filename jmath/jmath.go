// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package jmath implements the 4×4 matrix and 3-vector math used to place
// primitives and cameras.
//
// Matrices are stored row-major and compose left to right: MatMultiply(A, B,
// C) computes A·B·C, which applies C first when transforming a column vector.
package jmath

import (
	"golang.org/x/exp/constraints"
)

// Epsilon is the magnitude below which Normalize considers a vector to have
// zero length.
const Epsilon = 1e-5

// AlignUp rounds n up to the next multiple of alignment, which must be a power
// of two.
func AlignUp[T constraints.Integer](n T, alignment T) T {
	return (n + alignment - 1) &^ (alignment - 1)
}
