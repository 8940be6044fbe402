// Package ndarray is the in-memory backing store for tomoflow datasets.
//
// Arrays are flat row-major slices addressed by hyperslab selections: one
// Range per dimension, each a start and count. A Range marked Point selects
// a single index and is dropped from the shape of what plain indexing
// returns.
package ndarray
