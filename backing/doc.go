// Package backing persists dataset arrays into container files.
//
// A container holds one or more groups, each a float64 array with its
// dataset metadata. Arrays live in memory while a pipeline runs; a file is
// opened at the first write to any of its arrays and encoded into storage
// when it is closed. Closing is idempotent, and a file that was never
// written is never stored.
//
// The encoded layout is an 8-byte little-endian header length, a YAML
// header describing the groups, then each group's values as little-endian
// float64 in row-major order.
package backing
