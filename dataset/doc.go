// Package dataset models the named N-dimensional arrays that flow between
// pipeline stages.
//
// A Dataset has a shape, one axis label per dimension and any number of
// named access patterns. A pattern splits the dimensions into core
// directions, read and written together as one frame, and slice
// directions, iterated over to stream the data through memory. Every
// pattern must partition the dimension indices exactly.
package dataset
