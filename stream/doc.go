// Package stream provides lazy, pull-based streams with an optional
// bounded worker pool. The driver uses it to push a stage's frames
// through the stage's processing function.
//
//	s := stream.FromSlice(frames)
//	written := stream.Parallel(s, 4, process)
//	err := stream.Drain(stream.Tap(written, count), discard)
//
// Nothing runs until a terminal (Collect, Drain, ForEach) pulls values.
// The first error stops the stream and is returned by the terminal.
package stream
