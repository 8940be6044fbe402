// Package plugin defines what a pipeline stage is and how stages are found
// and configured.
//
// Every stage satisfies chain.Stage so the linker can resolve its dataset
// names. The first stage of a process is a Source that puts datasets into
// the namespace; the last is a Sink that sees the final namespace. Stages
// in between implement FrameProcessor and transform their inputs one frame
// at a time.
//
// Stages are created through a Registry keyed by stage ID. A process file
// lists stage IDs with their dataset names and parameters:
//
//	name: scale-and-grid
//	stages:
//	  - id: tomoflow.source.synthetic
//	    params: {name: tomo, shape: [4, 6]}
//	  - id: tomoflow.filters.scale
//	    in_datasets: [tomo]
//	    params: {factor: 2}
//	  - id: tomoflow.savers.record
package plugin
