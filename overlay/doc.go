// Package overlay gates access to dataset backing arrays.
//
// A Gated overlay pairs an array with a boolean availability mask of the
// same shape: reads succeed only for regions whose every element has been
// written, so a downstream consumer never sees a partially streamed frame.
// AlwaysAvailable passes straight through and is used for source data that
// is fully materialized before the pipeline starts.
//
// A read of an unwritten region is not an error: Get returns ok=false.
package overlay
