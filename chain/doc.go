// Package chain links pipeline stages to the datasets they read and write.
//
// Each stage declares its input and output dataset names in the process
// file, possibly using the "all" sentinel or a back-reference to one of its
// own inputs. Link resolves those declarations against the Namespace built
// up by earlier stages and checks them against the counts the stage
// requires. Resolve additionally creates the output datasets, lets the
// stage shape them, and records them in the Namespace for later stages.
//
// Resolution is strictly sequential: a stage's "all" and back-references
// depend on everything earlier stages registered.
package chain
