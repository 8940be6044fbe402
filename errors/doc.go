// Package errors provides the structured error type used across tomoflow.
//
// Every failure the engine surfaces to a caller is an *AppError carrying a
// machine-readable code, so callers can tell a broken stage chain (a
// process-file mistake) from a pattern defect or a storage failure:
//
//	if errors.IsChainError(err) {
//	    // report the stage id and expected dataset count to the user
//	}
package errors
