package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Pipeline definition errors
const (
	// ErrCodeChainBroken indicates a stage resolved to the wrong number of datasets.
	ErrCodeChainBroken ErrorCode = "CHAIN_BROKEN"
	// ErrCodeInvalidPattern indicates a pattern does not partition a dataset's dimensions.
	ErrCodeInvalidPattern ErrorCode = "INVALID_PATTERN"
	// ErrCodeStageLoad indicates a stage could not be instantiated.
	ErrCodeStageLoad ErrorCode = "STAGE_LOAD_FAILED"
)

// Lookup errors
const (
	// ErrCodeNotFound indicates a dataset, pattern or stage was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeAlreadyExists indicates a name is already registered.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeOutOfRange indicates a selection falls outside an array.
	ErrCodeOutOfRange ErrorCode = "OUT_OF_RANGE"
)

// Execution errors
const (
	// ErrCodeFrameUnavailable indicates an input frame had not been written.
	ErrCodeFrameUnavailable ErrorCode = "FRAME_UNAVAILABLE"
	// ErrCodeStorage indicates the backing storage failed.
	ErrCodeStorage ErrorCode = "STORAGE_ERROR"
	// ErrCodeClosed indicates use of a released backing resource.
	ErrCodeClosed ErrorCode = "CLOSED"
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeStorage:          true,
	ErrCodeFrameUnavailable: true,
	ErrCodeInternal:         false,
}
