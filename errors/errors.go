package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: retryableCodes[code],
	}
}

// --- Pipeline definition errors ---

// ChainBroken reports a stage whose resolved dataset count on one side
// ("in" or "out") does not match what the stage requires.
func ChainBroken(stageID, side string, expected, actual int) *AppError {
	return &AppError{
		Code: ErrCodeChainBroken,
		Message: fmt.Sprintf("broken plugin chain: please name the %d %s datasets associated with the stage %s in the process file (resolved %d)",
			expected, side, stageID, actual),
		Details: map[string]any{"stage": stageID, "side": side, "expected": expected, "actual": actual},
	}
}

// BackReferenceOutOfRange reports an output name that refers to an input
// position the stage does not have.
func BackReferenceOutOfRange(stageID string, index, inputs int) *AppError {
	return &AppError{
		Code:    ErrCodeChainBroken,
		Message: fmt.Sprintf("stage %s refers to input dataset %d but only %d inputs were resolved", stageID, index, inputs),
		Details: map[string]any{"stage": stageID, "index": index, "inputs": inputs},
	}
}

// InvalidPattern reports a pattern that cannot be attached to or used with a dataset.
func InvalidPattern(dataset, pattern, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidPattern,
		Message: fmt.Sprintf("pattern %s of dataset %s: %s", pattern, dataset, reason),
		Details: map[string]any{"dataset": dataset, "pattern": pattern},
	}
}

// StageLoad reports a stage that could not be instantiated.
func StageLoad(stageID string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeStageLoad,
		Message: fmt.Sprintf("failed to load stage %s", stageID),
		Details: map[string]any{"stage": stageID},
		Cause:   cause,
	}
}

// --- Lookup errors ---

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	msg := fmt.Sprintf("the requested %s was not found", resource)
	if id != "" {
		msg = fmt.Sprintf("%s %q was not found", resource, id)
	}
	return &AppError{Code: ErrCodeNotFound, Message: msg, Details: details}
}

// AlreadyExists creates a new AppError for a name that is already taken.
func AlreadyExists(resource, id string) *AppError {
	return &AppError{
		Code:    ErrCodeAlreadyExists,
		Message: fmt.Sprintf("%s %q already exists", resource, id),
		Details: map[string]any{"resource": resource, "id": id},
	}
}

// --- Validation errors ---

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("invalid input: %s", reason), Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

// OutOfRange reports a selection that exceeds an array extent.
func OutOfRange(dim, start, count, extent int) *AppError {
	return &AppError{
		Code:    ErrCodeOutOfRange,
		Message: fmt.Sprintf("selection out of bounds in dimension %d: start=%d + count=%d > size=%d", dim, start, count, extent),
		Details: map[string]any{"dim": dim, "start": start, "count": count, "extent": extent},
	}
}

// --- Execution errors ---

// FrameUnavailable reports an input frame that was read before it was written.
func FrameUnavailable(dataset string, frame int) *AppError {
	return &AppError{
		Code: ErrCodeFrameUnavailable, Message: fmt.Sprintf("frame %d of dataset %s is not available", frame, dataset),
		Retryable: true, Details: map[string]any{"dataset": dataset, "frame": frame},
	}
}

// Storage wraps a failure of the backing storage.
func Storage(op string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeStorage, Message: fmt.Sprintf("storage %s failed", op),
		Retryable: true, Details: map[string]any{"operation": op}, Cause: cause,
	}
}

// Closed reports use of a backing resource after it was released.
func Closed(resource string) *AppError {
	return &AppError{
		Code: ErrCodeClosed, Message: fmt.Sprintf("%s is closed", resource),
		Details: map[string]any{"resource": resource},
	}
}

// Internal creates a new AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "an unexpected error occurred", Cause: cause,
	}
}

// --- Inspection ---

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// IsChainError reports whether err is a broken-chain error.
func IsChainError(err error) bool { return HasCode(err, ErrCodeChainBroken) }

// IsPatternError reports whether err is a pattern error.
func IsPatternError(err error) bool { return HasCode(err, ErrCodeInvalidPattern) }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return HasCode(err, ErrCodeNotFound) }

// Wrap returns err as an *AppError, wrapping anything that is not already
// one as an internal error. Wrap(nil) returns nil.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}
