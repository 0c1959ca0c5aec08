package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Chronicle error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"     // 400
	ErrRangeOutOfBounds ErrorCode = "RANGE_OUT_OF_BOUNDS" // 400
	ErrNotFound         ErrorCode = "NOT_FOUND"           // 404
	ErrMalformedEntry   ErrorCode = "MALFORMED_ENTRY"     // 422, absorbed by the parser
	ErrUnreadableFile   ErrorCode = "UNREADABLE_FILE"     // 500, absorbed by the cache
	ErrInternal         ErrorCode = "INTERNAL"            // 500
)

// ChronicleError represents a structured error with code, status, and details.
type ChronicleError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	// cause is the underlying error, if any. Never exposed to callers.
	cause error
}

// Error implements the error interface.
func (e *ChronicleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ChronicleError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *ChronicleError {
	return &ChronicleError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewRangeOutOfBounds creates a 400 error for an invalid message range.
func NewRangeOutOfBounds(start, end int) *ChronicleError {
	return &ChronicleError{
		Code:    ErrRangeOutOfBounds,
		Status:  400,
		Message: fmt.Sprintf("invalid message range [%d, %d]: start must be >= 1 and <= end", start, end),
		Details: map[string]any{"start": start, "end": end},
	}
}

// NewUnknownSession creates a 404 error for a session absent from both
// the cache and discovery.
func NewUnknownSession(sessionID string) *ChronicleError {
	return &ChronicleError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("conversation not found: %s", sessionID),
		Details: map[string]any{"session_id": sessionID},
	}
}

// NewMalformedEntry creates an error for a log line that is not valid JSON.
func NewMalformedEntry(path string, line int, err error) *ChronicleError {
	return &ChronicleError{
		Code:    ErrMalformedEntry,
		Status:  422,
		Message: fmt.Sprintf("malformed entry at %s:%d", path, line),
		Details: map[string]any{"path": path, "line": line},
		cause:   err,
	}
}

// NewUnreadableFile creates an error for a log file that cannot be opened or stat'ed.
func NewUnreadableFile(path string, err error) *ChronicleError {
	return &ChronicleError{
		Code:    ErrUnreadableFile,
		Status:  500,
		Message: fmt.Sprintf("unreadable file: %s", path),
		Details: map[string]any{"path": path},
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *ChronicleError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &ChronicleError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error is, or wraps, a ChronicleError with the given code.
func Is(err error, code ErrorCode) bool {
	var cErr *ChronicleError
	if stderrors.As(err, &cErr) {
		return cErr.Code == code
	}
	return false
}

// As returns the ChronicleError in err's chain, if any.
func As(err error) (*ChronicleError, bool) {
	var cErr *ChronicleError
	ok := stderrors.As(err, &cErr)
	return cErr, ok
}
