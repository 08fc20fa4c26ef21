package errors

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeCheckpointLoad    ErrorType = "checkpoint_load"
	ErrorTypeCheckpointPersist ErrorType = "checkpoint_persist"
	ErrorTypeMarkerRegression  ErrorType = "marker_regression"
	ErrorTypeNetwork           ErrorType = "network"
	ErrorTypeAuth              ErrorType = "auth"
	ErrorTypeServerError       ErrorType = "server_error"
	ErrorTypeApply             ErrorType = "apply"
	ErrorTypeUnknown           ErrorType = "unknown"
)

// Error carries the error kind, the operation that failed and the underlying cause
type Error struct {
	Type ErrorType
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Type)
	if e.Op != "" {
		msg += " during " + e.Op
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error
func New(errorType ErrorType, op string, err error) *Error {
	return &Error{Type: errorType, Op: op, Err: err}
}

// CheckpointLoadError reports a sidecar that is missing, unreadable or malformed
func CheckpointLoadError(path, op string, err error) *Error {
	return &Error{Type: ErrorTypeCheckpointLoad, Op: op, Path: path, Err: err}
}

// CheckpointPersistError reports a sidecar that could not be durably replaced
func CheckpointPersistError(path, op string, err error) *Error {
	return &Error{Type: ErrorTypeCheckpointPersist, Op: op, Path: path, Err: err}
}

// MarkerRegressionError reports an advance to a frame below the current marker
func MarkerRegressionError(path string, current, requested uint32) *Error {
	return &Error{
		Type: ErrorTypeMarkerRegression,
		Op:   "advance",
		Path: path,
		Err:  fmt.Errorf("frame %d is behind durable marker %d", requested, current),
	}
}

// TypeOf returns the ErrorType of the first typed error in the chain
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsCheckpointLoad reports whether err is a checkpoint load failure
func IsCheckpointLoad(err error) bool {
	return err != nil && TypeOf(err) == ErrorTypeCheckpointLoad
}

// IsCheckpointPersist reports whether err is a checkpoint persist failure
func IsCheckpointPersist(err error) bool {
	return err != nil && TypeOf(err) == ErrorTypeCheckpointPersist
}

// IsMarkerRegression reports whether err is a rejected marker regression
func IsMarkerRegression(err error) bool {
	return err != nil && TypeOf(err) == ErrorTypeMarkerRegression
}

// IsNotExist reports whether the underlying cause is a missing file
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeServerError:
		return true
	default:
		return false
	}
}
