package store

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode),
// an error message and an optional cause.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
	Err  error   // The underlying error, if any.
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so errors.Is(err, ErrKeyNotFound)
// works for every not-found error regardless of its message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// WrapError creates a new Error with the given code, message and cause.
func WrapError(code RetCode, msg string, err error) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
		Err:  err,
	}
}

// ConfigError reports an invalid parameter or adapter name.
func ConfigError(format string, args ...any) *Error {
	return NewError(RetCConfiguration, fmt.Sprintf(format, args...))
}

// IntegrityError reports a checksum or entry mismatch between phases.
func IntegrityError(format string, args ...any) *Error {
	return NewError(RetCIntegrity, fmt.Sprintf(format, args...))
}

// EngineError wraps a native engine failure.
func EngineError(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return WrapError(RetCEngine, op, err)
}

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code RetCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

var (
	// ErrKeyNotFound is returned by Get for keys that were never stored.
	ErrKeyNotFound = NewError(RetCKeyNotFound, "key not found")
	// ErrUnsupported is returned for capabilities the engine does not offer.
	ErrUnsupported = NewError(RetCUnsupportedOperation, "operation not supported")
	// ErrTxnClosed is returned when a finished transaction is used again.
	ErrTxnClosed = errors.New("transaction already closed")
)

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Operation executed successfully.
	RetCConfiguration                       // 1: Bad adapter name or invalid parameter.
	RetCKeyNotFound                         // 2: Get on a key that was never stored.
	RetCIntegrity                           // 3: Checksum mismatch between phases.
	RetCEngine                              // 4: Native engine failure.
	RetCUnsupportedOperation                // 5: Operation is not supported by the engine.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCConfiguration:
		return "ConfigurationError"
	case RetCKeyNotFound:
		return "KeyNotFoundError"
	case RetCIntegrity:
		return "IntegrityError"
	case RetCEngine:
		return "EngineError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	default:
		return "Unknown"
	}
}
