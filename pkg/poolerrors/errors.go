// Package poolerrors provides structured errors for genpool with categorisation,
// key-value context and stack capture.
//
// # Overview
//
// The pool distinguishes three failure classes:
//   - Fatal conditions (ErrorTypeInternal, ErrorTypeOverflow): the pool's
//     bookkeeping can no longer be trusted, so the operation panics.
//   - Contract violations (ErrorTypeContract): the caller broke a
//     precondition, for example asking for two mutable views of one slot.
//     These panic as well.
//   - Ordinary absence: reported as (zero, false) by the accessors and never
//     represented by an Error.
//
// Panics always carry an *Error so a host can recover and inspect them:
//
//	defer func() {
//	    if err, ok := poolerrors.FromPanic(recover()); ok {
//	        log.Error("pool violation", zap.Error(err))
//	    }
//	}()
//
// Configuration and I/O failures outside the core are returned as wrapped
// errors in the usual way.
package poolerrors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error.
type ErrorType string

const (
	// ErrorTypeInternal represents a broken internal invariant
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeOverflow represents exhaustion of a counter such as the generation
	ErrorTypeOverflow ErrorType = "overflow"
	// ErrorTypeContract represents a caller precondition violation
	ErrorTypeContract ErrorType = "contract"
	// ErrorTypeValidation represents invalid input values
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// Error represents a structured error with context.
//
// Fields:
//   - Type: Categorizes the error
//   - Message: Human-readable error description
//   - Cause: The underlying error, if any
//   - Details: Key-value pairs such as the slot or generation involved
//   - Stack: Call stack at the point of error creation
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack.
type StackFrame struct {
	Function string // Fully qualified function name
	File     string // Source file path
	Line     int    // Line number in source file
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error of the same type, so sentinel-style checks work:
//
//	errors.Is(err, &poolerrors.Error{Type: poolerrors.ErrorTypeContract})
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type && (t.Message == "" || t.Message == e.Message)
}

// WithDetail adds a key-value detail to the error. Calls can be chained.
//
//	err := poolerrors.New(poolerrors.ErrorTypeContract, "aliased slots").
//	    WithDetail("slot", 3)
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Detail returns a detail value by key.
func (e *Error) Detail(key string) (interface{}, bool) {
	v, ok := e.Details[key]
	return v, ok
}

// New creates a new error, capturing the call stack at the point of creation.
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf is New with a formatted message.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context. If the error is
// already an *Error its stack is preserved. Returns nil for a nil error.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsType checks if the error is of the given type.
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// IsFatal reports whether err marks a condition the pool cannot continue from.
func IsFatal(err error) bool {
	return IsType(err, ErrorTypeInternal) || IsType(err, ErrorTypeOverflow)
}

// FromPanic converts a recovered panic value into an *Error. It returns false
// for nil and for panics that did not originate from genpool.
func FromPanic(r interface{}) (*Error, bool) {
	if r == nil {
		return nil, false
	}
	err, ok := r.(error)
	if !ok {
		return nil, false
	}
	var e *Error
	if !errors.As(err, &e) {
		return nil, false
	}
	return e, true
}

// captureStack captures the current call stack up to maxFrames deep,
// skipping the specified number of frames from the top.
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
