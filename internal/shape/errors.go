package shape

import (
	"errors"
	"fmt"
)

// Error codes for malformed shapes.
const (
	ErrCodeMissingPath       = "S001"
	ErrCodeConflictingKinds  = "S002"
	ErrCodeMultiplePoints    = "S003"
	ErrCodeNestingCycle      = "S004"
	ErrCodeEmptyShape        = "S005"
	ErrCodeArity             = "S006"
	ErrCodePointOutOfRange   = "S007"
	ErrCodeBadPatternElement = "S008"
	ErrCodePointNotVariable  = "S009"
	ErrCodeReservedName      = "S010"
)

// CompilationError reports a malformed shape. It is fatal: the shape can
// never compile, so callers should surface it rather than retry.
type CompilationError struct {
	Code    string
	Shape   string // label or short ID of the offending shape
	Field   string // location inside the shape, e.g. "properties[1].path"
	Message string
}

func (e *CompilationError) Error() string {
	loc := e.Shape
	if loc == "" {
		loc = "<shape>"
	}
	if e.Field != "" {
		loc += "." + e.Field
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, loc, e.Message)
}

// IsCompilationError reports whether err is (or wraps) a CompilationError.
func IsCompilationError(err error) bool {
	var ce *CompilationError
	return errors.As(err, &ce)
}

// ErrorCode returns the code of a wrapped CompilationError, or "".
func ErrorCode(err error) string {
	var ce *CompilationError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
