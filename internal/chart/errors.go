package chart

import (
	"errors"
	"fmt"
)

// Error is a typed failure raised by chart operations.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// ID names the entity involved, when there is one.
	ID string
}

// ErrorCode categorizes chart errors.
type ErrorCode string

const (
	// ErrCodeWrongArity indicates a degree or coordinate tuple of the wrong length.
	ErrCodeWrongArity ErrorCode = "WRONG_ARITY"

	// ErrCodeNoSuchClass indicates a degree/index address with no class.
	ErrCodeNoSuchClass ErrorCode = "NO_SUCH_CLASS"

	// ErrCodeUnknownStyle indicates a style name missing from the registry.
	ErrCodeUnknownStyle ErrorCode = "UNKNOWN_STYLE"

	// ErrCodeUnknownShape indicates a shape name missing from the registry.
	ErrCodeUnknownShape ErrorCode = "UNKNOWN_SHAPE"

	// ErrCodeUnknownColor indicates a color name that is neither registered nor a CSS name.
	ErrCodeUnknownColor ErrorCode = "UNKNOWN_COLOR"

	// ErrCodeStyleConflict indicates re-registration of a name with different contents.
	ErrCodeStyleConflict ErrorCode = "STYLE_CONFLICT"

	// ErrCodeClassAlive indicates Replace on a class that survives to infinity.
	ErrCodeClassAlive ErrorCode = "CLASS_ALIVE"

	// ErrCodeDeleted indicates an operation on a deleted entity.
	ErrCodeDeleted ErrorCode = "DELETED"

	// ErrCodeUnresolvedReference indicates an id that names no entity.
	ErrCodeUnresolvedReference ErrorCode = "UNRESOLVED_REFERENCE"

	// ErrCodeMalformed indicates a document or message with the wrong shape.
	ErrCodeMalformed ErrorCode = "MALFORMED"

	// ErrCodeUnsupported indicates the attached agent lacks an optional capability.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s: %s (id=%s)", e.Code, e.Message, e.ID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCode reports whether err is, or wraps, an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

func newError(code ErrorCode, id, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), ID: id}
}

func deletedError(kind, id string) *Error {
	return newError(ErrCodeDeleted, id, "%s has been deleted", kind)
}

func malformed(format string, args ...any) *Error {
	return newError(ErrCodeMalformed, "", format, args...)
}
