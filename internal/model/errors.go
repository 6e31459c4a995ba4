package model

import (
	"errors"
	"fmt"
)

// ValidationCode identifies which input rule was violated.
type ValidationCode string

const (
	CodeEmptyTitle   ValidationCode = "empty_title"
	CodeBadProgress  ValidationCode = "bad_progress"
	CodeBadStatus    ValidationCode = "bad_status"
	CodeEmptyComment ValidationCode = "empty_comment"
)

// ValidationError reports bad or missing user input. No state is changed
// when one is returned.
type ValidationError struct {
	Code    ValidationCode
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(code ValidationCode, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ErrNotFound matches every NotFoundError via errors.Is.
var ErrNotFound = errors.New("requirement not found")

// NotFoundError reports a reference to a requirement id that does not exist.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("requirement not found: %d", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsValidation reports whether err is a ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
