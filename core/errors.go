package core

import "github.com/pkg/errors"

// Error taxonomy. Every error returned by a service wraps exactly one of these
// sentinels so transports can map it to a status without knowing the details.
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
	ErrInvalid    = errors.New("invalid input")
	ErrDependency = errors.New("dependency failure")
)

// Stable denial reason codes carried by ForbiddenError.
const (
	ReasonNotEnrolled    = "not enrolled"
	ReasonNotCourseOwner = "not course owner"
	ReasonNotInstructor  = "not an instructor"
	ReasonBadCredential  = "invalid credential"
)

// ForbiddenError is an access-guard denial with a stable reason code.
type ForbiddenError struct {
	Reason string
}

func NewForbiddenError(reason string) error {
	return &ForbiddenError{Reason: reason}
}

func (e *ForbiddenError) Error() string { return "forbidden: " + e.Reason }
func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error { return ErrInvalid }
