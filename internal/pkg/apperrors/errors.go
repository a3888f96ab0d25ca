package apperrors

import "errors"

// Category errors. Every error returned by a service wraps exactly one of these,
// and the HTTP layer maps on them.
var (
	ErrValidationFailed      = errors.New("validation failed")
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrUpstreamFailure       = errors.New("upstream service failure")
)

// Student errors
var (
	ErrStudentNotFound    = NewCustomError(ErrResourceNotFound, "student not found").WithCode("STUDENT_NOT_FOUND")
	ErrStudentEmailExists = NewCustomError(ErrResourceAlreadyExists, "a student with this email already exists").WithCode("STUDENT_EMAIL_EXISTS")
)

// Course errors
var (
	ErrCourseNotFound         = NewCustomError(ErrResourceNotFound, "course not found").WithCode("COURSE_NOT_FOUND")
	ErrCourseAlreadyExists    = NewCustomError(ErrResourceAlreadyExists, "a course with this code already exists").WithCode("COURSE_CODE_EXISTS")
	ErrInvalidCourseReference = NewCustomError(ErrValidationFailed, "one or more course ids do not exist").WithCode("INVALID_COURSE_REFERENCE")
)

// Storage errors
var (
	ErrStorageUnavailable = NewCustomError(ErrUpstreamFailure, "image upload failed").WithCode("STORAGE_UNAVAILABLE")
)

// NewValidationError creates a validation error carrying a user-facing message.
func NewValidationError(message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
	}
}

// NewValidationFieldError is NewValidationError with the offending field attached.
func NewValidationFieldError(field, message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
		Details: map[string]interface{}{"field": field},
	}
}

// Is reports whether err matches target or any of errList.
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// AsCustom returns the outermost CustomError in err's chain, if any.
func AsCustom(err error) (*CustomError, bool) {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
