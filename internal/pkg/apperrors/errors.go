package apperrors

import "errors"

// Error taxonomy. Every error leaving a service unwraps to one of these, which decides how it surfaces.
var (
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrValidationFailed      = errors.New("validation failed")
	ErrBadRequest            = errors.New("bad request")
)

// Exam errors
var (
	ErrExamNotFound        = domainError(ErrResourceNotFound, "exam not found", "EXAM_NOT_FOUND")
	ErrStudentExamNotFound = domainError(ErrResourceNotFound, "student exam not found", "STUDENT_EXAM_NOT_FOUND")
	ErrExerciseNotFound    = domainError(ErrResourceNotFound, "exercise not found", "EXERCISE_NOT_FOUND")

	ErrStudentExamAlreadySubmitted   = domainError(ErrBadRequest, "student exam has already been submitted", "ALREADY_SUBMITTED")
	ErrTestExamBulkStartNotSupported = domainError(ErrBadRequest, "start exercises is only allowed for real exams", "TEST_EXAM_BULK_START")
	ErrNotATestExam                  = domainError(ErrBadRequest, "exam is not a test exam", "NOT_A_TEST_EXAM")
	ErrBulkStartInProgress           = domainError(ErrConflict, "exercise start is already running for this exam", "BULK_START_RUNNING")
	ErrExerciseStartShuttingDown     = domainError(ErrConflict, "exercise starts are no longer accepted, the server is shutting down", "SHUTTING_DOWN")

	ErrSubmissionWindowClosed = domainError(ErrPermissionDenied, "submission is outside of the working time", "SUBMISSION_WINDOW_CLOSED")
	ErrExamNotVisible         = domainError(ErrPermissionDenied, "exam is not visible yet", "EXAM_NOT_VISIBLE")
	ErrNotRegisteredForExam   = domainError(ErrPermissionDenied, "user is not registered for the exam", "NOT_REGISTERED")
)

func domainError(base error, message, code string) *CustomError {
	return &CustomError{Err: base, Message: message, Code: code}
}

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{Err: ErrResourceNotFound, Message: message}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{Err: ErrConflict, Message: message}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{Err: ErrPermissionDenied, Message: message}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{Err: ErrBadRequest, Message: message}
}

// Is returns whether err matches target or any of errList
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
	// Code is a stable machine readable reason, surfaced to clients next to the HTTP status
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

// WithDetails returns a copy of e carrying details. Shared sentinels stay untouched.
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	c := *e
	c.Details = details
	return &c
}

// WithCode returns a copy of e carrying code
func (e *CustomError) WithCode(code string) *CustomError {
	c := *e
	c.Code = code
	return &c
}
