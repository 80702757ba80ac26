package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound   = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict   = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal   = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss  = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Enrollment hierarchy and aggregation rule violations. Each maps a named
// business rule to a stable code the API layer surfaces verbatim.
var (
	ErrDuplicateEnrollment       = New("DUPLICATE_ENROLLMENT", http.StatusConflict, "student already enrolled in course for period")
	ErrInactivePeriod            = New("INACTIVE_PERIOD", http.StatusBadRequest, "academic period is not active")
	ErrHierarchyMismatch         = New("HIERARCHY_MISMATCH", http.StatusBadRequest, "level does not belong to the enrolled course")
	ErrSubjectLevelMismatch      = New("SUBJECT_LEVEL_MISMATCH", http.StatusBadRequest, "subject does not belong to the enrolled level")
	ErrAssignmentSubjectMismatch = New("ASSIGNMENT_SUBJECT_MISMATCH", http.StatusBadRequest, "assignment does not match the subject")
	ErrLevelNotActive            = New("LEVEL_NOT_ACTIVE", http.StatusPreconditionFailed, "level enrollment is not in progress")
	ErrCourseEnrollmentNotActive = New("COURSE_ENROLLMENT_NOT_ACTIVE", http.StatusPreconditionFailed, "course enrollment is not active")
	ErrStudentInactive           = New("STUDENT_INACTIVE", http.StatusPreconditionFailed, "student is inactive")
	ErrCourseInactive            = New("COURSE_INACTIVE", http.StatusPreconditionFailed, "course is inactive")
	ErrGroupFull                 = New("GROUP_FULL", http.StatusConflict, "course group has no available seats")
	ErrGroupScopeMismatch        = New("GROUP_SCOPE_MISMATCH", http.StatusBadRequest, "course group does not belong to the course and level")
	ErrGradeOutOfRange           = New("GRADE_OUT_OF_RANGE", http.StatusBadRequest, "grade value must be between 0.00 and 5.00")
	ErrDuplicateAttendance       = New("DUPLICATE_ATTENDANCE", http.StatusConflict, "attendance already registered for this enrollment and session")
	ErrChildEnrollmentsExist     = New("CHILD_ENROLLMENTS_EXIST", http.StatusConflict, "course enrollment still has level enrollments")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
