package grading

import (
	"errors"
	"fmt"
)

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrStudentNotFound    = errors.New("student not found")
	ErrExamNotFound       = errors.New("exam not found")
	ErrArchiveNotFound    = errors.New("archive not found")
	ErrNoAcademicYear     = errors.New("no academic year configured")
	ErrNoSemester         = errors.New("academic year has no semesters")
	ErrInvalidCredentials = errors.New("invalid quiz credentials")
)

// AlreadyTakenError carries the earlier attempt so callers can show it without another lookup.
type AlreadyTakenError struct {
	AttemptID     int64
	PreviousScore float64
}

func (e *AlreadyTakenError) Error() string {
	return fmt.Sprintf("exam already taken: attempt %d scored %g", e.AttemptID, e.PreviousScore)
}

const (
	CodeMissingFields      = "MISSING_FIELDS"
	CodeStudentNotFound    = "STUDENT_NOT_FOUND"
	CodeExamNotFound       = "EXAM_NOT_FOUND"
	CodeArchiveNotFound    = "ARCHIVE_NOT_FOUND"
	CodeAlreadyTaken       = "ALREADY_TAKEN"
	CodeNoAcademicYear     = "NO_ACADEMIC_YEAR"
	CodeNoSemester         = "NO_SEMESTER"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInternal           = "INTERNAL_ERROR"
)

// Code maps an error returned by this package to a stable client-facing code.
func Code(err error) string {
	var taken *AlreadyTakenError
	switch {
	case errors.As(err, &taken):
		return CodeAlreadyTaken
	case errors.Is(err, ErrMissingFields):
		return CodeMissingFields
	case errors.Is(err, ErrStudentNotFound):
		return CodeStudentNotFound
	case errors.Is(err, ErrExamNotFound):
		return CodeExamNotFound
	case errors.Is(err, ErrArchiveNotFound):
		return CodeArchiveNotFound
	case errors.Is(err, ErrNoAcademicYear):
		return CodeNoAcademicYear
	case errors.Is(err, ErrNoSemester):
		return CodeNoSemester
	case errors.Is(err, ErrInvalidCredentials):
		return CodeInvalidCredentials
	default:
		return CodeInternal
	}
}
