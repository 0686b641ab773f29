package closure

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by repositories when no record exists for an
	// enrollment. The service treats absence as an Open record.
	ErrNotFound = errors.New("closure record not found")

	// ErrInvalidGrade rejects final grades outside the 0-100 scale (or NaN/Inf).
	ErrInvalidGrade = errors.New("final grade must be a number between 0 and 100")

	// ErrUnauthorized is returned when the actor may not manage closures for
	// the group, or the course is outside their visible set.
	ErrUnauthorized = errors.New("actor is not allowed to manage closures for this course")

	// ErrNotClosed rejects a reopen on a record that is not closed.
	ErrNotClosed = errors.New("grade is not closed")

	// ErrNotEnrolled rejects operations on a student outside the group roster.
	ErrNotEnrolled = errors.New("student is not enrolled in this group")

	// ErrNothingToClose is returned by a bulk close whose target set of open
	// records is empty.
	ErrNothingToClose = errors.New("no open grades to close")
)

// PendingStudent identifies a student with activities still lacking a grade
// at closure time.
type PendingStudent struct {
	StudentID    string `json:"student_id"`
	PendingCount int    `json:"pending_count"`
}

// PendingError blocks a bulk close until the caller acknowledges that some
// targeted students still have ungraded activities. It carries the affected
// students so the caller can re-prompt.
type PendingError struct {
	Students []PendingStudent
}

func (err *PendingError) Error() string {
	return fmt.Sprintf("%d student(s) have ungraded activities; acknowledgement required", len(err.Students))
}
