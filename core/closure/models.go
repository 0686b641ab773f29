package closure

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

type (
	// Record is the authoritative closure state of one (student, course)
	// enrollment. It is created lazily on first close and never deleted, only
	// transitioned between Open and Closed. Closure and reopen audit fields
	// are preserved across transitions.
	Record struct {
		EnrollmentID string `json:"enrollment_id"`
		GroupID      string `json:"group_id"`
		CourseID     string `json:"course_id"`
		StudentID    string `json:"student_id"`

		Status Status `json:"status"`

		AutoGrade  *float64 `json:"auto_grade"`  // last computed aggregate; nil when no graded activities
		FinalGrade *float64 `json:"final_grade"` // authoritative once closed

		// ManualOverride is true iff FinalGrade materially differs from
		// AutoGrade, or there was no aggregate to agree with.
		ManualOverride       bool `json:"manual_override"`
		PendingUngradedCount int  `json:"pending_ungraded_count"`

		ClosedAt   time.Time `json:"closed_at"`   // UTC
		ClosedBy   string    `json:"closed_by"`
		ReopenedAt time.Time `json:"reopened_at"` // UTC
		ReopenedBy string    `json:"reopened_by"`
		UpdatedAt  time.Time `json:"updated_at"` // UTC
	}

	// StudentOverview is one row of the grading grid: the live (or frozen)
	// grade state of a student in a course.
	StudentOverview struct {
		StudentID            string   `json:"student_id"`
		StudentName          string   `json:"student_name"`
		Status               Status   `json:"status"`
		AutoGrade            *float64 `json:"auto_grade"`
		FinalGrade           *float64 `json:"final_grade"`
		ManualOverride       bool     `json:"manual_override"`
		PendingUngradedCount int      `json:"pending_ungraded_count"`
		GradedCount          int      `json:"graded_count"`
		TotalEvaluable       int      `json:"total_evaluable"`
	}

	Repository interface {
		// GetClosure returns ErrNotFound when no record exists for the enrollment.
		GetClosure(ctx context.Context, enrollmentID string, exec ...core.DBExecutor) (Record, error)
		// UpsertClosure creates the record if absent and replaces its state if
		// present; it never clears audit fields the record carries.
		UpsertClosure(ctx context.Context, rec Record, exec ...core.DBExecutor) (Record, error)
		// QueryClosures returns all records of a (group, course) pair.
		QueryClosures(ctx context.Context, groupID, courseID string, exec ...core.DBExecutor) ([]Record, error)
		// UpsertClosures commits all records in a single transaction:
		// either every record lands or none does.
		UpsertClosures(ctx context.Context, recs []Record, exec ...core.DBExecutor) error
	}
)

// IsOpen reports whether the grade may still be edited. A zero Record is Open.
func (rec *Record) IsOpen() bool {
	return rec.Status != StatusClosed
}

// openRecord is the implicit state of an enrollment without a stored record.
func openRecord(enrollmentID, groupID, courseID, studentID string) Record {
	return Record{
		EnrollmentID: enrollmentID,
		GroupID:      groupID,
		CourseID:     courseID,
		StudentID:    studentID,
		Status:       StatusOpen,
	}
}

// CloseGrade is the input to close a single student's grade.
type CloseGrade struct {
	FinalGrade *float64 `json:"final_grade" validate:"required,grade"`
}

func (cg *CloseGrade) Validate(validate *validator.Validate) error {
	return validate.Struct(cg)
}

// BulkClose is the input to close every open grade of a (group, course) pair.
type BulkClose struct {
	// Grades maps student ID to final grade; every targeted open student must
	// have an entry.
	Grades map[string]float64 `json:"grades" validate:"required,dive,grade"`

	// AcknowledgePending must be set when any targeted student still has
	// ungraded activities.
	AcknowledgePending bool `json:"acknowledge_pending"`
}

func (bc *BulkClose) Validate(validate *validator.Validate) error {
	return validate.Struct(bc)
}

// BulkResult reports the outcome of a bulk close. Atomicity holds only within
// a commit group: failed groups leave earlier committed groups committed.
type BulkResult struct {
	ClosedCount int            `json:"closed_count"`
	Failures    []GroupFailure `json:"failures"`
}

// GroupFailure names one failed commit group so the caller can retry exactly
// its students.
type GroupFailure struct {
	Group      int      `json:"group"`
	StudentIDs []string `json:"student_ids"`
	Err        string   `json:"error"`
}
