package course

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/darasa/core"
)

var (
	// ErrNotFound is returned when no course matches the requested ID.
	ErrNotFound = errors.New("course not found")
)

type ActivityKind string

// Activity kinds that count toward a course grade.
const (
	KindQuiz             ActivityKind = "quiz"
	KindGradedAssignment ActivityKind = "graded_assignment"
)

type SubmissionStatus string

const (
	StatusPending   SubmissionStatus = "pending"
	StatusSubmitted SubmissionStatus = "submitted"
	StatusGraded    SubmissionStatus = "graded"
)

type (
	Course struct {
		ID    string `json:"id"`
		Code  string `json:"code"`
		Title string `json:"title"`
	}

	// EvaluableActivity is a quiz or graded assignment contributing to the
	// course grade. Identity = (CourseID, ID); immutable once listed for a
	// grading cycle.
	EvaluableActivity struct {
		ID          string       `json:"id"`
		CourseID    string       `json:"course_id"`
		LessonID    string       `json:"lesson_id"`
		Kind        ActivityKind `json:"kind"`
		Title       string       `json:"title"`
		LessonOrder int          `json:"lesson_order"`
		Order       int          `json:"order"`
	}

	// Submission is a student's answer to an activity. Several submissions may
	// exist per (student, activity); SubmittedAt decides which one counts.
	Submission struct {
		ID          string           `json:"id"`
		StudentID   string           `json:"student_id"`
		CourseID    string           `json:"course_id"`
		ActivityID  string           `json:"activity_id"`
		Grade       *float64         `json:"grade"` // nil until graded
		Status      SubmissionStatus `json:"status"`
		SubmittedAt time.Time        `json:"submitted_at"` // UTC
	}

	Repository interface {
		GetCourse(ctx context.Context, id string, exec ...core.DBExecutor) (Course, error)
		// ListEvaluableActivities returns the activities counting toward the
		// course grade, ordered by lesson order then activity order. The
		// ordering is stable across repeated calls within one aggregation pass.
		ListEvaluableActivities(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]EvaluableActivity, error)
		// ListSubmissions returns all submissions of a group's students, in no
		// particular order.
		ListSubmissions(ctx context.Context, groupID string, exec ...core.DBExecutor) ([]Submission, error)
	}
)

// IsGraded reports whether the submission carries a grade: either a numeric
// one or an explicit graded status.
func (s *Submission) IsGraded() bool {
	return s.Grade != nil || s.Status == StatusGraded
}
