package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

type activityRow struct {
	ID          string      `db:"id"`
	CourseID    string      `db:"course_id"`
	LessonID    null.String `db:"lesson_id"`
	Kind        string      `db:"kind"`
	Title       string      `db:"title"`
	LessonOrder int         `db:"lesson_order"`
	Order       int         `db:"ord"`
}

type submissionRow struct {
	ID          string       `db:"id"`
	StudentID   string       `db:"student_id"`
	CourseID    string       `db:"course_id"`
	ActivityID  string       `db:"activity_id"`
	Grade       null.Float64 `db:"grade"`
	Status      string       `db:"status"`
	SubmittedAt time.Time    `db:"submitted_at"`
}

func (repo courseRepository) GetCourse(ctx context.Context, id string, exec ...core.DBExecutor) (course.Course, error) {
	var crs course.Course
	err := sqlx.GetContext(ctx, ext(repo.db, exec), &crs, `SELECT id, code, title FROM course WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	return crs, nil
}

func (repo courseRepository) ListEvaluableActivities(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]course.EvaluableActivity, error) {
	var rows []activityRow
	err := sqlx.SelectContext(ctx, ext(repo.db, exec), &rows,
		`SELECT id, course_id, lesson_id, kind, title, lesson_order, ord
		 FROM evaluable_activity WHERE course_id = $1 ORDER BY lesson_order, ord`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "listing evaluable activities")
	}

	activities := make([]course.EvaluableActivity, 0, len(rows))
	for _, row := range rows {
		activities = append(activities, course.EvaluableActivity{
			ID:          row.ID,
			CourseID:    row.CourseID,
			LessonID:    row.LessonID.String,
			Kind:        course.ActivityKind(row.Kind),
			Title:       row.Title,
			LessonOrder: row.LessonOrder,
			Order:       row.Order,
		})
	}
	return activities, nil
}

func (repo courseRepository) ListSubmissions(ctx context.Context, groupID string, exec ...core.DBExecutor) ([]course.Submission, error) {
	var rows []submissionRow
	err := sqlx.SelectContext(ctx, ext(repo.db, exec), &rows,
		`SELECT s.id, s.student_id, s.course_id, s.activity_id, s.grade, s.status, s.submitted_at
		 FROM submission s
		 JOIN group_student gs ON gs.student_id = s.student_id
		 WHERE gs.group_id = $1`, groupID)
	if err != nil {
		return nil, errors.Wrap(err, "listing submissions")
	}

	subs := make([]course.Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, course.Submission{
			ID:          row.ID,
			StudentID:   row.StudentID,
			CourseID:    row.CourseID,
			ActivityID:  row.ActivityID,
			Grade:       row.Grade.Ptr(),
			Status:      course.SubmissionStatus(row.Status),
			SubmittedAt: row.SubmittedAt,
		})
	}
	return subs, nil
}
