package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/closure"
)

type closureRepository struct {
	db *sqlx.DB
}

var _ closure.Repository = (*closureRepository)(nil) // interface compliance check

func NewClosureRepository(db *sqlx.DB) *closureRepository {
	return &closureRepository{db: db}
}

type closureRow struct {
	EnrollmentID         string       `db:"enrollment_id"`
	GroupID              string       `db:"group_id"`
	CourseID             string       `db:"course_id"`
	StudentID            string       `db:"student_id"`
	Status               string       `db:"status"`
	AutoGrade            null.Float64 `db:"auto_grade"`
	FinalGrade           null.Float64 `db:"final_grade"`
	ManualOverride       bool         `db:"manual_override"`
	PendingUngradedCount int          `db:"pending_ungraded_count"`
	ClosedAt             null.Time    `db:"closed_at"`
	ClosedBy             null.String  `db:"closed_by"`
	ReopenedAt           null.Time    `db:"reopened_at"`
	ReopenedBy           null.String  `db:"reopened_by"`
	UpdatedAt            null.Time    `db:"updated_at"`
}

func toClosureRow(rec closure.Record) closureRow {
	return closureRow{
		EnrollmentID:         rec.EnrollmentID,
		GroupID:              rec.GroupID,
		CourseID:             rec.CourseID,
		StudentID:            rec.StudentID,
		Status:               string(rec.Status),
		AutoGrade:            null.Float64FromPtr(rec.AutoGrade),
		FinalGrade:           null.Float64FromPtr(rec.FinalGrade),
		ManualOverride:       rec.ManualOverride,
		PendingUngradedCount: rec.PendingUngradedCount,
		ClosedAt:             null.NewTime(rec.ClosedAt.UTC(), !rec.ClosedAt.IsZero()),
		ClosedBy:             null.NewString(rec.ClosedBy, rec.ClosedBy != ""),
		ReopenedAt:           null.NewTime(rec.ReopenedAt.UTC(), !rec.ReopenedAt.IsZero()),
		ReopenedBy:           null.NewString(rec.ReopenedBy, rec.ReopenedBy != ""),
		UpdatedAt:            null.NewTime(rec.UpdatedAt.UTC(), !rec.UpdatedAt.IsZero()),
	}
}

func (row closureRow) toRecord() closure.Record {
	return closure.Record{
		EnrollmentID:         row.EnrollmentID,
		GroupID:              row.GroupID,
		CourseID:             row.CourseID,
		StudentID:            row.StudentID,
		Status:               closure.Status(row.Status),
		AutoGrade:            row.AutoGrade.Ptr(),
		FinalGrade:           row.FinalGrade.Ptr(),
		ManualOverride:       row.ManualOverride,
		PendingUngradedCount: row.PendingUngradedCount,
		ClosedAt:             row.ClosedAt.Time,
		ClosedBy:             row.ClosedBy.String,
		ReopenedAt:           row.ReopenedAt.Time,
		ReopenedBy:           row.ReopenedBy.String,
		UpdatedAt:            row.UpdatedAt.Time,
	}
}

var closureOrdering = core.DBOrdering{Field: "student_id", Ascending: true}

const closureColumns = `enrollment_id, group_id, course_id, student_id, status, auto_grade, final_grade,
	manual_override, pending_ungraded_count, closed_at, closed_by, reopened_at, reopened_by, updated_at`

const upsertClosureQuery = `
	INSERT INTO closure_record (` + closureColumns + `)
	VALUES (:enrollment_id, :group_id, :course_id, :student_id, :status, :auto_grade, :final_grade,
		:manual_override, :pending_ungraded_count, :closed_at, :closed_by, :reopened_at, :reopened_by, :updated_at)
	ON CONFLICT (enrollment_id) DO UPDATE SET
		status                 = EXCLUDED.status,
		auto_grade             = EXCLUDED.auto_grade,
		final_grade            = EXCLUDED.final_grade,
		manual_override        = EXCLUDED.manual_override,
		pending_ungraded_count = EXCLUDED.pending_ungraded_count,
		closed_at              = EXCLUDED.closed_at,
		closed_by              = EXCLUDED.closed_by,
		reopened_at            = EXCLUDED.reopened_at,
		reopened_by            = EXCLUDED.reopened_by,
		updated_at             = EXCLUDED.updated_at`

func (repo closureRepository) GetClosure(ctx context.Context, enrollmentID string, exec ...core.DBExecutor) (closure.Record, error) {
	var row closureRow
	err := sqlx.GetContext(ctx, ext(repo.db, exec), &row,
		`SELECT `+closureColumns+` FROM closure_record WHERE enrollment_id = $1`, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return closure.Record{}, closure.ErrNotFound
		}
		return closure.Record{}, errors.Wrap(err, "getting closure record")
	}
	return row.toRecord(), nil
}

func (repo closureRepository) UpsertClosure(ctx context.Context, rec closure.Record, exec ...core.DBExecutor) (closure.Record, error) {
	if _, err := sqlx.NamedExecContext(ctx, ext(repo.db, exec), upsertClosureQuery, toClosureRow(rec)); err != nil {
		return closure.Record{}, errors.Wrap(err, "upserting closure record")
	}
	return rec, nil
}

func (repo closureRepository) QueryClosures(ctx context.Context, groupID, courseID string, exec ...core.DBExecutor) ([]closure.Record, error) {
	var rows []closureRow
	err := sqlx.SelectContext(ctx, ext(repo.db, exec), &rows,
		`SELECT `+closureColumns+` FROM closure_record WHERE group_id = $1 AND course_id = $2 ORDER BY `+closureOrdering.String(),
		groupID, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying closure records")
	}

	recs := make([]closure.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.toRecord())
	}
	return recs, nil
}

// UpsertClosures writes all records in a single transaction. When the caller
// already runs one, its executor is reused and commit stays with the caller.
func (repo closureRepository) UpsertClosures(ctx context.Context, recs []closure.Record, exec ...core.DBExecutor) error {
	if len(exec) > 0 {
		return repo.upsertAll(ctx, ext(repo.db, exec), recs)
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = repo.upsertAll(ctx, tx, recs); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing closure records")
}

func (repo closureRepository) upsertAll(ctx context.Context, e sqlx.ExtContext, recs []closure.Record) error {
	for _, rec := range recs {
		if _, err := sqlx.NamedExecContext(ctx, e, upsertClosureQuery, toClosureRow(rec)); err != nil {
			return errors.Wrap(err, "upserting closure record")
		}
	}
	return nil
}
