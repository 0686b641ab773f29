package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/mentor"
)

type mentorRepository struct {
	db *sqlx.DB
}

var _ mentor.Repository = (*mentorRepository)(nil) // interface compliance check

func NewMentorRepository(db *sqlx.DB) *mentorRepository {
	return &mentorRepository{db: db}
}

type mentorAccessRow struct {
	GroupID   string         `db:"group_id"`
	MentorID  string         `db:"mentor_id"`
	CourseIDs pq.StringArray `db:"course_ids"`
	UpdatedAt null.Time      `db:"updated_at"`
	UpdatedBy null.String    `db:"updated_by"`
}

func (row mentorAccessRow) toAccess() mentor.Access {
	return mentor.Access{
		GroupID:   row.GroupID,
		MentorID:  row.MentorID,
		CourseIDs: row.CourseIDs,
		UpdatedAt: row.UpdatedAt.Time,
		UpdatedBy: row.UpdatedBy.String,
	}
}

func (repo mentorRepository) GetAccess(ctx context.Context, groupID, mentorID string, exec ...core.DBExecutor) (mentor.Access, error) {
	var row mentorAccessRow
	err := sqlx.GetContext(ctx, ext(repo.db, exec), &row,
		`SELECT group_id, mentor_id, course_ids, updated_at, updated_by
		 FROM mentor_access WHERE group_id = $1 AND mentor_id = $2`, groupID, mentorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return mentor.Access{}, mentor.ErrNoEntry
		}
		return mentor.Access{}, errors.Wrap(err, "getting mentor access")
	}
	return row.toAccess(), nil
}

func (repo mentorRepository) UpsertAccess(ctx context.Context, access mentor.Access, exec ...core.DBExecutor) (mentor.Access, error) {
	row := mentorAccessRow{
		GroupID:   access.GroupID,
		MentorID:  access.MentorID,
		CourseIDs: pq.StringArray(access.CourseIDs),
		UpdatedAt: null.NewTime(access.UpdatedAt.UTC(), !access.UpdatedAt.IsZero()),
		UpdatedBy: null.NewString(access.UpdatedBy, access.UpdatedBy != ""),
	}
	if row.CourseIDs == nil {
		row.CourseIDs = pq.StringArray{}
	}

	_, err := sqlx.NamedExecContext(ctx, ext(repo.db, exec), `
		INSERT INTO mentor_access (group_id, mentor_id, course_ids, updated_at, updated_by)
		VALUES (:group_id, :mentor_id, :course_ids, :updated_at, :updated_by)
		ON CONFLICT (group_id, mentor_id) DO UPDATE SET
			course_ids = EXCLUDED.course_ids,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by`, row)
	if err != nil {
		return mentor.Access{}, errors.Wrap(err, "upserting mentor access")
	}
	return access, nil
}

func (repo mentorRepository) DeleteAccess(ctx context.Context, groupID, mentorID string, exec ...core.DBExecutor) error {
	_, err := ext(repo.db, exec).ExecContext(ctx,
		`DELETE FROM mentor_access WHERE group_id = $1 AND mentor_id = $2`, groupID, mentorID)
	return errors.Wrap(err, "deleting mentor access")
}
