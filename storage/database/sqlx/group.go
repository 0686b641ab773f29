package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/group"
)

type groupRepository struct {
	db *sqlx.DB
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *sqlx.DB) *groupRepository {
	return &groupRepository{db: db}
}

type groupRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	OwnerID   string    `db:"owner_id"`
	CreatedAt null.Time `db:"created_at"`
	UpdatedAt null.Time `db:"updated_at"`
}

type rosterRow struct {
	StudentID string `db:"student_id"`
	Name      string `db:"student_name"`
	Email     string `db:"student_email"`
}

func (repo groupRepository) GetGroup(ctx context.Context, id string, exec ...core.DBExecutor) (group.Group, error) {
	e := ext(repo.db, exec)

	var row groupRow
	if err := sqlx.GetContext(ctx, e, &row, `SELECT id, name, owner_id, created_at, updated_at FROM "group" WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return group.Group{}, group.ErrNotFound
		}
		return group.Group{}, errors.Wrap(err, "getting group")
	}

	var courseIDs []string
	if err := sqlx.SelectContext(ctx, e, &courseIDs,
		`SELECT course_id FROM group_course WHERE group_id = $1 ORDER BY position`, id); err != nil {
		return group.Group{}, errors.Wrap(err, "listing group courses")
	}

	var roster []rosterRow
	if err := sqlx.SelectContext(ctx, e, &roster,
		`SELECT student_id, student_name, student_email FROM group_student WHERE group_id = $1`, id); err != nil {
		return group.Group{}, errors.Wrap(err, "listing group roster")
	}

	grp := group.Group{
		ID:        row.ID,
		Name:      row.Name,
		OwnerID:   row.OwnerID,
		CourseIDs: courseIDs,
		Students:  make([]group.Student, 0, len(roster)),
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
	for _, s := range roster {
		grp.Students = append(grp.Students, group.Student{ID: s.StudentID, Name: s.Name, Email: s.Email})
	}
	return grp, nil
}
