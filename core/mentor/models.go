package mentor

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

var (
	// ErrNoEntry is returned when a group holds no access entry for a mentor.
	// No entry means no restriction: the mentor sees every attached course.
	ErrNoEntry = errors.New("no mentor access entry")
)

type (
	// Access is a mentor's explicit course allow-list within a group.
	// An existing entry with an empty CourseIDs list hides every course.
	Access struct {
		GroupID   string    `json:"group_id"`
		MentorID  string    `json:"mentor_id"`
		CourseIDs []string  `json:"course_ids"`
		UpdatedAt time.Time `json:"updated_at"` // UTC
		UpdatedBy string    `json:"updated_by"`
	}

	Repository interface {
		// GetAccess returns ErrNoEntry when the mentor has no entry in the group.
		GetAccess(ctx context.Context, groupID, mentorID string, exec ...core.DBExecutor) (Access, error)
		UpsertAccess(ctx context.Context, access Access, exec ...core.DBExecutor) (Access, error)
		DeleteAccess(ctx context.Context, groupID, mentorID string, exec ...core.DBExecutor) error
	}
)

// GrantAccess is the input to (re)define a mentor's allow-list.
type GrantAccess struct {
	CourseIDs []string `json:"course_ids" validate:"required"`
}

func (ga *GrantAccess) Validate(validate *validator.Validate) error {
	return validate.Struct(ga)
}
