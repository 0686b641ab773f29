package mentor

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/group"
	"github.com/trezcool/darasa/core/user"
)

var (
	// ErrUnauthorized is returned when the actor may not view or manage
	// mentor access in the group.
	ErrUnauthorized = errors.New("actor is not allowed to manage this group")
)

type (
	Service interface {
		// VisibleCourses returns the courses `actor` may see in the group:
		// every attached course for the group's managers, the intersection of
		// the attached set and the actor's allow-list otherwise. A stale
		// allow-list never leaks a course that is no longer attached.
		VisibleCourses(ctx context.Context, actor user.User, groupID string) ([]string, error)

		// CanAccessCourse applies the same filter to a single course of an
		// already-loaded group.
		CanAccessCourse(ctx context.Context, actor user.User, grp group.Group, courseID string) (bool, error)

		Get(ctx context.Context, actor user.User, groupID, mentorID string) (Access, error)
		Grant(ctx context.Context, actor user.User, groupID, mentorID string, ga GrantAccess) (Access, error)
		Revoke(ctx context.Context, actor user.User, groupID, mentorID string) error
	}

	service struct {
		repo      Repository
		groupRepo group.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, groupRepo group.Repository) Service {
	return &service{repo: repo, groupRepo: groupRepo}
}

func (svc *service) VisibleCourses(ctx context.Context, actor user.User, groupID string) ([]string, error) {
	grp, err := svc.groupRepo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return svc.visibleCourses(ctx, actor, grp)
}

func (svc *service) CanAccessCourse(ctx context.Context, actor user.User, grp group.Group, courseID string) (bool, error) {
	visible, err := svc.visibleCourses(ctx, actor, grp)
	if err != nil {
		return false, err
	}
	for _, id := range visible {
		if id == courseID {
			return true, nil
		}
	}
	return false, nil
}

func (svc *service) visibleCourses(ctx context.Context, actor user.User, grp group.Group) ([]string, error) {
	if grp.ManagedBy(actor) {
		return grp.CourseIDs, nil
	}
	if !actor.IsTeacher() {
		return nil, ErrUnauthorized
	}

	access, err := svc.repo.GetAccess(ctx, grp.ID, actor.ID)
	if err != nil {
		if errors.Cause(err) == ErrNoEntry {
			// unrestricted default
			return grp.CourseIDs, nil
		}
		return nil, err
	}

	// intersect with the authoritative attached set; the stored allow-list is
	// not self-sufficient.
	allowed := make(map[string]struct{}, len(access.CourseIDs))
	for _, id := range access.CourseIDs {
		allowed[id] = struct{}{}
	}
	visible := make([]string, 0, len(access.CourseIDs))
	for _, id := range grp.CourseIDs {
		if _, ok := allowed[id]; ok {
			visible = append(visible, id)
		}
	}
	return visible, nil
}

func (svc *service) Get(ctx context.Context, actor user.User, groupID, mentorID string) (Access, error) {
	grp, err := svc.groupRepo.GetGroup(ctx, groupID)
	if err != nil {
		return Access{}, err
	}
	if !grp.ManagedBy(actor) {
		return Access{}, ErrUnauthorized
	}
	return svc.repo.GetAccess(ctx, groupID, mentorID)
}

func (svc *service) Grant(ctx context.Context, actor user.User, groupID, mentorID string, ga GrantAccess) (Access, error) {
	grp, err := svc.groupRepo.GetGroup(ctx, groupID)
	if err != nil {
		return Access{}, err
	}
	if !grp.ManagedBy(actor) {
		return Access{}, ErrUnauthorized
	}

	return svc.repo.UpsertAccess(ctx, Access{
		GroupID:   groupID,
		MentorID:  mentorID,
		CourseIDs: ga.CourseIDs,
		UpdatedAt: time.Now().UTC(),
		UpdatedBy: actor.ID,
	})
}

func (svc *service) Revoke(ctx context.Context, actor user.User, groupID, mentorID string) error {
	grp, err := svc.groupRepo.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if !grp.ManagedBy(actor) {
		return ErrUnauthorized
	}
	return svc.repo.DeleteAccess(ctx, groupID, mentorID)
}
