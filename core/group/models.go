package group

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var (
	// ErrNotFound is returned when no group matches the requested ID.
	ErrNotFound = errors.New("group not found")

	// enrollmentNS namespaces the deterministic enrollment UUIDs.
	// Never change it: enrollment IDs key closure records in the store.
	enrollmentNS = uuid.MustParse("9c7c27ce-7a9d-4e9e-a9f1-2f6d1a8f33da")
)

type (
	// Student is a roster entry. Contact info is denormalized from the
	// identity service when the roster is built.
	Student struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	// Group is a named cohort of students sharing one or more courses,
	// owned by a single teacher.
	Group struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		OwnerID   string    `json:"owner_id"` // owning teacher
		CourseIDs []string  `json:"course_ids"`
		Students  []Student `json:"students"`
		CreatedAt time.Time `json:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at"` // UTC
	}

	Repository interface {
		GetGroup(ctx context.Context, id string, exec ...core.DBExecutor) (Group, error)
	}
)

// ManagedBy reports whether `usr` may administer this group: its owning
// teacher, an admin, or an admin teacher.
func (g *Group) ManagedBy(usr user.User) bool {
	if usr.IsAdminTeacher() {
		return true
	}
	return usr.IsTeacher() && g.OwnerID == usr.ID
}

// HasCourse reports whether `courseID` is attached to this group.
func (g *Group) HasCourse(courseID string) bool {
	for _, id := range g.CourseIDs {
		if id == courseID {
			return true
		}
	}
	return false
}

// HasStudent reports whether `studentID` is on this group's roster.
func (g *Group) HasStudent(studentID string) bool {
	for _, s := range g.Students {
		if s.ID == studentID {
			return true
		}
	}
	return false
}

// GetStudent returns the roster entry for `studentID`, if any.
func (g *Group) GetStudent(studentID string) (Student, bool) {
	for _, s := range g.Students {
		if s.ID == studentID {
			return s, true
		}
	}
	return Student{}, false
}

// EnrollmentID derives the stable enrollment identity for a student in this
// group. It is a pure function of (group ID, student ID) so closure records
// can be keyed without a pre-created enrollment row.
func (g *Group) EnrollmentID(studentID string) string {
	return uuid.NewSHA1(enrollmentNS, []byte(g.ID+":"+studentID)).String()
}
