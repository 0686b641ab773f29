package user

import (
	"strings"
	"time"
)

// Roles
const (
	// Admin
	RoleAdmin = "admin:"

	// Teacher
	RoleTeacher = "teacher:"
	// RoleTeacherAdmin carries blanket grading privileges: its holder may manage
	// closures in any group, owned or not.
	RoleTeacherAdmin = "teacher:admin"

	// Student
	RoleStudent = "student:"
)

var (
	AdminRoles   = []string{RoleAdmin}
	TeacherRoles = []string{RoleTeacher, RoleTeacherAdmin}
	StudentRoles = []string{RoleStudent}

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Admin Teacher", Value: RoleTeacherAdmin},
		{Name: "Admin", Value: RoleAdmin},
	}
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// User is an actor known to the identity service. Authentication happens
// upstream; this model only carries what authorization decisions need.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsActive  *bool     `json:"is_active"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (u *User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.RoleStartsWith(RoleAdmin)
}

func (u *User) IsTeacher() bool {
	return u.RoleStartsWith(RoleTeacher)
}

// IsAdminTeacher reports whether the user may manage closures in any group.
func (u *User) IsAdminTeacher() bool {
	return u.IsAdmin() || u.HasRole(RoleTeacherAdmin)
}

func (u *User) IsStudent() bool {
	return u.RoleStartsWith(RoleStudent)
}
