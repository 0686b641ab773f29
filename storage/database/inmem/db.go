package inmemdb

import (
	"sync"

	"github.com/trezcool/darasa/core/closure"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/group"
	"github.com/trezcool/darasa/core/mentor"
)

// DB is an in-memory store for tests and local development.
type DB struct {
	mutex sync.RWMutex

	groups       map[string]group.Group
	courses      map[string]course.Course
	activities   map[string][]course.EvaluableActivity // by course ID
	submissions  map[string][]course.Submission        // by group ID
	closures     map[string]closure.Record             // by enrollment ID
	mentorAccess map[string]mentor.Access              // by group ID + "/" + mentor ID
}

func NewDB() *DB {
	return &DB{
		groups:       make(map[string]group.Group),
		courses:      make(map[string]course.Course),
		activities:   make(map[string][]course.EvaluableActivity),
		submissions:  make(map[string][]course.Submission),
		closures:     make(map[string]closure.Record),
		mentorAccess: make(map[string]mentor.Access),
	}
}

// Seeding helpers

func (db *DB) SetGroup(grp group.Group) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.groups[grp.ID] = grp
}

func (db *DB) SetCourse(crs course.Course) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.courses[crs.ID] = crs
}

func (db *DB) SetActivities(courseID string, activities ...course.EvaluableActivity) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.activities[courseID] = activities
}

func (db *DB) AddSubmissions(groupID string, submissions ...course.Submission) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.submissions[groupID] = append(db.submissions[groupID], submissions...)
}

func mentorAccessKey(groupID, mentorID string) string {
	return groupID + "/" + mentorID
}
