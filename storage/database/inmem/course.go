package inmemdb

import (
	"context"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string, exec ...core.DBExecutor) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if crs, ok := repo.db.courses[id]; ok {
		return crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) ListEvaluableActivities(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]course.EvaluableActivity, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	activities := make([]course.EvaluableActivity, len(repo.db.activities[courseID]))
	copy(activities, repo.db.activities[courseID])
	return activities, nil
}

func (repo *courseRepository) ListSubmissions(ctx context.Context, groupID string, exec ...core.DBExecutor) ([]course.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	submissions := make([]course.Submission, len(repo.db.submissions[groupID]))
	copy(submissions, repo.db.submissions[groupID])
	return submissions, nil
}
