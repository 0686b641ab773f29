package inmemdb

import (
	"context"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/closure"
)

type closureRepository struct {
	db *DB
}

var _ closure.Repository = (*closureRepository)(nil)

func NewClosureRepository(db *DB) *closureRepository {
	return &closureRepository{db: db}
}

func (repo *closureRepository) GetClosure(ctx context.Context, enrollmentID string, exec ...core.DBExecutor) (closure.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if rec, ok := repo.db.closures[enrollmentID]; ok {
		return rec, nil
	}
	return closure.Record{}, closure.ErrNotFound
}

func (repo *closureRepository) UpsertClosure(ctx context.Context, rec closure.Record, exec ...core.DBExecutor) (closure.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.closures[rec.EnrollmentID] = rec
	return rec, nil
}

func (repo *closureRepository) QueryClosures(ctx context.Context, groupID, courseID string, exec ...core.DBExecutor) ([]closure.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var recs []closure.Record
	for _, rec := range repo.db.closures {
		if rec.GroupID == groupID && rec.CourseID == courseID {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func (repo *closureRepository) UpsertClosures(ctx context.Context, recs []closure.Record, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, rec := range recs {
		repo.db.closures[rec.EnrollmentID] = rec
	}
	return nil
}
