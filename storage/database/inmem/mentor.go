package inmemdb

import (
	"context"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/mentor"
)

type mentorRepository struct {
	db *DB
}

var _ mentor.Repository = (*mentorRepository)(nil)

func NewMentorRepository(db *DB) *mentorRepository {
	return &mentorRepository{db: db}
}

func (repo *mentorRepository) GetAccess(ctx context.Context, groupID, mentorID string, exec ...core.DBExecutor) (mentor.Access, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if access, ok := repo.db.mentorAccess[mentorAccessKey(groupID, mentorID)]; ok {
		return access, nil
	}
	return mentor.Access{}, mentor.ErrNoEntry
}

func (repo *mentorRepository) UpsertAccess(ctx context.Context, access mentor.Access, exec ...core.DBExecutor) (mentor.Access, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.mentorAccess[mentorAccessKey(access.GroupID, access.MentorID)] = access
	return access, nil
}

func (repo *mentorRepository) DeleteAccess(ctx context.Context, groupID, mentorID string, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.mentorAccess, mentorAccessKey(groupID, mentorID))
	return nil
}
