package closure

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/group"
	"github.com/trezcool/darasa/core/mentor"
)

var errStoreDown = errors.New("store unavailable")

func fptr(v float64) *float64 { return &v }

// fake repositories

type fakeGroupRepo struct {
	groups map[string]group.Group
}

func (repo *fakeGroupRepo) GetGroup(ctx context.Context, id string, exec ...core.DBExecutor) (group.Group, error) {
	if grp, ok := repo.groups[id]; ok {
		return grp, nil
	}
	return group.Group{}, group.ErrNotFound
}

type fakeCourseRepo struct {
	courses     map[string]course.Course
	activities  map[string][]course.EvaluableActivity // by course ID
	submissions map[string][]course.Submission        // by group ID
}

func (repo *fakeCourseRepo) GetCourse(ctx context.Context, id string, exec ...core.DBExecutor) (course.Course, error) {
	if crs, ok := repo.courses[id]; ok {
		return crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *fakeCourseRepo) ListEvaluableActivities(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]course.EvaluableActivity, error) {
	return repo.activities[courseID], nil
}

func (repo *fakeCourseRepo) ListSubmissions(ctx context.Context, groupID string, exec ...core.DBExecutor) ([]course.Submission, error) {
	subs := make([]course.Submission, len(repo.submissions[groupID]))
	copy(subs, repo.submissions[groupID])
	return subs, nil
}

type fakeClosureRepo struct {
	recs map[string]Record

	bulkCalls      int
	failBulkGroups map[int]bool // UpsertClosures call indices that must fail
}

func newFakeClosureRepo() *fakeClosureRepo {
	return &fakeClosureRepo{recs: make(map[string]Record)}
}

func (repo *fakeClosureRepo) GetClosure(ctx context.Context, enrollmentID string, exec ...core.DBExecutor) (Record, error) {
	if rec, ok := repo.recs[enrollmentID]; ok {
		return rec, nil
	}
	return Record{}, ErrNotFound
}

func (repo *fakeClosureRepo) UpsertClosure(ctx context.Context, rec Record, exec ...core.DBExecutor) (Record, error) {
	repo.recs[rec.EnrollmentID] = rec
	return rec, nil
}

func (repo *fakeClosureRepo) QueryClosures(ctx context.Context, groupID, courseID string, exec ...core.DBExecutor) ([]Record, error) {
	var recs []Record
	for _, rec := range repo.recs {
		if rec.GroupID == groupID && rec.CourseID == courseID {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func (repo *fakeClosureRepo) UpsertClosures(ctx context.Context, recs []Record, exec ...core.DBExecutor) error {
	call := repo.bulkCalls
	repo.bulkCalls++
	if repo.failBulkGroups[call] {
		return errStoreDown
	}
	for _, rec := range recs {
		repo.recs[rec.EnrollmentID] = rec
	}
	return nil
}

type fakeMentorRepo struct {
	access map[string]mentor.Access // by group ID + "/" + mentor ID
}

func (repo *fakeMentorRepo) GetAccess(ctx context.Context, groupID, mentorID string, exec ...core.DBExecutor) (mentor.Access, error) {
	if access, ok := repo.access[groupID+"/"+mentorID]; ok {
		return access, nil
	}
	return mentor.Access{}, mentor.ErrNoEntry
}

func (repo *fakeMentorRepo) UpsertAccess(ctx context.Context, access mentor.Access, exec ...core.DBExecutor) (mentor.Access, error) {
	repo.access[access.GroupID+"/"+access.MentorID] = access
	return access, nil
}

func (repo *fakeMentorRepo) DeleteAccess(ctx context.Context, groupID, mentorID string, exec ...core.DBExecutor) error {
	delete(repo.access, groupID+"/"+mentorID)
	return nil
}

type fakeEmailService struct {
	sent []*core.EmailMessage
}

func (svc *fakeEmailService) SendMessages(messages ...*core.EmailMessage) {
	svc.sent = append(svc.sent, messages...)
}

// test environment

type testEnv struct {
	svc         *service
	closureRepo *fakeClosureRepo
	courseRepo  *fakeCourseRepo
	mentorRepo  *fakeMentorRepo
	mailer      *fakeEmailService
	grp         group.Group
}

func newTestEnv(grp group.Group, crs course.Course, activities []course.EvaluableActivity, subs []course.Submission, chunkSize int) *testEnv {
	groupRepo := &fakeGroupRepo{groups: map[string]group.Group{grp.ID: grp}}
	courseRepo := &fakeCourseRepo{
		courses:     map[string]course.Course{crs.ID: crs},
		activities:  map[string][]course.EvaluableActivity{crs.ID: activities},
		submissions: map[string][]course.Submission{grp.ID: subs},
	}
	closureRepo := newFakeClosureRepo()
	mentorRepo := &fakeMentorRepo{access: make(map[string]mentor.Access)}
	mailer := &fakeEmailService{}

	conf := &core.Config{BulkCloseChunkSize: chunkSize}
	svc := NewService(conf, closureRepo, groupRepo, courseRepo, mentor.NewService(mentorRepo, groupRepo), mailer)

	return &testEnv{
		svc:         svc,
		closureRepo: closureRepo,
		courseRepo:  courseRepo,
		mentorRepo:  mentorRepo,
		mailer:      mailer,
		grp:         grp,
	}
}

func mockNow(now time.Time) func() {
	nowFunc = func() time.Time { return now }
	return func() { nowFunc = time.Now }
}
