package closure

import (
	"context"
	"math"
	"net/mail"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/group"
	"github.com/trezcool/darasa/core/mentor"
	"github.com/trezcool/darasa/core/user"
)

var nowFunc = time.Now // mockable

// overrideEpsilon is the tolerance under which a final grade still counts as
// an accepted aggregate rather than a manual override.
const overrideEpsilon = 0.01

type (
	Service interface {
		// Overview returns the grading grid of a (group, course) pair: one row
		// per roster student with live or frozen grade state.
		Overview(ctx context.Context, actor user.User, groupID, courseID string) ([]StudentOverview, error)

		// Close finalizes a student's grade. The aggregate is recomputed fresh
		// at close time; it is never trusted from stale caller state. Closing
		// an already-closed record with the same inputs yields an equivalent
		// record.
		Close(ctx context.Context, actor user.User, groupID, courseID, studentID string, finalGrade float64) (Record, error)

		// Reopen reverts a closed grade to the editable state, preserving the
		// prior grades and closure audit fields as history.
		Reopen(ctx context.Context, actor user.User, groupID, courseID, studentID string) (Record, error)

		// CloseAll closes every open grade of the pair; see bulk.go.
		CloseAll(ctx context.Context, actor user.User, groupID, courseID string, in BulkClose) (BulkResult, error)
	}

	service struct {
		repo       Repository
		groupRepo  group.Repository
		courseRepo course.Repository
		mentorSvc  mentor.Service
		mailSvc    core.EmailService
		chunkSize  int
	}
)

var _ Service = (*service)(nil)

func NewService(
	conf *core.Config,
	repo Repository,
	groupRepo group.Repository,
	courseRepo course.Repository,
	mentorSvc mentor.Service,
	mailSvc core.EmailService,
) *service {
	chunkSize := conf.BulkCloseChunkSize
	if chunkSize <= 0 {
		chunkSize = 400
	}
	return &service{
		repo:       repo,
		groupRepo:  groupRepo,
		courseRepo: courseRepo,
		mentorSvc:  mentorSvc,
		mailSvc:    mailSvc,
		chunkSize:  chunkSize,
	}
}

func (svc *service) Overview(ctx context.Context, actor user.User, groupID, courseID string) ([]StudentOverview, error) {
	grp, err := svc.groupRepo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err = svc.authorize(ctx, actor, grp, courseID); err != nil {
		return nil, err
	}

	aggs, err := svc.rosterAggregates(ctx, grp, courseID)
	if err != nil {
		return nil, err
	}
	records, err := svc.recordsByEnrollment(ctx, grp, courseID)
	if err != nil {
		return nil, err
	}

	students := sortedRoster(grp)
	rows := make([]StudentOverview, 0, len(students))
	for _, s := range students {
		agg := aggs[s.ID]
		row := StudentOverview{
			StudentID:      s.ID,
			StudentName:    s.Name,
			Status:         StatusOpen,
			GradedCount:    agg.GradedCount,
			TotalEvaluable: agg.TotalEvaluable,
		}
		if rec, ok := records[grp.EnrollmentID(s.ID)]; ok && !rec.IsOpen() {
			// frozen state
			row.Status = StatusClosed
			row.AutoGrade = rec.AutoGrade
			row.FinalGrade = rec.FinalGrade
			row.ManualOverride = rec.ManualOverride
			row.PendingUngradedCount = rec.PendingUngradedCount
		} else {
			// live state
			row.AutoGrade = agg.AutoGrade
			row.PendingUngradedCount = agg.PendingUngradedCount
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (svc *service) Close(ctx context.Context, actor user.User, groupID, courseID, studentID string, finalGrade float64) (Record, error) {
	if !core.ValidGrade(finalGrade) {
		return Record{}, ErrInvalidGrade
	}

	grp, err := svc.groupRepo.GetGroup(ctx, groupID)
	if err != nil {
		return Record{}, err
	}
	if err = svc.authorize(ctx, actor, grp, courseID); err != nil {
		return Record{}, err
	}
	student, ok := grp.GetStudent(studentID)
	if !ok {
		return Record{}, ErrNotEnrolled
	}

	agg, err := svc.studentAggregate(ctx, grp, courseID, studentID)
	if err != nil {
		return Record{}, err
	}

	rec, err := svc.loadOrOpen(ctx, grp, courseID, studentID)
	if err != nil {
		return Record{}, err
	}
	applyClose(&rec, agg, finalGrade, actor.ID, nowFunc().UTC())

	rec, err = svc.repo.UpsertClosure(ctx, rec)
	if err != nil {
		return Record{}, err
	}

	svc.sendGradeClosedMail(ctx, student, rec)
	return rec, nil
}

func (svc *service) Reopen(ctx context.Context, actor user.User, groupID, courseID, studentID string) (Record, error) {
	grp, err := svc.groupRepo.GetGroup(ctx, groupID)
	if err != nil {
		return Record{}, err
	}
	if err = svc.authorize(ctx, actor, grp, courseID); err != nil {
		return Record{}, err
	}
	if !grp.HasStudent(studentID) {
		return Record{}, ErrNotEnrolled
	}

	rec, err := svc.repo.GetClosure(ctx, grp.EnrollmentID(studentID))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			// an absent record is Open; there is nothing to reopen
			return Record{}, ErrNotClosed
		}
		return Record{}, err
	}
	if rec.IsOpen() {
		return Record{}, ErrNotClosed
	}

	agg, err := svc.studentAggregate(ctx, grp, courseID, studentID)
	if err != nil {
		return Record{}, err
	}

	now := nowFunc().UTC()
	rec.Status = StatusOpen
	// FinalGrade, AutoGrade and ManualOverride stay as historical values;
	// the closure audit fields are not erased.
	rec.PendingUngradedCount = agg.PendingUngradedCount
	rec.ReopenedAt = now
	rec.ReopenedBy = actor.ID
	rec.UpdatedAt = now

	return svc.repo.UpsertClosure(ctx, rec)
}

// authorize gates every engine read and write: the actor must be a teacher and
// the course must be in their visible set for the group.
func (svc *service) authorize(ctx context.Context, actor user.User, grp group.Group, courseID string) error {
	ok, err := svc.mentorSvc.CanAccessCourse(ctx, actor, grp, courseID)
	if err != nil {
		if errors.Cause(err) == mentor.ErrUnauthorized {
			return ErrUnauthorized
		}
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

func (svc *service) loadOrOpen(ctx context.Context, grp group.Group, courseID, studentID string) (Record, error) {
	enrID := grp.EnrollmentID(studentID)
	rec, err := svc.repo.GetClosure(ctx, enrID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return openRecord(enrID, grp.ID, courseID, studentID), nil
		}
		return Record{}, err
	}
	return rec, nil
}

// applyClose stamps the close transition onto `rec`, keeping any reopen audit
// history it carries.
func applyClose(rec *Record, agg Aggregate, finalGrade float64, actorID string, now time.Time) {
	fg := finalGrade
	rec.Status = StatusClosed
	rec.AutoGrade = agg.AutoGrade
	rec.FinalGrade = &fg
	rec.ManualOverride = isOverride(agg.AutoGrade, finalGrade)
	rec.PendingUngradedCount = agg.PendingUngradedCount
	rec.ClosedAt = now
	rec.ClosedBy = actorID
	rec.UpdatedAt = now
}

func (svc *service) recordsByEnrollment(ctx context.Context, grp group.Group, courseID string) (map[string]Record, error) {
	recs, err := svc.repo.QueryClosures(ctx, grp.ID, courseID)
	if err != nil {
		return nil, err
	}
	byEnrollment := make(map[string]Record, len(recs))
	for _, rec := range recs {
		byEnrollment[rec.EnrollmentID] = rec
	}
	return byEnrollment, nil
}

// studentAggregate recomputes one student's aggregate from current activity
// and submission state.
func (svc *service) studentAggregate(ctx context.Context, grp group.Group, courseID, studentID string) (Aggregate, error) {
	aggs, err := svc.rosterAggregates(ctx, grp, courseID)
	if err != nil {
		return Aggregate{}, err
	}
	return aggs[studentID], nil
}

// rosterAggregates computes the aggregate of every roster student in one pass
// over the group's submissions. Submissions are ordered by SubmittedAt before
// deduplication so "latest wins" is deterministic even when the source lists
// them in arbitrary order.
func (svc *service) rosterAggregates(ctx context.Context, grp group.Group, courseID string) (map[string]Aggregate, error) {
	activities, err := svc.courseRepo.ListEvaluableActivities(ctx, courseID)
	if err != nil {
		return nil, err
	}
	submissions, err := svc.courseRepo.ListSubmissions(ctx, grp.ID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(submissions, func(i, j int) bool {
		return submissions[i].SubmittedAt.Before(submissions[j].SubmittedAt)
	})

	byStudent := make(map[string][]course.Submission, len(grp.Students))
	for _, sub := range submissions {
		byStudent[sub.StudentID] = append(byStudent[sub.StudentID], sub)
	}

	aggs := make(map[string]Aggregate, len(grp.Students))
	for _, s := range grp.Students {
		aggs[s.ID] = ComputeAggregate(activities, byStudent[s.ID])
	}
	return aggs, nil
}

func (svc *service) sendGradeClosedMail(ctx context.Context, student group.Student, rec Record) {
	if svc.mailSvc == nil || student.Email == "" {
		return
	}

	courseTitle := rec.CourseID
	if crs, err := svc.courseRepo.GetCourse(ctx, rec.CourseID); err == nil {
		courseTitle = crs.Title
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject:      "Your grade for " + courseTitle + " has been finalized",
		TemplateName: "grade-closed",
		TemplateData: struct {
			StudentName string
			CourseTitle string
			FinalGrade  float64
		}{
			StudentName: student.Name,
			CourseTitle: courseTitle,
			FinalGrade:  *rec.FinalGrade,
		},
	})
}

// isOverride applies the override invariant: no aggregate to agree with, or a
// material difference between final and automatic grades.
func isOverride(autoGrade *float64, finalGrade float64) bool {
	if autoGrade == nil {
		return true
	}
	return math.Abs(finalGrade-*autoGrade) > overrideEpsilon
}

func sortedRoster(grp group.Group) []group.Student {
	students := make([]group.Student, len(grp.Students))
	copy(students, grp.Students)
	sort.Slice(students, func(i, j int) bool {
		if students[i].Name != students[j].Name {
			return students[i].Name < students[j].Name
		}
		return students[i].ID < students[j].ID
	})
	return students
}
