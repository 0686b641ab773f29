package closure

import (
	"context"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/group"
	"github.com/trezcool/darasa/core/user"
)

// CloseAll applies the close transition to every open record of a
// (group, course) pair.
//
// Phase 1 validates everything before any mutation: actor rights, one valid
// grade per targeted student, and — unless acknowledged — the absence of
// pending ungraded activities. Any validation failure rejects the whole
// operation with zero records mutated.
//
// Phase 2 partitions the targets into fixed-size groups and commits each group
// in its own transaction, sequentially. Atomicity holds only within a group: a
// later group's failure leaves earlier groups committed. The result reports
// the committed count and each failed group's students so the caller can retry
// exactly the failed subset. The caller may abort between group commits by
// cancelling the context; already-committed groups stay committed.
func (svc *service) CloseAll(ctx context.Context, actor user.User, groupID, courseID string, in BulkClose) (BulkResult, error) {
	grp, err := svc.groupRepo.GetGroup(ctx, groupID)
	if err != nil {
		return BulkResult{}, err
	}
	if err = svc.authorize(ctx, actor, grp, courseID); err != nil {
		return BulkResult{}, err
	}

	records, err := svc.recordsByEnrollment(ctx, grp, courseID)
	if err != nil {
		return BulkResult{}, err
	}

	// target every roster student whose record is open or absent
	targets := make([]group.Student, 0, len(grp.Students))
	for _, s := range sortedRoster(grp) {
		if rec, ok := records[grp.EnrollmentID(s.ID)]; ok && !rec.IsOpen() {
			continue
		}
		targets = append(targets, s)
	}
	if len(targets) == 0 {
		return BulkResult{}, ErrNothingToClose
	}

	// validate-all-then-commit: every targeted student needs a valid grade
	var fldErrs []core.FieldError
	for _, s := range targets {
		grade, ok := in.Grades[s.ID]
		if !ok {
			fldErrs = append(fldErrs, core.FieldError{Field: s.ID, Error: "final grade is required"})
		} else if !core.ValidGrade(grade) {
			fldErrs = append(fldErrs, core.FieldError{Field: s.ID, Error: ErrInvalidGrade.Error()})
		}
	}
	if len(fldErrs) > 0 {
		return BulkResult{}, core.NewValidationError(ErrInvalidGrade, fldErrs...)
	}

	aggs, err := svc.rosterAggregates(ctx, grp, courseID)
	if err != nil {
		return BulkResult{}, err
	}

	var pending []PendingStudent
	for _, s := range targets {
		if cnt := aggs[s.ID].PendingUngradedCount; cnt > 0 {
			pending = append(pending, PendingStudent{StudentID: s.ID, PendingCount: cnt})
		}
	}
	if len(pending) > 0 && !in.AcknowledgePending {
		return BulkResult{}, &PendingError{Students: pending}
	}

	// the same per-record logic as Close(); bulk and single-student paths
	// never diverge in semantics
	now := nowFunc().UTC()
	recs := make([]Record, 0, len(targets))
	for _, s := range targets {
		rec, ok := records[grp.EnrollmentID(s.ID)]
		if !ok {
			rec = openRecord(grp.EnrollmentID(s.ID), grp.ID, courseID, s.ID)
		}
		applyClose(&rec, aggs[s.ID], in.Grades[s.ID], actor.ID, now)
		recs = append(recs, rec)
	}

	// sequential, size-bounded commit groups
	var res BulkResult
	for start, grpIdx := 0, 0; start < len(recs); start, grpIdx = start+svc.chunkSize, grpIdx+1 {
		end := start + svc.chunkSize
		if end > len(recs) {
			end = len(recs)
		}
		chunk := recs[start:end]

		if cerr := ctx.Err(); cerr != nil {
			res.Failures = append(res.Failures, GroupFailure{Group: grpIdx, StudentIDs: studentIDs(chunk), Err: cerr.Error()})
			continue
		}
		if uerr := svc.repo.UpsertClosures(ctx, chunk); uerr != nil {
			// group-level isolation: report and move on to the next group
			res.Failures = append(res.Failures, GroupFailure{Group: grpIdx, StudentIDs: studentIDs(chunk), Err: uerr.Error()})
			continue
		}
		res.ClosedCount += len(chunk)
	}
	return res, nil
}

func studentIDs(recs []Record) []string {
	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.StudentID)
	}
	return ids
}
