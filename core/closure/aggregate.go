package closure

import (
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
)

// Aggregate is the automatic grade state computed from a student's
// submissions to a course's evaluable activities.
type Aggregate struct {
	// AutoGrade is the arithmetic mean, rounded to 2 decimal places, of the
	// numeric grades of the latest submission per activity; nil when no
	// submission carries a numeric grade.
	AutoGrade            *float64
	GradedCount          int
	TotalEvaluable       int
	PendingUngradedCount int
}

// ComputeAggregate computes a student's automatic grade over the given
// evaluable activities. Pure and deterministic: no I/O, no side effects.
//
// Duplicate submissions per activity resolve to the most recently encountered
// one; no re-ordering happens here, the caller supplies submissions in the
// desired priority order. A submission counts as graded when it carries a
// numeric grade or an explicit graded status; only numeric grades enter the
// mean.
func ComputeAggregate(activities []course.EvaluableActivity, submissions []course.Submission) Aggregate {
	evaluable := make(map[string]struct{}, len(activities))
	for _, act := range activities {
		evaluable[act.CourseID+"/"+act.ID] = struct{}{}
	}

	// latest submission per activity wins
	latest := make(map[string]course.Submission, len(activities))
	for _, sub := range submissions {
		key := sub.CourseID + "/" + sub.ActivityID
		if _, ok := evaluable[key]; !ok {
			continue
		}
		latest[key] = sub
	}

	agg := Aggregate{TotalEvaluable: len(activities)}

	var sum float64
	var numericCount int
	for _, sub := range latest {
		if !sub.IsGraded() {
			continue
		}
		agg.GradedCount++
		if sub.Grade != nil {
			sum += *sub.Grade
			numericCount++
		}
	}

	// never emit 0 for "no grades"; nil is the only honest answer
	if numericCount > 0 {
		mean := core.Round2(sum / float64(numericCount))
		agg.AutoGrade = &mean
	}

	if pending := agg.TotalEvaluable - agg.GradedCount; pending > 0 {
		agg.PendingUngradedCount = pending
	}
	return agg
}
