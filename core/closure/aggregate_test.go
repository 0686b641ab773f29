package closure

import (
	"testing"
	"time"

	"github.com/trezcool/darasa/core/course"
)

func TestComputeAggregate(t *testing.T) {
	activities := []course.EvaluableActivity{
		{ID: "a1", CourseID: "c1", Kind: course.KindQuiz},
		{ID: "a2", CourseID: "c1", Kind: course.KindGradedAssignment},
		{ID: "a3", CourseID: "c1", Kind: course.KindQuiz},
		{ID: "a4", CourseID: "c1", Kind: course.KindGradedAssignment},
	}
	at := time.Date(2021, 5, 3, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		activities  []course.EvaluableActivity
		submissions []course.Submission
		want        Aggregate
	}{
		{
			name: "no evaluable activities",
			want: Aggregate{},
		},
		{
			name:       "no submissions",
			activities: activities,
			want:       Aggregate{TotalEvaluable: 4, PendingUngradedCount: 4},
		},
		{
			name:       "three graded one pending",
			activities: activities,
			submissions: []course.Submission{
				{ID: "s1", CourseID: "c1", ActivityID: "a1", Grade: fptr(85), Status: course.StatusGraded, SubmittedAt: at},
				{ID: "s2", CourseID: "c1", ActivityID: "a2", Grade: fptr(92), Status: course.StatusGraded, SubmittedAt: at},
				{ID: "s3", CourseID: "c1", ActivityID: "a3", Grade: fptr(88.5), Status: course.StatusGraded, SubmittedAt: at},
				{ID: "s4", CourseID: "c1", ActivityID: "a4", Status: course.StatusSubmitted, SubmittedAt: at},
			},
			want: Aggregate{AutoGrade: fptr(88.5), GradedCount: 3, TotalEvaluable: 4, PendingUngradedCount: 1},
		},
		{
			name:       "all submitted none graded",
			activities: activities,
			submissions: []course.Submission{
				{ID: "s1", CourseID: "c1", ActivityID: "a1", Status: course.StatusSubmitted, SubmittedAt: at},
				{ID: "s2", CourseID: "c1", ActivityID: "a2", Status: course.StatusSubmitted, SubmittedAt: at},
			},
			want: Aggregate{TotalEvaluable: 4, PendingUngradedCount: 4},
		},
		{
			name:       "graded status without numeric grade counts but stays out of the mean",
			activities: activities,
			submissions: []course.Submission{
				{ID: "s1", CourseID: "c1", ActivityID: "a1", Grade: fptr(80), Status: course.StatusGraded, SubmittedAt: at},
				{ID: "s2", CourseID: "c1", ActivityID: "a2", Status: course.StatusGraded, SubmittedAt: at},
			},
			want: Aggregate{AutoGrade: fptr(80), GradedCount: 2, TotalEvaluable: 4, PendingUngradedCount: 2},
		},
		{
			name:       "no numeric grades yields nil not zero",
			activities: activities,
			submissions: []course.Submission{
				{ID: "s1", CourseID: "c1", ActivityID: "a1", Status: course.StatusGraded, SubmittedAt: at},
			},
			want: Aggregate{GradedCount: 1, TotalEvaluable: 4, PendingUngradedCount: 3},
		},
		{
			name:       "zero grade is a real grade",
			activities: activities[:1],
			submissions: []course.Submission{
				{ID: "s1", CourseID: "c1", ActivityID: "a1", Grade: fptr(0), Status: course.StatusGraded, SubmittedAt: at},
			},
			want: Aggregate{AutoGrade: fptr(0), GradedCount: 1, TotalEvaluable: 1},
		},
		{
			name:       "latest submission per activity wins",
			activities: activities[:1],
			submissions: []course.Submission{
				{ID: "s1", CourseID: "c1", ActivityID: "a1", Grade: fptr(40), Status: course.StatusGraded, SubmittedAt: at},
				{ID: "s2", CourseID: "c1", ActivityID: "a1", Grade: fptr(95), Status: course.StatusGraded, SubmittedAt: at.Add(time.Hour)},
			},
			want: Aggregate{AutoGrade: fptr(95), GradedCount: 1, TotalEvaluable: 1},
		},
		{
			name:       "latest ungraded resubmission supersedes a graded one",
			activities: activities[:1],
			submissions: []course.Submission{
				{ID: "s1", CourseID: "c1", ActivityID: "a1", Grade: fptr(40), Status: course.StatusGraded, SubmittedAt: at},
				{ID: "s2", CourseID: "c1", ActivityID: "a1", Status: course.StatusSubmitted, SubmittedAt: at.Add(time.Hour)},
			},
			want: Aggregate{TotalEvaluable: 1, PendingUngradedCount: 1},
		},
		{
			name:       "submissions to non-evaluable activities are ignored",
			activities: activities[:1],
			submissions: []course.Submission{
				{ID: "s1", CourseID: "c1", ActivityID: "lecture-notes", Grade: fptr(100), Status: course.StatusGraded, SubmittedAt: at},
			},
			want: Aggregate{TotalEvaluable: 1, PendingUngradedCount: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeAggregate(tt.activities, tt.submissions)
			checkAggregate(t, got, tt.want)
		})
	}
}

func checkAggregate(t *testing.T, got, want Aggregate) {
	t.Helper()

	if (got.AutoGrade == nil) != (want.AutoGrade == nil) {
		t.Errorf("AutoGrade = %v, want %v", got.AutoGrade, want.AutoGrade)
	} else if got.AutoGrade != nil && *got.AutoGrade != *want.AutoGrade {
		t.Errorf("AutoGrade = %v, want %v", *got.AutoGrade, *want.AutoGrade)
	}
	if got.GradedCount != want.GradedCount {
		t.Errorf("GradedCount = %d, want %d", got.GradedCount, want.GradedCount)
	}
	if got.TotalEvaluable != want.TotalEvaluable {
		t.Errorf("TotalEvaluable = %d, want %d", got.TotalEvaluable, want.TotalEvaluable)
	}
	if got.PendingUngradedCount < 0 {
		t.Errorf("PendingUngradedCount = %d, must never be negative", got.PendingUngradedCount)
	}
	if got.PendingUngradedCount != want.PendingUngradedCount {
		t.Errorf("PendingUngradedCount = %d, want %d", got.PendingUngradedCount, want.PendingUngradedCount)
	}
}
