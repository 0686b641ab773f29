package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/darasa/core/closure"
	"github.com/trezcool/darasa/core/mentor"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

func Test_closureApi_closureQuery(t *testing.T) {
	db := inmemdb.NewDB()
	grp := seedTestDB(db)
	srv := newTestServer(db)

	ownerToken := getToken(t, testOwner)
	studToken := getToken(t, testStud)

	fgrade := func(v float64) *float64 { return &v }
	wantRows := []closure.StudentOverview{
		{StudentID: "s1", StudentName: "Alice", Status: closure.StatusOpen, AutoGrade: fgrade(88.5), PendingUngradedCount: 1, GradedCount: 3, TotalEvaluable: 4},
		{StudentID: "s2", StudentName: "Ben", Status: closure.StatusOpen, AutoGrade: fgrade(70), GradedCount: 4, TotalEvaluable: 4},
		{StudentID: "s3", StudentName: "Chloe", Status: closure.StatusOpen, PendingUngradedCount: 4, TotalEvaluable: 4},
	}

	path := "/v1/groups/" + grp.ID + "/courses/c1/closures"
	tests := []httpTest{
		{name: "anon", method: http.MethodGet, path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "student forbidden", method: http.MethodGet, path: path, token: studToken, wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"})},
		{name: "unknown group", method: http.MethodGet, path: "/v1/groups/nope/courses/c1/closures", token: ownerToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "group not found"})},
		{name: "detached course", method: http.MethodGet, path: "/v1/groups/" + grp.ID + "/courses/c9/closures", token: ownerToken,
			wantCode: http.StatusForbidden},
		{name: "ok", method: http.MethodGet, path: path, token: ownerToken, wantCode: http.StatusOK, wantData: marchallObj(t, wantRows)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_closureApi_closureClose(t *testing.T) {
	db := inmemdb.NewDB()
	grp := seedTestDB(db)
	srv := newTestServer(db)

	// this mentor may only see c2
	_, _ = inmemdb.NewMentorRepository(db).UpsertAccess(context.Background(), mentor.Access{
		GroupID: grp.ID, MentorID: testMentor.ID, CourseIDs: []string{"c2"},
	})

	ownerToken := getToken(t, testOwner)
	mentorToken := getToken(t, testMentor)

	path := "/v1/groups/" + grp.ID + "/courses/c1/students/s1/closure"
	tests := []httpTest{
		{name: "anon", method: http.MethodPost, path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "mentor outside allow-list", method: http.MethodPost, path: path, token: mentorToken,
			body: []byte(`{"final_grade": 90}`), wantCode: http.StatusForbidden},
		{name: "missing final grade", method: http.MethodPost, path: path, token: ownerToken,
			body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"final_grade": "this field is required"})},
		{name: "grade out of scale", method: http.MethodPost, path: path, token: ownerToken,
			body: []byte(`{"final_grade": 110}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"final_grade": "must be a number between 0 and 100"})},
		{name: "unknown student", method: http.MethodPost, path: "/v1/groups/" + grp.ID + "/courses/c1/students/s9/closure",
			token: ownerToken, body: []byte(`{"final_grade": 90}`), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "student is not enrolled in this group"})},
		{name: "ok", method: http.MethodPost, path: path, token: ownerToken,
			body: []byte(`{"final_grade": 90}`), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.name == "ok" {
				var rec2 closure.Record
				if err := json.Unmarshal(rec.Body.Bytes(), &rec2); err != nil {
					t.Fatalf("unmarshalling record: %v", err)
				}
				if rec2.Status != closure.StatusClosed {
					t.Errorf("Status = %q, want %q", rec2.Status, closure.StatusClosed)
				}
				if rec2.FinalGrade == nil || *rec2.FinalGrade != 90 {
					t.Errorf("FinalGrade = %v, want 90", rec2.FinalGrade)
				}
				if !rec2.ManualOverride {
					t.Error("ManualOverride = false, want true")
				}
				if rec2.ClosedBy != testOwner.ID {
					t.Errorf("ClosedBy = %q, want %q", rec2.ClosedBy, testOwner.ID)
				}
			}
		})
	}
}

func Test_closureApi_closureReopen(t *testing.T) {
	db := inmemdb.NewDB()
	grp := seedTestDB(db)
	srv := newTestServer(db)

	ownerToken := getToken(t, testOwner)
	path := "/v1/groups/" + grp.ID + "/courses/c1/students/s2/closure"

	// nothing closed yet
	req, rec := newAuthRequest(http.MethodDelete, path, ownerToken)
	srv.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "grade is not closed"})}, rec)

	// close then reopen
	req, rec = newAuthRequest(http.MethodPost, path, ownerToken, []byte(`{"final_grade": 70}`))
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("close failed! code = %v, body = %s", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodDelete, path, ownerToken)
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("reopen failed! code = %v, body = %s", rec.Code, rec.Body.String())
	}
	var rec2 closure.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &rec2); err != nil {
		t.Fatalf("unmarshalling record: %v", err)
	}
	if rec2.Status != closure.StatusOpen {
		t.Errorf("Status = %q, want %q", rec2.Status, closure.StatusOpen)
	}
	if rec2.FinalGrade == nil || *rec2.FinalGrade != 70 {
		t.Errorf("FinalGrade = %v, want 70 kept as history", rec2.FinalGrade)
	}
	if rec2.ReopenedBy != testOwner.ID {
		t.Errorf("ReopenedBy = %q, want %q", rec2.ReopenedBy, testOwner.ID)
	}
}

func Test_closureApi_closureCloseAll(t *testing.T) {
	db := inmemdb.NewDB()
	grp := seedTestDB(db)
	srv := newTestServer(db)

	ownerToken := getToken(t, testOwner)
	path := "/v1/groups/" + grp.ID + "/courses/c1/closures"

	t.Run("missing grades", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, ownerToken, []byte(`{"grades": {"s1": 90}, "acknowledge_pending": true}`))
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"s2": "final grade is required", "s3": "final grade is required"}),
		}, rec)
	})

	t.Run("pending work not acknowledged", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, ownerToken, []byte(`{"grades": {"s1": 90, "s2": 70, "s3": 50}}`))
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusConflict {
			t.Fatalf("failed! code = %v, body = %s", rec.Code, rec.Body.String())
		}
		var body struct {
			Error           string                   `json:"error"`
			PendingStudents []closure.PendingStudent `json:"pending_students"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("unmarshalling body: %v", err)
		}
		wantPending := []closure.PendingStudent{{StudentID: "s1", PendingCount: 1}, {StudentID: "s3", PendingCount: 4}}
		if len(body.PendingStudents) != len(wantPending) {
			t.Fatalf("PendingStudents = %+v, want %+v", body.PendingStudents, wantPending)
		}
		for i, want := range wantPending {
			if body.PendingStudents[i] != want {
				t.Errorf("PendingStudents[%d] = %+v, want %+v", i, body.PendingStudents[i], want)
			}
		}
	})

	t.Run("acknowledged", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, ownerToken, []byte(`{"grades": {"s1": 90, "s2": 70, "s3": 50}, "acknowledge_pending": true}`))
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v, body = %s", rec.Code, rec.Body.String())
		}
		var res closure.BulkResult
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("unmarshalling result: %v", err)
		}
		if res.ClosedCount != 3 || len(res.Failures) != 0 {
			t.Errorf("result = %+v, want 3 closed and no failures", res)
		}
	})

	t.Run("nothing left to close", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, ownerToken, []byte(`{"grades": {"s1": 90, "s2": 70, "s3": 50}, "acknowledge_pending": true}`))
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "no open grades to close"}),
		}, rec)
	})
}
