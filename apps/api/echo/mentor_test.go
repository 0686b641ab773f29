package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/trezcool/darasa/core/mentor"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

func Test_mentorApi_courseList(t *testing.T) {
	db := inmemdb.NewDB()
	grp := seedTestDB(db)
	srv := newTestServer(db)

	ownerToken := getToken(t, testOwner)
	mentorToken := getToken(t, testMentor)
	studToken := getToken(t, testStud)

	path := "/v1/groups/" + grp.ID + "/courses"
	tests := []httpTest{
		{name: "anon", method: http.MethodGet, path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "student forbidden", method: http.MethodGet, path: path, token: studToken, wantCode: http.StatusForbidden},
		{name: "owner sees all attached courses", method: http.MethodGet, path: path, token: ownerToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, echo.Map{"course_ids": []string{"c1", "c2"}})},
		{name: "mentor without entry sees all attached courses", method: http.MethodGet, path: path, token: mentorToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, echo.Map{"course_ids": []string{"c1", "c2"}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_mentorApi_access(t *testing.T) {
	db := inmemdb.NewDB()
	grp := seedTestDB(db)
	srv := newTestServer(db)

	ownerToken := getToken(t, testOwner)
	mentorToken := getToken(t, testMentor)

	accessPath := "/v1/groups/" + grp.ID + "/mentors/" + testMentor.ID + "/courses"
	coursesPath := "/v1/groups/" + grp.ID + "/courses"

	t.Run("no entry yet", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, accessPath, ownerToken)
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "no mentor access entry"})}, rec)
	})

	t.Run("mentors may not manage access", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, accessPath, mentorToken, []byte(`{"course_ids": ["c1"]}`))
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden}, rec)
	})

	t.Run("missing course_ids", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, accessPath, ownerToken, []byte(`{}`))
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"course_ids": "this field is required"}),
		}, rec)
	})

	t.Run("grant narrows the mentor's view", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, accessPath, ownerToken, []byte(`{"course_ids": ["c1"]}`))
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("grant failed! code = %v, body = %s", rec.Code, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodGet, coursesPath, mentorToken)
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, echo.Map{"course_ids": []string{"c1"}})}, rec)
	})

	t.Run("retrieve after grant", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, accessPath, ownerToken)
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("retrieve failed! code = %v, body = %s", rec.Code, rec.Body.String())
		}
		var access mentor.Access
		if err := json.Unmarshal(rec.Body.Bytes(), &access); err != nil {
			t.Fatalf("unmarshalling access: %v", err)
		}
		if access.GroupID != grp.ID || access.MentorID != testMentor.ID {
			t.Errorf("access = %+v, want entry for (%s, %s)", access, grp.ID, testMentor.ID)
		}
		if len(access.CourseIDs) != 1 || access.CourseIDs[0] != "c1" {
			t.Errorf("CourseIDs = %v, want [c1]", access.CourseIDs)
		}
		if access.UpdatedBy != testOwner.ID {
			t.Errorf("UpdatedBy = %q, want %q", access.UpdatedBy, testOwner.ID)
		}
	})

	t.Run("revoke restores the unrestricted default", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, accessPath, ownerToken)
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("revoke failed! code = %v, body = %s", rec.Code, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodGet, coursesPath, mentorToken)
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, echo.Map{"course_ids": []string{"c1", "c2"}})}, rec)
	})
}
