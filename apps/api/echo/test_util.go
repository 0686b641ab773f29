package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/closure"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/group"
	"github.com/trezcool/darasa/core/mentor"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

type testLogger struct{}

func (testLogger) Enable(bool)                        {}
func (testLogger) Debug(string, ...interface{})       {}
func (testLogger) Info(string, ...interface{})        {}
func (testLogger) Warn(string, ...interface{})        {}
func (testLogger) Error(string, ...interface{})       {}
func (testLogger) Fatal(msg string, _ ...interface{}) { panic(msg) }

var _ core.Logger = (*testLogger)(nil)

func newTestConf() *core.Config {
	return &core.Config{
		TestMode:           true,
		AppName:            "Darasa",
		SecretKey:          "secret",
		BulkCloseChunkSize: 2,
		Server: core.ServerConfig{
			Addr:               ":0",
			JWTExpirationDelta: 10 * time.Minute,
		},
	}
}

func newTestServer(db *inmemdb.DB) Server {
	conf := newTestConf()

	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)

	groupRepo := inmemdb.NewGroupRepository(db)
	courseRepo := inmemdb.NewCourseRepository(db)
	mentorSvc := mentor.NewService(inmemdb.NewMentorRepository(db), groupRepo)
	closureSvc := closure.NewService(
		conf,
		inmemdb.NewClosureRepository(db),
		groupRepo,
		courseRepo,
		mentorSvc,
		emailsvc.NewConsoleServiceMock(conf),
	)

	return NewServer(ServerDeps{
		Conf:       conf,
		Logger:     testLogger{},
		ClosureSvc: closureSvc,
		MentorSvc:  mentorSvc,
		Validate:   validate,
		Translator: translator,
	})
}

var (
	testOwner  = user.User{ID: "b8f1c0de-0000-4000-8000-000000000001", Name: "Owner", Username: "owner", Roles: []string{user.RoleTeacher}}
	testMentor = user.User{ID: "b8f1c0de-0000-4000-8000-000000000002", Name: "Mentor", Username: "mentor", Roles: []string{user.RoleTeacher}}
	testStud   = user.User{ID: "b8f1c0de-0000-4000-8000-000000000003", Name: "Student", Username: "student", Roles: []string{user.RoleStudent}}
)

// seedTestDB loads the standard grading fixture: one group of three students
// with two attached courses, the first one carrying four evaluable activities.
func seedTestDB(db *inmemdb.DB) group.Group {
	grp := group.Group{
		ID:        "11111111-1111-4111-8111-111111111111",
		Name:      "Cohort A",
		OwnerID:   testOwner.ID,
		CourseIDs: []string{"c1", "c2"},
		Students: []group.Student{
			{ID: "s1", Name: "Alice", Email: "alice@test.test"},
			{ID: "s2", Name: "Ben", Email: "ben@test.test"},
			{ID: "s3", Name: "Chloe", Email: "chloe@test.test"},
		},
	}
	db.SetGroup(grp)
	db.SetCourse(course.Course{ID: "c1", Code: "GO101", Title: "Intro to Go"})
	db.SetCourse(course.Course{ID: "c2", Code: "GO201", Title: "Concurrency in Go"})
	db.SetActivities("c1",
		course.EvaluableActivity{ID: "a1", CourseID: "c1", Kind: course.KindQuiz},
		course.EvaluableActivity{ID: "a2", CourseID: "c1", Kind: course.KindGradedAssignment},
		course.EvaluableActivity{ID: "a3", CourseID: "c1", Kind: course.KindQuiz},
		course.EvaluableActivity{ID: "a4", CourseID: "c1", Kind: course.KindGradedAssignment},
	)

	at := time.Date(2021, 5, 3, 9, 0, 0, 0, time.UTC)
	grade := func(v float64) *float64 { return &v }
	db.AddSubmissions(grp.ID,
		course.Submission{ID: "sub1", StudentID: "s1", CourseID: "c1", ActivityID: "a1", Grade: grade(85), Status: course.StatusGraded, SubmittedAt: at},
		course.Submission{ID: "sub2", StudentID: "s1", CourseID: "c1", ActivityID: "a2", Grade: grade(92), Status: course.StatusGraded, SubmittedAt: at},
		course.Submission{ID: "sub3", StudentID: "s1", CourseID: "c1", ActivityID: "a3", Grade: grade(88.5), Status: course.StatusGraded, SubmittedAt: at},
		course.Submission{ID: "sub4", StudentID: "s1", CourseID: "c1", ActivityID: "a4", Status: course.StatusSubmitted, SubmittedAt: at},
		course.Submission{ID: "sub5", StudentID: "s2", CourseID: "c1", ActivityID: "a1", Grade: grade(60), Status: course.StatusGraded, SubmittedAt: at},
		course.Submission{ID: "sub6", StudentID: "s2", CourseID: "c1", ActivityID: "a2", Grade: grade(70), Status: course.StatusGraded, SubmittedAt: at},
		course.Submission{ID: "sub7", StudentID: "s2", CourseID: "c1", ActivityID: "a3", Grade: grade(75), Status: course.StatusGraded, SubmittedAt: at},
		course.Submission{ID: "sub8", StudentID: "s2", CourseID: "c1", ActivityID: "a4", Grade: grade(75), Status: course.StatusGraded, SubmittedAt: at},
	)
	return grp
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echoHeaderContentType, echoMIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

const (
	echoHeaderContentType   = "Content-Type"
	echoMIMEApplicationJSON = "application/json"
)

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
