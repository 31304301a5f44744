package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/trezcool/masomo-lms/apps/shared"
	"github.com/trezcool/masomo-lms/core"
	"github.com/trezcool/masomo-lms/core/user"
	emailsvc "github.com/trezcool/masomo-lms/services/email"
	"github.com/trezcool/masomo-lms/tests"
)

const pwd = "Xk9#mQ2!vL"

var (
	errNotAuthenticated = httpErr{Error: "user not authenticated"}
	errPermission       = httpErr{Error: "permission denied"}
)

type testEnv struct {
	server *Server
	repos  *shared.Repositories
	conf   *core.Config
}

func setup(t *testing.T) *testEnv {
	conf := core.NewTestConfig()
	logger := testutil.NewLogger()

	repos := shared.NewMemoryRepositories()
	validate, translator := shared.NewValidator()
	svcs := shared.NewServices(repos, emailsvc.NewConsoleServiceMock(conf, logger), validate, logger)

	server := NewServer(ServerDeps{
		Conf:            conf,
		Logger:          logger,
		Validate:        validate,
		Translator:      translator,
		DisableReqLogs:  true,
		UserSvc:         svcs.User,
		CourseSvc:       svcs.Course,
		QuizSvc:         svcs.Quiz,
		NotificationSvc: svcs.Notification,
		MessageSvc:      svcs.Message,
	})
	t.Cleanup(func() { _ = server.Close() })
	return &testEnv{server: server, repos: repos, conf: conf}
}

// users creates a student, a teacher and an admin, in this order.
func (env *testEnv) users(t *testing.T) (student, teacher, admin user.User) {
	now := time.Now()
	student = testutil.CreateUser(t, env.repos.Users, "Stu", "stu@test.cd", user.TypeStudent, pwd, true, now)
	teacher = testutil.CreateUser(t, env.repos.Users, "Teach", "teach@test.cd", user.TypeTeacher, pwd, true, now.Add(time.Second))
	admin = testutil.CreateUser(t, env.repos.Users, "Admin", "admin@test.cd", user.TypeAdmin, pwd, true, now.Add(2*time.Second))
	return
}

func (env *testEnv) token(t *testing.T, usr user.User) string {
	token, err := env.server.auth.generateToken(usr)
	if err != nil {
		t.Fatalf("token(): %v", err)
	}
	return token
}

func (env *testEnv) serve(tt httpTest) *httptest.ResponseRecorder {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
	if tt.xUser != "" {
		req.Header.Set(HeaderXUser, tt.xUser)
	}
	env.server.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.serve(tt)
			checkCodeAndData(t, tt, rec)
		})
	}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	xUser    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func xUser(t *testing.T, id user.Identity) string {
	hdr, err := id.Header()
	if err != nil {
		t.Fatalf("xUser(): %v", err)
	}
	return hdr
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode(%s): %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
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
	return false, nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	wantCode := tt.wantCode
	if wantCode == 0 {
		wantCode = http.StatusOK
	}
	if rec.Code != wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func TestHome(t *testing.T) {
	env := setup(t)
	rec := env.serve(httpTest{path: "/"})
	if rec.Code != http.StatusOK || rec.Body.String() != "Welcome to Masomo API!" {
		t.Errorf("home = %d %q", rec.Code, rec.Body.String())
	}
}
