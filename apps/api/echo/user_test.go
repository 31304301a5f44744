package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-lms/core/user"
	"github.com/trezcool/masomo-lms/tests"
)

func Test_userApi_login(t *testing.T) {
	env := setup(t)
	student, _, _ := env.users(t)
	testutil.CreateUser(t, env.repos.Users, "N Dog", "ndog@test.cd", user.TypeStudent, pwd, false)

	login := func(email, password string) []byte {
		return marchallObj(t, LoginRequest{Email: email, Password: password})
	}
	invalid := marchallObj(t, httpErr{Error: user.ErrInvalidCredentials.Error()})

	env.run(t, []httpTest{
		{name: "no credentials", method: http.MethodPost, path: "/login", body: login("", ""), wantCode: http.StatusBadRequest, wantData: invalid},
		{name: "unknown email", method: http.MethodPost, path: "/login", body: login("lol@test.cd", pwd), wantCode: http.StatusBadRequest, wantData: invalid},
		{name: "wrong password", method: http.MethodPost, path: "/login", body: login(student.Email, "lol"), wantCode: http.StatusBadRequest, wantData: invalid},
		{
			name: "deactivated", method: http.MethodPost, path: "/login", body: login("ndog@test.cd", pwd),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	})

	rec := env.serve(httpTest{method: http.MethodPost, path: "/login", body: login(" STU@test.cd ", pwd)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		User  user.User `json:"user"`
		Token string    `json:"token"`
	}
	decode(t, rec, &res)
	assert.Equal(t, student.ID, res.User.ID)
	assert.False(t, res.User.LastLogin.IsZero())
	assert.NotContains(t, rec.Body.String(), "password")

	// the token authenticates the next requests
	env.run(t, []httpTest{
		{name: "with token", path: "/notifications/unread-count", token: res.Token, wantData: []byte(`{"count":0}`)},
		{name: "bad token", path: "/notifications/unread-count", token: "lol", wantCode: http.StatusUnauthorized},
	})
}

func Test_userApi_signup(t *testing.T) {
	env := setup(t)
	env.users(t)

	signup := func(name, email, typ string) []byte {
		return marchallObj(t, user.NewUser{Name: name, Email: email, Type: typ, Password: pwd, PasswordConfirm: pwd})
	}

	env.run(t, []httpTest{
		{
			name: "admin type refused", method: http.MethodPost, path: "/signup", body: signup("Boss", "boss@test.cd", user.TypeAdmin),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"type":"invalid account type"}`),
		},
		{
			name: "invalid fields", method: http.MethodPost, path: "/signup", body: signup(" ", "lol", "principal"),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"name":"this field is required","email":"email must be a valid email address","type":"invalid account type"}`),
		},
		{
			name: "email taken", method: http.MethodPost, path: "/signup", body: signup("Stu 2", "stu@test.cd", user.TypeStudent),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: user.ErrEmailExists.Error()}),
		},
		{name: "ok", method: http.MethodPost, path: "/signup", body: signup("New", "new@test.cd", user.TypeTeacher), wantCode: http.StatusCreated},
	})

	usr, err := env.repos.Users.GetUser(context.Background(), user.GetFilter{Email: "new@test.cd"})
	require.NoError(t, err)
	assert.Equal(t, user.TypeTeacher, usr.Type)
}

func Test_userApi_xUserHeader(t *testing.T) {
	env := setup(t)
	student, _, _ := env.users(t)

	env.run(t, []httpTest{
		{name: "no identity", path: "/notifications", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errNotAuthenticated)},
		{name: "garbage identity", path: "/notifications", xUser: "lol", wantCode: http.StatusUnauthorized},
		{
			name: "forged type", path: "/notifications", wantCode: http.StatusUnauthorized,
			xUser: xUser(t, user.Identity{ID: student.ID, Type: user.TypeAdmin, Email: student.Email}),
		},
		{name: "valid identity", path: "/notifications", xUser: xUser(t, student.Identity()), wantData: marchallList(t)},
	})
}

func Test_userApi_distrustedHeader(t *testing.T) {
	env := setup(t)
	student, _, _ := env.users(t)

	env.conf.Server.TrustUserHeader = false
	env.server = NewServer(env.server.deps)

	env.run(t, []httpTest{
		{
			name: "header only", path: "/notifications", xUser: xUser(t, student.Identity()),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "missing or malformed jwt"}),
		},
		{name: "token", path: "/notifications", token: env.token(t, student), wantData: marchallList(t)},
	})
}

func Test_userApi_adminUsers(t *testing.T) {
	env := setup(t)
	student, teacher, admin := env.users(t)
	adminToken := env.token(t, admin)

	env.run(t, []httpTest{
		{name: "auth required", path: "/admin/users", wantCode: http.StatusUnauthorized},
		{name: "admin required", path: "/admin/users", token: env.token(t, teacher), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermission)},
		{name: "all", path: "/admin/users", token: adminToken, wantData: marchallList(t, student, teacher, admin)},
		{name: "search", path: "/admin/users?search=TEA", token: adminToken, wantData: marchallList(t, teacher)},
		{name: "types", path: "/admin/users?type=student,admin", token: adminToken, wantData: marchallList(t, student, admin)},
		{name: "repeated types", path: "/admin/users?type=teacher&type=admin", token: adminToken, wantData: marchallList(t, teacher, admin)},
		{name: "ordering", path: "/admin/users?ordering=-name", token: adminToken, wantData: marchallList(t, teacher, student, admin)},
		{name: "is_active", path: "/admin/users?is_active=false", token: adminToken, wantData: marchallList(t)},
		{name: "bad is_active", path: "/admin/users?is_active=lol", token: adminToken, wantCode: http.StatusBadRequest, wantData: []byte(`{"is_active":"must be a boolean"}`)},
	})
}

func Test_userApi_adminWrites(t *testing.T) {
	env := setup(t)
	student, teacher, admin := env.users(t)
	adminToken := env.token(t, admin)

	env.run(t, []httpTest{
		{
			name: "create", method: http.MethodPost, path: "/admin/users", token: adminToken, wantCode: http.StatusCreated,
			body: marchallObj(t, user.NewUser{Name: "Boss 2", Email: "boss2@test.cd", Type: user.TypeAdmin, Password: pwd, PasswordConfirm: pwd}),
		},
		{
			name: "deactivate self", method: http.MethodPatch, path: "/admin/users/" + admin.ID, token: adminToken,
			body: []byte(`{"is_active":false}`), wantCode: http.StatusForbidden,
		},
		{
			name: "demote self", method: http.MethodPatch, path: "/admin/users/" + admin.ID, token: adminToken,
			body: []byte(`{"type":"teacher"}`), wantCode: http.StatusForbidden,
		},
		{
			name: "update unknown", method: http.MethodPatch, path: "/admin/users/lol", token: adminToken,
			body: []byte(`{"name":"x"}`), wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: user.ErrNotFound.Error()}),
		},
		{name: "update", method: http.MethodPatch, path: "/admin/users/" + teacher.ID, token: adminToken, body: []byte(`{"is_active":false}`)},
		{name: "delete self", method: http.MethodDelete, path: "/admin/users/" + admin.ID, token: adminToken, wantCode: http.StatusForbidden},
		{name: "delete", method: http.MethodDelete, path: "/admin/users/" + student.ID, token: adminToken, wantCode: http.StatusNoContent},
		{name: "delete again", method: http.MethodDelete, path: "/admin/users/" + student.ID, token: adminToken, wantCode: http.StatusNotFound},
	})

	usr, err := env.repos.Users.GetUser(context.Background(), user.GetFilter{ID: teacher.ID})
	require.NoError(t, err)
	assert.False(t, usr.IsActive)

	// a deactivated user's token stops working
	env.run(t, []httpTest{
		{
			name: "deactivated token", path: "/notifications", token: env.token(t, teacher),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	})
}
