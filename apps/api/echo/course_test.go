package echoapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-lms/core/course"
	"github.com/trezcool/masomo-lms/tests"
)

func Test_courseApi(t *testing.T) {
	env := setup(t)
	student, teacher, admin := env.users(t)
	now := time.Now()
	maths := testutil.CreateCourse(t, env.repos.Courses, "Maths", "science", teacher, now)
	art := testutil.CreateCourse(t, env.repos.Courses, "Art", "arts", teacher, now.Add(time.Second))
	studentToken := env.token(t, student)
	teacherToken := env.token(t, teacher)

	env.run(t, []httpTest{
		{name: "auth required", path: "/courses", wantCode: http.StatusUnauthorized},
		{name: "list", path: "/courses", token: studentToken, wantData: marchallList(t, art, maths)},
		{name: "list by category", path: "/courses?category=SCIENCE", token: studentToken, wantData: marchallList(t, maths)},
		{name: "list newest first", path: "/courses?ordering=-created_at", token: studentToken, wantData: marchallList(t, art, maths)},
		{name: "search", path: "/courses?search=mat", token: studentToken, wantData: marchallList(t, maths)},
		{name: "retrieve", path: "/courses/" + maths.ID, token: studentToken, wantData: marchallObj(t, maths)},
		{name: "retrieve unknown", path: "/courses/lol", token: studentToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: course.ErrNotFound.Error()})},
		{
			name: "students cannot create", method: http.MethodPost, path: "/courses", token: studentToken,
			body: []byte(`{"title":"Hack"}`), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermission),
		},
		{
			name: "blank title", method: http.MethodPost, path: "/courses", token: teacherToken,
			body: []byte(`{"title":" "}`), wantCode: http.StatusBadRequest, wantData: []byte(`{"title":"this field is required"}`),
		},
		{name: "create", method: http.MethodPost, path: "/courses", token: teacherToken, body: []byte(`{"title":"Physics","category":"science"}`), wantCode: http.StatusCreated},
		{
			name: "admin creates for a teacher", method: http.MethodPost, path: "/courses", token: env.token(t, admin),
			body: []byte(`{"title":"Chemistry","teacher_id":"` + teacher.ID + `"}`), wantCode: http.StatusCreated,
		},
	})

	courses, err := env.repos.Courses.QueryCourses(context.Background(), &course.QueryFilter{TeacherID: teacher.ID}, nil)
	require.NoError(t, err)
	assert.Len(t, courses, 4)
}

func Test_courseApi_enrollment(t *testing.T) {
	env := setup(t)
	student, teacher, _ := env.users(t)
	maths := testutil.CreateCourse(t, env.repos.Courses, "Maths", "science", teacher)
	studentToken := env.token(t, student)
	enrollPath := "/courses/" + maths.ID + "/enroll"
	statusPath := "/courses/" + maths.ID + "/enrollment"

	env.run(t, []httpTest{
		{name: "teachers cannot enroll", method: http.MethodPost, path: enrollPath, token: env.token(t, teacher), wantCode: http.StatusForbidden},
		{name: "not enrolled", path: statusPath, token: studentToken, wantData: []byte(`{"course_id":"` + maths.ID + `","enrolled":false}`)},
		{name: "my enrollments (none)", path: "/enrollments/my", token: studentToken, wantData: marchallList(t)},
		{name: "enroll unknown course", method: http.MethodPost, path: "/courses/lol/enroll", token: studentToken, wantCode: http.StatusNotFound},
		{name: "enroll", method: http.MethodPost, path: enrollPath, token: studentToken, wantCode: http.StatusCreated},
		{
			name: "enroll twice", method: http.MethodPost, path: enrollPath, token: studentToken,
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: course.ErrAlreadyEnrolled.Error()}),
		},
	})

	enr, err := env.repos.Courses.GetEnrollment(context.Background(), maths.ID, student.ID)
	require.NoError(t, err)

	env.run(t, []httpTest{
		{
			name: "enrolled", path: statusPath, token: studentToken,
			wantData: marchallObj(t, course.EnrollmentStatus{CourseID: maths.ID, Enrolled: true, Enrollment: &enr}),
		},
		{name: "my enrollments", path: "/enrollments/my", token: studentToken, wantData: marchallList(t, enr)},
		{name: "my enrollments: students only", path: "/enrollments/my", token: env.token(t, teacher), wantCode: http.StatusForbidden},
	})
}
