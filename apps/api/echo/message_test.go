package echoapi

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-lms/core/message"
	"github.com/trezcool/masomo-lms/tests"
)

func Test_messageApi(t *testing.T) {
	env := setup(t)
	student, teacher, admin := env.users(t)
	maths := testutil.CreateCourse(t, env.repos.Courses, "Maths", "science", teacher)
	testutil.Enroll(t, env.repos.Courses, maths, student)
	studentToken := env.token(t, student)
	teacherToken := env.token(t, teacher)

	send := func(token, to, body string) message.Message {
		rec := env.serve(httpTest{
			method: http.MethodPost, path: "/messages/send", token: token,
			body: marchallObj(t, message.NewMessage{CourseID: maths.ID, RecipientID: to, Body: body}),
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var msg message.Message
		decode(t, rec, &msg)
		time.Sleep(time.Millisecond)
		return msg
	}
	conversation := func(contactID string, after time.Time) string {
		v := make(url.Values)
		v.Set("contact_id", contactID)
		v.Set("course_id", maths.ID)
		if !after.IsZero() {
			v.Set("after", after.Format(time.RFC3339Nano))
		}
		return "/messages/conversation?" + v.Encode()
	}

	env.run(t, []httpTest{
		{
			name: "contacts", path: "/messages/contacts", token: studentToken,
			wantData: marchallList(t, message.Contact{UserID: teacher.ID, Name: "Teach", Type: "teacher", CourseID: maths.ID, CourseName: "Maths"}),
		},
		{name: "admin sees every course", path: "/messages/contacts", token: env.token(t, admin), wantData: marchallList(t,
			message.Contact{UserID: student.ID, Name: "Stu", Type: "student", CourseID: maths.ID, CourseName: "Maths"},
			message.Contact{UserID: teacher.ID, Name: "Teach", Type: "teacher", CourseID: maths.ID, CourseName: "Maths"},
		)},
		{
			name: "empty body", method: http.MethodPost, path: "/messages/send", token: studentToken,
			body:     marchallObj(t, message.NewMessage{CourseID: maths.ID, RecipientID: teacher.ID}),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"body":"this field is required"}`),
		},
		{
			name: "admin is no member", method: http.MethodPost, path: "/messages/send", token: env.token(t, admin),
			body:     marchallObj(t, message.NewMessage{CourseID: maths.ID, RecipientID: teacher.ID, Body: "hi"}),
			wantCode: http.StatusForbidden,
		},
		{name: "conversation: params required", path: "/messages/conversation", token: studentToken, wantCode: http.StatusBadRequest},
		{name: "conversation: bad after", path: conversation(teacher.ID, time.Time{}) + "&after=lol", token: studentToken, wantCode: http.StatusBadRequest},
	})

	m1 := send(studentToken, teacher.ID, "Hello sir")
	m2 := send(teacherToken, student.ID, "Hello Stu")
	m3 := send(studentToken, teacher.ID, "About the quiz...")

	env.run(t, []httpTest{
		{name: "conversation", path: conversation(teacher.ID, time.Time{}), token: studentToken, wantData: marchallList(t, m1, m2, m3)},
		{name: "conversation after", path: conversation(student.ID, m1.SentAt), token: teacherToken, wantData: marchallList(t, m2, m3)},
		{name: "conversation after last", path: conversation(student.ID, m3.SentAt), token: teacherToken, wantData: marchallList(t)},
		{name: "teacher notified", path: "/notifications/unread-count", token: teacherToken, wantData: []byte(`{"count":2}`)},
	})
	assert.Equal(t, "Hello sir", m1.Body)
}
