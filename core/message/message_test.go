package message_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-lms/core"
	"github.com/trezcool/masomo-lms/core/course"
	"github.com/trezcool/masomo-lms/core/message"
	"github.com/trezcool/masomo-lms/core/notification"
	"github.com/trezcool/masomo-lms/core/user"
	emailsvc "github.com/trezcool/masomo-lms/services/email"
	inmemdb "github.com/trezcool/masomo-lms/storage/database/inmem"
	"github.com/trezcool/masomo-lms/tests"
)

type fixture struct {
	svc      *message.Service
	notifSvc *notification.Service

	teacher, student, classmate, outsider user.User
	maths                                 course.Course
}

func setup(t *testing.T) *fixture {
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)

	logger := testutil.NewLogger()
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	usrSvc := user.NewService(usrRepo, emailsvc.NewConsoleServiceMock(core.NewTestConfig(), logger), validate)
	crsSvc := course.NewService(crsRepo, usrSvc, validate)

	f := &fixture{notifSvc: notification.NewService(inmemdb.NewNotificationRepository(db))}
	f.svc = message.NewService(inmemdb.NewMessageRepository(db), crsSvc, usrSvc, f.notifSvc, validate, logger)

	f.teacher = testutil.CreateUser(t, usrRepo, "Teach", "teach@test.cd", user.TypeTeacher, "", true)
	f.student = testutil.CreateUser(t, usrRepo, "Stu", "stu@test.cd", user.TypeStudent, "", true)
	f.classmate = testutil.CreateUser(t, usrRepo, "Ann", "ann@test.cd", user.TypeStudent, "", true)
	f.outsider = testutil.CreateUser(t, usrRepo, "Out", "out@test.cd", user.TypeStudent, "", true)
	naughty := testutil.CreateUser(t, usrRepo, "Naughty", "ndog@test.cd", user.TypeStudent, "", false)

	f.maths = testutil.CreateCourse(t, crsRepo, "Maths", "science", f.teacher)
	art := testutil.CreateCourse(t, crsRepo, "Art", "arts", f.teacher)
	testutil.Enroll(t, crsRepo, f.maths, f.student, f.classmate, naughty)
	testutil.Enroll(t, crsRepo, art, f.student)
	return f
}

func TestService_Send(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, f.student, message.NewMessage{CourseID: f.maths.ID, RecipientID: f.teacher.ID, Body: "  "})
	assert.Error(t, err, "blank body")

	var vErr *core.ValidationError
	_, err = f.svc.Send(ctx, f.student, message.NewMessage{CourseID: f.maths.ID, RecipientID: f.student.ID, Body: "me"})
	assert.True(t, errors.As(err, &vErr), "self")

	_, err = f.svc.Send(ctx, f.outsider, message.NewMessage{CourseID: f.maths.ID, RecipientID: f.teacher.ID, Body: "hi"})
	assert.Equal(t, core.ErrPermissionDenied, err)

	_, err = f.svc.Send(ctx, f.teacher, message.NewMessage{CourseID: f.maths.ID, RecipientID: f.outsider.ID, Body: "hi"})
	assert.True(t, errors.As(err, &vErr), "recipient not a member")

	_, err = f.svc.Send(ctx, f.teacher, message.NewMessage{CourseID: "lol", RecipientID: f.student.ID, Body: "hi"})
	assert.True(t, errors.As(err, &vErr), "unknown course")

	msg, err := f.svc.Send(ctx, f.student, message.NewMessage{CourseID: f.maths.ID, RecipientID: f.teacher.ID, Body: " Hello sir "})
	require.NoError(t, err)
	assert.Equal(t, "Hello sir", msg.Body)
	assert.Equal(t, "Stu", msg.SenderName)

	notifs, err := f.notifSvc.List(ctx, f.teacher.ID, true)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, notification.KindMessage, notifs[0].Kind)
}

func TestService_Contacts(t *testing.T) {
	f := setup(t)

	contacts, err := f.svc.Contacts(context.Background(), f.student)
	require.NoError(t, err)
	names := make([]string, len(contacts))
	for i, c := range contacts {
		names[i] = c.CourseName + "/" + c.Name
	}
	// inactive users are left out
	assert.Equal(t, []string{"Art/Teach", "Maths/Ann", "Maths/Teach"}, names)

	contacts, err = f.svc.Contacts(context.Background(), f.outsider)
	require.NoError(t, err)
	assert.Empty(t, contacts)
}

func TestService_Conversation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	send := func(from, to user.User, body string) message.Message {
		msg, err := f.svc.Send(ctx, from, message.NewMessage{CourseID: f.maths.ID, RecipientID: to.ID, Body: body})
		require.NoError(t, err)
		time.Sleep(time.Millisecond) // distinct sent_at
		return msg
	}
	m1 := send(f.student, f.teacher, "one")
	m2 := send(f.teacher, f.student, "two")
	send(f.classmate, f.teacher, "not ours")
	m3 := send(f.student, f.teacher, "three")

	_, err := f.svc.Conversation(ctx, f.student, message.ConversationFilter{ContactID: f.teacher.ID})
	var vErr *core.ValidationError
	assert.True(t, errors.As(err, &vErr), "course_id is required")

	_, err = f.svc.Conversation(ctx, f.outsider, message.ConversationFilter{ContactID: f.teacher.ID, CourseID: f.maths.ID})
	assert.Equal(t, core.ErrPermissionDenied, err)

	msgs, err := f.svc.Conversation(ctx, f.student, message.ConversationFilter{ContactID: f.teacher.ID, CourseID: f.maths.ID})
	require.NoError(t, err)
	assert.Equal(t, []message.Message{m1, m2, m3}, msgs)

	msgs, err = f.svc.Conversation(ctx, f.teacher, message.ConversationFilter{ContactID: f.student.ID, CourseID: f.maths.ID, After: m1.SentAt})
	require.NoError(t, err)
	assert.Equal(t, []message.Message{m2, m3}, msgs)
}
