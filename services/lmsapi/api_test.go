package lmsapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/masomo-lms/apps/api/echo"
	"github.com/trezcool/masomo-lms/apps/shared"
	"github.com/trezcool/masomo-lms/core"
	"github.com/trezcool/masomo-lms/core/message"
	"github.com/trezcool/masomo-lms/core/quiz"
	"github.com/trezcool/masomo-lms/core/user"
	emailsvc "github.com/trezcool/masomo-lms/services/email"
	"github.com/trezcool/masomo-lms/services/lmsapi"
	"github.com/trezcool/masomo-lms/tests"
)

const pwd = "Xk9#mQ2!vL"

func startAPI(t *testing.T) (*httptest.Server, *shared.Repositories) {
	conf := core.NewTestConfig()
	logger := testutil.NewLogger()
	repos := shared.NewMemoryRepositories()
	validate, translator := shared.NewValidator()
	svcs := shared.NewServices(repos, emailsvc.NewConsoleServiceMock(conf, logger), validate, logger)

	server := echoapi.NewServer(echoapi.ServerDeps{
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
	srv := httptest.NewServer(server)
	t.Cleanup(srv.Close)
	return srv, repos
}

func login(t *testing.T, url, email string) *lmsapi.Client {
	client, err := lmsapi.New(core.PortalConfig{BackendURL: url}, nil, testutil.NewLogger())
	require.NoError(t, err)
	_, err = client.Login(context.Background(), email, pwd)
	require.NoError(t, err)
	return client
}

func TestClient_againstAPI(t *testing.T) {
	srv, repos := startAPI(t)
	ctx := context.Background()

	student := testutil.CreateUser(t, repos.Users, "Stu", "stu@test.cd", user.TypeStudent, pwd, true)
	teacher := testutil.CreateUser(t, repos.Users, "Teach", "teach@test.cd", user.TypeTeacher, pwd, true)
	maths := testutil.CreateCourse(t, repos.Courses, "Maths", "science", teacher)
	qz := testutil.CreateQuiz(t, repos.Quizzes, "Week 1", maths, teacher)

	t.Run("bad credentials", func(t *testing.T) {
		client, err := lmsapi.New(core.PortalConfig{BackendURL: srv.URL}, nil, testutil.NewLogger())
		require.NoError(t, err)
		_, err = client.Login(ctx, "stu@test.cd", "lol")
		assert.True(t, lmsapi.IsStatus(err, http.StatusBadRequest), "%v", err)
		_, ok := client.Session()
		assert.False(t, ok)
	})

	stu := login(t, srv.URL, "stu@test.cd")
	prof := login(t, srv.URL, "teach@test.cd")

	// enrollment
	status, err := stu.EnrollmentStatus(ctx, maths.ID)
	require.NoError(t, err)
	assert.False(t, status.Enrolled)

	_, err = stu.Quiz(ctx, qz.ID)
	assert.True(t, lmsapi.IsStatus(err, http.StatusForbidden), "%v", err)

	enr, err := stu.Enroll(ctx, maths.ID)
	require.NoError(t, err)
	assert.Equal(t, student.ID, enr.StudentID)

	status, err = stu.EnrollmentStatus(ctx, maths.ID)
	require.NoError(t, err)
	assert.True(t, status.Enrolled)

	// quizzes
	quizzes, err := stu.MyCourseQuizzes(ctx)
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	assert.Equal(t, qz.ID, quizzes[0].ID)

	sub, err := stu.SubmitQuiz(ctx, quiz.Submission{QuizID: qz.ID, Answers: []int{0, 2, quiz.Unanswered}, Score: 1000})
	require.NoError(t, err)
	assert.Equal(t, 20, sub.Score)

	_, err = stu.SubmitQuiz(ctx, quiz.Submission{QuizID: qz.ID, Answers: []int{0, 2, 1}})
	assert.Equal(t, quiz.ErrAlreadySubmitted, errors.Cause(err))

	score := 25
	graded, err := prof.GradeSubmission(ctx, sub.ID, quiz.GradeUpdate{Score: &score, Feedback: "ok"})
	require.NoError(t, err)
	assert.True(t, graded.IsGraded())

	// notifications
	count, err := stu.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	notifs, err := stu.Notifications(ctx, true)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	marked, err := stu.MarkAllNotificationsRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	// messages
	contacts, err := stu.Contacts(ctx)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, teacher.ID, contacts[0].UserID)

	first, err := stu.SendMessage(ctx, message.NewMessage{CourseID: maths.ID, RecipientID: teacher.ID, Body: "Thanks!"})
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = prof.SendMessage(ctx, message.NewMessage{CourseID: maths.ID, RecipientID: student.ID, Body: "You're welcome"})
	require.NoError(t, err)

	msgs, err := prof.Conversation(ctx, student.ID, maths.ID, time.Time{})
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
	msgs, err = stu.Conversation(ctx, teacher.ID, maths.ID, first.SentAt)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "You're welcome", msgs[0].Body)

	_, err = stu.SendMessage(ctx, message.NewMessage{CourseID: maths.ID, RecipientID: teacher.ID})
	var apiErr *lmsapi.APIError
	require.True(t, errors.As(err, &apiErr), "%v", err)
	assert.Equal(t, map[string]string{"body": "this field is required"}, apiErr.Fields)
}
