package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-lms/core"
	"github.com/trezcool/masomo-lms/core/message"
	"github.com/trezcool/masomo-lms/core/quiz"
	"github.com/trezcool/masomo-lms/core/user"
)

func TestQuizRepository_submissions(t *testing.T) {
	repo := NewQuizRepository(Open())
	ctx := context.Background()
	now := time.Now().UTC()

	first, err := repo.CreateSubmission(ctx, quiz.Submission{QuizID: "q1", StudentID: "s1", Answers: []int{0, 1}, SubmittedAt: now})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	_, err = repo.CreateSubmission(ctx, quiz.Submission{QuizID: "q1", StudentID: "s1", Answers: []int{1, 1}})
	assert.Equal(t, quiz.ErrAlreadySubmitted, err)

	second, err := repo.CreateSubmission(ctx, quiz.Submission{QuizID: "q1", StudentID: "s2", SubmittedAt: now.Add(-time.Minute)})
	require.NoError(t, err)

	// the stored answers are not shared with the caller
	first.Answers[0] = 3
	stored, err := repo.GetSubmission(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, stored.Answers)

	subs, err := repo.QuerySubmissions(ctx, quiz.SubmissionFilter{QuizID: "q1"})
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, second.ID, subs[0].ID, "oldest first")

	subs, err = repo.QuerySubmissions(ctx, quiz.SubmissionFilter{StudentID: "nobody"})
	require.NoError(t, err)
	assert.NotNil(t, subs)
	assert.Empty(t, subs)

	_, err = repo.UpdateSubmission(ctx, quiz.Submission{ID: "lol"})
	assert.Equal(t, quiz.ErrSubmissionNotFound, err)
	_, err = repo.GetQuiz(ctx, "lol")
	assert.Equal(t, quiz.ErrNotFound, err)
}

func TestQuizRepository_QueryQuizzes(t *testing.T) {
	repo := NewQuizRepository(Open())
	ctx := context.Background()
	now := time.Now().UTC()

	old, err := repo.CreateQuiz(ctx, quiz.Quiz{Title: "old", CourseID: "c1", CreatedBy: "t1", CreatedAt: now.Add(-time.Hour)})
	require.NoError(t, err)
	recent, err := repo.CreateQuiz(ctx, quiz.Quiz{Title: "recent", CourseID: "c2", CreatedBy: "t1", CreatedAt: now})
	require.NoError(t, err)
	other, err := repo.CreateQuiz(ctx, quiz.Quiz{Title: "other", CourseID: "c3", CreatedBy: "t2", CreatedAt: now})
	require.NoError(t, err)

	ids := func(quizzes []quiz.Quiz) []string {
		res := make([]string, len(quizzes))
		for i, qz := range quizzes {
			res[i] = qz.ID
		}
		return res
	}

	quizzes, err := repo.QueryQuizzes(ctx, quiz.QueryFilter{CreatedBy: "t1"})
	require.NoError(t, err)
	assert.Equal(t, []string{recent.ID, old.ID}, ids(quizzes), "newest first")

	quizzes, err = repo.QueryQuizzes(ctx, quiz.QueryFilter{CourseIDs: []string{"c1", "c3"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{old.ID, other.ID}, ids(quizzes))

	quizzes, err = repo.QueryQuizzes(ctx, quiz.QueryFilter{CourseIDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, quizzes)
}

func TestUserRepository_QueryUsers(t *testing.T) {
	repo := NewUserRepository(Open())
	ctx := context.Background()
	now := time.Now().UTC()

	create := func(name, email, typ string, active bool, age time.Duration) user.User {
		usr, err := repo.CreateUser(ctx, user.User{Name: name, Email: email, Type: typ, IsActive: active, CreatedAt: now.Add(-age)})
		require.NoError(t, err)
		return usr
	}
	zed := create("Zed", "zed@test.cd", user.TypeStudent, true, time.Hour)
	amy := create("Amy", "amy@test.cd", user.TypeTeacher, true, time.Minute)
	bob := create("Bob", "bob@test.cd", user.TypeStudent, false, 0)

	_, err := repo.CreateUser(ctx, user.User{Email: "amy@test.cd"})
	assert.Equal(t, user.ErrEmailExists, err)

	inactive := false
	tests := []struct {
		name     string
		filter   *user.QueryFilter
		ordering []core.DBOrdering
		want     []user.User
	}{
		{name: "all, oldest first", want: []user.User{zed, amy, bob}},
		{name: "by name", ordering: core.ParseOrdering("name", "name"), want: []user.User{amy, bob, zed}},
		{name: "by name desc", ordering: core.ParseOrdering("-name", "name"), want: []user.User{zed, bob, amy}},
		{name: "search", filter: &user.QueryFilter{Search: "AM"}, want: []user.User{amy}},
		{name: "types", filter: &user.QueryFilter{Types: []string{user.TypeStudent}}, want: []user.User{zed, bob}},
		{name: "inactive", filter: &user.QueryFilter{IsActive: &inactive}, want: []user.User{bob}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.QueryUsers(ctx, tt.filter, tt.ordering)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMessageRepository_QueryConversation(t *testing.T) {
	repo := NewMessageRepository(Open())
	ctx := context.Background()
	t0 := time.Now().UTC()

	send := func(from, to, courseID string, at time.Time) message.Message {
		msg, err := repo.CreateMessage(ctx, message.Message{SenderID: from, RecipientID: to, CourseID: courseID, SentAt: at})
		require.NoError(t, err)
		return msg
	}
	m1 := send("a", "b", "c1", t0)
	m2 := send("b", "a", "c1", t0.Add(time.Second))
	send("a", "b", "c2", t0.Add(2*time.Second))
	send("a", "x", "c1", t0.Add(3*time.Second))

	msgs, err := repo.QueryConversation(ctx, message.ConversationFilter{UserID: "a", ContactID: "b", CourseID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, []message.Message{m1, m2}, msgs)

	msgs, err = repo.QueryConversation(ctx, message.ConversationFilter{UserID: "b", ContactID: "a", CourseID: "c1", After: t0})
	require.NoError(t, err)
	assert.Equal(t, []message.Message{m2}, msgs)
}
