package lmsapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/masomo-lms/core/course"
	"github.com/trezcool/masomo-lms/core/message"
	"github.com/trezcool/masomo-lms/core/notification"
	"github.com/trezcool/masomo-lms/core/quiz"
	"github.com/trezcool/masomo-lms/core/user"
)

// auth

func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var sess Session
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, rest.Post, "/login", nil, in, &sess); err != nil {
		return Session{}, err
	}
	c.SetSession(&sess)
	return sess, nil
}

func (c *Client) Logout() {
	c.SetSession(nil)
}

func (c *Client) Signup(ctx context.Context, nu user.NewUser) (user.User, error) {
	var usr user.User
	err := c.do(ctx, rest.Post, "/signup", nil, nu, &usr)
	return usr, err
}

// courses

func (c *Client) Courses(ctx context.Context, filter course.QueryFilter, ordering string) ([]course.Course, error) {
	query := make(map[string]string)
	setIf(query, "search", filter.Search)
	setIf(query, "category", filter.Category)
	setIf(query, "teacher_id", filter.TeacherID)
	setIf(query, "ordering", ordering)
	var courses []course.Course
	err := c.do(ctx, rest.Get, "/courses", query, nil, &courses)
	return courses, err
}

func (c *Client) Course(ctx context.Context, id string) (course.Course, error) {
	var crs course.Course
	err := c.do(ctx, rest.Get, "/courses/"+url.PathEscape(id), nil, nil, &crs)
	return crs, err
}

func (c *Client) CreateCourse(ctx context.Context, nc course.NewCourse) (course.Course, error) {
	var crs course.Course
	err := c.do(ctx, rest.Post, "/courses", nil, nc, &crs)
	return crs, err
}

func (c *Client) Enroll(ctx context.Context, courseID string) (course.Enrollment, error) {
	var enr course.Enrollment
	err := c.do(ctx, rest.Post, "/courses/"+url.PathEscape(courseID)+"/enroll", nil, nil, &enr)
	return enr, err
}

// EnrollmentStatus asks the backend once whether the logged-in student is enrolled in a course.
func (c *Client) EnrollmentStatus(ctx context.Context, courseID string) (course.EnrollmentStatus, error) {
	var status course.EnrollmentStatus
	err := c.do(ctx, rest.Get, "/courses/"+url.PathEscape(courseID)+"/enrollment", nil, nil, &status)
	return status, err
}

func (c *Client) MyEnrollments(ctx context.Context) ([]course.Enrollment, error) {
	var enrs []course.Enrollment
	err := c.do(ctx, rest.Get, "/enrollments/my", nil, nil, &enrs)
	return enrs, err
}

// quizzes

func (c *Client) MyCourseQuizzes(ctx context.Context) ([]quiz.Quiz, error) {
	var quizzes []quiz.Quiz
	err := c.do(ctx, rest.Get, "/quizzes/my-courses", nil, nil, &quizzes)
	return quizzes, err
}

func (c *Client) Quiz(ctx context.Context, id string) (quiz.Quiz, error) {
	var qz quiz.Quiz
	err := c.do(ctx, rest.Get, "/quizzes/"+url.PathEscape(id), nil, nil, &qz)
	return qz, err
}

func (c *Client) CreateQuiz(ctx context.Context, nq quiz.NewQuiz) (quiz.Quiz, error) {
	var qz quiz.Quiz
	err := c.do(ctx, rest.Post, "/quizzes", nil, nq, &qz)
	return qz, err
}

// SubmitQuiz posts a scored submission. A 409 answer means the quiz was already submitted
// and is reported as quiz.ErrAlreadySubmitted.
func (c *Client) SubmitQuiz(ctx context.Context, sub quiz.Submission) (quiz.Submission, error) {
	var stored quiz.Submission
	err := c.do(ctx, rest.Post, "/quiz-submissions/submit", nil, sub, &stored)
	if IsStatus(err, http.StatusConflict) {
		return quiz.Submission{}, errors.Wrap(quiz.ErrAlreadySubmitted, err.Error())
	}
	return stored, err
}

func (c *Client) MySubmissions(ctx context.Context) ([]quiz.Submission, error) {
	var subs []quiz.Submission
	err := c.do(ctx, rest.Get, "/quiz-submissions/my", nil, nil, &subs)
	return subs, err
}

func (c *Client) QuizSubmissions(ctx context.Context, quizID string) ([]quiz.Submission, error) {
	var subs []quiz.Submission
	err := c.do(ctx, rest.Get, "/quiz-submissions", map[string]string{"quiz_id": quizID}, nil, &subs)
	return subs, err
}

func (c *Client) GetSubmission(ctx context.Context, id string) (quiz.Submission, error) {
	var sub quiz.Submission
	err := c.do(ctx, rest.Get, "/quiz-submissions/"+url.PathEscape(id), nil, nil, &sub)
	return sub, err
}

func (c *Client) GradeSubmission(ctx context.Context, id string, gu quiz.GradeUpdate) (quiz.Submission, error) {
	var sub quiz.Submission
	err := c.do(ctx, rest.Patch, "/quiz-submissions/grade/"+url.PathEscape(id), nil, gu, &sub)
	return sub, err
}

// notifications

func (c *Client) Notifications(ctx context.Context, unreadOnly bool) ([]notification.Notification, error) {
	var query map[string]string
	if unreadOnly {
		query = map[string]string{"unread": "true"}
	}
	var notifs []notification.Notification
	err := c.do(ctx, rest.Get, "/notifications", query, nil, &notifs)
	return notifs, err
}

func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var count notification.UnreadCount
	err := c.do(ctx, rest.Get, "/notifications/unread-count", nil, nil, &count)
	return count.Count, err
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) (notification.Notification, error) {
	var n notification.Notification
	err := c.do(ctx, rest.Patch, "/notifications/"+url.PathEscape(id)+"/read", nil, nil, &n)
	return n, err
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) (int, error) {
	var res struct {
		Marked int `json:"marked"`
	}
	err := c.do(ctx, rest.Patch, "/notifications/read-all", nil, nil, &res)
	return res.Marked, err
}

// messages

func (c *Client) SendMessage(ctx context.Context, nm message.NewMessage) (message.Message, error) {
	var msg message.Message
	err := c.do(ctx, rest.Post, "/messages/send", nil, nm, &msg)
	return msg, err
}

func (c *Client) Contacts(ctx context.Context) ([]message.Contact, error) {
	var contacts []message.Contact
	err := c.do(ctx, rest.Get, "/messages/contacts", nil, nil, &contacts)
	return contacts, err
}

// Conversation returns the messages exchanged with a contact in a course, sent after `after` when set.
func (c *Client) Conversation(ctx context.Context, contactID, courseID string, after time.Time) ([]message.Message, error) {
	query := map[string]string{"contact_id": contactID, "course_id": courseID}
	if !after.IsZero() {
		query["after"] = after.UTC().Format(time.RFC3339Nano)
	}
	var msgs []message.Message
	err := c.do(ctx, rest.Get, "/messages/conversation", query, nil, &msgs)
	return msgs, err
}

// admin

func (c *Client) Users(ctx context.Context, filter user.QueryFilter, ordering string) ([]user.User, error) {
	query := make(map[string]string)
	setIf(query, "search", filter.Search)
	setIf(query, "type", strings.Join(filter.Types, ","))
	if filter.IsActive != nil {
		query["is_active"] = strconv.FormatBool(*filter.IsActive)
	}
	setIf(query, "ordering", ordering)
	var users []user.User
	err := c.do(ctx, rest.Get, "/admin/users", query, nil, &users)
	return users, err
}

func (c *Client) CreateUser(ctx context.Context, nu user.NewUser) (user.User, error) {
	var usr user.User
	err := c.do(ctx, rest.Post, "/admin/users", nil, nu, &usr)
	return usr, err
}

func (c *Client) UpdateUser(ctx context.Context, id string, uu user.UpdateUser) (user.User, error) {
	var usr user.User
	err := c.do(ctx, rest.Patch, "/admin/users/"+url.PathEscape(id), nil, uu, &usr)
	return usr, err
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, rest.Delete, "/admin/users/"+url.PathEscape(id), nil, nil, nil)
}

func setIf(query map[string]string, key, val string) {
	if val != "" {
		query[key] = val
	}
}
