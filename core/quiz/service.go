package quiz

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/masomo-lms/core"
	"github.com/trezcool/masomo-lms/core/course"
	"github.com/trezcool/masomo-lms/core/notification"
	"github.com/trezcool/masomo-lms/core/user"
)

var (
	// errors
	ErrNotFound           = errors.New("quiz not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrAlreadySubmitted   = errors.New("quiz already submitted")
)

type (
	Repository interface {
		CreateQuiz(ctx context.Context, qz Quiz) (Quiz, error)
		GetQuiz(ctx context.Context, id string) (Quiz, error)
		// QueryQuizzes applies AND operation on available QueryFilter fields, newest first.
		QueryQuizzes(ctx context.Context, filter QueryFilter) ([]Quiz, error)
		// CreateSubmission returns ErrAlreadySubmitted if the student already submitted the quiz.
		CreateSubmission(ctx context.Context, sub Submission) (Submission, error)
		GetSubmission(ctx context.Context, id string) (Submission, error)
		QuerySubmissions(ctx context.Context, filter SubmissionFilter) ([]Submission, error)
		UpdateSubmission(ctx context.Context, sub Submission) (Submission, error)
	}

	// Courses is the part of the course catalog quizzes depend on.
	Courses interface {
		Get(ctx context.Context, id string) (course.Course, error)
		IsMember(ctx context.Context, usr user.User, courseID string) (bool, error)
		EnrolledStudentIDs(ctx context.Context, courseID string) ([]string, error)
		EnrolledCourseIDs(ctx context.Context, studentID string) ([]string, error)
	}

	Users interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Notifier interface {
		Notify(ctx context.Context, nn notification.NewNotification) (notification.Notification, error)
	}

	Service struct {
		repo     Repository
		courses  Courses
		users    Users
		notifier Notifier
		mailSvc  core.EmailService
		validate *validator.Validate
		logger   core.Logger
	}
)

func NewService(
	repo Repository,
	courses Courses,
	users Users,
	notifier Notifier,
	mailSvc core.EmailService,
	validate *validator.Validate,
	logger core.Logger,
) *Service {
	return &Service{
		repo:     repo,
		courses:  courses,
		users:    users,
		notifier: notifier,
		mailSvc:  mailSvc,
		validate: validate,
		logger:   logger,
	}
}

// CreateQuiz lets the teacher of a course (or an admin) publish a quiz to its students.
func (svc *Service) CreateQuiz(ctx context.Context, author user.User, nq NewQuiz) (Quiz, error) {
	nq.Title = core.CleanString(nq.Title)
	for i := range nq.Questions {
		nq.Questions[i].Prompt = core.CleanString(nq.Questions[i].Prompt)
	}
	if err := svc.validate.Struct(nq); err != nil {
		return Quiz{}, err
	}

	crs, err := svc.courses.Get(ctx, nq.CourseID)
	if err != nil {
		if err == course.ErrNotFound {
			return Quiz{}, core.NewValidationError(err, core.FieldError{Field: "course_id", Error: err.Error()})
		}
		return Quiz{}, err
	}
	if !author.IsAdmin() && crs.TeacherID != author.ID {
		return Quiz{}, core.ErrPermissionDenied
	}

	qz := Quiz{
		ID:         uuid.New().String(),
		Title:      nq.Title,
		CourseID:   crs.ID,
		CourseName: crs.Title,
		Questions:  nq.Questions,
		Duration:   nq.Duration,
		DueDate:    nq.DueDate.UTC(),
		MaxScore:   nq.MaxScore,
		CreatedBy:  author.ID,
		CreatedAt:  time.Now().UTC(),
	}
	if qz.MaxScore == 0 {
		qz.MaxScore = qz.PossibleScore()
	}
	if qz, err = svc.repo.CreateQuiz(ctx, qz); err != nil {
		return Quiz{}, err
	}

	studentIDs, err := svc.courses.EnrolledStudentIDs(ctx, crs.ID)
	if err != nil {
		svc.logger.Error(err.Error(), err)
		return qz, nil
	}
	for _, id := range studentIDs {
		svc.notify(ctx, notification.NewNotification{
			UserID:  id,
			Kind:    notification.KindNewQuiz,
			Message: fmt.Sprintf("New quiz in %s: %s", crs.Title, qz.Title),
			Link:    "/quizzes/" + qz.ID,
		})
	}
	return qz, nil
}

func (svc *Service) canAccess(ctx context.Context, usr user.User, qz Quiz) error {
	if usr.IsAdmin() || qz.CreatedBy == usr.ID {
		return nil
	}
	ok, err := svc.courses.IsMember(ctx, usr, qz.CourseID)
	if err != nil {
		return err
	}
	if !ok {
		return core.ErrPermissionDenied
	}
	return nil
}

func (svc *Service) GetQuiz(ctx context.Context, usr user.User, id string) (Quiz, error) {
	qz, err := svc.repo.GetQuiz(ctx, id)
	if err != nil {
		return Quiz{}, err
	}
	if err = svc.canAccess(ctx, usr, qz); err != nil {
		return Quiz{}, err
	}
	return qz, nil
}

// MyCourseQuizzes returns the quizzes of the courses a student is enrolled in,
// the quizzes a teacher created, or every quiz for an admin.
func (svc *Service) MyCourseQuizzes(ctx context.Context, usr user.User) ([]Quiz, error) {
	switch {
	case usr.IsAdmin():
		return svc.repo.QueryQuizzes(ctx, QueryFilter{})
	case usr.IsTeacher():
		return svc.repo.QueryQuizzes(ctx, QueryFilter{CreatedBy: usr.ID})
	default:
		courseIDs, err := svc.courses.EnrolledCourseIDs(ctx, usr.ID)
		if err != nil {
			return nil, err
		}
		if len(courseIDs) == 0 {
			return []Quiz{}, nil
		}
		return svc.repo.QueryQuizzes(ctx, QueryFilter{CourseIDs: courseIDs})
	}
}

// Submit scores and stores a student's answers. The score posted by the client is never trusted.
func (svc *Service) Submit(ctx context.Context, student user.User, ns NewSubmission) (Submission, error) {
	if err := svc.validate.Struct(ns); err != nil {
		return Submission{}, err
	}
	qz, err := svc.GetQuiz(ctx, student, ns.QuizID)
	if err != nil {
		if err == ErrNotFound {
			return Submission{}, core.NewValidationError(err, core.FieldError{Field: "quiz_id", Error: err.Error()})
		}
		return Submission{}, err
	}

	score, err := Grade(qz, ns.Answers)
	if err != nil {
		return Submission{}, core.NewValidationError(err, core.FieldError{Field: "answers", Error: err.Error()})
	}

	return svc.repo.CreateSubmission(ctx, Submission{
		ID:          uuid.New().String(),
		QuizID:      qz.ID,
		StudentID:   student.ID,
		StudentName: student.Name,
		Answers:     ns.Answers,
		Score:       score,
		Status:      StatusSubmitted,
		SubmittedAt: time.Now().UTC(),
	})
}

func (svc *Service) MySubmissions(ctx context.Context, student user.User) ([]Submission, error) {
	return svc.repo.QuerySubmissions(ctx, SubmissionFilter{StudentID: student.ID})
}

// QuizSubmissions lists the submissions of a quiz for its author (or an admin).
func (svc *Service) QuizSubmissions(ctx context.Context, usr user.User, quizID string) ([]Submission, error) {
	qz, err := svc.repo.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !usr.IsAdmin() && qz.CreatedBy != usr.ID {
		return nil, core.ErrPermissionDenied
	}
	return svc.repo.QuerySubmissions(ctx, SubmissionFilter{QuizID: quizID})
}

// GetSubmission is allowed to the student who submitted, the quiz author and admins.
func (svc *Service) GetSubmission(ctx context.Context, usr user.User, id string) (Submission, error) {
	sub, err := svc.repo.GetSubmission(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	if usr.IsAdmin() || sub.StudentID == usr.ID {
		return sub, nil
	}
	qz, err := svc.repo.GetQuiz(ctx, sub.QuizID)
	if err != nil {
		return Submission{}, err
	}
	if qz.CreatedBy != usr.ID {
		return Submission{}, core.ErrPermissionDenied
	}
	return sub, nil
}

// GradeSubmission overrides a submission's score and feedback and marks it graded.
// Only the presence of the score is checked; a score above the quiz max is stored as given.
func (svc *Service) GradeSubmission(ctx context.Context, teacher user.User, id string, gu GradeUpdate) (Submission, error) {
	if err := svc.validate.Struct(gu); err != nil {
		return Submission{}, err
	}
	sub, err := svc.repo.GetSubmission(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	qz, err := svc.repo.GetQuiz(ctx, sub.QuizID)
	if err != nil {
		return Submission{}, err
	}
	if !teacher.IsAdmin() && qz.CreatedBy != teacher.ID {
		return Submission{}, core.ErrPermissionDenied
	}
	if *gu.Score > qz.MaxScore || *gu.Score < 0 {
		svc.logger.Warn(fmt.Sprintf("submission %s graded %d outside [0, %d]", sub.ID, *gu.Score, qz.MaxScore))
	}

	now := time.Now().UTC()
	sub.Score = *gu.Score
	sub.Feedback = core.CleanString(gu.Feedback)
	sub.Status = StatusGraded
	sub.GradedAt = &now
	if sub, err = svc.repo.UpdateSubmission(ctx, sub); err != nil {
		return Submission{}, err
	}

	svc.notify(ctx, notification.NewNotification{
		UserID:  sub.StudentID,
		Kind:    notification.KindQuizGraded,
		Message: fmt.Sprintf("Your submission for %q was graded: %d/%d", qz.Title, sub.Score, qz.MaxScore),
		Link:    "/quiz-submissions/" + sub.ID,
	})
	svc.sendGradedMail(ctx, qz, sub)
	return sub, nil
}

func (svc *Service) notify(ctx context.Context, nn notification.NewNotification) {
	if _, err := svc.notifier.Notify(ctx, nn); err != nil {
		svc.logger.Error(err.Error(), err)
	}
}

func (svc *Service) sendGradedMail(ctx context.Context, qz Quiz, sub Submission) {
	student, err := svc.users.GetByID(ctx, sub.StudentID)
	if err != nil {
		svc.logger.Error(err.Error(), err)
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject:      "Your quiz was graded",
		TemplateName: "quiz_graded",
		TemplateData: map[string]interface{}{
			"StudentName": student.Name,
			"QuizTitle":   qz.Title,
			"QuizID":      qz.ID,
			"Score":       sub.Score,
			"MaxScore":    qz.MaxScore,
			"Feedback":    sub.Feedback,
		},
	})
}
