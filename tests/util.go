package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/trezcool/masomo-lms/core"
	"github.com/trezcool/masomo-lms/core/course"
	"github.com/trezcool/masomo-lms/core/quiz"
	"github.com/trezcool/masomo-lms/core/user"
	logsvc "github.com/trezcool/masomo-lms/services/logger"
)

// NewLogger returns a logger that discards everything; Rollbar stays disabled under the test config.
func NewLogger() core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), core.NewTestConfig())
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, typ, pwd string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Type:      typ,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(t *testing.T, repo course.Repository, title, category string, teacher user.User, createdAt ...time.Time) course.Course {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	crs, err := repo.CreateCourse(context.Background(), course.Course{
		Title:       title,
		Category:    category,
		TeacherID:   teacher.ID,
		TeacherName: teacher.Name,
		CreatedAt:   tstamp,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func Enroll(t *testing.T, repo course.Repository, crs course.Course, students ...user.User) {
	for _, student := range students {
		_, err := repo.CreateEnrollment(context.Background(), course.Enrollment{
			CourseID:   crs.ID,
			StudentID:  student.ID,
			EnrolledAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("Enroll() failed: %v", err)
		}
	}
}

// Questions returns 3 questions whose correct answers are [0, 2, 1].
func Questions() []quiz.Question {
	return []quiz.Question{
		{Prompt: "2 + 2 = ?", Options: []string{"4", "3", "5", "22"}, CorrectIndex: 0},
		{Prompt: "Capital of DRC?", Options: []string{"Lubumbashi", "Goma", "Kinshasa", "Kisangani"}, CorrectIndex: 2},
		{Prompt: "Go was announced in?", Options: []string{"2007", "2009", "2012", "2015"}, CorrectIndex: 1},
	}
}

func CreateQuiz(t *testing.T, repo quiz.Repository, title string, crs course.Course, author user.User, createdAt ...time.Time) quiz.Quiz {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	qs := Questions()
	qz, err := repo.CreateQuiz(context.Background(), quiz.Quiz{
		Title:      title,
		CourseID:   crs.ID,
		CourseName: crs.Title,
		Questions:  qs,
		Duration:   10,
		DueDate:    tstamp.Add(7 * 24 * time.Hour),
		MaxScore:   len(qs) * quiz.PointsPerCorrect,
		CreatedBy:  author.ID,
		CreatedAt:  tstamp,
	})
	if err != nil {
		t.Fatalf("CreateQuiz() failed: %v", err)
	}
	return qz
}

func CreateSubmission(t *testing.T, repo quiz.Repository, qz quiz.Quiz, student user.User, answers ...int) quiz.Submission {
	sub, err := repo.CreateSubmission(context.Background(), quiz.Submission{
		QuizID:      qz.ID,
		StudentID:   student.ID,
		StudentName: student.Name,
		Answers:     answers,
		Score:       quiz.Score(qz, answers),
		Status:      quiz.StatusSubmitted,
		SubmittedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSubmission() failed: %v", err)
	}
	return sub
}
