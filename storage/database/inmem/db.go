package inmemdb

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/masomo-lms/core/course"
	"github.com/trezcool/masomo-lms/core/message"
	"github.com/trezcool/masomo-lms/core/notification"
	"github.com/trezcool/masomo-lms/core/quiz"
	"github.com/trezcool/masomo-lms/core/user"
)

type (
	// DB is an in-memory database, used for DEV and TEST.
	DB struct {
		user         *userTable
		course       *courseTable
		quiz         *quizTable
		notification *notificationTable
		message      *messageTable
	}

	userTable struct {
		mutex sync.RWMutex
		table map[string]*user.User
	}

	courseTable struct {
		mutex       sync.RWMutex
		table       map[string]*course.Course
		enrollments map[string]*course.Enrollment
	}

	quizTable struct {
		mutex       sync.RWMutex
		table       map[string]*quiz.Quiz
		submissions map[string]*quiz.Submission
	}

	notificationTable struct {
		mutex sync.RWMutex
		table map[string]*notification.Notification
	}

	messageTable struct {
		mutex sync.RWMutex
		table []message.Message
	}
)

func Open() *DB {
	return &DB{
		user: &userTable{table: make(map[string]*user.User)},
		course: &courseTable{
			table:       make(map[string]*course.Course),
			enrollments: make(map[string]*course.Enrollment),
		},
		quiz: &quizTable{
			table:       make(map[string]*quiz.Quiz),
			submissions: make(map[string]*quiz.Submission),
		},
		notification: &notificationTable{table: make(map[string]*notification.Notification)},
		message:      &messageTable{},
	}
}

func containsStr(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func newID() string {
	return uuid.New().String()
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}
