// Package shared wires the dependencies every masomo binary needs.
package shared

import (
	"database/sql"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-lms/core"
	"github.com/trezcool/masomo-lms/core/course"
	"github.com/trezcool/masomo-lms/core/message"
	"github.com/trezcool/masomo-lms/core/notification"
	"github.com/trezcool/masomo-lms/core/quiz"
	"github.com/trezcool/masomo-lms/core/user"
	emailsvc "github.com/trezcool/masomo-lms/services/email"
	"github.com/trezcool/masomo-lms/storage/database"
	inmemdb "github.com/trezcool/masomo-lms/storage/database/inmem"
	sqlxrepos "github.com/trezcool/masomo-lms/storage/database/sqlx"
)

// EngineMemory keeps every table in memory; nothing survives a restart.
const EngineMemory = "memory"

type (
	Repositories struct {
		SQL           *sql.DB // nil with EngineMemory
		Users         user.Repository
		Courses       course.Repository
		Quizzes       quiz.Repository
		Notifications notification.Repository
		Messages      message.Repository
	}

	Services struct {
		User         *user.Service
		Course       *course.Service
		Quiz         *quiz.Service
		Notification *notification.Service
		Message      *message.Service
	}
)

// NewValidator returns a validator knowing every domain rule, along with its translator.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	quiz.InitValidators(validate, translator)
	return validate, translator
}

// NewEmailService prints mails to the console in debug mode and sends them through Sendgrid otherwise.
func NewEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

// OpenRepositories opens the configured database engine.
// With postgres, the database is created and migrated when `migrate` is set.
func OpenRepositories(conf *core.Config, migrate bool) (*Repositories, error) {
	if conf.Database.Engine == EngineMemory {
		return NewMemoryRepositories(), nil
	}

	if migrate {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err = database.Migrate(db, "up"); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	xdb := sqlxrepos.NewDB(db)
	return &Repositories{
		SQL:           db,
		Users:         sqlxrepos.NewUserRepository(xdb),
		Courses:       sqlxrepos.NewCourseRepository(xdb),
		Quizzes:       sqlxrepos.NewQuizRepository(xdb),
		Notifications: sqlxrepos.NewNotificationRepository(xdb),
		Messages:      sqlxrepos.NewMessageRepository(xdb),
	}, nil
}

func NewMemoryRepositories() *Repositories {
	db := inmemdb.Open()
	return &Repositories{
		Users:         inmemdb.NewUserRepository(db),
		Courses:       inmemdb.NewCourseRepository(db),
		Quizzes:       inmemdb.NewQuizRepository(db),
		Notifications: inmemdb.NewNotificationRepository(db),
		Messages:      inmemdb.NewMessageRepository(db),
	}
}

func (r *Repositories) Close() error {
	if r.SQL == nil {
		return nil
	}
	return errors.Wrap(r.SQL.Close(), "closing database")
}

func NewServices(repos *Repositories, mailSvc core.EmailService, validate *validator.Validate, logger core.Logger) *Services {
	usrSvc := user.NewService(repos.Users, mailSvc, validate)
	crsSvc := course.NewService(repos.Courses, usrSvc, validate)
	notifSvc := notification.NewService(repos.Notifications)
	return &Services{
		User:         usrSvc,
		Course:       crsSvc,
		Quiz:         quiz.NewService(repos.Quizzes, crsSvc, usrSvc, notifSvc, mailSvc, validate, logger),
		Notification: notifSvc,
		Message:      message.NewService(repos.Messages, crsSvc, usrSvc, notifSvc, validate, logger),
	}
}
