package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/masomo-lms/core"
	"github.com/trezcool/masomo-lms/core/course"
	"github.com/trezcool/masomo-lms/core/message"
	"github.com/trezcool/masomo-lms/core/notification"
	"github.com/trezcool/masomo-lms/core/quiz"
	"github.com/trezcool/masomo-lms/core/user"
)

type (
	ServerDeps struct {
		Conf            *core.Config
		Logger          core.Logger
		Validate        *validator.Validate
		Translator      ut.Translator
		DisableReqLogs  bool
		UserSvc         *user.Service
		CourseSvc       *course.Service
		QuizSvc         *quiz.Service
		NotificationSvc *notification.Service
		MessageSvc      *message.Service
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		auth     authenticator
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		auth:     newAuthenticator(deps.Conf, deps.UserSvc),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	registerUserAPI(s.app, s.auth, s.deps.UserSvc)
	registerCourseAPI(s.app, s.auth, s.deps.CourseSvc)
	registerQuizAPI(s.app, s.auth, s.deps.QuizSvc)
	registerNotificationAPI(s.app, s.auth, s.deps.NotificationSvc)
	registerMessageAPI(s.app, s.auth, s.deps.MessageSvc)
}

// Start listens on the configured address; a failure is reported through Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the app to shut down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Masomo API!")
}
