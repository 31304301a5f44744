package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"

	echoapi "github.com/trezcool/masomo-lms/apps/api/echo"
	"github.com/trezcool/masomo-lms/apps/shared"
	"github.com/trezcool/masomo-lms/core"
	logsvc "github.com/trezcool/masomo-lms/services/logger"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger("API : "), conf)
	defer logger.Close()
	dbLogger := logsvc.NewRollbarLogger(logsvc.NewStdLogger("DB : "), conf)

	// set up DB
	repos, err := shared.OpenRepositories(conf, true /* migrate */)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = repos.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()
	if repos.SQL == nil {
		dbLogger.Warn("using the in-memory database: data will not survive a restart")
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := shared.NewValidator()
	if err = core.ParseEmailTemplates(); err != nil {
		logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}

	svcs := shared.NewServices(repos, shared.NewEmailService(conf, logger), validate, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:            conf,
		Logger:          logger,
		Validate:        validate,
		Translator:      translator,
		UserSvc:         svcs.User,
		CourseSvc:       svcs.Course,
		QuizSvc:         svcs.Quiz,
		NotificationSvc: svcs.Notification,
		MessageSvc:      svcs.Message,
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
