package main

import (
	"os"

	"github.com/trezcool/masomo-lms/apps/shared"
	"github.com/trezcool/masomo-lms/core"
	logsvc "github.com/trezcool/masomo-lms/services/logger"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger("ADMIN : "), conf)

	// set up DB
	repos, err := shared.OpenRepositories(conf, false /* migrate */)
	if err != nil {
		logger.Fatal("setting up database", err)
	}

	validate, _ := shared.NewValidator()
	svcs := shared.NewServices(repos, shared.NewEmailService(conf, logger), validate, logger)

	// start CLI
	cli := commandLine{
		db:     repos.SQL,
		usrSvc: svcs.User,
	}
	err = cli.run(os.Args)
	_ = repos.Close()
	logger.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}
