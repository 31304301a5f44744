package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/trezcool/masomo-lms/core"
	"github.com/trezcool/masomo-lms/services/lmsapi"
	logsvc "github.com/trezcool/masomo-lms/services/logger"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger("PORTAL : "), conf)

	client, err := lmsapi.New(conf.Portal, nil, logger)
	if err != nil {
		logger.Fatal("setting up API client", err)
	}

	// stopped on Ctrl+C: the pollers of `watch` live until then
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli := commandLine{
		conf:   conf.Portal,
		client: client,
		store:  sessionStore{path: conf.Portal.SessionFile},
		logger: logger,
		in:     os.Stdin,
		out:    os.Stdout,
	}
	err = cli.run(ctx, os.Args)
	stop()
	logger.Close()
	if err != nil {
		if err != errHelp {
			cli.toast(err.Error())
		}
		os.Exit(1)
	}
}
