package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/mediminder/internal/client/cli"
	"github.com/dmitrijs2005/mediminder/internal/client/client"
	"github.com/dmitrijs2005/mediminder/internal/client/config"
	"github.com/dmitrijs2005/mediminder/internal/logging"
)

func main() {

	cfg := config.LoadConfig()

	logFile := logging.NewFileWriter(cfg.LogFile, 0, 0)
	defer logFile.Close()
	logger := logging.NewJSONLogger(logFile, logging.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	rt, err := client.Build(ctx, cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
	defer rt.Close()

	app := cli.NewApp(rt, logger)
	if err := app.Root(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(ctx, "client stopped", "error", err)
	}

}
