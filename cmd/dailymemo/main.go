package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"daily-memo-go/internal/app"
	"daily-memo-go/internal/cli"
	"daily-memo-go/internal/config"
	"daily-memo-go/internal/logger"
)

func main() {
	if err := run(); err != nil {
		cli.NewFormatter(os.Stderr).Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load() // loads .env

	log := logger.New()

	cfg, err := config.Load(os.Getenv("DAILYMEMO_CONFIG"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	application, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("initializing app: %w", err)
	}

	deps := &cli.Dependencies{
		App:    application,
		Config: cfg,
		Log:    log,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return cli.NewRootCmd(deps).ExecuteContext(ctx)
}
