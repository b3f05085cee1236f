package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/seongsu-hq/popup-harvester/internal/app"
	"github.com/seongsu-hq/popup-harvester/internal/config"
	"github.com/seongsu-hq/popup-harvester/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "collector start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("collector starting", "app_name", cfg.AppName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector, err := app.NewCollector(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize collector", "error", err)
		return err
	}

	if err := collector.Run(ctx); err != nil {
		return fmt.Errorf("collector run: %w", err)
	}

	return nil
}
