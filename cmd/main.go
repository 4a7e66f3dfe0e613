package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"chainsched/pkg/logger"
)

func main() {
	app := NewApplication()

	if err := app.Initialize(); err != nil {
		logger.Fatalf("Application initialization failed: %v", err)
	}

	if err := app.Start(); err != nil {
		logger.Fatalf("Application startup failed: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Infof("Received exit signal: %v", sig)

	if err := app.Shutdown(30 * time.Second); err != nil {
		logger.Errorf("Application shutdown failed: %v", err)
		os.Exit(1)
	}

	logger.Infof("Application safely exited")
}
