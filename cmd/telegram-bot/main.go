package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/futig/askdocs/internal/builder"
	"go.uber.org/zap"
)

func main() {
	app, err := builder.BuildTelegramBot()
	if err != nil {
		log.Fatal("Failed to build telegram bot:", err)
	}
	logger := app.Logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := app.Bot.Start(ctx); err != nil {
		logger.Error("telegram bot error", zap.Error(err))
		app.Close(ctx)
		os.Exit(1)
	}

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	cancel()

	if err := app.Bot.Stop(); err != nil {
		logger.Error("error stopping bot", zap.Error(err))
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer closeCancel()
	app.Close(closeCtx)

	logger.Info("telegram bot stopped gracefully")
}
