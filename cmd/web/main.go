package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"reportclean/internal/app"
	"reportclean/internal/infrastructure"
)

func main() {
	application, err := app.NewApplication()
	if err != nil {
		infrastructure.GetLogger().Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		application.Logger.Error("Application error", slog.String("error", err.Error()))
		infrastructure.CloseLogFile()
		os.Exit(1)
	}
}
