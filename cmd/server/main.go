package main

import (
	"log/slog"
	"os"

	"github.com/brunostein/rest-api-base/internal/app"
	"github.com/brunostein/rest-api-base/internal/logger"
)

func main() {
	slog.SetDefault(slog.New(logger.NewHandler(os.Stdout, slog.LevelInfo)))

	application, err := app.New()
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}
