package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/brainwave/brainwave/internal/app"
)

func main() {
	cmd, err := app.ParseCommand(os.Args[1:])
	if err != nil {
		slog.Error("invalid command", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := app.Run(context.Background(), cmd); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
