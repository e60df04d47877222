package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"imagetales/internal/client/cli"
	"imagetales/internal/client/galleryapi"

	"github.com/pterm/pterm"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	app := cli.NewApp(os.Stdout, setupLogger)
	err := app.Command().ExecuteContext(ctx)

	_ = app.Close()
	stop()

	if err != nil {
		if !errors.Is(err, cli.ErrReported) && !errors.Is(err, context.Canceled) {
			msg := galleryapi.ErrorMessage(err)
			if msg == "" {
				msg = err.Error()
			}
			pterm.Error.Println(msg)
		}
		os.Exit(1)
	}
}

// логи клиента идут в stderr, stdout занят выводом команд
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelWarn,
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelWarn,
			}),
		)
	}

	return log
}
