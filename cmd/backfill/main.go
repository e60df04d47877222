package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"imagetales/internal/config"
	"imagetales/internal/lib/logger/sl"
	"imagetales/internal/repository"
)

// Проставляет created_at изображениям, сохраненным без него
func main() {
	cfg := config.MustLoad()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := run(log, cfg.DSN); err != nil {
		log.Error("backfill failed", sl.Err(err))
		os.Exit(1)
	}
}

func run(log *slog.Logger, dsn string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	repo, err := repository.NewRepository(ctx, dsn)
	if err != nil {
		return err
	}
	defer repo.Close()

	updated, err := repo.Image.BackfillCreatedAt(ctx)
	if err != nil {
		return err
	}

	log.Info("backfill complete", slog.Int64("updated", updated))

	return nil
}
