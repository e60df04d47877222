package app

import (
	"context"
	"log/slog"

	httpapp "imagetales/internal/app/http"
	"imagetales/internal/config"
	"imagetales/internal/lib/logger/sl"
	"imagetales/internal/repository"
	imageservice "imagetales/internal/services/image_service"
	tokenservice "imagetales/internal/services/token_service"
	userservice "imagetales/internal/services/user_service"
	"imagetales/internal/storage/filestorage"
	redisapp "imagetales/internal/storage/redis"
	httprouters "imagetales/internal/transport/http"
)

type App struct {
	HTTPServer *httpapp.Server

	log   *slog.Logger
	repo  *repository.Repository
	redis *redisapp.Client
}

func New(ctx context.Context, log *slog.Logger, cfg *config.Config) *App {
	repo, err := repository.NewRepository(ctx, cfg.DSN)
	if err != nil {
		panic(err)
	}

	if err := repo.EnsureSchema(ctx); err != nil {
		panic(err)
	}

	redisClient := redisapp.NewClient(cfg.Redis.RedisAddr, cfg.Redis.RedisPassword, cfg.Redis.RedisDB)
	if err := redisClient.HealthCheck(ctx); err != nil {
		log.Warn("redis is not reachable", sl.Err(err))
	}

	files, err := filestorage.NewLocalFileStorage(cfg.FileStorage.BaseDir, cfg.FileStorage.BaseURL, cfg.FileStorage.MaxSize)
	if err != nil {
		panic(err)
	}

	tokenService := tokenservice.NewTokenService(
		log,
		repository.NewRedisTokenRepo(redisClient),
		cfg.Token.Secret,
		cfg.Token.AccessTTL,
		cfg.Token.RefreshTTL,
	)
	userService := userservice.NewUserService(log, repo.User, tokenService)
	imageService := imageservice.NewImageService(
		log,
		repo.Image,
		files,
		cfg.Gallery.CacheTTL,
		cfg.Gallery.ListLimit,
		cfg.Gallery.UserListLimit,
	)

	routers := httprouters.NewRouter(log, userService, tokenService, imageService)

	server := httpapp.New(log, cfg, routers)
	server.BuildRouters()

	return &App{
		HTTPServer: server,
		log:        log,
		repo:       repo,
		redis:      redisClient,
	}
}

func (a *App) Stop() {
	if err := a.HTTPServer.Stop(); err != nil {
		a.log.Error("failed to stop http server", sl.Err(err))
	}

	if err := a.redis.Close(); err != nil {
		a.log.Error("failed to close redis", sl.Err(err))
	}

	a.repo.Close()
}
