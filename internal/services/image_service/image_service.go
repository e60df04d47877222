package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"
	"sync"
	"time"

	"imagetales/internal/domain/models"
	"imagetales/internal/lib/logger/sl"
	"imagetales/internal/repository"
	"imagetales/internal/storage"
	"imagetales/internal/storage/filestorage"
	"imagetales/internal/transport/http/dto"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

var (
	ErrImageNotFound = errors.New("image not found")
	ErrInvalidImage  = errors.New("missing required image fields")
)

const galleryCacheKey = "gallery:"

type ImageService struct {
	log           *slog.Logger
	repo          repository.ImageRepository
	files         filestorage.FileStorage
	cache         *cache.Cache
	cacheTTL      time.Duration
	listLimit     uint64
	userListLimit uint64

	// generation растет при каждом сбросе кэша; чтение, начатое до сброса, в кэш не попадает
	cacheMu    sync.Mutex
	generation uint64
}

func NewImageService(
	log *slog.Logger,
	repo repository.ImageRepository,
	files filestorage.FileStorage,
	cacheTTL time.Duration,
	listLimit, userListLimit uint64,
) *ImageService {
	return &ImageService{
		log:           log,
		repo:          repo,
		files:         files,
		cache:         cache.New(cacheTTL, 2*cacheTTL),
		cacheTTL:      cacheTTL,
		listLimit:     listLimit,
		userListLimit: userListLimit,
	}
}

// ListAll возвращает общую ленту, новые первыми. Пустая категория или "all" означает все.
// При cacheTTL <= 0 кэш не используется.
func (s *ImageService) ListAll(ctx context.Context, category string) ([]models.Image, error) {
	const op = "services.ImageService.ListAll"

	log := s.log.With(
		slog.String("op", op),
		slog.String("category", category),
	)

	if category == models.CategoryAll {
		category = ""
	}

	key := galleryCacheKey + category
	if s.cacheTTL > 0 {
		if cached, ok := s.cache.Get(key); ok {
			log.Debug("gallery served from cache")
			return copyImages(cached.([]models.Image)), nil
		}
	}

	gen := s.cacheGeneration()

	var categories []string
	if category != "" {
		categories = []string{category}
	}

	images, err := s.repo.GetImages(ctx, categories, s.listLimit)
	if err != nil {
		log.Error("failed to list images", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !s.storeGallery(key, gen, images) {
		log.Debug("gallery changed during read, not cached")
	}

	return images, nil
}

func (s *ImageService) cacheGeneration() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	return s.generation
}

// storeGallery кладет ленту в кэш, только если с момента gen кэш не сбрасывался
func (s *ImageService) storeGallery(key string, gen uint64, images []models.Image) bool {
	if s.cacheTTL <= 0 {
		return true
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if gen != s.generation {
		return false
	}
	s.cache.SetDefault(key, copyImages(images))

	return true
}

func (s *ImageService) invalidate() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.generation++
	s.cache.Flush()
}

// ListByUser возвращает изображения пользователя
func (s *ImageService) ListByUser(ctx context.Context, userID string) ([]models.Image, error) {
	const op = "services.ImageService.ListByUser"

	images, err := s.repo.GetImagesByUser(ctx, userID, s.userListLimit)
	if err != nil {
		s.log.Error("failed to list user images", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return images, nil
}

// ToggleLike переключает лайк пользователя и возвращает значения из базы
func (s *ImageService) ToggleLike(ctx context.Context, imageID, userID string) (models.LikeResult, error) {
	const op = "services.ImageService.ToggleLike"

	log := s.log.With(
		slog.String("op", op),
		slog.String("image_id", imageID),
		slog.String("user_id", userID),
	)

	if _, err := uuid.Parse(imageID); err != nil {
		return models.LikeResult{}, fmt.Errorf("%s: %w", op, ErrImageNotFound)
	}

	result, err := s.repo.ToggleLike(ctx, imageID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrImageNotFound) {
			log.Warn("image not found")
			return models.LikeResult{}, fmt.Errorf("%s: %w", op, ErrImageNotFound)
		}
		log.Error("failed to toggle like", sl.Err(err))
		return models.LikeResult{}, fmt.Errorf("%s: %w", op, err)
	}

	s.invalidate()

	log.Info("like toggled", slog.Int("likes", result.Likes), slog.Bool("liked", result.Liked))

	return result, nil
}

// Save сохраняет изображение пользователя и возвращает его ID
func (s *ImageService) Save(ctx context.Context, input dto.SaveImageInput) (string, error) {
	const op = "services.ImageService.Save"

	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", input.UserID),
	)

	if strings.TrimSpace(input.Title) == "" ||
		strings.TrimSpace(input.Category) == "" ||
		strings.TrimSpace(input.URL) == "" ||
		strings.TrimSpace(input.Prompt) == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidImage)
	}

	prompt := input.Prompt
	image := models.Image{
		UserID:      input.UserID,
		Title:       input.Title,
		Category:    input.Category,
		URL:         input.URL,
		Prompt:      &prompt,
		IsGenerated: input.IsGenerated,
		CreatedAt:   time.Now().UTC(),
	}

	id, err := s.repo.CreateImage(ctx, image)
	if err != nil {
		log.Error("failed to save image", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.invalidate()

	log.Info("image saved", slog.String("image_id", id))

	return id, nil
}

// Delete удаляет изображение владельца
func (s *ImageService) Delete(ctx context.Context, imageID, userID string) error {
	const op = "services.ImageService.Delete"

	log := s.log.With(
		slog.String("op", op),
		slog.String("image_id", imageID),
	)

	if _, err := uuid.Parse(imageID); err != nil {
		return fmt.Errorf("%s: %w", op, ErrImageNotFound)
	}

	if err := s.repo.DeleteImage(ctx, imageID, userID); err != nil {
		if errors.Is(err, storage.ErrImageNotFound) {
			return fmt.Errorf("%s: %w", op, ErrImageNotFound)
		}
		log.Error("failed to delete image", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.invalidate()

	log.Info("image deleted")

	return nil
}

// Upload кладет файл в хранилище и возвращает его публичный URL
func (s *ImageService) Upload(ctx context.Context, file *multipart.FileHeader) (string, error) {
	const op = "services.ImageService.Upload"

	log := s.log.With(
		slog.String("op", op),
		slog.String("filename", file.Filename),
	)

	name, size, err := s.files.Save(ctx, file)
	if err != nil {
		log.Warn("failed to store file", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("file uploaded", slog.String("name", name), slog.Int64("size", size))

	return s.files.URL(name), nil
}

func copyImages(images []models.Image) []models.Image {
	out := make([]models.Image, len(images))
	copy(out, images)
	return out
}
