package http

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"imagetales/internal/domain/models"
	"imagetales/internal/lib/jwt"
	"imagetales/internal/lib/logger/sl"
	"imagetales/internal/metrics"
	imageservice "imagetales/internal/services/image_service"
	tokenservice "imagetales/internal/services/token_service"
	userservice "imagetales/internal/services/user_service"
	"imagetales/internal/storage"
	"imagetales/internal/transport/http/dto"
	"imagetales/internal/transport/http/dto/request"
	"imagetales/internal/transport/http/dto/response"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const HealthMessage = "ImageTales Backend is running"

type UserService interface {
	Register(ctx context.Context, username, email, password string) (*models.TokenPair, error)
	Login(ctx context.Context, email, password string) (*models.TokenPair, error)
	Profile(ctx context.Context, userID uuid.UUID) (models.User, error)
}

type TokenService interface {
	RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	RevokeAll(ctx context.Context, userID string) error
}

type ImageService interface {
	ListAll(ctx context.Context, category string) ([]models.Image, error)
	ListByUser(ctx context.Context, userID string) ([]models.Image, error)
	ToggleLike(ctx context.Context, imageID, userID string) (models.LikeResult, error)
	Save(ctx context.Context, input dto.SaveImageInput) (string, error)
	Delete(ctx context.Context, imageID, userID string) error
	Upload(ctx context.Context, file *multipart.FileHeader) (string, error)
}

type Routers struct {
	log          *slog.Logger
	UserService  UserService
	TokenService TokenService
	ImageService ImageService
}

func NewRouter(log *slog.Logger, userService UserService, tokenService TokenService, imageService ImageService) *Routers {
	return &Routers{
		log:          log,
		UserService:  userService,
		TokenService: tokenService,
		ImageService: imageService,
	}
}

// Health godoc
// @Summary Проверка доступности
// @Tags system
// @Produce plain
// @Success 200 {string} string
// @Router / [get]
func (r *Routers) Health(c echo.Context) error {
	return c.String(http.StatusOK, HealthMessage)
}

// Register godoc
// @Summary Регистрация нового пользователя
// @Description Создание аккаунта. Сразу возвращает пару токенов.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body request.RegisterRequest true "Данные для регистрации"
// @Success 201 {object} response.Response{data=models.TokenPair}
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /auth/register [post]
func (r *Routers) Register(c echo.Context) error {
	const op = "http.routers.Register"

	log := r.log.With(slog.String("op", op))

	var req request.RegisterRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails(
			"Email, username, and password are required", err.Error()))
	}

	tokens, err := r.UserService.Register(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, userservice.ErrUserExist) {
			return c.JSON(http.StatusConflict, response.ErrUserAlreadyExists)
		}

		log.Error("registration failed", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusCreated, response.SuccessResponse(tokens))
}

// Login godoc
// @Summary Аутентификация пользователя
// @Tags auth
// @Accept json
// @Produce json
// @Param request body request.LoginRequest true "Данные для входа"
// @Success 200 {object} response.Response{data=models.TokenPair}
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/login [post]
func (r *Routers) Login(c echo.Context) error {
	const op = "http.routers.Login"

	log := r.log.With(slog.String("op", op))

	var req request.LoginRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		log.Warn("invalid format request", slog.String("email", req.Email))
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails(
			"Email and password are required", err.Error()))
	}

	tokens, err := r.UserService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, userservice.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
		}

		log.Error("login failed", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(tokens))
}

// Refresh godoc
// @Summary Обновление пары токенов
// @Tags auth
// @Accept json
// @Produce json
// @Param request body request.RefreshRequest true "Refresh-токен"
// @Success 200 {object} response.Response{data=models.TokenPair}
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/refresh [post]
func (r *Routers) Refresh(c echo.Context) error {
	const op = "http.routers.Refresh"

	log := r.log.With(slog.String("op", op))

	var req request.RefreshRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	tokens, err := r.TokenService.RefreshTokens(c.Request().Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, tokenservice.ErrInvalidToken) || errors.Is(err, tokenservice.ErrTokenNotInStorage) {
			return c.JSON(http.StatusUnauthorized, response.ErrInvalidToken)
		}

		log.Error("error refresh tokens", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(tokens))
}

// Logout godoc
// @Summary Отзыв всех refresh-токенов пользователя
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Router /auth/logout [post]
func (r *Routers) Logout(c echo.Context) error {
	const op = "http.routers.Logout"

	userID, err := UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, response.ErrInvalidToken)
	}

	if err := r.TokenService.RevokeAll(c.Request().Context(), userID); err != nil {
		r.log.Error("failed to revoke tokens", slog.String("op", op), sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.NoContent(http.StatusNoContent)
}

// Profile godoc
// @Summary Профиль текущего пользователя
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=dto.ProfileResponse}
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /auth/profile [get]
func (r *Routers) Profile(c echo.Context) error {
	const op = "http.routers.Profile"

	userID, err := UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, response.ErrInvalidToken)
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, response.ErrInvalidToken)
	}

	user, err := r.UserService.Profile(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, userservice.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, response.ErrUserNotFound)
		}

		r.log.Error("failed to load profile", slog.String("op", op), sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(dto.NewProfileResponse(user)))
}

// ListGallery godoc
// @Summary Общая лента изображений
// @Description До 100 изображений, новые первыми, вместе со списком лайкнувших.
// @Tags gallery
// @Produce json
// @Param category query string false "Категория"
// @Success 200 {array} models.Image
// @Router /gallery/all [get]
func (r *Routers) ListGallery(c echo.Context) error {
	const op = "http.routers.ListGallery"

	images, err := r.ImageService.ListAll(c.Request().Context(), c.QueryParam("category"))
	if err != nil {
		r.log.Error("failed to list gallery", slog.String("op", op), sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, images)
}

// ListUserGallery godoc
// @Summary Изображения текущего пользователя
// @Tags gallery
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Image
// @Router /gallery/user [get]
func (r *Routers) ListUserGallery(c echo.Context) error {
	const op = "http.routers.ListUserGallery"

	userID, err := UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, response.ErrInvalidToken)
	}

	images, err := r.ImageService.ListByUser(c.Request().Context(), userID)
	if err != nil {
		r.log.Error("failed to list user gallery", slog.String("op", op), sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, images)
}

// ToggleLike godoc
// @Summary Поставить или снять лайк
// @Tags gallery
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID изображения"
// @Success 200 {object} models.LikeResult
// @Failure 404 {object} response.ErrorResponse
// @Failure 429 {object} response.ErrorResponse
// @Router /gallery/like/{id} [post]
func (r *Routers) ToggleLike(c echo.Context) error {
	const op = "http.routers.ToggleLike"

	log := r.log.With(
		slog.String("op", op),
		slog.String("image_id", c.Param("id")),
	)

	userID, err := UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, response.ErrInvalidToken)
	}

	result, err := r.ImageService.ToggleLike(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, imageservice.ErrImageNotFound) {
			return c.JSON(http.StatusNotFound, response.ErrImageNotFound)
		}

		log.Error("failed to toggle like", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	metrics.LikesToggled.WithLabelValues(strconv.FormatBool(result.Liked)).Inc()

	return c.JSON(http.StatusOK, result)
}

// SaveImage godoc
// @Summary Сохранить изображение в галерею
// @Tags image
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SaveImageRequest true "Изображение"
// @Success 201 {object} dto.SaveImageResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /image/save [post]
func (r *Routers) SaveImage(c echo.Context) error {
	const op = "http.routers.SaveImage"

	log := r.log.With(slog.String("op", op))

	userID, err := UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, response.ErrInvalidToken)
	}

	var req dto.SaveImageRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrMissingImageFields)
	}

	id, err := r.ImageService.Save(c.Request().Context(), req.ToInput(userID))
	if err != nil {
		if errors.Is(err, imageservice.ErrInvalidImage) {
			return c.JSON(http.StatusBadRequest, response.ErrMissingImageFields)
		}

		log.Error("failed to save image", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusCreated, dto.SaveImageResponse{
		ImageID: id,
		Message: "Image saved successfully",
	})
}

// UploadImage godoc
// @Summary Загрузить файл изображения
// @Tags image
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Файл"
// @Success 200 {object} dto.UploadImageResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 413 {object} response.ErrorResponse
// @Router /image/upload [post]
func (r *Routers) UploadImage(c echo.Context) error {
	const op = "http.routers.UploadImage"

	log := r.log.With(slog.String("op", op))

	file, err := c.FormFile("file")
	if err != nil || file.Filename == "" {
		return c.JSON(http.StatusBadRequest, response.ErrNoFile)
	}

	url, err := r.ImageService.Upload(c.Request().Context(), file)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrFileTooLarge):
			return c.JSON(http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		case errors.Is(err, storage.ErrInvalidFileType):
			return c.JSON(http.StatusBadRequest, response.ErrInvalidFileType)
		}

		log.Error("failed to upload file", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, dto.UploadImageResponse{URL: url})
}

// DeleteImage godoc
// @Summary Удалить свое изображение
// @Tags image
// @Security BearerAuth
// @Param id path string true "ID изображения"
// @Success 204
// @Failure 404 {object} response.ErrorResponse
// @Router /image/{id} [delete]
func (r *Routers) DeleteImage(c echo.Context) error {
	const op = "http.routers.DeleteImage"

	userID, err := UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, response.ErrInvalidToken)
	}

	if err := r.ImageService.Delete(c.Request().Context(), c.Param("id"), userID); err != nil {
		if errors.Is(err, imageservice.ErrImageNotFound) {
			return c.JSON(http.StatusNotFound, response.ErrImageNotFound)
		}

		r.log.Error("failed to delete image", slog.String("op", op), sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.NoContent(http.StatusNoContent)
}

// UserIDFromContext достает uid из токена, положенного echo-jwt в контекст
func UserIDFromContext(c echo.Context) (string, error) {
	token, ok := c.Get("user").(*gojwt.Token)
	if !ok || token == nil {
		return "", jwt.ErrInvalidToken
	}

	claims, ok := token.Claims.(gojwt.MapClaims)
	if !ok {
		return "", jwt.ErrInvalidTokenClaims
	}

	return jwt.UserID(claims)
}
