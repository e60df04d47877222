package repository

import (
	"context"
	"errors"
	"fmt"

	"imagetales/internal/domain/models"
	"imagetales/internal/storage"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/lib/pq"
)

const imagesTable = "images"

var imageColumns = []string{
	"id::text",
	"COALESCE(user_id::text, '')",
	"title",
	"category",
	"url",
	"likes",
	"prompt",
	"COALESCE(created_at, to_timestamp(0))",
	"is_generated",
	"views",
	"liked_by",
}

type ImageRepo struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

func NewImageRepo(db *pgxpool.Pool) *ImageRepo {
	return &ImageRepo{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateImage сохраняет запись об изображении и возвращает её ID
func (r *ImageRepo) CreateImage(ctx context.Context, image models.Image) (string, error) {
	const op = "repository.ImageRepo.CreateImage"

	var userID interface{}
	if image.UserID != "" {
		userID = image.UserID
	}

	var createdAt interface{} = squirrel.Expr("NOW()")
	if !image.CreatedAt.IsZero() {
		createdAt = image.CreatedAt
	}

	insert := r.sb.Insert(imagesTable).
		Columns(
			"user_id",
			"title",
			"category",
			"url",
			"prompt",
			"is_generated",
			"created_at",
		).
		Values(
			userID,
			image.Title,
			image.Category,
			image.URL,
			image.Prompt,
			image.IsGenerated,
			createdAt,
		)

	query, args, err := insert.Suffix("RETURNING id::text").ToSql()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var id string
	if err := r.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// GetImageByID возвращает изображение по ID
func (r *ImageRepo) GetImageByID(ctx context.Context, id string) (models.Image, error) {
	const op = "repository.ImageRepo.GetImageByID"

	query, args, err := r.sb.Select(imageColumns...).
		From(imagesTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return models.Image{}, fmt.Errorf("%s: %w", op, err)
	}

	image, err := scanImage(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Image{}, fmt.Errorf("%s: %w", op, storage.ErrImageNotFound)
		}
		return models.Image{}, fmt.Errorf("%s: %w", op, err)
	}

	return image, nil
}

// GetImages возвращает последние изображения, новые первыми.
// Пустой categories означает все категории.
func (r *ImageRepo) GetImages(ctx context.Context, categories []string, limit uint64) ([]models.Image, error) {
	const op = "repository.ImageRepo.GetImages"

	queryBuilder := r.sb.Select(imageColumns...).From(imagesTable)

	if len(categories) > 0 {
		queryBuilder = queryBuilder.Where("category = ANY(?)", pq.Array(categories))
	}

	query, args, err := queryBuilder.
		OrderBy("created_at DESC NULLS LAST").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	images, err := r.queryImages(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return images, nil
}

// GetImagesByUser возвращает изображения пользователя, новые первыми
func (r *ImageRepo) GetImagesByUser(ctx context.Context, userID string, limit uint64) ([]models.Image, error) {
	const op = "repository.ImageRepo.GetImagesByUser"

	query, args, err := r.sb.Select(imageColumns...).
		From(imagesTable).
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC NULLS LAST").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	images, err := r.queryImages(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return images, nil
}

// ToggleLike ставит или снимает лайк пользователя в одной транзакции.
// Строка блокируется на время чтения-изменения-записи.
func (r *ImageRepo) ToggleLike(ctx context.Context, imageID, userID string) (models.LikeResult, error) {
	const op = "repository.ImageRepo.ToggleLike"

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return models.LikeResult{}, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	query, args, err := r.sb.Select("likes", "liked_by").
		From(imagesTable).
		Where(squirrel.Eq{"id": imageID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return models.LikeResult{}, fmt.Errorf("%s: %w", op, err)
	}

	var (
		likes   int
		likedBy []string
	)
	if err := tx.QueryRow(ctx, query, args...).Scan(&likes, &likedBy); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.LikeResult{}, fmt.Errorf("%s: %w", op, storage.ErrImageNotFound)
		}
		return models.LikeResult{}, fmt.Errorf("%s: %w", op, err)
	}

	likes, likedBy, liked := toggleMembership(likes, likedBy, userID)

	query, args, err = r.sb.Update(imagesTable).
		Set("likes", likes).
		Set("liked_by", likedBy).
		Where(squirrel.Eq{"id": imageID}).
		ToSql()
	if err != nil {
		return models.LikeResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return models.LikeResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.LikeResult{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.LikeResult{Likes: likes, Liked: liked}, nil
}

// DeleteImage удаляет изображение, только если оно принадлежит userID
func (r *ImageRepo) DeleteImage(ctx context.Context, imageID, userID string) error {
	const op = "repository.ImageRepo.DeleteImage"

	query, args, err := r.sb.Delete(imagesTable).
		Where(squirrel.Eq{"id": imageID, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrImageNotFound)
	}

	return nil
}

// BackfillCreatedAt проставляет текущее время записям без created_at
func (r *ImageRepo) BackfillCreatedAt(ctx context.Context) (int64, error) {
	const op = "repository.ImageRepo.BackfillCreatedAt"

	query, args, err := r.sb.Update(imagesTable).
		Set("created_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"created_at": nil}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected(), nil
}

func (r *ImageRepo) queryImages(ctx context.Context, query string, args ...interface{}) ([]models.Image, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := make([]models.Image, 0)
	for rows.Next() {
		image, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}

	return images, rows.Err()
}

func scanImage(row pgx.Row) (models.Image, error) {
	var image models.Image
	err := row.Scan(
		&image.ID,
		&image.UserID,
		&image.Title,
		&image.Category,
		&image.URL,
		&image.Likes,
		&image.Prompt,
		&image.CreatedAt,
		&image.IsGenerated,
		&image.Views,
		&image.LikedBy,
	)
	return image, err
}

// toggleMembership переключает присутствие userID в списке лайкнувших
func toggleMembership(likes int, likedBy []string, userID string) (int, []string, bool) {
	next := make([]string, 0, len(likedBy)+1)
	found := false
	for _, id := range likedBy {
		if id == userID {
			found = true
			continue
		}
		next = append(next, id)
	}

	if found {
		if likes > 0 {
			likes--
		}
		return likes, next, false
	}

	return likes + 1, append(next, userID), true
}
