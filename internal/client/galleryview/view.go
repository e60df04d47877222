// Package galleryview контроллер представления галереи: загрузка ленты,
// лайки, фильтрация по категории и скачивание изображений.
//
// View владеет областью отмены: после Close ни один ответ бэкенда не
// применяется к коллекции, незавершенные запросы отменяются.
package galleryview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"imagetales/internal/client/galleryapi"
	"imagetales/internal/client/notify"
	"imagetales/internal/domain/models"
	"imagetales/internal/lib/logger/sl"
)

var (
	ErrClosed        = errors.New("gallery view is closed")
	ErrImageNotFound = errors.New("image is not in the gallery")
	// ErrSuperseded ответ устарел: по тому же объекту уже отправлен более новый запрос
	ErrSuperseded = errors.New("response superseded by a newer request")
)

const (
	titleError        = "Error"
	msgLoadFailed     = "Failed to load gallery images"
	msgToggleFailed   = "Failed to toggle like"
	titleLiked        = "Image liked!"
	msgLiked          = "Added to your favorites"
	titleUnliked      = "Like removed"
	msgUnliked        = "Removed from favorites"
	titleDownload     = "Download started"
	msgDownload       = "Your image is being downloaded"
	titleDownloadFail = "Download failed"
	msgDownloadFail   = "Could not download the image"
)

// API часть клиента бэкенда, нужная представлению
type API interface {
	ListGallery(ctx context.Context) ([]models.Image, error)
	ToggleLike(ctx context.Context, imageID string) (models.LikeResult, error)
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

type State int

const (
	Empty State = iota
	Loaded
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Loaded:
		return "loaded"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// Record изображение в коллекции вместе с локально вычисленным признаком лайка
type Record struct {
	models.Image
	Liked bool `json:"liked"`
}

type View struct {
	log         *slog.Logger
	api         API
	notifier    notify.Notifier
	downloadDir string
	now         func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	records []Record
	state   State
	loadSeq uint64
	likeSeq map[string]uint64
}

// New монтирует представление. Область отмены представления наследуется от ctx.
func New(ctx context.Context, log *slog.Logger, api API, notifier notify.Notifier, downloadDir string) *View {
	viewCtx, cancel := context.WithCancel(ctx)

	return &View{
		log:         log,
		api:         api,
		notifier:    notifier,
		downloadDir: downloadDir,
		now:         time.Now,
		ctx:         viewCtx,
		cancel:      cancel,
		likeSeq:     make(map[string]uint64),
	}
}

// Close размонтирует представление: отменяет запросы в полете и сбрасывает коллекцию
func (v *View) Close() {
	v.cancel()

	v.mu.Lock()
	defer v.mu.Unlock()

	v.records = nil
	v.state = Empty
}

func (v *View) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.state
}

// Images возвращает копию коллекции в порядке ответа сервера
func (v *View) Images() []Record {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return slices.Clone(v.records)
}

func (v *View) Find(id string) (Record, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if i := v.indexOf(id); i >= 0 {
		return v.records[i], true
	}
	return Record{}, false
}

// Load загружает ленту и целиком заменяет коллекцию.
// Признак Liked вычисляется по вхождению userID в liked_by.
func (v *View) Load(ctx context.Context, userID string) error {
	const op = "galleryview.View.Load"

	log := v.log.With(slog.String("op", op))

	opCtx, release, err := v.scope(ctx)
	if err != nil {
		return err
	}
	defer release()

	v.mu.Lock()
	v.loadSeq++
	seq := v.loadSeq
	v.mu.Unlock()

	images, err := v.api.ListGallery(opCtx)
	if err != nil {
		if v.closed() {
			return ErrClosed
		}
		log.Warn("failed to load gallery", sl.Err(err))
		v.notify(models.NotificationError, titleError, msgLoadFailed)
		return fmt.Errorf("%s: %w", op, err)
	}

	records := make([]Record, len(images))
	for i, img := range images {
		records[i] = Record{Image: img, Liked: img.IsLikedBy(userID)}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed() {
		return ErrClosed
	}
	if seq != v.loadSeq {
		return fmt.Errorf("%s: %w", op, ErrSuperseded)
	}

	v.records = records
	v.state = Loaded

	log.Debug("gallery loaded", slog.Int("count", len(records)))

	return nil
}

// ToggleLike просит сервер переключить лайк и применяет его значения к одной записи.
// Если по тому же id уже ушел более новый запрос, этот ответ отбрасывается.
func (v *View) ToggleLike(ctx context.Context, id string) (models.LikeResult, error) {
	const op = "galleryview.View.ToggleLike"

	log := v.log.With(
		slog.String("op", op),
		slog.String("image_id", id),
	)

	opCtx, release, err := v.scope(ctx)
	if err != nil {
		return models.LikeResult{}, err
	}
	defer release()

	v.mu.Lock()
	v.likeSeq[id]++
	seq := v.likeSeq[id]
	v.mu.Unlock()

	result, err := v.api.ToggleLike(opCtx, id)
	if err != nil {
		if v.closed() {
			return models.LikeResult{}, ErrClosed
		}
		if !v.isLatestLike(id, seq) {
			return models.LikeResult{}, fmt.Errorf("%s: %w", op, ErrSuperseded)
		}

		log.Warn("failed to toggle like", sl.Err(err))

		msg := galleryapi.ErrorMessage(err)
		if msg == "" {
			msg = msgToggleFailed
		}
		v.notify(models.NotificationError, titleError, msg)

		return models.LikeResult{}, fmt.Errorf("%s: %w", op, err)
	}

	v.mu.Lock()
	applied, applyErr := v.applyLike(id, seq, result)
	v.mu.Unlock()

	if applyErr != nil {
		log.Debug("like response discarded", sl.Err(applyErr))
		return models.LikeResult{}, fmt.Errorf("%s: %w", op, applyErr)
	}

	if applied.Liked {
		v.notify(models.NotificationSuccess, titleLiked, msgLiked)
	} else {
		v.notify(models.NotificationSuccess, titleUnliked, msgUnliked)
	}

	return applied, nil
}

// applyLike вызывается под v.mu
func (v *View) applyLike(id string, seq uint64, result models.LikeResult) (models.LikeResult, error) {
	if v.closed() {
		return models.LikeResult{}, ErrClosed
	}
	if v.likeSeq[id] != seq {
		return models.LikeResult{}, ErrSuperseded
	}

	i := v.indexOf(id)
	if i < 0 {
		return models.LikeResult{}, ErrImageNotFound
	}

	v.records[i].Likes = result.Likes
	v.records[i].Liked = result.Liked

	return result, nil
}

// FilterAndSort возвращает записи категории (или все для "all"),
// отсортированные от новых к старым. Коллекция не меняется.
func (v *View) FilterAndSort(category string) []Record {
	v.mu.RLock()
	out := make([]Record, 0, len(v.records))
	for _, r := range v.records {
		if category == models.CategoryAll || r.Category == category {
			out = append(out, r)
		}
	}
	v.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return out
}

// Download сохраняет изображение в каталог загрузок и возвращает путь к файлу.
// Временный файл удаляется при любом исходе.
func (v *View) Download(ctx context.Context, url, title string) (string, error) {
	const op = "galleryview.View.Download"

	log := v.log.With(
		slog.String("op", op),
		slog.String("url", url),
	)

	opCtx, release, err := v.scope(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	path, err := v.download(opCtx, url, title)
	if err != nil {
		if v.closed() {
			return "", ErrClosed
		}
		log.Warn("download failed", sl.Err(err))
		v.notify(models.NotificationError, titleDownloadFail, msgDownloadFail)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("image downloaded", slog.String("path", path))
	v.notify(models.NotificationSuccess, titleDownload, msgDownload)

	return path, nil
}

func (v *View) download(ctx context.Context, url, title string) (path string, err error) {
	tmp, err := os.CreateTemp(v.downloadDir, ".imagetales-*.part")
	if err != nil {
		return "", err
	}
	defer func() {
		_ = tmp.Close()
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = v.api.Download(ctx, url, tmp); err != nil {
		return "", err
	}
	if err = tmp.Close(); err != nil {
		return "", err
	}

	path = filepath.Join(v.downloadDir, DownloadFilename(title, v.now()))
	if err = os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}

	return path, nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// DownloadFilename строит имя файла: пробельные последовательности и
// разделители пути заменяются на "-", добавляется метка времени в мс и .jpg.
func DownloadFilename(title string, at time.Time) string {
	name := strings.TrimSpace(title)
	name = strings.NewReplacer("/", "-", "\\", "-").Replace(name)
	name = whitespaceRun.ReplaceAllString(name, "-")
	if name == "" {
		name = "image"
	}

	return name + "-" + strconv.FormatInt(at.UnixMilli(), 10) + ".jpg"
}

// scope объединяет ctx вызова с областью представления
func (v *View) scope(ctx context.Context) (context.Context, func(), error) {
	if v.closed() {
		return nil, nil, ErrClosed
	}

	opCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(v.ctx, cancel)

	return opCtx, func() {
		stop()
		cancel()
	}, nil
}

func (v *View) closed() bool {
	return v.ctx.Err() != nil
}

func (v *View) isLatestLike(id string, seq uint64) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.likeSeq[id] == seq
}

// indexOf вызывается под v.mu
func (v *View) indexOf(id string) int {
	return slices.IndexFunc(v.records, func(r Record) bool {
		return r.ID == id
	})
}

func (v *View) notify(level models.NotificationLevel, title, description string) {
	v.notifier.Notify(models.Notification{
		Level:       level,
		Title:       title,
		Description: description,
	})
}
