// Package notify показывает пользователю короткие уведомления в терминале.
package notify

import (
	"io"
	"log/slog"
	"sync"

	"imagetales/internal/domain/models"

	"github.com/fatih/color"
)

type Notifier interface {
	Notify(n models.Notification)
}

type Terminal struct {
	mu  sync.Mutex
	out io.Writer
	log *slog.Logger
}

func NewTerminal(out io.Writer, log *slog.Logger) *Terminal {
	return &Terminal{out: out, log: log}
}

func (t *Terminal) Notify(n models.Notification) {
	t.log.Debug("notification",
		slog.String("level", string(n.Level)),
		slog.String("title", n.Title),
		slog.String("description", n.Description),
	)

	t.mu.Lock()
	defer t.mu.Unlock()

	badge := levelColor(n.Level).Sprintf("● %s", n.Title)
	_, _ = color.New(color.FgHiBlack).Fprintf(t.out, "%s  %s\n", badge, n.Description)
}

func levelColor(level models.NotificationLevel) *color.Color {
	switch level {
	case models.NotificationSuccess:
		return color.New(color.FgGreen, color.Bold)
	case models.NotificationError:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgCyan, color.Bold)
	}
}

// Recorder запоминает уведомления. Используется в тестах и для неинтерактивного вывода.
type Recorder struct {
	mu    sync.Mutex
	items []models.Notification
}

func (r *Recorder) Notify(n models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, n)
}

func (r *Recorder) All() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.Notification, len(r.items))
	copy(out, r.items)
	return out
}

func (r *Recorder) Last() (models.Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.items) == 0 {
		return models.Notification{}, false
	}
	return r.items[len(r.items)-1], true
}
