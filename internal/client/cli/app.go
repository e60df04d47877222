// Package cli команды клиента галереи ImageTales.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"imagetales/internal/client/galleryapi"
	"imagetales/internal/client/galleryview"
	"imagetales/internal/client/localstore"
	"imagetales/internal/client/notify"
	"imagetales/internal/config"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	// ErrReported ошибка уже показана пользователю уведомлением
	ErrReported = errors.New("already reported")

	errNotSignedIn = errors.New("not signed in, run `imagetales login` first")
)

func reported(err error) error {
	return fmt.Errorf("%w: %w", ErrReported, err)
}

type App struct {
	out        io.Writer
	newLogger  func(env string) *slog.Logger
	configPath string

	cfg      *config.ClientConfig
	log      *slog.Logger
	notifier notify.Notifier
	store    *localstore.Store
	api      *galleryapi.Client
}

type Option func(*App)

func WithConfig(cfg *config.ClientConfig) Option {
	return func(a *App) {
		a.cfg = cfg
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(a *App) {
		a.log = log
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(a *App) {
		a.notifier = n
	}
}

// NewApp создает клиента. Конфиг читается при запуске команды, если не передан через WithConfig.
func NewApp(out io.Writer, newLogger func(env string) *slog.Logger, opts ...Option) *App {
	a := &App{
		out:       out,
		newLogger: newLogger,
	}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

func (a *App) Command() *cobra.Command {
	root := &cobra.Command{
		Use:           "imagetales",
		Short:         "ImageTales community gallery client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", os.Getenv("CONFIG_PATH"), "path to client config file")

	root.AddCommand(
		a.loginCmd(),
		a.registerCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.galleryCmd(),
	)

	return root
}

func (a *App) init(ctx context.Context) error {
	const op = "cli.App.init"

	if a.store != nil {
		return nil
	}

	if a.cfg == nil {
		cfg, err := config.LoadClient(a.configPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}

	if a.log == nil {
		a.log = a.newLogger(a.cfg.Env)
	}
	if a.notifier == nil {
		a.notifier = notify.NewTerminal(a.out, a.log)
	}

	store, err := localstore.Open(ctx, a.cfg.StorePath)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	opts := []galleryapi.Option{
		galleryapi.WithSession(store),
	}
	if a.cfg.RequestTimeout > 0 {
		opts = append(opts, galleryapi.WithTimeout(a.cfg.RequestTimeout))
	}

	api, err := galleryapi.New(a.cfg.BackendURL, opts...)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("%s: %w", op, err)
	}

	a.store = store
	a.api = api

	a.log.Debug("client ready",
		slog.String("backend", a.cfg.BackendURL),
		slog.String("store", a.cfg.StorePath),
	)

	return nil
}

// Close освобождает локальное хранилище
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}

	err := a.store.Close()
	a.store = nil

	return err
}

// openView монтирует представление и загружает ленту от имени сохраненного пользователя.
// Вызывающий обязан закрыть View.
func (a *App) openView(ctx context.Context) (*galleryview.View, error) {
	userID, err := a.store.UserID(ctx)
	if err != nil {
		return nil, err
	}

	view := galleryview.New(ctx, a.log, a.api, a.notifier, a.cfg.DownloadDir)
	if err := view.Load(ctx, userID); err != nil {
		view.Close()
		return nil, reported(err)
	}

	return view, nil
}

func (a *App) requireSession(ctx context.Context) error {
	token, err := a.store.AccessToken(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return errNotSignedIn
	}
	return nil
}

func (a *App) success() *pterm.PrefixPrinter {
	return pterm.Success.WithWriter(a.out)
}

func (a *App) info() *pterm.PrefixPrinter {
	return pterm.Info.WithWriter(a.out)
}
