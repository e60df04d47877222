package cli

import (
	"context"
	"log/slog"

	"imagetales/internal/domain/models"
	"imagetales/internal/lib/logger/sl"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func (a *App) loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if password == "" {
				var err error
				if password, err = promptPassword(); err != nil {
					return err
				}
			}

			pair, err := a.api.Login(ctx, email, password)
			if err != nil {
				return err
			}

			return a.saveSession(ctx, pair, "Signed in as "+email)
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func (a *App) registerCmd() *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if password == "" {
				var err error
				if password, err = promptPassword(); err != nil {
					return err
				}
			}

			pair, err := a.api.Register(ctx, username, email, password)
			if err != nil {
				return err
			}

			return a.saveSession(ctx, pair, "Welcome, "+username)
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "display name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when empty)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func (a *App) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and forget local tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			const op = "cli.logout"

			ctx := cmd.Context()
			log := a.log.With(slog.String("op", op))

			if err := a.requireSession(ctx); err == nil {
				// локальная сессия удаляется даже если сервер недоступен
				if err := a.api.Logout(ctx); err != nil {
					log.Warn("failed to revoke tokens on server", sl.Err(err))
				}
			}

			if err := a.store.ClearSession(ctx); err != nil {
				return err
			}

			a.success().Println("Signed out")
			return nil
		},
	}
}

func (a *App) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if err := a.requireSession(ctx); err != nil {
				return err
			}

			profile, err := a.api.Profile(ctx)
			if err != nil {
				return err
			}

			return a.renderProfile(profile)
		},
	}
}

func (a *App) saveSession(ctx context.Context, pair *models.TokenPair, greeting string) error {
	if err := a.store.SaveSession(ctx, pair.UserID.String(), pair.AccessToken, pair.RefreshToken); err != nil {
		return err
	}

	a.success().Println(greeting)
	return nil
}

func promptPassword() (string, error) {
	return pterm.DefaultInteractiveTextInput.WithMask("*").Show("Password")
}
