package cli

import (
	"fmt"

	"imagetales/internal/client/galleryview"
	"imagetales/internal/domain/models"

	"github.com/spf13/cobra"
)

func (a *App) galleryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Browse the community gallery",
	}

	cmd.AddCommand(
		a.galleryListCmd(),
		a.galleryLikeCmd(),
		a.galleryDownloadCmd(),
		a.galleryMineCmd(),
	)

	return cmd
}

func (a *App) galleryListCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List images, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view, err := a.openView(cmd.Context())
			if err != nil {
				return err
			}
			defer view.Close()

			return a.renderRecords(view.FilterAndSort(category))
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", models.CategoryAll, "show only one category")
	_ = cmd.RegisterFlagCompletionFunc("category", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return models.GalleryCategories, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func (a *App) galleryLikeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "like <image-id>",
		Short: "Like or unlike an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]

			if err := a.requireSession(ctx); err != nil {
				return err
			}

			view, err := a.openView(ctx)
			if err != nil {
				return err
			}
			defer view.Close()

			if _, ok := view.Find(id); !ok {
				return fmt.Errorf("image %q is not in the gallery", id)
			}

			result, err := view.ToggleLike(ctx, id)
			if err != nil {
				return reported(err)
			}

			a.info().Printfln("%s now has %d likes", id, result.Likes)
			return nil
		},
	}
}

func (a *App) galleryDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <image-id>",
		Short: "Save an image to the download directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]

			view, err := a.openView(ctx)
			if err != nil {
				return err
			}
			defer view.Close()

			rec, ok := view.Find(id)
			if !ok {
				return fmt.Errorf("image %q is not in the gallery", id)
			}

			path, err := view.Download(ctx, rec.URL, rec.Title)
			if err != nil {
				return reported(err)
			}

			a.info().Printfln("Saved to %s", path)
			return nil
		},
	}
}

func (a *App) galleryMineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List images you created",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if err := a.requireSession(ctx); err != nil {
				return err
			}

			userID, err := a.store.UserID(ctx)
			if err != nil {
				return err
			}

			images, err := a.api.ListMine(ctx)
			if err != nil {
				return err
			}

			records := make([]galleryview.Record, len(images))
			for i, img := range images {
				records[i] = galleryview.Record{Image: img, Liked: img.IsLikedBy(userID)}
			}

			return a.renderRecords(records)
		},
	}
}
