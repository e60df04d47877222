package cli

import (
	"strconv"

	"imagetales/internal/client/galleryview"
	"imagetales/internal/transport/http/dto"

	"github.com/pterm/pterm"
)

const timeLayout = "2006-01-02 15:04"

func (a *App) renderRecords(records []galleryview.Record) error {
	if len(records) == 0 {
		a.info().Println("No images yet")
		return nil
	}

	data := pterm.TableData{{"ID", "Title", "Category", "Likes", "Created"}}
	for _, r := range records {
		likes := strconv.Itoa(r.Likes)
		if r.Liked {
			likes = pterm.FgRed.Sprint("♥ ") + likes
		}

		title := r.Title
		if r.IsGenerated {
			title += pterm.FgMagenta.Sprint(" ✦")
		}

		data = append(data, []string{r.ID, title, r.Category, likes, r.CreatedAt.Local().Format(timeLayout)})
	}

	return pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithWriter(a.out).
		WithData(data).
		Render()
}

func (a *App) renderProfile(p dto.ProfileResponse) error {
	data := pterm.TableData{
		{"ID", p.ID.String()},
		{"Username", pterm.FgCyan.Sprint(p.Username)},
		{"Email", p.Email},
		{"Plan", p.Plan},
		{"Credits", strconv.Itoa(p.Credits)},
	}

	return pterm.DefaultTable.WithBoxed().WithWriter(a.out).WithData(data).Render()
}
