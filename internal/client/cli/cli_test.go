package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"imagetales/internal/client/notify"
	"imagetales/internal/config"
	"imagetales/internal/domain/models"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

var testUserID = uuid.MustParse("6f1c2a4e-6c1f-4a0e-9d2b-0a9f2f5b7c11")

func galleryFixture() []models.Image {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return []models.Image{
		{ID: "A", Title: "Misty forest", Category: models.CategoryNature, URL: "/uploads/a.jpg", Likes: 4, CreatedAt: base},
		{ID: "B", Title: "Neon street", Category: models.CategoryUrban, URL: "/uploads/b.jpg", Likes: 2, CreatedAt: base.Add(time.Hour), LikedBy: []string{testUserID.String()}},
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /gallery/all", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, galleryFixture())
	})
	mux.HandleFunc("GET /gallery/user", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, galleryFixture()[:1])
	})
	mux.HandleFunc("POST /gallery/like/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"status": "Error", "error": "Missing or malformed jwt"})
			return
		}
		writeJSON(w, http.StatusOK, models.LikeResult{Likes: 5, Liked: true})
	})
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["password"] != "secret123" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"status": "Error", "error": "Invalid email or password"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "OK",
			"data":   models.TokenPair{UserID: testUserID, AccessToken: "access", RefreshToken: "refresh"},
		})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /auth/profile", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "OK",
			"data": map[string]interface{}{
				"id": testUserID, "email": "ann@example.com", "username": "ann", "credits": 10, "plan": "Free",
			},
		})
	})
	mux.HandleFunc("GET /uploads/a.jpg", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("jpeg"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

type harness struct {
	app     *App
	out     *bytes.Buffer
	rec     *notify.Recorder
	dlDir   string
	backend *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	backend := newBackend(t)
	dir := t.TempDir()
	h := &harness{
		out:     &bytes.Buffer{},
		rec:     &notify.Recorder{},
		dlDir:   filepath.Join(dir, "downloads"),
		backend: backend,
	}
	require.NoError(t, os.MkdirAll(h.dlDir, 0o755))

	cfg := &config.ClientConfig{
		Env:         "local",
		BackendURL:  backend.URL,
		StorePath:   filepath.Join(dir, "store", "local.db"),
		DownloadDir: h.dlDir,
	}

	h.app = NewApp(h.out, nil,
		WithConfig(cfg),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithNotifier(h.rec),
	)
	t.Cleanup(func() { _ = h.app.Close() })

	return h
}

func (h *harness) run(args ...string) error {
	cmd := h.app.Command()
	cmd.SetArgs(args)
	cmd.SetOut(h.out)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(context.Background())
}

func (h *harness) signIn(t *testing.T) {
	t.Helper()
	require.NoError(t, h.run("login", "--email", "ann@example.com", "--password", "secret123"))
}

func TestLogin(t *testing.T) {
	h := newHarness(t)

	h.signIn(t)

	userID, err := h.app.store.UserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testUserID.String(), userID)

	token, err := h.app.store.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access", token)

	assert.Contains(t, h.out.String(), "Signed in as ann@example.com")
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newHarness(t)

	err := h.run("login", "--email", "ann@example.com", "--password", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid email or password")

	userID, err := h.app.store.UserID(context.Background())
	require.NoError(t, err)
	assert.Empty(t, userID)
}

func TestGalleryList(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains []string
		missing  []string
	}{
		{
			name:     "all categories",
			args:     []string{"gallery", "list"},
			contains: []string{"Misty forest", "Neon street"},
		},
		{
			name:     "filtered",
			args:     []string{"gallery", "list", "--category", "nature"},
			contains: []string{"Misty forest"},
			missing:  []string{"Neon street"},
		},
		{
			name:     "nothing in category",
			args:     []string{"gallery", "list", "-c", "art"},
			contains: []string{"No images yet"},
			missing:  []string{"Misty forest"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			require.NoError(t, h.run(tt.args...))

			out := h.out.String()
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.missing {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestGalleryList_NewestFirst(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("gallery", "list"))

	out := h.out.String()
	assert.Less(t, strings.Index(out, "Neon street"), strings.Index(out, "Misty forest"))
}

func TestGalleryLike(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	require.NoError(t, h.run("gallery", "like", "A"))

	assert.Contains(t, h.out.String(), "A now has 5 likes")

	last, ok := h.rec.Last()
	require.True(t, ok)
	assert.Equal(t, "Image liked!", last.Title)
}

func TestGalleryLike_RequiresSession(t *testing.T) {
	h := newHarness(t)

	err := h.run("gallery", "like", "A")
	assert.ErrorIs(t, err, errNotSignedIn)
	assert.Empty(t, h.rec.All())
}

func TestGalleryLike_UnknownImage(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	err := h.run("gallery", "like", "Z")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Z"`)
}

func TestGalleryDownload(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("gallery", "download", "A"))

	entries, err := os.ReadDir(h.dlDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^Misty-forest-\d+\.jpg$`, entries[0].Name())

	data, err := os.ReadFile(filepath.Join(h.dlDir, entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))

	last, _ := h.rec.Last()
	assert.Equal(t, "Download started", last.Title)
}

func TestGalleryDownload_Failure(t *testing.T) {
	h := newHarness(t)

	err := h.run("gallery", "download", "B")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReported)

	entries, err := os.ReadDir(h.dlDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	last, _ := h.rec.Last()
	assert.Equal(t, "Download failed", last.Title)
}

func TestGalleryList_BackendDown(t *testing.T) {
	h := newHarness(t)
	h.backend.Close()

	err := h.run("gallery", "list")
	assert.ErrorIs(t, err, ErrReported)

	last, ok := h.rec.Last()
	require.True(t, ok)
	assert.Equal(t, "Failed to load gallery images", last.Description)
}

func TestWhoamiAndLogout(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	require.NoError(t, h.run("whoami"))
	assert.Contains(t, h.out.String(), "ann@example.com")
	assert.Contains(t, h.out.String(), "Free")

	require.NoError(t, h.run("logout"))
	assert.Contains(t, h.out.String(), "Signed out")

	token, err := h.app.store.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)

	assert.ErrorIs(t, h.run("whoami"), errNotSignedIn)
}

func TestGalleryMine(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	require.NoError(t, h.run("gallery", "mine"))

	assert.Contains(t, h.out.String(), "Misty forest")
	assert.NotContains(t, h.out.String(), "Neon street")
}
