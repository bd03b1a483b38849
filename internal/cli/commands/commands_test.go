package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/actionculture/heritage/internal/api"
	"github.com/actionculture/heritage/internal/auth"
	"github.com/actionculture/heritage/internal/config"
	"github.com/actionculture/heritage/internal/domain"
	"github.com/actionculture/heritage/internal/event"
	"github.com/actionculture/heritage/internal/form"
	"github.com/actionculture/heritage/internal/service"
	"github.com/actionculture/heritage/internal/storage/files"
	"github.com/actionculture/heritage/internal/storage/memory"
	httptransport "github.com/actionculture/heritage/internal/transport/http"
)

const (
	testEmail    = "admin@culture.dz"
	testPassword = "Patrimoine2025"
)

// newTestServer starts an API server with one admin account and points
// heritagectl at it through a private config file.
func newTestServer(t *testing.T) string {
	t.Helper()

	cfg := &config.Config{MediaDir: t.TempDir(), MaxUploadBytes: 1 << 10}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := files.NewLocalStore(cfg.MediaDir, cfg.MaxUploadBytes)
	if err != nil {
		t.Fatal(err)
	}
	repos := memory.New().Repositories()
	pub := event.NewNoopPublisher()
	jwt := auth.NewJWTManager(auth.JWTConfig{SecretKey: "test", AccessTokenTTL: time.Hour, Issuer: "test"})

	authSvc := service.NewAuthService(repos.Users, jwt, pub)
	siteSvc := service.NewSiteService(repos, store, httptransport.MediaPrefix, pub)
	if _, err := authSvc.CreateUser(context.Background(), testEmail, "", testPassword, domain.RoleAdmin); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(httptransport.NewServer(cfg, siteSvc, authSvc, logger).Handler())
	t.Cleanup(srv.Close)

	t.Setenv("HERITAGECTL_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
	t.Setenv("HERITAGE_SERVER", srv.URL)
	t.Setenv("HERITAGE_TOKEN", "")
	t.Setenv("HERITAGE_RATE", "0")
	return srv.URL
}

type result struct {
	out    string
	errOut string
	err    error
}

func run(stdin string, args ...string) result {
	var out, errOut bytes.Buffer
	root := NewRootCommand(strings.NewReader(stdin), &out, &errOut)
	root.SetArgs(args)
	err := root.Execute()
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

func login(t *testing.T) {
	t.Helper()
	r := run(testPassword+"\n", "login", "-u", testEmail, "--password-stdin")
	if r.err != nil {
		t.Fatalf("login: %v\n%s", r.err, r.errOut)
	}
}

func createSite(t *testing.T, name, wilaya, category string) api.Site {
	t.Helper()
	r := run("", "sites", "create", "-o", "json",
		"--name", name, "--wilaya", wilaya, "--category", category, "--lat", "36.2", "--lng", "6.6")
	if r.err != nil {
		t.Fatalf("sites create: %v", r.err)
	}
	var site api.Site
	if err := json.Unmarshal([]byte(r.out), &site); err != nil {
		t.Fatalf("decoding %q: %v", r.out, err)
	}
	return site
}

func TestLoginSavesCredentials(t *testing.T) {
	url := newTestServer(t)

	r := run(testPassword+"\n", "login", "-u", testEmail, "--password-stdin")
	if r.err != nil {
		t.Fatalf("login: %v", r.err)
	}
	if !strings.Contains(r.out, "Logged in") || !strings.Contains(r.out, "admin") {
		t.Errorf("output = %q", r.out)
	}

	cfg, err := config.LoadCLI()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server != url || cfg.Token == "" || cfg.Email != testEmail {
		t.Errorf("saved config = %+v", cfg)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	newTestServer(t)

	r := run("wrong\n", "login", "-u", testEmail, "--password-stdin")
	if !errors.Is(r.err, domain.ErrInvalidCredential) {
		t.Errorf("err = %v, want ErrInvalidCredential", r.err)
	}
}

func TestWritesRequireLogin(t *testing.T) {
	newTestServer(t)

	r := run("", "sites", "create", "--name", "Timgad")
	if r.err == nil || !strings.Contains(r.err.Error(), "heritagectl login") {
		t.Errorf("err = %v", r.err)
	}
}

func TestUnknownOutputFormat(t *testing.T) {
	newTestServer(t)

	r := run("", "sites", "popular", "-o", "xml")
	if r.err == nil || !strings.Contains(r.err.Error(), "xml") {
		t.Errorf("err = %v", r.err)
	}
}

func TestSitesListAndViews(t *testing.T) {
	newTestServer(t)
	login(t)

	createSite(t, "Timgad", "Batna", "vestige")
	createSite(t, "Tipasa", "Tipaza", "vestige")
	createSite(t, "Musée du Bardo", "Alger", "musee")

	r := run("", "sites", "list", "-c", "vestige", "--sort-by", "nom", "--asc", "--limit", "1", "-o", "json")
	if r.err != nil {
		t.Fatalf("list: %v", r.err)
	}
	var page api.Page[api.Site]
	if err := json.Unmarshal([]byte(r.out), &page); err != nil {
		t.Fatalf("decoding %q: %v", r.out, err)
	}
	if page.Total != 2 || page.TotalPages != 2 || len(page.Items) != 1 || page.Items[0].Name != "Timgad" {
		t.Errorf("page = %+v", page)
	}

	r = run("", "sites", "list", "--view", "list")
	if r.err != nil {
		t.Fatalf("list: %v", r.err)
	}
	if !strings.HasPrefix(r.out, "ID") || !strings.Contains(r.out, "Musée du Bardo") || !strings.Contains(r.out, "Page 1/1 (3 sites)") {
		t.Errorf("list view =\n%s", r.out)
	}

	r = run("", "sites", "list", "-q", "bardo")
	if r.err != nil {
		t.Fatalf("list: %v", r.err)
	}
	if !strings.HasPrefix(r.out, "Musée du Bardo\n  musee · Alger\n") {
		t.Errorf("grid view =\n%s", r.out)
	}

	r = run("", "sites", "list", "--view", "mosaic")
	if r.err == nil {
		t.Error("expected an error for an unknown view")
	}
}

func TestSitesFiltersRoundTrip(t *testing.T) {
	newTestServer(t)

	r := run("", "sites", "filters", "-c", "musee", "-w", "Alger", "--asc", "--max-price", "500", "--from", "2025-01-05")
	if r.err != nil {
		t.Fatalf("filters: %v", r.err)
	}
	for _, want := range []string{"- musee", "- Alger", "sortOrder: ASC", "max: 500", "view: grid"} {
		if !strings.Contains(r.out, want) {
			t.Errorf("filters output missing %q:\n%s", want, r.out)
		}
	}

	path := filepath.Join(t.TempDir(), "filters.yaml")
	if err := os.WriteFile(path, []byte(r.out), 0o600); err != nil {
		t.Fatal(err)
	}

	again := run("", "sites", "filters", "--filters", path, "-o", "json")
	if again.err != nil {
		t.Fatalf("filters --filters: %v", again.err)
	}
	var st struct {
		Categories []string `json:"categories"`
		SortOrder  string   `json:"sortOrder"`
		PriceRange struct {
			Max *float64 `json:"max"`
		} `json:"priceRange"`
	}
	if err := json.Unmarshal([]byte(again.out), &st); err != nil {
		t.Fatalf("decoding %q: %v", again.out, err)
	}
	if len(st.Categories) != 1 || st.SortOrder != "ASC" || st.PriceRange.Max == nil || *st.PriceRange.Max != 500 {
		t.Errorf("reloaded filters = %+v", st)
	}
}

func TestSitesFiltersFileRejectsBadContent(t *testing.T) {
	newTestServer(t)

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"misspelled keys", "sort_by: nom\ncategorie: [musee]\n", "sort_by"},
		{"unknown sort key", "sortBy: altitude\n", "altitude"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "filters.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			r := run("", "sites", "filters", "--filters", path)
			if r.err == nil || !strings.Contains(r.err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", r.err, tt.want)
			}
		})
	}

	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if r := run("", "sites", "filters", "--filters", path); r.err != nil {
		t.Errorf("empty filters file: %v", r.err)
	}
}

func TestSiteGetUpdateDelete(t *testing.T) {
	newTestServer(t)
	login(t)

	site := createSite(t, "Palais des Rais", "Alger", "palais")

	r := run("", "sites", "update", site.ID, "--commune", "Casbah", "--period", "Ottomane")
	if r.err != nil {
		t.Fatalf("update: %v", r.err)
	}

	r = run("", "sites", "get", site.ID, "-o", "yaml")
	if r.err != nil {
		t.Fatalf("get: %v", r.err)
	}
	for _, want := range []string{"nom: Palais des Rais", "commune: Casbah", "periode: Ottomane", "visites: 1"} {
		if !strings.Contains(r.out, want) {
			t.Errorf("get output missing %q:\n%s", want, r.out)
		}
	}
	if strings.Index(r.out, "id:") > strings.Index(r.out, "nom:") {
		t.Errorf("yaml keys out of order:\n%s", r.out)
	}

	r = run("", "sites", "delete", site.ID, "--force")
	if r.err != nil || !strings.Contains(r.out, "deleted") {
		t.Fatalf("delete: %v %q", r.err, r.out)
	}

	r = run("", "sites", "get", site.ID)
	if r.err == nil || !strings.Contains(r.err.Error(), "not found") {
		t.Errorf("get after delete err = %v", r.err)
	}
}

func TestSitesMediaUpload(t *testing.T) {
	newTestServer(t)
	login(t)

	site := createSite(t, "Tiddis", "Constantine", "site_archeologique")
	path := filepath.Join(t.TempDir(), "vue.jpg")
	if err := os.WriteFile(path, []byte("jpeg"), 0o600); err != nil {
		t.Fatal(err)
	}

	r := run("", "sites", "media", site.ID, path, "--title", "Vue générale", "-o", "json")
	if r.err != nil {
		t.Fatalf("media: %v", r.err)
	}
	var media api.Media
	if err := json.Unmarshal([]byte(r.out), &media); err != nil {
		t.Fatalf("decoding %q: %v", r.out, err)
	}
	if media.Kind != "image" || media.Title != "Vue générale" || media.Size != 4 || !strings.HasSuffix(media.URL, ".jpg") {
		t.Errorf("media = %+v", media)
	}
}

func TestEventsCreateValidatesLocally(t *testing.T) {
	newTestServer(t)
	login(t)

	site := createSite(t, "Djemila", "Sétif", "vestige")

	r := run("", "events", "create", site.ID,
		"--name", "Festival", "--start", "2025-01-10", "--end", "2025-01-05", "--price", "-3")
	if !errors.Is(r.err, form.ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", r.err)
	}
	if !strings.Contains(r.errOut, "date_fin: "+form.DateOrderMessage) {
		t.Errorf("stderr missing date order message:\n%s", r.errOut)
	}
	if !strings.Contains(r.errOut, "tarif:") {
		t.Errorf("stderr missing price error:\n%s", r.errOut)
	}

	r = run("", "events", "list", site.ID)
	if r.err != nil || !strings.Contains(r.out, "No events scheduled.") {
		t.Errorf("events list = %v %q", r.err, r.out)
	}
}

func TestEventsCreateAndList(t *testing.T) {
	newTestServer(t)
	login(t)

	site := createSite(t, "Djemila", "Sétif", "vestige")

	r := run("", "events", "create", site.ID,
		"--name", "Festival de Djemila", "--start", "2025-01-10 18:00", "--end", "2025-01-20 23:00", "--capacity", "500")
	if r.err != nil {
		t.Fatalf("create: %v\n%s", r.err, r.errOut)
	}
	if !strings.Contains(r.out, `Event "Festival de Djemila" scheduled`) {
		t.Errorf("output = %q", r.out)
	}

	r = run("", "events", "list", site.ID, "-o", "json")
	if r.err != nil {
		t.Fatalf("list: %v", r.err)
	}
	var list api.List[api.Event]
	if err := json.Unmarshal([]byte(r.out), &list); err != nil {
		t.Fatalf("decoding %q: %v", r.out, err)
	}
	if len(list.Items) != 1 || list.Items[0].Capacity == nil || *list.Items[0].Capacity != 500 {
		t.Errorf("events = %+v", list.Items)
	}
	want := time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC)
	if !list.Items[0].StartsAt.Equal(want) {
		t.Errorf("StartsAt = %v, want %v", list.Items[0].StartsAt, want)
	}
}
