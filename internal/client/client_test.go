package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/actionculture/heritage/internal/api"
	"github.com/actionculture/heritage/internal/auth"
	"github.com/actionculture/heritage/internal/config"
	"github.com/actionculture/heritage/internal/domain"
	"github.com/actionculture/heritage/internal/event"
	"github.com/actionculture/heritage/internal/service"
	"github.com/actionculture/heritage/internal/sitehook"
	"github.com/actionculture/heritage/internal/storage/files"
	"github.com/actionculture/heritage/internal/storage/memory"
	httptransport "github.com/actionculture/heritage/internal/transport/http"
)

const testPassword = "Patrimoine2025"

type testEnv struct {
	server *httptest.Server
	auth   *service.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
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

	srv := httptest.NewServer(httptransport.NewServer(cfg, siteSvc, authSvc, logger).Handler())
	t.Cleanup(srv.Close)
	return &testEnv{server: srv, auth: authSvc}
}

// client returns a client logged in with role, or an anonymous one when role is empty.
func (e *testEnv) client(t *testing.T, role domain.Role) *Client {
	t.Helper()

	c, err := New(e.server.URL)
	if err != nil {
		t.Fatal(err)
	}
	if role == "" {
		return c
	}

	email := string(role) + "@culture.dz"
	if _, err := e.auth.CreateUser(context.Background(), email, "", testPassword, role); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := c.Login(context.Background(), email, testPassword); err != nil {
		t.Fatalf("Login: %v", err)
	}
	return c
}

func strp(s string) *string { return &s }

func floatp(f float64) *float64 { return &f }

func siteInput(name, wilaya string, category domain.Category) domain.SiteInput {
	return domain.SiteInput{
		Name:      strp(name),
		Category:  &category,
		Wilaya:    strp(wilaya),
		Latitude:  floatp(36.2),
		Longitude: floatp(6.6),
	}
}

func TestNormalizeServerURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "localhost:8080", want: "http://localhost:8080"},
		{in: "https://api.culture.dz/", want: "https://api.culture.dz"},
		{in: "http://api.culture.dz/api/v1", want: "http://api.culture.dz"},
		{in: "http://", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeServerURL(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFilterQuery(t *testing.T) {
	from := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	q := filterQuery(domain.SiteFilter{
		Search:     "casbah",
		Categories: []domain.Category{domain.CategoryMonument, domain.CategoryMusee},
		Wilayas:    []string{"Alger"},
		DateFrom:   &from,
		PriceMax:   floatp(500),
		SortBy:     domain.SortByName,
		SortOrder:  domain.SortAsc,
	})

	want := "categories=monument%2Cmusee&date_from=2025-01-05T00%3A00%3A00Z&price_max=500" +
		"&search=casbah&sort_by=nom&sort_order=ASC&wilayas=Alger"
	if got := q.Encode(); got != want {
		t.Errorf("Encode() =\n%s\nwant\n%s", got, want)
	}
}

func TestAPIError(t *testing.T) {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    api.CodeInvalidInput,
		Message: "2 validation errors",
		Details: map[string]string{"wilaya": "required", "nom": "required"},
	}

	if got, want := err.Error(), "2 validation errors (nom: required; wilaya: required)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Error("expected errors.Is ErrInvalidInput")
	}
	if errors.Is(err, domain.ErrNotFound) {
		t.Error("did not expect errors.Is ErrNotFound")
	}

	bare := &APIError{Status: http.StatusBadGateway}
	if bare.Error() != "Bad Gateway" {
		t.Errorf("Error() = %q", bare.Error())
	}
}

func TestClientSiteLifecycle(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t, domain.RoleAdmin)
	ctx := context.Background()

	created, err := c.CreateSite(ctx, siteInput("Casbah d'Alger", "Alger", domain.CategoryMonument))
	if err != nil {
		t.Fatalf("CreateSite: %v", err)
	}
	if created.Name != "Casbah d'Alger" || created.ID == uuid.Nil {
		t.Fatalf("created = %+v", created)
	}

	updated, err := c.UpdateSite(ctx, created.ID, domain.SiteInput{Commune: strp("Casbah")})
	if err != nil {
		t.Fatalf("UpdateSite: %v", err)
	}
	if updated.Commune != "Casbah" || updated.Wilaya != "Alger" {
		t.Errorf("updated = %+v", updated)
	}

	got, err := c.GetSite(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetSite: %v", err)
	}
	if got.Visits != 1 {
		t.Errorf("Visits = %d, want 1", got.Visits)
	}

	if err := c.DeleteSite(ctx, created.ID); err != nil {
		t.Fatalf("DeleteSite: %v", err)
	}
	if _, err := c.GetSite(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetSite after delete err = %v, want ErrNotFound", err)
	}
}

func TestClientErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	anon := env.client(t, "")
	_, err := anon.CreateSite(ctx, siteInput("Timgad", "Batna", domain.CategoryVestige))
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("anonymous create err = %v, want ErrUnauthorized", err)
	}

	if _, err := anon.Login(ctx, "nobody@culture.dz", "wrong"); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Errorf("Login err = %v, want ErrInvalidCredential", err)
	}

	visitor := env.client(t, domain.RoleVisitor)
	_, err = visitor.CreateSite(ctx, siteInput("Timgad", "Batna", domain.CategoryVestige))
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("visitor create err = %v, want ErrForbidden", err)
	}

	editor := env.client(t, domain.RoleEditor)
	_, err = editor.CreateSite(ctx, domain.SiteInput{Name: strp("")})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Details["nom"] != "required" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestClientListings(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t, domain.RoleEditor)
	ctx := context.Background()

	for _, in := range []domain.SiteInput{
		siteInput("Timgad", "Batna", domain.CategoryVestige),
		siteInput("Tipasa", "Tipaza", domain.CategoryVestige),
		siteInput("Musée du Bardo", "Alger", domain.CategoryMusee),
	} {
		if _, err := c.CreateSite(ctx, in); err != nil {
			t.Fatalf("CreateSite: %v", err)
		}
	}

	page, err := c.ListSites(ctx, domain.SiteFilter{
		Categories: []domain.Category{domain.CategoryVestige},
		SortBy:     domain.SortByName,
		SortOrder:  domain.SortAsc,
	}, domain.PageRequest{Page: 1, Limit: 1})
	if err != nil {
		t.Fatalf("ListSites: %v", err)
	}
	want := domain.Pagination{Page: 1, Limit: 1, Total: 2, TotalPages: 2}
	if diff := cmp.Diff(want, page.Pagination); diff != "" {
		t.Errorf("pagination mismatch (-want +got):\n%s", diff)
	}
	if len(page.Items) != 1 || page.Items[0].Name != "Timgad" {
		t.Errorf("items = %+v", page.Items)
	}

	found, err := c.SearchSites(ctx, "bardo", domain.SiteFilter{})
	if err != nil {
		t.Fatalf("SearchSites: %v", err)
	}
	if len(found) != 1 || found[0].Wilaya != "Alger" {
		t.Errorf("search = %+v", found)
	}

	byCat, err := c.SitesByCategory(ctx, domain.CategoryParams{Category: domain.CategoryVestige, Wilaya: "Batna"})
	if err != nil {
		t.Fatalf("SitesByCategory: %v", err)
	}
	if len(byCat) != 1 || byCat[0].Name != "Timgad" {
		t.Errorf("byCategory = %+v", byCat)
	}

	nearby, err := c.NearbySites(ctx, domain.NearbyParams{Latitude: 36.2, Longitude: 6.6, RadiusKm: 5})
	if err != nil {
		t.Fatalf("NearbySites: %v", err)
	}
	if len(nearby) != 3 {
		t.Errorf("nearby = %d sites, want 3", len(nearby))
	}

	popular, err := c.PopularSites(ctx, 2)
	if err != nil {
		t.Fatalf("PopularSites: %v", err)
	}
	if len(popular) != 2 {
		t.Errorf("popular = %d sites, want 2", len(popular))
	}

	if _, err := c.NearbySites(ctx, domain.NearbyParams{Latitude: 120}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("NearbySites err = %v, want ErrInvalidInput", err)
	}
}

func TestClientEventsAndMedia(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t, domain.RoleEditor)
	ctx := context.Background()

	site, err := c.CreateSite(ctx, siteInput("Tiddis", "Constantine", domain.CategoryArcheologique))
	if err != nil {
		t.Fatalf("CreateSite: %v", err)
	}

	start := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	ev, err := c.CreateEvent(ctx, site.ID, domain.EventInput{
		Name:     "Journée du patrimoine",
		StartsAt: start,
		EndsAt:   start.Add(8 * time.Hour),
		Price:    floatp(200),
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if ev.SiteID != site.ID || !ev.StartsAt.Equal(start) {
		t.Errorf("event = %+v", ev)
	}

	_, err = c.CreateEvent(ctx, site.ID, domain.EventInput{Name: "Inversé", StartsAt: start, EndsAt: start.Add(-time.Hour)})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Details["date_fin"] == "" {
		t.Errorf("CreateEvent err = %v, want date_fin detail", err)
	}

	events, err := c.ListEvents(ctx, site.ID)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 || events[0].ID != ev.ID {
		t.Errorf("events = %+v", events)
	}

	media, err := c.AttachMedia(ctx, site.ID, sitehook.File{Name: "plan.pdf", Reader: strings.NewReader("%PDF-1.4")},
		domain.MediaMetadata{Kind: domain.MediaDocument, Title: "Plan du site"})
	if err != nil {
		t.Fatalf("AttachMedia: %v", err)
	}
	if media.Kind != domain.MediaDocument || media.Size != int64(len("%PDF-1.4")) || !strings.HasPrefix(media.URL, "/media/") {
		t.Errorf("media = %+v", media)
	}

	resp, err := http.Get(env.server.URL + media.URL)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "%PDF-1.4" {
		t.Errorf("served body = %q", body)
	}
}

func TestClientDrivesHook(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t, domain.RoleAdmin)
	ctx := context.Background()

	h := sitehook.New(c)
	defer h.Close()

	created, ok := h.Create(ctx, siteInput("Djemila", "Sétif", domain.CategoryVestige))
	if !ok {
		t.Fatalf("Create failed: %v", h.State().Err)
	}

	if !h.List(ctx, domain.SiteFilter{}, 1, 10) {
		t.Fatalf("List failed: %v", h.State().Err)
	}
	state := h.State()
	if len(state.Items) != 1 || state.Items[0].ID != created.ID || state.Pagination.Total != 1 {
		t.Errorf("state = %+v", state)
	}

	if h.Delete(ctx, uuid.New()) {
		t.Error("Delete of unknown id succeeded")
	}
	if state := h.State(); state.Err != "resource not found" || state.Loading || len(state.Items) != 1 {
		t.Errorf("state after failed delete = %+v", state)
	}
}

func TestRateLimitHonorsContext(t *testing.T) {
	env := newTestEnv(t)

	c, err := New(env.server.URL, WithRateLimit(0.001))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := c.PopularSites(ctx, 1); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := c.PopularSites(ctx, 1); err == nil {
		t.Error("expected the limiter to refuse a second call")
	}
}
