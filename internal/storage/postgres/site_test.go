package postgres

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/go-cmp/cmp"

	"github.com/actionculture/heritage/internal/domain"
)

func TestBuildSiteWhere(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	maxPrice := 500.0

	tests := []struct {
		name     string
		filter   domain.SiteFilter
		want     string
		wantArgs []any
	}{
		{
			name: "empty filter matches everything",
			want: "1=1",
		},
		{
			name:     "search binds one shared parameter",
			filter:   domain.SiteFilter{Search: "casbah"},
			want:     `(nom ILIKE $1 ESCAPE '\' OR description ILIKE $1 ESCAPE '\' OR wilaya ILIKE $1 ESCAPE '\' OR commune ILIKE $1 ESCAPE '\')`,
			wantArgs: []any{"%casbah%"},
		},
		{
			name:     "search wildcards match literally",
			filter:   domain.SiteFilter{Search: `50%_off\`},
			want:     `(nom ILIKE $1 ESCAPE '\' OR description ILIKE $1 ESCAPE '\' OR wilaya ILIKE $1 ESCAPE '\' OR commune ILIKE $1 ESCAPE '\')`,
			wantArgs: []any{`%50\%\_off\\%`},
		},
		{
			name: "categories and wilayas use ANY",
			filter: domain.SiteFilter{
				Categories: []domain.Category{domain.CategoryMonument, domain.CategoryMusee},
				Wilayas:    []string{"Alger"},
			},
			want:     "categorie = ANY($1) AND wilaya = ANY($2)",
			wantArgs: []any{[]string{"monument", "musee"}, []string{"Alger"}},
		},
		{
			name:     "event ranges become an EXISTS subquery",
			filter:   domain.SiteFilter{DateFrom: &from, PriceMax: &maxPrice},
			want:     "EXISTS (SELECT 1 FROM events e WHERE e.site_id = sites.id AND e.date_fin >= $1 AND COALESCE(e.tarif, 0) <= $2)",
			wantArgs: []any{from, maxPrice},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, args := buildSiteWhere(tt.filter)
			if got != tt.want {
				t.Errorf("where = %q, want %q", got, tt.want)
			}
			if diff := cmp.Diff(tt.wantArgs, args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSiteOrderIsWhitelisted(t *testing.T) {
	got := siteOrder(domain.SiteFilter{SortBy: "nom; DROP TABLE sites", SortOrder: "ASC"})
	if got != "created_at ASC, id ASC" {
		t.Fatalf("siteOrder = %q", got)
	}
	if got := siteOrder(domain.SiteFilter{SortBy: domain.SortByVisits}); !strings.HasPrefix(got, "visites DESC") {
		t.Fatalf("siteOrder = %q, want visites DESC first", got)
	}
}

func TestMigrationsArePaired(t *testing.T) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		t.Fatalf("iofs.New: %v", err)
	}
	defer src.Close()

	first, err := src.First()
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if first != 1 {
		t.Errorf("first version = %d, want 1", first)
	}

	for v := first; ; {
		up, _, err := src.ReadUp(v)
		if err != nil {
			t.Fatalf("ReadUp(%d): %v", v, err)
		}
		up.Close()
		down, _, err := src.ReadDown(v)
		if err != nil {
			t.Fatalf("ReadDown(%d): %v", v, err)
		}
		down.Close()

		next, err := src.Next(v)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		if err != nil {
			t.Fatalf("Next(%d): %v", v, err)
		}
		v = next
	}
}
