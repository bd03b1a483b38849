// Package sitehook caches the last result of calls against the sites API and
// tracks loading and error state for the views that display them.
package sitehook

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/actionculture/heritage/internal/domain"
)

// API is the remote sites resource.
type API interface {
	ListSites(ctx context.Context, filter domain.SiteFilter, page domain.PageRequest) (*domain.Page[domain.Site], error)
	GetSite(ctx context.Context, id uuid.UUID) (*domain.Site, error)
	CreateSite(ctx context.Context, input domain.SiteInput) (*domain.Site, error)
	UpdateSite(ctx context.Context, id uuid.UUID, input domain.SiteInput) (*domain.Site, error)
	DeleteSite(ctx context.Context, id uuid.UUID) error
	SearchSites(ctx context.Context, query string, filter domain.SiteFilter) ([]domain.Site, error)
	NearbySites(ctx context.Context, params domain.NearbyParams) ([]domain.Site, error)
	PopularSites(ctx context.Context, limit int) ([]domain.Site, error)
	SitesByCategory(ctx context.Context, params domain.CategoryParams) ([]domain.Site, error)
	AttachMedia(ctx context.Context, siteID uuid.UUID, file File, meta domain.MediaMetadata) (*domain.Media, error)
}

// File is an upload: its name and content.
type File struct {
	Name   string
	Reader io.Reader
}
