// Package service contains the business logic layer.
// Services orchestrate operations across repositories and publish change
// events. They do not know about HTTP, gRPC, or transport details.
package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/actionculture/heritage/internal/domain"
	"github.com/actionculture/heritage/internal/event"
	"github.com/actionculture/heritage/internal/storage"
	"github.com/actionculture/heritage/internal/storage/files"
)

// FileStore persists uploaded media bytes.
type FileStore interface {
	Save(ctx context.Context, originalName string, r io.Reader) (name string, size int64, err error)
	Remove(name string) error
}

// SiteService handles heritage site, event and media operations.
type SiteService struct {
	sites     storage.SiteRepository
	events    storage.EventRepository
	media     storage.MediaRepository
	tx        storage.Transactor
	files     FileStore
	mediaURL  string
	publisher event.Publisher

	plain *bluemonday.Policy
	rich  *bluemonday.Policy
}

// NewSiteService creates a SiteService. Stored media are served under mediaURL.
func NewSiteService(
	repos *storage.Repositories,
	files FileStore,
	mediaURL string,
	publisher event.Publisher,
) *SiteService {
	return &SiteService{
		sites:     repos.Sites,
		events:    repos.Events,
		media:     repos.Media,
		tx:        repos.Tx,
		files:     files,
		mediaURL:  mediaURL,
		publisher: publisher,
		plain:     bluemonday.StrictPolicy(),
		rich:      bluemonday.UGCPolicy(),
	}
}

type actorKey struct{}

// WithActor records the authenticated account performing the operation.
func WithActor(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, actorKey{}, id)
}

func actorFrom(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(actorKey{}).(uuid.UUID)
	return id
}

// plainText strips every tag; entities the policy escaped are decoded again so
// apostrophes in names such as "Qal'a des Beni Hammad" survive.
func (s *SiteService) plainText(v string) string {
	return html.UnescapeString(s.plain.Sanitize(v))
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// sanitize strips markup from names and unsafe markup from descriptions.
func (s *SiteService) sanitize(input *domain.SiteInput) {
	if input.Name != nil {
		v := s.plainText(*input.Name)
		input.Name = &v
	}
	if input.Wilaya != nil {
		v := s.plainText(*input.Wilaya)
		input.Wilaya = &v
	}
	if input.Commune != nil {
		v := s.plainText(*input.Commune)
		input.Commune = &v
	}
	if input.Description != nil {
		v := s.rich.Sanitize(*input.Description)
		input.Description = &v
	}
	if input.Details != nil {
		d := *input.Details
		d.History = s.rich.Sanitize(d.History)
		d.Period = s.plainText(d.Period)
		input.Details = &d
	}
}

// CreateSite creates a new heritage site.
func (s *SiteService) CreateSite(ctx context.Context, input domain.SiteInput) (*domain.Site, error) {
	s.sanitize(&input)

	site, err := domain.NewSite(input)
	if err != nil {
		return nil, err
	}

	if err := s.sites.Create(ctx, site); err != nil {
		return nil, err
	}

	_ = s.publisher.Publish(ctx, domain.SiteCreatedEvent(site, actorFrom(ctx)))

	return site, nil
}

// inTx runs fn in a transaction when the repositories provide one.
func (s *SiteService) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.WithTransaction(ctx, fn)
}

// GetSite retrieves a site with its media and events and records the visit.
func (s *SiteService) GetSite(ctx context.Context, id uuid.UUID) (*domain.Site, error) {
	var site *domain.Site
	err := s.inTx(ctx, func(ctx context.Context) error {
		if err := s.sites.IncrementVisits(ctx, id); err != nil {
			return err
		}

		var err error
		if site, err = s.sites.GetByID(ctx, id); err != nil {
			return err
		}
		if site.Media, err = s.media.ListBySite(ctx, id); err != nil {
			return err
		}
		site.Events, err = s.events.ListBySite(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return site, nil
}

// UpdateSite applies the non-nil fields of input to an existing site.
func (s *SiteService) UpdateSite(ctx context.Context, id uuid.UUID, input domain.SiteInput) (*domain.Site, error) {
	site, err := s.sites.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.sanitize(&input)
	site.Apply(input)

	if err := site.Validate(); err != nil {
		return nil, err
	}

	if err := s.sites.Update(ctx, site); err != nil {
		return nil, err
	}

	_ = s.publisher.Publish(ctx, domain.NewChangeEvent(domain.ChangeSiteUpdated, site.ID, actorFrom(ctx), nil))

	return site, nil
}

// DeleteSite removes a site and its stored media files. Files are removed
// only once the rows are gone.
func (s *SiteService) DeleteSite(ctx context.Context, id uuid.UUID) error {
	var media []domain.Media
	err := s.inTx(ctx, func(ctx context.Context) error {
		var err error
		if media, err = s.media.ListBySite(ctx, id); err != nil {
			return err
		}
		return s.sites.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	for _, m := range media {
		_ = s.files.Remove(strings.TrimPrefix(m.URL, s.mediaURL))
	}

	_ = s.publisher.Publish(ctx, domain.SiteDeletedEvent(id, actorFrom(ctx)))

	return nil
}

// ListSites returns one page of sites.
func (s *SiteService) ListSites(ctx context.Context, filter domain.SiteFilter, page domain.PageRequest) (*domain.Page[domain.Site], error) {
	if err := filter.Normalize(); err != nil {
		return nil, err
	}
	page = page.Normalize()

	sites, total, err := s.sites.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	if sites == nil {
		sites = []domain.Site{}
	}

	return &domain.Page[domain.Site]{
		Items:      sites,
		Pagination: domain.NewPagination(page, total),
	}, nil
}

// SearchSites runs a free-text search and returns the first MaxLimit matches.
func (s *SiteService) SearchSites(ctx context.Context, query string, filter domain.SiteFilter) ([]domain.Site, error) {
	filter.Search = query
	if err := filter.Normalize(); err != nil {
		return nil, err
	}
	if filter.Search == "" {
		return nil, domain.ValidationError{Field: "q", Message: "required"}
	}

	sites, _, err := s.sites.List(ctx, filter, domain.PageRequest{Page: 1, Limit: domain.MaxLimit})
	return sites, err
}

// NearbySites returns sites around a point, closest first.
func (s *SiteService) NearbySites(ctx context.Context, params domain.NearbyParams) ([]domain.Site, error) {
	if err := params.Normalize(); err != nil {
		return nil, err
	}
	return s.sites.Nearby(ctx, params)
}

// PopularSites returns the most visited sites.
func (s *SiteService) PopularSites(ctx context.Context, limit int) ([]domain.Site, error) {
	if limit <= 0 || limit > domain.MaxLimit {
		limit = domain.DefaultLimit
	}
	return s.sites.Popular(ctx, limit)
}

// SitesByCategory returns sites of one category.
func (s *SiteService) SitesByCategory(ctx context.Context, params domain.CategoryParams) ([]domain.Site, error) {
	if err := params.Normalize(); err != nil {
		return nil, err
	}
	return s.sites.ByCategory(ctx, params)
}

// AttachMedia stores an uploaded file and records it against a site.
func (s *SiteService) AttachMedia(ctx context.Context, siteID uuid.UUID, filename string, r io.Reader, meta domain.MediaMetadata) (*domain.Media, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.sites.GetByID(ctx, siteID); err != nil {
		return nil, err
	}

	name, size, err := s.files.Save(ctx, filename, r)
	if err != nil {
		if errors.Is(err, files.ErrTooLarge) {
			return nil, domain.ValidationError{Field: "file", Message: "file too large"}
		}
		return nil, fmt.Errorf("storing media: %w", err)
	}

	media := &domain.Media{
		ID:          uuid.New(),
		SiteID:      siteID,
		Kind:        meta.Kind,
		Title:       s.plainText(meta.Title),
		Description: s.plainText(meta.Description),
		URL:         s.mediaURL + name,
		Size:        size,
	}
	media.CreatedAt = nowUTC()

	if err := s.media.Create(ctx, media); err != nil {
		_ = s.files.Remove(name)
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	_ = s.publisher.Publish(ctx, domain.MediaAttachedEvent(media, actorFrom(ctx)))

	return media, nil
}

// CreateEvent schedules a cultural event at a site.
func (s *SiteService) CreateEvent(ctx context.Context, siteID uuid.UUID, input domain.EventInput) (*domain.Event, error) {
	input.Name = s.plainText(input.Name)
	input.Description = s.rich.Sanitize(input.Description)

	e, err := domain.NewEvent(siteID, input)
	if err != nil {
		return nil, err
	}

	if err := s.events.Create(ctx, e); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	_ = s.publisher.Publish(ctx, domain.EventCreatedEvent(e, actorFrom(ctx)))

	return e, nil
}

// ListEvents returns a site's events ordered by start date.
func (s *SiteService) ListEvents(ctx context.Context, siteID uuid.UUID) ([]domain.Event, error) {
	if _, err := s.sites.GetByID(ctx, siteID); err != nil {
		return nil, err
	}
	events, err := s.events.ListBySite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []domain.Event{}
	}
	return events, nil
}
