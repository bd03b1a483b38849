// Package memory implements the storage interfaces in process memory.
// It backs the server in development (STORAGE=memory) and the service tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/actionculture/heritage/internal/domain"
	"github.com/actionculture/heritage/internal/storage"
)

// Store holds every collection behind one lock.
type Store struct {
	mu     sync.RWMutex
	sites  map[uuid.UUID]domain.Site
	events map[uuid.UUID]domain.Event
	media  map[uuid.UUID]domain.Media
	users  map[uuid.UUID]domain.User
}

// New creates an empty store.
func New() *Store {
	return &Store{
		sites:  make(map[uuid.UUID]domain.Site),
		events: make(map[uuid.UUID]domain.Event),
		media:  make(map[uuid.UUID]domain.Media),
		users:  make(map[uuid.UUID]domain.User),
	}
}

// Repositories returns all repositories backed by this store.
func (s *Store) Repositories() *storage.Repositories {
	return &storage.Repositories{
		Sites:  (*siteRepository)(s),
		Events: (*eventRepository)(s),
		Media:  (*mediaRepository)(s),
		Users:  (*userRepository)(s),
		Tx:     s,
	}
}

// WithTransaction implements storage.Transactor. The store applies every write
// immediately, so fn simply runs.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type siteRepository Store

func (r *siteRepository) Create(_ context.Context, site *domain.Site) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sites[site.ID]; ok {
		return domain.ErrAlreadyExists
	}
	r.sites[site.ID] = cloneSite(*site)
	return nil
}

func (r *siteRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Site, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	site, ok := r.sites[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneSite(site)
	return &out, nil
}

func (r *siteRepository) Update(_ context.Context, site *domain.Site) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.sites[site.ID]
	if !ok {
		return domain.ErrNotFound
	}
	updated := cloneSite(*site)
	updated.Visits = existing.Visits
	updated.CreatedAt = existing.CreatedAt
	r.sites[site.ID] = updated
	return nil
}

func (r *siteRepository) IncrementVisits(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	site, ok := r.sites[id]
	if !ok {
		return domain.ErrNotFound
	}
	site.Visit()
	r.sites[id] = site
	return nil
}

func (r *siteRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sites[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.sites, id)
	for eid, e := range r.events {
		if e.SiteID == id {
			delete(r.events, eid)
		}
	}
	for mid, m := range r.media {
		if m.SiteID == id {
			delete(r.media, mid)
		}
	}
	return nil
}

func (r *siteRepository) List(_ context.Context, filter domain.SiteFilter, page domain.PageRequest) ([]domain.Site, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	page = page.Normalize()

	var matched []domain.Site
	for _, site := range r.sites {
		if r.matches(site, filter) {
			matched = append(matched, site)
		}
	}
	sortSites(matched, filter.SortBy, filter.SortOrder)

	total := int64(len(matched))
	start := min(page.Offset(), len(matched))
	end := min(start+page.Limit, len(matched))

	out := make([]domain.Site, 0, end-start)
	for _, site := range matched[start:end] {
		out = append(out, cloneSite(site))
	}
	return out, total, nil
}

func (r *siteRepository) Nearby(_ context.Context, params domain.NearbyParams) ([]domain.Site, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type hit struct {
		site     domain.Site
		distance float64
	}
	var hits []hit
	for _, site := range r.sites {
		d := domain.DistanceKm(params.Latitude, params.Longitude, site.Latitude, site.Longitude)
		if d <= params.RadiusKm {
			hits = append(hits, hit{site: site, distance: d})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].distance != hits[j].distance {
			return hits[i].distance < hits[j].distance
		}
		return hits[i].site.ID.String() < hits[j].site.ID.String()
	})

	out := make([]domain.Site, 0, min(len(hits), params.Limit))
	for i := 0; i < len(hits) && i < params.Limit; i++ {
		out = append(out, cloneSite(hits[i].site))
	}
	return out, nil
}

func (r *siteRepository) Popular(_ context.Context, limit int) ([]domain.Site, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.all()
	sort.Slice(all, func(i, j int) bool {
		if all[i].Visits != all[j].Visits {
			return all[i].Visits > all[j].Visits
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all[:min(limit, len(all))], nil
}

func (r *siteRepository) ByCategory(_ context.Context, params domain.CategoryParams) ([]domain.Site, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Site
	for _, site := range r.all() {
		if site.Category != params.Category {
			continue
		}
		if params.Wilaya != "" && !strings.EqualFold(site.Wilaya, params.Wilaya) {
			continue
		}
		out = append(out, site)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out[:min(params.Limit, len(out))], nil
}

// all returns clones of every site. Callers hold the lock.
func (r *siteRepository) all() []domain.Site {
	out := make([]domain.Site, 0, len(r.sites))
	for _, site := range r.sites {
		out = append(out, cloneSite(site))
	}
	return out
}

// matches applies the filter to one site. Callers hold the lock.
func (r *siteRepository) matches(site domain.Site, filter domain.SiteFilter) bool {
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		hay := strings.ToLower(site.Name + "\x00" + site.Description + "\x00" + site.Wilaya + "\x00" + site.Commune)
		if !strings.Contains(hay, needle) {
			return false
		}
	}
	if len(filter.Categories) > 0 && !slices.Contains(filter.Categories, site.Category) {
		return false
	}
	if len(filter.Wilayas) > 0 && !slices.Contains(filter.Wilayas, site.Wilaya) {
		return false
	}
	if filter.DateFrom == nil && filter.DateTo == nil && filter.PriceMin == nil && filter.PriceMax == nil {
		return true
	}
	for _, e := range r.events {
		if e.SiteID != site.ID {
			continue
		}
		price := 0.0
		if e.Price != nil {
			price = *e.Price
		}
		if filter.DateFrom != nil && e.EndsAt.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && e.StartsAt.After(*filter.DateTo) {
			continue
		}
		if filter.PriceMin != nil && price < *filter.PriceMin {
			continue
		}
		if filter.PriceMax != nil && price > *filter.PriceMax {
			continue
		}
		return true
	}
	return false
}

func sortSites(sites []domain.Site, sortBy string, order domain.SortOrder) {
	less := func(a, b domain.Site) int {
		switch sortBy {
		case domain.SortByName:
			return strings.Compare(a.Name, b.Name)
		case domain.SortByVisits:
			return compareInt64(a.Visits, b.Visits)
		case domain.SortByWilaya:
			return strings.Compare(a.Wilaya, b.Wilaya)
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}
	slices.SortStableFunc(sites, func(a, b domain.Site) int {
		c := less(a, b)
		if c == 0 {
			c = strings.Compare(a.ID.String(), b.ID.String())
		}
		if order != domain.SortAsc {
			return -c
		}
		return c
	})
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cloneSite(s domain.Site) domain.Site {
	s.Details.Monuments = slices.Clone(s.Details.Monuments)
	s.Details.Vestiges = slices.Clone(s.Details.Vestiges)
	s.Details.Services = slices.Clone(s.Details.Services)
	s.Media = nil
	s.Events = nil
	return s
}

type eventRepository Store

func (r *eventRepository) Create(_ context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sites[event.SiteID]; !ok {
		return domain.ErrConflict
	}
	r.events[event.ID] = *event
	return nil
}

func (r *eventRepository) ListBySite(_ context.Context, siteID uuid.UUID) ([]domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Event
	for _, e := range r.events {
		if e.SiteID == siteID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

type mediaRepository Store

func (r *mediaRepository) Create(_ context.Context, media *domain.Media) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sites[media.SiteID]; !ok {
		return domain.ErrConflict
	}
	r.media[media.ID] = *media
	return nil
}

func (r *mediaRepository) ListBySite(_ context.Context, siteID uuid.UUID) ([]domain.Media, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Media
	for _, m := range r.media {
		if m.SiteID == siteID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type userRepository Store

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.ErrAlreadyExists
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}
