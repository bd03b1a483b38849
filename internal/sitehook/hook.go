package sitehook

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/actionculture/heritage/internal/domain"
)

// ErrEmptyResponse is recorded when the API reports success without a result.
var ErrEmptyResponse = errors.New("empty response from server")

// State is a snapshot of the hook.
type State struct {
	Items      []domain.Site
	Loading    bool
	Err        string
	Pagination domain.Pagination
	Current    *domain.Site
}

// Hook mediates every read and write against the sites API.
//
// Remote failures never surface as returned errors: the message is stored in
// State.Err and the operation reports failure through its nil or false result.
// The hook performs no retries and no request sequencing, so when calls
// overlap the last response to arrive wins.
type Hook struct {
	api    API
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	closed   bool
	onChange func(State)
}

// Option configures a Hook.
type Option func(*Hook)

// WithLogger sets the logger used for remote failures.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hook) { h.logger = logger }
}

// OnChange registers fn to receive a snapshot after every state change.
// fn runs without the hook's lock held.
func OnChange(fn func(State)) Option {
	return func(h *Hook) { h.onChange = fn }
}

// New returns a hook over api with an empty state.
func New(api API, opts ...Option) *Hook {
	h := &Hook{api: api, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// State returns a snapshot of the current state.
func (h *Hook) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

// Close detaches the hook. Responses arriving afterwards no longer change its state.
func (h *Hook) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
}

func (h *Hook) snapshotLocked() State {
	s := h.state
	s.Items = slices.Clone(h.state.Items)
	return s
}

// update applies fn to the state unless the hook is closed, then notifies the observer.
func (h *Hook) update(fn func(*State)) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	fn(&h.state)
	snap := h.snapshotLocked()
	notify := h.onChange
	h.mu.Unlock()

	if notify != nil {
		notify(snap)
	}
}

func (h *Hook) begin() {
	h.update(func(s *State) {
		s.Loading = true
		s.Err = ""
	})
}

// fail records a remote failure and ends the operation.
func (h *Hook) fail(op string, err error) {
	h.logger.Debug("sites request failed", slog.String("op", op), slog.String("error", err.Error()))
	h.update(func(s *State) {
		s.Loading = false
		s.Err = err.Error()
	})
}

// List replaces the items and pagination with one page of the listing.
func (h *Hook) List(ctx context.Context, filter domain.SiteFilter, page, limit int) bool {
	h.begin()

	result, err := h.api.ListSites(ctx, filter, domain.PageRequest{Page: page, Limit: limit})
	if err == nil && result == nil {
		err = ErrEmptyResponse
	}
	if err != nil {
		h.fail("list", err)
		return false
	}

	h.update(func(s *State) {
		s.Loading = false
		s.Items = slices.Clone(result.Items)
		s.Pagination = result.Pagination
	})
	return true
}

// GetOne fetches a single site. The item list is left alone.
func (h *Hook) GetOne(ctx context.Context, id uuid.UUID) (*domain.Site, bool) {
	h.begin()

	site, err := h.api.GetSite(ctx, id)
	if err == nil && site == nil {
		err = ErrEmptyResponse
	}
	if err != nil {
		h.fail("get", err)
		return nil, false
	}

	h.update(func(s *State) {
		s.Loading = false
		s.Current = site
	})
	return site, true
}

// Create stores a new site and puts it first in the items without refetching,
// so the list may no longer match the server's ordering or pagination.
func (h *Hook) Create(ctx context.Context, input domain.SiteInput) (*domain.Site, bool) {
	h.begin()

	site, err := h.api.CreateSite(ctx, input)
	if err == nil && site == nil {
		err = ErrEmptyResponse
	}
	if err != nil {
		h.fail("create", err)
		return nil, false
	}

	h.update(func(s *State) {
		s.Loading = false
		s.Items = append([]domain.Site{*site}, s.Items...)
	})
	return site, true
}

// Update saves a site and replaces its cached entry in place.
func (h *Hook) Update(ctx context.Context, id uuid.UUID, input domain.SiteInput) (*domain.Site, bool) {
	h.begin()

	site, err := h.api.UpdateSite(ctx, id, input)
	if err == nil && site == nil {
		err = ErrEmptyResponse
	}
	if err != nil {
		h.fail("update", err)
		return nil, false
	}

	h.update(func(s *State) {
		s.Loading = false
		items := slices.Clone(s.Items)
		for i := range items {
			if items[i].ID == id {
				items[i] = *site
			}
		}
		s.Items = items
		if s.Current != nil && s.Current.ID == id {
			s.Current = site
		}
	})
	return site, true
}

// Delete removes a site. Success does not depend on the site being cached.
func (h *Hook) Delete(ctx context.Context, id uuid.UUID) bool {
	h.begin()

	if err := h.api.DeleteSite(ctx, id); err != nil {
		h.fail("delete", err)
		return false
	}

	h.update(func(s *State) {
		s.Loading = false
		s.Items = slices.DeleteFunc(slices.Clone(s.Items), func(site domain.Site) bool { return site.ID == id })
		if s.Current != nil && s.Current.ID == id {
			s.Current = nil
		}
	})
	return true
}

// replace swaps in a non-paginated result set; pagination is left as is.
func (h *Hook) replace(op string, sites []domain.Site, err error) bool {
	if err != nil {
		h.fail(op, err)
		return false
	}
	h.update(func(s *State) {
		s.Loading = false
		s.Items = slices.Clone(sites)
	})
	return true
}

// Search replaces the items with the sites matching query.
func (h *Hook) Search(ctx context.Context, query string, filter domain.SiteFilter) bool {
	h.begin()
	sites, err := h.api.SearchSites(ctx, query, filter)
	return h.replace("search", sites, err)
}

// Nearby replaces the items with the sites around a point.
func (h *Hook) Nearby(ctx context.Context, params domain.NearbyParams) bool {
	h.begin()
	sites, err := h.api.NearbySites(ctx, params)
	return h.replace("nearby", sites, err)
}

// Popular replaces the items with the most visited sites.
func (h *Hook) Popular(ctx context.Context, limit int) bool {
	h.begin()
	sites, err := h.api.PopularSites(ctx, limit)
	return h.replace("popular", sites, err)
}

// ByCategory replaces the items with the sites of one category.
func (h *Hook) ByCategory(ctx context.Context, params domain.CategoryParams) bool {
	h.begin()
	sites, err := h.api.SitesByCategory(ctx, params)
	return h.replace("category", sites, err)
}

// AttachMedia uploads a file to a site. Cached sites are not refreshed.
func (h *Hook) AttachMedia(ctx context.Context, id uuid.UUID, file File, meta domain.MediaMetadata) (*domain.Media, bool) {
	h.begin()

	media, err := h.api.AttachMedia(ctx, id, file, meta)
	if err == nil && media == nil {
		err = ErrEmptyResponse
	}
	if err != nil {
		h.fail("attach media", err)
		return nil, false
	}

	h.update(func(s *State) { s.Loading = false })
	return media, true
}
