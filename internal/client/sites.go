package client

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/actionculture/heritage/internal/api"
	"github.com/actionculture/heritage/internal/domain"
	"github.com/actionculture/heritage/internal/sitehook"
)

var _ sitehook.API = (*Client)(nil)

// filterQuery encodes a site filter the way the list endpoints parse it.
func filterQuery(filter domain.SiteFilter) url.Values {
	q := url.Values{}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if len(filter.Categories) > 0 {
		cats := make([]string, len(filter.Categories))
		for i, c := range filter.Categories {
			cats[i] = string(c)
		}
		q.Set("categories", strings.Join(cats, ","))
	}
	if len(filter.Wilayas) > 0 {
		q.Set("wilayas", strings.Join(filter.Wilayas, ","))
	}
	if filter.DateFrom != nil {
		q.Set("date_from", filter.DateFrom.Format(time.RFC3339))
	}
	if filter.DateTo != nil {
		q.Set("date_to", filter.DateTo.Format(time.RFC3339))
	}
	if filter.PriceMin != nil {
		q.Set("price_min", formatFloat(*filter.PriceMin))
	}
	if filter.PriceMax != nil {
		q.Set("price_max", formatFloat(*filter.PriceMax))
	}
	if filter.SortBy != "" {
		q.Set("sort_by", filter.SortBy)
	}
	if filter.SortOrder != "" {
		q.Set("sort_order", string(filter.SortOrder))
	}
	return q
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func setPositive(q url.Values, key string, v int) {
	if v > 0 {
		q.Set(key, strconv.Itoa(v))
	}
}

func toSites(items []api.Site) ([]domain.Site, error) {
	out := make([]domain.Site, 0, len(items))
	for _, item := range items {
		s, err := item.Domain()
		if err != nil {
			return nil, fmt.Errorf("failed to decode site: %w", err)
		}
		out = append(out, s)
	}
	return out, nil
}

func (c *Client) listSites(ctx context.Context, path string, q url.Values) ([]domain.Site, error) {
	var resp api.List[api.Site]
	if err := c.do(ctx, request{method: http.MethodGet, path: path, query: q}, &resp); err != nil {
		return nil, err
	}
	return toSites(resp.Items)
}

func (c *Client) oneSite(ctx context.Context, r request) (*domain.Site, error) {
	var resp api.Site
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}
	s, err := resp.Domain()
	if err != nil {
		return nil, fmt.Errorf("failed to decode site: %w", err)
	}
	return &s, nil
}

// ListSites fetches one page of sites.
func (c *Client) ListSites(ctx context.Context, filter domain.SiteFilter, page domain.PageRequest) (*domain.Page[domain.Site], error) {
	q := filterQuery(filter)
	setPositive(q, "page", page.Page)
	setPositive(q, "limit", page.Limit)

	var resp api.Page[api.Site]
	if err := c.do(ctx, request{method: http.MethodGet, path: endpointSites, query: q}, &resp); err != nil {
		return nil, err
	}
	items, err := toSites(resp.Items)
	if err != nil {
		return nil, err
	}
	return &domain.Page[domain.Site]{Items: items, Pagination: resp.Pagination}, nil
}

// GetSite fetches a site with its media and events.
func (c *Client) GetSite(ctx context.Context, id uuid.UUID) (*domain.Site, error) {
	return c.oneSite(ctx, request{method: http.MethodGet, path: fmt.Sprintf(endpointSiteByID, id)})
}

func (c *Client) CreateSite(ctx context.Context, input domain.SiteInput) (*domain.Site, error) {
	r, err := jsonRequest(http.MethodPost, endpointSites, api.FromSiteInput(input))
	if err != nil {
		return nil, err
	}
	return c.oneSite(ctx, r)
}

func (c *Client) UpdateSite(ctx context.Context, id uuid.UUID, input domain.SiteInput) (*domain.Site, error) {
	r, err := jsonRequest(http.MethodPut, fmt.Sprintf(endpointSiteByID, id), api.FromSiteInput(input))
	if err != nil {
		return nil, err
	}
	return c.oneSite(ctx, r)
}

func (c *Client) DeleteSite(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, request{method: http.MethodDelete, path: fmt.Sprintf(endpointSiteByID, id)}, nil)
}

// SearchSites runs a free-text search narrowed by filter. filter.Search is ignored.
func (c *Client) SearchSites(ctx context.Context, query string, filter domain.SiteFilter) ([]domain.Site, error) {
	filter.Search = ""
	q := filterQuery(filter)
	q.Set("q", query)
	return c.listSites(ctx, endpointSitesSearch, q)
}

func (c *Client) NearbySites(ctx context.Context, params domain.NearbyParams) ([]domain.Site, error) {
	q := url.Values{}
	q.Set("lat", formatFloat(params.Latitude))
	q.Set("lng", formatFloat(params.Longitude))
	if params.RadiusKm > 0 {
		q.Set("radius", formatFloat(params.RadiusKm))
	}
	setPositive(q, "limit", params.Limit)
	return c.listSites(ctx, endpointSitesNearby, q)
}

func (c *Client) PopularSites(ctx context.Context, limit int) ([]domain.Site, error) {
	q := url.Values{}
	setPositive(q, "limit", limit)
	return c.listSites(ctx, endpointSitesPopular, q)
}

func (c *Client) SitesByCategory(ctx context.Context, params domain.CategoryParams) ([]domain.Site, error) {
	q := url.Values{}
	if params.Wilaya != "" {
		q.Set("wilaya", params.Wilaya)
	}
	setPositive(q, "limit", params.Limit)
	path := fmt.Sprintf(endpointSitesByCategory, url.PathEscape(string(params.Category)))
	return c.listSites(ctx, path, q)
}

// AttachMedia uploads a file to a site as multipart form data, streaming the
// body through a pipe.
func (c *Client) AttachMedia(ctx context.Context, siteID uuid.UUID, file sitehook.File, meta domain.MediaMetadata) (*domain.Media, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeMediaForm(mw, file, meta))
	}()

	var resp api.Media
	err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        fmt.Sprintf(endpointSiteMedia, siteID),
		body:        pr,
		contentType: mw.FormDataContentType(),
	}, &resp)
	_ = pr.Close()
	if err != nil {
		return nil, err
	}

	m, err := resp.Domain()
	if err != nil {
		return nil, fmt.Errorf("failed to decode media: %w", err)
	}
	return &m, nil
}

func writeMediaForm(mw *multipart.Writer, file sitehook.File, meta domain.MediaMetadata) error {
	fields := [][2]string{
		{"kind", string(meta.Kind)},
		{"title", meta.Title},
		{"description", meta.Description},
	}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}

	part, err := mw.CreateFormFile("file", file.Name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file.Reader); err != nil {
		return err
	}
	return mw.Close()
}
