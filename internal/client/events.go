package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/actionculture/heritage/internal/api"
	"github.com/actionculture/heritage/internal/domain"
)

// ListEvents fetches a site's events ordered by start date.
func (c *Client) ListEvents(ctx context.Context, siteID uuid.UUID) ([]domain.Event, error) {
	var resp api.List[api.Event]
	err := c.do(ctx, request{method: http.MethodGet, path: fmt.Sprintf(endpointSiteEvents, siteID)}, &resp)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		e, err := item.Domain()
		if err != nil {
			return nil, fmt.Errorf("failed to decode event: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// CreateEvent schedules an event at a site.
func (c *Client) CreateEvent(ctx context.Context, siteID uuid.UUID, input domain.EventInput) (*domain.Event, error) {
	r, err := jsonRequest(http.MethodPost, fmt.Sprintf(endpointSiteEvents, siteID), api.FromEventInput(input))
	if err != nil {
		return nil, err
	}

	var resp api.Event
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}

	e, err := resp.Domain()
	if err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}
	return &e, nil
}
