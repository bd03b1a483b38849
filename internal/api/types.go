// Package api defines the JSON shapes exchanged over the v1 HTTP API.
// The server encodes them and the client decodes them, so both sides
// agree on field names without tagging the domain types.
package api

import (
	"time"

	"github.com/actionculture/heritage/internal/domain"
)

// Site is the wire form of a heritage site.
type Site struct {
	ID          string             `json:"id"`
	Name        string             `json:"nom"`
	Description string             `json:"description"`
	Category    string             `json:"categorie"`
	Wilaya      string             `json:"wilaya"`
	Commune     string             `json:"commune,omitempty"`
	Latitude    float64            `json:"latitude"`
	Longitude   float64            `json:"longitude"`
	Visits      int64              `json:"visites"`
	Details     domain.SiteDetails `json:"details"`
	Media       []Media            `json:"media,omitempty"`
	Events      []Event            `json:"evenements,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func FromSite(s *domain.Site) Site {
	out := Site{
		ID:          s.ID.String(),
		Name:        s.Name,
		Description: s.Description,
		Category:    string(s.Category),
		Wilaya:      s.Wilaya,
		Commune:     s.Commune,
		Latitude:    s.Latitude,
		Longitude:   s.Longitude,
		Visits:      s.Visits,
		Details:     s.Details,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	for i := range s.Media {
		out.Media = append(out.Media, FromMedia(&s.Media[i]))
	}
	for i := range s.Events {
		out.Events = append(out.Events, FromEvent(&s.Events[i]))
	}
	return out
}

func FromSites(sites []domain.Site) []Site {
	out := make([]Site, 0, len(sites))
	for i := range sites {
		out = append(out, FromSite(&sites[i]))
	}
	return out
}

// Domain converts the wire form back into a domain site.
func (s Site) Domain() (domain.Site, error) {
	id, err := domain.ParseID("id", s.ID)
	if err != nil {
		return domain.Site{}, err
	}
	out := domain.Site{
		ID:          id,
		Name:        s.Name,
		Description: s.Description,
		Category:    domain.Category(s.Category),
		Wilaya:      s.Wilaya,
		Commune:     s.Commune,
		Latitude:    s.Latitude,
		Longitude:   s.Longitude,
		Visits:      s.Visits,
		Details:     s.Details,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	for _, m := range s.Media {
		dm, err := m.Domain()
		if err != nil {
			return domain.Site{}, err
		}
		out.Media = append(out.Media, dm)
	}
	for _, e := range s.Events {
		de, err := e.Domain()
		if err != nil {
			return domain.Site{}, err
		}
		out.Events = append(out.Events, de)
	}
	return out, nil
}

// SiteRequest is the body of site create and update calls. Absent fields are
// left untouched on update.
type SiteRequest struct {
	Name        *string             `json:"nom,omitempty"`
	Description *string             `json:"description,omitempty"`
	Category    *string             `json:"categorie,omitempty"`
	Wilaya      *string             `json:"wilaya,omitempty"`
	Commune     *string             `json:"commune,omitempty"`
	Latitude    *float64            `json:"latitude,omitempty"`
	Longitude   *float64            `json:"longitude,omitempty"`
	Details     *domain.SiteDetails `json:"details,omitempty"`
}

func FromSiteInput(in domain.SiteInput) SiteRequest {
	req := SiteRequest{
		Name:        in.Name,
		Description: in.Description,
		Wilaya:      in.Wilaya,
		Commune:     in.Commune,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Details:     in.Details,
	}
	if in.Category != nil {
		c := string(*in.Category)
		req.Category = &c
	}
	return req
}

func (r SiteRequest) Input() domain.SiteInput {
	in := domain.SiteInput{
		Name:        r.Name,
		Description: r.Description,
		Wilaya:      r.Wilaya,
		Commune:     r.Commune,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		Details:     r.Details,
	}
	if r.Category != nil {
		c := domain.Category(*r.Category)
		in.Category = &c
	}
	return in
}

// Event is the wire form of a cultural event.
type Event struct {
	ID          string    `json:"id"`
	SiteID      string    `json:"site_id"`
	Name        string    `json:"nom"`
	Description string    `json:"description,omitempty"`
	StartsAt    time.Time `json:"date_debut"`
	EndsAt      time.Time `json:"date_fin"`
	Price       *float64  `json:"tarif,omitempty"`
	Capacity    *int      `json:"capacite,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func FromEvent(e *domain.Event) Event {
	return Event{
		ID:          e.ID.String(),
		SiteID:      e.SiteID.String(),
		Name:        e.Name,
		Description: e.Description,
		StartsAt:    e.StartsAt,
		EndsAt:      e.EndsAt,
		Price:       e.Price,
		Capacity:    e.Capacity,
		CreatedAt:   e.CreatedAt,
	}
}

func (e Event) Domain() (domain.Event, error) {
	id, err := domain.ParseID("id", e.ID)
	if err != nil {
		return domain.Event{}, err
	}
	siteID, err := domain.ParseID("site_id", e.SiteID)
	if err != nil {
		return domain.Event{}, err
	}
	return domain.Event{
		ID:          id,
		SiteID:      siteID,
		Name:        e.Name,
		Description: e.Description,
		StartsAt:    e.StartsAt,
		EndsAt:      e.EndsAt,
		Price:       e.Price,
		Capacity:    e.Capacity,
		CreatedAt:   e.CreatedAt,
	}, nil
}

// EventRequest is the body of an event creation call.
type EventRequest struct {
	Name        string    `json:"nom"`
	Description string    `json:"description,omitempty"`
	StartsAt    time.Time `json:"date_debut"`
	EndsAt      time.Time `json:"date_fin"`
	Price       *float64  `json:"tarif,omitempty"`
	Capacity    *int      `json:"capacite,omitempty"`
}

func FromEventInput(in domain.EventInput) EventRequest {
	return EventRequest(in)
}

func (r EventRequest) Input() domain.EventInput {
	return domain.EventInput(r)
}

// Media is the wire form of an attached file.
type Media struct {
	ID          string    `json:"id"`
	SiteID      string    `json:"site_id"`
	Kind        string    `json:"type"`
	Title       string    `json:"titre,omitempty"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	Size        int64     `json:"taille"`
	CreatedAt   time.Time `json:"created_at"`
}

func FromMedia(m *domain.Media) Media {
	return Media{
		ID:          m.ID.String(),
		SiteID:      m.SiteID.String(),
		Kind:        string(m.Kind),
		Title:       m.Title,
		Description: m.Description,
		URL:         m.URL,
		Size:        m.Size,
		CreatedAt:   m.CreatedAt,
	}
}

func (m Media) Domain() (domain.Media, error) {
	id, err := domain.ParseID("id", m.ID)
	if err != nil {
		return domain.Media{}, err
	}
	siteID, err := domain.ParseID("site_id", m.SiteID)
	if err != nil {
		return domain.Media{}, err
	}
	return domain.Media{
		ID:          id,
		SiteID:      siteID,
		Kind:        domain.MediaKind(m.Kind),
		Title:       m.Title,
		Description: m.Description,
		URL:         m.URL,
		Size:        m.Size,
		CreatedAt:   m.CreatedAt,
	}, nil
}

// Page is a paginated listing.
type Page[T any] struct {
	Items []T `json:"items"`
	domain.Pagination
}

// List wraps a non-paginated listing.
type List[T any] struct {
	Items []T `json:"items"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role"`
}

func FromUser(u *domain.User) User {
	return User{
		ID:       u.ID.String(),
		Email:    u.Email,
		FullName: u.FullName,
		Role:     string(u.Role),
	}
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	User        User   `json:"user"`
}

// Error is the body of every non-2xx response.
type Error struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Error codes.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeAlreadyExists      = "ALREADY_EXISTS"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeConflict           = "CONFLICT"
	CodeInternal           = "INTERNAL_ERROR"
)
