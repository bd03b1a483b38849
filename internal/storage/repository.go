// Package storage defines the repository interfaces for heritage data persistence.
//
// The service layer depends only on these interfaces; postgres backs them in
// production and memory backs them in development and tests.
package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/actionculture/heritage/internal/domain"
)

// SiteRepository defines the operations for site persistence.
type SiteRepository interface {
	// Create stores a new site. Returns ErrAlreadyExists if the id is taken.
	Create(ctx context.Context, site *domain.Site) error

	// GetByID retrieves a site by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Site, error)

	// Update saves changes to an existing site. Returns ErrNotFound if it doesn't exist.
	Update(ctx context.Context, site *domain.Site) error

	// IncrementVisits bumps the visit counter of a site.
	IncrementVisits(ctx context.Context, id uuid.UUID) error

	// Delete removes a site with its events and media rows. Returns ErrNotFound if missing.
	Delete(ctx context.Context, id uuid.UUID) error

	// List retrieves one page of sites matching the filter, plus the total match count.
	List(ctx context.Context, filter domain.SiteFilter, page domain.PageRequest) ([]domain.Site, int64, error)

	// Nearby retrieves sites within RadiusKm of a point, closest first.
	Nearby(ctx context.Context, params domain.NearbyParams) ([]domain.Site, error)

	// Popular retrieves the most visited sites.
	Popular(ctx context.Context, limit int) ([]domain.Site, error)

	// ByCategory retrieves sites of one category, optionally restricted to a wilaya.
	ByCategory(ctx context.Context, params domain.CategoryParams) ([]domain.Site, error)
}

// EventRepository defines operations for cultural event persistence.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error

	// ListBySite retrieves a site's events ordered by start date.
	ListBySite(ctx context.Context, siteID uuid.UUID) ([]domain.Event, error)
}

// MediaRepository defines operations for media metadata persistence.
type MediaRepository interface {
	Create(ctx context.Context, media *domain.Media) error

	// ListBySite retrieves a site's media, newest first.
	ListBySite(ctx context.Context, siteID uuid.UUID) ([]domain.Media, error)
}

// UserRepository defines the operations for back-office account persistence.
type UserRepository interface {
	// Create stores a new user. Returns ErrAlreadyExists if the email is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by their email. Returns ErrNotFound if not found.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Repositories bundles all repositories together with the transactor that
// spans them.
type Repositories struct {
	Sites  SiteRepository
	Events EventRepository
	Media  MediaRepository
	Users  UserRepository

	Tx Transactor
}

// Transactor provides transaction support for operations that need atomicity.
type Transactor interface {
	// WithTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
