package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event is a cultural event held at a heritage site.
type Event struct {
	ID          uuid.UUID
	SiteID      uuid.UUID
	Name        string
	Description string
	StartsAt    time.Time
	EndsAt      time.Time
	Price       *float64
	Capacity    *int
	CreatedAt   time.Time
}

// EventInput is the request shape for creating an event.
type EventInput struct {
	Name        string
	Description string
	StartsAt    time.Time
	EndsAt      time.Time
	Price       *float64
	Capacity    *int
}

// NewEvent creates a validated event attached to a site.
func NewEvent(siteID uuid.UUID, input EventInput) (*Event, error) {
	e := &Event{
		ID:          uuid.New(),
		SiteID:      siteID,
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		StartsAt:    input.StartsAt.UTC(),
		EndsAt:      input.EndsAt.UTC(),
		Price:       input.Price,
		Capacity:    input.Capacity,
		CreatedAt:   time.Now().UTC(),
	}

	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Event) Validate() error {
	var errs ValidationErrors

	if e.Name == "" {
		errs = append(errs, ValidationError{Field: "nom", Message: "required"})
	} else if len(e.Name) > 150 {
		errs = append(errs, ValidationError{Field: "nom", Message: "must be at most 150 characters"})
	}

	if e.StartsAt.IsZero() {
		errs = append(errs, ValidationError{Field: "date_debut", Message: "required"})
	}
	if e.EndsAt.IsZero() {
		errs = append(errs, ValidationError{Field: "date_fin", Message: "required"})
	} else if !e.StartsAt.IsZero() && !e.EndsAt.After(e.StartsAt) {
		errs = append(errs, ValidationError{Field: "date_fin", Message: "must be after date_debut"})
	}

	if e.Price != nil && *e.Price < 0 {
		errs = append(errs, ValidationError{Field: "tarif", Message: "must not be negative"})
	}
	if e.Capacity != nil && *e.Capacity < 1 {
		errs = append(errs, ValidationError{Field: "capacite", Message: "must be at least 1"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
