package form

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/actionculture/heritage/internal/domain"
	"github.com/actionculture/heritage/internal/validate"
)

// Event form field names. They match the JSON keys of the events API.
const (
	EventName        = "nom"
	EventDescription = "description"
	EventStart       = "date_debut"
	EventEnd         = "date_fin"
	EventPrice       = "tarif"
	EventCapacity    = "capacite"
)

// EventFields describes the event creation form.
func EventFields() []validate.Field {
	return []validate.Field{
		{Name: EventName, Required: true, Rules: []validate.Rule{validate.MinLength(3), validate.MaxLength(150)}},
		{Name: EventDescription, Rules: []validate.Rule{validate.MaxLength(2000)}},
		{Name: EventStart, Required: true, Rules: []validate.Rule{validate.DateTime()}},
		{Name: EventEnd, Required: true, Rules: []validate.Rule{validate.DateTime()}},
		{Name: EventPrice, Rules: []validate.Rule{validate.Numeric(), validate.Min(0)}},
		{Name: EventCapacity, Rules: []validate.Rule{validate.Integer(), validate.Min(1)}},
	}
}

// MapEvent converts event form values into an API request. Blank optional
// numbers are omitted.
func MapEvent(v Values) (domain.EventInput, error) {
	in := domain.EventInput{
		Name:        strings.TrimSpace(v[EventName]),
		Description: strings.TrimSpace(v[EventDescription]),
	}

	var err error
	if in.StartsAt, err = validate.ParseDateTime(v[EventStart]); err != nil {
		return in, fmt.Errorf("%s: %w", EventStart, err)
	}
	if in.EndsAt, err = validate.ParseDateTime(v[EventEnd]); err != nil {
		return in, fmt.Errorf("%s: %w", EventEnd, err)
	}

	if raw := strings.TrimSpace(v[EventPrice]); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return in, fmt.Errorf("%s: %w", EventPrice, err)
		}
		in.Price = &price
	}
	if raw := strings.TrimSpace(v[EventCapacity]); raw != "" {
		capacity, err := strconv.Atoi(raw)
		if err != nil {
			return in, fmt.Errorf("%s: %w", EventCapacity, err)
		}
		in.Capacity = &capacity
	}
	return in, nil
}

// NewEventForm builds the event creation form around submit.
func NewEventForm(submit func(ctx context.Context, in domain.EventInput) error) *Controller[domain.EventInput] {
	return New(Config[domain.EventInput]{
		Fields: EventFields(),
		Cross:  []CrossRule{DateOrder(EventStart, EventEnd, "")},
		Map:    MapEvent,
		Submit: submit,
	})
}
