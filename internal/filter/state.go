// Package filter holds the catalogue filter state shared by the views that
// browse heritage sites.
package filter

import (
	"slices"
	"time"

	"github.com/actionculture/heritage/internal/domain"
)

// View is the catalogue layout.
type View string

const (
	ViewGrid View = "grid"
	ViewList View = "list"
)

// DateRange bounds event dates. Nil ends are open.
type DateRange struct {
	Start *time.Time `json:"start,omitempty" yaml:"start,omitempty"`
	End   *time.Time `json:"end,omitempty" yaml:"end,omitempty"`
}

// PriceRange bounds event prices in dinars. Nil ends are open.
type PriceRange struct {
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// State is a snapshot of the filters.
type State struct {
	Search     string           `json:"search" yaml:"search"`
	Categories []string         `json:"categories" yaml:"categories"`
	Wilayas    []string         `json:"wilayas" yaml:"wilayas"`
	DateRange  DateRange        `json:"dateRange" yaml:"dateRange"`
	PriceRange PriceRange       `json:"priceRange" yaml:"priceRange"`
	SortBy     string           `json:"sortBy" yaml:"sortBy"`
	SortOrder  domain.SortOrder `json:"sortOrder" yaml:"sortOrder"`
	View       View             `json:"view" yaml:"view"`
}

// Defaults returns the initial filter state.
func Defaults() State {
	return State{
		Search:     "",
		Categories: []string{},
		Wilayas:    []string{},
		SortBy:     domain.SortByDateCreation,
		SortOrder:  domain.SortDesc,
		View:       ViewGrid,
	}
}

// clone deep-copies the slices and range pointers.
func (s State) clone() State {
	s.Categories = slices.Clone(s.Categories)
	s.Wilayas = slices.Clone(s.Wilayas)
	if s.Categories == nil {
		s.Categories = []string{}
	}
	if s.Wilayas == nil {
		s.Wilayas = []string{}
	}
	s.DateRange = DateRange{Start: clonePtr(s.DateRange.Start), End: clonePtr(s.DateRange.End)}
	s.PriceRange = PriceRange{Min: clonePtr(s.PriceRange.Min), Max: clonePtr(s.PriceRange.Max)}
	return s
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// SiteFilter builds the listing query for the sites API. The view only
// affects layout and is not sent.
func (s State) SiteFilter() domain.SiteFilter {
	f := domain.SiteFilter{
		Search:    s.Search,
		Wilayas:   slices.Clone(s.Wilayas),
		DateFrom:  clonePtr(s.DateRange.Start),
		DateTo:    clonePtr(s.DateRange.End),
		PriceMin:  clonePtr(s.PriceRange.Min),
		PriceMax:  clonePtr(s.PriceRange.Max),
		SortBy:    s.SortBy,
		SortOrder: s.SortOrder,
	}
	for _, c := range s.Categories {
		f.Categories = append(f.Categories, domain.Category(c))
	}
	return f
}
