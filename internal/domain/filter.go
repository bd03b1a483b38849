package domain

import (
	"strings"
	"time"
)

// SortOrder is the direction of a list ordering.
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// Valid returns true if the SortOrder is recognized.
func (o SortOrder) Valid() bool {
	return o == SortAsc || o == SortDesc
}

// Sort keys accepted by site listings.
const (
	SortByDateCreation = "date_creation"
	SortByName         = "nom"
	SortByVisits       = "visites"
	SortByWilaya       = "wilaya"
)

// ValidSortBy returns true if key is a recognized site sort key.
func ValidSortBy(key string) bool {
	switch key {
	case SortByDateCreation, SortByName, SortByVisits, SortByWilaya:
		return true
	}
	return false
}

// Pagination limits.
const (
	DefaultLimit = 12
	MaxLimit     = 100
)

// SiteFilter narrows a site listing. Date and price ranges match sites that host at
// least one event inside the range.
type SiteFilter struct {
	Search     string
	Categories []Category
	Wilayas    []string
	DateFrom   *time.Time
	DateTo     *time.Time
	PriceMin   *float64
	PriceMax   *float64
	SortBy     string
	SortOrder  SortOrder
}

// Normalize trims the filter and fills in default ordering.
func (f *SiteFilter) Normalize() error {
	f.Search = strings.TrimSpace(f.Search)
	if f.SortBy == "" {
		f.SortBy = SortByDateCreation
	}
	if f.SortOrder == "" {
		f.SortOrder = SortDesc
	}
	f.SortOrder = SortOrder(strings.ToUpper(string(f.SortOrder)))

	var errs ValidationErrors
	if !ValidSortBy(f.SortBy) {
		errs = append(errs, ValidationError{Field: "sort_by", Message: "unknown sort key"})
	}
	if !f.SortOrder.Valid() {
		errs = append(errs, ValidationError{Field: "sort_order", Message: "must be ASC or DESC"})
	}
	for _, c := range f.Categories {
		if !c.Valid() {
			errs = append(errs, ValidationError{Field: "categories", Message: "invalid category " + string(c)})
			break
		}
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(*f.DateFrom) {
		errs = append(errs, ValidationError{Field: "date_to", Message: "must not be before date_from"})
	}
	if f.PriceMin != nil && f.PriceMax != nil && *f.PriceMax < *f.PriceMin {
		errs = append(errs, ValidationError{Field: "price_max", Message: "must not be below price_min"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// PageRequest selects one page of a listing. Page is 1-based.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize clamps the request into the accepted range.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset returns the number of rows skipped before this page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination describes where a page sits in the full result set.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination computes the page count for a total.
func NewPagination(req PageRequest, total int64) Pagination {
	req = req.Normalize()
	pages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return Pagination{
		Page:       req.Page,
		Limit:      req.Limit,
		Total:      total,
		TotalPages: pages,
	}
}

// Page is one page of a listing.
type Page[T any] struct {
	Items      []T
	Pagination Pagination
}

// NearbyParams locates sites around a point.
type NearbyParams struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
	Limit     int
}

// Normalize validates coordinates and fills in the default radius and limit.
func (p *NearbyParams) Normalize() error {
	if p.RadiusKm <= 0 {
		p.RadiusKm = 50
	}
	if p.Limit <= 0 || p.Limit > MaxLimit {
		p.Limit = DefaultLimit
	}

	var errs ValidationErrors
	if !inRange(p.Latitude, -90, 90) {
		errs = append(errs, ValidationError{Field: "lat", Message: "must be between -90 and 90"})
	}
	if !inRange(p.Longitude, -180, 180) {
		errs = append(errs, ValidationError{Field: "lng", Message: "must be between -180 and 180"})
	}
	if !inRange(p.RadiusKm, 0, 1000) {
		errs = append(errs, ValidationError{Field: "radius", Message: "must be at most 1000 km"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// CategoryParams lists the sites of one category, optionally within a wilaya.
type CategoryParams struct {
	Category Category
	Wilaya   string
	Limit    int
}

// Normalize validates the category and fills in the default limit.
func (p *CategoryParams) Normalize() error {
	p.Category = Category(strings.ToLower(strings.TrimSpace(string(p.Category))))
	p.Wilaya = strings.TrimSpace(p.Wilaya)
	if p.Limit <= 0 || p.Limit > MaxLimit {
		p.Limit = DefaultLimit
	}
	if !p.Category.Valid() {
		return ValidationError{Field: "categorie", Message: "invalid category"}
	}
	return nil
}
