package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category classifies a heritage site.
type Category string

const (
	CategoryMonument      Category = "monument"
	CategoryVestige       Category = "vestige"
	CategoryMusee         Category = "musee"
	CategorySiteNaturel   Category = "site_naturel"
	CategoryArcheologique Category = "site_archeologique"
	CategoryMosquee       Category = "mosquee"
	CategoryPalais        Category = "palais"
	CategoryAutre         Category = "autre"
)

// Categories lists every recognized category in display order.
var Categories = []Category{
	CategoryMonument,
	CategoryVestige,
	CategoryMusee,
	CategorySiteNaturel,
	CategoryArcheologique,
	CategoryMosquee,
	CategoryPalais,
	CategoryAutre,
}

// Valid returns true if the Category is recognized.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Monument is a built structure listed on a site.
type Monument struct {
	Name        string `json:"nom"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// Vestige is an archaeological remain listed on a site.
type Vestige struct {
	Name        string `json:"nom"`
	Period      string `json:"periode,omitempty"`
	Description string `json:"description,omitempty"`
}

// SiteDetails holds the nested, descriptive part of a site record.
type SiteDetails struct {
	History   string     `json:"histoire,omitempty"`
	Period    string     `json:"periode,omitempty"`
	Monuments []Monument `json:"monuments,omitempty"`
	Vestiges  []Vestige  `json:"vestiges,omitempty"`
	Services  []string   `json:"services,omitempty"`
}

// Site is a heritage location: a monument, a vestige field, a museum, etc.
type Site struct {
	ID          uuid.UUID
	Name        string
	Description string
	Category    Category
	Wilaya      string
	Commune     string
	Latitude    float64
	Longitude   float64
	Visits      int64
	Details     SiteDetails

	// Loaded separately
	Media  []Media
	Events []Event

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SiteInput carries the writable fields of a site. Nil pointers are left untouched on update.
type SiteInput struct {
	Name        *string
	Description *string
	Category    *Category
	Wilaya      *string
	Commune     *string
	Latitude    *float64
	Longitude   *float64
	Details     *SiteDetails
}

// NewSite creates a validated site from input.
func NewSite(input SiteInput) (*Site, error) {
	now := time.Now().UTC()
	s := &Site{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Apply(input)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Apply copies every non-nil input field onto the site.
func (s *Site) Apply(input SiteInput) {
	if input.Name != nil {
		s.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		s.Description = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		s.Category = Category(strings.ToLower(strings.TrimSpace(string(*input.Category))))
	}
	if input.Wilaya != nil {
		s.Wilaya = strings.TrimSpace(*input.Wilaya)
	}
	if input.Commune != nil {
		s.Commune = strings.TrimSpace(*input.Commune)
	}
	if input.Latitude != nil {
		s.Latitude = *input.Latitude
	}
	if input.Longitude != nil {
		s.Longitude = *input.Longitude
	}
	if input.Details != nil {
		s.Details = *input.Details
	}
}

func (s *Site) Validate() error {
	var errs ValidationErrors

	if s.Name == "" {
		errs = append(errs, ValidationError{Field: "nom", Message: "required"})
	} else if len(s.Name) > 200 {
		errs = append(errs, ValidationError{Field: "nom", Message: "must be at most 200 characters"})
	}

	if len(s.Description) > 5000 {
		errs = append(errs, ValidationError{Field: "description", Message: "must be at most 5000 characters"})
	}

	if !s.Category.Valid() {
		errs = append(errs, ValidationError{Field: "categorie", Message: "invalid category"})
	}

	if s.Wilaya == "" {
		errs = append(errs, ValidationError{Field: "wilaya", Message: "required"})
	}

	if !inRange(s.Latitude, -90, 90) {
		errs = append(errs, ValidationError{Field: "latitude", Message: "must be between -90 and 90"})
	}
	if !inRange(s.Longitude, -180, 180) {
		errs = append(errs, ValidationError{Field: "longitude", Message: "must be between -180 and 180"})
	}

	for _, m := range s.Details.Monuments {
		if strings.TrimSpace(m.Name) == "" {
			errs = append(errs, ValidationError{Field: "monuments", Message: "every monument needs a name"})
			break
		}
	}
	for _, v := range s.Details.Vestiges {
		if strings.TrimSpace(v.Name) == "" {
			errs = append(errs, ValidationError{Field: "vestiges", Message: "every vestige needs a name"})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Visit records a detail view.
func (s *Site) Visit() {
	s.Visits++
}
