package http

import (
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/actionculture/heritage/internal/domain"
	"github.com/actionculture/heritage/internal/validate"
)

// Query keys accepted by the site listing endpoints.
var (
	pageKeys   = []string{"page", "limit"}
	filterKeys = []string{
		"search", "categories", "wilayas",
		"date_from", "date_to", "price_min", "price_max",
		"sort_by", "sort_order",
	}
)

// checkQueryKeys rejects any query parameter outside allowed.
func checkQueryKeys(q url.Values, allowed ...[]string) error {
	var errs domain.ValidationErrors
	for key := range q {
		known := false
		for _, set := range allowed {
			if slices.Contains(set, key) {
				known = true
				break
			}
		}
		if !known {
			errs = append(errs, domain.ValidationError{Field: key, Message: "unknown query parameter"})
		}
	}
	if len(errs) > 0 {
		slices.SortFunc(errs, func(a, b domain.ValidationError) int { return strings.Compare(a.Field, b.Field) })
		return errs
	}
	return nil
}

// splitList accepts both repeated keys and comma separated values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseSiteFilter(q url.Values) (domain.SiteFilter, error) {
	filter := domain.SiteFilter{
		Search:    q.Get("search"),
		Wilayas:   splitList(q["wilayas"]),
		SortBy:    q.Get("sort_by"),
		SortOrder: domain.SortOrder(q.Get("sort_order")),
	}
	for _, c := range splitList(q["categories"]) {
		filter.Categories = append(filter.Categories, domain.Category(strings.ToLower(c)))
	}

	var errs domain.ValidationErrors
	for key, dst := range map[string]**float64{"price_min": &filter.PriceMin, "price_max": &filter.PriceMax} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		v, err := parseFinite(raw)
		if err != nil {
			errs = append(errs, domain.ValidationError{Field: key, Message: "must be a number"})
			continue
		}
		*dst = &v
	}
	if raw := q.Get("date_from"); raw != "" {
		t, err := validate.ParseDateTime(raw)
		if err != nil {
			errs = append(errs, domain.ValidationError{Field: "date_from", Message: "invalid date"})
		} else {
			filter.DateFrom = &t
		}
	}
	if raw := q.Get("date_to"); raw != "" {
		t, err := validate.ParseDateTime(raw)
		if err != nil {
			errs = append(errs, domain.ValidationError{Field: "date_to", Message: "invalid date"})
		} else {
			filter.DateTo = &t
		}
	}
	if len(errs) > 0 {
		slices.SortFunc(errs, func(a, b domain.ValidationError) int { return strings.Compare(a.Field, b.Field) })
		return filter, errs
	}
	return filter, nil
}

// intParam parses an optional integer query parameter; absent yields 0.
func intParam(q url.Values, key string) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.ValidationError{Field: key, Message: "must be an integer"}
	}
	return v, nil
}

// floatParam parses a required float query parameter.
func floatParam(q url.Values, key string) (float64, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, domain.ValidationError{Field: key, Message: "required"}
	}
	v, err := parseFinite(raw)
	if err != nil {
		return 0, domain.ValidationError{Field: key, Message: "must be a number"}
	}
	return v, nil
}

// parseFinite parses a float and rejects NaN and infinities.
func parseFinite(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}

func parsePage(q url.Values) (domain.PageRequest, error) {
	page, err := intParam(q, "page")
	if err != nil {
		return domain.PageRequest{}, err
	}
	limit, err := intParam(q, "limit")
	if err != nil {
		return domain.PageRequest{}, err
	}
	return domain.PageRequest{Page: page, Limit: limit}, nil
}
