package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/actionculture/heritage/internal/domain"
	"github.com/actionculture/heritage/internal/filter"
	"github.com/actionculture/heritage/internal/validate"
)

// filterFlags are the catalogue filters shared by list, search and filters.
type filterFlags struct {
	file       string
	search     string
	categories []string
	wilayas    []string
	from       string
	to         string
	minPrice   float64
	maxPrice   float64
	sortBy     string
	asc        bool
	view       string
}

func (f *filterFlags) register(cmd *cobra.Command, withSearch bool) {
	fs := cmd.Flags()
	fs.StringVar(&f.file, "filters", "", "Load filters from a YAML file")
	if withSearch {
		fs.StringVarP(&f.search, "search", "q", "", "Free-text search")
	}
	fs.StringSliceVarP(&f.categories, "category", "c", nil, "Restrict to a category (repeatable)")
	fs.StringSliceVarP(&f.wilayas, "wilaya", "w", nil, "Restrict to a wilaya (repeatable)")
	fs.StringVar(&f.from, "from", "", "Sites hosting events ending on or after this date")
	fs.StringVar(&f.to, "to", "", "Sites hosting events starting on or before this date")
	fs.Float64Var(&f.minPrice, "min-price", 0, "Minimum event price in dinars")
	fs.Float64Var(&f.maxPrice, "max-price", 0, "Maximum event price in dinars")
	fs.StringVar(&f.sortBy, "sort-by", "", "Sort key: date_creation, nom, visites or wilaya")
	fs.BoolVar(&f.asc, "asc", false, "Sort ascending (default descending)")
	fs.StringVar(&f.view, "view", "", "Table layout: grid or list")
}

// store builds a filter store from the defaults, the --filters file and then
// the individual flags, in that order.
func (f *filterFlags) store(cmd *cobra.Command) (*filter.Store, error) {
	s := filter.NewStore()

	if f.file != "" {
		data, err := os.ReadFile(f.file)
		if err != nil {
			return nil, fmt.Errorf("failed to read filters: %w", err)
		}
		st := filter.Defaults()
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&st); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse filters: %w", err)
		}
		if err := applyState(s, st); err != nil {
			return nil, err
		}
	}

	if f.search != "" {
		if err := s.SetFilter(filter.KeySearch, f.search); err != nil {
			return nil, err
		}
	}
	for _, c := range f.categories {
		s.AddCategory(strings.ToLower(strings.TrimSpace(c)))
	}
	for _, w := range f.wilayas {
		s.AddWilaya(strings.TrimSpace(w))
	}

	if f.from != "" || f.to != "" {
		cur := s.Snapshot().DateRange
		start, err := optionalDate("from", f.from, cur.Start)
		if err != nil {
			return nil, err
		}
		end, err := optionalDate("to", f.to, cur.End)
		if err != nil {
			return nil, err
		}
		s.SetDateRange(start, end)
	}

	flags := cmd.Flags()
	if flags.Changed("min-price") || flags.Changed("max-price") {
		cur := s.Snapshot().PriceRange
		lo, hi := cur.Min, cur.Max
		if flags.Changed("min-price") {
			lo = &f.minPrice
		}
		if flags.Changed("max-price") {
			hi = &f.maxPrice
		}
		s.SetPriceRange(lo, hi)
	}

	if f.sortBy != "" {
		if !domain.ValidSortBy(f.sortBy) {
			return nil, fmt.Errorf("unknown sort key %q", f.sortBy)
		}
		if err := s.SetFilter(filter.KeySortBy, f.sortBy); err != nil {
			return nil, err
		}
	}
	if f.asc && s.Snapshot().SortOrder != domain.SortAsc {
		s.ToggleSortOrder()
	}
	if f.view != "" {
		if err := s.SetFilter(filter.KeyView, filter.View(strings.ToLower(f.view))); err != nil {
			return nil, fmt.Errorf("view must be grid or list: %w", err)
		}
	}

	return s, nil
}

func optionalDate(flag, raw string, fallback *time.Time) (*time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	t, err := validate.ParseDateTime(raw)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", flag, err)
	}
	return &t, nil
}

// applyState copies a decoded state into the store key by key so every value
// passes the store's checks.
func applyState(s *filter.Store, st filter.State) error {
	if !domain.ValidSortBy(st.SortBy) {
		return fmt.Errorf("filters file: unknown sort key %q", st.SortBy)
	}
	values := map[filter.Key]any{
		filter.KeySearch:     st.Search,
		filter.KeyCategories: st.Categories,
		filter.KeyWilayas:    st.Wilayas,
		filter.KeyDateRange:  st.DateRange,
		filter.KeyPriceRange: st.PriceRange,
		filter.KeySortBy:     st.SortBy,
		filter.KeySortOrder:  domain.SortOrder(strings.ToUpper(string(st.SortOrder))),
		filter.KeyView:       st.View,
	}
	for _, key := range filter.Keys() {
		v := values[key]
		if list, ok := v.([]string); ok && list == nil {
			v = []string{}
		}
		if err := s.SetFilter(key, v); err != nil {
			return fmt.Errorf("filters file: %w", err)
		}
	}
	return nil
}
