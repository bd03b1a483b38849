package filter

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/actionculture/heritage/internal/domain"
)

var (
	// ErrUnknownKey is returned for a filter key outside the known set.
	ErrUnknownKey = errors.New("filter: unknown key")
	// ErrInvalidValue is returned when a value has the wrong type for its key.
	ErrInvalidValue = errors.New("filter: invalid value")
)

// Key names one filter.
type Key string

const (
	KeySearch     Key = "search"
	KeyCategories Key = "categories"
	KeyWilayas    Key = "wilayas"
	KeyDateRange  Key = "dateRange"
	KeyPriceRange Key = "priceRange"
	KeySortBy     Key = "sortBy"
	KeySortOrder  Key = "sortOrder"
	KeyView       Key = "view"
)

var keys = []Key{
	KeySearch, KeyCategories, KeyWilayas, KeyDateRange,
	KeyPriceRange, KeySortBy, KeySortOrder, KeyView,
}

// Keys returns every recognized key.
func Keys() []Key {
	return slices.Clone(keys)
}

// ParseKey maps a wire name to its key.
func ParseKey(name string) (Key, error) {
	k := Key(name)
	if !slices.Contains(keys, k) {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, name)
	}
	return k, nil
}

// Store owns one filter state. Reads return snapshots; every write goes
// through a setter. It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	state State
}

// NewStore creates a store holding the defaults.
func NewStore() *Store {
	return &Store{state: Defaults()}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// SetFilter replaces a single filter. The value type must match the key:
// string for search and sortBy, []string for categories and wilayas,
// DateRange, PriceRange, domain.SortOrder and View.
func (s *Store) SetFilter(key Key, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	invalid := func() error {
		return fmt.Errorf("%w: %T for %s", ErrInvalidValue, value, key)
	}

	switch key {
	case KeySearch:
		v, ok := value.(string)
		if !ok {
			return invalid()
		}
		s.state.Search = v
	case KeyCategories:
		v, ok := value.([]string)
		if !ok {
			return invalid()
		}
		s.state.Categories = append([]string{}, v...)
	case KeyWilayas:
		v, ok := value.([]string)
		if !ok {
			return invalid()
		}
		s.state.Wilayas = append([]string{}, v...)
	case KeyDateRange:
		v, ok := value.(DateRange)
		if !ok {
			return invalid()
		}
		s.state.DateRange = DateRange{Start: clonePtr(v.Start), End: clonePtr(v.End)}
	case KeyPriceRange:
		v, ok := value.(PriceRange)
		if !ok {
			return invalid()
		}
		s.state.PriceRange = PriceRange{Min: clonePtr(v.Min), Max: clonePtr(v.Max)}
	case KeySortBy:
		v, ok := value.(string)
		if !ok {
			return invalid()
		}
		s.state.SortBy = v
	case KeySortOrder:
		v, ok := value.(domain.SortOrder)
		if !ok || !v.Valid() {
			return invalid()
		}
		s.state.SortOrder = v
	case KeyView:
		v, ok := value.(View)
		if !ok || (v != ViewGrid && v != ViewList) {
			return invalid()
		}
		s.state.View = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return nil
}

// AddCategory appends a category. Duplicates are not filtered.
func (s *Store) AddCategory(category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Categories = append(s.state.Categories, category)
}

// RemoveCategory removes every occurrence of category.
func (s *Store) RemoveCategory(category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Categories = remove(s.state.Categories, category)
}

// AddWilaya appends a wilaya. Duplicates are not filtered.
func (s *Store) AddWilaya(wilaya string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Wilayas = append(s.state.Wilayas, wilaya)
}

// RemoveWilaya removes every occurrence of wilaya.
func (s *Store) RemoveWilaya(wilaya string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Wilayas = remove(s.state.Wilayas, wilaya)
}

func remove(list []string, value string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}

// SetDateRange replaces the event date bounds.
func (s *Store) SetDateRange(start, end *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.DateRange = DateRange{Start: clonePtr(start), End: clonePtr(end)}
}

// SetPriceRange replaces the event price bounds.
func (s *Store) SetPriceRange(lo, hi *float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.PriceRange = PriceRange{Min: clonePtr(lo), Max: clonePtr(hi)}
}

// ToggleSortOrder flips between ascending and descending.
func (s *Store) ToggleSortOrder() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.SortOrder == domain.SortAsc {
		s.state.SortOrder = domain.SortDesc
	} else {
		s.state.SortOrder = domain.SortAsc
	}
}

// ToggleView flips between grid and list.
func (s *Store) ToggleView() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.View == ViewList {
		s.state.View = ViewGrid
	} else {
		s.state.View = ViewList
	}
}

// ResetFilters restores the defaults.
func (s *Store) ResetFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Defaults()
}
