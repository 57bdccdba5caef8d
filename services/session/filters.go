package session

import (
	"strings"
	"sync"

	"cinetrack/models"
	"cinetrack/utils/filter"
)

// Dimension names one of the three independent filter axes.
type Dimension string

const (
	DimensionGenre    Dimension = "genre"
	DimensionPlatform Dimension = "platform"
	DimensionStatus   Dimension = "status"
)

// Filters tracks the active filter values for a browsing session. Values are
// deduplicated case-sensitively on add; matching downstream is
// case-insensitive, so values differing only by case are redundant for
// matching but kept for display.
type Filters struct {
	mu  sync.Mutex
	set filter.Set
}

// Add appends a value to a dimension. Blank values and exact duplicates are
// ignored.
func (f *Filters) Add(dim Dimension, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	values := f.valuesLocked(dim)
	if values == nil {
		return
	}
	for _, existing := range *values {
		if existing == value {
			return
		}
	}
	*values = append(*values, value)
}

// Remove deletes an exact value from a dimension; unknown values are a no-op.
func (f *Filters) Remove(dim Dimension, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values := f.valuesLocked(dim)
	if values == nil {
		return
	}
	for i, existing := range *values {
		if existing == value {
			*values = append((*values)[:i], (*values)[i+1:]...)
			return
		}
	}
}

// Snapshot returns a copy of the active filter set for the filter engine.
func (f *Filters) Snapshot() filter.Set {
	f.mu.Lock()
	defer f.mu.Unlock()

	return filter.Set{
		Genre:    append([]string(nil), f.set.Genre...),
		Platform: append([]string(nil), f.set.Platform...),
		Status:   append([]string(nil), f.set.Status...),
	}
}

// Clear drops every active filter value.
func (f *Filters) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.set = filter.Set{}
}

func (f *Filters) valuesLocked(dim Dimension) *[]string {
	switch dim {
	case DimensionGenre:
		return &f.set.Genre
	case DimensionPlatform:
		return &f.set.Platform
	case DimensionStatus:
		return &f.set.Status
	default:
		return nil
	}
}

// GenreSuggestions derives the suggestion list offered in the genre filter
// input: the union of every movie's split genre tags, in first-seen order.
// Recompute whenever the catalog changes.
func GenreSuggestions(movies []models.Movie) []string {
	seen := make(map[string]struct{})
	var suggestions []string

	for _, movie := range movies {
		for _, tag := range models.GenreTags(movie.Genre) {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			suggestions = append(suggestions, tag)
		}
	}

	return suggestions
}
