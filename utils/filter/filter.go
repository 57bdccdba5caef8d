package filter

import (
	"strings"

	"cinetrack/models"
)

// Set holds the active filter values per dimension. Each dimension is an
// independent OR-set; dimensions combine with logical AND. Insertion order is
// preserved for display, matching is unordered and case-insensitive. An empty
// dimension imposes no constraint.
type Set struct {
	Genre    []string `json:"genre"`
	Platform []string `json:"platform"`
	Status   []string `json:"status"`
}

// Empty reports whether no dimension constrains the catalog.
func (s Set) Empty() bool {
	return len(s.Genre) == 0 && len(s.Platform) == 0 && len(s.Status) == 0
}

// Apply projects the catalog down to the movies matching the filter set.
// Pure function: the input slice is never mutated and the result is
// deterministic, so it is safe to call on every render.
func Apply(movies []models.Movie, set Set) []models.Movie {
	if set.Empty() {
		return movies
	}

	matched := make([]models.Movie, 0, len(movies))
	for _, movie := range movies {
		if matches(movie, set) {
			matched = append(matched, movie)
		}
	}

	return matched
}

func matches(movie models.Movie, set Set) bool {
	if len(set.Genre) > 0 && !matchesGenre(movie, set.Genre) {
		return false
	}
	if len(set.Platform) > 0 && !matchesValue(movie.Platform, set.Platform) {
		return false
	}
	if len(set.Status) > 0 && !matchesValue(movie.Status, set.Status) {
		return false
	}
	return true
}

// matchesGenre checks the movie's split tag set against the filter values.
// A movie with zero genre tags matches no genre filter.
func matchesGenre(movie models.Movie, wanted []string) bool {
	tags := models.GenreTags(movie.Genre)
	if len(tags) == 0 {
		return false
	}

	for _, want := range wanted {
		for _, tag := range tags {
			if strings.EqualFold(strings.TrimSpace(want), tag) {
				return true
			}
		}
	}

	return false
}

func matchesValue(have string, wanted []string) bool {
	for _, want := range wanted {
		if strings.EqualFold(strings.TrimSpace(want), strings.TrimSpace(have)) {
			return true
		}
	}
	return false
}
