package models

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Watch status values for a tracked movie or show.
const (
	StatusWatching  = "Watching"
	StatusCompleted = "Completed"
	StatusWishlist  = "Wishlist"
)

// DefaultTotalEpisodes is assumed when a draft does not specify an episode count.
const DefaultTotalEpisodes = 10

// Movie represents one tracked movie or show in the catalog.
// The ID is assigned by the persistence service at creation and is never
// generated client-side.
type Movie struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Director        string `json:"director"`
	Genre           string `json:"genre"` // comma-delimited tags, display order preserved
	Platform        string `json:"platform"`
	Status          string `json:"status"`
	EpisodesWatched int    `json:"episodesWatched"`
	TotalEpisodes   int    `json:"totalEpisodes"`
	Rating          int    `json:"rating"` // 0 = unrated
	Review          string `json:"review"` // serialized JSON array of Review
	Image           string `json:"image,omitempty"`
}

// Review is one rating+text pair attached to a movie. The serialized list on
// a movie only ever grows through the review submission path.
type Review struct {
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

// MovieSummary is the lightweight shape returned by the recommendation
// endpoint, used only for cross-navigation from a detail view.
type MovieSummary struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Genre    string `json:"genre"`
	Platform string `json:"platform"`
	Status   string `json:"status"`
	Image    string `json:"image,omitempty"`
}

// GenreTags splits a comma-delimited genre string into trimmed tags.
// An empty or whitespace-only string yields no tags.
func GenreTags(genre string) []string {
	if strings.TrimSpace(genre) == "" {
		return nil
	}

	parts := strings.Split(genre, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}

	return tags
}

// ParseReviews decodes a serialized review list. Empty, absent, or malformed
// input yields an empty slice: a corrupt or legacy blob must never block
// rendering the rest of the detail view.
func ParseReviews(raw string) []Review {
	if strings.TrimSpace(raw) == "" {
		return []Review{}
	}

	var reviews []Review
	if err := json.Unmarshal([]byte(raw), &reviews); err != nil {
		return []Review{}
	}
	if reviews == nil {
		return []Review{}
	}

	return reviews
}

// SerializeReviews encodes a review list into its stored string form.
// Round-trips with ParseReviews for any list produced by this system.
func SerializeReviews(reviews []Review) string {
	if reviews == nil {
		reviews = []Review{}
	}

	data, err := json.Marshal(reviews)
	if err != nil {
		return "[]"
	}

	return string(data)
}

// ImageOrPlaceholder returns the movie's image URL, falling back to a
// generated placeholder keyed by title when no image was provided.
func (m Movie) ImageOrPlaceholder() string {
	if strings.TrimSpace(m.Image) != "" {
		return m.Image
	}
	return "https://placehold.co/400x250?text=" + url.QueryEscape(m.Title)
}

// Reviews decodes the movie's embedded review list.
func (m Movie) Reviews() []Review {
	return ParseReviews(m.Review)
}

// MovieDraft holds user-entered, not-yet-persisted movie data. One typed
// field per attribute; validation happens before any network call.
type MovieDraft struct {
	Title           string `json:"title"`
	Director        string `json:"director"`
	Genre           string `json:"genre"`
	Platform        string `json:"platform"`
	CustomPlatform  string `json:"customPlatform,omitempty"`
	Status          string `json:"status"`
	EpisodesWatched int    `json:"episodesWatched"`
	TotalEpisodes   int    `json:"totalEpisodes"`
	Rating          int    `json:"rating"`
	Review          string `json:"review,omitempty"`
	Image           string `json:"image,omitempty"`
}

// ResolvePlatform returns the effective platform: the custom entry when the
// fixed choice is "Other", otherwise the fixed choice.
func (d MovieDraft) ResolvePlatform() string {
	if d.Platform == "Other" {
		return strings.TrimSpace(d.CustomPlatform)
	}
	return strings.TrimSpace(d.Platform)
}

// Validate checks the draft's required fields. It reports the first missing
// field so the form can point the user at it.
func (d MovieDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(d.Director) == "" {
		return fmt.Errorf("director is required")
	}
	if strings.TrimSpace(d.Genre) == "" {
		return fmt.Errorf("genre is required")
	}
	if d.ResolvePlatform() == "" {
		return fmt.Errorf("platform is required")
	}
	if d.Rating < 0 || d.Rating > 5 {
		return fmt.Errorf("rating must be between 0 and 5")
	}
	return nil
}

// ToMovie builds the submission payload from the draft, applying defaults:
// blank status becomes Watching, a missing episode count becomes
// DefaultTotalEpisodes. The returned movie carries no ID; the server assigns
// one on create.
func (d MovieDraft) ToMovie() Movie {
	status := strings.TrimSpace(d.Status)
	if status == "" {
		status = StatusWatching
	}

	total := d.TotalEpisodes
	if total <= 0 {
		total = DefaultTotalEpisodes
	}

	watched := d.EpisodesWatched
	if watched < 0 {
		watched = 0
	}

	review := "[]"
	if strings.TrimSpace(d.Review) != "" && d.Rating >= 1 {
		review = SerializeReviews([]Review{{Rating: d.Rating, Review: strings.TrimSpace(d.Review)}})
	}

	return Movie{
		Title:           strings.TrimSpace(d.Title),
		Director:        strings.TrimSpace(d.Director),
		Genre:           strings.TrimSpace(d.Genre),
		Platform:        d.ResolvePlatform(),
		Status:          status,
		EpisodesWatched: watched,
		TotalEpisodes:   total,
		Rating:          d.Rating,
		Review:          review,
		Image:           strings.TrimSpace(d.Image),
	}
}
