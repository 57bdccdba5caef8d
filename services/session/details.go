package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"cinetrack/models"
)

const recommendTimeout = 15 * time.Second

// Recommender fetches recommendation summaries for one movie.
type Recommender interface {
	Recommend(ctx context.Context, id int64) ([]models.MovieSummary, error)
}

// DetailState is what the detail view renders: the movie, its reviews, and
// the recommendation rail. Reviews are always present once a movie is open;
// recommendations arrive later or not at all.
type DetailState struct {
	Movie                  models.Movie
	Reviews                []models.Review
	Recommendations        []models.MovieSummary
	RecommendationsPending bool
}

// Details hydrates the per-movie detail view. Reviews derive synchronously
// from the movie's own review field; recommendations are fetched in the
// background with independent failure isolation, so a recommendation failure
// never blocks review display.
type Details struct {
	recommender Recommender
	logger      *slog.Logger

	mu      sync.Mutex
	state   DetailState
	opened  bool
	gen     uint64
	fetches conc.WaitGroup
}

// NewDetails creates a detail hydrator over the given recommender.
func NewDetails(recommender Recommender) *Details {
	return &Details{
		recommender: recommender,
		logger:      slog.Default().With("component", "details"),
	}
}

// Open replaces the open detail view with the given movie. Reviews render
// immediately; the recommendation fetch runs in the background keyed by the
// movie id. Opening another movie before the fetch completes discards the
// stale result.
func (d *Details) Open(ctx context.Context, movie models.Movie) {
	d.mu.Lock()
	d.gen++
	gen := d.gen
	d.opened = true
	d.state = DetailState{
		Movie:                  movie,
		Reviews:                models.ParseReviews(movie.Review),
		RecommendationsPending: true,
	}
	d.mu.Unlock()

	d.fetches.Go(func() {
		fctx, cancel := context.WithTimeout(context.Background(), recommendTimeout)
		defer cancel()

		summaries, err := d.recommender.Recommend(fctx, movie.ID)

		d.mu.Lock()
		defer d.mu.Unlock()

		if d.gen != gen {
			return
		}

		d.state.RecommendationsPending = false
		if err != nil {
			// Reviews still render; the recommendations section is simply
			// absent.
			d.logger.Warn("recommendation fetch failed", "movie", movie.ID, "error", err)
			d.state.Recommendations = nil
			return
		}
		d.state.Recommendations = summaries
	})
}

// OpenRecommended navigates to a recommended movie from within the detail
// view, replacing (not stacking) the open view. The catalog copy is used
// when the movie is tracked locally so the full review blob is available;
// otherwise the summary's fields are all the view gets.
func (d *Details) OpenRecommended(ctx context.Context, summary models.MovieSummary, lookup func(int64) (models.Movie, bool)) {
	if lookup != nil {
		if movie, ok := lookup(summary.ID); ok {
			d.Open(ctx, movie)
			return
		}
	}

	d.Open(ctx, models.Movie{
		ID:       summary.ID,
		Title:    summary.Title,
		Genre:    summary.Genre,
		Platform: summary.Platform,
		Status:   summary.Status,
		Image:    summary.Image,
	})
}

// Close discards the open detail view. In-flight recommendation fetches are
// ignored when they land.
func (d *Details) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	d.opened = false
	d.state = DetailState{}
}

// State returns the current detail view state and whether a movie is open.
func (d *Details) State() (DetailState, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	state := d.state
	state.Reviews = append([]models.Review(nil), state.Reviews...)
	state.Recommendations = append([]models.MovieSummary(nil), state.Recommendations...)
	return state, d.opened
}

// Wait blocks until in-flight recommendation fetches settle. Used by tests.
func (d *Details) Wait() {
	d.fetches.Wait()
}
