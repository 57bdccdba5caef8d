package recommend

import (
	"context"
	"sort"

	"cinetrack/models"
	"cinetrack/utils/similarity"
)

// MaxResults caps how many recommendations one lookup returns.
const MaxResults = 5

// MovieSource provides the catalog the recommender scores against.
type MovieSource interface {
	Get(ctx context.Context, id int64) (models.Movie, error)
	List(ctx context.Context) ([]models.Movie, error)
}

// Service ranks catalog movies by genre similarity to a target movie.
type Service struct {
	source MovieSource
}

// NewService creates a recommender over the given movie source.
func NewService(source MovieSource) *Service {
	return &Service{source: source}
}

// ForMovie returns up to MaxResults movies most similar to the target,
// ranked by genre cosine similarity and then by rating. The target itself is
// never included.
func (s *Service) ForMovie(ctx context.Context, id int64) ([]models.MovieSummary, error) {
	target, err := s.source.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	all, err := s.source.List(ctx)
	if err != nil {
		return nil, err
	}

	targetVec := similarity.Vectorize(target.Genre)

	type scored struct {
		movie models.Movie
		score float64
	}

	candidates := make([]scored, 0, len(all))
	for _, movie := range all {
		if movie.ID == id {
			continue
		}
		candidates = append(candidates, scored{
			movie: movie,
			score: similarity.Cosine(targetVec, similarity.Vectorize(movie.Genre)),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].movie.Rating > candidates[j].movie.Rating
	})

	if len(candidates) > MaxResults {
		candidates = candidates[:MaxResults]
	}

	results := make([]models.MovieSummary, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, models.MovieSummary{
			ID:       c.movie.ID,
			Title:    c.movie.Title,
			Genre:    c.movie.Genre,
			Platform: c.movie.Platform,
			Status:   c.movie.Status,
			Image:    c.movie.Image,
		})
	}

	return results, nil
}
