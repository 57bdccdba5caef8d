package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"cinetrack/models"
	"cinetrack/services/library"
	"cinetrack/services/recommend"
)

type libraryService interface {
	List(ctx context.Context) ([]models.Movie, error)
	Get(ctx context.Context, id int64) (models.Movie, error)
	Create(ctx context.Context, movie models.Movie) (int64, error)
	UpdateEpisodes(ctx context.Context, id int64, count int) error
	Delete(ctx context.Context, id int64) error
	AppendReview(ctx context.Context, id int64, review models.Review) error
}

type recommendService interface {
	ForMovie(ctx context.Context, id int64) ([]models.MovieSummary, error)
}

var (
	_ libraryService   = (*library.Service)(nil)
	_ recommendService = (*recommend.Service)(nil)
)

// MoviesHandler exposes the movie library over the /movies API.
type MoviesHandler struct {
	Library   libraryService
	Recommend recommendService
}

func NewMoviesHandler(lib libraryService, rec recommendService) *MoviesHandler {
	return &MoviesHandler{Library: lib, Recommend: rec}
}

// List returns the full catalog.
func (h *MoviesHandler) List(w http.ResponseWriter, r *http.Request) {
	movies, err := h.Library.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, movies)
}

// Create inserts a new movie and returns the assigned id.
func (h *MoviesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var movie models.Movie
	if err := json.NewDecoder(r.Body).Decode(&movie); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	id, err := h.Library.Create(r.Context(), movie)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Movie added successfully!",
		"id":      id,
	})
}

// Update applies a partial update; only episodesWatched is patchable.
func (h *MoviesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(w, r)
	if !ok {
		return
	}

	var patch struct {
		EpisodesWatched *int `json:"episodesWatched"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if patch.EpisodesWatched != nil {
		if err := h.Library.UpdateEpisodes(r.Context(), id, *patch.EpisodesWatched); err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Movie updated successfully!"})
}

// Delete removes one movie.
func (h *MoviesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(w, r)
	if !ok {
		return
	}

	if err := h.Library.Delete(r.Context(), id); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Movie deleted successfully!"})
}

// AddReview appends one review to a movie.
func (h *MoviesHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(w, r)
	if !ok {
		return
	}

	var review models.Review
	if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Library.AppendReview(r.Context(), id, review); err != nil {
		status := statusFor(err)
		if errors.Is(err, library.ErrInvalidReview) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Review added successfully!"})
}

// Recommendations returns movies similar to the given one.
func (h *MoviesHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(w, r)
	if !ok {
		return
	}

	summaries, err := h.Recommend.ForMovie(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	if summaries == nil {
		summaries = []models.MovieSummary{}
	}

	writeJSON(w, http.StatusOK, summaries)
}

func movieID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid movie id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func statusFor(err error) int {
	if errors.Is(err, library.ErrMovieNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
