package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"cinetrack/handlers"
)

// corsMiddleware handles CORS for the browser frontend.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewRouter wires the movie API routes.
func NewRouter(movies *handlers.MoviesHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware)

	router.HandleFunc("/movies", movies.List).Methods(http.MethodGet)
	router.HandleFunc("/movies", movies.Create).Methods(http.MethodPost)
	router.HandleFunc("/movies/{id}", movies.Update).Methods(http.MethodPatch)
	router.HandleFunc("/movies/{id}", movies.Delete).Methods(http.MethodDelete)
	router.HandleFunc("/movies/{id}/review", movies.AddReview).Methods(http.MethodPost)
	router.HandleFunc("/movies/{id}/recommend", movies.Recommendations).Methods(http.MethodGet)

	// CORS preflight for any API path.
	router.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.WriteHeader(http.StatusOK)
	})

	return router
}
