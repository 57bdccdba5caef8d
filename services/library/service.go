package library

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"cinetrack/models"
)

var (
	ErrDatabasePathRequired = errors.New("database path not provided")
	ErrMovieNotFound        = errors.New("movie not found")
	ErrInvalidReview        = errors.New("both rating and review are required")
)

//go:embed migrations/*.sql
var migrations embed.FS

// Service owns the persisted movie library behind the HTTP API.
type Service struct {
	db *sql.DB
}

// NewService opens (or creates) the SQLite library at the given path and
// applies any pending schema migrations.
func NewService(path string) (*Service, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrDatabasePathRequired
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open library db: %w", err)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set migration dialect: %w", err)
	}
	goose.SetLogger(goose.NopLogger())
	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate library db: %w", err)
	}

	return &Service{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Service) Close() error {
	return s.db.Close()
}

const movieColumns = "id, title, director, genre, platform, status, episodes_watched, total_episodes, rating, review, image"

// List returns every movie in the library in insertion order.
func (s *Service) List(ctx context.Context) ([]models.Movie, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+movieColumns+" FROM movies ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	movies := make([]models.Movie, 0)
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, movie)
	}

	return movies, rows.Err()
}

// Get returns one movie by id.
func (s *Service) Get(ctx context.Context, id int64) (models.Movie, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+movieColumns+" FROM movies WHERE id = ?", id)
	movie, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Movie{}, ErrMovieNotFound
	}
	return movie, err
}

// Create validates and inserts a new movie, returning the assigned id.
func (s *Service) Create(ctx context.Context, movie models.Movie) (int64, error) {
	if strings.TrimSpace(movie.Title) == "" ||
		strings.TrimSpace(movie.Director) == "" ||
		strings.TrimSpace(movie.Platform) == "" ||
		strings.TrimSpace(movie.Status) == "" {
		return 0, fmt.Errorf("title, director, platform, and status are required")
	}

	// Normalize the review blob so reads always see a valid list.
	movie.Review = models.SerializeReviews(models.ParseReviews(movie.Review))

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO movies (title, director, genre, platform, status, episodes_watched, total_episodes, rating, review, image)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(movie.Title),
		strings.TrimSpace(movie.Director),
		strings.TrimSpace(movie.Genre),
		strings.TrimSpace(movie.Platform),
		strings.TrimSpace(movie.Status),
		movie.EpisodesWatched,
		movie.TotalEpisodes,
		movie.Rating,
		movie.Review,
		strings.TrimSpace(movie.Image),
	)
	if err != nil {
		return 0, fmt.Errorf("insert movie: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted id: %w", err)
	}

	return id, nil
}

// UpdateEpisodes sets the watched-episode count for one movie.
func (s *Service) UpdateEpisodes(ctx context.Context, id int64, count int) error {
	res, err := s.db.ExecContext(ctx, "UPDATE movies SET episodes_watched = ? WHERE id = ?", count, id)
	if err != nil {
		return fmt.Errorf("update episodes: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update episodes: %w", err)
	}
	if affected == 0 {
		return ErrMovieNotFound
	}

	return nil
}

// Delete removes one movie from the library.
func (s *Service) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM movies WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}
	if affected == 0 {
		return ErrMovieNotFound
	}

	return nil
}

// AppendReview appends one review to a movie's serialized review list. A
// malformed existing blob degrades to an empty list rather than failing.
func (s *Service) AppendReview(ctx context.Context, id int64, review models.Review) error {
	if review.Rating < 1 || review.Rating > 5 || strings.TrimSpace(review.Review) == "" {
		return ErrInvalidReview
	}

	movie, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	reviews := append(models.ParseReviews(movie.Review), models.Review{
		Rating: review.Rating,
		Review: strings.TrimSpace(review.Review),
	})

	_, err = s.db.ExecContext(ctx, "UPDATE movies SET review = ? WHERE id = ?",
		models.SerializeReviews(reviews), id)
	if err != nil {
		return fmt.Errorf("append review: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner) (models.Movie, error) {
	var m models.Movie
	err := row.Scan(
		&m.ID, &m.Title, &m.Director, &m.Genre, &m.Platform, &m.Status,
		&m.EpisodesWatched, &m.TotalEpisodes, &m.Rating, &m.Review, &m.Image,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Movie{}, err
		}
		return models.Movie{}, fmt.Errorf("scan movie: %w", err)
	}
	return m, nil
}
