package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"cinetrack/models"
)

var (
	// ErrValidation marks failures caught before any network call.
	ErrValidation   = errors.New("validation failed")
	ErrNotInCatalog = errors.New("movie not in catalog")
)

const (
	episodePatchAttempts = 3
	episodePatchDelay    = 500 * time.Millisecond
	syncTimeout          = 15 * time.Second
)

// Remote is the persistence collaborator the store reconciles against.
type Remote interface {
	FetchAll(ctx context.Context) ([]models.Movie, error)
	Create(ctx context.Context, movie models.Movie) (int64, error)
	UpdateEpisodes(ctx context.Context, id int64, count int) error
	Delete(ctx context.Context, id int64) error
	AddReview(ctx context.Context, id int64, review models.Review) error
	Recommend(ctx context.Context, id int64) ([]models.MovieSummary, error)
}

// Notifier surfaces user-facing messages for operations whose failure the
// browse or admin screen must report. The zero value of the store uses a
// no-op notifier.
type Notifier interface {
	Notify(message string)
}

type noopNotifier struct{}

func (noopNotifier) Notify(string) {}

// Subscriber receives a fresh catalog snapshot after every local state
// change. Both the admin and browse screens subscribe against the one store
// instead of sharing a mutation handle.
type Subscriber func(movies []models.Movie)

// episodeSync tracks reconciliation state for one movie's episode counter:
// the last remote-confirmed value and the revision of the newest local write.
// A completion carrying a stale revision neither confirms nor rolls back.
type episodeSync struct {
	rev       uint64
	confirmed int
}

// Store is the single source of truth for the in-memory catalog. Mutations
// apply optimistically under the lock; remote writes run as background tasks
// that re-enter the lock to reconcile.
type Store struct {
	remote   Remote
	notifier Notifier
	logger   *slog.Logger

	mu       sync.Mutex
	movies   []models.Movie
	episodes map[int64]*episodeSync
	subs     []Subscriber

	syncs conc.WaitGroup
}

// NewStore creates a catalog store backed by the given remote. A nil
// notifier silently drops user-facing messages.
func NewStore(remote Remote, notifier Notifier) *Store {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Store{
		remote:   remote,
		notifier: notifier,
		logger:   slog.Default().With("component", "catalog"),
		episodes: make(map[int64]*episodeSync),
	}
}

// Subscribe registers a snapshot callback invoked after every local change.
// The snapshot passed to the callback is a copy and safe to retain.
func (s *Store) Subscribe(sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, sub)
}

// Movies returns a copy of the current catalog.
func (s *Store) Movies() []models.Movie {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Wait blocks until all in-flight background syncs have reconciled. Used at
// shutdown and by tests.
func (s *Store) Wait() {
	s.syncs.Wait()
}

// Load replaces the catalog from a remote read-all. On failure the previous
// state is kept: the browse view can legitimately show an empty catalog, so
// the error is logged rather than surfaced modally.
func (s *Store) Load(ctx context.Context) error {
	movies, err := s.remote.FetchAll(ctx)
	if err != nil {
		s.logger.Warn("catalog load failed", "error", err)
		return err
	}

	s.mu.Lock()
	s.movies = movies
	s.episodes = make(map[int64]*episodeSync, len(movies))
	for _, movie := range movies {
		s.episodes[movie.ID] = &episodeSync{confirmed: movie.EpisodesWatched}
	}
	s.notifyLocked()
	s.mu.Unlock()

	return nil
}

// Create validates the draft, submits it, and inserts the server-confirmed
// movie into the catalog. There is no optimistic insert: the server assigns
// the id. On failure the catalog is untouched and the caller keeps the
// entered draft for retry.
func (s *Store) Create(ctx context.Context, draft models.MovieDraft) (models.Movie, error) {
	if err := draft.Validate(); err != nil {
		return models.Movie{}, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	movie := draft.ToMovie()
	id, err := s.remote.Create(ctx, movie)
	if err != nil {
		s.logger.Error("create movie failed", "title", movie.Title, "error", err)
		s.notifier.Notify("Failed to add " + movie.Title + ". Please try again.")
		return models.Movie{}, err
	}

	movie.ID = id

	s.mu.Lock()
	s.movies = append(s.movies, movie)
	s.episodes[id] = &episodeSync{confirmed: movie.EpisodesWatched}
	s.notifyLocked()
	s.mu.Unlock()

	return movie, nil
}

// UpdateEpisodes applies the new count optimistically and patches the remote
// in the background through a bounded retry. If retries exhaust and no newer
// local write has superseded this one, the counter rolls back to the last
// remote-confirmed value and the user is notified. Counts above the movie's
// total are clamped; negative counts are rejected.
func (s *Store) UpdateEpisodes(ctx context.Context, id int64, count int) error {
	if count < 0 {
		return fmt.Errorf("%w: episode count cannot be negative", ErrValidation)
	}

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotInCatalog
	}

	if total := s.movies[idx].TotalEpisodes; total >= 1 && count > total {
		count = total
	}
	s.movies[idx].EpisodesWatched = count

	state := s.episodes[id]
	if state == nil {
		state = &episodeSync{}
		s.episodes[id] = state
	}
	state.rev++
	rev := state.rev

	s.notifyLocked()
	s.mu.Unlock()

	opID := uuid.NewString()
	s.syncs.Go(func() {
		s.patchEpisodes(opID, id, count, rev)
	})

	return nil
}

func (s *Store) patchEpisodes(opID string, id int64, count int, rev uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	err := retry.Do(
		func() error { return s.remote.UpdateEpisodes(ctx, id, count) },
		retry.Context(ctx),
		retry.Attempts(episodePatchAttempts),
		retry.Delay(episodePatchDelay),
		retry.LastErrorOnly(true),
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.episodes[id]
	if state == nil || state.rev != rev {
		// A newer local write owns the counter now. Whatever happened to
		// this patch, its outcome is stale.
		s.logger.Debug("stale episode sync ignored", "op", opID, "movie", id, "rev", rev)
		return
	}

	if err != nil {
		s.logger.Error("episode sync failed, rolling back", "op", opID, "movie", id, "count", count, "error", err)
		if idx := s.indexLocked(id); idx >= 0 {
			s.movies[idx].EpisodesWatched = state.confirmed
			s.notifyLocked()
		}
		s.notifier.Notify("Could not save episode progress. Reverted to last saved value.")
		return
	}

	state.confirmed = count
}

// Delete removes the movie optimistically. The caller performs the explicit
// user confirmation before invoking. If the remote delete fails the movie is
// restored at its original position and the user notified; deletion is
// destructive, so this rollback is unconditional.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotInCatalog
	}

	removed := s.movies[idx]
	s.movies = append(s.movies[:idx], s.movies[idx+1:]...)
	s.notifyLocked()
	s.mu.Unlock()

	s.syncs.Go(func() {
		sctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()

		if err := s.remote.Delete(sctx, id); err != nil {
			s.logger.Error("delete failed, restoring movie", "movie", id, "error", err)

			s.mu.Lock()
			restoreAt := idx
			if restoreAt > len(s.movies) {
				restoreAt = len(s.movies)
			}
			s.movies = append(s.movies[:restoreAt], append([]models.Movie{removed}, s.movies[restoreAt:]...)...)
			s.notifyLocked()
			s.mu.Unlock()

			s.notifier.Notify("Failed to delete " + removed.Title + ".")
		}
	})

	return nil
}

// AppendReview validates and submits one review, appending it to the local
// movie only after the remote confirms. On failure local state is untouched
// and the caller keeps the entered rating and text for retry.
func (s *Store) AppendReview(ctx context.Context, id int64, review models.Review) error {
	if review.Rating < 1 || review.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	if strings.TrimSpace(review.Review) == "" {
		return fmt.Errorf("%w: review text is required", ErrValidation)
	}

	review.Review = strings.TrimSpace(review.Review)

	if err := s.remote.AddReview(ctx, id, review); err != nil {
		s.logger.Error("review submit failed", "movie", id, "error", err)
		s.notifier.Notify("Failed to submit review. Try again.")
		return err
	}

	s.mu.Lock()
	if idx := s.indexLocked(id); idx >= 0 {
		reviews := append(models.ParseReviews(s.movies[idx].Review), review)
		s.movies[idx].Review = models.SerializeReviews(reviews)
		s.notifyLocked()
	}
	s.mu.Unlock()

	return nil
}

// Recommend fetches recommendation summaries for one movie from the remote.
func (s *Store) Recommend(ctx context.Context, id int64) ([]models.MovieSummary, error) {
	return s.remote.Recommend(ctx, id)
}

// Lookup returns the catalog's copy of a movie, if present.
func (s *Store) Lookup(id int64) (models.Movie, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexLocked(id); idx >= 0 {
		return s.movies[idx], true
	}
	return models.Movie{}, false
}

func (s *Store) indexLocked(id int64) int {
	for i := range s.movies {
		if s.movies[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() []models.Movie {
	snapshot := make([]models.Movie, len(s.movies))
	copy(snapshot, s.movies)
	return snapshot
}

func (s *Store) notifyLocked() {
	if len(s.subs) == 0 {
		return
	}
	snapshot := s.snapshotLocked()
	for _, sub := range s.subs {
		sub(snapshot)
	}
}
