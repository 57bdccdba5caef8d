package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"cinetrack/models"
)

// fakeRemote records calls and fails selectively per operation.
type fakeRemote struct {
	mu sync.Mutex

	movies []models.Movie

	failCreate   bool
	failPatch    bool
	failDelete   bool
	failReview   bool
	failFetch    bool
	patchCalls   int
	createCalls  int
	deleteCalls  int
	reviewCalls  int
	patchedCount int

	// patchRelease, when non-nil, blocks UpdateEpisodes until closed.
	patchRelease chan struct{}
}

var errRemote = errors.New("remote unavailable")

func (f *fakeRemote) FetchAll(context.Context) ([]models.Movie, error) {
	if f.failFetch {
		return nil, errRemote
	}
	return f.movies, nil
}

func (f *fakeRemote) Create(_ context.Context, movie models.Movie) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.failCreate {
		return 0, errRemote
	}
	return int64(100 + f.createCalls), nil
}

func (f *fakeRemote) UpdateEpisodes(_ context.Context, id int64, count int) error {
	if f.patchRelease != nil {
		<-f.patchRelease
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patchCalls++
	if f.failPatch {
		return errRemote
	}
	f.patchedCount = count
	return nil
}

func (f *fakeRemote) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.failDelete {
		return errRemote
	}
	return nil
}

func (f *fakeRemote) AddReview(_ context.Context, id int64, review models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviewCalls++
	if f.failReview {
		return errRemote
	}
	return nil
}

func (f *fakeRemote) Recommend(context.Context, int64) ([]models.MovieSummary, error) {
	return nil, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func twoMovieCatalog() []models.Movie {
	return []models.Movie{
		{ID: 1, Title: "First", Genre: "Drama", Platform: "Netflix", Status: models.StatusWatching, TotalEpisodes: 10},
		{ID: 2, Title: "Second", Genre: "Comedy", Platform: "Prime", Status: models.StatusCompleted, TotalEpisodes: 8},
	}
}

func loadedStore(t *testing.T, remote *fakeRemote, notifier Notifier) *Store {
	t.Helper()

	store := NewStore(remote, notifier)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return store
}

func TestLoadFailureKeepsPreviousState(t *testing.T) {
	remote := &fakeRemote{movies: twoMovieCatalog()}
	store := loadedStore(t, remote, nil)

	remote.failFetch = true
	if err := store.Load(context.Background()); err == nil {
		t.Fatal("expected load error")
	}

	if got := len(store.Movies()); got != 2 {
		t.Fatalf("failed load must keep previous catalog, got %d movies", got)
	}
}

func TestCreateGating(t *testing.T) {
	remote := &fakeRemote{}
	store := NewStore(remote, nil)

	_, err := store.Create(context.Background(), models.MovieDraft{
		Title: "", Director: "X", Genre: "Drama", Platform: "Netflix",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if remote.createCalls != 0 {
		t.Fatalf("invalid draft must not reach the network, got %d calls", remote.createCalls)
	}
}

func TestCreateInsertsServerConfirmedMovie(t *testing.T) {
	remote := &fakeRemote{}
	store := loadedStore(t, remote, nil)

	movie, err := store.Create(context.Background(), models.MovieDraft{
		Title: "Dune", Director: "Villeneuve", Genre: "Sci-Fi", Platform: "Max",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if movie.ID != 101 {
		t.Fatalf("expected server-assigned id 101, got %d", movie.ID)
	}

	movies := store.Movies()
	if len(movies) != 1 || movies[0].ID != 101 {
		t.Fatalf("expected confirmed movie in catalog, got %+v", movies)
	}
}

func TestCreateFailureLeavesCatalogUntouched(t *testing.T) {
	remote := &fakeRemote{movies: twoMovieCatalog(), failCreate: true}
	notifier := &recordingNotifier{}
	store := loadedStore(t, remote, notifier)

	_, err := store.Create(context.Background(), models.MovieDraft{
		Title: "Dune", Director: "Villeneuve", Genre: "Sci-Fi", Platform: "Max",
	})
	if err == nil {
		t.Fatal("expected create error")
	}

	if got := len(store.Movies()); got != 2 {
		t.Fatalf("catalog must be untouched after failed create, got %d movies", got)
	}
	if notifier.count() != 1 {
		t.Fatalf("expected one user notification, got %d", notifier.count())
	}
}

func TestUpdateEpisodesOptimistic(t *testing.T) {
	remote := &fakeRemote{movies: twoMovieCatalog(), patchRelease: make(chan struct{})}
	store := loadedStore(t, remote, nil)

	if err := store.UpdateEpisodes(context.Background(), 1, 5); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	// Local value reflects the write before the remote confirms.
	if got := store.Movies()[0].EpisodesWatched; got != 5 {
		t.Fatalf("expected optimistic value 5, got %d", got)
	}

	close(remote.patchRelease)
	store.Wait()

	if remote.patchedCount != 5 {
		t.Fatalf("expected remote patched to 5, got %d", remote.patchedCount)
	}
}

func TestUpdateEpisodesClampsToTotal(t *testing.T) {
	remote := &fakeRemote{movies: twoMovieCatalog()}
	store := loadedStore(t, remote, nil)

	if err := store.UpdateEpisodes(context.Background(), 2, 50); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	store.Wait()

	if got := store.Movies()[1].EpisodesWatched; got != 8 {
		t.Fatalf("expected count clamped to total 8, got %d", got)
	}
}

func TestUpdateEpisodesRejectsNegative(t *testing.T) {
	remote := &fakeRemote{movies: twoMovieCatalog()}
	store := loadedStore(t, remote, nil)

	err := store.UpdateEpisodes(context.Background(), 1, -1)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	store.Wait()
	if remote.patchCalls != 0 {
		t.Fatal("negative count must not reach the network")
	}
}

func TestUpdateEpisodesRollsBackWhenRetriesExhaust(t *testing.T) {
	movies := twoMovieCatalog()
	movies[0].EpisodesWatched = 3
	remote := &fakeRemote{movies: movies, failPatch: true}
	notifier := &recordingNotifier{}
	store := loadedStore(t, remote, notifier)

	if err := store.UpdateEpisodes(context.Background(), 1, 7); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	store.Wait()

	if got := store.Movies()[0].EpisodesWatched; got != 3 {
		t.Fatalf("expected rollback to last confirmed value 3, got %d", got)
	}
	if remote.patchCalls != episodePatchAttempts {
		t.Fatalf("expected %d attempts, got %d", episodePatchAttempts, remote.patchCalls)
	}
	if notifier.count() != 1 {
		t.Fatalf("expected one user notification, got %d", notifier.count())
	}
}

func TestUpdateEpisodesStaleCompletionIgnored(t *testing.T) {
	remote := &fakeRemote{movies: twoMovieCatalog(), failPatch: true, patchRelease: make(chan struct{})}
	store := loadedStore(t, remote, nil)

	// First write will fail once released, but by then a newer local write
	// owns the counter: the failed completion must not roll it back.
	if err := store.UpdateEpisodes(context.Background(), 1, 4); err != nil {
		t.Fatalf("first update failed: %v", err)
	}

	remote.mu.Lock()
	remote.failPatch = false
	remote.mu.Unlock()

	if err := store.UpdateEpisodes(context.Background(), 1, 9); err != nil {
		t.Fatalf("second update failed: %v", err)
	}

	close(remote.patchRelease)
	store.Wait()

	if got := store.Movies()[0].EpisodesWatched; got != 9 {
		t.Fatalf("stale completion clobbered newer write: got %d, want 9", got)
	}
}

func TestDeleteRollback(t *testing.T) {
	remote := &fakeRemote{movies: twoMovieCatalog(), failDelete: true}
	notifier := &recordingNotifier{}
	store := loadedStore(t, remote, notifier)

	if err := store.Delete(context.Background(), 2); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	store.Wait()

	movies := store.Movies()
	if len(movies) != 2 {
		t.Fatalf("expected catalog restored to two movies, got %d", len(movies))
	}
	if movies[0].ID != 1 || movies[1].ID != 2 {
		t.Fatalf("expected original order restored, got %+v", movies)
	}
	if notifier.count() != 1 {
		t.Fatalf("expected one user notification, got %d", notifier.count())
	}
}

func TestDeleteOptimisticRemoval(t *testing.T) {
	remote := &fakeRemote{movies: twoMovieCatalog()}
	store := loadedStore(t, remote, nil)

	if err := store.Delete(context.Background(), 1); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	// Removed locally before the background delete reconciles.
	movies := store.Movies()
	if len(movies) != 1 || movies[0].ID != 2 {
		t.Fatalf("expected optimistic removal, got %+v", movies)
	}
	store.Wait()

	if got := len(store.Movies()); got != 1 {
		t.Fatalf("expected catalog to stay at one movie, got %d", got)
	}
}

func TestAppendReviewValidation(t *testing.T) {
	remote := &fakeRemote{movies: twoMovieCatalog()}
	store := loadedStore(t, remote, nil)

	cases := []models.Review{
		{Rating: 0, Review: "text"},
		{Rating: 6, Review: "text"},
		{Rating: 3, Review: "  "},
	}
	for _, review := range cases {
		if err := store.AppendReview(context.Background(), 1, review); !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation for %+v, got %v", review, err)
		}
	}
	if remote.reviewCalls != 0 {
		t.Fatal("invalid reviews must not reach the network")
	}
}

func TestAppendReviewOnlyAfterConfirmation(t *testing.T) {
	remote := &fakeRemote{movies: twoMovieCatalog(), failReview: true}
	notifier := &recordingNotifier{}
	store := loadedStore(t, remote, notifier)

	err := store.AppendReview(context.Background(), 1, models.Review{Rating: 4, Review: "Nice"})
	if err == nil {
		t.Fatal("expected review submit error")
	}
	if got := store.Movies()[0].Reviews(); len(got) != 0 {
		t.Fatalf("failed submit must not touch local reviews, got %+v", got)
	}
	if notifier.count() != 1 {
		t.Fatalf("expected one user notification, got %d", notifier.count())
	}

	remote.failReview = false
	if err := store.AppendReview(context.Background(), 1, models.Review{Rating: 4, Review: "Nice"}); err != nil {
		t.Fatalf("review submit failed: %v", err)
	}

	reviews := store.Movies()[0].Reviews()
	if len(reviews) != 1 || reviews[0].Review != "Nice" {
		t.Fatalf("expected confirmed review appended, got %+v", reviews)
	}
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	remote := &fakeRemote{}
	store := NewStore(remote, nil)

	var (
		mu        sync.Mutex
		snapshots [][]models.Movie
	)
	store.Subscribe(func(movies []models.Movie) {
		mu.Lock()
		defer mu.Unlock()
		snapshots = append(snapshots, movies)
	})

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if _, err := store.Create(context.Background(), models.MovieDraft{
		Title: "T", Director: "D", Genre: "Drama", Platform: "Prime",
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	store.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(snapshots) != 2 {
		t.Fatalf("expected snapshots for load and create, got %d", len(snapshots))
	}
	if len(snapshots[1]) != 1 {
		t.Fatalf("expected one movie in final snapshot, got %d", len(snapshots[1]))
	}
}
