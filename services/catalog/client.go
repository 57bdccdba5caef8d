package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cinetrack/models"
)

// Client is the HTTP implementation of Remote, talking to the persistence
// service's /movies API.
type Client struct {
	baseURL string
	httpc   *http.Client
}

var _ Remote = (*Client)(nil)

// NewClient creates a client for the persistence service at baseURL.
func NewClient(baseURL string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpc: httpc}
}

// FetchAll reads the full catalog.
func (c *Client) FetchAll(ctx context.Context) ([]models.Movie, error) {
	var movies []models.Movie
	if err := c.do(ctx, http.MethodGet, "/movies", nil, &movies); err != nil {
		return nil, err
	}
	if movies == nil {
		movies = []models.Movie{}
	}
	return movies, nil
}

// Create submits a draft movie and returns the server-assigned id.
func (c *Client) Create(ctx context.Context, movie models.Movie) (int64, error) {
	var created struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/movies", movie, &created); err != nil {
		return 0, err
	}
	if created.ID == 0 {
		return 0, fmt.Errorf("create movie: server returned no id")
	}
	return created.ID, nil
}

// UpdateEpisodes patches the watched-episode count of one movie.
func (c *Client) UpdateEpisodes(ctx context.Context, id int64, count int) error {
	body := map[string]int{"episodesWatched": count}
	return c.do(ctx, http.MethodPatch, "/movies/"+strconv.FormatInt(id, 10), body, nil)
}

// Delete removes one movie.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/movies/"+strconv.FormatInt(id, 10), nil, nil)
}

// AddReview appends one review to a movie's stored review list.
func (c *Client) AddReview(ctx context.Context, id int64, review models.Review) error {
	return c.do(ctx, http.MethodPost, "/movies/"+strconv.FormatInt(id, 10)+"/review", review, nil)
}

// Recommend fetches recommendation summaries for one movie.
func (c *Client) Recommend(ctx context.Context, id int64) ([]models.MovieSummary, error) {
	var summaries []models.MovieSummary
	if err := c.do(ctx, http.MethodGet, "/movies/"+strconv.FormatInt(id, 10)+"/recommend", nil, &summaries); err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []models.MovieSummary{}
	}
	return summaries, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
