package radarr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"collectsync/internal/services"
)

const (
	apiKeyHeader   = "X-Api-Key"
	maxErrorBody   = 2048
	defaultTimeout = 30 * time.Second
)

// CollectionMovie is a member of a Radarr collection. Members need not be in
// the Radarr library.
type CollectionMovie struct {
	TMDBID int    `json:"tmdbId"`
	Title  string `json:"title"`
}

// Collection is a Radarr (TMDB) movie collection.
type Collection struct {
	ID     int               `json:"id"`
	Title  string            `json:"title"`
	TMDBID int               `json:"tmdbId"`
	Movies []CollectionMovie `json:"movies"`
}

// MovieFile is the downloaded file attached to a Radarr movie.
type MovieFile struct {
	Path string `json:"path"`
}

// Movie is a movie in the Radarr library.
type Movie struct {
	ID        int        `json:"id"`
	TMDBID    int        `json:"tmdbId"`
	Title     string     `json:"title"`
	Year      int        `json:"year"`
	HasFile   bool       `json:"hasFile"`
	MovieFile *MovieFile `json:"movieFile,omitempty"`
}

// FilePath returns the downloaded file path, or "" when the movie has none.
func (m Movie) FilePath() string {
	if m.MovieFile == nil {
		return ""
	}
	return strings.TrimSpace(m.MovieFile.Path)
}

// SystemStatus is the subset of /system/status used by preflight checks.
type SystemStatus struct {
	AppName string `json:"appName"`
	Version string `json:"version"`
}

// Catalog defines the Radarr reads used during a sync.
type Catalog interface {
	Collections(ctx context.Context) ([]Collection, error)
	Movies(ctx context.Context) ([]Movie, error)
}

// Client talks to the Radarr v3 API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ Catalog = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// New creates a Radarr client.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "radarr", "init", "base url required", nil)
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "radarr", "init", "api key required", nil)
	}
	client := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Collections lists every collection known to Radarr with its members.
func (c *Client) Collections(ctx context.Context) ([]Collection, error) {
	var out []Collection
	if err := c.getJSON(ctx, "list collections", "/api/v3/collection", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Movies lists every movie in the Radarr library.
func (c *Client) Movies(ctx context.Context) ([]Movie, error) {
	var out []Movie
	if err := c.getJSON(ctx, "list movies", "/api/v3/movie", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MovieByTMDBID returns the library movie for a TMDB id.
func (c *Client) MovieByTMDBID(ctx context.Context, tmdbID int) (*Movie, error) {
	params := url.Values{}
	params.Set("tmdbId", fmt.Sprint(tmdbID))
	var out []Movie
	if err := c.getJSON(ctx, "lookup movie", "/api/v3/movie", params, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "radarr", "lookup movie", fmt.Sprintf("tmdb id %d", tmdbID), nil)
	}
	return &out[0], nil
}

// SystemStatus verifies connectivity and credentials.
func (c *Client) SystemStatus(ctx context.Context) (*SystemStatus, error) {
	var out SystemStatus
	if err := c.getJSON(ctx, "system status", "/api/v3/system/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, operation, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return services.Wrap(services.ErrTransport, "radarr", operation, "build request", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return services.Wrap(services.ErrTransport, "radarr", operation, fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return statusError(operation, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrParse, "radarr", operation, "decode response", err)
	}
	return nil
}

// ErrUnauthorized indicates Radarr rejected the API key.
var ErrUnauthorized = errors.New("radarr rejected api key")

func statusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := fmt.Sprintf("status %d", resp.StatusCode)
	if text := strings.TrimSpace(string(body)); text != "" {
		detail += ": " + text
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, "radarr", operation, detail, ErrUnauthorized)
	case http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "radarr", operation, detail, nil)
	default:
		return services.Wrap(services.ErrTransport, "radarr", operation, detail, nil)
	}
}
