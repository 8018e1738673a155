package plex

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"collectsync/internal/services"
)

const (
	productName    = "collectsync"
	productVersion = "1.0.0"
	userAgent      = "collectsync-go/1.0.0"
	maxErrorBody   = 2048
	defaultTimeout = 30 * time.Second
)

// ErrUnauthorized indicates Plex rejected the token.
var ErrUnauthorized = errors.New("plex rejected token")

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks to a Plex Media Server using its XML API.
type Client struct {
	baseURL          string
	token            string
	clientIdentifier string
	httpClient       HTTPDoer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
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

// WithClientIdentifier sets X-Plex-Client-Identifier. A random identifier is
// generated when none is configured.
func WithClientIdentifier(id string) Option {
	return func(c *Client) {
		if id = strings.TrimSpace(id); id != "" {
			c.clientIdentifier = id
		}
	}
}

// New creates a Plex client.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "plex", "init", "base url required", nil)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, services.Wrap(services.ErrConfiguration, "plex", "init", "token required", nil)
	}
	client := &Client{
		baseURL:          baseURL,
		token:            token,
		clientIdentifier: strings.ReplaceAll(uuid.New().String(), "-", ""),
		httpClient:       &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ClientIdentifier returns the identifier sent with every request.
func (c *Client) ClientIdentifier() string {
	return c.clientIdentifier
}

func (c *Client) do(ctx context.Context, method, operation, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return services.Wrap(services.ErrTransport, "plex", operation, "build request", err)
	}
	req.Header.Set("Accept", "application/xml")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Plex-Token", c.token)
	applyStandardHeaders(req, c.clientIdentifier)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return services.Wrap(services.ErrTransport, "plex", operation, fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		detail := fmt.Sprintf("%s %s returned %d", method, path, resp.StatusCode)
		if text := strings.TrimSpace(string(body)); text != "" {
			detail += ": " + text
		}
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return services.Wrap(services.ErrConfiguration, "plex", operation, detail, ErrUnauthorized)
		case http.StatusNotFound:
			return services.Wrap(services.ErrNotFound, "plex", operation, detail, nil)
		default:
			return services.Wrap(services.ErrTransport, "plex", operation, detail, nil)
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := xml.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrParse, "plex", operation, "decode response", err)
	}
	return nil
}

func applyStandardHeaders(req *http.Request, clientIdentifier string) {
	req.Header.Set("X-Plex-Client-Identifier", clientIdentifier)
	req.Header.Set("X-Plex-Product", productName)
	req.Header.Set("X-Plex-Version", productVersion)
	req.Header.Set("X-Plex-Device-Name", productName)
	req.Header.Set("X-Plex-Platform", runtime.GOOS)
}
