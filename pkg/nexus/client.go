package nexus

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sacredwitness/prereq/pkg/errors"
	"github.com/sacredwitness/prereq/pkg/httputil"
)

const (
	defaultAPIRoot  = "https://api.nexusmods.com/v1"
	defaultSiteRoot = "https://www.nexusmods.com"
	httpTimeout     = 25 * time.Second
)

var (
	// ErrNotFound is returned when a mod, file, or page doesn't exist.
	ErrNotFound = stderrors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection
	// errors, 5xx responses).
	ErrNetwork = stderrors.New("network error")
)

// Client talks to one game's corner of the platform. It handles caching,
// retry logic, API authentication, and rate-limit mapping.
//
// All methods are safe for concurrent use by multiple goroutines, provided
// the underlying cache directory is not shared with conflicting writers.
type Client struct {
	http     *http.Client
	pages    *httputil.Cache
	api      *httputil.Cache
	game     string
	apiKey   string
	apiRoot  string
	siteRoot string
}

// Option configures a Client.
type Option func(*Client)

// WithAPIRoot overrides the JSON API base URL. Used in tests.
func WithAPIRoot(root string) Option {
	return func(c *Client) { c.apiRoot = root }
}

// WithSiteRoot overrides the HTML site base URL. Used in tests.
func WithSiteRoot(root string) Option {
	return func(c *Client) { c.siteRoot = root }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a Client for the given game slug. The apiKey
// authenticates JSON API calls; page fetches need no key. Cache keys are
// namespaced per surface so page markup and API payloads never collide.
func NewClient(game, apiKey string, cache *httputil.Cache, opts ...Option) (*Client, error) {
	if err := errors.ValidateGameSlug(game); err != nil {
		return nil, err
	}
	c := &Client{
		http:     &http.Client{Timeout: httpTimeout},
		pages:    cache.Namespace("page:"),
		api:      cache.Namespace("api:"),
		game:     game,
		apiKey:   apiKey,
		apiRoot:  defaultAPIRoot,
		siteRoot: defaultSiteRoot,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Game returns the game slug the client is scoped to.
func (c *Client) Game() string { return c.game }

// cached retrieves a value from cache or executes fetch and caches the
// result. If refresh is true, the cache is bypassed and fetch always runs.
func (c *Client) cached(ctx context.Context, cache *httputil.Cache, key string, refresh bool, v any, fetch func() error) error {
	if !refresh {
		if ok, _ := cache.Get(key, v); ok {
			return nil
		}
	}
	if err := httputil.RetryWithBackoff(ctx, fetch); err != nil {
		return err
	}
	_ = cache.Set(key, v)
	return nil
}

// getJSON performs an authenticated API GET and decodes the response into v.
func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	body, err := c.doRequest(ctx, url, map[string]string{
		"apikey": c.apiKey,
		"Accept": "application/json",
	})
	if err != nil {
		return err
	}
	defer body.Close()
	return json.NewDecoder(body).Decode(v)
}

// getText performs an unauthenticated GET and returns the body as a string.
func (c *Client) getText(ctx context.Context, url string) (string, error) {
	body, err := c.doRequest(ctx, url, nil)
	if err != nil {
		return "", err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	return string(data), err
}

func (c *Client) doRequest(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "prereq")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}

	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(resp *http.Response) error {
	switch code := resp.StatusCode; {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return &errors.RateLimitedError{
			RetryAfter: retryAfter,
			Message:    "api request budget exhausted",
		}
	case code >= 500:
		return &httputil.RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
