// Package storeapi looks up app metadata from the Steam store's public
// appdetails endpoint.
package storeapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/jamesainslie/depotscan/pkg/depotscan/logging"
	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

var logger = logging.Get("store")

// ErrAppNotFound is returned when the store does not know an app.
var ErrAppNotFound = errors.New("app not found in store")

// Defaults.
const (
	DefaultBaseURL    = "https://store.steampowered.com"
	DefaultTimeout    = 10 * time.Second
	DefaultRate       = 2.0
	DefaultAttempts   = 3
	DefaultRetryDelay = 250 * time.Millisecond

	// DefaultName is used when an app has no name.
	DefaultName = "Unknown Game"

	// DefaultType is used when an app has no type.
	DefaultType = "game"
)

// Cache is the optional metadata cache consulted before the network.
type Cache interface {
	Lookup(appID string) (types.AppInfo, bool, error)
	Store(info types.AppInfo) error
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration

	// Rate is the request rate in requests per second. Zero means
	// DefaultRate; negative disables limiting.
	Rate float64

	Attempts   uint
	RetryDelay time.Duration

	HTTPClient *http.Client
	Cache      Cache
}

// Client fetches app metadata.
type Client struct {
	base     string
	http     *http.Client
	limiter  *rate.Limiter
	attempts uint
	delay    time.Duration
	cache    Cache
	now      func() time.Time
}

// New creates a client, filling unset options with defaults.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Rate == 0 {
		opts.Rate = DefaultRate
	}
	if opts.Attempts == 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}

	return &Client{
		base:     strings.TrimRight(opts.BaseURL, "/"),
		http:     opts.HTTPClient,
		limiter:  rate.NewLimiter(limit, 1),
		attempts: opts.Attempts,
		delay:    opts.RetryDelay,
		cache:    opts.Cache,
		now:      time.Now,
	}
}

// statusError is a non-2xx response.
type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s: status %d %s", e.url, e.code, http.StatusText(e.code))
}

// transient reports whether a failed request is worth repeating.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return !errors.Is(err, ErrAppNotFound) && !errors.Is(err, types.ErrParse)
}

// AppDetails returns metadata for appID, from the cache when possible.
func (c *Client) AppDetails(ctx context.Context, appID string) (types.AppInfo, error) {
	if !types.ValidAppID(appID) {
		return types.AppInfo{}, fmt.Errorf("%w: app id %q is not numeric", types.ErrInvalidInput, appID)
	}

	if c.cache != nil {
		info, ok, err := c.cache.Lookup(appID)
		if err != nil {
			logger.Warn("cache lookup failed", "app", appID, "error", err)
		} else if ok {
			logger.Debug("store metadata from cache", "app", appID)
			return info, nil
		}
	}

	var body []byte
	err := retry.Do(
		func() error {
			b, err := c.fetch(ctx, appID)
			if err != nil {
				return err
			}
			body = b
			return nil
		},
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.MaxDelay(5*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(transient),
		retry.OnRetry(func(n uint, err error) {
			logger.Debug("retrying store lookup", "app", appID, "attempt", n+1, "error", err)
		}),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err != nil {
		return types.AppInfo{}, fmt.Errorf("looking up app %s: %w", appID, err)
	}

	info, err := DecodeAppDetails(appID, body)
	if err != nil {
		return types.AppInfo{}, err
	}
	info.FetchedAt = c.now()

	if c.cache != nil {
		if err := c.cache.Store(info); err != nil {
			logger.Warn("cache store failed", "app", appID, "error", err)
		}
	}
	logger.Info("store metadata fetched", "app", appID, "name", info.Name)
	return info, nil
}

// Name returns the app's store name, or fallback when the lookup fails.
func (c *Client) Name(ctx context.Context, appID, fallback string) string {
	info, err := c.AppDetails(ctx, appID)
	if err != nil {
		logger.Debug("store name unavailable", "app", appID, "error", err)
		return fallback
	}
	return info.Name
}

func (c *Client) fetch(ctx context.Context, appID string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := c.base + "/api/appdetails?appids=" + url.QueryEscape(appID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &statusError{code: resp.StatusCode, url: u}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", u, err)
	}
	return body, nil
}

// DecodeAppDetails extracts metadata from an appdetails response, which is
// keyed by the requested app ID.
func DecodeAppDetails(appID string, body []byte) (types.AppInfo, error) {
	if !gjson.ValidBytes(body) {
		return types.AppInfo{}, fmt.Errorf("%w: appdetails response for %s is not valid JSON", types.ErrParse, appID)
	}

	entry := gjson.GetBytes(body, appID)
	if !entry.Exists() || !entry.Get("success").Bool() {
		return types.AppInfo{}, fmt.Errorf("%w: %s", ErrAppNotFound, appID)
	}

	data := entry.Get("data")
	info := types.AppInfo{
		AppID:       appID,
		Name:        data.Get("name").String(),
		Type:        data.Get("type").String(),
		HeaderImage: data.Get("header_image").String(),
	}
	if info.Name == "" {
		info.Name = DefaultName
	}
	if info.Type == "" {
		info.Type = DefaultType
	}
	return info, nil
}
