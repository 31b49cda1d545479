package moodle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Schneison/unima/internal/core/domain"
	"github.com/Schneison/unima/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxRetries is the maximum number of retries for transient errors.
	MaxRetries = 3

	// RetryDelay is the initial delay between retries.
	RetryDelay = time.Second

	// WebServicePath is the REST endpoint below the site URL.
	WebServicePath = "/webservice/rest/server.php"

	// CoursePath is the course page below the site URL.
	CoursePath = "/course/view.php"
)

// Config configures a Client.
type Config struct {
	// URL is the site base URL. Defaults to domain.DefaultMoodleURL.
	URL string

	// Token is the web service token.
	Token string

	// Cookie is sent with file downloads.
	Cookie string

	// HTTPClient overrides the default client.
	HTTPClient *http.Client

	// RateLimiter overrides the default limiter.
	RateLimiter *RateLimiter

	// RetryDelay overrides the initial delay between retries.
	RetryDelay time.Duration
}

// Client talks to the Moodle web service.
type Client struct {
	http        *http.Client
	baseURL     string
	token       string
	cookie      string
	rateLimiter *RateLimiter
	retryDelay  time.Duration
}

// NewClient creates a client from cfg.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, domain.ErrMissingCredentials
	}
	base := cfg.URL
	if base == "" {
		base = domain.DefaultMoodleURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("%w: site url %q", domain.ErrInvalidInput, base)
	}

	c := &Client{
		http:        cfg.HTTPClient,
		baseURL:     strings.TrimRight(base, "/"),
		token:       cfg.Token,
		cookie:      cfg.Cookie,
		rateLimiter: cfg.RateLimiter,
		retryDelay:  cfg.RetryDelay,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: DefaultTimeout}
	}
	if c.rateLimiter == nil {
		c.rateLimiter = NewRateLimiter(DefaultRate, DefaultBurst)
	}
	if c.retryDelay <= 0 {
		c.retryDelay = RetryDelay
	}
	return c, nil
}

// BaseURL returns the site base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CourseURL returns the page of a course.
func (c *Client) CourseURL(courseID int64) string {
	return fmt.Sprintf("%s%s?id=%d", c.baseURL, CoursePath, courseID)
}

// Call invokes a web service function and decodes the JSON result into out.
// Transient failures are retried with exponential backoff.
func (c *Client) Call(ctx context.Context, function string, params url.Values, out any) error {
	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("moodlewsrestformat", "json")
	query.Set("wsfunction", function)
	query.Set("wstoken", c.token)
	endpoint := c.baseURL + WebServicePath + "?" + query.Encode()

	delay := c.retryDelay
	var err error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			logger.Debug("moodle: retrying %s (attempt %d): %v", function, attempt+1, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		err = c.call(ctx, endpoint, out)
		if err == nil || !isTransient(err) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("%s: %w", function, err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, endpoint string, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if err := c.rateLimiter.CheckRateLimit(resp); err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode), URL: redact(endpoint)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if apiErr := parseAPIError(body); apiErr != nil {
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ResponseError{Message: "decoding body", URL: redact(endpoint), Err: err}
	}
	return nil
}

// parseAPIError returns the error carried by an error-shaped body, or nil.
func parseAPIError(body []byte) *APIError {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var apiErr APIError
	if err := json.Unmarshal(trimmed, &apiErr); err != nil || apiErr.ErrorCode == "" {
		return nil
	}
	return &apiErr
}

// redact removes credentials from a URL before it is reported.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	for _, key := range []string{"wstoken", "token"} {
		if q.Has(key) {
			q.Set(key, "REDACTED")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Ping validates the token with a site info call.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.SiteInfo(ctx)
	return err
}
