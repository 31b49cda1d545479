package moodle

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
)

// Download streams the file at fileURL into w and returns its media type.
// A JSON body carrying a web service error is returned as *APIError and
// nothing is written.
func (c *Client) Download(ctx context.Context, fileURL string, w io.Writer) (string, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("parse download url: %w", err)
	}
	q := u.Query()
	q.Set("token", c.token)
	u.RawQuery = q.Encode()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if err := c.rateLimiter.CheckRateLimit(resp); err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &HTTPError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode), URL: redact(u.String())}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		return "", &ResponseError{Message: "missing content type header", URL: redact(u.String())}
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", &ResponseError{Message: "malformed content type header", URL: redact(u.String()), Err: err}
	}

	var body io.Reader = resp.Body
	if mediaType == "application/json" {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("read body: %w", err)
		}
		if apiErr := parseAPIError(data); apiErr != nil {
			return "", apiErr
		}
		body = bytes.NewReader(data)
	}

	if _, err := io.Copy(w, body); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return mediaType, nil
}
