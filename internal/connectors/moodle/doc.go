// Package moodle implements the course web service port against the Moodle
// REST API (webservice/rest/server.php).
//
// # Architecture
//
//   - Client: issues web service calls with rate limiting and retries
//   - RateLimiter: proactive token bucket plus Retry-After handling
//   - Download: fetches pluginfile URLs with the token and session cookie
//
// # Authentication
//
// Calls carry the mobile web service token as the wstoken query parameter.
// File downloads append it as token and forward the session cookie, since
// some files are only served to a logged-in browser session.
//
// # Errors
//
// Moodle reports failures as JSON objects with an errorcode field, usually
// with HTTP status 200. These are returned as *APIError; non-2xx statuses
// are returned as *HTTPError.
package moodle
