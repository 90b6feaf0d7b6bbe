// Package jellyseerr implements the client for the Jellyseerr request API.
package jellyseerr

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

	"seerr_bot/internal/model"
)

const apiPath = "/api/v1"

// Call timeouts. Detail lookups are advisory and get a shorter budget.
const (
	requestTimeout = 10 * time.Second
	detailTimeout  = 8 * time.Second
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// AuthError indicates the API key was rejected. Never retryable.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// ConnError indicates a transport failure or timeout. Retryable on the
// next scheduled cycle.
type ConnError struct {
	Err error
}

func (e *ConnError) Error() string { return "connection error: " + e.Err.Error() }
func (e *ConnError) Unwrap() error { return e.Err }

// APIError indicates an unexpected non-200 response. Retryable.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("api returned %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("api returned %d", e.StatusCode)
}

// ActionResult is the outcome of an approve or deny call. HTTP and
// transport failures are reported here, not raised, so batch callers
// can keep going after one failure.
type ActionResult struct {
	Success bool
	Error   string
}

// Client talks to a Jellyseerr (or Overseerr-compatible) server.
type Client struct {
	http       HTTPClient
	baseURL    string
	apiKey     string
	serverInfo *ServerInfo
}

// ServerInfo is the subset of /settings/public this client cares about.
type ServerInfo struct {
	Version         string `json:"version"`
	ApplicationName string `json:"applicationTitle"`
}

// New creates a Client for the given server coordinates.
func New(httpClient HTTPClient, host string, port int, ssl bool, apiKey string) *Client {
	return &Client{
		http:    httpClient,
		baseURL: BaseURL(host, port, ssl),
		apiKey:  apiKey,
	}
}

// BaseURL builds the canonical API base address. A host that already
// carries a scheme is used verbatim (reverse proxy setups); otherwise
// the scheme's conventional default port is elided so equivalent
// configurations produce identical URLs.
func BaseURL(host string, port int, ssl bool) string {
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host + apiPath
	}
	scheme := "http"
	defaultPort := 80
	if ssl {
		scheme = "https"
		defaultPort = 443
	}
	if port == defaultPort {
		return scheme + "://" + host + apiPath
	}
	return fmt.Sprintf("%s://%s:%d%s", scheme, host, port, apiPath)
}

// BaseURL returns the normalized API base address of this client.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListRequests fetches up to take requests, most recently added first.
// A non-nil status restricts the list server-side.
func (c *Client) ListRequests(ctx context.Context, take int, status *model.Status) (*RequestPage, error) {
	url := fmt.Sprintf("%s/request?take=%d&sort=added", c.baseURL, take)
	if status != nil {
		url += "&status=" + strconv.Itoa(int(*status))
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, &ConnError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &AuthError{Message: "invalid API key"}
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var page requestPageJSON
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: "malformed response: " + err.Error()}
	}
	return page.toDomain(), nil
}

// GetDetails fetches movie or TV metadata from the server's TMDB proxy.
// Any failure returns (nil, nil): detail lookups must never abort a
// refresh cycle.
func (c *Client) GetDetails(ctx context.Context, tmdbID int64, mediaType model.MediaType) (*Details, error) {
	sub := "movie"
	if mediaType == model.MediaTV {
		sub = "tv"
	}
	url := fmt.Sprintf("%s/%s/%d", c.baseURL, sub, tmdbID)

	ctx, cancel := context.WithTimeout(ctx, detailTimeout)
	defer cancel()

	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var d Details
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return nil, nil
	}
	return &d, nil
}

// Approve approves a pending request.
func (c *Client) Approve(ctx context.Context, requestID int64) ActionResult {
	url := fmt.Sprintf("%s/request/%d/approve", c.baseURL, requestID)
	return c.postAction(ctx, url, nil)
}

// Deny declines a pending request with the given reason.
func (c *Client) Deny(ctx context.Context, requestID int64, reason string) ActionResult {
	url := fmt.Sprintf("%s/request/%d/decline", c.baseURL, requestID)
	return c.postAction(ctx, url, map[string]string{"reason": reason})
}

// TestConnection checks reachability via /settings/public and caches
// the reported server metadata on success. A 401 is raised as an
// AuthError so setup can tell bad credentials from an unreachable host.
func (c *Client) TestConnection(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := c.get(ctx, c.baseURL+"/settings/public")
	if err != nil {
		return false, &ConnError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		var info ServerInfo
		if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
			return false, &ConnError{Err: err}
		}
		c.serverInfo = &info
		return true, nil
	case http.StatusUnauthorized:
		return false, &AuthError{Message: "invalid API key"}
	}
	return false, nil
}

// ServerInfo returns the cached server metadata, probing the server
// first if no probe has succeeded yet.
func (c *Client) ServerInfo(ctx context.Context) (*ServerInfo, error) {
	if c.serverInfo != nil {
		return c.serverInfo, nil
	}
	if _, err := c.TestConnection(ctx); err != nil {
		return nil, err
	}
	return c.serverInfo, nil
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	return c.http.Do(req)
}

func (c *Client) postAction(ctx context.Context, url string, payload any) ActionResult {
	body := []byte("{}")
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return ActionResult{Error: err.Error()}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return ActionResult{Error: err.Error()}
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return ActionResult{Error: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusOK {
		return ActionResult{Success: true}
	}

	var serverErr struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&serverErr); err == nil && serverErr.Message != "" {
		return ActionResult{Error: serverErr.Message}
	}
	return ActionResult{Error: fmt.Sprintf("api returned %d", resp.StatusCode)}
}
