// Package transport is the HTTP layer of the REST platform gateways.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/agentstation/teamsync/pkg/constants"
	"github.com/agentstation/teamsync/pkg/errors"
	"github.com/agentstation/teamsync/pkg/logging"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// Client performs authenticated JSON requests against one API base URL.
type Client struct {
	http     *http.Client
	auth     Authenticator
	token    string
	baseURL  string
	platform string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithAuth sets the authenticator and token.
func WithAuth(auth Authenticator, token string) Option {
	return func(c *Client) {
		c.auth = auth
		c.token = token
	}
}

// New creates a client for the API rooted at baseURL. platform names the
// service in errors.
func New(platform, baseURL string, opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{Timeout: DefaultHTTPTimeout},
		auth:     &NoAuth{},
		baseURL:  strings.TrimRight(baseURL, "/"),
		platform: platform,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Platform returns the platform name used in errors.
func (c *Client) Platform() string {
	return c.platform
}

// URL resolves an API path with optional query parameters. Absolute URLs, as
// found in Link headers, are returned unchanged.
func (c *Client) URL(path string, query url.Values) string {
	u := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		u = c.baseURL + "/" + strings.TrimLeft(path, "/")
	}
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + query.Encode()
	}
	return u
}

// Do performs a request with authentication applied. A non-nil body is sent
// as JSON. The caller owns the response body.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.WrapParse("json", "request body", err)
		}
		reader = bytes.NewReader(data)
	}

	target := c.URL(path, query)
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, errors.WrapResource("create", "request", method+" "+target, err)
	}

	if c.token != "" {
		c.auth.Apply(req, c.token)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logging.FromContext(ctx).Debug().Str("method", method).Str("url", target).Msg("api request")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &errors.APIError{
			Platform: c.platform,
			Endpoint: method + " " + req.URL.Path,
			Message:  "request failed",
			Err:      errors.Join(errors.ErrPlatformUnavailable, err),
		}
	}
	return resp, nil
}

// Get performs a GET request and decodes the JSON response into target.
func (c *Client) Get(ctx context.Context, path string, query url.Values, target any) (*http.Response, error) {
	resp, err := c.Do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	return resp, c.DecodeResponse(resp, target)
}

// Send performs a mutating request and decodes the response into target when
// target is non-nil.
func (c *Client) Send(ctx context.Context, method, path string, body, target any) error {
	resp, err := c.Do(ctx, method, path, nil, body)
	if err != nil {
		return err
	}
	return c.DecodeResponse(resp, target)
}
