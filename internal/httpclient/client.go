package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teranos/epicdash/errors"
	"github.com/teranos/epicdash/version"
)

// DefaultMaxBodyBytes caps response bodies read by GetJSON/PostJSON. The
// largest ECU payload is the variable catalog.
const DefaultMaxBodyBytes = 4 << 20

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return e.Method + " " + e.URL + ": HTTP " + http.StatusText(e.Code) + ": " + e.Body
	}
	return e.Method + " " + e.URL + ": HTTP " + http.StatusText(e.Code)
}

// Client is an HTTP client pinned to one base URL. Requests and redirects
// that leave the base host are refused.
type Client struct {
	*http.Client
	base         *url.URL
	userAgent    string
	maxRedirects int
	maxBodyBytes int64
}

// Options customizes a Client
type Options struct {
	MaxRedirects *int  // Default: 3
	MaxBodyBytes int64 // Default: DefaultMaxBodyBytes
	Transport    http.RoundTripper
}

// New creates a Client for baseURL with the given per-request timeout
func New(baseURL string, timeout time.Duration) (*Client, error) {
	return NewWithOptions(baseURL, timeout, Options{})
}

// NewWithOptions creates a Client with custom limits
func NewWithOptions(baseURL string, timeout time.Duration, opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid base URL")
	}
	scheme := strings.ToLower(base.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, errors.Newf("scheme %q not allowed (allowed: [http https])", base.Scheme)
	}
	if base.Hostname() == "" {
		return nil, errors.New("base URL missing hostname")
	}
	if base.User != nil {
		return nil, errors.New("base URL must not carry credentials")
	}

	c := &Client{
		Client:       &http.Client{Timeout: timeout, Transport: opts.Transport},
		base:         base,
		userAgent:    version.Get().UserAgent(),
		maxRedirects: 3,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	if opts.MaxRedirects != nil {
		c.maxRedirects = *opts.MaxRedirects
	}
	if opts.MaxBodyBytes > 0 {
		c.maxBodyBytes = opts.MaxBodyBytes
	}

	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= c.maxRedirects {
			return errors.Newf("stopped after %d redirects", c.maxRedirects)
		}
		if err := c.checkHost(req.URL); err != nil {
			return errors.Wrap(err, "redirect blocked")
		}
		return nil
	}
	return c, nil
}

// BaseURL returns the base URL the client is pinned to
func (c *Client) BaseURL() string {
	return c.base.String()
}

// URL resolves path against the base URL
func (c *Client) URL(path string) string {
	return c.base.String() + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) checkHost(u *url.URL) error {
	if !strings.EqualFold(u.Host, c.base.Host) {
		return errors.Newf("host %q is not %q", u.Host, c.base.Host)
	}
	return nil
}

// Do executes a request after checking it targets the base host
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if err := c.checkHost(req.URL); err != nil {
		return nil, errors.Wrap(err, "request blocked")
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.Client.Do(req)
}

// GetJSON fetches path and decodes the JSON body into out
func (c *Client) GetJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(path), nil)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	return c.doJSON(req, out)
}

// PostJSON encodes body as JSON, posts it to path and decodes the reply
// into out when out is non-nil
func (c *Client) PostJSON(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "failed to encode request body")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(path), bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.doJSON(req, out)
}

// GetBytes fetches path and returns the raw body
func (c *Client) GetBytes(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(path), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return c.readBody(req, resp)
}

func (c *Client) doJSON(req *http.Request, out interface{}) error {
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := c.readBody(req, resp)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "failed to decode %s", req.URL.Path)
	}
	return nil
}

func (c *Client) readBody(req *http.Request, resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}
	if int64(len(data)) > c.maxBodyBytes {
		return nil, errors.Newf("response from %s exceeds %d bytes", req.URL.Path, c.maxBodyBytes)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := strings.TrimSpace(string(data))
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &StatusError{Method: req.Method, URL: req.URL.String(), Code: resp.StatusCode, Body: snippet}
	}
	return data, nil
}
