package client

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL points the client at another API host.
func WithBaseURL(raw string) Option {
	return func(c *Client) error {
		u, err := parseBaseURL(raw)
		if err != nil {
			return err
		}
		c.baseURL = u
		return nil
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("http client is nil")
		}
		c.httpClient = hc
		return nil
	}
}

// WithTimeout sets a timeout applied uniformly to every call. The client
// imposes none by default. It is applied to the client's own copy of the
// http.Client, so a client passed to WithHTTPClient is never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d < 0 {
			return fmt.Errorf("timeout must not be negative, got %s", d)
		}
		c.timeout = d
		c.timeoutSet = true
		return nil
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		c.userAgent = ua
		return nil
	}
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) error {
		c.headers.Add(key, value)
		return nil
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// WithProgressReporter receives upload and download progress.
func WithProgressReporter(pr ProgressReporter) Option {
	return func(c *Client) error {
		c.progress = pr
		return nil
	}
}

// WithFilesystem injects the filesystem used by path-based operations.
// A nil fs has the same effect as WithoutFilesystem.
func WithFilesystem(fs Filesystem) Option {
	return func(c *Client) error {
		c.fs = fs
		c.fsExplicit = true
		return nil
	}
}

// WithoutFilesystem builds a client for environments with no local disk.
// Path-based operations and the Buffer/Stream result representations then
// fail with ErrUnsupportedOperation.
func WithoutFilesystem() Option {
	return WithFilesystem(nil)
}

// New creates a client with an empty session. Filesystem capability is
// decided here once and cached for the client's lifetime.
func New(opts ...Option) (*Client, error) {
	base, err := parseBaseURL(DefaultBaseURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:    base,
		headers:    make(http.Header),
		userAgent:  DefaultUserAgent,
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to configure client: %w", err)
		}
	}

	if c.timeoutSet {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}

	if !c.fsExplicit {
		c.fs = OSFilesystem{}
	}
	c.fsCapable = c.fs != nil

	return c, nil
}

// BaseURL returns the API base URL in use.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// HasFilesystem reports whether filesystem-only operations are available.
func (c *Client) HasFilesystem() bool {
	return c.fsCapable
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", raw, err)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
