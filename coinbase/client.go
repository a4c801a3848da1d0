package coinbase

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the production Advanced Trade REST endpoint.
	DefaultBaseURL = "https://api.coinbase.com/api/v3"

	// DefaultPaginationTimeout bounds auto-pagination helpers when the
	// caller's context has no deadline.
	DefaultPaginationTimeout = 10 * time.Minute

	// maxPageSize is the largest page the API accepts on list endpoints.
	maxPageSize = 250
)

// Client provides access to the Coinbase Advanced Trade REST API.
type Client struct {
	baseURL    string
	tokens     oauth2.TokenSource
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new REST API client. The token source supplies the
// bearer token for each request and is responsible for keeping it fresh;
// a nil source sends unauthenticated requests (public market data only).
func NewClient(tokens oauth2.TokenSource, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:       slog.Default(),
		maxRetries:   3,
		retryBackoff: time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithBaseURL overrides the API base URL (e.g. for a sandbox or test server).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithToken authenticates every request with a fixed access token.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}
