// Package oauth obtains Coinbase OAuth2 tokens for the REST client.
//
// The authorization-code flow is interactive: AuthorizeOnce prints a URL,
// the user grants access in a browser, and Coinbase redirects back to a
// loopback listener with the authorization code. The resulting token source
// plugs straight into coinbase.NewClient and refreshes itself.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Endpoint is Coinbase's OAuth2 authorization and token endpoint.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://www.coinbase.com/oauth/authorize",
	TokenURL: "https://www.coinbase.com/oauth/token",
}

// DefaultRevokeURL invalidates tokens before their natural two-hour expiry.
const DefaultRevokeURL = "https://api.coinbase.com/oauth/revoke"

// Config drives the authorization-code flow for a registered OAuth2 app.
type Config struct {
	conf       *oauth2.Config
	revokeURL  string
	httpClient *http.Client
	logger     *slog.Logger
	promptURL  func(string)

	token *oauth2.Token
}

// Option configures a Config.
type Option func(*Config)

// NewConfig creates an OAuth2 configuration for the app identified by
// clientID and clientSecret. redirectURL must match the app registration
// and point at an address this process can listen on, e.g.
// "http://localhost:3001". Every scope must be a known Coinbase scope.
func NewConfig(clientID, clientSecret, redirectURL string, scopes []string, opts ...Option) (*Config, error) {
	for _, s := range scopes {
		if !IsValidScope(s) {
			return nil, fmt.Errorf("unknown scope %q", s)
		}
	}

	c := &Config{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       scopes,
			Endpoint:     Endpoint,
		},
		revokeURL:  DefaultRevokeURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
		promptURL: func(u string) {
			fmt.Printf("\nOpen this URL in your browser:\n%s\n\n", u)
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// WithEndpoint overrides the authorization and token endpoint.
func WithEndpoint(endpoint oauth2.Endpoint) Option {
	return func(c *Config) {
		c.conf.Endpoint = endpoint
	}
}

// WithRevokeURL overrides the token revocation endpoint.
func WithRevokeURL(u string) Option {
	return func(c *Config) {
		c.revokeURL = u
	}
}

// WithHTTPClient sets the HTTP client used for token and revoke requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithAuthURLPrompt replaces how the authorization URL is presented to the
// user, e.g. to open a browser directly instead of printing.
func WithAuthURLPrompt(prompt func(authURL string)) Option {
	return func(c *Config) {
		c.promptURL = prompt
	}
}

// AuthURL returns the URL the user must open to grant access, bound to the
// given anti-CSRF state.
func (c *Config) AuthURL(state string) string {
	return c.conf.AuthCodeURL(state)
}

// AuthorizeOnce runs one authorization-code exchange. It listens on the
// redirect URL's address, prints the authorization URL for the user to
// open, waits for the redirect carrying the code, verifies the state and
// exchanges the code for a token. The call blocks until the user completes
// the flow or ctx is done.
func (c *Config) AuthorizeOnce(ctx context.Context) (*oauth2.Token, error) {
	redirect, err := url.Parse(c.conf.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("parse redirect url: %w", err)
	}

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", redirect.Host, err)
	}
	defer listener.Close()

	state, err := randomState()
	if err != nil {
		return nil, err
	}

	c.logger.Info("waiting for authorization", "listen", redirect.Host)
	c.promptURL(c.AuthURL(state))

	type callback struct {
		code string
		err  error
	}
	results := make(chan callback, 1)

	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("state"); got != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			results <- callback{err: fmt.Errorf("state mismatch: got %q", got)}
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			results <- callback{err: fmt.Errorf("redirect carried no code")}
			return
		}
		io.WriteString(w, "Authorization received, you can close this tab.")
		results <- callback{code: code}
	})}

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			results <- callback{err: fmt.Errorf("serve redirect listener: %w", err)}
		}
	}()
	defer server.Close()

	var cb callback
	select {
	case cb = <-results:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if cb.err != nil {
		return nil, cb.err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := c.conf.Exchange(ctx, cb.code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	c.token = token
	c.logger.Info("authorization complete", "expires", token.Expiry)
	return token, nil
}

// TokenSource returns a self-refreshing source for the last obtained token.
// Call AuthorizeOnce first, or seed it with SetToken.
func (c *Config) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if c.token == nil {
		return nil, fmt.Errorf("no token obtained yet")
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return c.conf.TokenSource(ctx, c.token), nil
}

// SetToken seeds the configuration with a previously stored token.
func (c *Config) SetToken(token *oauth2.Token) {
	c.token = token
}

// Token returns the last obtained token, nil before authorization.
func (c *Config) Token() *oauth2.Token {
	return c.token
}

// Revoke invalidates the obtained token server-side. The refresh token is
// revoked when present, which also kills the access token.
func (c *Config) Revoke(ctx context.Context) error {
	if c.token == nil {
		return fmt.Errorf("no token to revoke")
	}

	tok := c.token.AccessToken
	if c.token.RefreshToken != "" {
		tok = c.token.RefreshToken
	}

	form := url.Values{}
	form.Set("token", tok)
	form.Set("client_id", c.conf.ClientID)
	form.Set("client_secret", c.conf.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("revoke token: unexpected status %d", resp.StatusCode)
	}

	c.logger.Info("token revoked")
	c.token = nil
	return nil
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
