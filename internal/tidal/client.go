// TIDAL API client
//
// Implements device-authorization login and session restoration over the
// v1 REST API. Endpoint shapes based on https://api.tidal.com/v1/.
package tidal

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/Raydius/tidal-dl-mcp/internal/shared"
)

const (
	tidalBaseURL       = "https://api.tidal.com/v1"
	tidalDeviceAuthURL = "https://auth.tidal.com/v1/oauth2/device_authorization"
	tidalTokenURL      = "https://auth.tidal.com/v1/oauth2/token"

	// Public client id used by desktop clients for the device flow.
	defaultClientID = "zU4XHVVkc2tDPo4t"
)

// LoginTimeout bounds the interactive device-authorization flow.
const LoginTimeout = 5 * time.Minute

// Client talks to the TIDAL API. It is stateless apart from configuration and
// safe for concurrent use; all per-account state lives in [Session].
type Client struct {
	baseURL    string
	oauth      *oauth2.Config
	httpClient *http.Client
	logger     *log.Logger

	// openURL is invoked with the verification URL during login. Replaced in
	// tests; defaults to opening the system browser.
	openURL func(url string) error
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (tests point this at a local server).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAuthEndpoint overrides the OAuth device/token endpoints.
func WithAuthEndpoint(deviceURL, tokenURL string) Option {
	return func(c *Client) {
		c.oauth.Endpoint.DeviceAuthURL = deviceURL
		c.oauth.Endpoint.TokenURL = tokenURL
	}
}

// WithURLOpener overrides how the verification URL is presented to the user.
func WithURLOpener(open func(url string) error) Option {
	return func(c *Client) { c.openURL = open }
}

// NewClient creates a TIDAL API client.
func NewClient(logger *log.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: tidalBaseURL,
		oauth: &oauth2.Config{
			ClientID: defaultClientID,
			Scopes:   []string{"r_usr", "w_usr"},
			Endpoint: oauth2.Endpoint{
				DeviceAuthURL: tidalDeviceAuthURL,
				TokenURL:      tidalTokenURL,
			},
		},
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		openURL:    shared.OpenBrowser,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login runs the interactive device-authorization flow: obtains a device code,
// opens the verification URL in the user's browser, polls for approval, then
// validates the session and writes the credential file atomically.
func (c *Client) Login(ctx context.Context, credPath string) (*Session, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	da, err := c.oauth.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("device authorization request failed: %w", err)
	}

	verification := da.VerificationURIComplete
	if verification == "" {
		verification = da.VerificationURI
	}
	c.logger.Info("waiting for browser login", "url", verification)
	if c.openURL != nil {
		if err := c.openURL(verification); err != nil {
			c.logger.Warn("could not open browser, visit the URL manually", "url", verification, "err", err)
		}
	}

	token, err := c.oauth.DeviceAccessToken(ctx, da)
	if err != nil {
		return nil, fmt.Errorf("device login was not completed: %w", err)
	}

	creds := &Credentials{
		TokenType:    token.TokenType,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}

	session, err := c.newSession(ctx, creds)
	if err != nil {
		return nil, err
	}

	creds.UserID = session.User.ID
	creds.CountryCode = session.countryCode
	if err := SaveCredentials(credPath, creds); err != nil {
		return nil, err
	}

	c.logger.Info("authenticated with TIDAL", "user_id", session.User.ID)
	return session, nil
}

// Restore rebuilds a session from the credential file, refreshing the access
// token through the token endpoint when it has expired. The refreshed token is
// written back to the file.
func (c *Client) Restore(ctx context.Context, credPath string) (*Session, error) {
	creds, err := LoadCredentials(credPath)
	if err != nil {
		return nil, err
	}

	if !creds.ExpiresAt.IsZero() && time.Now().After(creds.ExpiresAt) {
		refreshed, err := c.refresh(ctx, creds)
		if err != nil {
			return nil, fmt.Errorf("token refresh failed: %w", err)
		}
		creds = refreshed
		if err := SaveCredentials(credPath, creds); err != nil {
			return nil, err
		}
	}

	return c.newSession(ctx, creds)
}

func (c *Client) refresh(ctx context.Context, creds *Credentials) (*Credentials, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	stale := &oauth2.Token{
		TokenType:    creds.TokenType,
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		Expiry:       creds.ExpiresAt,
	}
	token, err := c.oauth.TokenSource(ctx, stale).Token()
	if err != nil {
		return nil, err
	}

	return &Credentials{
		TokenType:    token.TokenType,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
		UserID:       creds.UserID,
		CountryCode:  creds.CountryCode,
	}, nil
}

// newSession validates the credentials against the sessions endpoint and binds
// the account identity.
func (c *Client) newSession(ctx context.Context, creds *Credentials) (*Session, error) {
	s := &Session{
		client:      c,
		accessToken: creds.AccessToken,
		countryCode: creds.CountryCode,
	}

	var info struct {
		SessionID   string `json:"sessionId"`
		UserID      int64  `json:"userId"`
		CountryCode string `json:"countryCode"`
	}
	if err := s.get(ctx, "/sessions", nil, &info); err != nil {
		return nil, fmt.Errorf("session validation failed: %w", err)
	}

	s.User.ID = strconv.FormatInt(info.UserID, 10)
	s.countryCode = info.CountryCode
	return s, nil
}
