// Package api implements the HTTP client for the RampForge API. It is the
// only client-side component that touches the network; every failure is
// mapped into the sentinel errors of this package before it reaches the
// session controller or the CLI.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rampforge/rampforge/internal/client/models"
	"github.com/rampforge/rampforge/internal/common"
	"github.com/rampforge/rampforge/internal/logging"
)

const defaultTimeout = 12 * time.Second

// TokenSource yields the current bearer token. *tokenstore.Store satisfies it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// ExpiryNotifier receives the process-wide "auth expired" signal. The client
// broadcasts it whenever a non-auth endpoint answers 401, so the session
// controller learns about a dead token no matter which call noticed it first.
type ExpiryNotifier interface {
	Broadcast()
}

// Client talks to the RampForge server.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	expiry  ExpiryNotifier
	logger  logging.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout bounds every request made by the client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithExpiryNotifier wires the expiry broadcast target.
func WithExpiryNotifier(n ExpiryNotifier) Option {
	return func(c *Client) { c.expiry = n }
}

// WithHTTPClient swaps the underlying http.Client (test seam).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger attaches a logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = l.With("module", "api_client") }
}

// New returns a Client for the server at baseURL.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		tokens:  tokens,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int         `json:"expires_in"`
	User        models.User `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Login authenticates with email/password and returns the issued token plus
// the user profile. A 401 maps to ErrInvalidCredentials; nothing is stored.
func (c *Client) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	var resp loginResponse
	code, err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", loginRequest{Email: email, Password: password}, &resp, false)
	if err != nil {
		return "", nil, err
	}
	switch {
	case code == http.StatusOK:
		return resp.AccessToken, &resp.User, nil
	case code == http.StatusUnauthorized:
		return "", nil, ErrInvalidCredentials
	default:
		return "", nil, c.statusError(code)
	}
}

// Logout revokes the current session server-side. Best-effort by contract:
// the session controller logs failures and clears local state regardless.
func (c *Client) Logout(ctx context.Context) error {
	code, err := c.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil, false)
	if err != nil {
		return err
	}
	if code != http.StatusOK {
		return c.statusError(code)
	}
	return nil
}

// CurrentUser fetches the authenticated profile. 401/403 means the token was
// rejected (ErrUnauthorized); anything else is transient (ErrUnavailable).
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var u models.User
	code, err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", nil, &u, false)
	if err != nil {
		return nil, err
	}
	if code != http.StatusOK {
		return nil, c.statusError(code)
	}
	return &u, nil
}

// VerifyToken asks the server whether the current token is still accepted.
// Returns (false, nil) on an explicit rejection; errors are transport-level
// only, so the caller can distinguish "token dead" from "server unreachable".
func (c *Client) VerifyToken(ctx context.Context) (bool, error) {
	code, err := c.do(ctx, http.MethodGet, "/api/v1/auth/verify", nil, nil, false)
	if err != nil {
		return false, err
	}
	switch code {
	case http.StatusOK:
		return true, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return false, nil
	default:
		return false, c.statusError(code)
	}
}

// UpdateProfile updates mutable profile fields of the current user.
func (c *Client) UpdateProfile(ctx context.Context, req ProfileUpdate) (*models.User, error) {
	var u models.User
	code, err := c.do(ctx, http.MethodPut, "/api/v1/auth/me", req, &u, true)
	if err != nil {
		return nil, err
	}
	if code != http.StatusOK {
		return nil, c.statusError(code)
	}
	return &u, nil
}

// do performs one request. The broadcast flag marks calls outside the auth
// flow itself: a 401 on those fires the expiry broadcast before the error is
// returned, since the session controller owns the reaction.
func (c *Client) do(ctx context.Context, method, path string, in, out any, broadcast bool) (int, error) {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err == nil && token != "" {
			req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Connection refused, DNS failure, timeout: all transient.
		return 0, ErrUnavailable
	}
	defer resp.Body.Close()

	if broadcast && resp.StatusCode == http.StatusUnauthorized && c.expiry != nil {
		c.expiry.Broadcast()
	}

	if out != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.logger.Warn(ctx, "malformed response body", "path", path, "error", err)
			return resp.StatusCode, ErrUnavailable
		}
	}
	return resp.StatusCode, nil
}

// statusError maps a non-2xx status into the outcome taxonomy.
func (c *Client) statusError(code int) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	default:
		return ErrUnavailable
	}
}
