// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wardapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/nagarniti/nagarniti/lib/netutil"
	"github.com/nagarniti/nagarniti/lib/secret"
	"github.com/nagarniti/nagarniti/lib/version"
)

// Endpoint paths, relative to the base URL.
const (
	PathLogin    = "/api/auth/login"
	PathRegister = "/api/auth/register"
	PathRefresh  = "/api/auth/refresh"
	PathMe       = "/api/auth/me"
	PathLogout   = "/api/auth/logout"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the backend origin (e.g., "http://localhost:5000").
	BaseURL string
	// HTTPClient is used for all requests. If nil, a new client is used.
	// It is never mutated; when Jar is set a shallow copy carries it.
	HTTPClient *http.Client
	// Jar holds the refresh cookie. Optional, but without one the
	// refresh endpoint never sees the cookie it needs.
	Jar http.CookieJar
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client talks to the REST API. It holds the transport and base URL
// only; tokens are supplied per call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("wardapi: BaseURL is required")
	}

	// Request URLs are built by concatenating the trimmed base and the
	// endpoint path, so only structure is validated here.
	parsed, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("wardapi: invalid BaseURL %q: %w", config.BaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("wardapi: BaseURL %q must be http or https", config.BaseURL)
	}

	var httpClient *http.Client
	switch {
	case config.HTTPClient == nil:
		httpClient = &http.Client{Jar: config.Jar}
	case config.Jar != nil:
		copied := *config.HTTPClient
		copied.Jar = config.Jar
		httpClient = &copied
	default:
		httpClient = config.HTTPClient
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// CloseIdleConnections closes idle connections in the transport pool.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// Login exchanges email and password for an access token. The server
// also sets the refresh cookie. The password Buffer is borrowed.
func (c *Client) Login(ctx context.Context, email string, password *secret.Buffer) (*AuthResponse, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email is required for login", ErrInvalidRequest)
	}
	if password == nil || password.Len() == 0 {
		return nil, fmt.Errorf("%w: password is required for login", ErrInvalidRequest)
	}

	// Password becomes a string only at the JSON serialization boundary.
	loginRequest := LoginRequest{Email: email, Password: password.String()}

	body, err := c.doRequest(ctx, http.MethodPost, PathLogin, nil, loginRequest)
	if err != nil {
		return nil, fmt.Errorf("wardapi: login failed: %w", err)
	}

	response, err := decodeAuth(body, "login")
	if err != nil {
		return nil, err
	}
	if response.AccessToken == "" || response.User == nil {
		return nil, fmt.Errorf("wardapi: login response is missing the access token or user")
	}

	c.logger.Info("logged in",
		"user_id", response.User.ID,
		"role", response.User.Role,
		"expires_in", response.Lifetime(),
	)
	return response, nil
}

// Register creates an account. A successful response may carry no
// access token when the server wants the account verified first.
func (c *Client) Register(ctx context.Context, request RegisterRequest) (*AuthResponse, error) {
	switch {
	case request.Email == "":
		return nil, fmt.Errorf("%w: email is required for registration", ErrInvalidRequest)
	case request.Name == "":
		return nil, fmt.Errorf("%w: name is required for registration", ErrInvalidRequest)
	case request.WardSlug == "":
		return nil, fmt.Errorf("%w: ward is required for registration", ErrInvalidRequest)
	case request.Password == nil || request.Password.Len() == 0:
		return nil, fmt.Errorf("%w: password is required for registration", ErrInvalidRequest)
	}

	wire := registerBody{
		Email:     request.Email,
		Name:      request.Name,
		Mobile:    request.Mobile,
		VoterID:   request.VoterID,
		WardSlug:  request.WardSlug,
		Password:  request.Password.String(),
		SocietyID: request.SocietyID,
	}

	body, err := c.doRequest(ctx, http.MethodPost, PathRegister, nil, wire)
	if err != nil {
		return nil, fmt.Errorf("wardapi: registration failed: %w", err)
	}

	response, err := decodeAuth(body, "register")
	if err != nil {
		return nil, err
	}
	if response.AccessToken != "" && response.User == nil {
		return nil, fmt.Errorf("wardapi: register response has an access token but no user")
	}

	attributes := []any{"email", request.Email, "ward", request.WardSlug, "signed_in", response.AccessToken != ""}
	if response.User != nil {
		attributes = append(attributes, "user_id", response.User.ID)
	}
	c.logger.Info("registered account", attributes...)
	return response, nil
}

// Refresh obtains a new access token using the refresh cookie. No body
// and no bearer are sent.
func (c *Client) Refresh(ctx context.Context) (*RefreshResponse, error) {
	body, err := c.doRequest(ctx, http.MethodPost, PathRefresh, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("wardapi: refresh failed: %w", err)
	}

	var response RefreshResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("wardapi: failed to parse refresh response: %w", err)
	}
	if response.AccessToken == "" {
		return nil, fmt.Errorf("wardapi: refresh response has no access token")
	}

	c.logger.Debug("refreshed access token", "expires_in", response.Lifetime())
	return &response, nil
}

// Me returns the current user. The bearer is attached only when token
// is non-nil; without it the server can still recognize a cookie
// session.
func (c *Client) Me(ctx context.Context, token *secret.Buffer) (*User, error) {
	body, err := c.doRequest(ctx, http.MethodGet, PathMe, token, nil)
	if err != nil {
		return nil, fmt.Errorf("wardapi: fetching current user failed: %w", err)
	}

	var response meResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("wardapi: failed to parse me response: %w", err)
	}
	if response.User == nil {
		return nil, fmt.Errorf("wardapi: me response has no user")
	}
	return response.User, nil
}

// Logout invalidates the session server-side and, through Set-Cookie,
// clears the refresh cookie.
func (c *Client) Logout(ctx context.Context, token *secret.Buffer) error {
	if _, err := c.doRequest(ctx, http.MethodPost, PathLogout, token, nil); err != nil {
		return fmt.Errorf("wardapi: logout failed: %w", err)
	}
	return nil
}

// Request describes a call through Do.
type Request struct {
	// Method is the HTTP method; empty means GET.
	Method string
	// Path is appended to the base URL, e.g. "/api/wards".
	Path string
	// Query is encoded onto the URL when non-empty.
	Query url.Values
	// Token is attached as the bearer when non-nil. Borrowed.
	Token *secret.Buffer
	// Body is JSON-encoded when non-nil. A json.RawMessage is sent as-is.
	Body any
}

// Do issues an arbitrary API request and returns the response body.
// Error handling matches the auth endpoints.
func (c *Client) Do(ctx context.Context, request Request) ([]byte, error) {
	method := request.Method
	if method == "" {
		method = http.MethodGet
	}
	if !strings.HasPrefix(request.Path, "/") {
		return nil, fmt.Errorf("%w: path %q must start with /", ErrInvalidRequest, request.Path)
	}
	return c.doRequest(ctx, method, request.Path, request.Token, request.Body, request.Query)
}

func decodeAuth(body []byte, operation string) (*AuthResponse, error) {
	var response AuthResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("wardapi: failed to parse %s response: %w", operation, err)
	}
	return &response, nil
}

// doRequest performs one JSON request. A non-nil accessToken is sent
// as the bearer. The body of a 2xx response is returned unless it
// carries success:false, which is reported as an *APIError.
func (c *Client) doRequest(ctx context.Context, method, path string, accessToken *secret.Buffer, requestBody any, query ...url.Values) ([]byte, error) {
	requestURL := c.baseURL + path
	if len(query) > 0 && len(query[0]) > 0 {
		requestURL += "?" + query[0].Encode()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("wardapi: failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("wardapi: failed to create request: %w", err)
	}

	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", version.UserAgent())
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if accessToken != nil && accessToken.Len() > 0 {
		request.Header.Set("Authorization", "Bearer "+accessToken.String())
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("wardapi: request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("wardapi: failed to read response body: %w", err)
	}

	var parsed envelope
	jsonErr := json.Unmarshal(responseBody, &parsed)

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		// Non-object bodies (arrays, empty) carry no envelope.
		if jsonErr == nil && parsed.Success != nil && !*parsed.Success {
			return nil, parsed.apiError(response.StatusCode)
		}
		return responseBody, nil
	}

	if jsonErr != nil {
		return nil, &APIError{
			StatusCode: response.StatusCode,
			Message:    http.StatusText(response.StatusCode),
			Body:       string(responseBody),
		}
	}
	return nil, parsed.apiError(response.StatusCode)
}

func (e envelope) apiError(statusCode int) *APIError {
	message := e.Message
	if message == "" {
		message = e.Error
	}
	if message == "" {
		message = http.StatusText(statusCode)
	}
	return &APIError{StatusCode: statusCode, Message: message, Code: e.Code}
}
