package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// Client is the HTTP implementation of API.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client. Tests use this to
// route requests into an in-process handler.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient builds an API client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleAuthRequest struct {
	IDToken string `json:"id_token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type profileResponse struct {
	User UserRecord `json:"user"`
}

// Register creates an account and returns its first session token.
func (c *Client) Register(ctx context.Context, email, password, displayName string) (AuthResult, error) {
	return c.authCall(ctx, "/v1/auth/register", registerRequest{Email: email, Password: password, DisplayName: displayName})
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	return c.authCall(ctx, "/v1/auth/login", loginRequest{Email: email, Password: password})
}

// GoogleAuth exchanges a federated identity token for a session token.
func (c *Client) GoogleAuth(ctx context.Context, idToken string) (AuthResult, error) {
	return c.authCall(ctx, "/v1/auth/google", googleAuthRequest{IDToken: idToken})
}

// GetProfile fetches the authenticated user's account record.
func (c *Client) GetProfile(ctx context.Context, token string) (UserRecord, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/me", token, nil)
	if err != nil {
		return UserRecord{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return UserRecord{}, classifyStatus(resp)
	}

	var profile profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return UserRecord{}, &Error{Kind: KindMalformed, Err: err}
	}
	return profile.User, nil
}

// VerifyIdentity records a confirmed identity verification for the
// authenticated user.
func (c *Client) VerifyIdentity(ctx context.Context, token string) error {
	resp, err := c.do(ctx, http.MethodPost, "/v1/me/verify-identity", token, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return classifyStatus(resp)
	}
	return nil
}

func (c *Client) authCall(ctx context.Context, path string, payload any) (AuthResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return AuthResult{}, &Error{Kind: KindMalformed, Err: err}
	}

	resp, err := c.do(ctx, http.MethodPost, path, "", body)
	if err != nil {
		return AuthResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return AuthResult{}, classifyStatus(resp)
	}

	var result AuthResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return AuthResult{}, &Error{Kind: KindMalformed, Err: err}
	}
	if result.Token == "" {
		return AuthResult{}, &Error{Kind: KindMalformed, Message: "response missing token"}
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	return resp, nil
}

// classifyStatus turns a non-success response into the closed error
// taxonomy. 401/403 on any call and 400/409 on auth endpoints carry a
// server-supplied message and count as credential errors.
func classifyStatus(resp *http.Response) *Error {
	message := serverMessage(resp)
	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusConflict:
		return &Error{Kind: KindCredential, Status: resp.StatusCode, Message: message}
	default:
		return &Error{Kind: KindServer, Status: resp.StatusCode, Message: message}
	}
}

func serverMessage(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Sprintf("status %d", resp.StatusCode)
	}
	var body errorResponse
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return fmt.Sprintf("status %d", resp.StatusCode)
}
