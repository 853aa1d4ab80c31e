package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-home-inventory/internal/handlers"
)

// Session is the authenticated state returned by Login or Register.
// Authenticated calls take it explicitly; the client keeps no session of its own.
type Session struct {
	Token     string
	FirstName string
	Username  string
}

// Client talks to the user and inventory services over HTTP.
type Client struct {
	userBaseURL      string
	inventoryBaseURL string
	http             *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a client for the given service base URLs.
func New(userBaseURL, inventoryBaseURL string, opts ...Option) *Client {
	c := &Client{
		userBaseURL:      strings.TrimRight(userBaseURL, "/"),
		inventoryBaseURL: strings.TrimRight(inventoryBaseURL, "/"),
		http:             &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register creates an account and returns a session for it.
func (c *Client) Register(ctx context.Context, req handlers.RegisterRequest) (*Session, error) {
	var resp handlers.RegisterResponse
	if err := c.do(ctx, http.MethodPost, c.userBaseURL+"/api/auth/register", nil, req, &resp); err != nil {
		return nil, err
	}
	return &Session{Token: resp.Token, FirstName: req.FirstName, Username: req.Username}, nil
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var resp handlers.LoginResponse
	req := handlers.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, c.userBaseURL+"/api/auth/login", nil, req, &resp); err != nil {
		return nil, err
	}
	return &Session{Token: resp.Token, FirstName: resp.FirstName, Username: resp.Username}, nil
}

// ForgotPassword asks the service to email a one-time password.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	var resp handlers.MessageResponse
	req := handlers.ForgotPasswordRequest{Email: email}
	if err := c.do(ctx, http.MethodPost, c.userBaseURL+"/api/auth/forgot-password", nil, req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// VerifyOTP exchanges an emailed code for a reset token.
func (c *Client) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	var resp handlers.VerifyOTPResponse
	req := handlers.VerifyOTPRequest{Email: email, Code: code}
	if err := c.do(ctx, http.MethodPost, c.userBaseURL+"/api/auth/verify-otp", nil, req, &resp); err != nil {
		return "", err
	}
	return resp.ResetToken, nil
}

// ResetPassword sets a new password using a reset token.
func (c *Client) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	req := handlers.ResetPasswordRequest{ResetToken: resetToken, NewPassword: newPassword}
	return c.do(ctx, http.MethodPost, c.userBaseURL+"/api/auth/reset-password", nil, req, nil)
}

// GetProfile returns the profile of the session's user.
func (c *Client) GetProfile(ctx context.Context, s *Session) (*handlers.ProfileResponse, error) {
	var resp handlers.ProfileResponse
	if err := c.do(ctx, http.MethodGet, c.userBaseURL+"/api/auth/profile", s, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateProfile applies a partial profile update. The session's first name follows the update.
func (c *Client) UpdateProfile(ctx context.Context, s *Session, req handlers.UpdateProfileRequest) (*handlers.ProfileResponse, error) {
	var resp handlers.UpdateProfileResponse
	if err := c.do(ctx, http.MethodPut, c.userBaseURL+"/api/auth/profile", s, req, &resp); err != nil {
		return nil, err
	}
	if s != nil {
		s.FirstName = resp.User.FirstName
	}
	return &resp.User, nil
}

// DeleteAccount removes the session's user after confirming the password.
func (c *Client) DeleteAccount(ctx context.Context, s *Session, password string) error {
	req := handlers.DeleteAccountRequest{Password: password}
	return c.do(ctx, http.MethodDelete, c.userBaseURL+"/api/auth/delete-account", s, req, nil)
}

// ListItems returns the session user's items, optionally restricted to category.
func (c *Client) ListItems(ctx context.Context, s *Session, category string) ([]handlers.ItemResponse, error) {
	u := c.inventoryBaseURL + "/api/items"
	if category != "" {
		u += "?" + url.Values{"category": {category}}.Encode()
	}
	var resp handlers.ItemListResponse
	if err := c.do(ctx, http.MethodGet, u, s, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// GetItem fetches one item.
func (c *Client) GetItem(ctx context.Context, s *Session, id uuid.UUID) (*handlers.ItemResponse, error) {
	var resp handlers.ItemResponse
	if err := c.do(ctx, http.MethodGet, c.itemURL(id), s, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateItem adds an item.
func (c *Client) CreateItem(ctx context.Context, s *Session, req handlers.CreateItemRequest) (*handlers.ItemResponse, error) {
	var resp handlers.ItemResponse
	if err := c.do(ctx, http.MethodPost, c.inventoryBaseURL+"/api/items", s, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateItem applies a partial item update.
func (c *Client) UpdateItem(ctx context.Context, s *Session, id uuid.UUID, req handlers.UpdateItemRequest) (*handlers.ItemResponse, error) {
	var resp handlers.ItemResponse
	if err := c.do(ctx, http.MethodPut, c.itemURL(id), s, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteItem removes an item.
func (c *Client) DeleteItem(ctx context.Context, s *Session, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, c.itemURL(id), s, nil, nil)
}

// Report returns per-category inventory totals.
func (c *Client) Report(ctx context.Context, s *Session) (*handlers.ReportResponse, error) {
	var resp handlers.ReportResponse
	if err := c.do(ctx, http.MethodGet, c.inventoryBaseURL+"/api/items/report", s, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) itemURL(id uuid.UUID) string {
	return c.inventoryBaseURL + "/api/items/" + id.String()
}

// do sends body as JSON, attaches the session token when s is set and decodes a 2xx
// response into out. Non-2xx responses become *APIError with the server's message.
func (c *Client) do(ctx context.Context, method, u string, s *Session, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if s != nil && s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	var body handlers.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil || body.Error == "" {
		return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return &APIError{Status: resp.StatusCode, Message: body.Error}
}
