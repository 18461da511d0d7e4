// Package client is a typed HTTP client for the groupspend API. Every
// authenticated call takes the bearer token by value.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/groupspend/groupspend/internal/handler/dto"
)

const (
	// DefaultTimeout is the total request timeout.
	DefaultTimeout = 15 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 5 * time.Second

	// maxResponseBytes caps decoded response bodies.
	maxResponseBytes = 4 << 20
)

// ErrUnauthorized is matched by errors.Is for 401 responses.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// Is reports 401 responses as ErrUnauthorized.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Client calls the API over HTTP.
type Client struct {
	baseURL   string
	http      *http.Client
	publicKey string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithPublicKey sends key in the apikey header on every request.
func WithPublicKey(key string) Option {
	return func(c *Client) { c.publicKey = key }
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   DialTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: DialTimeout,
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Signup registers a user and returns the new session.
func (c *Client) Signup(ctx context.Context, email, password, displayName string) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/signup", "", dto.SignupRequest{
		Email:       email,
		Password:    password,
		DisplayName: displayName,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Login signs in and returns the new session.
func (c *Client) Login(ctx context.Context, email, password string) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", dto.LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the session behind token.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

// Session returns the user behind token.
func (c *Client) Session(ctx context.Context, token string) (*dto.ProfileResponse, error) {
	var out dto.SessionResponse
	if err := c.do(ctx, http.MethodGet, "/auth/session", token, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Profiles looks up profiles by id.
func (c *Client) Profiles(ctx context.Context, token string, ids []string) ([]dto.ProfileResponse, error) {
	path := "/profiles?" + url.Values{"ids": {strings.Join(ids, ",")}}.Encode()
	var out dto.ProfileListResponse
	if err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out.Profiles, nil
}

// ListGroups returns the caller's groups.
func (c *Client) ListGroups(ctx context.Context, token string) ([]dto.GroupResponse, error) {
	var out dto.GroupListResponse
	if err := c.do(ctx, http.MethodGet, "/groups", token, nil, &out); err != nil {
		return nil, err
	}
	return out.Groups, nil
}

// CreateGroup creates a group administered by the caller.
func (c *Client) CreateGroup(ctx context.Context, token, name, description string) (*dto.GroupResponse, error) {
	var out dto.GroupDataResponse
	if err := c.do(ctx, http.MethodPost, "/groups", token, dto.CreateGroupRequest{Name: name, Description: description}, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// GetGroup returns one group.
func (c *Client) GetGroup(ctx context.Context, token, groupID string) (*dto.GroupResponse, error) {
	var out dto.GroupDataResponse
	if err := c.do(ctx, http.MethodGet, "/groups/"+url.PathEscape(groupID), token, nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// ListMembers returns a group's memberships.
func (c *Client) ListMembers(ctx context.Context, token, groupID string) ([]dto.MemberResponse, error) {
	var out dto.MemberListResponse
	if err := c.do(ctx, http.MethodGet, "/groups/"+url.PathEscape(groupID)+"/members", token, nil, &out); err != nil {
		return nil, err
	}
	return out.Members, nil
}

// Invite adds the user registered under email to the group.
func (c *Client) Invite(ctx context.Context, token, groupID, email string) error {
	return c.do(ctx, http.MethodPost, "/groups/"+url.PathEscape(groupID)+"/invite", token, dto.InviteRequest{Email: email}, nil)
}

// RemoveMember removes userID from the group.
func (c *Client) RemoveMember(ctx context.Context, token, groupID, userID string) error {
	path := "/groups/" + url.PathEscape(groupID) + "/members/" + url.PathEscape(userID)
	return c.do(ctx, http.MethodDelete, path, token, nil, nil)
}

// ListExpenses returns a group's expenses with server-computed totals.
func (c *Client) ListExpenses(ctx context.Context, token, groupID string) (*dto.ExpenseListResponse, error) {
	var out dto.ExpenseListResponse
	if err := c.do(ctx, http.MethodGet, "/groups/"+url.PathEscape(groupID)+"/expenses", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateExpense records an expense in the group.
func (c *Client) CreateExpense(ctx context.Context, token, groupID string, req dto.ExpenseRequest) (*dto.ExpenseResponse, error) {
	var out dto.ExpenseDataResponse
	if err := c.do(ctx, http.MethodPost, "/groups/"+url.PathEscape(groupID)+"/expenses", token, req, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// UpdateExpense replaces an expense's fields.
func (c *Client) UpdateExpense(ctx context.Context, token, expenseID string, req dto.ExpenseRequest) (*dto.ExpenseResponse, error) {
	var out dto.ExpenseUpdatedResponse
	if err := c.do(ctx, http.MethodPut, "/expenses/"+url.PathEscape(expenseID), token, req, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// DeleteExpense deletes an expense.
func (c *Client) DeleteExpense(ctx context.Context, token, expenseID string) error {
	return c.do(ctx, http.MethodDelete, "/expenses/"+url.PathEscape(expenseID), token, nil, nil)
}

// GroupTotal returns the group total converted into currency.
func (c *Client) GroupTotal(ctx context.Context, token, groupID, currency string) (*dto.TotalResponse, error) {
	path := "/groups/" + url.PathEscape(groupID) + "/total"
	if currency != "" {
		path += "?" + url.Values{"currency": {currency}}.Encode()
	}
	var out dto.TotalResponse
	if err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.publicKey != "" {
		req.Header.Set("apikey", c.publicKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, maxResponseBytes)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var errBody dto.ErrorResponse
		if json.NewDecoder(limited).Decode(&errBody) == nil {
			apiErr.Code = errBody.Code
			apiErr.Message = errBody.Error
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, limited)
		return nil
	}
	if err := json.NewDecoder(limited).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
