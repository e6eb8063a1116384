// Package client is a Go client for the lighted backend API. It keeps a
// Session mirror of the authentication state the way the browser app keeps
// one in local storage.
package client

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

type Client struct {
	baseURL string
	http    *http.Client
	session *Session
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		session: &Session{},
	}
}

func (c *Client) Session() *Session {
	return c.session
}

// APIError is a non-2xx response decoded into the server's message shape.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type Project struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Title        string    `json:"title"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	CreatedAt    time.Time `json:"created_at"`
}

type authResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Message}
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) authenticate(ctx context.Context, path string, body any) error {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return err
	}
	c.session.set(resp.Token, resp.User.Email, resp.User.ID)
	return nil
}

func (c *Client) Register(ctx context.Context, email, password string) error {
	return c.authenticate(ctx, "/api/auth/register", map[string]string{"email": email, "password": password})
}

func (c *Client) Login(ctx context.Context, email, password string) error {
	return c.authenticate(ctx, "/api/auth/login", map[string]string{"email": email, "password": password})
}

func (c *Client) LoginWithGoogle(ctx context.Context, credential string) error {
	return c.authenticate(ctx, "/api/auth/google", map[string]string{"credential": credential})
}

// Logout only clears the local mirror; tokens are stateless server-side.
func (c *Client) Logout() {
	c.session.Clear()
}

func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	return c.do(ctx, http.MethodPut, "/api/auth/password", map[string]string{
		"currentPassword": currentPassword,
		"newPassword":     newPassword,
	}, nil)
}

func (c *Client) DeleteAccount(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/api/auth/account", nil, nil); err != nil {
		return err
	}
	c.session.Clear()
	return nil
}

func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var out []Project
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Project(ctx context.Context, id int64) (*Project, error) {
	var out Project
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/projects/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProject accepts either a plain thumbnail URL or an inline
// data:image payload, which the server uploads to the object store.
func (c *Client) CreateProject(ctx context.Context, title string, thumbnailURL *string) (*Project, error) {
	var out Project
	body := map[string]any{"title": title}
	if thumbnailURL != nil {
		body["thumbnailUrl"] = *thumbnailURL
	}
	if err := c.do(ctx, http.MethodPost, "/api/projects", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProject replaces the title. The thumbnail is only touched when
// thumbnailURL is non-nil; pass a pointer to "" to clear it.
func (c *Client) UpdateProject(ctx context.Context, id int64, title string, thumbnailURL *string) error {
	body := map[string]any{"title": title}
	if thumbnailURL != nil {
		body["thumbnailUrl"] = *thumbnailURL
	}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/projects/%d", id), body, nil)
}

func (c *Client) DeleteProject(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/projects/%d", id), nil, nil)
}
