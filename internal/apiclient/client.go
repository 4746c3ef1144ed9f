// Package apiclient is a small HTTP client for the REST API, used by the
// eventctl command and by end-to-end tests.
package apiclient

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

	"github.com/isdelr/eventhub-be/internal/models"
)

// APIError is a non-2xx reply from the server.
type APIError struct {
	Status int
	Msg    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server replied %d: %s", e.Status, e.Msg)
}

// AuthResponse is returned by every authentication endpoint.
type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

// NewEvent is the body of an event creation request.
type NewEvent struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
	Image       string    `json:"image,omitempty"`
}

// Client talks to a single server. Token is sent as a bearer credential
// when set.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// New creates a client for the server at baseURL (e.g. http://localhost:5000).
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// WebsocketURL returns the websocket endpoint of the server.
func (c *Client) WebsocketURL() string {
	u := c.BaseURL + "/api/v1/ws"
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+"/api/v1"+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg struct {
			Msg string `json:"msg"`
		}
		json.NewDecoder(resp.Body).Decode(&msg)
		return &APIError{Status: resp.StatusCode, Msg: msg.Msg}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) authenticate(ctx context.Context, path string, body interface{}) (AuthResponse, error) {
	var res AuthResponse
	if err := c.do(ctx, http.MethodPost, path, body, &res); err != nil {
		return AuthResponse{}, err
	}
	c.Token = res.Token
	return res, nil
}

// Register creates an account and keeps its token.
func (c *Client) Register(ctx context.Context, name, email, password string) (AuthResponse, error) {
	return c.authenticate(ctx, "/auth/register", map[string]string{
		"name": name, "email": email, "password": password,
	})
}

// Login authenticates and keeps the token.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	return c.authenticate(ctx, "/auth/login", map[string]string{"email": email, "password": password})
}

// GuestLogin creates a guest account and keeps its token.
func (c *Client) GuestLogin(ctx context.Context) (AuthResponse, error) {
	return c.authenticate(ctx, "/auth/guest-login", nil)
}

// Me returns the user behind the current token.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	var res struct {
		User models.User `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/auth/check", nil, &res)
	return res.User, err
}

// ListEvents lists events matching filter.
func (c *Client) ListEvents(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	q := url.Values{}
	if filter.Category != "" {
		q.Set("category", filter.Category)
	}
	if !filter.Day.IsZero() {
		q.Set("date", filter.Day.UTC().Format(time.DateOnly))
	}
	path := "/events"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var events []models.Event
	err := c.do(ctx, http.MethodGet, path, nil, &events)
	return events, err
}

// GetEvent fetches a single event.
func (c *Client) GetEvent(ctx context.Context, id string) (models.Event, error) {
	var event models.Event
	err := c.do(ctx, http.MethodGet, "/events/"+url.PathEscape(id), nil, &event)
	return event, err
}

// CreateEvent creates an event organized by the current user.
func (c *Client) CreateEvent(ctx context.Context, input NewEvent) (models.Event, error) {
	var event models.Event
	err := c.do(ctx, http.MethodPost, "/events", input, &event)
	return event, err
}

// UpdateEvent applies a partial update.
func (c *Client) UpdateEvent(ctx context.Context, id string, update models.EventUpdate) (models.Event, error) {
	var event models.Event
	err := c.do(ctx, http.MethodPut, "/events/"+url.PathEscape(id), update, &event)
	return event, err
}

// DeleteEvent deletes an event.
func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/events/"+url.PathEscape(id), nil, nil)
}

// Toggle joins the event if the current user is not attending, or leaves it.
func (c *Client) Toggle(ctx context.Context, id string) (models.AttendanceResult, error) {
	var res models.AttendanceResult
	err := c.do(ctx, http.MethodPost, "/events/join/"+url.PathEscape(id), nil, &res)
	return res, err
}
