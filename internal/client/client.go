// Package client is the typed HTTP client for the pomotrack backend API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pomotrack/internal/analytics"
	"pomotrack/internal/session"
)

// ErrUnexpectedResponse is returned for non-success statuses and bodies that do
// not decode into the expected shape.
var ErrUnexpectedResponse = errors.New("unexpected response from backend")

// Health is the body of GET /health.
type Health struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New returns a client for the API rooted at baseURL, e.g. http://localhost:5000/api.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// CreateSession stores rec and returns it as persisted, with its id.
func (c *Client) CreateSession(ctx context.Context, rec session.Record) (session.Record, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return session.Record{}, fmt.Errorf("failed to encode session: %w", err)
	}
	var out session.Record
	if err := c.do(ctx, http.MethodPost, "/sessions", bytes.NewReader(body), http.StatusCreated, &out); err != nil {
		return session.Record{}, err
	}
	return out, nil
}

// ListSessions returns every stored session, newest first.
func (c *Client) ListSessions(ctx context.Context) ([]session.Record, error) {
	var out []session.Record
	if err := c.do(ctx, http.MethodGet, "/sessions", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListSessionsByDate returns the sessions recorded on date (YYYY-MM-DD).
func (c *Client) ListSessionsByDate(ctx context.Context, date string) ([]session.Record, error) {
	var out []session.Record
	if err := c.do(ctx, http.MethodGet, "/sessions/date/"+url.PathEscape(date), nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListSessionsInRange returns sessions between start and end inclusive, newest first.
func (c *Client) ListSessionsInRange(ctx context.Context, start, end string) ([]session.Record, error) {
	q := url.Values{}
	q.Set("startDate", start)
	q.Set("endDate", end)
	var out []session.Record
	if err := c.do(ctx, http.MethodGet, "/sessions/range?"+q.Encode(), nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteAllSessions clears the store and reports how many records were removed.
func (c *Client) DeleteAllSessions(ctx context.Context) (int64, error) {
	var out struct {
		Message string `json:"message"`
		Deleted int64  `json:"deleted"`
	}
	if err := c.do(ctx, http.MethodDelete, "/sessions", nil, http.StatusOK, &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, http.StatusOK, &out); err != nil {
		return Health{}, err
	}
	return out, nil
}

// Analytics fetches the server computed dashboard.
func (c *Client) Analytics(ctx context.Context) (analytics.Dashboard, error) {
	var out analytics.Dashboard
	if err := c.do(ctx, http.MethodGet, "/analytics", nil, http.StatusOK, &out); err != nil {
		return analytics.Dashboard{}, err
	}
	if len(out.Daily) != analytics.DailyWindow || len(out.Monthly) != analytics.MonthlyWindow {
		return analytics.Dashboard{}, fmt.Errorf("%w: incomplete analytics series", ErrUnexpectedResponse)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, want int, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%w: status %d: %s", ErrUnexpectedResponse, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("%w: status %d", ErrUnexpectedResponse, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %v", ErrUnexpectedResponse, method, path, err)
	}
	return nil
}
