// Package api is the HTTP client for the sipstream backend.
//
// The client is a thin, typed wrapper: it builds requests, decodes JSON,
// and classifies failures. It never retries and never mutates local state;
// reconciliation policy lives in the ledger and sync layers.
//
// Error classification matters more here than usual: callers distinguish
// "the request was cancelled" (superseded sync, dropped silently) from
// "the backend is unreachable" (flips the offline flag) from "the backend
// rejected the request" (APIError). Use errors.Is(err, context.Canceled)
// for the first and errors.As for the last.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/roach88/sipstream/internal/waterlog"
)

// DefaultTimeout bounds any single request when the caller's context has
// no earlier deadline.
const DefaultTimeout = 10 * time.Second

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"detail"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d", e.Status)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// Client talks to one backend base URL.
type Client struct {
	base    *url.URL
	httpc   *http.Client
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying http.Client (tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New validates the base URL and builds a client.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: want http or https", baseURL)
	}
	c := &Client{base: u, httpc: http.DefaultClient, timeout: DefaultTimeout}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// DayLedger fetches the authoritative entry list, total, and goal snapshot
// for one user-day.
func (c *Client) DayLedger(ctx context.Context, userID, date string) (waterlog.DayLedger, error) {
	var out waterlog.DayLedger
	q := url.Values{"date": {date}}
	err := c.do(ctx, http.MethodGet, "/history/"+url.PathEscape(userID), q, nil, &out)
	return out, err
}

// Stats fetches aggregates for the trailing window of days, computing the
// streak against goal.
func (c *Client) Stats(ctx context.Context, userID string, days, goal int) (waterlog.Stats, error) {
	var out waterlog.Stats
	q := url.Values{
		"days": {strconv.Itoa(days)},
		"goal": {strconv.Itoa(goal)},
	}
	err := c.do(ctx, http.MethodGet, "/stats/"+url.PathEscape(userID), q, nil, &out)
	return out, err
}

// CreateEntryRequest logs one drink. Timestamp is optional; when Date names
// a past day the backend stamps local noon of that day.
type CreateEntryRequest struct {
	UserID    string     `json:"user_id"`
	Amount    int        `json:"amount"`
	Goal      int        `json:"goal"`
	Date      string     `json:"date"`
	DrinkType string     `json:"drink_type"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// CreateEntry logs a drink and returns the authoritative day ledger after
// the insert.
func (c *Client) CreateEntry(ctx context.Context, req CreateEntryRequest) (waterlog.DayLedger, error) {
	var out waterlog.DayLedger
	err := c.do(ctx, http.MethodPost, "/log", nil, req, &out)
	return out, err
}

// DeleteEntry removes a logged drink and returns the authoritative day
// ledger after the delete.
func (c *Client) DeleteEntry(ctx context.Context, userID, entryID, date string) (waterlog.DayLedger, error) {
	var out waterlog.DayLedger
	q := url.Values{"user_id": {userID}, "date": {date}}
	err := c.do(ctx, http.MethodDelete, "/log/"+url.PathEscape(entryID), q, nil, &out)
	return out, err
}

// UpsertGoal persists the goal snapshot for one user-day.
func (c *Client) UpsertGoal(ctx context.Context, userID, date string, goal int) error {
	body := map[string]any{"user_id": userID, "date": date, "goal": goal}
	return c.do(ctx, http.MethodPost, "/update-goal", nil, body, nil)
}

// BulkImport uploads guest-era entries under userID in one call.
func (c *Client) BulkImport(ctx context.Context, userID string, entries []waterlog.Entry) error {
	body := map[string]any{"user_id": userID, "entries": entries}
	return c.do(ctx, http.MethodPost, "/import", nil, body, nil)
}

// ClaimGuestData reassigns server-side rows from the guest id to the
// authenticated id. Idempotent on the backend.
func (c *Client) ClaimGuestData(ctx context.Context, guestID, userID string) error {
	body := map[string]any{"guest_id": guestID, "user_id": userID}
	return c.do(ctx, http.MethodPost, "/claim", nil, body, nil)
}

// Preferences are the cloud-synced user settings.
type Preferences struct {
	BaseGoal    int    `json:"base_goal"`
	DrinkAmount int    `json:"drink_amount"`
	Theme       string `json:"theme"`
}

// GetPreferences fetches cloud preferences. A 404 means the user has none
// yet and is returned as ok=false, not an error.
func (c *Client) GetPreferences(ctx context.Context, userID string) (Preferences, bool, error) {
	var out Preferences
	err := c.do(ctx, http.MethodGet, "/preferences/"+url.PathEscape(userID), nil, nil, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return Preferences{}, false, nil
	}
	if err != nil {
		return Preferences{}, false, err
	}
	return out, true, nil
}

// PutPreferences stores cloud preferences.
func (c *Client) PutPreferences(ctx context.Context, userID string, p Preferences) error {
	return c.do(ctx, http.MethodPut, "/preferences/"+url.PathEscape(userID), nil, p, nil)
}

// Insight asks the coach endpoint for a message about today's progress.
type insightResponse struct {
	Message string `json:"message"`
}

func (c *Client) Insight(ctx context.Context, userID string, total, goal int) (string, error) {
	var out insightResponse
	q := url.Values{
		"total": {strconv.Itoa(total)},
		"goal":  {strconv.Itoa(goal)},
	}
	err := c.do(ctx, http.MethodGet, "/ai-feedback/"+url.PathEscape(userID), q, nil, &out)
	return out.Message, err
}

// do runs one request. Context cancellation surfaces as context.Canceled
// (wrapped), HTTP errors as *APIError, everything else as transport
// errors.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.base.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("building %s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("%s %s: %w", method, path, context.Canceled)
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(apiErr)
		return fmt.Errorf("%s %s: %w", method, path, apiErr)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}
