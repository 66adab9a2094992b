// Package gcal syncs converted rosters to Google Calendar.
package gcal

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

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

// ErrNoCredentials is returned when no OAuth client is configured.
var ErrNoCredentials = errors.New("google client id and secret are not configured")

// Client is a minimal Google Calendar API v3 client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithLimiter replaces the default request pacing.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// NewClient wraps an HTTP client that already authorizes its requests.
// Requests are paced to five per second by default.
func NewClient(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
		limiter:    rate.NewLimiter(rate.Limit(5), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewAuthenticatedClient builds a client from an OAuth token. Refreshed
// tokens are written back to tokenPath.
func NewAuthenticatedClient(ctx context.Context, tok *oauth2.Token, cfg *oauth2.Config, tokenPath string, opts ...Option) *Client {
	ts := &savingTokenSource{ts: cfg.TokenSource(ctx, tok), path: tokenPath}
	return NewClient(oauth2.NewClient(ctx, ts), opts...)
}

// savingTokenSource wraps a TokenSource and persists refreshed tokens.
type savingTokenSource struct {
	ts   oauth2.TokenSource
	path string
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.ts.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		// Best-effort save; ignore errors.
		_ = saveToken(s.path, tok)
	}
	return tok, nil
}

// Calendar is an entry of the user's calendar list.
type Calendar struct {
	ID         string `json:"id"`
	Summary    string `json:"summary"`
	Primary    bool   `json:"primary,omitempty"`
	AccessRole string `json:"accessRole,omitempty"`
}

// EventTime is either a date (all-day) or a date-time with zone.
type EventTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// Event is a Google Calendar event.
type Event struct {
	ID          string    `json:"id,omitempty"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
	ColorID     string    `json:"colorId,omitempty"`
}

// APIError is a non-2xx response from the Calendar API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("calendar API error %d: %s", e.Status, e.Body)
}

type calendarListResponse struct {
	Items         []Calendar `json:"items"`
	NextPageToken string     `json:"nextPageToken"`
}

type eventsResponse struct {
	Items         []Event `json:"items"`
	NextPageToken string  `json:"nextPageToken"`
}

// ListCalendars returns all calendars of the signed-in user.
func (c *Client) ListCalendars(ctx context.Context) ([]Calendar, error) {
	var all []Calendar
	pageToken := ""
	for {
		q := url.Values{}
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}
		var page calendarListResponse
		if err := c.do(ctx, http.MethodGet, "/users/me/calendarList", q, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if page.NextPageToken == "" {
			return all, nil
		}
		pageToken = page.NextPageToken
	}
}

// ListEvents returns the events of calendarID overlapping [from, to],
// with recurring events expanded.
func (c *Client) ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]Event, error) {
	var all []Event
	pageToken := ""
	for {
		q := url.Values{
			"timeMin":      {from.Format(time.RFC3339)},
			"timeMax":      {to.Format(time.RFC3339)},
			"singleEvents": {"true"},
			"maxResults":   {"2500"},
		}
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}
		var page eventsResponse
		if err := c.do(ctx, http.MethodGet, eventsPath(calendarID), q, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if page.NextPageToken == "" {
			return all, nil
		}
		pageToken = page.NextPageToken
	}
}

// DeleteEvent removes an event. Events that are already gone count as deleted.
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	err := c.do(ctx, http.MethodDelete, eventsPath(calendarID)+"/"+url.PathEscape(eventID), nil, nil, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && (apiErr.Status == http.StatusGone || apiErr.Status == http.StatusNotFound) {
		return nil
	}
	return err
}

// InsertEvent creates ev and returns the stored event.
func (c *Client) InsertEvent(ctx context.Context, calendarID string, ev Event) (Event, error) {
	var created Event
	if err := c.do(ctx, http.MethodPost, eventsPath(calendarID), nil, ev, &created); err != nil {
		return Event{}, err
	}
	return created, nil
}

// CreateCalendar creates a secondary calendar owned by the user.
func (c *Client) CreateCalendar(ctx context.Context, summary string) (Calendar, error) {
	body := struct {
		Summary string `json:"summary"`
	}{summary}
	var created Calendar
	if err := c.do(ctx, http.MethodPost, "/calendars", nil, body, &created); err != nil {
		return Calendar{}, err
	}
	return created, nil
}

func eventsPath(calendarID string) string {
	return "/calendars/" + url.PathEscape(calendarID) + "/events"
}

// do sends one request and decodes a JSON response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calendar API request failed: %w", err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding calendar response: %w", err)
	}
	return nil
}
