// Package calendar talks to the external calendar provider. Everything
// here is best-effort from the booking engine's point of view: a failed
// busy-period fetch degrades availability to ledger-only and a failed
// event creation is recorded as a sync failure, never a booking error.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrNotConfigured is returned by the noop client so callers can record
// the sync outcome as skipped rather than failed.
var ErrNotConfigured = errors.New("external calendar not configured")

// Period is a busy span reported by the provider.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Event is the payload for a calendar event created after a booking.
type Event struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Attendees   []string  `json:"attendees,omitempty"`
}

type Client interface {
	QueryBusyPeriods(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]Period, error)
	CreateEvent(ctx context.Context, calendarID string, ev Event) (string, error)
}

type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type freeBusyResponse struct {
	Busy []Period `json:"busy"`
}

func (c *HTTPClient) QueryBusyPeriods(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]Period, error) {
	q := url.Values{}
	q.Set("time_min", timeMin.Format(time.RFC3339))
	q.Set("time_max", timeMax.Format(time.RFC3339))

	endpoint := fmt.Sprintf("%s/calendars/%s/freebusy?%s", c.baseURL, url.PathEscape(calendarID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build freebusy request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query busy periods: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("freebusy returned %d: %s", resp.StatusCode, body)
	}

	var out freeBusyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode freebusy response: %w", err)
	}

	return out.Busy, nil
}

type createEventResponse struct {
	ID string `json:"id"`
}

func (c *HTTPClient) CreateEvent(ctx context.Context, calendarID string, ev Event) (string, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events", c.baseURL, url.PathEscape(calendarID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build create event request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("create event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("create event returned %d: %s", resp.StatusCode, body)
	}

	var out createEventResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode create event response: %w", err)
	}
	if out.ID == "" {
		return "", errors.New("create event response missing id")
	}

	return out.ID, nil
}

// NoopClient stands in when no provider is configured.
type NoopClient struct{}

func (NoopClient) QueryBusyPeriods(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]Period, error) {
	return nil, nil
}

func (NoopClient) CreateEvent(ctx context.Context, calendarID string, ev Event) (string, error) {
	return "", ErrNotConfigured
}
