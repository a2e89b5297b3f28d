// Package remote is an HTTP client for a running shelf. It observes state
// through the public endpoints and acts through the admin endpoints.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/talgya/magnetar/internal/event"
	"github.com/talgya/magnetar/internal/magnetar"
)

// Status mirrors GET /api/v1/status.
type Status struct {
	Name        string  `json:"name"`
	Frame       uint64  `json:"frame"`
	SessionTime string  `json:"session_time"`
	Speed       float64 `json:"speed"`
	Running     bool    `json:"running"`
	Started     string  `json:"started"`
	LastSave    string  `json:"last_save"`
	Cells       int     `json:"cells"`
	Held        int     `json:"held"`
	Pending     int     `json:"pending"`
	YPos        float32 `json:"y_pos"`
	Dragging    bool    `json:"dragging"`
	Actor       string  `json:"actor"`
}

// Observer fetches shelf state from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Status fetches the status summary.
func (o *Observer) Status(ctx context.Context) (*Status, error) {
	var st Status
	if err := o.fetchJSON(ctx, "/api/v1/status", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Cells fetches the full shelf snapshot.
func (o *Observer) Cells(ctx context.Context) (*magnetar.Snapshot, error) {
	var snap magnetar.Snapshot
	if err := o.fetchJSON(ctx, "/api/v1/cells", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Events fetches up to limit recent events, newest first. An empty kind
// matches all.
func (o *Observer) Events(ctx context.Context, limit int, kind event.Kind) ([]event.Event, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if kind != "" {
		q.Set("kind", string(kind))
	}
	var events []event.Event
	if err := o.fetchJSON(ctx, "/api/v1/events?"+q.Encode(), &events); err != nil {
		return nil, err
	}
	return events, nil
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
