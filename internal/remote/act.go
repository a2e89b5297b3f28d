package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Actor drives the admin API.
type Actor struct {
	BaseURL    string
	AdminKey   string
	HTTPClient *http.Client
}

// NewActor creates an Actor targeting the given API base URL with admin auth.
func NewActor(baseURL, adminKey string) *Actor {
	return &Actor{
		BaseURL:  baseURL,
		AdminKey: adminKey,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// AddCells appends n cells and returns the new stack size.
func (a *Actor) AddCells(ctx context.Context, n int) (int, error) {
	var res struct {
		Cells int `json:"cells"`
	}
	if err := a.post(ctx, "/api/v1/cells", map[string]int{"count": n}, &res); err != nil {
		return 0, err
	}
	return res.Cells, nil
}

// SetSpeed changes the time multiplier.
func (a *Actor) SetSpeed(ctx context.Context, speed float64) (float64, error) {
	var res struct {
		Speed float64 `json:"speed"`
	}
	if err := a.post(ctx, "/api/v1/speed", map[string]float64{"speed": speed}, &res); err != nil {
		return 0, err
	}
	return res.Speed, nil
}

// Snapshot asks the server to save now and returns the frame saved.
func (a *Actor) Snapshot(ctx context.Context) (uint64, error) {
	var res struct {
		Frame uint64 `json:"frame"`
	}
	if err := a.post(ctx, "/api/v1/snapshot", nil, &res); err != nil {
		return 0, err
	}
	return res.Frame, nil
}

func (a *Actor) post(ctx context.Context, path string, payload, target any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.AdminKey)

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST %s failed (%d): %s", path, resp.StatusCode, bytes.TrimSpace(respBody))
	}
	if err := json.Unmarshal(respBody, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
