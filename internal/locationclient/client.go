// Package locationclient talks to the on-device location bridge (a small
// companion service exposing the phone's GPS fix over HTTP).
package locationclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"schoolattend/internal/geo"
)

// Client fetches the device's current location.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client. With skip set the bridge is never contacted:
// Current yields no fix and Health reports healthy, which keeps dev setups
// working without the bridge while geofenced check-ins still fail closed
// unless the caller supplies a location.
func New(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 10 * time.Second, // GPS fixes can be slow
		},
	}
}

// Current returns the device location, or nil when no fix is available.
// Permission and device failures yield absence, not an error: callers fail
// closed on a nil point.
func (c *Client) Current(ctx context.Context) *geo.Point {
	if c.Skip {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/location", nil)
	if err != nil {
		return nil
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		log.Printf("location bridge unreachable: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("location bridge error: %s", resp.Status)
		return nil
	}

	var out struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Printf("location bridge bad response: %v", err)
		return nil
	}
	if out.Latitude == nil || out.Longitude == nil {
		return nil
	}
	return &geo.Point{Lat: *out.Latitude, Lon: *out.Longitude}
}

// Health checks whether the bridge is reachable.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("location bridge unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("location bridge unhealthy: %s", resp.Status)
	}
	return nil
}
