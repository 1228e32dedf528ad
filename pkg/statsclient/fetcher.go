// Package statsclient keeps a local copy of the admin dashboard counters in
// sync with the API, preferring pushes and falling back to polling.
package statsclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/noah-isme/sheetchart-api/internal/dto"
)

// Fetcher pulls the current snapshot.
type Fetcher interface {
	Fetch(ctx context.Context) (dto.StatsSnapshot, error)
}

// HTTPFetcher calls GET {api}/admin/stats with a bearer token.
type HTTPFetcher struct {
	client *resty.Client
}

// NewHTTPFetcher builds a fetcher for the API rooted at baseURL (for example http://host/api).
func NewHTTPFetcher(baseURL, token string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if token != "" {
		client.SetAuthToken(token)
	}

	return &HTTPFetcher{client: client}
}

// Fetch returns the snapshot or an error for transport failures and non-2xx responses.
func (f *HTTPFetcher) Fetch(ctx context.Context) (dto.StatsSnapshot, error) {
	var snapshot dto.StatsSnapshot
	resp, err := f.client.R().
		SetContext(ctx).
		SetResult(&snapshot).
		Get("/admin/stats")
	if err != nil {
		return dto.StatsSnapshot{}, fmt.Errorf("fetch stats: %w", err)
	}
	if resp.IsError() {
		return dto.StatsSnapshot{}, fmt.Errorf("fetch stats: unexpected status %d", resp.StatusCode())
	}

	return snapshot, nil
}
