// Package topic fetches random episode topics from Wikipedia.
package topic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the Wikipedia REST API endpoint.
const DefaultBaseURL = "https://en.wikipedia.org/api/rest_v1"

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithBaseURL overrides the API endpoint. Useful in tests.
func WithBaseURL(u string) Option {
	return func(f *Fetcher) {
		f.baseURL = u
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// Fetcher retrieves random article titles usable as episode topics.
type Fetcher struct {
	baseURL string
	client  *http.Client
}

// New returns a Fetcher with the given options.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Random returns the title of a random Wikipedia article.
func (f *Fetcher) Random(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/page/random/summary", nil)
	if err != nil {
		return "", fmt.Errorf("topic: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("topic: fetch random article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("topic: wikipedia returned status %d: %s", resp.StatusCode, body)
	}

	var summary struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return "", fmt.Errorf("topic: decode response: %w", err)
	}
	if summary.Title == "" {
		return "", fmt.Errorf("topic: wikipedia response has no title")
	}
	return summary.Title, nil
}
