// Package replicate provides a soundfx provider backed by Meta's MusicGen
// model hosted on the Replicate predictions API.
//
// A generation is a three-step exchange: create the prediction, poll until it
// reaches a terminal status, then download the output audio. The model is
// asked for WAV output so the result can be decoded without an external
// codec.
package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/podforge/podforge/pkg/audio"
	"github.com/podforge/podforge/pkg/podcast"
)

const (
	defaultBaseURL = "https://api.replicate.com/v1"

	// musicgenVersion pins the MusicGen model version used for effect
	// generation.
	musicgenVersion = "7a76a8258b23fae65c5a22debb8841d1d7e816b75c2f24218cd2bd8573787906"

	defaultPollInterval = 2 * time.Second
	defaultPollTimeout  = 120 * time.Second
)

// Option is a functional option for configuring the Provider.
type Option func(*Provider)

// WithBaseURL overrides the Replicate API base URL (used in tests).
func WithBaseURL(url string) Option {
	return func(p *Provider) {
		p.baseURL = url
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// WithPollInterval sets how often prediction status is polled.
func WithPollInterval(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.pollInterval = d
		}
	}
}

// Provider implements soundfx.Provider against the Replicate predictions API.
type Provider struct {
	apiToken     string
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// New creates a new Replicate-backed Provider. apiToken must be non-empty.
func New(apiToken string, opts ...Option) (*Provider, error) {
	if apiToken == "" {
		return nil, errors.New("replicate: apiToken must not be empty")
	}
	p := &Provider{
		apiToken:     apiToken,
		baseURL:      defaultBaseURL,
		httpClient:   &http.Client{},
		pollInterval: defaultPollInterval,
		pollTimeout:  defaultPollTimeout,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// ---- API types ----

// predictionRequest is the POST /predictions payload.
type predictionRequest struct {
	Version string          `json:"version"`
	Input   predictionInput `json:"input"`
}

// predictionInput carries the MusicGen model inputs.
type predictionInput struct {
	Prompt       string `json:"prompt"`
	Duration     int    `json:"duration"`
	ModelVersion string `json:"model_version"`
	OutputFormat string `json:"output_format"`
}

// prediction is the API's representation of a generation job.
type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

// Generate implements soundfx.Provider.
func (p *Provider) Generate(ctx context.Context, prompt string, duration time.Duration) (*audio.Clip, error) {
	if prompt == "" {
		return nil, errors.New("replicate: prompt must not be empty")
	}
	secs := int(duration / time.Second)
	if secs <= 0 {
		secs = 3
	}

	pred, err := p.createPrediction(ctx, predictionRequest{
		Version: musicgenVersion,
		Input: predictionInput{
			Prompt:       prompt,
			Duration:     secs,
			ModelVersion: "melody",
			OutputFormat: "wav",
		},
	})
	if err != nil {
		return nil, err
	}

	pred, err = p.waitForPrediction(ctx, pred)
	if err != nil {
		return nil, err
	}

	outputURL, err := outputURL(pred)
	if err != nil {
		return nil, err
	}

	raw, err := p.download(ctx, outputURL)
	if err != nil {
		return nil, err
	}

	clip, err := audio.DecodeWAV(raw)
	if err != nil {
		return nil, fmt.Errorf("replicate: decode output: %w", err)
	}
	return clip, nil
}

// createPrediction starts a generation job.
func (p *Provider) createPrediction(ctx context.Context, reqBody predictionRequest) (*prediction, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("replicate: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/predictions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("replicate: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiToken)
	req.Header.Set("Content-Type", "application/json")

	return p.doPrediction(req)
}

// getPrediction fetches the current status of a job.
func (p *Provider) getPrediction(ctx context.Context, id string) (*prediction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/predictions/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("replicate: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiToken)

	return p.doPrediction(req)
}

// doPrediction executes req and decodes the prediction body. 429 responses
// surface as a rate-limit error the retry layer treats specially.
func (p *Provider) doPrediction(req *http.Request) (*prediction, error) {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("replicate: http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, &podcast.RateLimitError{
			RetryAfter: retryAfter,
			Err:        errors.New("replicate: throttled"),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("replicate: unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var pred prediction
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		return nil, fmt.Errorf("replicate: decode response: %w", err)
	}
	return &pred, nil
}

// waitForPrediction polls until the job reaches a terminal status.
func (p *Provider) waitForPrediction(ctx context.Context, pred *prediction) (*prediction, error) {
	deadline := time.Now().Add(p.pollTimeout)
	for {
		switch pred.Status {
		case "succeeded":
			return pred, nil
		case "failed", "canceled":
			return nil, fmt.Errorf("replicate: prediction %s: %s", pred.Status, pred.Error)
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("replicate: prediction %s timed out after %s", pred.ID, p.pollTimeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.pollInterval):
		}

		next, err := p.getPrediction(ctx, pred.ID)
		if err != nil {
			return nil, err
		}
		pred = next
	}
}

// outputURL extracts the audio URL from a succeeded prediction. MusicGen
// returns either a single URL string or a one-element array.
func outputURL(pred *prediction) (string, error) {
	if len(pred.Output) == 0 {
		return "", errors.New("replicate: prediction succeeded without output")
	}
	var single string
	if err := json.Unmarshal(pred.Output, &single); err == nil && single != "" {
		return single, nil
	}
	var many []string
	if err := json.Unmarshal(pred.Output, &many); err == nil && len(many) > 0 {
		return many[0], nil
	}
	return "", fmt.Errorf("replicate: unrecognised output shape: %s", pred.Output)
}

// download fetches the generated audio bytes.
func (p *Provider) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("replicate: build download request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("replicate: download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("replicate: download: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// parseRetryAfter interprets a Retry-After header value in seconds.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	var secs int
	if _, err := fmt.Sscanf(v, "%d", &secs); err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
