// Package client talks to the prediction service and drives the symptom form.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultTimeout = 10 * time.Second

// ErrUnreachable wraps transport failures: refused connections, DNS errors, timeouts.
var ErrUnreachable = errors.New("prediction service unreachable")

// Result mirrors the /predict response body.
type Result struct {
	Prediction string `json:"prediction"`
	Confidence string `json:"confidence"`
	Error      string `json:"error"`
}

// Failed reports whether the service answered with an error body.
func (r Result) Failed() bool {
	return r.Error != ""
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Predict posts features keyed by name. An error body from the service is not
// a Go error; check Result.Failed.
func (c *Client) Predict(ctx context.Context, features map[string]float64) (Result, error) {
	body, err := json.Marshal(features)
	if err != nil {
		return Result{}, fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("decode response: %w", err)
	}
	if !result.Failed() && result.Prediction == "" {
		return Result{}, errors.New("response has neither prediction nor error")
	}
	return result, nil
}
