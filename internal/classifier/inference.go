package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Inference talks to a hosted text-classification endpoint speaking the
// common inference-API shape: POST {"inputs": text} returning either
// [{"label","score"}...] or the nested [[{"label","score"}...]] form.
type Inference struct {
	url        string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewInference(url, apiKey, model string) *Inference {
	return &Inference{
		url:        url,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Inference) Name() string  { return "inference" }
func (c *Inference) Model() string { return c.model }

// Ready probes the endpoint without spending an inference call. A 503 means
// the model is still loading; 405 just means the endpoint rejects GET, which
// still proves it is routable.
func (c *Inference) Ready(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return false
	}
	c.authorize(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode != http.StatusServiceUnavailable
}

func (c *Inference) RawScores(ctx context.Context, text string) (Raw, error) {
	body, _ := json.Marshal(map[string]any{"inputs": text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusServiceUnavailable {
		return nil, ErrUnavailable
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("inference call failed: %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var nested [][]ClassScore
	if err := json.Unmarshal(payload, &nested); err == nil && len(nested) > 0 {
		return Raw(nested[0]), nil
	}

	// Some deployments return the flat form.
	var flat []ClassScore
	if err := json.Unmarshal(payload, &flat); err != nil {
		return nil, fmt.Errorf("decode inference response: %w", err)
	}
	if len(flat) == 0 {
		return nil, fmt.Errorf("empty inference response")
	}
	return Raw(flat), nil
}

func (c *Inference) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
