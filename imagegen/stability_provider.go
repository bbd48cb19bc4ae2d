package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"bgforge/core"
	"bgforge/logging"
)

const (
	stabilityTimeout       = 90 * time.Second
	stabilityDefaultEngine = "stable-diffusion-xl-1024-v1-0"
	stabilityEndpoint      = "https://api.stability.ai/v1/generation/%s/text-to-image"
)

// StabilityProvider generates images through the Stability AI REST API.
// Requesting Accept: image/png makes the API return raw bytes instead of a
// base64 JSON envelope.
type StabilityProvider struct {
	client   *http.Client
	engine   string
	endpoint string
	logger   *logging.Logger
}

var _ Provider = (*StabilityProvider)(nil)

// NewStabilityProvider creates a Stability adapter. The engine can be
// overridden with STABILITY_ENGINE.
func NewStabilityProvider(client *http.Client, logger *logging.Logger) *StabilityProvider {
	return &StabilityProvider{
		client:   client,
		engine:   core.EnvOrDefault("STABILITY_ENGINE", stabilityDefaultEngine),
		endpoint: stabilityEndpoint,
		logger:   logger.Named("stability"),
	}
}

func (p *StabilityProvider) Name() string           { return ServiceStability }
func (p *StabilityProvider) RequiresAPIKey() bool   { return true }
func (p *StabilityProvider) Timeout() time.Duration { return stabilityTimeout }

// Generate performs one text-to-image call against the configured engine.
func (p *StabilityProvider) Generate(ctx context.Context, prompt, apiKey string) (*Result, error) {
	payload, err := json.Marshal(map[string]any{
		"text_prompts": []map[string]any{{"text": prompt}},
		"samples":      1,
	})
	if err != nil {
		return nil, fmt.Errorf("imagegen: marshal stability request: %w", err)
	}

	url := fmt.Sprintf(p.endpoint, p.engine)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("imagegen: build stability request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/png")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	p.logger.Debug("sending generation request",
		zap.String("engine", p.engine),
		zap.String("prompt", truncateText(prompt, 80)))

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, core.ClassifyTransport(ServiceStability, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.ClassifyHTTPStatus(ServiceStability, resp.StatusCode,
			stabilityErrorMessage(resp.Body), parseRetryAfter(resp.Header))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, core.ClassifyTransport(ServiceStability, err)
	}
	if len(data) == 0 {
		return nil, &core.NetworkError{Service: ServiceStability, Message: "empty response body"}
	}

	return &Result{
		Bytes: data,
		Metadata: Metadata{
			Service:     ServiceStability,
			Prompt:      prompt,
			GeneratedAt: time.Now(),
		},
	}, nil
}

// stabilityErrorMessage extracts the message from a Stability failure body.
func stabilityErrorMessage(body io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(body, 2048))
	var parsed struct {
		Message string `json:"message"`
		Name    string `json:"name"`
	}
	if json.Unmarshal(raw, &parsed) == nil && parsed.Message != "" {
		return parsed.Message
	}
	return truncateText(string(raw), 200)
}
