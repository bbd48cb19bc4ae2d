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

// Default model and timeout for the HuggingFace inference API. The free tier
// is slow when the model is cold, hence the generous per-attempt deadline.
const (
	hfDefaultModel = "stabilityai/stable-diffusion-xl-base-1.0"
	hfTimeout      = 120 * time.Second
	hfEndpoint     = "https://api-inference.huggingface.co/models/"
)

// HuggingFaceProvider generates images through the HuggingFace inference API.
// It works without a key on the free tier; when a key is configured it is
// sent as a bearer token for higher rate limits.
type HuggingFaceProvider struct {
	client   *http.Client
	model    string
	endpoint string
	logger   *logging.Logger
}

var _ Provider = (*HuggingFaceProvider)(nil)

// NewHuggingFaceProvider creates a HuggingFace adapter. The model can be
// overridden with HUGGINGFACE_MODEL.
func NewHuggingFaceProvider(client *http.Client, logger *logging.Logger) *HuggingFaceProvider {
	return &HuggingFaceProvider{
		client:   client,
		model:    core.EnvOrDefault("HUGGINGFACE_MODEL", hfDefaultModel),
		endpoint: hfEndpoint,
		logger:   logger.Named("huggingface"),
	}
}

func (p *HuggingFaceProvider) Name() string           { return ServiceHuggingFace }
func (p *HuggingFaceProvider) RequiresAPIKey() bool   { return false }
func (p *HuggingFaceProvider) Timeout() time.Duration { return hfTimeout }

// Generate performs one inference call. The API returns raw image bytes on
// success and a JSON error body otherwise.
func (p *HuggingFaceProvider) Generate(ctx context.Context, prompt, apiKey string) (*Result, error) {
	payload, err := json.Marshal(map[string]string{"inputs": prompt})
	if err != nil {
		return nil, fmt.Errorf("imagegen: marshal huggingface request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+p.model, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("imagegen: build huggingface request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	p.logger.Debug("sending generation request",
		zap.String("model", p.model),
		zap.String("prompt", truncateText(prompt, 80)))

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, core.ClassifyTransport(ServiceHuggingFace, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.ClassifyHTTPStatus(ServiceHuggingFace, resp.StatusCode,
			hfErrorMessage(resp.Body), parseRetryAfter(resp.Header))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, core.ClassifyTransport(ServiceHuggingFace, err)
	}
	if len(data) == 0 {
		return nil, &core.NetworkError{Service: ServiceHuggingFace, Message: "empty response body"}
	}

	return &Result{
		Bytes: data,
		Metadata: Metadata{
			Service:     ServiceHuggingFace,
			Prompt:      prompt,
			GeneratedAt: time.Now(),
		},
	}, nil
}

// hfErrorMessage extracts the "error" field from a HuggingFace failure body,
// falling back to the raw text.
func hfErrorMessage(body io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(body, 2048))
	var parsed struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &parsed) == nil && parsed.Error != "" {
		return parsed.Error
	}
	return truncateText(string(raw), 200)
}
