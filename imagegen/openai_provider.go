package imagegen

import (
	"context"
	"errors"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"bgforge/core"
	"bgforge/logging"
)

const (
	openaiTimeout      = 60 * time.Second
	openaiImageSize    = openai.CreateImageSize1024x1024
	openaiDefaultModel = openai.CreateImageModelDallE3
)

// OpenAIProvider generates images through the OpenAI images API (DALL-E).
// The API returns a short-lived URL; the adapter downloads it so callers
// always receive bytes.
type OpenAIProvider struct {
	client *http.Client
	model  string
	logger *logging.Logger
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates an OpenAI adapter. The model can be overridden
// with OPENAI_IMAGE_MODEL.
func NewOpenAIProvider(client *http.Client, logger *logging.Logger) *OpenAIProvider {
	return &OpenAIProvider{
		client: client,
		model:  core.EnvOrDefault("OPENAI_IMAGE_MODEL", openaiDefaultModel),
		logger: logger.Named("openai"),
	}
}

func (p *OpenAIProvider) Name() string           { return ServiceOpenAI }
func (p *OpenAIProvider) RequiresAPIKey() bool   { return true }
func (p *OpenAIProvider) Timeout() time.Duration { return openaiTimeout }

// Generate performs one image creation call followed by the URL download.
// Both halves run under the same context, so the per-attempt deadline covers
// the download too.
func (p *OpenAIProvider) Generate(ctx context.Context, prompt, apiKey string) (*Result, error) {
	cfg := openai.DefaultConfig(apiKey)
	cfg.HTTPClient = p.client
	client := openai.NewClientWithConfig(cfg)

	p.logger.Debug("sending generation request",
		zap.String("model", p.model),
		zap.String("prompt", truncateText(prompt, 80)))

	resp, err := client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          p.model,
		Size:           openaiImageSize,
		ResponseFormat: openai.CreateImageResponseFormatURL,
		N:              1,
	})
	if err != nil {
		return nil, classifyOpenAIError(err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return nil, &core.NetworkError{Service: ServiceOpenAI, Message: "response contained no image URL"}
	}

	data, err := DownloadBytes(ctx, p.client, ServiceOpenAI, resp.Data[0].URL)
	if err != nil {
		return nil, err
	}

	return &Result{
		Bytes: data,
		Metadata: Metadata{
			Service:     ServiceOpenAI,
			Prompt:      prompt,
			GeneratedAt: time.Now(),
		},
	}, nil
}

// classifyOpenAIError maps go-openai error types onto the shared taxonomy so
// the retry policy sees the same shapes it gets from the raw-HTTP providers.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return core.ClassifyHTTPStatus(ServiceOpenAI, apiErr.HTTPStatusCode, apiErr.Message, 0)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode != 0 {
			return core.ClassifyHTTPStatus(ServiceOpenAI, reqErr.HTTPStatusCode, reqErr.Error(), 0)
		}
		return core.ClassifyTransport(ServiceOpenAI, reqErr)
	}
	return core.ClassifyTransport(ServiceOpenAI, err)
}
