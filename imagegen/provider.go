// Package imagegen implements the resilient image generation pipeline: the
// provider contract over the remote services, the resolver that picks one,
// the retry policy that wraps each call, and the downloader for providers
// that return URLs instead of bytes.
package imagegen

import (
	"context"
	"time"
)

// Service names form the fixed enumerated set of supported providers.
const (
	ServiceHuggingFace = "huggingface"
	ServiceOpenAI      = "openai"
	ServiceStability   = "stability"

	// DefaultService is the free-tier provider used when neither an explicit
	// flag nor a remembered last-used service is available.
	DefaultService = ServiceHuggingFace
)

// ServiceNames returns the supported service names in display order.
func ServiceNames() []string {
	return []string{ServiceHuggingFace, ServiceOpenAI, ServiceStability}
}

// IsKnownService reports whether name is in the supported set.
func IsKnownService(name string) bool {
	switch name {
	case ServiceHuggingFace, ServiceOpenAI, ServiceStability:
		return true
	default:
		return false
	}
}

// Metadata describes a generation result.
type Metadata struct {
	// Service is the provider that produced the image.
	Service string

	// Prompt is the exact prompt text sent to the provider.
	Prompt string

	// GeneratedAt is when the successful attempt completed.
	GeneratedAt time.Time

	// DryRun is set by the workflow when no side effects will be performed.
	DryRun bool

	// Format, Width and Height are filled in by image validation.
	// Format is "" when the bytes could not be decoded.
	Format string
	Width  int
	Height int
}

// Result is the outcome of one successful generation attempt. It is produced
// exactly once per attempt and owned by the workflow until handed to the
// persister.
type Result struct {
	// Bytes is the raw image data returned by the provider.
	Bytes []byte

	// Metadata describes how the image was produced.
	Metadata Metadata
}

// Provider is the uniform contract over a remote image generation service.
//
// Implementations are stateless and safe for concurrent use. Generate
// performs exactly one generation request per invocation and never retries
// internally; retry is the caller's responsibility (see RetryPolicy). Any
// transport or provider-level failure is returned as a classified error from
// the core taxonomy.
type Provider interface {
	// Name returns the service name from the fixed enumerated set.
	Name() string

	// RequiresAPIKey reports whether Generate needs a configured key.
	RequiresAPIKey() bool

	// Timeout is the fixed per-attempt deadline for this service. The retry
	// policy never lets a single attempt run longer than this.
	Timeout() time.Duration

	// Generate creates an image from the prompt. apiKey may be empty for
	// services that do not require one. The context cancels the in-flight
	// network operation when it expires.
	Generate(ctx context.Context, prompt, apiKey string) (*Result, error)
}
