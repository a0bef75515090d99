// Package generative adapts external image and text generation services.
package generative

import (
	"context"
	"errors"
	"fmt"

	"surveyforge/internal/config"
)

var (
	ErrEmptyResponse = errors.New("empty response from generative service")
	ErrNoImage       = errors.New("generative service returned no image")
)

// ImageResult is the output of an image generation
type ImageResult struct {
	URLs []string `json:"urls"`
}

// TextResult is the output of a text generation
type TextResult struct {
	Content string `json:"content"`
}

// ImageGenerator produces images from a single prompt
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (*ImageResult, error)
}

// TextGenerator produces text from a single prompt. The same call shape is used
// for short answers (a name) and long free-form passages.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (*TextResult, error)
}

// Client is a full generative backend
type Client interface {
	ImageGenerator
	TextGenerator
	Name() string
	Close() error
}

// UpstreamError carries a human-readable message reported by the service
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("generative service returned status %d", e.Status)
}

// New builds the configured backend wrapped with caching, logging and rate limiting
func New(ctx context.Context, cfg *config.AIConfig, images ImageStore) (Client, error) {
	var (
		base Client
		err  error
	)
	switch cfg.Provider {
	case config.ProviderGemini:
		base, err = NewGeminiClient(ctx, cfg, images)
	case config.ProviderHTTP:
		base, err = NewHTTPClient(cfg)
	default:
		base = NewMockClient()
	}
	if err != nil {
		return nil, fmt.Errorf("init %s client: %w", cfg.Provider, err)
	}

	mws := []Middleware{}
	if cfg.CacheSize > 0 {
		mws = append(mws, Cache(cfg.CacheSize, cfg.CacheTTL))
	}
	mws = append(mws, Logging(), RateLimit(cfg.RPS, cfg.Burst))
	return Wrap(base, mws...), nil
}
