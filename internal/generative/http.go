package generative

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"surveyforge/internal/config"
)

// HTTPClient talks to a generative gateway exposing
// POST /v1/images {prompt} -> {urls} and POST /v1/text {prompt} -> {content}.
type HTTPClient struct {
	client *resty.Client
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type gatewayError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewHTTPClient creates a gateway client
func NewHTTPClient(cfg *config.AIConfig) (*HTTPClient, error) {
	if cfg == nil {
		return nil, errors.New("configuration cannot be nil")
	}
	if cfg.GatewayURL == "" {
		return nil, errors.New("GEN_GATEWAY_URL is not set")
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.GatewayURL, "/")).
		SetTimeout(cfg.Timeout()).
		SetHeader("Content-Type", "application/json").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	return &HTTPClient{client: client}, nil
}

func (c *HTTPClient) Name() string { return "http:" + c.client.BaseURL }
func (c *HTTPClient) Close() error { return nil }

func (c *HTTPClient) GenerateImage(ctx context.Context, prompt string) (*ImageResult, error) {
	var out ImageResult
	var apiErr gatewayError
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(promptRequest{Prompt: prompt}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/v1/images")
	if err != nil {
		log.Error().Err(err).Msg("generate-image request failed")
		return nil, fmt.Errorf("generate image: %w", err)
	}
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Str("body", resp.String()).Msg("generate-image non-2xx")
		return nil, &UpstreamError{Status: resp.StatusCode(), Message: apiErr.message()}
	}
	if len(out.URLs) == 0 {
		return nil, ErrNoImage
	}
	return &out, nil
}

func (c *HTTPClient) GenerateText(ctx context.Context, prompt string) (*TextResult, error) {
	var out TextResult
	var apiErr gatewayError
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(promptRequest{Prompt: prompt}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/v1/text")
	if err != nil {
		log.Error().Err(err).Msg("generate-text request failed")
		return nil, fmt.Errorf("generate text: %w", err)
	}
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Str("body", resp.String()).Msg("generate-text non-2xx")
		return nil, &UpstreamError{Status: resp.StatusCode(), Message: apiErr.message()}
	}
	if strings.TrimSpace(out.Content) == "" {
		return nil, ErrEmptyResponse
	}
	return &out, nil
}

func (e gatewayError) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}
