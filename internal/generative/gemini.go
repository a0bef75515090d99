package generative

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"surveyforge/internal/config"
)

// GeminiClient calls Gemini for text and Imagen for images through the genai SDK
type GeminiClient struct {
	cli        *genai.Client
	textModel  string
	imageModel string
	images     ImageStore
}

// NewGeminiClient creates a Gemini-backed client. images may be nil, in which
// case generated bytes are returned as data URLs.
func NewGeminiClient(ctx context.Context, cfg *config.AIConfig, images ImageStore) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{
		cli:        cli,
		textModel:  cfg.Models.Text,
		imageModel: cfg.Models.Image,
		images:     images,
	}, nil
}

func (g *GeminiClient) Name() string { return "gemini:" + g.textModel + "+" + g.imageModel }
func (g *GeminiClient) Close() error { return nil }

// GenerateText returns the concatenated text parts of the first candidate
func (g *GeminiClient) GenerateText(ctx context.Context, prompt string) (*TextResult, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.textModel,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt}}}},
		nil,
	)
	if err != nil {
		return nil, upstream(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	content := strings.TrimSpace(sb.String())
	if content == "" {
		return nil, ErrEmptyResponse
	}
	return &TextResult{Content: content}, nil
}

// GenerateImage generates one image and returns a URL for it
func (g *GeminiClient) GenerateImage(ctx context.Context, prompt string) (*ImageResult, error) {
	resp, err := g.cli.Models.GenerateImages(ctx, g.imageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		return nil, upstream(err)
	}

	out := &ImageResult{}
	for _, gen := range resp.GeneratedImages {
		if gen == nil || gen.Image == nil {
			continue
		}
		switch {
		case gen.Image.GCSURI != "":
			out.URLs = append(out.URLs, gen.Image.GCSURI)
		case len(gen.Image.ImageBytes) > 0:
			url, err := g.storeImage(ctx, gen.Image.ImageBytes, gen.Image.MIMEType)
			if err != nil {
				return nil, fmt.Errorf("store generated image: %w", err)
			}
			out.URLs = append(out.URLs, url)
		}
	}
	if len(out.URLs) == 0 {
		return nil, ErrNoImage
	}
	return out, nil
}

func (g *GeminiClient) storeImage(ctx context.Context, data []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "image/png"
	}
	if g.images == nil {
		return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
	}
	return g.images.PutImage(ctx, data, mimeType)
}

// upstream keeps the SDK's message when it reports an API error
func upstream(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{Status: apiErr.Code, Message: apiErr.Message}
	}
	return err
}
