package result

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"surveyforge/internal/generative"
	"surveyforge/internal/model"
	"surveyforge/internal/prompt"
)

// Defaults applied when an author leaves a field blank
const (
	DefaultAvatarTitle        = "Your AI Avatar"
	DefaultAvatarInstructions = "Create a friendly, colorful illustrated avatar that reflects this person's personality and interests."

	DefaultCustomTitle  = "Your Personalized Result"
	DefaultCustomPrompt = "Write a short, encouraging, personalized message for this person based on their survey answers."

	DefaultMessageTitle = "Thank you!"
	DefaultMessage      = "Thank you for completing the survey! Your responses have been recorded."

	DefaultDiscountTitle   = "Your Reward"
	DefaultDiscountCode    = "THANKYOU10"
	DefaultDiscountMessage = "Use this code at checkout to get 10% off your next purchase."

	DefaultCTALabel = "Learn More"
	DefaultCTAURL   = "/"
)

var (
	ErrNoImageURL        = errors.New("image generation returned no image URL")
	ErrImagesUnavailable = errors.New("image generation is not configured")
	ErrTextUnavailable   = errors.New("text generation is not configured")
	ErrEmptyContent      = errors.New("text generation returned empty content")
)

func avatarVariant() *Variant {
	return &Variant{
		Type:        model.ComponentAIAvatar,
		Kind:        KindChainedCall,
		Description: "AI-generated avatar image with a generated display name",
		DefaultConfig: func() model.ComponentConfig {
			return model.AvatarConfig{Title: DefaultAvatarTitle, AIInstructions: DefaultAvatarInstructions}
		},
		Decoder:        decodeAs[model.AvatarConfig],
		Generate:       generateAvatar,
		View:           viewAvatar,
		FailureMessage: "Failed to generate your avatar",
	}
}

func customAIVariant() *Variant {
	return &Variant{
		Type:        model.ComponentAICustom,
		Kind:        KindSingleCall,
		Description: "Free-form AI text generated from a custom prompt and the respondent's answers",
		DefaultConfig: func() model.ComponentConfig {
			return model.CustomAIConfig{Title: DefaultCustomTitle, Prompt: DefaultCustomPrompt}
		},
		Decoder:        decodeAs[model.CustomAIConfig],
		Generate:       generateCustom,
		View:           viewCustom,
		FailureMessage: "Failed to generate your personalized result",
	}
}

func messageVariant() *Variant {
	return &Variant{
		Type:        model.ComponentCustomMessage,
		Description: "Static message block",
		DefaultConfig: func() model.ComponentConfig {
			return model.MessageConfig{Title: DefaultMessageTitle, Message: DefaultMessage}
		},
		Decoder: decodeAs[model.MessageConfig],
		View:    viewMessage,
	}
}

func discountVariant() *Variant {
	return &Variant{
		Type:        model.ComponentDiscountCode,
		Description: "Static discount code",
		DefaultConfig: func() model.ComponentConfig {
			return model.DiscountConfig{Title: DefaultDiscountTitle, Code: DefaultDiscountCode, Message: DefaultDiscountMessage}
		},
		Decoder: decodeAs[model.DiscountConfig],
		View:    viewDiscount,
	}
}

func ctaVariant() *Variant {
	return &Variant{
		Type:        model.ComponentCTAButton,
		Description: "Call-to-action button",
		DefaultConfig: func() model.ComponentConfig {
			return model.CTAConfig{Label: DefaultCTALabel, URL: DefaultCTAURL}
		},
		Decoder: decodeAs[model.CTAConfig],
		View:    viewCTA,
	}
}

// generateAvatar generates the image, then a name for it. The image is the
// primary payload: only its failure fails the component.
func generateAvatar(ctx context.Context, caps Capabilities, cfg model.ComponentConfig, qc Context) (model.Payload, error) {
	c, ok := cfg.(model.AvatarConfig)
	if !ok {
		return nil, fmt.Errorf("ai-avatar got %T config", cfg)
	}
	if caps.Images == nil {
		return nil, ErrImagesUnavailable
	}

	imagePrompt := prompt.BuildImagePrompt(orDefault(c.AIInstructions, DefaultAvatarInstructions), qc.Questions, qc.Answers)
	img, err := caps.Images.GenerateImage(ctx, imagePrompt)
	if err != nil {
		return nil, err
	}
	imageURL := firstURL(img)
	if imageURL == "" {
		return nil, ErrNoImageURL
	}

	return model.AvatarPayload{
		ImageURL:   imageURL,
		AvatarName: avatarName(ctx, caps.Text, imagePrompt),
		Prompt:     imagePrompt,
	}, nil
}

// avatarName never fails; any problem yields the default name
func avatarName(ctx context.Context, text generative.TextGenerator, imagePrompt string) (name string) {
	name = prompt.DefaultAvatarName
	if text == nil {
		return name
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("avatar name step panicked, using default name")
			name = prompt.DefaultAvatarName
		}
	}()

	res, err := text.GenerateText(ctx, prompt.BuildAvatarNamePrompt(imagePrompt))
	if err != nil {
		log.Debug().Err(err).Msg("avatar name generation failed, using default name")
		return name
	}
	if res == nil {
		return name
	}
	if parsed, ok := prompt.ParseAvatarName(res.Content); ok {
		return parsed
	}
	log.Debug().Str("content", res.Content).Msg("avatar name unparsable, using default name")
	return name
}

func generateCustom(ctx context.Context, caps Capabilities, cfg model.ComponentConfig, qc Context) (model.Payload, error) {
	c, ok := cfg.(model.CustomAIConfig)
	if !ok {
		return nil, fmt.Errorf("ai-custom got %T config", cfg)
	}
	if caps.Text == nil {
		return nil, ErrTextUnavailable
	}

	res, err := caps.Text.GenerateText(ctx, prompt.BuildTextPrompt(orDefault(c.Prompt, DefaultCustomPrompt), qc.Questions, qc.Answers))
	if err != nil {
		return nil, err
	}
	if res == nil || strings.TrimSpace(res.Content) == "" {
		return nil, ErrEmptyContent
	}
	return model.CustomAIPayload{
		Content:  strings.TrimSpace(res.Content),
		Title:    c.Title,
		Sections: c.Sections,
	}, nil
}

func firstURL(img *generative.ImageResult) string {
	if img == nil {
		return ""
	}
	for _, u := range img.URLs {
		if u = strings.TrimSpace(u); u != "" {
			return u
		}
	}
	return ""
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
