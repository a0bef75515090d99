package config

import "time"

// Generative provider names
const (
	ProviderGemini = "gemini"
	ProviderHTTP   = "http"
	ProviderMock   = "mock"
)

// GeminiModels defines which Gemini models to use for different tasks
type GeminiModels struct {
	// Text is used for free-form results and avatar names
	Text string `json:"text"`

	// Image is used for avatar images
	Image string `json:"image"`
}

// AIConfig holds all generative-service configuration
type AIConfig struct {
	Provider   string       `json:"provider"`
	APIKey     string       `json:"-"` // Never serialize
	GatewayURL string       `json:"gatewayUrl,omitempty"`
	Models     GeminiModels `json:"models"`
	TimeoutMS  int          `json:"timeoutMs"`

	// Rate limiting across all generation calls of this process
	RPS   float64 `json:"rps"`
	Burst int     `json:"burst"`

	// Prompt-keyed result cache; size 0 disables it
	CacheSize int           `json:"cacheSize"`
	CacheTTL  time.Duration `json:"cacheTtl"`
}

// DefaultAIConfig returns the AI configuration from the environment
func DefaultAIConfig() *AIConfig {
	cfg := &AIConfig{
		Provider:   getEnv("GEN_PROVIDER", ""),
		APIKey:     getEnv("GEMINI_API_KEY", ""),
		GatewayURL: getEnv("GEN_GATEWAY_URL", ""),
		Models: GeminiModels{
			Text:  getEnv("GEMINI_MODEL_TEXT", "gemini-2.0-flash"),
			Image: getEnv("GEMINI_MODEL_IMAGE", "imagen-3.0-generate-002"),
		},
		TimeoutMS: getEnvInt("GEN_TIMEOUT_MS", 30000),
		RPS:       getEnvFloat("GEN_RPS", 2),
		Burst:     getEnvInt("GEN_BURST", 2),
		CacheSize: getEnvInt("GEN_CACHE_SIZE", 256),
		CacheTTL:  getEnvDuration("GEN_CACHE_TTL", 30*time.Minute),
	}
	if cfg.Provider == "" {
		switch {
		case cfg.APIKey != "":
			cfg.Provider = ProviderGemini
		case cfg.GatewayURL != "":
			cfg.Provider = ProviderHTTP
		default:
			cfg.Provider = ProviderMock
		}
	}
	return cfg
}

// IsEnabled returns true if a real generative backend is configured
func (c *AIConfig) IsEnabled() bool {
	switch c.Provider {
	case ProviderGemini:
		return c.APIKey != ""
	case ProviderHTTP:
		return c.GatewayURL != ""
	}
	return false
}

// Timeout is the per-call timeout
func (c *AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}
