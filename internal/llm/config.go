// Package llm provides LLM configuration and client abstractions for the
// scenario advisor and the semantic duplicate signal.
package llm

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for simple tasks: scenario proposals
	TierLite ModelTier = "lite"
	// TierStandard is the fallback for tiers without a configured model
	TierStandard ModelTier = "standard"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
)

// Generation defaults.
const (
	DefaultTemperature     float32 = 0.2
	DefaultMaxOutputTokens int32   = 900
	DefaultEmbeddingModel          = "text-embedding-004"
)

// Config holds the model configuration for the application
type Config struct {
	Provider        Provider
	Models          map[ModelTier]string
	EmbeddingModel  string
	Temperature     float32
	MaxOutputTokens int32
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
		},
		EmbeddingModel:  DefaultEmbeddingModel,
		Temperature:     DefaultTemperature,
		MaxOutputTokens: DefaultMaxOutputTokens,
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return "" // No model configured
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := c.clone()
	newConfig.Models[tier] = model
	return newConfig
}

// WithGeneration returns a new Config with the given sampling settings.
// Non-positive values keep the current setting.
func (c *Config) WithGeneration(temperature float32, maxOutputTokens int32) *Config {
	newConfig := c.clone()
	if temperature > 0 {
		newConfig.Temperature = temperature
	}
	if maxOutputTokens > 0 {
		newConfig.MaxOutputTokens = maxOutputTokens
	}
	return newConfig
}

func (c *Config) clone() *Config {
	newConfig := &Config{
		Provider:        c.Provider,
		Models:          make(map[ModelTier]string, len(c.Models)),
		EmbeddingModel:  c.EmbeddingModel,
		Temperature:     c.Temperature,
		MaxOutputTokens: c.MaxOutputTokens,
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	return newConfig
}
