package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, ProviderGemini, config.Provider)
	assert.Equal(t, "gemini-2.5-flash-lite", config.GetModel(TierLite))
	assert.Equal(t, "gemini-2.5-flash", config.GetModel(TierStandard))
	assert.Len(t, config.Models, 2)
}

func TestGetModel_Fallback(t *testing.T) {
	config := &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite: "fallback-model",
		},
	}

	// Unknown tier should fallback to TierStandard, then TierLite
	assert.Equal(t, "fallback-model", config.GetModel("unknown"))
}

func TestGetModel_EmptyConfig(t *testing.T) {
	config := &Config{
		Provider: ProviderGemini,
		Models:   map[ModelTier]string{},
	}

	// Empty config should return empty string
	assert.Equal(t, "", config.GetModel(TierStandard))
}

func TestWithModel(t *testing.T) {
	config := DefaultConfig()
	newConfig := config.WithModel(TierStandard, "custom-model")

	// Original should be unchanged
	assert.Equal(t, "gemini-2.5-flash", config.GetModel(TierStandard))

	// New config should have custom model
	assert.Equal(t, "custom-model", newConfig.GetModel(TierStandard))

	// Other tiers should be copied
	assert.Equal(t, "gemini-2.5-flash-lite", newConfig.GetModel(TierLite))
}

func TestModelTierConstants(t *testing.T) {
	assert.Equal(t, ModelTier("lite"), TierLite)
	assert.Equal(t, ModelTier("standard"), TierStandard)
}

func TestProviderConstants(t *testing.T) {
	assert.Equal(t, Provider("gemini"), ProviderGemini)
}

func TestDefaultConfig_Generation(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, DefaultTemperature, config.Temperature)
	assert.Equal(t, DefaultMaxOutputTokens, config.MaxOutputTokens)
	assert.Equal(t, DefaultEmbeddingModel, config.EmbeddingModel)
}

func TestWithGeneration(t *testing.T) {
	config := DefaultConfig()

	tuned := config.WithGeneration(0.5, 2048)
	assert.Equal(t, float32(0.5), tuned.Temperature)
	assert.Equal(t, int32(2048), tuned.MaxOutputTokens)
	assert.Equal(t, DefaultTemperature, config.Temperature)

	kept := config.WithGeneration(0, 0)
	assert.Equal(t, config.Temperature, kept.Temperature)
	assert.Equal(t, config.MaxOutputTokens, kept.MaxOutputTokens)
	assert.Equal(t, config.GetModel(TierLite), kept.GetModel(TierLite))
}
