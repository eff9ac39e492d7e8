package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	content := `{
		"org": "contoso",
		"project": "QuickDraw",
		"plan_id": 12,
		"suite_id": 34,
		"mode": "hybrid",
		"max_tests_per_criterion": 3,
		"verbose": true
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "contoso", cfg.Org)
	assert.Equal(t, "QuickDraw", cfg.Project)
	assert.Equal(t, 12, cfg.PlanID)
	assert.Equal(t, 34, cfg.SuiteID)
	assert.Equal(t, ModeHybrid, cfg.Mode)
	assert.Equal(t, 3, cfg.MaxTestsPerCriterion)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{ invalid json }`), 0644))

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, ModeRules, cfg.Mode)
	assert.Equal(t, 2, cfg.MaxTestsPerCriterion)
	assert.Equal(t, 0.88, cfg.EmbeddingThreshold)
	assert.Equal(t, 88.0, cfg.FuzzyThreshold)
	assert.False(t, cfg.DisableDedup)
	assert.Equal(t, "7.1", cfg.APIVersion)
	assert.Equal(t, "7.1-preview.2", cfg.TestPlansAPIVersion)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout())
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Backoff())
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout())
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	cfg := Defaults()
	err := cfg.ApplyEnv(envLookup(map[string]string{
		EnvOrg:         "contoso",
		EnvProject:     "QuickDraw",
		EnvPAT:         "secret",
		EnvPlanID:      "100",
		EnvSuiteID:     " 200 ",
		EnvAPIKey:      "key",
		EnvTemperature: "0.5",
		EnvMaxTokens:   "1200",
		EnvLLMTimeout:  "10",
		EnvModel:       "",
	}))
	require.NoError(t, err)

	assert.Equal(t, "contoso", cfg.Org)
	assert.Equal(t, "QuickDraw", cfg.Project)
	assert.Equal(t, "secret", cfg.PAT)
	assert.Equal(t, 100, cfg.PlanID)
	assert.Equal(t, 200, cfg.SuiteID)
	assert.Equal(t, "key", cfg.APIKey)
	assert.Equal(t, 0.5, cfg.Temperature)
	assert.Equal(t, 1200, cfg.MaxTokens)
	assert.Equal(t, 10*time.Second, cfg.LLMTimeout())
	assert.Equal(t, DefaultModel, cfg.Model, "empty variables are ignored")
}

func TestApplyEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "plan id", env: map[string]string{EnvPlanID: "twelve"}},
		{name: "temperature", env: map[string]string{EnvTemperature: "warm"}},
		{name: "timeout", env: map[string]string{EnvLLMTimeout: "1.5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			err := cfg.ApplyEnv(envLookup(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config error")
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "unknown mode", mutate: func(c *Config) { c.Mode = "ai" }, errMsg: "Mode"},
		{name: "too many tests per criterion", mutate: func(c *Config) { c.MaxTestsPerCriterion = 4 }, errMsg: "MaxTestsPerCriterion"},
		{name: "zero tests per criterion", mutate: func(c *Config) { c.MaxTestsPerCriterion = 0 }, errMsg: "MaxTestsPerCriterion"},
		{name: "embedding threshold", mutate: func(c *Config) { c.EmbeddingThreshold = 1.2 }, errMsg: "EmbeddingThreshold"},
		{name: "fuzzy threshold", mutate: func(c *Config) { c.FuzzyThreshold = 101 }, errMsg: "FuzzyThreshold"},
		{name: "negative plan", mutate: func(c *Config) { c.PlanID = -1 }, errMsg: "PlanID"},
		{name: "bad base url", mutate: func(c *Config) { c.BaseURL = "not a url" }, errMsg: "BaseURL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestRequireADO(t *testing.T) {
	assert.Error(t, (&Config{Org: "o", Project: "p"}).RequireADO())
	assert.Error(t, (&Config{PAT: "x", Org: "o"}).RequireADO())
	assert.NoError(t, (&Config{PAT: "x", Org: "o", Project: "p"}).RequireADO())
	assert.NoError(t, (&Config{PAT: "x", BaseURL: "http://localhost:8080"}).RequireADO())
}

func TestRequireSuite(t *testing.T) {
	assert.Error(t, (&Config{PlanID: 1}).RequireSuite())
	assert.NoError(t, (&Config{PlanID: 1, SuiteID: 2}).RequireSuite())
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := &Config{
		Org:          "contoso",
		PlanID:       7,
		Mode:         ModeHybrid,
		DisableDedup: true,
		Verbose:      true,
	}

	merged := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, "contoso", merged.Org)
	assert.Equal(t, 7, merged.PlanID)
	assert.Equal(t, ModeHybrid, merged.Mode)
	assert.True(t, merged.DisableDedup)
	assert.True(t, merged.Verbose)
	assert.Equal(t, DefaultMaxTestsPerCriterion, merged.MaxTestsPerCriterion)
	assert.Equal(t, DefaultEmbeddingThreshold, merged.EmbeddingThreshold)
	assert.Equal(t, DefaultAPIVersion, merged.APIVersion)
	assert.Equal(t, DefaultModel, merged.Model)

	// original is untouched
	assert.Zero(t, cfg.MaxTestsPerCriterion)
}
