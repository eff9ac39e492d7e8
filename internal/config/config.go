// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Generation modes.
const (
	ModeRules  = "rules"
	ModeHybrid = "hybrid"
)

// Defaults.
const (
	DefaultMode                 = ModeRules
	DefaultMaxTestsPerCriterion = 2
	DefaultEmbeddingThreshold   = 0.88
	DefaultFuzzyThreshold       = 88
	DefaultAPIVersion           = "7.1"
	DefaultTestPlansAPIVersion  = "7.1-preview.2"
	DefaultHTTPTimeoutSeconds   = 30
	DefaultMaxRetries           = 3
	DefaultBackoffSeconds       = 0.5
	DefaultModel                = "gemini-2.5-flash-lite"
	DefaultEmbeddingModel       = "text-embedding-004"
	DefaultTemperature          = 0.2
	DefaultMaxTokens            = 900
	DefaultLLMTimeoutSeconds    = 30
)

// Environment keys.
const (
	EnvOrg            = "ADO_ORG"
	EnvProject        = "ADO_PROJECT"
	EnvPAT            = "ADO_PAT"
	EnvBaseURL        = "ADO_BASE_URL"
	EnvPlanID         = "ADO_TEST_PLAN_ID"
	EnvSuiteID        = "ADO_TEST_SUITE_ID"
	EnvAPIKey         = "GEMINI_API_KEY"
	EnvModel          = "TESTGEN_MODEL"
	EnvEmbeddingModel = "TESTGEN_EMBEDDING_MODEL"
	EnvTemperature    = "LLM_TEMPERATURE"
	EnvMaxTokens      = "LLM_MAX_TOKENS"
	EnvLLMTimeout     = "LLM_TIMEOUT_SECONDS"
	EnvDatabaseURL    = "DATABASE_URL"
)

// Config is the resolved run configuration. It can be loaded from a JSON
// file; values missing there are filled from Defaults, then overridden by the
// environment and finally by CLI flags.
type Config struct {
	// Azure DevOps
	Org                 string  `json:"org,omitempty"`
	Project             string  `json:"project,omitempty"`
	PAT                 string  `json:"pat,omitempty"`
	BaseURL             string  `json:"base_url,omitempty" validate:"omitempty,url"`
	PlanID              int     `json:"plan_id,omitempty" validate:"gte=0"`
	SuiteID             int     `json:"suite_id,omitempty" validate:"gte=0"`
	APIVersion          string  `json:"api_version,omitempty"`
	TestPlansAPIVersion string  `json:"test_plans_api_version,omitempty"`
	HTTPTimeoutSeconds  int     `json:"http_timeout_seconds,omitempty" validate:"gte=0"`
	MaxRetries          int     `json:"max_retries,omitempty" validate:"gte=0,lte=10"`
	BackoffSeconds      float64 `json:"backoff_seconds,omitempty" validate:"gte=0"`

	// Generation
	Mode                 string  `json:"mode,omitempty" validate:"oneof=rules hybrid"`
	MaxTestsPerCriterion int     `json:"max_tests_per_criterion,omitempty" validate:"gte=1,lte=3"`
	EmbeddingThreshold   float64 `json:"embedding_threshold,omitempty" validate:"gte=0,lte=1"`
	FuzzyThreshold       float64 `json:"fuzzy_threshold,omitempty" validate:"gte=0,lte=100"`
	DisableDedup         bool    `json:"disable_dedup,omitempty"`

	// Advisor
	APIKey            string  `json:"api_key,omitempty"`
	Model             string  `json:"model,omitempty"`
	EmbeddingModel    string  `json:"embedding_model,omitempty"`
	Temperature       float64 `json:"temperature,omitempty" validate:"gte=0,lte=2"`
	MaxTokens         int     `json:"max_tokens,omitempty" validate:"gte=0"`
	LLMTimeoutSeconds int     `json:"llm_timeout_seconds,omitempty" validate:"gte=0"`

	// Behavior
	Verbose     bool   `json:"verbose,omitempty"`
	DatabaseURL string `json:"database_url,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		APIVersion:           DefaultAPIVersion,
		TestPlansAPIVersion:  DefaultTestPlansAPIVersion,
		HTTPTimeoutSeconds:   DefaultHTTPTimeoutSeconds,
		MaxRetries:           DefaultMaxRetries,
		BackoffSeconds:       DefaultBackoffSeconds,
		Mode:                 DefaultMode,
		MaxTestsPerCriterion: DefaultMaxTestsPerCriterion,
		EmbeddingThreshold:   DefaultEmbeddingThreshold,
		FuzzyThreshold:       DefaultFuzzyThreshold,
		Model:                DefaultModel,
		EmbeddingModel:       DefaultEmbeddingModel,
		Temperature:          DefaultTemperature,
		MaxTokens:            DefaultMaxTokens,
		LLMTimeoutSeconds:    DefaultLLMTimeoutSeconds,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv overrides fields from environment variables read through lookup.
// Unset and empty variables leave the field alone.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	for key, dst := range map[string]*string{
		EnvOrg:            &c.Org,
		EnvProject:        &c.Project,
		EnvPAT:            &c.PAT,
		EnvBaseURL:        &c.BaseURL,
		EnvAPIKey:         &c.APIKey,
		EnvModel:          &c.Model,
		EnvEmbeddingModel: &c.EmbeddingModel,
		EnvDatabaseURL:    &c.DatabaseURL,
	} {
		if v, ok := get(key); ok {
			*dst = v
		}
	}

	for key, dst := range map[string]*int{
		EnvPlanID:     &c.PlanID,
		EnvSuiteID:    &c.SuiteID,
		EnvMaxTokens:  &c.MaxTokens,
		EnvLLMTimeout: &c.LLMTimeoutSeconds,
	} {
		if v, ok := get(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("config error: %s must be an integer, got %q", key, v)
			}
			*dst = n
		}
	}

	if v, ok := get(EnvTemperature); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config error: %s must be a number, got %q", EnvTemperature, v)
		}
		c.Temperature = f
	}
	return nil
}

// Validate checks field ranges. Required connection settings are checked
// separately by RequireADO and RequireSuite because not every command needs them.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// RequireADO checks that the tracker can be reached.
func (c *Config) RequireADO() error {
	if c.PAT == "" {
		return fmt.Errorf("config error: personal access token is required (set %s)", EnvPAT)
	}
	if c.BaseURL == "" && (c.Org == "" || c.Project == "") {
		return fmt.Errorf("config error: organization and project are required (set %s and %s, or %s)", EnvOrg, EnvProject, EnvBaseURL)
	}
	return nil
}

// RequireSuite checks that a publish target is configured.
func (c *Config) RequireSuite() error {
	if c.PlanID <= 0 || c.SuiteID <= 0 {
		return fmt.Errorf("config error: test plan and suite ids are required (--plan-id/%s, --suite-id/%s)", EnvPlanID, EnvSuiteID)
	}
	return nil
}

// HTTPTimeout returns the tracker request timeout.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// Backoff returns the base retry delay.
func (c *Config) Backoff() time.Duration {
	return time.Duration(c.BackoffSeconds * float64(time.Second))
}

// LLMTimeout returns the per-call advisor timeout.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

// MergeWithDefaults returns a new Config with zero fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	for _, f := range []struct{ dst, def *string }{
		{&result.Org, &defaults.Org},
		{&result.Project, &defaults.Project},
		{&result.PAT, &defaults.PAT},
		{&result.BaseURL, &defaults.BaseURL},
		{&result.APIVersion, &defaults.APIVersion},
		{&result.TestPlansAPIVersion, &defaults.TestPlansAPIVersion},
		{&result.Mode, &defaults.Mode},
		{&result.APIKey, &defaults.APIKey},
		{&result.Model, &defaults.Model},
		{&result.EmbeddingModel, &defaults.EmbeddingModel},
		{&result.DatabaseURL, &defaults.DatabaseURL},
	} {
		if *f.dst == "" {
			*f.dst = *f.def
		}
	}

	// Int fields: use default if zero
	for _, f := range []struct{ dst, def *int }{
		{&result.PlanID, &defaults.PlanID},
		{&result.SuiteID, &defaults.SuiteID},
		{&result.HTTPTimeoutSeconds, &defaults.HTTPTimeoutSeconds},
		{&result.MaxRetries, &defaults.MaxRetries},
		{&result.MaxTestsPerCriterion, &defaults.MaxTestsPerCriterion},
		{&result.MaxTokens, &defaults.MaxTokens},
		{&result.LLMTimeoutSeconds, &defaults.LLMTimeoutSeconds},
	} {
		if *f.dst == 0 {
			*f.dst = *f.def
		}
	}

	// Float fields
	for _, f := range []struct{ dst, def *float64 }{
		{&result.BackoffSeconds, &defaults.BackoffSeconds},
		{&result.EmbeddingThreshold, &defaults.EmbeddingThreshold},
		{&result.FuzzyThreshold, &defaults.FuzzyThreshold},
		{&result.Temperature, &defaults.Temperature},
	} {
		if *f.dst == 0 {
			*f.dst = *f.def
		}
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
