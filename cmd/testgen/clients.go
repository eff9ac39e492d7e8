package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jonathan/ado-testgen/internal/ado"
	"github.com/jonathan/ado-testgen/internal/config"
	"github.com/jonathan/ado-testgen/internal/db"
	"github.com/jonathan/ado-testgen/internal/llm"
)

func newADOClient(cfg config.Config, logger *zap.Logger) (*ado.Client, error) {
	if err := cfg.RequireADO(); err != nil {
		return nil, err
	}
	return ado.NewClient(ado.Options{
		Org:                 cfg.Org,
		Project:             cfg.Project,
		PAT:                 cfg.PAT,
		BaseURL:             cfg.BaseURL,
		APIVersion:          cfg.APIVersion,
		TestPlansAPIVersion: cfg.TestPlansAPIVersion,
		Timeout:             cfg.HTTPTimeout(),
		MaxRetries:          cfg.MaxRetries,
		Backoff:             cfg.Backoff(),
		Logger:              logger,
	})
}

func newLLMClient(ctx context.Context, cfg config.Config) (*llm.GeminiClient, error) {
	llmCfg := llm.DefaultConfig().
		WithModel(llm.TierLite, cfg.Model).
		WithGeneration(float32(cfg.Temperature), int32(cfg.MaxTokens))
	llmCfg.EmbeddingModel = cfg.EmbeddingModel
	return llm.NewClient(ctx, llmCfg, cfg.APIKey)
}

// openHistory connects to the run-history database. Failures are reported
// and the run continues without persistence.
func openHistory(ctx context.Context, cfg config.Config, logger *zap.Logger) *db.DB {
	if cfg.DatabaseURL == "" {
		return nil
	}
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to connect to database: %v\n", err)
		fmt.Fprintf(os.Stderr, "Continuing without run history...\n")
		return nil
	}
	if err := database.EnsureSchema(ctx); err != nil {
		logger.Warn("run history disabled", zap.Error(err))
		database.Close()
		return nil
	}
	return database
}
