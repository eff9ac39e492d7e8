package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/ado-testgen/internal/advisor"
	"github.com/jonathan/ado-testgen/internal/catalog"
	"github.com/jonathan/ado-testgen/internal/config"
	"github.com/jonathan/ado-testgen/internal/dedup"
	"github.com/jonathan/ado-testgen/internal/logging"
	"github.com/jonathan/ado-testgen/internal/observability"
	"github.com/jonathan/ado-testgen/internal/pipeline"
	"github.com/jonathan/ado-testgen/internal/publish"
)

var generateCommand = &cobra.Command{
	Use:   "generate",
	Short: "Generate test cases for a user story and publish them to a test suite",
	Long: `Fetches the story, extracts and classifies its acceptance criteria, synthesizes rule-based
test cases, optionally asks the scenario advisor for more (--mode hybrid), validates and
deduplicates every candidate, then creates, updates or skips each test case and adds it to the suite.

Re-running is idempotent: cases are matched to existing work items by their internal ID.
Exit code is 1 when any test case failed to publish and 130 when interrupted.`,
	RunE: runGenerate,
}

var (
	generateCommon   commonFlags
	generateStoryID  int
	generatePlanID   int
	generateSuiteID  int
	generateDryRun   bool
	generateMode     string
	generateAPIKey   string
	generateMaxTests int
	generateNoDedup  bool
)

func init() {
	generateCommon.register(generateCommand)

	generateCommand.Flags().IntVarP(&generateStoryID, "story-id", "s", 0, "User story work item ID (required)")
	generateCommand.Flags().IntVarP(&generatePlanID, "plan-id", "p", 0, "Test plan ID (defaults to ADO_TEST_PLAN_ID)")
	generateCommand.Flags().IntVar(&generateSuiteID, "suite-id", 0, "Test suite ID (defaults to ADO_TEST_SUITE_ID)")
	generateCommand.Flags().BoolVar(&generateDryRun, "dry-run", false, "Plan create/update/skip decisions without writing anything")
	generateCommand.Flags().StringVar(&generateMode, "mode", config.DefaultMode, "Generation mode: rules or hybrid")
	generateCommand.Flags().IntVar(&generateMaxTests, "max-tests-per-ac", 0, "Rule-based test cases per criterion (1-3)")
	generateCommand.Flags().BoolVar(&generateNoDedup, "no-dedup", false, "Disable duplicate detection of advisor candidates")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	generateCommand.Flags().StringVar(&generateAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	_ = generateCommand.MarkFlagRequired("story-id")

	rootCmd.AddCommand(generateCommand)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, err := generateCommon.load(cmd)
	if err != nil {
		return err
	}

	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("plan-id") {
		cfg.PlanID = generatePlanID
	}
	if cmd.Flags().Changed("suite-id") {
		cfg.SuiteID = generateSuiteID
	}
	if cmd.Flags().Changed("mode") {
		cfg.Mode = generateMode
	}
	if cmd.Flags().Changed("max-tests-per-ac") {
		cfg.MaxTestsPerCriterion = generateMaxTests
	}
	if cmd.Flags().Changed("no-dedup") {
		cfg.DisableDedup = generateNoDedup
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = generateAPIKey
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if !generateDryRun {
		if err := cfg.RequireSuite(); err != nil {
			return err
		}
	}

	logger, err := logging.New(cfg.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newADOClient(cfg, logger)
	if err != nil {
		return err
	}
	cat, err := catalog.Default()
	if err != nil {
		return err
	}

	deps := pipeline.Deps{
		Stories:   client,
		Catalog:   cat,
		Publisher: publish.NewCoordinator(client, client, logger),
		Logger:    logger,
		Out:       os.Stdout,
	}

	var signals []dedup.Similarity
	if cfg.Mode == config.ModeHybrid {
		if cfg.APIKey == "" {
			fmt.Fprintf(os.Stderr, "Warning: %s is not set; hybrid mode runs without the scenario advisor\n", config.EnvAPIKey)
		} else {
			llmClient, err := newLLMClient(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = llmClient.Close() }()

			deps.Advisor = advisor.NewLLMAdvisor(llmClient, advisor.Options{
				Timeout: cfg.LLMTimeout(),
				Logger:  logger,
			})
			semantic, err := dedup.NewSemanticSignal(llmClient, dedup.SemanticOptions{
				Threshold: cfg.EmbeddingThreshold,
				Timeout:   cfg.LLMTimeout(),
				Logger:    logger,
			})
			if err != nil {
				return err
			}
			signals = append(signals, semantic)
		}
	}
	signals = append(signals, dedup.NewLexicalSignal(cfg.FuzzyThreshold))
	if cfg.DisableDedup {
		signals = nil
	}
	deps.Detector = dedup.NewDetector(logger, signals...)

	if history := openHistory(ctx, cfg, logger); history != nil {
		defer history.Close()
		deps.Store = history
	}

	fmt.Printf("Generating test cases for story %d (mode: %s", generateStoryID, cfg.Mode)
	if generateDryRun {
		fmt.Printf(", dry run")
	}
	fmt.Printf(")\n\n")

	summary, err := pipeline.Run(ctx, deps, pipeline.Options{
		StoryID:              generateStoryID,
		PlanID:               cfg.PlanID,
		SuiteID:              cfg.SuiteID,
		DryRun:               generateDryRun,
		Mode:                 cfg.Mode,
		MaxTestsPerCriterion: cfg.MaxTestsPerCriterion,
		Verbose:              cfg.Verbose,
	})
	if ctx.Err() != nil {
		if summary != nil {
			observability.NewPrinter(os.Stdout).PrintSummary(summary)
		}
		return &exitError{code: 130, err: errors.New("operation cancelled by user")}
	}
	if err != nil {
		return err
	}

	fmt.Println()
	observability.NewPrinter(os.Stdout).PrintSummary(summary)

	if summary.Failed() {
		return &exitError{code: 1, err: fmt.Errorf("%d errors while publishing test cases", len(summary.Errors))}
	}
	if generateDryRun {
		fmt.Println("\n✓ Dry run complete. Nothing was written.")
	} else {
		fmt.Println("\n✓ Success! All test cases generated and published.")
	}
	return nil
}
