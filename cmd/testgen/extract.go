package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/ado-testgen/internal/criteria"
	"github.com/jonathan/ado-testgen/internal/logging"
	"github.com/jonathan/ado-testgen/internal/observability"
	"github.com/jonathan/ado-testgen/internal/types"
)

var extractCommand = &cobra.Command{
	Use:   "extract",
	Short: "Print the classified acceptance criteria of a story or an HTML file",
	Long: `Extracts acceptance criteria without generating anything. With --story-id the story is
fetched from Azure DevOps; with --file the HTML is read from disk and searched for an
"Acceptance Criteria" section first, then treated as a criteria field.`,
	RunE: runExtract,
}

var (
	extractCommon  commonFlags
	extractStoryID int
	extractFile    string
	extractJSON    bool
)

func init() {
	extractCommon.register(extractCommand)

	extractCommand.Flags().IntVarP(&extractStoryID, "story-id", "s", 0, "User story work item ID")
	extractCommand.Flags().StringVarP(&extractFile, "file", "f", "", "HTML file holding a story description or criteria field")
	extractCommand.Flags().BoolVar(&extractJSON, "json", false, "Print JSON instead of a report")
	extractCommand.MarkFlagsMutuallyExclusive("story-id", "file")
	extractCommand.MarkFlagsOneRequired("story-id", "file")

	rootCmd.AddCommand(extractCommand)
}

// extractedCriterion is one line of extract output.
type extractedCriterion struct {
	types.AcceptanceCriterion
	Classification types.Classification `json:"classification"`
}

func runExtract(cmd *cobra.Command, _ []string) error {
	var list []types.AcceptanceCriterion

	if extractFile != "" {
		content, err := os.ReadFile(extractFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", extractFile, err)
		}
		list = criteriaFromHTML(string(content))
	} else {
		cfg, err := extractCommon.load(cmd)
		if err != nil {
			return err
		}
		logger, err := logging.New(cfg.Verbose)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		client, err := newADOClient(cfg, logger)
		if err != nil {
			return err
		}
		story, err := client.FetchStory(context.Background(), extractStoryID)
		if err != nil {
			return err
		}
		list = criteria.FromStory(story)
	}

	if len(list) == 0 {
		return fmt.Errorf("no acceptance criteria found")
	}

	out := make([]extractedCriterion, len(list))
	classifications := make([]types.Classification, len(list))
	for i, c := range list {
		classifications[i] = criteria.Classify(c.Text)
		out[i] = extractedCriterion{AcceptanceCriterion: c, Classification: classifications[i]}
	}

	if extractJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	observability.NewPrinter(os.Stdout).PrintCriteria(list, classifications)
	return nil
}

// criteriaFromHTML reads criteria from a description section, falling back to
// treating the whole document as a dedicated criteria field.
func criteriaFromHTML(html string) []types.AcceptanceCriterion {
	list := criteria.FromStory(&types.Story{DescriptionHTML: html})
	if len(list) == 0 {
		list = criteria.FromStory(&types.Story{CriteriaFieldHTML: html})
	}
	return list
}
