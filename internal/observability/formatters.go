// Package observability provides boxed console reports for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/ado-testgen/internal/db"
	"github.com/jonathan/ado-testgen/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 10
)

// Printer handles formatted report output
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// clip truncates s to width runes with a trailing "...".
func clip(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	return string([]rune(s)[:width-3]) + "..."
}

// PrintCriteria lists extracted criteria with their classification.
func (p *Printer) PrintCriteria(list []types.AcceptanceCriterion, classifications []types.Classification) {
	if len(list) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total criteria: %d\n\n", len(list)))
	for i, c := range list {
		sb.WriteString(fmt.Sprintf("AC%d  %s\n", c.ID, c.Text))
		if i < len(classifications) {
			cls := classifications[i]
			sb.WriteString(fmt.Sprintf("     %s / %s (score %.1f)\n", cls.Category, cls.Subcategory, cls.Score))
		}
	}

	p.printBox("ACCEPTANCE CRITERIA", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSummary outputs the run totals, the publish actions, rejections and errors.
func (p *Printer) PrintSummary(s *types.Summary) {
	if s == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Story:     %d %s\n", s.StoryID, s.StoryTitle))
	sb.WriteString(fmt.Sprintf("Run:       %s\n", s.RunID))
	mode := s.Mode
	if s.DryRun {
		mode += " (dry run)"
	}
	sb.WriteString(fmt.Sprintf("Mode:      %s\n", mode))
	sb.WriteString(fmt.Sprintf("Criteria:  %d\n\n", s.Criteria))

	sb.WriteString(fmt.Sprintf("Rule candidates:     %d (rejected %d)\n",
		s.RuleCandidates, s.Rejected(types.SourceRules, types.StageValidation)))
	if s.Mode == "hybrid" {
		sb.WriteString(fmt.Sprintf("Advisor candidates:  %d\n", s.AdvisorCandidates))
		sb.WriteString(fmt.Sprintf("  accepted:          %d\n", s.AdvisorAccepted))
		sb.WriteString(fmt.Sprintf("  rejected (format): %d\n", s.Rejected(types.SourceAdvisor, types.StageValidation)))
		sb.WriteString(fmt.Sprintf("  rejected (dup):    %d\n", s.Rejected(types.SourceAdvisor, types.StageDuplicate)))
	}
	sb.WriteString(fmt.Sprintf("Accepted:            %d\n\n", s.Accepted))

	verb := ""
	if s.DryRun {
		verb = "would be "
	}
	sb.WriteString(fmt.Sprintf("Created:  %d %s\n", s.Created, verb+"created"))
	sb.WriteString(fmt.Sprintf("Updated:  %d %s\n", s.Updated, verb+"updated"))
	sb.WriteString(fmt.Sprintf("Skipped:  %d unchanged\n", s.Skipped))
	if !s.DryRun {
		sb.WriteString(fmt.Sprintf("In suite: %d\n", s.AddedToSuite))
	}

	if len(s.Actions) > 0 {
		sb.WriteString("\n")
		count := min(len(s.Actions), maxItemsToShow)
		for _, a := range s.Actions[:count] {
			id := "new"
			if a.WorkItemID > 0 {
				id = fmt.Sprintf("#%d", a.WorkItemID)
			}
			sb.WriteString(fmt.Sprintf("%-6s %-6s %s\n", a.Action, id, a.Title))
		}
		if len(s.Actions) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(s.Actions)-maxItemsToShow))
		}
	}

	if len(s.Rejections) > 0 {
		sb.WriteString("\nRejected:\n")
		for _, r := range s.Rejections {
			label := r.InternalID
			if label == "" {
				label = r.Title
			}
			sb.WriteString(fmt.Sprintf("  • [%s/%s] %s: %s\n", r.Source, r.Stage, label, r.Reason))
		}
	}

	if len(s.Errors) > 0 {
		sb.WriteString("\nErrors:\n")
		for _, e := range s.Errors {
			sb.WriteString(fmt.Sprintf("  ⚠ %s\n", e))
		}
	}

	title := "TEST CASE GENERATION SUMMARY"
	if s.Failed() {
		title += " (FAILED)"
	}
	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRuns outputs recorded runs, newest first.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintRuns(runs []db.Run) {
	if len(runs) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "NO RUNS RECORDED")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	for _, r := range runs {
		mode := r.Mode
		if r.DryRun {
			mode += "/dry"
		}
		sb.WriteString(fmt.Sprintf("%s  story %d  %s  %s\n",
			r.CreatedAt.Format("2006-01-02 15:04"), r.StoryID, mode, r.Status))
		sb.WriteString(fmt.Sprintf("  %s  +%d ~%d =%d  rejected %d  errors %d\n",
			r.ID, r.Counts.Created, r.Counts.Updated, r.Counts.Skipped, r.Counts.Rejected, r.Counts.Errors))
	}

	p.printBox("RUN HISTORY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRunSteps outputs the recorded stages of one run.
func (p *Printer) PrintRunSteps(steps []db.RunStep) {
	if len(steps) == 0 {
		return
	}

	var sb strings.Builder
	for _, s := range steps {
		line := fmt.Sprintf("%-12s %-10s", s.Step, s.Status)
		if s.DurationMs != nil {
			line += fmt.Sprintf(" %6dms", *s.DurationMs)
		}
		sb.WriteString(line + "\n")
		if s.ErrorMessage != nil {
			sb.WriteString(fmt.Sprintf("  ⚠ %s\n", *s.ErrorMessage))
		}
	}

	p.printBox("RUN STEPS", strings.TrimSuffix(sb.String(), "\n"))
}
