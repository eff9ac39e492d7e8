// Package advisor proposes extra test scenarios beyond the rule-based set and
// drafts steps for them. Every call is best-effort: failures yield nothing.
package advisor

import (
	"context"
	"strings"

	"github.com/jonathan/ado-testgen/internal/types"
)

// Result caps.
const (
	MaxSuggestions = 2
	MaxSteps       = 10
)

// Request is the context for one criterion.
type Request struct {
	StoryTitle     string
	Description    string
	Criterion      string
	BaselineTitles []string
}

// Advisor proposes scenarios and writes their steps.
type Advisor interface {
	// Suggest returns at most MaxSuggestions proposals for the criterion.
	Suggest(ctx context.Context, req Request) []types.Suggestion
	// WriteSteps returns at most MaxSteps steps for an accepted proposal.
	WriteSteps(ctx context.Context, req Request, s types.Suggestion) []types.DraftStep
}

// Noop is the advisor used in rules mode or when no model is configured.
type Noop struct{}

// Suggest implements Advisor.
func (Noop) Suggest(context.Context, Request) []types.Suggestion { return nil }

// WriteSteps implements Advisor.
func (Noop) WriteSteps(context.Context, Request, types.Suggestion) []types.DraftStep { return nil }

// scenarioKeywords map proposal wording to a scenario type, checked in order.
var scenarioKeywords = []struct {
	keywords []string
	testType types.TestType
}{
	{[]string{"accessib", "keyboard", "screen reader", "wcag", "contrast", "focus"}, types.TestTypeAccessibility},
	{[]string{"undo", "redo"}, types.TestTypeUndoRedo},
	{[]string{"cancel", "rollback", "roll back", "abort"}, types.TestTypeCancelRollback},
	{[]string{"persist", "reopen", "restart", "save", "reload"}, types.TestTypePersistence},
	{[]string{"boundary", "limit", "maximum", "minimum", "edge", "overflow"}, types.TestTypeBoundary},
	{[]string{"negative", "invalid", "error", "failure", "reject", "validation"}, types.TestTypeNegative},
}

// ScenarioType infers the scenario a proposal covers from its category,
// subcategory and descriptor. Unrecognized proposals are happy-path.
func ScenarioType(s types.Suggestion) types.TestType {
	text := strings.ToLower(s.Category + " " + s.Subcategory + " " + s.ShortDescriptor)
	for _, entry := range scenarioKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				return entry.testType
			}
		}
	}
	return types.TestTypeHappyPath
}
