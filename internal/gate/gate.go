// Package gate is the single choke point that turns drafts into canonical,
// publishable test cases or rejects them with a reason.
package gate

import (
	"fmt"
	"strings"

	"github.com/jonathan/ado-testgen/internal/naming"
	"github.com/jonathan/ado-testgen/internal/steps"
	"github.com/jonathan/ado-testgen/internal/types"
)

// Target carries the identity and title segments a draft is canonicalized into.
type Target struct {
	StoryID     int
	InternalID  string
	Feature     string
	Module      string
	Category    string
	Subcategory string
}

// Result is the gate verdict. Case is only meaningful when OK is true.
type Result struct {
	Case   types.TestCase
	OK     bool
	Reason string
}

func reject(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// Canonicalize sanitizes and validates the draft descriptor, builds and
// re-validates the title, strips markdown from the steps and rejects any that
// still carry header or fence syntax, appends the close step and finally
// runs Check on the result. Any failure, including a panic in a helper, is a
// rejection.
func Canonicalize(draft types.Draft, target Target) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = reject("canonicalization panicked: %v", r)
		}
	}()

	descriptor := naming.SanitizeDescriptor(draft.ShortDescriptor)
	if err := naming.ValidateDescriptor(descriptor); err != nil {
		return reject("invalid short descriptor: %v", err)
	}

	title, err := naming.BuildTitle(target.InternalID, target.Feature, target.Module,
		target.Category, target.Subcategory, descriptor)
	if err != nil {
		return reject("title assembly failed: %v", err)
	}
	if err := naming.ValidateTitle(title, target.InternalID); err != nil {
		return reject("invalid title: %v", err)
	}

	if len(draft.Steps) == 0 {
		return reject("no steps")
	}
	cleaned := make([]types.DraftStep, 0, len(draft.Steps))
	for i, s := range draft.Steps {
		if strings.TrimSpace(s.Action) == "" || strings.TrimSpace(s.Expected) == "" {
			return reject("step %d is missing action or expected result", i+1)
		}
		action, expected := StripMarkdown(s.Action), StripMarkdown(s.Expected)
		if action == "" || expected == "" {
			return reject("step %d is empty after markdown removal", i+1)
		}
		if hasMarkdownBlock(action) || hasMarkdownBlock(expected) {
			return reject("step %d contains a markdown header or code block", i+1)
		}
		cleaned = append(cleaned, types.DraftStep{Action: action, Expected: expected})
	}

	testType := draft.TestType
	if testType == "" {
		testType = types.TestTypeHappyPath
	}

	tc := types.TestCase{
		InternalID: target.InternalID,
		Title:      title,
		Steps:      steps.AppendClose(steps.FromDrafts(cleaned)),
		TestType:   testType,
		StoryID:    target.StoryID,
		Tags:       append([]string(nil), draft.Tags...),
	}
	if draft.CriterionID != nil {
		id := *draft.CriterionID
		tc.CriterionID = &id
	}
	return Check(tc)
}

// Check re-validates an already built case against the same invariants:
// title grammar, non-empty contiguous steps ending in the close step, and
// criterion linkage on every non-umbrella case.
func Check(tc types.TestCase) Result {
	if err := naming.ValidateTitle(tc.Title, tc.InternalID); err != nil {
		return reject("invalid title: %v", err)
	}
	if len(tc.Steps) == 0 {
		return reject("no steps")
	}
	for i, s := range tc.Steps {
		if s.Number != i+1 {
			return reject("step numbers are not contiguous at position %d", i+1)
		}
		if strings.TrimSpace(s.Action) == "" || strings.TrimSpace(s.ExpectedResult) == "" {
			return reject("step %d is missing action or expected result", i+1)
		}
		if hasMarkdownBlock(s.Action) || hasMarkdownBlock(s.ExpectedResult) {
			return reject("step %d contains a markdown header or code block", i+1)
		}
	}
	if !steps.IsClose(tc.Steps[len(tc.Steps)-1]) {
		return reject("last step is not the close step")
	}
	if !tc.IsUmbrella() && tc.CriterionID == nil {
		return reject("missing acceptance criterion link")
	}
	return Result{Case: tc, OK: true}
}
