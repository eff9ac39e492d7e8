package dedup

import (
	"context"
	"strings"

	"github.com/jonathan/ado-testgen/internal/types"
)

// Similarity is one duplicate signal. Implementations never return errors:
// a signal whose backend is unavailable simply does not fire.
type Similarity interface {
	Name() string
	Duplicate(ctx context.Context, candidate, existing types.TestCase) bool
}

// Noop never flags a duplicate.
type Noop struct{}

// Name implements Similarity.
func (Noop) Name() string { return "noop" }

// Duplicate implements Similarity.
func (Noop) Duplicate(context.Context, types.TestCase, types.TestCase) bool { return false }

// stepsText joins every action and expected result of tc.
func stepsText(tc types.TestCase) string {
	parts := make([]string, 0, len(tc.Steps)*2)
	for _, s := range tc.Steps {
		parts = append(parts, s.Action, s.ExpectedResult)
	}
	return strings.Join(parts, " ")
}

// fullText is the title followed by all step text.
func fullText(tc types.TestCase) string {
	return tc.Title + " " + stepsText(tc)
}
