package dedup

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/agext/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/jonathan/ado-testgen/internal/types"
)

// DefaultLexicalThreshold is the ratio (0-100) above which two texts match.
const DefaultLexicalThreshold = 88.0

// indel distance: a substitution costs a deletion plus an insertion.
var indelParams = levenshtein.NewParams().SubCost(2)

// LexicalSignal compares normalized titles and, separately, normalized step
// text by edit-distance ratio.
type LexicalSignal struct {
	Threshold float64
}

// NewLexicalSignal returns a lexical signal; a non-positive threshold uses
// DefaultLexicalThreshold.
func NewLexicalSignal(threshold float64) *LexicalSignal {
	if threshold <= 0 {
		threshold = DefaultLexicalThreshold
	}
	return &LexicalSignal{Threshold: threshold}
}

// Name implements Similarity.
func (s *LexicalSignal) Name() string { return "lexical" }

// Duplicate reports whether the title ratio or the steps ratio exceeds the threshold.
func (s *LexicalSignal) Duplicate(_ context.Context, candidate, existing types.TestCase) bool {
	if Ratio(Normalize(candidate.Title), Normalize(existing.Title)) > s.Threshold {
		return true
	}
	return Ratio(Normalize(stepsText(candidate)), Normalize(stepsText(existing))) > s.Threshold
}

// Normalize case-folds text, applies NFKC and collapses whitespace.
func Normalize(text string) string {
	text = cases.Fold().String(norm.NFKC.String(text))
	return strings.Join(strings.Fields(text), " ")
}

// Ratio is the normalized indel similarity of a and b on a 0-100 scale.
func Ratio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 100
	}
	dist := levenshtein.Distance(a, b, indelParams)
	return 100 * (1 - float64(dist)/float64(total))
}
