package criteria

import (
	"regexp"
	"strings"

	"github.com/jonathan/ado-testgen/internal/types"
)

type compiledKeyword struct {
	pattern *regexp.Regexp
	weight  float64
}

var compiledTable = compileKeywords()

func compileKeywords() map[types.Category][]compiledKeyword {
	compiled := make(map[types.Category][]compiledKeyword, len(keywordTable))
	for category, keywords := range keywordTable {
		for _, kw := range keywords {
			compiled[category] = append(compiled[category], compiledKeyword{
				pattern: regexp.MustCompile(`\b` + regexp.QuoteMeta(kw.term) + `\b`),
				weight:  kw.weight,
			})
		}
	}
	return compiled
}

// Scores returns the weighted keyword score of text for every scored category.
// Matching is whole-word and case-insensitive; every occurrence counts.
func Scores(text string) map[types.Category]float64 {
	lower := strings.ToLower(text)
	scores := make(map[types.Category]float64, len(compiledTable))
	for _, category := range types.Categories {
		for _, kw := range compiledTable[category] {
			if n := len(kw.pattern.FindAllStringIndex(lower, -1)); n > 0 {
				scores[category] += float64(n) * kw.weight
			}
		}
	}
	return scores
}

// Classify assigns text a category and subcategory. The highest score wins;
// equal scores resolve to the category declared first in types.Categories.
// Text with no keyword hits is other/general.
func Classify(text string) types.Classification {
	scores := Scores(text)

	best := types.CategoryOther
	bestScore := 0.0
	for _, category := range types.Categories {
		if scores[category] > bestScore {
			best = category
			bestScore = scores[category]
		}
	}

	return types.Classification{
		Category:    best,
		Subcategory: Subcategory(best, text),
		Score:       bestScore,
	}
}

// Subcategory resolves the subcategory of text within category.
func Subcategory(category types.Category, text string) string {
	lower := strings.ToLower(text)
	for _, rule := range subcategoryTable[category] {
		if strings.Contains(lower, rule.term) {
			return rule.subcategory
		}
	}
	if sub, ok := defaultSubcategory[category]; ok {
		return sub
	}
	return defaultSubcategory[types.CategoryOther]
}
