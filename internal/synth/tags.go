package synth

import (
	"crypto/sha1" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
	"fmt"

	"github.com/jonathan/ado-testgen/internal/types"
)

// Tag values shared by every generated case.
const (
	GeneratorTag  = "generated-by:ado-testgen"
	SourceRules   = "rules"
	SourceAdvisor = "advisor"
)

// Generation modes.
const (
	ModeRules  = "rules"
	ModeHybrid = "hybrid"
)

// StoryTag returns the tag linking a case to its story.
func StoryTag(storyID int) string {
	return fmt.Sprintf("story:%d", storyID)
}

// CriterionHash returns the first 8 hex characters of the SHA-1 of text.
func CriterionHash(text string) string {
	sum := sha1.Sum([]byte(text)) //nolint:gosec // see import
	return hex.EncodeToString(sum[:])[:8]
}

// Tags builds the tag set for a generated case. criterion is nil for the
// umbrella case, which carries no criterion linkage or hash.
func Tags(storyID int, mode, source string, tt types.TestType, criterion *types.AcceptanceCriterion) []string {
	tags := []string{
		StoryTag(storyID),
		GeneratorTag,
		"gen-mode:" + mode,
		"src:" + source,
	}
	if criterion != nil {
		tags = append(tags,
			fmt.Sprintf("ac:%d", criterion.ID),
			"ac-hash:"+CriterionHash(criterion.Text),
		)
	}
	return append(tags, "test-type:"+string(tt))
}
