package criteria

import (
	"regexp"
	"strings"

	"github.com/jonathan/ado-testgen/internal/richtext"
	"github.com/jonathan/ado-testgen/internal/types"
)

// sectionHeaders are tried in order; each must sit at the start of a line and
// be followed by a colon or the end of the line.
var sectionHeaders = []*regexp.Regexp{
	regexp.MustCompile(`(?im)^[ \t]*acceptance\s+criteria\s+are[ \t]*(?::|$)`),
	regexp.MustCompile(`(?im)^[ \t]*acceptance\s+criteria[ \t]*(?::|$)`),
	regexp.MustCompile(`(?im)^[ \t]*acceptance\s+requirements[ \t]*(?::|$)`),
	regexp.MustCompile(`(?im)^[ \t]*ac[ \t]*(?::|$)`),
	regexp.MustCompile(`(?im)^[ \t]*criteria[ \t]*(?::|$)`),
}

var sectionEnd = regexp.MustCompile(`(?im)^[ \t]*(?:notes?:|additional\s+info(?:rmation)?:|technical\s+details:|implementation\s+notes:|#{1,3}\s)`)

// FindSection locates an acceptance-criteria section inside free text and
// returns the content between its header and the next terminating header.
func FindSection(text string) (string, bool) {
	for _, header := range sectionHeaders {
		loc := header.FindStringIndex(text)
		if loc == nil {
			continue
		}
		section := text[loc[1]:]
		if end := sectionEnd.FindStringIndex(section); end != nil {
			section = section[:end[0]]
		}
		section = strings.TrimSpace(section)
		return section, section != ""
	}
	return "", false
}

// FromField extracts criteria from a dedicated rich-text criteria field.
func FromField(html string) []string {
	return Split(richtext.ToText(html))
}

// FromDescription extracts criteria from a criteria section embedded in a
// rich-text description. Descriptions without such a section yield nothing.
func FromDescription(html string) []string {
	section, ok := FindSection(richtext.ToText(html))
	if !ok {
		return []string{}
	}
	return Split(section)
}

// FromStory returns the story's criteria, preferring the dedicated field
// over a section embedded in the description.
func FromStory(story *types.Story) []types.AcceptanceCriterion {
	if story == nil {
		return nil
	}

	items := FromField(story.CriteriaFieldHTML)
	if len(items) == 0 {
		items = FromDescription(story.DescriptionHTML)
	}

	criteria := make([]types.AcceptanceCriterion, 0, len(items))
	for i, text := range items {
		criteria = append(criteria, types.AcceptanceCriterion{
			ID:            i + 1,
			Text:          text,
			OriginalOrder: i,
		})
	}
	return criteria
}
