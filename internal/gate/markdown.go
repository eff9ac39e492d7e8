package gate

import (
	"regexp"
	"strings"
)

var (
	fencedBlock = regexp.MustCompile("(?s)```.*?```")
	inlineCode  = regexp.MustCompile("`([^`]+)`")
	headerMark  = regexp.MustCompile(`(?m)^[ \t]*#+[ \t]+`)
	boldStars   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	boldUnders  = regexp.MustCompile(`__([^_]+)__`)
	italicStar  = regexp.MustCompile(`\*([^*]+)\*`)
	italicUnder = regexp.MustCompile(`\b_([^_]+)_\b`)
	mdLink      = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	spaceRun    = regexp.MustCompile(`\s+`)
)

// StripMarkdown removes code fences, inline code ticks, headers, emphasis
// and link syntax, returning single-spaced plain text.
func StripMarkdown(text string) string {
	text = fencedBlock.ReplaceAllString(text, "")
	text = inlineCode.ReplaceAllString(text, "$1")
	text = headerMark.ReplaceAllString(text, "")
	text = boldStars.ReplaceAllString(text, "$1")
	text = boldUnders.ReplaceAllString(text, "$1")
	text = italicStar.ReplaceAllString(text, "$1")
	text = italicUnder.ReplaceAllString(text, "$1")
	text = mdLink.ReplaceAllString(text, "$1")
	return strings.TrimSpace(spaceRun.ReplaceAllString(text, " "))
}

// PlainText reduces free text, such as a criterion quoted inside a step, to
// text that passes the step checks: markdown is stripped, stray fence
// markers are dropped and leading header marks are removed.
func PlainText(text string) string {
	text = strings.ReplaceAll(StripMarkdown(text), "```", "")
	text = strings.TrimLeft(strings.TrimSpace(text), "# ")
	return strings.TrimSpace(spaceRun.ReplaceAllString(text, " "))
}

// hasMarkdownBlock reports header or fenced-code syntax, which marks a step
// as formatted output rather than an instruction.
func hasMarkdownBlock(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "#") || strings.Contains(text, "```")
}
