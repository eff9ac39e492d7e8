// Package richtext converts work-item rich text (HTML) into plain structured text.
package richtext

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Bullet is the marker written in front of every list item.
const Bullet = "•"

var (
	horizontalSpace = regexp.MustCompile(`[ \t\f\v]+`)
	excessBlank     = regexp.MustCompile(`\n{3,}`)
)

// blockElements end with a blank line so paragraph boundaries survive.
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "blockquote": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "table": true, "pre": true,
}

// ToText converts an HTML fragment to plain text. List items become one
// bulleted line each, block elements are separated by blank lines, inline
// markup is unwrapped and script/style content is dropped. Input that cannot
// be parsed yields an empty string.
func ToText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find("script, style, noscript, head").Remove()

	var sb strings.Builder
	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	walk(&sb, root)

	return normalize(sb.String())
}

// walk renders the children of s into sb.
func walk(sb *strings.Builder, s *goquery.Selection) {
	s.Contents().Each(func(_ int, node *goquery.Selection) {
		name := goquery.NodeName(node)
		switch {
		case name == "#text":
			sb.WriteString(strings.ReplaceAll(node.Text(), "\n", " "))
		case name == "#comment":
		case name == "br":
			sb.WriteString("\n")
		case name == "li":
			startLine(sb)
			sb.WriteString(Bullet + " ")
			walk(sb, node)
			sb.WriteString("\n")
		case name == "tr":
			walk(sb, node)
			sb.WriteString("\n")
		case name == "td" || name == "th":
			walk(sb, node)
			sb.WriteString(" ")
		case blockElements[name]:
			startLine(sb)
			walk(sb, node)
			sb.WriteString("\n\n")
		default:
			walk(sb, node)
		}
	})
}

// startLine moves to a fresh line unless the output already ends on one.
func startLine(sb *strings.Builder) {
	current := strings.TrimRight(sb.String(), " \t")
	if current == "" || strings.HasSuffix(current, "\n") {
		return
	}
	sb.WriteString("\n")
}

// normalize collapses horizontal whitespace, trims every line and limits
// blank-line runs to one.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = horizontalSpace.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = excessBlank.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
