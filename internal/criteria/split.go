// Package criteria extracts, splits and classifies acceptance criteria.
package criteria

import (
	"regexp"
	"strings"
	"unicode"
)

const minSentenceLength = 10

var (
	// numberedLine detects a numbered marker at the start of any line.
	numberedLine = regexp.MustCompile(`(?m)^[ \t]*\d{1,3}[.)]\s`)
	// numberedMarker finds marker boundaries: at a line start, or inline
	// right after sentence punctuation ("... item. 2. Next").
	numberedMarker = regexp.MustCompile(`(?m)(^|[.!?;:])[ \t]*(\d{1,3}[.)])\s+`)
	bulletLine     = regexp.MustCompile(`(?m)^[ \t]*[•\-*][ \t]+`)
	bulletPrefix   = regexp.MustCompile(`^[ \t]*[•\-*][ \t]+`)
	paragraphBreak = regexp.MustCompile(`\n[ \t]*\n`)
	leadingMarker  = regexp.MustCompile(`^(?:\d{1,3}[.)]|[•\-*])\s+`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

// Split breaks a block of plain text into criterion statements. Numbered
// lists win over bullet lists, which win over blank-line paragraphs; a lone
// paragraph is a single criterion. Items are whitespace-normalized,
// terminated with sentence punctuation and deduplicated case-insensitively in
// first-seen order. Empty input yields an empty slice.
func Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}

	var items []string
	switch {
	case numberedLine.MatchString(text):
		items = splitNumbered(text)
	case bulletLine.MatchString(text):
		items = splitBullets(text)
	default:
		items = splitParagraphs(text)
	}

	return normalizeItems(items)
}

// SplitSentences is the standalone sentence-boundary strategy, for callers
// that know their text is a run of independent statements. Fragments of ten
// characters or fewer are dropped. When nothing survives the filter the whole text is
// returned as a single item.
func SplitSentences(text string) []string {
	text = collapseWhitespace(text)
	if text == "" {
		return []string{}
	}

	var sentences []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if !isSentenceEnd(runes[i]) {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		sentences = append(sentences, string(runes[start:i+1]))
		start = i + 1
	}
	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}

	var kept []string
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if len(s) > minSentenceLength {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return []string{text}
	}
	return kept
}

func splitNumbered(text string) []string {
	matches := numberedMarker.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return []string{text}
	}

	var items []string
	if preamble := strings.TrimSpace(text[:matches[0][4]]); preamble != "" && !strings.HasSuffix(preamble, ":") {
		items = append(items, preamble)
	}
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			// The next marker starts at its numeral (group 2); any sentence
			// punctuation before it stays with this item.
			end = matches[i+1][4]
		}
		items = append(items, text[m[1]:end])
	}
	return items
}

func splitBullets(text string) []string {
	var items []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			items = append(items, current.String())
			current.Reset()
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if bulletPrefix.MatchString(line) {
			flush()
			current.WriteString(bulletPrefix.ReplaceAllString(line, ""))
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(line)
	}
	flush()
	return items
}

func splitParagraphs(text string) []string {
	var items []string
	for _, part := range paragraphBreak.Split(text, -1) {
		if strings.TrimSpace(part) != "" {
			items = append(items, part)
		}
	}
	return items
}

// normalizeItems cleans every item and removes case-insensitive duplicates.
func normalizeItems(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = NormalizeItem(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, item)
	}
	return result
}

// NormalizeItem collapses whitespace, strips a leading list marker and
// terminates the statement with a period when it lacks sentence punctuation.
func NormalizeItem(item string) string {
	item = collapseWhitespace(item)
	item = strings.TrimSpace(leadingMarker.ReplaceAllString(item, ""))
	if item == "" {
		return ""
	}
	last := []rune(item)[len([]rune(item))-1]
	if !isSentenceEnd(last) {
		item += "."
	}
	return item
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
