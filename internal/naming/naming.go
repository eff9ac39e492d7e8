// Package naming generates internal identifiers and assembles formatted
// test case titles under a strict short-descriptor grammar.
package naming

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxDescriptorWords is the word limit for a short descriptor.
	MaxDescriptorWords = 8
	// MaxTitleLength is the total title length cap in characters.
	MaxTitleLength = 250
	// SegmentSeparator joins the five title segments.
	SegmentSeparator = " / "
	// TitleSegments is the number of segments after the ID prefix.
	TitleSegments = 5

	fallbackDescriptor = "Test Case"
	ellipsis           = "..."
)

// ForbiddenWords may not appear as whole words in a short descriptor.
var ForbiddenWords = []string{
	"verify", "check", "test", "validate", "ensure", "confirm",
	"click", "select", "choose", "press", "type", "enter", "input",
	"when", "then", "if", "should", "must", "will", "can", "may",
	"do", "does", "did", "done", "make", "makes", "made",
}

// ForbiddenPunctuation may not appear anywhere in a short descriptor.
var ForbiddenPunctuation = []string{".", ":", ";", "…", "!", "?", ","}

var (
	forbiddenWordSet = func() map[string]bool {
		set := make(map[string]bool, len(ForbiddenWords))
		for _, w := range ForbiddenWords {
			set[w] = true
		}
		return set
	}()
	wordPattern   = regexp.MustCompile(`[\p{L}\p{N}']+`)
	whitespaceRun = regexp.MustCompile(`\s+`)

	// contractions whose base word is not the text before "n't".
	contractions = map[string]string{"can't": "can", "won't": "will", "shan't": "shall"}
)

// descriptorWords lowercases text and returns the words checked against
// ForbiddenWords. Apostrophes split words, and negative contractions also
// contribute their base word, so "can't" and "doesn't" yield "can" and "does".
func descriptorWords(text string) []string {
	text = strings.ToLower(strings.ReplaceAll(text, "’", "'"))
	var words []string
	for _, token := range wordPattern.FindAllString(text, -1) {
		if base, ok := contractions[token]; ok {
			words = append(words, base)
		} else if stem, ok := strings.CutSuffix(token, "n't"); ok && stem != "" {
			words = append(words, stem)
		}
		words = append(words, strings.FieldsFunc(token, func(r rune) bool { return r == '\'' })...)
	}
	return words
}

// InternalID returns the identifier for the zero-based index within a story:
// "{story}-AC1" for the first case, then "{story}-005", "{story}-010", ...
func InternalID(storyID, index int) string {
	if index <= 0 {
		return fmt.Sprintf("%d-AC1", storyID)
	}
	return fmt.Sprintf("%d-%03d", storyID, (index-1)*5+5)
}

// ValidateDescriptor checks a short descriptor against the grammar: non-empty,
// at most eight words, no forbidden whole words and no forbidden punctuation.
func ValidateDescriptor(descriptor string) error {
	trimmed := strings.TrimSpace(descriptor)
	if trimmed == "" {
		return &DescriptorError{Descriptor: descriptor, Message: "short descriptor cannot be empty"}
	}

	if n := len(strings.Fields(trimmed)); n > MaxDescriptorWords {
		return &DescriptorError{
			Descriptor: descriptor,
			Message:    fmt.Sprintf("must be <= %d words, got %d", MaxDescriptorWords, n),
		}
	}

	for _, word := range descriptorWords(trimmed) {
		if forbiddenWordSet[word] {
			return &DescriptorError{Descriptor: descriptor, Message: fmt.Sprintf("contains forbidden word '%s'", word)}
		}
	}

	for _, p := range ForbiddenPunctuation {
		if strings.Contains(trimmed, p) {
			return &DescriptorError{Descriptor: descriptor, Message: fmt.Sprintf("contains forbidden punctuation '%s'", p)}
		}
	}

	return nil
}

// SanitizeDescriptor strips forbidden punctuation and collapses whitespace.
// It does not remove forbidden words; those still fail validation.
func SanitizeDescriptor(descriptor string) string {
	for _, p := range ForbiddenPunctuation {
		descriptor = strings.ReplaceAll(descriptor, p, " ")
	}
	return collapse(descriptor)
}

// CleanSegment replaces separator characters and collapses whitespace so the
// value can sit between " / " separators.
func CleanSegment(segment string) string {
	segment = strings.ReplaceAll(segment, "/", "-")
	segment = strings.ReplaceAll(segment, `\`, "-")
	return collapse(segment)
}

// BuildTitle assembles "{id}: feature / module / category / subcategory / descriptor".
// The descriptor is validated first. Titles over MaxTitleLength have their
// descriptor truncated at a word boundary with a trailing ellipsis; if even
// the four leading segments do not fit, the title becomes "{id}: Test Case".
func BuildTitle(internalID, feature, module, category, subcategory, descriptor string) (string, error) {
	if err := ValidateDescriptor(descriptor); err != nil {
		return "", err
	}

	segments := []string{
		CleanSegment(feature),
		CleanSegment(module),
		CleanSegment(category),
		CleanSegment(subcategory),
		CleanSegment(descriptor),
	}

	title := internalID + ": " + strings.Join(segments, SegmentSeparator)
	if utf8.RuneCountInString(title) <= MaxTitleLength {
		return title, nil
	}

	prefix := internalID + ": " + strings.Join(segments[:4], SegmentSeparator) + SegmentSeparator
	available := MaxTitleLength - utf8.RuneCountInString(prefix)
	if available <= len(ellipsis) {
		return internalID + ": " + fallbackDescriptor, nil
	}

	return prefix + truncateWords(segments[4], available-len(ellipsis)) + ellipsis, nil
}

// truncateWords keeps as many leading words as fit in limit characters.
func truncateWords(text string, limit int) string {
	var kept []string
	length := 0
	for _, word := range strings.Fields(text) {
		add := utf8.RuneCountInString(word)
		if len(kept) > 0 {
			add++
		}
		if length+add > limit {
			break
		}
		kept = append(kept, word)
		length += add
	}
	if len(kept) == 0 {
		return fallbackDescriptor
	}
	return strings.Join(kept, " ")
}

// ValidateTitle checks that title carries the "{id}:" prefix, exactly five
// segments, and a grammatical final segment.
func ValidateTitle(title, internalID string) error {
	prefix := internalID + ": "
	if !strings.HasPrefix(title, prefix) {
		return &TitleError{Title: title, Message: fmt.Sprintf("must start with %q", prefix)}
	}

	segments := strings.Split(strings.TrimPrefix(title, prefix), SegmentSeparator)
	if len(segments) != TitleSegments {
		return &TitleError{
			Title:   title,
			Message: fmt.Sprintf("must have %d segments, got %d", TitleSegments, len(segments)),
		}
	}

	for i, seg := range segments {
		if strings.TrimSpace(seg) == "" {
			return &TitleError{Title: title, Message: fmt.Sprintf("segment %d is empty", i+1)}
		}
	}

	if err := ValidateDescriptor(segments[TitleSegments-1]); err != nil {
		return &TitleError{Title: title, Message: "short descriptor segment is invalid", Cause: err}
	}
	return nil
}

// ParseInternalID returns the identifier prefix of a generated title.
func ParseInternalID(title string) (string, bool) {
	idx := strings.Index(title, ":")
	if idx <= 0 {
		return "", false
	}
	return strings.TrimSpace(title[:idx]), true
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
