package steps

import (
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/ado-testgen/internal/richtext"
	"github.com/jonathan/ado-testgen/internal/types"
)

// ErrNoSteps is returned when encoding an empty step list.
var ErrNoSteps = errors.New("at least one test step is required")

// Encode renders steps as a work-item steps document:
//
//	<steps id="0" last="N"><step id="1" type="ActionStep">
//	<parameterizedString isformatted="true">action</parameterizedString>
//	<parameterizedString isformatted="true">expected</parameterizedString>
//	<description/></step>...</steps>
//
// Output is deterministic so documents can be compared byte for byte.
func Encode(list []types.TestStep) (string, error) {
	if len(list) == 0 {
		return "", ErrNoSteps
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<steps id="0" last="%d">`, len(list))
	for i, s := range list {
		fmt.Fprintf(&sb, `<step id="%d" type="ActionStep">`, i+1)
		sb.WriteString(`<parameterizedString isformatted="true">`)
		writeEscaped(&sb, s.Action)
		sb.WriteString(`</parameterizedString>`)
		sb.WriteString(`<parameterizedString isformatted="true">`)
		writeEscaped(&sb, s.ExpectedResult)
		sb.WriteString(`</parameterizedString>`)
		sb.WriteString(`<description/></step>`)
	}
	sb.WriteString(`</steps>`)
	return sb.String(), nil
}

type stepsDocument struct {
	XMLName xml.Name       `xml:"steps"`
	Steps   []stepDocument `xml:"step"`
}

type stepDocument struct {
	ID      int      `xml:"id,attr"`
	Strings []string `xml:"parameterizedString"`
}

// Decode parses a steps document back into numbered steps. Step text is
// returned exactly as stored; markup is only reduced by Reduce.
func Decode(doc string) ([]types.TestStep, error) {
	if strings.TrimSpace(doc) == "" {
		return nil, nil
	}

	var parsed stepsDocument
	if err := xml.Unmarshal([]byte(doc), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse steps document: %w", err)
	}

	out := make([]types.TestStep, 0, len(parsed.Steps))
	for i, s := range parsed.Steps {
		step := types.TestStep{Number: i + 1}
		if len(s.Strings) > 0 {
			step.Action = s.Strings[0]
		}
		if len(s.Strings) > 1 {
			step.ExpectedResult = s.Strings[1]
		}
		out = append(out, step)
	}
	return out, nil
}

func writeEscaped(sb *strings.Builder, text string) {
	// strings.Builder writes never fail
	_ = xml.EscapeText(sb, []byte(text))
}

var htmlMarkup = regexp.MustCompile(`(?i)</?(?:div|p|br|span|b|i|u|strong|em|ul|ol|li)\b[^>]*>`)

// Reduce returns a copy of list with HTML formatting, as added by the web
// editor, reduced to plain text. Steps without markup are only trimmed.
func Reduce(list []types.TestStep) []types.TestStep {
	out := make([]types.TestStep, len(list))
	for i, s := range list {
		out[i] = types.TestStep{Number: s.Number, Action: plain(s.Action), ExpectedResult: plain(s.ExpectedResult)}
	}
	return out
}

func plain(text string) string {
	if htmlMarkup.MatchString(text) {
		return richtext.ToText(text)
	}
	return strings.TrimSpace(text)
}
