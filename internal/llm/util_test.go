package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n{\"suggestions\": []}\n```",
			expected: `{"suggestions": []}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"suggestions\": []}\n```",
			expected: `{"suggestions": []}`,
		},
		{
			name:     "code block with language",
			input:    "```javascript\n{\"steps\": []}\n```",
			expected: `{"steps": []}`,
		},
		{
			name:     "plain JSON",
			input:    `{"steps": []}`,
			expected: `{"steps": []}`,
		},
		{
			name:     "preamble before object",
			input:    "Here are the extra scenarios:\n{\"suggestions\": [{\"risk\": \"High\"}]}",
			expected: `{"suggestions": [{"risk": "High"}]}`,
		},
		{
			name:     "preamble before array",
			input:    "Steps follow: [{\"action\": \"a\"}]",
			expected: `[{"action": "a"}]`,
		},
		{
			name:     "trailing chatter",
			input:    "{\"steps\": []}\n\nLet me know if you need more scenarios!",
			expected: `{"steps": []}`,
		},
		{
			name:     "escaped quotes and braces in strings",
			input:    `Result: {"action": "Type \"{x}\" in the box"}`,
			expected: `{"action": "Type \"{x}\" in the box"}`,
		},
		{
			name:     "unbalanced left as is",
			input:    `{"steps": [`,
			expected: `{"steps": [`,
		},
		{
			name:     "no json",
			input:    "no scenarios today",
			expected: "no scenarios today",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple object", `{"key": "value"}`, `{"key": "value"}`},
		{"nested objects", `{"outer": {"inner": "value"}}`, `{"outer": {"inner": "value"}}`},
		{"object with trailing text", `{"key": "value"} and more`, `{"key": "value"}`},
		{"string with braces inside", `{"template": "Hello {name}!"}`, `{"template": "Hello {name}!"}`},
		{"empty input", "", ""},
		{"not starting with brace", "not json", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractJSONObject(tt.input))
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple array", `["a", "b"]`, `["a", "b"]`},
		{"nested arrays", `[[1, 2], [3, 4]]`, `[[1, 2], [3, 4]]`},
		{"array of objects", `[{"id": 1}, {"id": 2}]`, `[{"id": 1}, {"id": 2}]`},
		{"array with trailing text", `[1, 2, 3] extra`, `[1, 2, 3]`},
		{"empty input", "", ""},
		{"not starting with bracket", "not array", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractJSONArray(tt.input))
		})
	}
}
