package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/ado-testgen/internal/llm"
	"github.com/jonathan/ado-testgen/internal/types"
)

type fakeClient struct {
	responses []string
	errs      []error
	prompts   []string
	block     bool
}

func (f *fakeClient) next() (string, error) {
	i := len(f.prompts) - 1
	var resp string
	var err error
	if i < len(f.responses) {
		resp = f.responses[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return resp, err
}

func (f *fakeClient) GenerateJSON(ctx context.Context, prompt string, _ llm.ModelTier) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.next()
}

func (f *fakeClient) Close() error { return nil }

var req = Request{
	StoryTitle:     "Toolbar Tool",
	Description:    strings.Repeat("d", 800),
	Criterion:      "The tool should be visible in the toolbar.",
	BaselineTitles: []string{"1-AC1: a / b / c / d / e", "1-005: a / b / c / d / f"},
}

const twoSuggestions = `{"suggestions":[
 {"category":"Accessibility","subcategory":"Keyboard","short_descriptor":"Keyboard only toolbar access","risk":"High","rationale":"a11y"},
 {"category":"Behavior","subcategory":"Resize","short_descriptor":"Toolbar overflow on narrow window","risk":"Medium","rationale":"layout"},
 {"category":"Extra","subcategory":"Extra","short_descriptor":"Third proposal","risk":"Low","rationale":"cap"}]}`

func TestSuggest(t *testing.T) {
	client := &fakeClient{responses: []string{"```json\n" + twoSuggestions + "\n```"}}
	a := NewLLMAdvisor(client, Options{})

	got := a.Suggest(context.Background(), req)
	require.Len(t, got, MaxSuggestions)
	assert.Equal(t, "Keyboard only toolbar access", got[0].ShortDescriptor)
	assert.Equal(t, types.RiskMedium, got[1].Risk)

	require.Len(t, client.prompts, 1)
	prompt := client.prompts[0]
	assert.Contains(t, prompt, req.Criterion)
	assert.Contains(t, prompt, "- 1-005: a / b / c / d / f")
	assert.NotContains(t, prompt, strings.Repeat("d", 501))
	assert.NotContains(t, prompt, "{{.")
}

func TestSuggest_RetriesOnceThenSucceeds(t *testing.T) {
	client := &fakeClient{
		responses: []string{"", twoSuggestions},
		errs:      []error{errors.New("503 unavailable"), nil},
	}
	got := NewLLMAdvisor(client, Options{}).Suggest(context.Background(), req)
	assert.Len(t, got, 2)
	assert.Len(t, client.prompts, 2)
}

func TestSuggest_FailsOpen(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeClient
	}{
		{"errors", &fakeClient{errs: []error{errors.New("boom"), errors.New("boom")}}},
		{"malformed", &fakeClient{responses: []string{"not json", "{"}}},
		{"schema mismatch", &fakeClient{responses: []string{`{"items":[]}`, `{"suggestions":"none"}`}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewLLMAdvisor(tt.client, Options{}).Suggest(context.Background(), req)
			assert.Empty(t, got)
			assert.Len(t, tt.client.prompts, DefaultAttempts)
		})
	}
}

func TestSuggest_Timeout(t *testing.T) {
	client := &fakeClient{block: true}
	a := NewLLMAdvisor(client, Options{Timeout: 10 * time.Millisecond, Attempts: 1})
	assert.Empty(t, a.Suggest(context.Background(), req))
}

func TestSuggest_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := &fakeClient{responses: []string{twoSuggestions}}
	assert.Empty(t, NewLLMAdvisor(client, Options{}).Suggest(ctx, req))
	assert.Empty(t, client.prompts)
}

func TestSuggest_SingleEntry(t *testing.T) {
	client := &fakeClient{responses: []string{`{"suggestions":[
		{"category":"A","subcategory":"B","short_descriptor":"Valid proposal","risk":"Low"}]}`}}
	got := NewLLMAdvisor(client, Options{}).Suggest(context.Background(), req)
	require.Len(t, got, 1)
}

func TestWriteSteps(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(`{"steps":[`)
	for i := 0; i < 12; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(`{"action":"Do thing.","expected":"Thing done."}`)
	}
	sb.WriteString(`]}`)

	client := &fakeClient{responses: []string{sb.String()}}
	s := types.Suggestion{
		Category:        "Accessibility",
		Subcategory:     "Keyboard",
		ShortDescriptor: "Keyboard only toolbar access",
		Risk:            types.RiskHigh,
		Preconditions:   []string{"Toolbar docked"},
	}
	got := NewLLMAdvisor(client, Options{}).WriteSteps(context.Background(), req, s)
	assert.Len(t, got, MaxSteps)
	assert.Equal(t, types.DraftStep{Action: "Do thing.", Expected: "Thing done."}, got[0])
	assert.Contains(t, client.prompts[0], "- Toolbar docked")
	assert.Contains(t, client.prompts[0], "Hints: None")
}

func TestNoop(t *testing.T) {
	var a Advisor = Noop{}
	assert.Nil(t, a.Suggest(context.Background(), req))
	assert.Nil(t, a.WriteSteps(context.Background(), req, types.Suggestion{}))
}

func TestScenarioType(t *testing.T) {
	tests := []struct {
		s    types.Suggestion
		want types.TestType
	}{
		{types.Suggestion{Category: "Accessibility", Subcategory: "Keyboard"}, types.TestTypeAccessibility},
		{types.Suggestion{Category: "Behavior", ShortDescriptor: "Undo after tool placement"}, types.TestTypeUndoRedo},
		{types.Suggestion{Category: "Validation", Subcategory: "Input"}, types.TestTypeNegative},
		{types.Suggestion{Category: "Retention", Subcategory: "Maximum entries"}, types.TestTypeBoundary},
		{types.Suggestion{Category: "Behavior", Subcategory: "Dialog", ShortDescriptor: "Cancel discards pending edits"}, types.TestTypeCancelRollback},
		{types.Suggestion{Category: "Behavior", Subcategory: "Session", ShortDescriptor: "Layout after reopen"}, types.TestTypePersistence},
		{types.Suggestion{Category: "Availability", Subcategory: "Toolbar"}, types.TestTypeHappyPath},
	}
	for _, tt := range tests {
		t.Run(tt.s.Category+"/"+tt.s.Subcategory, func(t *testing.T) {
			assert.Equal(t, tt.want, ScenarioType(tt.s))
		})
	}
}
