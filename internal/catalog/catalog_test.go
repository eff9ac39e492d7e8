package catalog

import (
	"strings"
	"testing"

	"github.com/jonathan/ado-testgen/internal/criteria"
	"github.com/jonathan/ado-testgen/internal/naming"
	"github.com/jonathan/ado-testgen/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Loads(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.Equal(t, 32, c.Len())
}

func TestDefault_CoversEveryDefaultSubcategory(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	for _, category := range types.Categories {
		sub := criteria.Subcategory(category, "")
		tmpl := c.Lookup(category, sub)
		assert.Equal(t, category, tmpl.Category, "category %s", category)
		assert.Equal(t, sub, tmpl.Subcategory, "category %s", category)
	}
}

func TestDefault_DescriptorsLeaveRoomForQualifiers(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	for _, tmpl := range c.exact {
		withQualifier := tmpl.ShortDescriptor + " invalid conditions"
		assert.NoError(t, naming.ValidateDescriptor(withQualifier), tmpl.ShortDescriptor)
	}
}

func TestLookup_FallbackOrder(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	exact := c.Lookup(types.CategoryOrdering, "Newest First")
	assert.Equal(t, "Newest entries shown first", exact.ShortDescriptor)

	byCategory := c.Lookup(types.CategoryOrdering, "Unknown Sub")
	assert.Equal(t, types.CategoryOrdering, byCategory.Category)

	empty, err := New([]Template{{
		Category:        types.CategoryOther,
		Subcategory:     "General",
		ShortDescriptor: "Core behavior",
		Steps:           []types.DraftStep{{Action: "a", Expected: "b"}},
	}})
	require.NoError(t, err)
	fallback := empty.Lookup(types.CategoryScrolling, "Vertical Scrolling")
	assert.Equal(t, types.CategoryOther, fallback.Category)
}

func TestStepsFor_SubstitutesCriterion(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	tmpl := c.Lookup(types.CategoryOther, "General")
	got := tmpl.StepsFor("  The export works. ")
	require.NotEmpty(t, got)
	for _, s := range got {
		assert.NotContains(t, s.Action, CriterionPlaceholder)
	}
	assert.Contains(t, got[len(got)-1].Action, `"The export works."`)
	assert.Contains(t, tmpl.Steps[len(tmpl.Steps)-1].Action, CriterionPlaceholder, "template must not be mutated")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "malformed yaml",
			yaml:    "templates: [",
			wantErr: "failed to parse templates",
		},
		{
			name:    "unknown category",
			yaml:    "templates:\n  - category: Nope\n    subcategory: X\n    short_descriptor: Fine\n    steps: [{action: a, expected: b}]\n",
			wantErr: "unknown category",
		},
		{
			name:    "bad descriptor",
			yaml:    "templates:\n  - category: Other/General\n    subcategory: General\n    short_descriptor: Verify things\n    steps: [{action: a, expected: b}]\n",
			wantErr: "forbidden word",
		},
		{
			name:    "descriptor too long for qualifiers",
			yaml:    "templates:\n  - category: Other/General\n    subcategory: General\n    short_descriptor: one two three four five six seven\n    steps: [{action: a, expected: b}]\n",
			wantErr: "has 7 words",
		},
		{
			name:    "no steps",
			yaml:    "templates:\n  - category: Other/General\n    subcategory: General\n    short_descriptor: Fine\n",
			wantErr: "has no steps",
		},
		{
			name:    "missing fallback",
			yaml:    "templates:\n  - category: Ordering\n    subcategory: Sort Order\n    short_descriptor: Fine\n    steps: [{action: a, expected: b}]\n",
			wantErr: "no Other/General template",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.yaml))
			require.Error(t, err)
			var loadErr *LoadError
			assert.ErrorAs(t, err, &loadErr)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
