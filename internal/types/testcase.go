package types

// TestType identifies the scenario a test case exercises.
type TestType string

// Scenario types.
const (
	TestTypeHappyPath      TestType = "happy_path"
	TestTypeNegative       TestType = "negative"
	TestTypeBoundary       TestType = "boundary"
	TestTypeCancelRollback TestType = "cancel_rollback"
	TestTypePersistence    TestType = "persistence"
	TestTypeUndoRedo       TestType = "undo_redo"
	TestTypeAccessibility  TestType = "accessibility"
	TestTypeUmbrella       TestType = "umbrella"
)

// TestStep is a single numbered action/expected pair.
type TestStep struct {
	Number         int    `json:"step_number"`
	Action         string `json:"action"`
	ExpectedResult string `json:"expected_result"`
}

// TestCase is a publishable, canonical test case. Values are treated as
// immutable once built; helpers return modified copies.
type TestCase struct {
	InternalID  string     `json:"internal_id"`
	Title       string     `json:"title"`
	Steps       []TestStep `json:"steps"`
	TestType    TestType   `json:"test_type"`
	CriterionID *int       `json:"acceptance_criterion_id,omitempty"` // nil only for the umbrella case
	StoryID     int        `json:"story_id"`
	Tags        []string   `json:"tags"`
}

// IsUmbrella reports whether the case is the story-level coverage sign-off.
func (tc TestCase) IsUmbrella() bool {
	return tc.TestType == TestTypeUmbrella
}

// DraftStep is an unnumbered step as proposed by a generator.
type DraftStep struct {
	Action   string `json:"action"`
	Expected string `json:"expected"`
}

// Draft is an unvalidated candidate awaiting canonicalization.
type Draft struct {
	ShortDescriptor string      `json:"short_descriptor"`
	Steps           []DraftStep `json:"steps"`
	Tags            []string    `json:"tags,omitempty"`
	TestType        TestType    `json:"test_type"`
	CriterionID     *int        `json:"acceptance_criterion_id,omitempty"`
}

// Risk is the advisor's risk rating for a proposed scenario.
type Risk string

// Risk levels.
const (
	RiskHigh   Risk = "High"
	RiskMedium Risk = "Medium"
	RiskLow    Risk = "Low"
)

// Suggestion is one additional scenario proposed by the advisor.
type Suggestion struct {
	Category        string   `json:"category" validate:"required"`
	Subcategory     string   `json:"subcategory" validate:"required"`
	ShortDescriptor string   `json:"short_descriptor" validate:"required"`
	Risk            Risk     `json:"risk" validate:"required,oneof=High Medium Low"`
	Rationale       string   `json:"rationale"`
	Preconditions   []string `json:"preconditions,omitempty"`
	StepsHint       []string `json:"steps_hint,omitempty"`
}
