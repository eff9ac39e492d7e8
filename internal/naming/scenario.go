package naming

import "github.com/jonathan/ado-testgen/internal/types"

// scenarioSegments are the category/subcategory title segments used when a
// criterion has no specific classification.
var scenarioSegments = map[types.TestType][2]string{
	types.TestTypeHappyPath:      {"Functional", "Happy Path"},
	types.TestTypeNegative:       {"Functional", "Negative"},
	types.TestTypeBoundary:       {"Functional", "Boundary"},
	types.TestTypeCancelRollback: {"Functional", "Cancel/Rollback"},
	types.TestTypePersistence:    {"Functional", "Persistence"},
	types.TestTypeUndoRedo:       {"Functional", "Undo/Redo"},
	types.TestTypeAccessibility:  {"Accessibility", "WCAG 2.1 AA"},
	types.TestTypeUmbrella:       {"Verification", "Sign-off"},
}

// ScenarioSegments returns the category and subcategory segments for a test type.
func ScenarioSegments(tt types.TestType) (category, subcategory string) {
	if seg, ok := scenarioSegments[tt]; ok {
		return seg[0], seg[1]
	}
	return "Functional", "General"
}
