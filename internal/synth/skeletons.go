package synth

import (
	"fmt"
	"strings"

	"github.com/jonathan/ado-testgen/internal/types"
)

// LaunchStep opens every generated test case.
var LaunchStep = types.DraftStep{
	Action:   "Launch the application.",
	Expected: "Application launches successfully and main window is displayed.",
}

// qualifiers distinguish scenario descriptors that share a template.
var qualifiers = map[types.TestType]string{
	types.TestTypeNegative:       "invalid conditions",
	types.TestTypeBoundary:       "boundary limits",
	types.TestTypeCancelRollback: "cancel rollback",
	types.TestTypePersistence:    "after reopen",
	types.TestTypeUndoRedo:       "undo redo",
	types.TestTypeAccessibility:  "keyboard access",
}

// Descriptor returns the short descriptor for a scenario built on base.
func Descriptor(base string, tt types.TestType) string {
	if q, ok := qualifiers[tt]; ok {
		return base + " " + q
	}
	return base
}

func navigateStep(criterion string) types.DraftStep {
	return types.DraftStep{
		Action:   fmt.Sprintf("Navigate to the feature related to: %s", strings.TrimSpace(criterion)),
		Expected: "Feature interface is displayed and accessible.",
	}
}

// launchOf returns the first template step, or the generic launch step.
func launchOf(templateSteps []types.DraftStep) types.DraftStep {
	if len(templateSteps) > 0 {
		return templateSteps[0]
	}
	return LaunchStep
}

// Skeleton returns the fixed step skeleton of a scenario. Happy-path and
// umbrella cases are not skeleton-driven and return the template steps.
func Skeleton(tt types.TestType, criterion string, templateSteps []types.DraftStep) []types.DraftStep {
	launch := launchOf(templateSteps)
	nav := navigateStep(criterion)

	switch tt {
	case types.TestTypeNegative:
		return []types.DraftStep{
			launch,
			nav,
			{
				Action:   "Attempt to perform the action with invalid input or conditions that should be rejected.",
				Expected: "System displays appropriate error message and prevents invalid operation.",
			},
			{
				Action:   "Verify system state remains consistent after error.",
				Expected: "System state is unchanged and no data corruption occurred.",
			},
		}
	case types.TestTypeBoundary:
		return []types.DraftStep{
			launch,
			nav,
			{
				Action:   "Perform the action at the minimum allowed boundary value.",
				Expected: "System accepts the minimum value and behaves as specified.",
			},
			{
				Action:   "Perform the action at the maximum allowed boundary value.",
				Expected: "System accepts the maximum value and behaves as specified.",
			},
			{
				Action:   "Attempt the action just outside the allowed boundary.",
				Expected: "System rejects or clamps the value without error or data loss.",
			},
		}
	case types.TestTypePersistence:
		return []types.DraftStep{
			launch,
			nav,
			{Action: "Make the change described by the criterion and save.", Expected: "Change is saved without error."},
			{Action: "Close the application.", Expected: "Application closes cleanly."},
			{Action: "Relaunch the application and reopen the saved work.", Expected: "Saved work opens successfully."},
			{Action: "Inspect the previously changed content.", Expected: "The change persisted exactly as saved."},
		}
	case types.TestTypeUndoRedo:
		return []types.DraftStep{
			launch,
			nav,
			{Action: "Perform the action described by the criterion.", Expected: "Action is applied."},
			{Action: "Invoke Undo.", Expected: "Action is reverted and prior state is restored."},
			{Action: "Invoke Redo.", Expected: "Action is reapplied and matches the original result."},
		}
	case types.TestTypeCancelRollback:
		return []types.DraftStep{
			launch,
			nav,
			{Action: "Begin the action and open its dialog.", Expected: "Dialog is displayed."},
			{Action: "Change values in the dialog and cancel.", Expected: "Dialog closes without applying changes."},
			{Action: "Inspect the affected content.", Expected: "Content is unchanged from before the dialog opened."},
		}
	case types.TestTypeAccessibility:
		return []types.DraftStep{
			launch,
			nav,
			{
				Action:   "Using only the keyboard, move through every control of the feature.",
				Expected: "All controls are reachable with Tab and Shift+Tab in a logical order.",
			},
			{
				Action:   "Observe focus on each control.",
				Expected: "A visible focus indicator meets WCAG 2.1 AA contrast requirements.",
			},
			{
				Action:   "Activate the primary control with Enter or Space.",
				Expected: "The control responds exactly as it does to a pointer.",
			},
		}
	default:
		if len(templateSteps) == 0 {
			return []types.DraftStep{LaunchStep, nav}
		}
		return templateSteps
	}
}
