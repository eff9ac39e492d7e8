// Package steps manages numbered test steps and their work-item document encoding.
package steps

import "github.com/jonathan/ado-testgen/internal/types"

// Close step content terminating every generated test case.
const (
	CloseAction   = "Close/Exit the QuickDraw application."
	CloseExpected = "Application closes successfully without crash or freeze; no error dialogs are shown during exit."
)

// FromDrafts numbers draft steps from 1.
func FromDrafts(drafts []types.DraftStep) []types.TestStep {
	out := make([]types.TestStep, 0, len(drafts))
	for i, d := range drafts {
		out = append(out, types.TestStep{Number: i + 1, Action: d.Action, ExpectedResult: d.Expected})
	}
	return out
}

// Renumber returns a copy of list numbered contiguously from 1.
func Renumber(list []types.TestStep) []types.TestStep {
	out := make([]types.TestStep, len(list))
	for i, s := range list {
		s.Number = i + 1
		out[i] = s
	}
	return out
}

// IsClose reports whether s is the mandatory close step.
func IsClose(s types.TestStep) bool {
	return s.Action == CloseAction && s.ExpectedResult == CloseExpected
}

// AppendClose returns a renumbered copy of list ending in the close step.
// A list that already ends in the close step is only renumbered.
func AppendClose(list []types.TestStep) []types.TestStep {
	out := Renumber(list)
	if len(out) > 0 && IsClose(out[len(out)-1]) {
		return out
	}
	return append(out, types.TestStep{
		Number:         len(out) + 1,
		Action:         CloseAction,
		ExpectedResult: CloseExpected,
	})
}

// Equal compares two step lists by number, action and expected result.
func Equal(a, b []types.TestStep) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
