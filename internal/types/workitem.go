package types

// ExistingItem is a previously published test case found in the tracker.
type ExistingItem struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	StepsDocument string   `json:"steps_document"`
	Tags          []string `json:"tags,omitempty"`
}

// SuiteAddResult reports suite membership requests. Members that were
// already present count as added.
type SuiteAddResult struct {
	Added  int      `json:"added"`
	Errors []string `json:"errors,omitempty"`
}
