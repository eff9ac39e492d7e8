package types

// PublishAction is what happened, or in a dry run would happen, to one case.
type PublishAction struct {
	InternalID string `json:"internal_id"`
	Title      string `json:"title"`
	Action     string `json:"action"`
	WorkItemID int    `json:"work_item_id,omitempty"`
}

// Summary reports one generation run. Rejection counts are derived from the
// explicit Rejections records.
type Summary struct {
	RunID             string          `json:"run_id"`
	StoryID           int             `json:"story_id"`
	StoryTitle        string          `json:"story_title"`
	Mode              string          `json:"mode"`
	DryRun            bool            `json:"dry_run"`
	Criteria          int             `json:"criteria"`
	RuleCandidates    int             `json:"rule_candidates"`
	AdvisorCandidates int             `json:"advisor_candidates"`
	Accepted          int             `json:"accepted"`
	AdvisorAccepted   int             `json:"advisor_accepted"`
	Created           int             `json:"created"`
	Updated           int             `json:"updated"`
	Skipped           int             `json:"skipped"`
	AddedToSuite      int             `json:"added_to_suite"`
	Actions           []PublishAction `json:"actions,omitempty"`
	Rejections        []Rejection     `json:"rejections,omitempty"`
	Errors            []string        `json:"errors,omitempty"`
}

// Rejected counts rejections from source at stage.
func (s *Summary) Rejected(source Source, stage Stage) int {
	n := 0
	for _, r := range s.Rejections {
		if r.Source == source && r.Stage == stage {
			n++
		}
	}
	return n
}

// Failed reports whether any publish fault was recorded.
func (s *Summary) Failed() bool {
	return len(s.Errors) > 0
}
