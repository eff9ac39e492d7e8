package types

// Source identifies which generator produced a candidate.
type Source string

// Candidate sources.
const (
	SourceRules   Source = "rules"
	SourceAdvisor Source = "advisor"
)

// Stage identifies where a candidate was dropped.
type Stage string

// Rejection stages.
const (
	StageValidation Stage = "validation"
	StageDuplicate  Stage = "duplicate"
)

// Rejection records why one candidate did not make the publish set.
type Rejection struct {
	Source     Source `json:"source"`
	Stage      Stage  `json:"stage"`
	InternalID string `json:"internal_id,omitempty"`
	Title      string `json:"title,omitempty"`
	Reason     string `json:"reason"`
}
