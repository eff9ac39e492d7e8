package types

// Story is the subset of a user story the generator works from.
type Story struct {
	ID                int      `json:"id"`
	Title             string   `json:"title"`
	DescriptionHTML   string   `json:"description_html,omitempty"`
	CriteriaFieldHTML string   `json:"criteria_field_html,omitempty"`
	WorkItemType      string   `json:"work_item_type,omitempty"`
	Tags              []string `json:"tags,omitempty"`
}

// AcceptanceCriterion is one discrete criterion statement extracted from a story.
type AcceptanceCriterion struct {
	ID            int    `json:"id"` // 1-based, unique within the story
	Text          string `json:"text"`
	OriginalOrder int    `json:"original_order"`
}

// Classification is the classifier verdict for one criterion.
type Classification struct {
	Category    Category `json:"category"`
	Subcategory string   `json:"subcategory"`
	Score       float64  `json:"score"`
}
