// Package synth turns classified acceptance criteria into rule-based test cases.
package synth

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/ado-testgen/internal/catalog"
	"github.com/jonathan/ado-testgen/internal/criteria"
	"github.com/jonathan/ado-testgen/internal/gate"
	"github.com/jonathan/ado-testgen/internal/naming"
	"github.com/jonathan/ado-testgen/internal/types"
)

// DefaultMaxTestsPerCriterion caps rule-based cases per criterion.
const DefaultMaxTestsPerCriterion = 2

const (
	maxFeatureLength   = 50
	defaultFeature     = "Work Item"
	defaultModule      = "Core"
	propertiesPanel    = "Properties Panel"
	umbrellaFeature    = "Acceptance Criteria Coverage"
	umbrellaModule     = "Test Coverage"
	umbrellaDescriptor = "All acceptance criteria coverage"
)

// Options configures a Synthesizer.
type Options struct {
	MaxTestsPerCriterion int
	Mode                 string
	Logger               *zap.Logger
}

// Synthesizer generates happy-path, negative, boundary and umbrella cases.
type Synthesizer struct {
	catalog *catalog.Catalog
	opts    Options
}

// New creates a Synthesizer backed by the given catalog.
func New(c *catalog.Catalog, opts Options) *Synthesizer {
	if opts.MaxTestsPerCriterion <= 0 {
		opts.MaxTestsPerCriterion = DefaultMaxTestsPerCriterion
	}
	if opts.Mode == "" {
		opts.Mode = ModeRules
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Synthesizer{catalog: c, opts: opts}
}

// Scenarios returns the scenario types generated for a category under max.
// Restrictions are already negative by nature; boundaries only make sense
// for limits and ordering.
func Scenarios(category types.Category, max int) []types.TestType {
	scenarios := []types.TestType{types.TestTypeHappyPath}
	if len(scenarios) < max && category != types.CategoryRestrictions {
		scenarios = append(scenarios, types.TestTypeNegative)
	}
	if len(scenarios) < max && (category == types.CategoryLimit || category == types.CategoryOrdering) {
		scenarios = append(scenarios, types.TestTypeBoundary)
	}
	return scenarios
}

// Result is the outcome of one synthesis pass.
type Result struct {
	Cases      []types.TestCase
	Rejections []types.Rejection
	// Generated counts every candidate, rejected ones included. It is the
	// index of the next unused internal ID for the story.
	Generated int
}

// Synthesize produces the rule-based cases for every criterion followed by a
// single umbrella case. Every candidate is canonicalized through the gate;
// internal IDs follow generation order whether or not the candidate survives.
func (s *Synthesizer) Synthesize(story *types.Story, list []types.AcceptanceCriterion) (Result, error) {
	var res Result
	if story == nil {
		return res, fmt.Errorf("story is required")
	}

	feature := FeatureName(story.Title)

	for i := range list {
		ac := list[i]
		cls := criteria.Classify(ac.Text)
		tmpl := s.catalog.Lookup(cls.Category, cls.Subcategory)
		module := ModuleName(story.Title, ac.Text)
		text := gate.PlainText(ac.Text)

		s.opts.Logger.Debug("classified criterion",
			zap.Int("criterion", ac.ID),
			zap.String("category", cls.Category.String()),
			zap.String("subcategory", cls.Subcategory),
			zap.Float64("score", cls.Score))

		for _, tt := range Scenarios(cls.Category, s.opts.MaxTestsPerCriterion) {
			category, subcategory := TitleSegments(cls, tt)
			s.admit(&res, buildInput{
				storyID:     story.ID,
				feature:     feature,
				module:      module,
				category:    category,
				subcategory: subcategory,
				descriptor:  Descriptor(tmpl.ShortDescriptor, tt),
				steps:       Skeleton(tt, text, tmpl.StepsFor(text)),
				testType:    tt,
				criterion:   &ac,
			})
		}
	}

	s.admit(&res, s.umbrella(story.ID, len(list)))
	return res, nil
}

// umbrella describes the story-level coverage sign-off case.
func (s *Synthesizer) umbrella(storyID, criteriaCount int) buildInput {
	category, subcategory := naming.ScenarioSegments(types.TestTypeUmbrella)
	return buildInput{
		storyID:     storyID,
		feature:     umbrellaFeature,
		module:      umbrellaModule,
		category:    category,
		subcategory: subcategory,
		descriptor:  umbrellaDescriptor,
		steps: []types.DraftStep{
			LaunchStep,
			{
				Action:   fmt.Sprintf("Review all test cases generated for User Story %d.", storyID),
				Expected: "All generated test cases are present and linked to the story.",
			},
			{
				Action:   "Cross-check that each acceptance criterion has at least one test case.",
				Expected: fmt.Sprintf("All %d acceptance criteria are covered by at least one test case.", criteriaCount),
			},
			{
				Action:   "Execute a representative sample of the generated test cases.",
				Expected: "Sampled test cases pass without defects.",
			},
			{
				Action:   "Sign off acceptance criteria coverage for the story.",
				Expected: "Coverage sign-off is recorded for the story.",
			},
		},
		testType: types.TestTypeUmbrella,
	}
}

type buildInput struct {
	storyID     int
	feature     string
	module      string
	category    string
	subcategory string
	descriptor  string
	steps       []types.DraftStep
	testType    types.TestType
	criterion   *types.AcceptanceCriterion
}

// admit takes the next internal ID, canonicalizes the candidate and records
// it as a case or a rejection.
func (s *Synthesizer) admit(res *Result, in buildInput) {
	internalID := naming.InternalID(in.storyID, res.Generated)
	res.Generated++

	draft := types.Draft{
		ShortDescriptor: in.descriptor,
		Steps:           in.steps,
		Tags:            Tags(in.storyID, s.opts.Mode, SourceRules, in.testType, in.criterion),
		TestType:        in.testType,
	}
	if in.criterion != nil {
		id := in.criterion.ID
		draft.CriterionID = &id
	}

	verdict := gate.Canonicalize(draft, gate.Target{
		StoryID:     in.storyID,
		InternalID:  internalID,
		Feature:     in.feature,
		Module:      in.module,
		Category:    in.category,
		Subcategory: in.subcategory,
	})
	if !verdict.OK {
		s.opts.Logger.Debug("rule case rejected",
			zap.String("internal_id", internalID),
			zap.String("reason", verdict.Reason))
		res.Rejections = append(res.Rejections, types.Rejection{
			Source:     types.SourceRules,
			Stage:      types.StageValidation,
			InternalID: internalID,
			Title:      in.descriptor,
			Reason:     verdict.Reason,
		})
		return
	}
	res.Cases = append(res.Cases, verdict.Case)
}

// TitleSegments picks the category and subcategory title segments: the
// classification, unless it is other/general, in which case the scenario
// mapping applies.
func TitleSegments(cls types.Classification, tt types.TestType) (string, string) {
	if cls.Category == types.CategoryOther {
		return naming.ScenarioSegments(tt)
	}
	return cls.Category.String(), cls.Subcategory
}

// FeatureName derives the feature segment from the story title.
func FeatureName(storyTitle string) string {
	feature := naming.CleanSegment(storyTitle)
	if feature == "" {
		return defaultFeature
	}
	if runes := []rune(feature); len(runes) > maxFeatureLength {
		feature = strings.TrimSpace(string(runes[:maxFeatureLength-3])) + "..."
	}
	return feature
}

// ModuleName derives the module segment from the story title and criterion.
func ModuleName(storyTitle, criterionText string) string {
	if strings.Contains(strings.ToLower(storyTitle+" "+criterionText), strings.ToLower(propertiesPanel)) {
		return propertiesPanel
	}
	return defaultModule
}
