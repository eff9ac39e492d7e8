// Package pipeline orchestrates one generation run: fetch, extract,
// synthesize, advise, gate, deduplicate and publish.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/ado-testgen/internal/advisor"
	"github.com/jonathan/ado-testgen/internal/catalog"
	"github.com/jonathan/ado-testgen/internal/criteria"
	"github.com/jonathan/ado-testgen/internal/db"
	"github.com/jonathan/ado-testgen/internal/dedup"
	"github.com/jonathan/ado-testgen/internal/gate"
	"github.com/jonathan/ado-testgen/internal/logging"
	"github.com/jonathan/ado-testgen/internal/naming"
	"github.com/jonathan/ado-testgen/internal/observability"
	"github.com/jonathan/ado-testgen/internal/publish"
	"github.com/jonathan/ado-testgen/internal/richtext"
	"github.com/jonathan/ado-testgen/internal/synth"
	"github.com/jonathan/ado-testgen/internal/types"
)

// ErrNoCriteria aborts a run whose story yields no acceptance criteria.
var ErrNoCriteria = errors.New("no acceptance criteria found")

const totalSteps = 6

// StorySource fetches the story a run generates cases for.
type StorySource interface {
	FetchStory(ctx context.Context, id int) (*types.Story, error)
}

// Store persists run history. *db.DB implements it.
type Store interface {
	CreateRun(ctx context.Context, in db.RunInput) (uuid.UUID, error)
	SaveArtifact(ctx context.Context, runID uuid.UUID, step string, content any) error
	RecordStep(ctx context.Context, runID uuid.UUID, in db.RunStepInput) error
	CompleteRun(ctx context.Context, runID uuid.UUID, status string, counts db.RunCounts) error
}

// Deps are the collaborators of a run. Advisor, Detector, Store, Logger and
// Out are optional.
type Deps struct {
	Stories   StorySource
	Catalog   *catalog.Catalog
	Advisor   advisor.Advisor
	Detector  *dedup.Detector
	Publisher *publish.Coordinator
	Store     Store
	Logger    *zap.Logger
	Out       io.Writer
}

// Options select the story, the target suite and the generation mode.
type Options struct {
	StoryID              int
	PlanID               int
	SuiteID              int
	DryRun               bool
	Mode                 string
	MaxTestsPerCriterion int
	Verbose              bool
}

type runner struct {
	deps    Deps
	opts    Options
	logger  *zap.Logger
	out     io.Writer
	printer *observability.Printer
	runID   uuid.UUID
	stored  bool
	step    int
	started time.Time
}

// Run executes the pipeline for one story. Only a failed story fetch and an
// empty criteria list are fatal; every other fault is recorded in the summary.
func Run(ctx context.Context, deps Deps, opts Options) (*types.Summary, error) {
	if deps.Stories == nil || deps.Publisher == nil {
		return nil, fmt.Errorf("story source and publisher are required")
	}
	if opts.Mode == "" {
		opts.Mode = synth.ModeRules
	}
	if opts.Mode != synth.ModeRules && opts.Mode != synth.ModeHybrid {
		return nil, fmt.Errorf("unknown generation mode %q", opts.Mode)
	}
	if deps.Catalog == nil {
		c, err := catalog.Default()
		if err != nil {
			return nil, err
		}
		deps.Catalog = c
	}
	if deps.Advisor == nil {
		deps.Advisor = advisor.Noop{}
	}
	if deps.Detector == nil {
		deps.Detector = dedup.NewDetector(deps.Logger, dedup.NewLexicalSignal(dedup.DefaultLexicalThreshold))
	}
	if deps.Out == nil {
		deps.Out = io.Discard
	}

	r := &runner{
		deps:    deps,
		opts:    opts,
		logger:  logging.OrNop(deps.Logger),
		out:     deps.Out,
		printer: observability.NewPrinter(deps.Out),
		runID:   uuid.New(),
	}
	r.logger = r.logger.With(zap.String("run_id", r.runID.String()), zap.Int("story_id", opts.StoryID))
	return r.run(ctx)
}

func (r *runner) run(ctx context.Context) (*types.Summary, error) {
	summary := &types.Summary{
		RunID:   r.runID.String(),
		StoryID: r.opts.StoryID,
		Mode:    r.opts.Mode,
		DryRun:  r.opts.DryRun,
	}

	r.progress("Fetching story %d", r.opts.StoryID)
	story, err := r.deps.Stories.FetchStory(ctx, r.opts.StoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch story %d: %w", r.opts.StoryID, err)
	}
	summary.StoryTitle = story.Title
	r.begin(ctx, story)

	r.progress("Extracting acceptance criteria")
	list := criteria.FromStory(story)
	if len(list) == 0 {
		r.record(ctx, db.StepCriteria, ErrNoCriteria, nil)
		r.complete(ctx, summary, db.RunStatusFailed)
		return nil, ErrNoCriteria
	}
	summary.Criteria = len(list)
	r.save(ctx, db.StepCriteria, list)
	r.record(ctx, db.StepCriteria, nil, map[string]any{"count": len(list)})
	if r.opts.Verbose {
		classifications := make([]types.Classification, len(list))
		for i, c := range list {
			classifications[i] = criteria.Classify(c.Text)
		}
		r.printer.PrintCriteria(list, classifications)
	}

	r.progress("Generating rule-based test cases")
	generated, err := synth.New(r.deps.Catalog, synth.Options{
		MaxTestsPerCriterion: r.opts.MaxTestsPerCriterion,
		Mode:                 r.opts.Mode,
		Logger:               r.logger,
	}).Synthesize(story, list)
	if err != nil {
		return nil, fmt.Errorf("test case synthesis failed: %w", err)
	}
	ruleCases := generated.Cases
	summary.RuleCandidates = generated.Generated
	summary.Rejections = append(summary.Rejections, generated.Rejections...)
	r.record(ctx, db.StepCandidates, nil, map[string]any{"rules": generated.Generated, "rejected": len(generated.Rejections)})

	var advisorCases []types.TestCase
	if r.opts.Mode == synth.ModeHybrid {
		r.progress("Consulting scenario advisor")
		var (
			proposed   int
			rejections []types.Rejection
		)
		advisorCases, proposed, rejections = r.advise(ctx, story, list, ruleCases, generated.Generated)
		summary.AdvisorCandidates = proposed
		summary.Rejections = append(summary.Rejections, rejections...)
		r.record(ctx, db.StepAdvisor, nil, map[string]any{"proposed": proposed, "rejected": len(rejections)})
	} else {
		r.progress("Skipping scenario advisor (rules mode)")
	}
	r.save(ctx, db.StepCandidates, append(append([]types.TestCase(nil), ruleCases...), advisorCases...))

	r.progress("Removing duplicates")
	merged := r.deps.Detector.Merge(ctx, ruleCases, advisorCases)
	summary.Rejections = append(summary.Rejections, merged.Rejections...)
	summary.Accepted = len(merged.Accepted)
	summary.AdvisorAccepted = countSource(merged.Accepted, advisorCases)
	r.save(ctx, db.StepAccepted, merged.Accepted)
	r.save(ctx, db.StepRejections, summary.Rejections)
	r.record(ctx, db.StepDedup, nil, map[string]any{"accepted": summary.Accepted, "signals": r.deps.Detector.Signals()})

	var res publish.Result
	if r.opts.DryRun {
		r.progress("Planning publish (dry run, nothing is written)")
		res = r.deps.Publisher.Plan(ctx, story.ID, merged.Accepted)
	} else {
		r.progress("Publishing %d test cases to plan %d, suite %d", len(merged.Accepted), r.opts.PlanID, r.opts.SuiteID)
		res = r.deps.Publisher.Publish(ctx, publish.Target{
			StoryID: story.ID,
			PlanID:  r.opts.PlanID,
			SuiteID: r.opts.SuiteID,
		}, merged.Accepted)
	}
	applyPublish(summary, res)
	r.save(ctx, db.StepPublish, res)

	var publishErr error
	if summary.Failed() {
		publishErr = fmt.Errorf("%d publish errors", len(summary.Errors))
	}
	r.record(ctx, db.StepPublish, publishErr, map[string]any{"dry_run": r.opts.DryRun})

	status := db.RunStatusSucceeded
	if summary.Failed() {
		status = db.RunStatusFailed
	}
	r.save(ctx, db.StepSummary, summary)
	r.complete(ctx, summary, status)
	return summary, nil
}

// advise asks the advisor for extra scenarios per criterion and canonicalizes
// each one through the gate. Advisor cases take internal IDs from next on,
// after every rule candidate including rejected ones, and share the first
// rule title's feature and module.
func (r *runner) advise(ctx context.Context, story *types.Story, list []types.AcceptanceCriterion, ruleCases []types.TestCase, next int) ([]types.TestCase, int, []types.Rejection) {
	var (
		cases      []types.TestCase
		rejections []types.Rejection
		proposed   int
	)

	baseline := make([]string, 0, len(ruleCases))
	for _, tc := range ruleCases {
		baseline = append(baseline, tc.Title)
	}
	feature, module := inheritedSegments(story, ruleCases)
	description := richtext.ToText(story.DescriptionHTML)

	for _, c := range list {
		if ctx.Err() != nil {
			r.logger.Warn("advisor stopped", zap.Error(ctx.Err()))
			break
		}

		req := advisor.Request{
			StoryTitle:     story.Title,
			Description:    description,
			Criterion:      c.Text,
			BaselineTitles: baseline,
		}
		cls := criteria.Classify(c.Text)
		text := gate.PlainText(c.Text)
		templateSteps := r.deps.Catalog.Lookup(cls.Category, cls.Subcategory).StepsFor(text)

		for _, s := range r.deps.Advisor.Suggest(ctx, req) {
			proposed++
			tt := advisor.ScenarioType(s)

			drafts := r.deps.Advisor.WriteSteps(ctx, req, s)
			if len(drafts) == 0 {
				drafts = synth.Skeleton(tt, text, templateSteps)
			}

			criterion := c
			internalID := naming.InternalID(story.ID, next)
			res := gate.Canonicalize(types.Draft{
				ShortDescriptor: s.ShortDescriptor,
				Steps:           drafts,
				Tags:            synth.Tags(story.ID, synth.ModeHybrid, synth.SourceAdvisor, tt, &criterion),
				TestType:        tt,
				CriterionID:     &criterion.ID,
			}, gate.Target{
				StoryID:     story.ID,
				InternalID:  internalID,
				Feature:     feature,
				Module:      module,
				Category:    s.Category,
				Subcategory: s.Subcategory,
			})
			if !res.OK {
				r.logger.Debug("advisor case rejected",
					zap.String("internal_id", internalID),
					zap.String("descriptor", s.ShortDescriptor),
					zap.String("reason", res.Reason))
				rejections = append(rejections, types.Rejection{
					Source:     types.SourceAdvisor,
					Stage:      types.StageValidation,
					InternalID: internalID,
					Title:      s.ShortDescriptor,
					Reason:     res.Reason,
				})
				continue
			}
			cases = append(cases, res.Case)
			next++
		}
	}
	return cases, proposed, rejections
}

// inheritedSegments returns the feature and module segments of the first
// rule-generated title, or derives them from the story when there is none.
func inheritedSegments(story *types.Story, ruleCases []types.TestCase) (string, string) {
	if len(ruleCases) > 0 {
		first := ruleCases[0]
		segments := strings.Split(strings.TrimPrefix(first.Title, first.InternalID+": "), naming.SegmentSeparator)
		if len(segments) == naming.TitleSegments {
			return segments[0], segments[1]
		}
	}
	return synth.FeatureName(story.Title), synth.ModuleName(story.Title, "")
}

func countSource(accepted, source []types.TestCase) int {
	ids := make(map[string]bool, len(source))
	for _, tc := range source {
		ids[tc.InternalID] = true
	}
	n := 0
	for _, tc := range accepted {
		if ids[tc.InternalID] {
			n++
		}
	}
	return n
}

func applyPublish(summary *types.Summary, res publish.Result) {
	summary.Created = res.Created
	summary.Updated = res.Updated
	summary.Skipped = res.Skipped
	summary.AddedToSuite = res.AddedToSuite
	summary.Errors = append(summary.Errors, res.Errors...)
	for _, d := range res.Decisions {
		summary.Actions = append(summary.Actions, types.PublishAction{
			InternalID: d.Case.InternalID,
			Title:      d.Case.Title,
			Action:     string(d.Action),
			WorkItemID: d.ExistingID,
		})
	}
}

//nolint:errcheck // progress output; write errors are not recoverable
func (r *runner) progress(format string, args ...any) {
	r.step++
	r.started = time.Now()
	fmt.Fprintf(r.out, "Step %d/%d: %s...\n", r.step, totalSteps, fmt.Sprintf(format, args...))
}

// begin opens the run record. History is best-effort: store failures are
// logged and the run continues without persistence.
func (r *runner) begin(ctx context.Context, story *types.Story) {
	if r.deps.Store == nil {
		return
	}
	if _, err := r.deps.Store.CreateRun(ctx, db.RunInput{
		ID:      r.runID,
		StoryID: r.opts.StoryID,
		Mode:    r.opts.Mode,
		DryRun:  r.opts.DryRun,
	}); err != nil {
		r.logger.Warn("failed to create run record, continuing without history", zap.Error(err))
		return
	}
	r.stored = true
	r.save(ctx, db.StepStory, story)
}

func (r *runner) save(ctx context.Context, step string, content any) {
	if !r.stored {
		return
	}
	if err := r.deps.Store.SaveArtifact(ctx, r.runID, step, content); err != nil {
		r.logger.Warn("failed to save artifact", zap.String("step", step), zap.Error(err))
	}
}

func (r *runner) record(ctx context.Context, step string, stepErr error, params map[string]any) {
	if !r.stored {
		return
	}
	in := db.RunStepInput{
		Step:       step,
		Status:     db.StepStatusCompleted,
		Duration:   time.Since(r.started),
		Parameters: params,
	}
	if stepErr != nil {
		in.Status = db.StepStatusFailed
		in.Error = stepErr.Error()
	}
	if err := r.deps.Store.RecordStep(ctx, r.runID, in); err != nil {
		r.logger.Warn("failed to record run step", zap.String("step", step), zap.Error(err))
	}
}

func (r *runner) complete(ctx context.Context, summary *types.Summary, status string) {
	if !r.stored {
		return
	}
	// history is written even when the run context was cancelled
	ctx = context.WithoutCancel(ctx)
	counts := db.RunCounts{
		Criteria: summary.Criteria,
		Created:  summary.Created,
		Updated:  summary.Updated,
		Skipped:  summary.Skipped,
		Rejected: len(summary.Rejections),
		Errors:   len(summary.Errors),
	}
	if err := r.deps.Store.CompleteRun(ctx, r.runID, status, counts); err != nil {
		r.logger.Warn("failed to complete run record", zap.Error(err))
	}
}
