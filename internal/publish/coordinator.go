// Package publish reconciles accepted test cases against previously published
// work items, creating, updating or skipping each one, and then requests
// suite membership.
package publish

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/ado-testgen/internal/logging"
	"github.com/jonathan/ado-testgen/internal/steps"
	"github.com/jonathan/ado-testgen/internal/types"
)

// WorkItemSink stores test case work items.
type WorkItemSink interface {
	FindExisting(ctx context.Context, storyID int) (map[string]types.ExistingItem, error)
	CreateTestCase(ctx context.Context, title, stepsDocument string, tags []string) (int, error)
	UpdateTestCase(ctx context.Context, id int, title, stepsDocument string, tags []string) error
}

// SuiteSink manages test suite membership.
type SuiteSink interface {
	AddMembers(ctx context.Context, planID, suiteID int, ids []int) types.SuiteAddResult
}

// Action is the reconciliation verdict for one case.
type Action string

// Actions.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionSkip   Action = "skip"
)

// Decision pairs a case with what publishing it would do.
type Decision struct {
	Case          types.TestCase `json:"case"`
	Action        Action         `json:"action"`
	ExistingID    int            `json:"existing_id,omitempty"`
	StepsDocument string         `json:"-"`
}

// Target names the story and the suite receiving the cases.
type Target struct {
	StoryID int
	PlanID  int
	SuiteID int
}

// Result summarizes a publish or a dry-run plan.
type Result struct {
	Decisions    []Decision `json:"decisions"`
	Created      int        `json:"created"`
	Updated      int        `json:"updated"`
	Skipped      int        `json:"skipped"`
	AddedToSuite int        `json:"added_to_suite"`
	WorkItemIDs  []int      `json:"work_item_ids,omitempty"`
	Errors       []string   `json:"errors,omitempty"`
}

// Coordinator drives the sinks.
type Coordinator struct {
	items  WorkItemSink
	suites SuiteSink
	logger *zap.Logger
}

// NewCoordinator wires the sinks.
func NewCoordinator(items WorkItemSink, suites SuiteSink, logger *zap.Logger) *Coordinator {
	return &Coordinator{items: items, suites: suites, logger: logging.OrNop(logger)}
}

// Plan computes the decision for every case without writing anything. A
// failed lookup of existing items is reported and yields no decisions.
func (c *Coordinator) Plan(ctx context.Context, storyID int, cases []types.TestCase) Result {
	var res Result

	existing, err := c.items.FindExisting(ctx, storyID)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("could not look up existing test cases: %v", err))
		return res
	}

	for _, tc := range cases {
		d, err := Decide(tc, existing)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", tc.InternalID, err))
			continue
		}
		res.Decisions = append(res.Decisions, d)
		switch d.Action {
		case ActionCreate:
			res.Created++
		case ActionUpdate:
			res.Updated++
		case ActionSkip:
			res.Skipped++
		}
	}
	return res
}

// Decide returns the action for tc given the existing items of its story.
// An existing item is skipped when its title matches and its decoded steps
// match either exactly or once web-editor markup is reduced on both sides.
func Decide(tc types.TestCase, existing map[string]types.ExistingItem) (Decision, error) {
	doc, err := steps.Encode(tc.Steps)
	if err != nil {
		return Decision{}, err
	}
	d := Decision{Case: tc, Action: ActionCreate, StepsDocument: doc}

	prev, ok := existing[tc.InternalID]
	if !ok {
		return d, nil
	}
	d.ExistingID = prev.ID
	d.Action = ActionUpdate

	if prev.Title != tc.Title {
		return d, nil
	}
	if prev.StepsDocument == doc {
		d.Action = ActionSkip
		return d, nil
	}
	decoded, err := steps.Decode(prev.StepsDocument)
	if err != nil {
		return d, nil
	}
	if steps.Equal(decoded, tc.Steps) || steps.Equal(steps.Reduce(decoded), steps.Reduce(tc.Steps)) {
		d.Action = ActionSkip
	}
	return d, nil
}

// Publish plans, then executes each decision. Faults are collected per case
// and never stop the remaining cases; cancellation stops further writes.
func (c *Coordinator) Publish(ctx context.Context, target Target, cases []types.TestCase) Result {
	planned := c.Plan(ctx, target.StoryID, cases)
	res := Result{Errors: planned.Errors}

	for i, d := range planned.Decisions {
		if ctx.Err() != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("publish interrupted: %d test cases not processed", len(planned.Decisions)-i))
			break
		}

		tc := d.Case
		switch d.Action {
		case ActionCreate:
			id, err := c.items.CreateTestCase(ctx, tc.Title, d.StepsDocument, tc.Tags)
			if err != nil {
				c.fail(&res, tc, err)
				continue
			}
			d.ExistingID = id
			res.Created++
		case ActionUpdate:
			if err := c.items.UpdateTestCase(ctx, d.ExistingID, tc.Title, d.StepsDocument, tc.Tags); err != nil {
				c.fail(&res, tc, err)
				continue
			}
			res.Updated++
		case ActionSkip:
			res.Skipped++
		}

		c.logger.Info("test case published",
			zap.String("internal_id", tc.InternalID),
			zap.String("action", string(d.Action)),
			zap.Int("work_item_id", d.ExistingID))
		res.Decisions = append(res.Decisions, d)
		res.WorkItemIDs = append(res.WorkItemIDs, d.ExistingID)
	}

	if len(res.WorkItemIDs) > 0 && ctx.Err() == nil {
		added := c.suites.AddMembers(ctx, target.PlanID, target.SuiteID, res.WorkItemIDs)
		res.AddedToSuite = added.Added
		for _, e := range added.Errors {
			c.logger.Error("suite membership failed", zap.String("error", e))
		}
		res.Errors = append(res.Errors, added.Errors...)
	}
	return res
}

func (c *Coordinator) fail(res *Result, tc types.TestCase, err error) {
	c.logger.Error("publish failed", zap.String("internal_id", tc.InternalID), zap.Error(err))
	res.Errors = append(res.Errors, fmt.Sprintf("error processing %s: %v", tc.InternalID, err))
}
