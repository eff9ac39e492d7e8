package ado

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/jonathan/ado-testgen/internal/types"
)

type suiteEntry struct {
	ID       json.Number `json:"id"`
	WorkItem *struct {
		ID json.Number `json:"id"`
	} `json:"workItem"`
}

func (e suiteEntry) workItemID() (int, bool) {
	n := e.ID
	if e.WorkItem != nil {
		n = e.WorkItem.ID
	}
	id, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return int(id), true
}

func (c *Client) suitePath(planID, suiteID int) string {
	return fmt.Sprintf("_apis/test/plans/%d/suites/%d/testcases", planID, suiteID)
}

// ListMembers returns the work item IDs of the test cases in a suite.
func (c *Client) ListMembers(ctx context.Context, planID, suiteID int) (map[int]bool, error) {
	var list struct {
		Value []suiteEntry `json:"value"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   c.suitePath(planID, suiteID),
		query:  url.Values{"api-version": {c.plansVersion}},
	}, &list)
	if err != nil {
		return nil, fmt.Errorf("failed to list suite %d members: %w", suiteID, err)
	}

	members := make(map[int]bool, len(list.Value))
	for _, entry := range list.Value {
		if id, ok := entry.workItemID(); ok {
			members[id] = true
		}
	}
	return members, nil
}

// AddMembers adds test cases to a suite one at a time. Cases already in the
// suite, or rejected as already present, count as added.
func (c *Client) AddMembers(ctx context.Context, planID, suiteID int, ids []int) types.SuiteAddResult {
	var result types.SuiteAddResult

	members, err := c.ListMembers(ctx, planID, suiteID)
	if err != nil {
		c.logger.Warn("could not list suite members, adding blindly", zap.Error(err))
		members = map[int]bool{}
	}

	for _, id := range ids {
		if members[id] {
			result.Added++
			continue
		}
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("test case %d not added: %v", id, ctx.Err()))
			continue
		}
		err := c.do(ctx, request{
			method: http.MethodPost,
			path:   fmt.Sprintf("%s/%d", c.suitePath(planID, suiteID), id),
			query:  url.Values{"api-version": {c.plansVersion}},
			body:   map[string]any{},
		}, nil)
		switch {
		case err == nil, IsConflict(err):
			result.Added++
			members[id] = true
		default:
			result.Errors = append(result.Errors, fmt.Sprintf("failed to add test case %d: %v", id, err))
		}
	}
	return result
}
