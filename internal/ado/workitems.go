package ado

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/ado-testgen/internal/naming"
	"github.com/jonathan/ado-testgen/internal/types"
)

// Work item field reference names.
const (
	FieldTitle              = "System.Title"
	FieldDescription        = "System.Description"
	FieldAcceptanceCriteria = "Microsoft.VSTS.Common.AcceptanceCriteria"
	FieldWorkItemType       = "System.WorkItemType"
	FieldTags               = "System.Tags"
	FieldSteps              = "Microsoft.VSTS.TCM.Steps"

	testCaseType = "Test Case"
	// tagSeparator is how Azure DevOps joins tags in System.Tags.
	tagSeparator = "; "
	// batchSize is the work items batch GET limit.
	batchSize      = 200
	batchFetchers  = 4
	generatorTag   = "generated-by:ado-testgen"
	createTestPath = "_apis/wit/workitems/$Test%20Case"
)

// WorkItem is the raw work item payload.
type WorkItem struct {
	ID     int            `json:"id"`
	Rev    int            `json:"rev"`
	Fields map[string]any `json:"fields"`
}

// Field returns a string field, or "" if it is absent or not a string.
func (w WorkItem) Field(name string) string {
	if v, ok := w.Fields[name].(string); ok {
		return v
	}
	return ""
}

// Tags splits System.Tags.
func (w WorkItem) Tags() []string {
	return SplitTags(w.Field(FieldTags))
}

// SplitTags parses a "; "-joined tag string.
func SplitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ";") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

type patchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

type wiqlResult struct {
	WorkItems []struct {
		ID int `json:"id"`
	} `json:"workItems"`
}

type workItemList struct {
	Value []WorkItem `json:"value"`
}

// GetWorkItem fetches one work item with all fields expanded.
func (c *Client) GetWorkItem(ctx context.Context, id int) (*WorkItem, error) {
	var item WorkItem
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf("_apis/wit/workitems/%d", id),
		query:  c.query(map[string]string{"$expand": "all"}),
	}, &item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FetchStory fetches a user story and maps the fields criteria extraction needs.
func (c *Client) FetchStory(ctx context.Context, id int) (*types.Story, error) {
	item, err := c.GetWorkItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch story %d: %w", id, err)
	}
	return &types.Story{
		ID:                item.ID,
		Title:             item.Field(FieldTitle),
		DescriptionHTML:   item.Field(FieldDescription),
		CriteriaFieldHTML: item.Field(FieldAcceptanceCriteria),
		WorkItemType:      item.Field(FieldWorkItemType),
		Tags:              item.Tags(),
	}, nil
}

// FindExisting returns previously generated test cases for a story keyed by
// the internal ID parsed from their titles. It searches by tag first and by
// title prefix when the tag search finds nothing.
func (c *Client) FindExisting(ctx context.Context, storyID int) (map[string]types.ExistingItem, error) {
	storyTag := fmt.Sprintf("story:%d", storyID)
	ids, err := c.queryIDs(ctx, fmt.Sprintf(
		"SELECT [System.Id] FROM WorkItems WHERE [System.WorkItemType] = '%s' AND [System.Tags] CONTAINS '%s' AND [System.Tags] CONTAINS '%s' ORDER BY [System.Id]",
		testCaseType, escapeWIQL(storyTag), escapeWIQL(generatorTag)))
	if err != nil {
		return nil, fmt.Errorf("tag search failed: %w", err)
	}

	prefix := fmt.Sprintf("%d-", storyID)
	if len(ids) == 0 {
		c.logger.Debug("no tagged test cases, falling back to title prefix", zap.Int("story_id", storyID))
		ids, err = c.queryIDs(ctx, fmt.Sprintf(
			"SELECT [System.Id] FROM WorkItems WHERE [System.WorkItemType] = '%s' AND [System.Title] CONTAINS '%s' ORDER BY [System.Id]",
			testCaseType, escapeWIQL(prefix)))
		if err != nil {
			return nil, fmt.Errorf("title search failed: %w", err)
		}
	}

	items, err := c.GetWorkItems(ctx, ids)
	if err != nil {
		return nil, err
	}

	existing := make(map[string]types.ExistingItem, len(items))
	for _, item := range items {
		title := item.Field(FieldTitle)
		internalID, ok := naming.ParseInternalID(title)
		if !ok || !strings.HasPrefix(internalID, prefix) {
			continue
		}
		if prev, dup := existing[internalID]; dup && prev.ID < item.ID {
			continue
		}
		existing[internalID] = types.ExistingItem{
			ID:            item.ID,
			Title:         title,
			StepsDocument: item.Field(FieldSteps),
			Tags:          item.Tags(),
		}
	}
	return existing, nil
}

func (c *Client) queryIDs(ctx context.Context, wiql string) ([]int, error) {
	var result wiqlResult
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "_apis/wit/wiql",
		query:  c.query(nil),
		body:   map[string]string{"query": wiql},
	}, &result)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(result.WorkItems))
	for _, w := range result.WorkItems {
		ids = append(ids, w.ID)
	}
	return ids, nil
}

// GetWorkItems fetches ids in batches, a few batches at a time, and returns
// the items ordered by ID.
func (c *Client) GetWorkItems(ctx context.Context, ids []int) ([]WorkItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var batches [][]int
	for start := 0; start < len(ids); start += batchSize {
		end := min(start+batchSize, len(ids))
		batches = append(batches, ids[start:end])
	}

	results := make([][]WorkItem, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchFetchers)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			parts := make([]string, len(batch))
			for j, id := range batch {
				parts[j] = strconv.Itoa(id)
			}
			var list workItemList
			err := c.do(gctx, request{
				method: http.MethodGet,
				path:   "_apis/wit/workitems",
				query:  c.query(map[string]string{"ids": strings.Join(parts, ","), "$expand": "all"}),
			}, &list)
			if err != nil {
				return err
			}
			results[i] = list.Value
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch work items: %w", err)
	}

	var items []WorkItem
	for _, r := range results {
		items = append(items, r...)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// CreateTestCase creates a test case work item and returns its ID.
func (c *Client) CreateTestCase(ctx context.Context, title, stepsDocument string, tags []string) (int, error) {
	ops := []patchOp{
		{Op: "add", Path: "/fields/" + FieldTitle, Value: title},
		{Op: "add", Path: "/fields/" + FieldSteps, Value: stepsDocument},
	}
	if len(tags) > 0 {
		ops = append(ops, patchOp{Op: "add", Path: "/fields/" + FieldTags, Value: strings.Join(tags, tagSeparator)})
	}

	var created WorkItem
	err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        createTestPath,
		query:       c.query(nil),
		contentType: contentJSONPatch,
		body:        ops,
	}, &created)
	if err != nil {
		return 0, fmt.Errorf("failed to create test case: %w", err)
	}
	if created.ID == 0 {
		return 0, fmt.Errorf("failed to create test case: response carried no id")
	}
	return created.ID, nil
}

// UpdateTestCase replaces the title, steps and tags of a test case.
func (c *Client) UpdateTestCase(ctx context.Context, id int, title, stepsDocument string, tags []string) error {
	ops := []patchOp{
		{Op: "replace", Path: "/fields/" + FieldTitle, Value: title},
		{Op: "replace", Path: "/fields/" + FieldSteps, Value: stepsDocument},
		{Op: "replace", Path: "/fields/" + FieldTags, Value: strings.Join(tags, tagSeparator)},
	}
	err := c.do(ctx, request{
		method:      http.MethodPatch,
		path:        fmt.Sprintf("_apis/wit/workitems/%d", id),
		query:       c.query(nil),
		contentType: contentJSONPatch,
		body:        ops,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to update test case %d: %w", id, err)
	}
	return nil
}

func escapeWIQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
