package ado

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(Options{
		PAT:        "secret",
		BaseURL:    server.URL + "/org/project",
		MaxRetries: 2,
		Backoff:    time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(Options{Org: "o", Project: "p"})
	assert.Error(t, err)

	_, err = NewClient(Options{PAT: "x"})
	assert.Error(t, err)

	c, err := NewClient(Options{PAT: "x", Org: "my org", Project: "proj"})
	require.NoError(t, err)
	assert.Equal(t, "https://dev.azure.com/my%20org/proj", c.baseURL)
	assert.Equal(t, DefaultAPIVersion, c.apiVersion)
	assert.Equal(t, DefaultTestPlansAPIVersion, c.plansVersion)
}

func TestFetchStory(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/org/project/_apis/wit/workitems/42", r.URL.Path)
		assert.Equal(t, "all", r.URL.Query().Get("$expand"))
		assert.Equal(t, "7.1", r.URL.Query().Get("api-version"))
		assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte(":secret")), r.Header.Get("Authorization"))
		writeJSON(w, map[string]any{
			"id": 42,
			"fields": map[string]any{
				FieldTitle:              "Toolbar Tool",
				FieldDescription:        "<p>desc</p>",
				FieldAcceptanceCriteria: "<ol><li>Visible.</li></ol>",
				FieldWorkItemType:       "User Story",
				FieldTags:               "ui; toolbar",
			},
		})
	})

	story, err := c.FetchStory(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 42, story.ID)
	assert.Equal(t, "Toolbar Tool", story.Title)
	assert.Equal(t, "<ol><li>Visible.</li></ol>", story.CriteriaFieldHTML)
	assert.Equal(t, []string{"ui", "toolbar"}, story.Tags)
}

func TestFetchStory_NotFound(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"TF401232: Work item 42 does not exist"}`))
	})

	_, err := c.FetchStory(context.Background(), 42)
	require.Error(t, err)

	var adoErr *Error
	require.ErrorAs(t, err, &adoErr)
	assert.Equal(t, http.StatusNotFound, adoErr.StatusCode)
	assert.Contains(t, err.Error(), "TF401232")
	assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
}

func TestRetryOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			writeJSON(w, map[string]any{"id": 7, "fields": map[string]any{}})
		}
	})

	item, err := c.GetWorkItem(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, item.ID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryGivesUp(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.GetWorkItem(context.Background(), 7)
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCreateTestCase(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/org/project/_apis/wit/workitems/$Test Case", r.URL.Path)
		assert.Equal(t, "application/json-patch+json", r.Header.Get("Content-Type"))

		var ops []patchOp
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ops))
		require.Len(t, ops, 3)
		assert.Equal(t, "/fields/System.Title", ops[0].Path)
		assert.Equal(t, "<steps/>", ops[1].Value)
		assert.Equal(t, "story:1; src:rules", ops[2].Value)
		writeJSON(w, map[string]any{"id": 901})
	})

	id, err := c.CreateTestCase(context.Background(), "1-AC1: a / b / c / d / e", "<steps/>", []string{"story:1", "src:rules"})
	require.NoError(t, err)
	assert.Equal(t, 901, id)
}

func TestUpdateTestCase(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/org/project/_apis/wit/workitems/901", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"op":"replace"`)
		writeJSON(w, map[string]any{"id": 901})
	})

	require.NoError(t, c.UpdateTestCase(context.Background(), 901, "t", "<steps/>", nil))
}

func TestFindExisting_ByTag(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/wiql"):
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Contains(t, body["query"], "CONTAINS 'story:5'")
			writeJSON(w, map[string]any{"workItems": []map[string]int{{"id": 11}, {"id": 12}, {"id": 13}}})
		case strings.HasSuffix(r.URL.Path, "/workitems"):
			assert.Equal(t, "11,12,13", r.URL.Query().Get("ids"))
			writeJSON(w, map[string]any{"value": []map[string]any{
				{"id": 11, "fields": map[string]any{FieldTitle: "5-AC1: a / b / c / d / e", FieldSteps: "<steps/>", FieldTags: "story:5"}},
				{"id": 12, "fields": map[string]any{FieldTitle: "5-005: a / b / c / d / f"}},
				{"id": 13, "fields": map[string]any{FieldTitle: "Manual test without id"}},
			}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	existing, err := c.FindExisting(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, existing, 2)
	assert.Equal(t, 11, existing["5-AC1"].ID)
	assert.Equal(t, "<steps/>", existing["5-AC1"].StepsDocument)
	assert.Equal(t, []string{"story:5"}, existing["5-AC1"].Tags)
	assert.Equal(t, 12, existing["5-005"].ID)
}

func TestFindExisting_FallsBackToTitle(t *testing.T) {
	var mu sync.Mutex
	var queries []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/wiql") {
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			mu.Lock()
			queries = append(queries, body["query"])
			n := len(queries)
			mu.Unlock()
			if n == 1 {
				writeJSON(w, map[string]any{"workItems": []any{}})
				return
			}
			writeJSON(w, map[string]any{"workItems": []map[string]int{{"id": 20}, {"id": 21}}})
			return
		}
		writeJSON(w, map[string]any{"value": []map[string]any{
			{"id": 20, "fields": map[string]any{FieldTitle: "5-010: a / b / c / d / e"}},
			{"id": 21, "fields": map[string]any{FieldTitle: "15-010: other story"}},
		}})
	})

	existing, err := c.FindExisting(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, queries, 2)
	assert.Contains(t, queries[1], "[System.Title] CONTAINS '5-'")
	assert.Len(t, existing, 1)
	assert.Equal(t, 20, existing["5-010"].ID)
}

func TestGetWorkItems_Batches(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		ids := strings.Split(r.URL.Query().Get("ids"), ",")
		assert.LessOrEqual(t, len(ids), batchSize)
		var value []map[string]any
		for _, id := range ids {
			n, _ := json.Number(id).Int64()
			value = append(value, map[string]any{"id": n})
		}
		writeJSON(w, map[string]any{"value": value})
	})

	ids := make([]int, 450)
	for i := range ids {
		ids[i] = 450 - i
	}
	items, err := c.GetWorkItems(context.Background(), ids)
	require.NoError(t, err)
	assert.Len(t, items, 450)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 1, items[0].ID)
	assert.Equal(t, 450, items[449].ID)
}

func TestAddMembers(t *testing.T) {
	var mu sync.Mutex
	var added []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7.1-preview.2", r.URL.Query().Get("api-version"))
		if r.Method == http.MethodGet {
			writeJSON(w, map[string]any{"value": []map[string]any{
				{"workItem": map[string]any{"id": "100"}},
				{"id": 101},
			}})
			return
		}
		mu.Lock()
		added = append(added, r.URL.Path)
		mu.Unlock()
		switch {
		case strings.HasSuffix(r.URL.Path, "/102"):
			writeJSON(w, map[string]any{})
		case strings.HasSuffix(r.URL.Path, "/103"):
			w.WriteHeader(http.StatusConflict)
		case strings.HasSuffix(r.URL.Path, "/104"):
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"Test case already exists in suite"}`))
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	})

	res := c.AddMembers(context.Background(), 1, 2, []int{100, 101, 102, 103, 104, 105})
	assert.Equal(t, 5, res.Added)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "105")
	assert.Len(t, added, 4)
	assert.Equal(t, "/org/project/_apis/test/plans/1/suites/2/testcases/102", added[0])
}

func TestIsConflict(t *testing.T) {
	assert.True(t, IsConflict(&Error{StatusCode: http.StatusConflict}))
	assert.True(t, IsConflict(&Error{StatusCode: 400, Body: "Duplicate test case"}))
	assert.False(t, IsConflict(&Error{StatusCode: 500}))
	assert.False(t, IsConflict(io.EOF))
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b c"}, SplitTags(" a ;b c; ;"))
	assert.Nil(t, SplitTags(""))
}
