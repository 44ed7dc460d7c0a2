package search

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/errorutil"
)

func testRelations() Relations {
	return Relations{
		Parent:   "plan",
		Children: []string{"planCostShares", "linkedPlanServices", "planserviceCostShares"},
	}
}

// capture records the requests the client actually sends.
type capture struct {
	method  string
	path    string
	routing string
	body    string
}

func newCapturingElastic(t *testing.T, status int, reply string) (*Elastic, *capture) {
	t.Helper()
	rec := &capture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.routing = r.URL.Query().Get("routing")
		rec.body = string(body)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)

	e, err := NewElastic(ElasticConfig{URL: srv.URL, Index: "planindex"}, testRelations())
	require.NoError(t, err)
	return e, rec
}

func TestElastic_PutParent(t *testing.T) {
	e, rec := newCapturingElastic(t, http.StatusOK, `{"result":"created"}`)

	err := e.PutParent(context.Background(), "p-1", map[string]interface{}{"planType": "inNetwork"})
	require.NoError(t, err)

	assert.Equal(t, "/planindex/_doc/p-1", rec.path)
	assert.Equal(t, "p-1", rec.routing, "parent routes to itself")
	assert.Contains(t, rec.body, `"rel":"plan"`)
	assert.Contains(t, rec.body, `"objectId":"p-1"`)
}

func TestElastic_PutChild(t *testing.T) {
	e, rec := newCapturingElastic(t, http.StatusOK, `{"result":"created"}`)

	err := e.PutChild(context.Background(), "p-1", "s-1", "linkedPlanServices",
		map[string]interface{}{"name": "Yearly physical"})
	require.NoError(t, err)

	assert.Equal(t, "/planindex/_doc/s-1", rec.path)
	assert.Equal(t, "p-1", rec.routing, "child is co-located with its parent")
	assert.Contains(t, rec.body, `"parent":"p-1"`)
	assert.Contains(t, rec.body, `"name":"linkedPlanServices"`)
}

func TestElastic_MergeParent(t *testing.T) {
	e, rec := newCapturingElastic(t, http.StatusOK, `{"result":"updated"}`)

	err := e.MergeParent(context.Background(), "p-1", map[string]interface{}{"planType": "outOfNetwork"})
	require.NoError(t, err)

	assert.Equal(t, "/planindex/_update/p-1", rec.path)
	assert.Contains(t, rec.body, `"doc_as_upsert":true`)
}

func TestElastic_MergeParent_EmptyIsNoop(t *testing.T) {
	e, rec := newCapturingElastic(t, http.StatusInternalServerError, `{}`)

	err := e.MergeParent(context.Background(), "p-1", nil)
	require.NoError(t, err)
	assert.Empty(t, rec.method, "no request was sent")
}

func TestElastic_DeleteParent_AbsentIsSuccess(t *testing.T) {
	e, _ := newCapturingElastic(t, http.StatusNotFound, `{"result":"not_found"}`)

	assert.NoError(t, e.DeleteParent(context.Background(), "ghost"))
}

func TestElastic_DeleteByRouting(t *testing.T) {
	e, rec := newCapturingElastic(t, http.StatusOK, `{"deleted":2}`)

	err := e.DeleteByRouting(context.Background(), "p-1")
	require.NoError(t, err)

	assert.Equal(t, "/planindex/_delete_by_query", rec.path)
	assert.Contains(t, rec.body, `"_routing":"p-1"`)
}

func TestElastic_ServerErrorIsRetryable(t *testing.T) {
	e, _ := newCapturingElastic(t, http.StatusServiceUnavailable, `{"error":"unavailable"}`)

	err := e.PutParent(context.Background(), "p-1", nil)
	require.Error(t, err)
	assert.True(t, errorutil.IsRetryable(err))
}

func TestElastic_MappingRejectionIsPermanent(t *testing.T) {
	e, _ := newCapturingElastic(t, http.StatusBadRequest, `{"error":"mapper_parsing_exception"}`)

	err := e.PutParent(context.Background(), "p-1", map[string]interface{}{"creationDate": "not-a-date"})
	require.Error(t, err)
	assert.False(t, errorutil.IsRetryable(err))
}

func TestClassify(t *testing.T) {
	e := &Elastic{rels: testRelations()}

	retryable := e.classify(&esapi.Response{
		StatusCode: http.StatusTooManyRequests,
		Body:       io.NopCloser(strings.NewReader(`{"error":"rejected"}`)),
	})
	assert.True(t, errorutil.IsRetryable(retryable))

	permanent := e.classify(&esapi.Response{
		StatusCode: http.StatusBadRequest,
		Body:       io.NopCloser(strings.NewReader(`{"error":"bad"}`)),
	})
	assert.False(t, errorutil.IsRetryable(permanent))
}
