package client

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

func TestEvaluationsClient(t *testing.T) {
	t.Parallel()

	rec := newRecorder(t,
		indexed("5", `[{"ID":"e1","JobID":"web","Status":"complete"}]`),
		indexed("6", `{"ID":"e1","Status":"complete","TriggeredBy":"job-register"}`),
		indexed("7", `[]`),
	)
	client := NewTestClient(t, rec)
	ctx := context.Background()

	list, err := client.Evaluations().List(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "/v1/evaluations", rec.last(t).Path)
	assert.Equal(t, uint64(5), list.Index)

	result, err := client.Evaluations().Read(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "/v1/evaluation/e1", rec.last(t).Path)

	eval, _, err := nomad.DecodeAs[nomad.Evaluation](result)
	require.NoError(t, err)
	assert.Equal(t, "job-register", eval.TriggeredBy)

	allocs, err := client.Evaluations().Allocations(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "/v1/evaluation/e1/allocations", rec.last(t).Path)
	assert.Equal(t, []interface{}{}, allocs.Data)
}

func TestEvaluationsClient_ReadMissing(t *testing.T) {
	t.Parallel()

	rec := newRecorder(t, status(http.StatusNotFound, "eval not found"))
	client := NewTestClient(t, rec)
	ctx := context.Background()

	result, err := client.Evaluations().Read(ctx, "gone")
	require.Error(t, err)
	assert.Nil(t, result)

	kind, ok := nomad.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, nomad.KindNotFound, kind)
	assert.Contains(t, err.Error(), "reading evaluation gone")

	_, err = client.Evaluations().Allocations(ctx, "gone")
	require.Error(t, err)
	assert.True(t, nomad.IsNotFound(err))
}

func TestEvaluationsClient_ListMissingIsAbsent(t *testing.T) {
	t.Parallel()

	rec := newRecorder(t, status(http.StatusNotFound, ""))
	client := NewTestClient(t, rec)

	result, err := client.Evaluations().List(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, result.Absent())
	assert.False(t, result.Indexed)
}
