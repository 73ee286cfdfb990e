package dispatch

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/mohitkumar/funnel/model"
	"github.com/stretchr/testify/require"
)

type fakeRenderClient struct {
	calls   int32
	failFor map[string]bool
}

func (c *fakeRenderClient) Render(ctx context.Context, req RenderRequest) (*RenderResult, error) {
	n := atomic.AddInt32(&c.calls, 1)
	if c.failFor[req.WorkflowId] {
		return nil, fmt.Errorf("workflow %s unavailable", req.WorkflowId)
	}
	return &RenderResult{
		JobId:    fmt.Sprintf("job-%d", n),
		Status:   "queued",
		FilePath: fmt.Sprintf("/output/%s.png", req.WorkflowId),
	}, nil
}

func TestRenderDispatcher(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"test parallel produces one job and image per workflow": testParallelFanOut,
		"test refinement produces one job and image per record": testRefinementFanOut,
		"test failures are reported per request":                testFailureOutcomes,
		"test missing seed is assigned":                         testSeedAssigned,
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t)
		})
	}
}

func testParallelFanOut(t *testing.T) {
	client := &fakeRenderClient{}
	d := NewRenderDispatcher(client, 4)
	batch, err := d.ExecuteParallel(context.Background(), "f-1", "s-1", []string{"a", "b", "c"},
		"a castle", "blurry", map[string]any{"steps": 20})
	require.NoError(t, err)
	require.Empty(t, batch.Failures)
	require.Len(t, batch.Jobs, 3)
	require.Len(t, batch.Images, 3)

	workflows := make(map[string]bool)
	for _, image := range batch.Images {
		workflows[image.WorkflowId] = true
		require.Equal(t, "f-1", image.FunnelId)
		require.Equal(t, "s-1", image.StepId)
		require.Equal(t, "a castle", image.Prompt)
		require.NotEmpty(t, image.Id)
		require.NotEmpty(t, image.FilePath)
	}
	require.Len(t, workflows, 3)
	for _, job := range batch.Jobs {
		require.Equal(t, "queued", job.Status)
		require.NotEmpty(t, job.Id)
	}
}

func testRefinementFanOut(t *testing.T) {
	client := &fakeRenderClient{}
	d := NewRenderDispatcher(client, 4)
	refinements := []model.RefinementSpec{
		{ParentImageId: "img-1", WorkflowId: "a", Prompt: "p1", Seed: 7},
		{ParentImageId: "img-2", WorkflowId: "b", Prompt: "p2", Seed: 8},
	}
	batch, err := d.ExecuteRefinements(context.Background(), "f-1", "s-2", refinements)
	require.NoError(t, err)
	require.Empty(t, batch.Failures)
	require.Len(t, batch.Jobs, 2)
	require.Len(t, batch.Images, 2)

	seeds := make(map[int64]bool)
	for _, image := range batch.Images {
		seeds[image.Seed] = true
	}
	require.True(t, seeds[7])
	require.True(t, seeds[8])
}

func testFailureOutcomes(t *testing.T) {
	client := &fakeRenderClient{failFor: map[string]bool{"b": true}}
	d := NewRenderDispatcher(client, 4)
	batch, err := d.ExecuteParallel(context.Background(), "f-1", "s-1", []string{"a", "b", "c"},
		"a castle", "", nil)
	require.NoError(t, err)
	require.Len(t, batch.Failures, 1)
	require.Len(t, batch.Jobs, 2)
	require.Len(t, batch.Images, 2)
	for _, image := range batch.Images {
		require.NotEqual(t, "b", image.WorkflowId)
	}
}

func testSeedAssigned(t *testing.T) {
	client := &fakeRenderClient{}
	d := NewRenderDispatcher(client, 1)
	batch, err := d.ExecuteParallel(context.Background(), "f-1", "s-1", []string{"a"}, "p", "", nil)
	require.NoError(t, err)
	require.Len(t, batch.Images, 1)
	require.NotZero(t, batch.Images[0].Seed)
}
