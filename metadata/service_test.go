package metadata

import (
	"context"
	"testing"

	api "github.com/mohitkumar/funnel/api/v1"
	"github.com/mohitkumar/funnel/model"
	"github.com/mohitkumar/funnel/persistence/inmem"
	"github.com/stretchr/testify/require"
)

func TestWorkflowService(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T, s WorkflowService){
		"test save and get":              testSaveAndGet,
		"test empty catalog validates":   testEmptyCatalogValidates,
		"test unknown workflow rejected": testUnknownWorkflowRejected,
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t, NewWorkflowService(inmem.NewInMemoryWorkflowStorage()))
		})
	}
}

func testSaveAndGet(t *testing.T, s WorkflowService) {
	ctx := context.Background()
	err := s.Save(ctx, model.WorkflowDef{})
	require.IsType(t, api.ValidationError{}, err)

	require.NoError(t, s.Save(ctx, model.WorkflowDef{Id: "wf-a", Name: "base sdxl"}))
	wf, err := s.Get(ctx, "wf-a")
	require.NoError(t, err)
	require.NotNil(t, wf)
	require.Equal(t, "base sdxl", wf.Name)

	// second get answers from cache
	wf, err = s.Get(ctx, "wf-a")
	require.NoError(t, err)
	require.NotNil(t, wf)

	defs, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, defs, 1)
}

func testEmptyCatalogValidates(t *testing.T, s WorkflowService) {
	require.NoError(t, s.Validate(context.Background(), []string{"anything"}))
}

func testUnknownWorkflowRejected(t *testing.T, s WorkflowService) {
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, model.WorkflowDef{Id: "wf-a"}))
	require.NoError(t, s.Validate(ctx, []string{"wf-a"}))
	err := s.Validate(ctx, []string{"wf-a", "wf-b"})
	require.IsType(t, api.NotFoundError{}, err)
}
